package report

import "fmt"

// ParseError reports a timestamp or JSON document that could not be parsed.
type ParseError struct {
	Input string
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parsing %q: %s: %v", truncate(e.Input, 64), e.Msg, e.Err)
	}

	return fmt.Sprintf("parsing %q: %s", truncate(e.Input, 64), e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// RejectedError is returned when a report object could not be normalized
// into a RunRecord. Cause is a human-readable reason, possibly wrapping a
// *ParseError.
type RejectedError struct {
	Source string
	Cause  error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("report %s rejected: %v", e.Source, e.Cause)
}

func (e *RejectedError) Unwrap() error {
	return e.Cause
}

// IOError is returned when a report file could not be read.
type IOError struct {
	Source string
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("reading report %s: %v", e.Source, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}
