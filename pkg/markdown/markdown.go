// Package markdown renders run records, version medians and comparisons as
// markdown tables.
package markdown

import (
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/ethpandaops/txreports/pkg/compare"
	"github.com/ethpandaops/txreports/pkg/report"
)

// Runs renders one row per record in the given order.
func Runs(records []*report.RunRecord) string {
	var sb strings.Builder

	sb.Grow(256 + 160*len(records))

	writeHeader(&sb, "Start", "Workload", "Gen mode", "Version", "Target TPS",
		"Achieved TPS", "Committed", "Dropped", "Drop rate", "Duration", "Config", "File")

	for _, r := range records {
		writeRow(&sb,
			compare.FormatTime(r.Start),
			r.WorkloadName,
			r.GenMode,
			compare.ByClientVersion(r),
			strconv.FormatInt(r.TargetTPS, 10),
			fmt.Sprintf("%.2f", r.AchievedTPS),
			strconv.FormatInt(r.TxsCommitted, 10),
			strconv.FormatInt(r.TxsDropped, 10),
			compare.FormatPercent(r.DropRate),
			compare.FormatDuration(r.DurationSeconds),
			code(r.ShortHash()),
			baseName(r.Source),
		)
	}

	return sb.String()
}

// RunDetail renders the overview and overall percentiles of one record.
func RunDetail(r *report.RunRecord) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Run: %s\n\n", baseName(r.Source))

	sb.WriteString("## Overview\n\n")
	writeHeader(&sb, "Field", "Value")
	writeRow(&sb, "Workload", r.WorkloadName)
	writeRow(&sb, "Gen mode", r.GenMode)
	writeRow(&sb, "Client version", compare.ByClientVersion(r))
	writeRow(&sb, "Started", compare.FormatTime(r.Start))
	writeRow(&sb, "Duration", compare.FormatDuration(r.DurationSeconds))
	writeRow(&sb, "Target TPS", strconv.FormatInt(r.TargetTPS, 10))
	writeRow(&sb, "Achieved TPS", fmt.Sprintf("%.2f", r.AchievedTPS))
	writeRow(&sb, "Sent", strconv.FormatInt(r.TxsSent, 10))
	writeRow(&sb, "Committed", strconv.FormatInt(r.TxsCommitted, 10))
	writeRow(&sb, "Dropped", strconv.FormatInt(r.TxsDropped, 10))
	writeRow(&sb, "Drop rate", compare.FormatPercent(r.DropRate))
	writeRow(&sb, "Config hash", code(orNA(r.ConfigHash)))
	sb.WriteByte('\n')

	writeStats(&sb, r)

	return sb.String()
}

func writeStats(sb *strings.Builder, r *report.RunRecord) {
	keys := compare.StatKeys([]*report.RunRecord{r})
	if len(keys) == 0 {
		return
	}

	sb.WriteString("## Stats (overall)\n\n")
	writeHeader(sb, "Metric", "Mean", "p25", "p50", "p90", "p99", "Samples")

	for _, k := range keys {
		s := r.Stats[k]

		writeRow(sb, k,
			statCell(s, report.StatMean),
			statCell(s, report.StatP25),
			statCell(s, report.StatP50),
			statCell(s, report.StatP90),
			statCell(s, report.StatP99),
			samplesCell(s),
		)
	}

	sb.WriteByte('\n')
}

// Versions renders the reference version's medians followed by one table
// per compared version. Pair cells are "reference (compared)".
func Versions(rep *compare.VersionReport) string {
	var sb strings.Builder

	if rep.Reference == "" {
		sb.WriteString("No runs found.\n")

		return sb.String()
	}

	fmt.Fprintf(&sb, "## Reference: %s\n\n", rep.ReferenceLabel)

	if len(rep.ReferenceRows) == 0 {
		sb.WriteString("No runs for the selected workloads.\n\n")
	} else {
		writeHeader(&sb, "Workload", "Runs", "Median achieved TPS",
			"Median drop rate", "Median duration", "Latest run")

		for _, row := range rep.ReferenceRows {
			writeRow(&sb,
				row.Workload,
				strconv.Itoa(row.Runs),
				compare.FormatTPS(row.MedianAchievedTPS),
				compare.FormatOptionalPercent(row.MedianDropRate),
				compare.FormatOptionalDuration(row.MedianDuration),
				compare.FormatOptionalTime(row.LatestStart),
			)
		}

		sb.WriteByte('\n')
	}

	for _, c := range rep.Comparisons {
		fmt.Fprintf(&sb, "## %s vs %s\n\n", rep.ReferenceLabel, c.Label)

		if len(c.Rows) == 0 {
			sb.WriteString("No shared workloads.\n\n")

			continue
		}

		writeHeader(&sb, "Workload", "Runs", "Median TPS", "TPS Δ",
			"Drop rate", "Drop Δ", "Latest run")

		for _, row := range c.Rows {
			writeRow(&sb,
				row.Workload,
				pair(row.Reference, row.Compared, func(s *compare.Summary) string {
					return strconv.Itoa(s.Runs)
				}),
				pair(row.Reference, row.Compared, func(s *compare.Summary) string {
					return compare.FormatTPS(s.MedianAchievedTPS)
				}),
				compare.FormatTPSDelta(row.TPSDelta),
				pair(row.Reference, row.Compared, func(s *compare.Summary) string {
					return compare.FormatOptionalPercent(s.MedianDropRate)
				}),
				compare.FormatDropDelta(row.DropDelta),
				pair(row.Reference, row.Compared, func(s *compare.Summary) string {
					return compare.FormatOptionalTime(s.LatestStart)
				}),
			)
		}

		sb.WriteByte('\n')
	}

	return sb.String()
}

// Comparison renders the baseline row, one row per candidate with deltas
// and regression notes, and the config differences of candidates whose
// fingerprint differs.
func Comparison(c *compare.Comparison) string {
	var sb strings.Builder

	base := c.Baseline

	fmt.Fprintf(&sb, "## Baseline: %s\n\n", base.Label())
	fmt.Fprintf(&sb, "Match: %s, config hash: %s\n\n", c.Mode, code(orNA(base.ConfigHash)))

	cols := []string{"Role", "Start", "Version", "Target TPS", "Achieved TPS", "Drop rate"}
	if c.StatKey != "" {
		cols = append(cols, c.StatKey+" p90", c.StatKey+" p50")
	}

	cols = append(cols, "File", "Regression")
	writeHeader(&sb, cols...)

	baseCells := []string{
		"Baseline",
		compare.FormatTime(base.Start),
		compare.ByClientVersion(base),
		strconv.FormatInt(base.TargetTPS, 10),
		fmt.Sprintf("%.2f", base.AchievedTPS),
		compare.FormatPercent(base.DropRate),
	}
	if c.StatKey != "" {
		baseCells = append(baseCells,
			statValueCell(base, c.StatKey, report.StatP90),
			statValueCell(base, c.StatKey, report.StatP50))
	}

	baseCells = append(baseCells, baseName(base.Source), "")
	writeRow(&sb, baseCells...)

	for _, row := range c.Rows {
		r := row.Run
		cells := []string{
			"Comparison",
			compare.FormatTime(r.Start),
			compare.ByClientVersion(r),
			strconv.FormatInt(r.TargetTPS, 10),
			fmt.Sprintf("%.2f (%s)", r.AchievedTPS, compare.FormatSignedPercent(row.AchievedTPS.Percent)),
			fmt.Sprintf("%s (%s)", compare.FormatPercent(r.DropRate), compare.FormatDeltaPP(base.DropRate, r.DropRate)),
		}

		if c.StatKey != "" {
			cells = append(cells, statDeltaCell(row.StatP90), statDeltaCell(row.StatP50))
		}

		cells = append(cells, baseName(r.Source), row.Note)
		writeRow(&sb, cells...)
	}

	sb.WriteByte('\n')

	writeConfigDiffs(&sb, c.Rows)

	return sb.String()
}

func writeConfigDiffs(sb *strings.Builder, rows []compare.ComparisonRow) {
	hasDiff := slices.ContainsFunc(rows, func(row compare.ComparisonRow) bool {
		return len(row.ConfigDiff) > 0
	})
	if !hasDiff {
		return
	}

	sb.WriteString("## Config differences\n\n")
	writeHeader(sb, "File", "Op", "Path", "Value")

	for _, row := range rows {
		for _, ch := range row.ConfigDiff {
			value := ""
			if ch.Op != "remove" {
				value = code(fmt.Sprint(ch.Value))
			}

			writeRow(sb, baseName(row.Run.Source), ch.Op, code(ch.Path), value)
		}
	}

	sb.WriteByte('\n')
}

func writeHeader(sb *strings.Builder, cols ...string) {
	writeRow(sb, cols...)

	sb.WriteString("|")

	for range cols {
		sb.WriteString("---|")
	}

	sb.WriteByte('\n')
}

func writeRow(sb *strings.Builder, cells ...string) {
	sb.WriteString("|")

	for _, c := range cells {
		sb.WriteByte(' ')
		sb.WriteString(escape(c))
		sb.WriteString(" |")
	}

	sb.WriteByte('\n')
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")

	return strings.ReplaceAll(s, "|", `\|`)
}

func code(s string) string {
	if s == "" || s == compare.NotAvailable {
		return s
	}

	return "`" + s + "`"
}

func orNA(s string) string {
	if s == "" {
		return compare.NotAvailable
	}

	return s
}

func baseName(source string) string {
	return path.Base(strings.ReplaceAll(source, "\\", "/"))
}

func pair(ref, cmp *compare.Summary, format func(*compare.Summary) string) string {
	return fmt.Sprintf("%s (%s)", summaryCell(ref, format), summaryCell(cmp, format))
}

func summaryCell(s *compare.Summary, format func(*compare.Summary) string) string {
	if s == nil {
		return compare.NotAvailable
	}

	return format(s)
}

func statCell(s report.StatSummary, field string) string {
	v, ok := s.Value(field)
	if !ok {
		return compare.NotAvailable
	}

	return strconv.FormatFloat(v, 'f', -1, 64)
}

func samplesCell(s report.StatSummary) string {
	if s.Samples == nil {
		return compare.NotAvailable
	}

	return strconv.FormatInt(*s.Samples, 10)
}

func statValueCell(r *report.RunRecord, key, field string) string {
	v, ok := r.StatValue(key, field)
	if !ok {
		return compare.NotAvailable
	}

	return fmt.Sprintf("%.3f", v)
}

func statDeltaCell(d *compare.Delta) string {
	if d == nil {
		return compare.NotAvailable
	}

	return fmt.Sprintf("%.3f (%s)", d.Value, compare.FormatSignedPercent(d.Percent))
}
