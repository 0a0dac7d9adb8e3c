// Package compare groups, summarizes and compares run records.
//
// Every function is pure. "No data" conditions are reported through
// sentinels (empty groups, invalid OptionalFloat values), never errors.
package compare
