package main

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/txreports/pkg/compare"
	"github.com/ethpandaops/txreports/pkg/markdown"
	"github.com/ethpandaops/txreports/pkg/report"
)

var (
	compareFile    string
	compareMatch   string
	compareInclude []string
	compareExclude []string
	compareStat    string
	compareLimit   int
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare a baseline run against matching runs",
	Long: `Compare one run against every run with the same workload name (--match
name) or the same workload configuration (--match config). Regressions in
achieved TPS, drop rate and the selected statistic's p90 are flagged.`,
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().StringVar(&compareFile, "file", "", "baseline report file (path or base name)")
	compareCmd.Flags().StringVar(&compareMatch, "match", "name", "match mode (name, config)")
	compareCmd.Flags().StringSliceVar(&compareInclude, "include", nil,
		"always compare against these report files")
	compareCmd.Flags().StringSliceVar(&compareExclude, "exclude", nil,
		"never compare against these report files")
	compareCmd.Flags().StringVar(&compareStat, "stat", "", "statistic whose p50/p90 is compared")
	compareCmd.Flags().IntVar(&compareLimit, "limit", 0, "maximum number of compared runs (0 for all)")

	if err := compareCmd.MarkFlagRequired("file"); err != nil {
		panic(err)
	}
}

func runCompare(cmd *cobra.Command, _ []string) error {
	mode, err := compare.ParseMatchMode(compareMatch)
	if err != nil {
		return err
	}

	if compareLimit < 0 {
		return fmt.Errorf("invalid limit %d", compareLimit)
	}

	records, err := loadRecords(cmd)
	if err != nil {
		return err
	}

	base, err := findRun(records, compareFile)
	if err != nil {
		return err
	}

	if compareStat != "" && !slices.Contains(compare.StatKeys(records), compareStat) {
		return fmt.Errorf("unknown stat %q (available: %v)", compareStat, compare.StatKeys(records))
	}

	include, err := resolveRuns(records, compareInclude)
	if err != nil {
		return fmt.Errorf("resolving --include: %w", err)
	}

	exclude, err := resolveRuns(records, compareExclude)
	if err != nil {
		return fmt.Errorf("resolving --exclude: %w", err)
	}

	result, err := compare.Compare(base, compare.WorkloadPool(base, records), compare.MatchOptions{
		Mode:    mode,
		Include: include,
		Exclude: exclude,
		Limit:   compareLimit,
	}, compareStat)
	if err != nil {
		return fmt.Errorf("comparing runs: %w", err)
	}

	log.WithFields(logrus.Fields{
		"baseline": base.Source,
		"matched":  len(result.Rows),
		"mode":     result.Mode,
	}).Debug("Compared runs")

	_, err = fmt.Fprint(cmd.OutOrStdout(), markdown.Comparison(result))

	return err
}

func resolveRuns(records []*report.RunRecord, files []string) ([]string, error) {
	out := make([]string, 0, len(files))

	for _, f := range files {
		rec, err := findRun(records, f)
		if err != nil {
			return nil, err
		}

		out = append(out, rec.Source)
	}

	return out, nil
}
