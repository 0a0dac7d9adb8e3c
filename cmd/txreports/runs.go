package main

import (
	"fmt"
	"path"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/txreports/pkg/compare"
	"github.com/ethpandaops/txreports/pkg/markdown"
	"github.com/ethpandaops/txreports/pkg/report"
)

var (
	runsWorkload string
	runsVersion  string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List run records as a markdown table",
	Long:  `Load every report under the reports directory and print one row per accepted run, newest first.`,
	RunE:  runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().StringVar(&runsWorkload, "workload", "", "only list runs of this workload")
	runsCmd.Flags().StringVar(&runsVersion, "version", "", "only list runs of this client version")
}

func runRuns(cmd *cobra.Command, _ []string) error {
	records, err := loadRecords(cmd)
	if err != nil {
		return err
	}

	records = compare.Filter(records, func(r *report.RunRecord) bool {
		if runsWorkload != "" && r.WorkloadName != runsWorkload {
			return false
		}

		return runsVersion == "" || compare.ByClientVersion(r) == runsVersion
	})

	_, err = fmt.Fprint(cmd.OutOrStdout(), markdown.Runs(records))

	return err
}

// loadRecords loads the configured report directory.
func loadRecords(cmd *cobra.Command) ([]*report.RunRecord, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	records, err := newReportStore(cfg).Load(cmd.Context(), cfg.Reports.Dir)
	if err != nil {
		return nil, fmt.Errorf("loading reports: %w", err)
	}

	return records, nil
}

// findRun resolves a run by source or by base name.
func findRun(records []*report.RunRecord, file string) (*report.RunRecord, error) {
	if rec, ok := compare.FindBySource(records, file); ok {
		return rec, nil
	}

	for _, rec := range records {
		if path.Base(rec.Source) == file {
			return rec, nil
		}
	}

	return nil, fmt.Errorf("run %q not found", file)
}
