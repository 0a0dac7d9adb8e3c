package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/txreports/pkg/compare"
	"github.com/ethpandaops/txreports/pkg/markdown"
)

var (
	versionsReference  string
	versionsCompared   []string
	versionsWorkloads  []string
	versionsSharedOnly bool
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Print per-version median tables",
	Long: `Print the per-workload medians of a reference client version and its
deltas against other versions. The reference defaults to the version with the
most recent run; the compared versions default to the next two.`,
	RunE: runVersions,
}

func init() {
	rootCmd.AddCommand(versionsCmd)
	versionsCmd.Flags().StringVar(&versionsReference, "reference", "", "reference client version")
	versionsCmd.Flags().StringSliceVar(&versionsCompared, "compare", nil,
		"client versions to compare against (comma-separated or repeated flag)")
	versionsCmd.Flags().StringSliceVar(&versionsWorkloads, "workload", nil,
		"restrict to these workloads (comma-separated or repeated flag)")
	versionsCmd.Flags().BoolVar(&versionsSharedOnly, "shared-only", false,
		"only show workloads present in every selected version")
}

func runVersions(cmd *cobra.Command, _ []string) error {
	records, err := loadRecords(cmd)
	if err != nil {
		return err
	}

	bounds := compare.ComputeVersionBounds(records)

	for _, v := range append([]string{versionsReference}, versionsCompared...) {
		if _, ok := bounds[v]; v != "" && !ok {
			return fmt.Errorf("unknown client version %q", v)
		}
	}

	rep := compare.BuildVersionReport(records, compare.VersionQuery{
		Reference:  versionsReference,
		Compared:   versionsCompared,
		Workloads:  versionsWorkloads,
		SharedOnly: versionsSharedOnly,
	})

	_, err = fmt.Fprint(cmd.OutOrStdout(), markdown.Versions(rep))

	return err
}
