package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/txreports/pkg/chart"
	"github.com/ethpandaops/txreports/pkg/compare"
	"github.com/ethpandaops/txreports/pkg/report"
)

var (
	chartWorkload string
	chartOutput   string
	chartMetric   string
	chartTarget   bool
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render a workload trend chart as PNG",
	RunE:  runChart,
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().StringVar(&chartWorkload, "workload", "", "workload name")
	chartCmd.Flags().StringVar(&chartOutput, "out", "", "output PNG file (default: <workload>-<metric>.png)")
	chartCmd.Flags().StringVar(&chartMetric, "metric", string(chart.MetricAchievedTPS),
		"plotted metric (achieved_tps, drop_rate)")
	chartCmd.Flags().BoolVar(&chartTarget, "target", false, "overlay the target TPS")

	if err := chartCmd.MarkFlagRequired("workload"); err != nil {
		panic(err)
	}
}

func runChart(cmd *cobra.Command, _ []string) error {
	metric, err := chart.ParseMetric(chartMetric)
	if err != nil {
		return err
	}

	records, err := loadRecords(cmd)
	if err != nil {
		return err
	}

	records = compare.Filter(records, func(r *report.RunRecord) bool {
		return r.WorkloadName == chartWorkload
	})

	output := chartOutput
	if output == "" {
		output = fmt.Sprintf("%s-%s.png", chartWorkload, metric)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	err = chart.WriteTrend(f, chartWorkload, records, chart.Options{
		Metric:     metric,
		ShowTarget: chartTarget,
	})
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(output)

		return fmt.Errorf("rendering chart: %w", err)
	}

	log.WithFields(logrus.Fields{
		"output": output,
		"runs":   len(records),
	}).Info("Trend chart written")

	return nil
}
