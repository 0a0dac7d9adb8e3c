package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/txreports/pkg/config"
	"github.com/ethpandaops/txreports/pkg/reportstore"
	"github.com/ethpandaops/txreports/pkg/storage"
)

var (
	// Version information set at build time.
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFiles   []string
	logLevel   string
	reportsDir string
	log        *logrus.Logger
)

func main() {
	log = logrus.New()
	// Stdout carries tables and charts.
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Fatal("Failed to execute command")
	}
}

var rootCmd = &cobra.Command{
	Use:   "txreports",
	Short: "Dashboard for txgen load-test reports",
	Long: `txreports loads txgen load-test report files, normalizes them into run
records and serves per-version medians, run comparisons with regression
flags and trend charts over HTTP or on the command line.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}

		log.SetLevel(level)

		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("txreports %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringArrayVar(&cfgFiles, "config", nil,
		"config file path (can be repeated, later files override earlier ones)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level ("+strings.Join(logLevels(), ", ")+")")
	rootCmd.PersistentFlags().StringVar(&reportsDir, "reports-dir", "",
		"report directory (or S3 prefix), overrides reports.dir")

	rootCmd.AddCommand(versionCmd)
}

func logLevels() []string {
	levels := make([]string, 0, len(logrus.AllLevels))
	for _, level := range logrus.AllLevels {
		levels = append(levels, level.String())
	}

	return levels
}

// loadConfig loads and validates the configuration, applying CLI overrides.
// The configured log level applies unless --log-level was given.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFiles...)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if reportsDir != "" {
		cfg.Reports.Dir = reportsDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if !cmd.Flags().Changed("log-level") {
		level, err := logrus.ParseLevel(cfg.Global.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Global.LogLevel, err)
		}

		log.SetLevel(level)
	}

	return cfg, nil
}

// newReportStore builds the report store on the configured storage backend.
func newReportStore(cfg *config.Config) reportstore.Store {
	var reader storage.Reader = storage.NewLocalReader()

	if cfg.Reports.UseS3() {
		reader = storage.NewS3Reader(cfg.Reports.Storage.S3)
	}

	log.WithFields(logrus.Fields{
		"dir":     cfg.Reports.Dir,
		"backend": reader.Name(),
	}).Debug("Using report storage")

	return reportstore.New(log, reader, cfg.Reports.Workers)
}
