package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix is prepended to every environment variable override, e.g.
	// TXREPORTS_REPORTS_DIR overrides reports.dir.
	EnvPrefix = "TXREPORTS"

	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultReportsDir is the default directory scanned for report files.
	DefaultReportsDir = "./reports"

	// DefaultLoadWorkers is the default number of files parsed in parallel.
	DefaultLoadWorkers = 8

	redacted = "<redacted>"
)

// Config is the root configuration for txreports.
type Config struct {
	Global  GlobalConfig  `yaml:"global" mapstructure:"global"`
	Reports ReportsConfig `yaml:"reports" mapstructure:"reports"`
	API     APIConfig     `yaml:"api" mapstructure:"api"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// ReportsConfig describes where report files are discovered and how they
// are loaded. With the S3 backend Dir is the key prefix inside the bucket.
type ReportsConfig struct {
	Dir     string              `yaml:"dir" mapstructure:"dir"`
	Workers int                 `yaml:"workers" mapstructure:"workers"`
	Storage ReportStorageConfig `yaml:"storage,omitempty" mapstructure:"storage"`
}

// ReportStorageConfig selects the backend reports are read from. The local
// filesystem is used unless S3 is enabled.
type ReportStorageConfig struct {
	S3 *S3Config `yaml:"s3,omitempty" mapstructure:"s3"`
}

// S3Config contains S3-compatible object storage settings.
type S3Config struct {
	Enabled         bool   `yaml:"enabled" mapstructure:"enabled"`
	EndpointURL     string `yaml:"endpoint_url,omitempty" mapstructure:"endpoint_url"`
	Region          string `yaml:"region,omitempty" mapstructure:"region"`
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
}

// UseS3 reports whether reports are read from S3.
func (c *ReportsConfig) UseS3() bool {
	return c.Storage.S3 != nil && c.Storage.S3.Enabled
}

// Load reads and merges the given configuration files in order, applies
// TXREPORTS_* environment overrides and fills in defaults. With no paths the
// configuration is built from the environment and defaults alone.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans that default to true cannot be told apart from an unset
	// value after decoding.
	v.SetDefault("api.server.metrics", true)

	bindEnvs(v, reflect.TypeOf(Config{}), "")

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		v.SetConfigFile(path)

		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	var cfg Config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("creating config decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// bindEnvs registers every leaf key of the config struct with viper so
// AutomaticEnv can resolve it even when no file sets the key.
func bindEnvs(v *viper.Viper, t reflect.Type, prefix string) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := range t.NumField() {
		field := t.Field(i)

		tag := strings.Split(field.Tag.Get("mapstructure"), ",")[0]
		if tag == "" || tag == "-" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		ft := field.Type
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}

		if ft.Kind() == reflect.Struct {
			bindEnvs(v, ft, key)

			continue
		}

		_ = v.BindEnv(key)
	}
}

// applyDefaults sets default values for unspecified configuration options.
func (c *Config) applyDefaults() {
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = DefaultLogLevel
	}

	if c.Reports.Dir == "" {
		c.Reports.Dir = DefaultReportsDir
	}

	if c.Reports.Workers <= 0 {
		c.Reports.Workers = DefaultLoadWorkers
	}

	if c.Reports.UseS3() && c.Reports.Storage.S3.Region == "" {
		c.Reports.Storage.S3.Region = "us-east-1"
	}

	c.API.applyDefaults()
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Global.LogLevel); err != nil {
		return fmt.Errorf("global.log_level: %w", err)
	}

	if strings.TrimSpace(c.Reports.Dir) == "" {
		return fmt.Errorf("reports.dir is required")
	}

	if c.Reports.UseS3() && c.Reports.Storage.S3.Bucket == "" {
		return fmt.Errorf("reports.storage.s3.bucket is required when s3 is enabled")
	}

	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	return nil
}

// Dump renders the effective configuration as YAML with secrets redacted.
func (c *Config) Dump() ([]byte, error) {
	cp := *c

	if c.Reports.Storage.S3 != nil {
		s3 := *c.Reports.Storage.S3
		if s3.SecretAccessKey != "" {
			s3.SecretAccessKey = redacted
		}

		cp.Reports.Storage.S3 = &s3
	}

	if len(c.API.Auth.Basic.Users) > 0 {
		users := make([]BasicAuthUser, len(c.API.Auth.Basic.Users))
		for i, u := range c.API.Auth.Basic.Users {
			users[i] = BasicAuthUser{Username: u.Username, PasswordHash: redacted}
		}

		cp.API.Auth.Basic.Users = users
	}

	if c.API.Indexing != nil {
		idx := *c.API.Indexing
		if idx.Database.Postgres.Password != "" {
			idx.Database.Postgres.Password = redacted
		}

		cp.API.Indexing = &idx
	}

	out, err := yaml.Marshal(&cp)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}

	return out, nil
}
