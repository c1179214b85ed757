// Package config handles configuration loading for the market report.
// It supports YAML config files with environment variable overrides.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. MARKETREPORT_REPORT_DIR.
const EnvPrefix = "MARKETREPORT"

// DefaultRecipient receives the report when REPORT_TO is unset.
const DefaultRecipient = "market-report@example.com"

// Config represents the complete application configuration.
type Config struct {
	Sources SourcesConfig `mapstructure:"sources" yaml:"sources"`
	Report  ReportConfig  `mapstructure:"report"  yaml:"report"`
	SMTP    SMTPConfig    `mapstructure:"smtp"    yaml:"smtp"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// SourcesConfig holds the price source settings.
type SourcesConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Yahoo   YahooConfig   `mapstructure:"yahoo"   yaml:"yahoo"`
	TE      TEConfig      `mapstructure:"tradingeconomics" yaml:"tradingeconomics"`
}

// YahooConfig configures the futures series source.
type YahooConfig struct {
	BaseURL     string  `mapstructure:"base_url"     yaml:"base_url"`
	HistoryDays int     `mapstructure:"history_days" yaml:"history_days"`
	RatePerSec  float64 `mapstructure:"rate_per_sec" yaml:"rate_per_sec"`
}

// TEConfig configures the page-scrape source.
type TEConfig struct {
	BaseURL     string        `mapstructure:"base_url"     yaml:"base_url"`
	Selectors   []string      `mapstructure:"selectors"    yaml:"selectors"`
	MetaFields  []string      `mapstructure:"meta_fields"  yaml:"meta_fields"` // "attr=value", e.g. "name=twitter:data1"
	DelayMin    time.Duration `mapstructure:"delay_min"    yaml:"delay_min"`
	DelayJitter time.Duration `mapstructure:"delay_jitter" yaml:"delay_jitter"`
}

// ReportConfig holds output settings.
type ReportConfig struct {
	Dir  string `mapstructure:"dir"  yaml:"dir"`
	XLSX bool   `mapstructure:"xlsx" yaml:"xlsx"`
}

// SMTPConfig holds delivery settings. Host, User and Pass must all be set
// for the report to be mailed.
type SMTPConfig struct {
	Host    string        `mapstructure:"host"    yaml:"host"`
	Port    int           `mapstructure:"port"    yaml:"port"`
	User    string        `mapstructure:"user"    yaml:"user"`
	Pass    string        `mapstructure:"pass"    yaml:"pass"`
	To      string        `mapstructure:"to"      yaml:"to"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// MetricsConfig holds the Prometheus textfile settings.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"` // empty disables the export
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "console" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.marketreport/config.yaml (home directory)
//  3. /etc/marketreport/config.yaml (system)
//
// A .env file in the working directory is loaded first when present.
// Environment variables override config file values.
// Format: MARKETREPORT_<SECTION>_<KEY>, e.g., MARKETREPORT_REPORT_DIR.
// SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASS and REPORT_TO are also read
// without the prefix.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".marketreport"))
	v.AddConfigPath("/etc/marketreport")

	// Config file is optional.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "error reading config file")
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, eris.Wrapf(err, "error reading config file %s", path)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "error unmarshaling config")
	}
	if cfg.SMTP.To == "" {
		cfg.SMTP.To = DefaultRecipient
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Sources
	v.SetDefault("sources.timeout", 15*time.Second)
	v.SetDefault("sources.yahoo.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("sources.yahoo.history_days", 400)
	v.SetDefault("sources.yahoo.rate_per_sec", 5.0)
	v.SetDefault("sources.tradingeconomics.base_url", "https://tradingeconomics.com")
	v.SetDefault("sources.tradingeconomics.selectors", []string{
		".tradingeconomics-widget .value",
		".indicator .value",
		".last",
		".quote-value",
		".value",
	})
	v.SetDefault("sources.tradingeconomics.meta_fields", []string{
		"name=twitter:data1",
		"property=og:description",
	})
	v.SetDefault("sources.tradingeconomics.delay_min", 600*time.Millisecond)
	v.SetDefault("sources.tradingeconomics.delay_jitter", 600*time.Millisecond)

	// Report
	v.SetDefault("report.dir", "reports")
	v.SetDefault("report.xlsx", false)

	// SMTP
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.timeout", 30*time.Second)

	// Metrics
	v.SetDefault("metrics.textfile", "")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// bindLegacyEnv maps the unprefixed delivery variables onto their keys.
// Prefixed variables still win because BindEnv checks them first.
func bindLegacyEnv(v *viper.Viper) {
	bindings := map[string]string{
		"smtp.host": "SMTP_HOST",
		"smtp.port": "SMTP_PORT",
		"smtp.user": "SMTP_USER",
		"smtp.pass": "SMTP_PASS",
		"smtp.to":   "REPORT_TO",
	}
	for key, env := range bindings {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, env)
	}
}

// loadDotEnv loads path into the process environment when it exists.
// Variables already set are never overwritten.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return eris.Wrapf(err, "error loading %s", path)
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
