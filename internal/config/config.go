// Package config provides application configuration structures and helpers.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Config holds the configuration settings for the exporter.
type Config struct {
	ListenAddress   string // Interface to bind, empty for all
	Port            int    // Port of the /metrics endpoint
	Interval        int    // Pause between collection cycles (in seconds)
	URL             string // GitLab instance URL
	Token           string // Bearer credential for the GitLab API
	APIVersion      int    // GitLab REST API version
	LogLevel        string // Minimum log level
	RequestTimeout  int    // Timeout of a single GitLab request (in seconds)
	PerPage         int    // Page size used when listing resources
	Membership      bool   // List only projects the token's user is a member of
	PipelineDetails bool   // Fetch pipeline details to obtain start/finish timestamps
	ConfigPath      string // Path to the TOML config file
	Logger          *zap.SugaredLogger
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Port:            3001,
		Interval:        300,
		URL:             "https://gitlab.com",
		APIVersion:      4,
		LogLevel:        "WARN",
		RequestTimeout:  30,
		PerPage:         100,
		PipelineDetails: true,
	}
}

// BindFlags registers the exporter flags on fs.
func BindFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.StringP("config", "c", "", "path to TOML config file")
	fs.String("listen-address", d.ListenAddress, "interface to bind the metrics endpoint to")
	fs.IntP("port", "p", d.Port, "port of the metrics endpoint")
	fs.IntP("interval", "i", d.Interval, "seconds to sleep between collection cycles")
	fs.String("url", d.URL, "GitLab instance URL")
	fs.String("token", d.Token, "GitLab API token")
	fs.Int("api-version", d.APIVersion, "GitLab REST API version")
	fs.String("log-level", d.LogLevel, "minimum log level (DEBUG, INFO, WARN, ERROR)")
	fs.Int("request-timeout", d.RequestTimeout, "timeout of a single GitLab request (seconds)")
	fs.Int("per-page", d.PerPage, "page size used when listing resources (1-100)")
	fs.Bool("membership", d.Membership, "only list projects the token's user is a member of")
	fs.Bool("pipeline-details", d.PipelineDetails, "fetch pipeline details to obtain start/finish timestamps")
}

// NewConfig builds the configuration from defaults, flags, the TOML file and
// the environment. Environment variables win over everything else, the file
// only fills values not given as flags.
func NewConfig(fs *pflag.FlagSet) (*Config, error) {
	cfg := Default()

	if err := applyFlags(cfg, fs); err != nil {
		return nil, err
	}

	if cfg.ConfigPath == "" {
		cfg.ConfigPath = lookupEnv("CONFIG")
	}
	if cfg.ConfigPath != "" {
		fc, err := loadFile(cfg.ConfigPath)
		if err != nil {
			return nil, err
		}
		fc.apply(cfg, fs)
	}

	problems := readEnvironment(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	cfg.Logger = logger
	for _, p := range problems {
		cfg.Logger.Warn(p)
	}

	return cfg, nil
}

func applyFlags(cfg *Config, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}

	var errs []error
	str := func(name string, dst *string) {
		if fs.Changed(name) {
			v, err := fs.GetString(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if fs.Changed(name) {
			v, err := fs.GetInt(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		if fs.Changed(name) {
			v, err := fs.GetBool(name)
			errs = append(errs, err)
			*dst = v
		}
	}

	str("config", &cfg.ConfigPath)
	str("listen-address", &cfg.ListenAddress)
	num("port", &cfg.Port)
	num("interval", &cfg.Interval)
	str("url", &cfg.URL)
	str("token", &cfg.Token)
	num("api-version", &cfg.APIVersion)
	str("log-level", &cfg.LogLevel)
	num("request-timeout", &cfg.RequestTimeout)
	num("per-page", &cfg.PerPage)
	boolean("membership", &cfg.Membership)
	boolean("pipeline-details", &cfg.PipelineDetails)

	return errors.Join(errs...)
}

// Validate checks that the configuration can be used to start the exporter.
func (cfg *Config) Validate() error {
	var errs []error
	if cfg.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %d", cfg.Interval))
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("port out of range: %d", cfg.Port))
	}
	if cfg.APIVersion <= 0 {
		errs = append(errs, fmt.Errorf("api version must be positive, got %d", cfg.APIVersion))
	}
	if cfg.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("request timeout cannot be negative, got %d", cfg.RequestTimeout))
	}
	if cfg.PerPage < 1 || cfg.PerPage > 100 {
		errs = append(errs, fmt.Errorf("per page must be within 1..100, got %d", cfg.PerPage))
	}
	if u, err := url.Parse(cfg.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid GitLab URL %q", cfg.URL))
	}
	if cfg.Token == "" {
		errs = append(errs, errors.New("GitLab token is required"))
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Addr is the listen address of the metrics endpoint.
func (cfg *Config) Addr() string {
	return net.JoinHostPort(cfg.ListenAddress, strconv.Itoa(cfg.Port))
}

// PollInterval is the pause between two collection cycles.
func (cfg *Config) PollInterval() time.Duration {
	return time.Duration(cfg.Interval) * time.Second
}

// Timeout is the per-request timeout of the GitLab client; zero disables it.
func (cfg *Config) Timeout() time.Duration {
	return time.Duration(cfg.RequestTimeout) * time.Second
}

// APIBaseURL is the root of the versioned GitLab REST API.
func (cfg *Config) APIBaseURL() string {
	return strings.TrimRight(cfg.URL, "/") + "/api/v" + strconv.Itoa(cfg.APIVersion)
}
