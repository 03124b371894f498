package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
)

type fileConfig struct {
	ListenAddress   *string `toml:"listen_address"`
	Port            *int    `toml:"port"`
	Interval        *int    `toml:"interval"`
	URL             *string `toml:"url"`
	Token           *string `toml:"token"`
	APIVersion      *int    `toml:"api_version"`
	LogLevel        *string `toml:"log_level"`
	RequestTimeout  *int    `toml:"request_timeout"`
	PerPage         *int    `toml:"per_page"`
	Membership      *bool   `toml:"membership"`
	PipelineDetails *bool   `toml:"pipeline_details"`
}

func loadFile(path string) (*fileConfig, error) {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s: unknown keys %v", path, undecoded)
	}
	return &fc, nil
}

// apply copies file values into cfg unless the matching flag was given.
func (fc *fileConfig) apply(cfg *Config, fs *pflag.FlagSet) {
	changed := func(name string) bool { return fs != nil && fs.Changed(name) }

	if fc.ListenAddress != nil && !changed("listen-address") {
		cfg.ListenAddress = *fc.ListenAddress
	}
	if fc.Port != nil && !changed("port") {
		cfg.Port = *fc.Port
	}
	if fc.Interval != nil && !changed("interval") {
		cfg.Interval = *fc.Interval
	}
	if fc.URL != nil && !changed("url") {
		cfg.URL = *fc.URL
	}
	if fc.Token != nil && !changed("token") {
		cfg.Token = *fc.Token
	}
	if fc.APIVersion != nil && !changed("api-version") {
		cfg.APIVersion = *fc.APIVersion
	}
	if fc.LogLevel != nil && !changed("log-level") {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.RequestTimeout != nil && !changed("request-timeout") {
		cfg.RequestTimeout = *fc.RequestTimeout
	}
	if fc.PerPage != nil && !changed("per-page") {
		cfg.PerPage = *fc.PerPage
	}
	if fc.Membership != nil && !changed("membership") {
		cfg.Membership = *fc.Membership
	}
	if fc.PipelineDetails != nil && !changed("pipeline-details") {
		cfg.PipelineDetails = *fc.PipelineDetails
	}
}
