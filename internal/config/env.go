package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads a .env file from the working directory, if any.
// Variables already present in the environment are kept.
func LoadDotEnv() {
	_ = godotenv.Load()
}

func lookupEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// readEnvironment overrides cfg with environment variables and returns a
// description of every value it had to ignore.
func readEnvironment(cfg *Config) []string {
	var problems []string

	intVar := func(key string, dst *int) {
		v := lookupEnv(key)
		if v == "" {
			return
		}
		i, err := strconv.Atoi(v)
		if err != nil {
			problems = append(problems, fmt.Sprintf("invalid %s env var: %v", key, err))
			return
		}
		*dst = i
	}
	boolVar := func(key string, dst *bool) {
		v := lookupEnv(key)
		if v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			problems = append(problems, fmt.Sprintf("invalid %s env var: %v", key, err))
			return
		}
		*dst = b
	}

	if addr := lookupEnv("LISTEN_ADDRESS"); addr != "" {
		cfg.ListenAddress = addr
	}
	intVar("PORT", &cfg.Port)
	intVar("INTERVAL", &cfg.Interval)
	if u := lookupEnv("URL"); u != "" {
		cfg.URL = u
	}
	if token := lookupEnv("TOKEN"); token != "" {
		cfg.Token = token
	}
	intVar("API_VERSION", &cfg.APIVersion)
	if level := lookupEnv("LOGLEVEL"); level != "" {
		cfg.LogLevel = level
	}
	intVar("REQUEST_TIMEOUT", &cfg.RequestTimeout)
	intVar("PER_PAGE", &cfg.PerPage)
	boolVar("MEMBERSHIP", &cfg.Membership)
	boolVar("PIPELINE_DETAILS", &cfg.PipelineDetails)

	return problems
}
