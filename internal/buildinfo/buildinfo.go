// Package buildinfo carries version data injected at link time with
// -ldflags "-X github.com/and161185/gitlab-exporter/internal/buildinfo.BuildVersion=...".
package buildinfo

import (
	"fmt"
	"io"
)

var (
	BuildVersion string
	BuildDate    string
	BuildCommit  string
)

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Version returns the build version, "dev" when not injected.
func Version() string {
	if BuildVersion == "" {
		return "dev"
	}
	return BuildVersion
}

// UserAgent is sent with every GitLab API request.
func UserAgent() string {
	return "gitlab-exporter/" + Version()
}

func PrintBuildInfo(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", orNA(BuildVersion))
	fmt.Fprintf(w, "Build date: %s\n", orNA(BuildDate))
	fmt.Fprintf(w, "Build commit: %s\n", orNA(BuildCommit))
}
