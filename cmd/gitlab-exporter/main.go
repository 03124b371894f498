// Command gitlab-exporter polls a GitLab instance and exposes CI metrics for
// Prometheus.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/and161185/gitlab-exporter/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "gitlab-exporter",
	Short: "Prometheus exporter for GitLab CI pipelines and jobs.",
	Long: `gitlab-exporter periodically lists the projects, pipelines and jobs of a
GitLab instance and serves project counts and run duration summaries on
/metrics.`,
	RunE:          runExporter,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	config.BindFlags(rootCmd.Flags())
	rootCmd.AddCommand(versionCmd)
	config.LoadDotEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
