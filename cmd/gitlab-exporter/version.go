package main

import (
	"github.com/spf13/cobra"

	"github.com/and161185/gitlab-exporter/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		buildinfo.PrintBuildInfo(cmd.OutOrStdout())
	},
}
