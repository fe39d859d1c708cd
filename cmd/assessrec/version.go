package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/assessrec/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		v := version.Get()
		fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s (commit %s, built %s)\n",
			app, v.Version, v.Commit, v.Date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
