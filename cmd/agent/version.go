package main

import (
	"fmt"

	"neoagent/internal/pkg/version"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "show version information",
	Long:  "show neoagent's version, build time, git commit, and Go version.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("neoagent %s\n", version.GetVersion())
		fmt.Printf("API Version: %s\n", version.APIVersion)
		fmt.Printf("Build Time: %s\n", version.BuildTime)
		fmt.Printf("Git Commit: %s\n", version.GitCommit)
		fmt.Printf("Go Version: %s\n", version.GoVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
