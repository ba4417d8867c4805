package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"volta/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the compiler version",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("volta %s", version.Version)
		if version.GitCommit != "" {
			fmt.Printf(" (%s)", version.GitCommit)
		}
		fmt.Println()
	},
}
