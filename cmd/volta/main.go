package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"volta/internal/opts"
)

var rootCmd = &cobra.Command{
	Use:           "volta",
	Short:         "VHDL front-end core",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}
		return opts.Load(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "volta.toml", "configuration file")
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "volta: %v\n", err)
		os.Exit(1)
	}
}
