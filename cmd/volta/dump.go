package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"volta/internal/lib"
	"volta/internal/opts"
	"volta/internal/source"
	"volta/internal/tree"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <library> <unit>",
	Short: "Print a serialized design unit",
	Args:  cobra.ExactArgs(2),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().Bool("gc", false, "collect the tree arena after loading")
}

func runDump(cmd *cobra.Command, args []string) error {
	l, err := lib.Open(args[0], source.Default())
	if err != nil {
		return err
	}

	unit, err := l.Get(args[1])
	if err != nil {
		return err
	}

	tree.Dump(os.Stdout, unit)

	if gc, _ := cmd.Flags().GetBool("gc"); gc {
		stats := tree.GC()
		if opts.Get().Debug {
			fmt.Fprintf(os.Stderr, "[gc: freed %d trees; %d allocated]\n",
				stats.Freed, stats.Live)
		}
	}

	return nil
}
