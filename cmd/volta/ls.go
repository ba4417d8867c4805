package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"volta/internal/lib"
	"volta/internal/source"
	"volta/internal/tree"
)

var lsCmd = &cobra.Command{
	Use:   "ls <library>",
	Short: "List the design units in a library",
	Args:  cobra.ExactArgs(1),
	RunE:  runLs,
}

func runLs(_ *cobra.Command, args []string) error {
	l, err := lib.Open(args[0], source.Default())
	if err != nil {
		return err
	}

	units, err := l.Scan()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	for _, u := range units {
		fmt.Fprintf(w, "%s\t%s\t%d\n", u.Name, tree.Kind(u.Kind), u.Size)
	}
	return w.Flush()
}
