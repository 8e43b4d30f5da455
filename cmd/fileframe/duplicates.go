package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fileframe/internal/table"
)

func newDuplicatesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "duplicates FILE",
		Short: "Print rows whose key columns repeat",
		Long: `Duplicates loads FILE and prints the rows that repeat an earlier row across
--columns. --keep first (default) hides the first row of each group, last
hides the last, none prints every member.

Example:
  fileframe duplicates --columns City,Code people.csv
  fileframe duplicates --columns Id --keep none people.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDuplicates(cmd, args[0])
		},
	}
	addInputFlags(cmd)
	cmd.Flags().StringSlice("columns", nil, "key columns (default: all columns)")
	cmd.Flags().String("keep", "first", "first, last or none")
	return cmd
}

func (a *app) runDuplicates(cmd *cobra.Command, path string) error {
	keep, ok := table.ParseKeep(a.v.GetString("keep"))
	if !ok {
		return fmt.Errorf("invalid --keep %q: want first, last or none", a.v.GetString("keep"))
	}

	ff, err := a.openFrame(cmd.Context(), path)
	if err != nil {
		return err
	}

	cols := a.v.GetStringSlice("columns")
	if len(cols) == 0 {
		cols = ff.ColumnNames()
	}
	dups, err := ff.FindDuplicates(cols, keep)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if dups.NumRows() == 0 {
		_, err = fmt.Fprintln(out, "no duplicate rows")
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n%d duplicate rows\n", dups, dups.NumRows())
	return err
}
