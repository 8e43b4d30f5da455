package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fileframe/internal/constraint"
	"github.com/JonMunkholm/fileframe/internal/fileframe"
	"github.com/JonMunkholm/fileframe/internal/table"
)

func newValidateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Load a file and check it against a rule file",
		Long: `Validate loads FILE, registers every rule from --rules in order and runs
them against the loaded table. The first failing rule is reported and the
command exits with status 1.

Example:
  fileframe validate --rules people.yaml people.csv
  fileframe validate --rules people.yaml --json people.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd, args[0])
		},
	}
	addInputFlags(cmd)
	cmd.Flags().Bool("json", false, "print the report as JSON")
	return cmd
}

// report is the outcome of one validation.
type report struct {
	File        string                      `json:"file"`
	LoadID      string                      `json:"load_id"`
	Valid       bool                        `json:"valid"`
	Rows        int                         `json:"rows"`
	Columns     []string                    `json:"columns"`
	ColumnTypes map[string]table.ColumnType `json:"column_types"`
	Constraints []string                    `json:"constraints"`
	Kind        string                      `json:"kind,omitempty"`
	Error       string                      `json:"error,omitempty"`
}

func newReport(file string, ff *fileframe.FileFrame, err error) report {
	r := report{
		File:        file,
		LoadID:      ff.LoadID().String(),
		Valid:       err == nil,
		Rows:        ff.Table().NumRows(),
		Columns:     ff.ColumnNames(),
		ColumnTypes: ff.ColumnTypes(),
	}
	for _, d := range ff.ConstraintDetails() {
		r.Constraints = append(r.Constraints, d.String())
	}
	if err != nil {
		r.Error = err.Error()
		if kind, ok := constraint.KindOf(err); ok {
			r.Kind = kind.String()
		}
	}
	return r
}

func (a *app) runValidate(cmd *cobra.Command, path string) error {
	ff, err := a.openFrame(cmd.Context(), path)
	if ff == nil {
		return err
	}
	if err != nil && !isViolation(err) {
		return err
	}

	rep := newReport(path, ff, err)
	a.log().Info("file validated",
		"file", path,
		"load_id", rep.LoadID,
		"rows", rep.Rows,
		"valid", rep.Valid,
	)

	out := cmd.OutOrStdout()
	if a.v.GetBool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(rep); encErr != nil {
			return encErr
		}
	} else {
		printReport(out, rep)
	}
	return err
}

func printReport(w io.Writer, r report) {
	status := "OK"
	if !r.Valid {
		status = "FAILED"
	}
	fmt.Fprintf(w, "%s: %s (%d rows, %d columns)\n", status, r.File, r.Rows, len(r.Columns))

	names := make([]string, len(r.Columns))
	copy(names, r.Columns)
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  column %s: %s\n", n, r.ColumnTypes[n])
	}
	for _, c := range r.Constraints {
		fmt.Fprintf(w, "  rule   %s\n", c)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "  %s: %s\n", r.Kind, r.Error)
	}
}

func isViolation(err error) bool {
	var cv *constraint.ConstraintViolation
	return errors.As(err, &cv)
}
