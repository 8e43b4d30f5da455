package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fileframe/internal/store"
)

func newSchemaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema FILE",
		Short: "Print CREATE TABLE for a validated file",
		Long: `Schema validates FILE like the validate command and prints a CREATE TABLE
statement whose column types come from the data and whose constraints come
from the rule file.

Example:
  fileframe schema --rules people.yaml --dialect sqlite --table people people.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSchema(cmd, args[0])
		},
	}
	addInputFlags(cmd)
	cmd.Flags().String("dialect", string(store.Postgres), "SQL dialect: postgres or sqlite")
	cmd.Flags().String("table", "", "table name (default: file name)")
	return cmd
}

func (a *app) runSchema(cmd *cobra.Command, path string) error {
	dialect, err := store.ParseDialect(a.v.GetString("dialect"))
	if err != nil {
		return err
	}

	ff, err := a.openFrame(cmd.Context(), path)
	if err != nil {
		return err
	}

	ddl, err := store.CreateTableSQL(dialect, tableName(a.v.GetString("table"), path), ff.Table(), ff.ConstraintDetails())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), ddl+";")
	return err
}
