package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fileframe/internal/store"
)

func newLoadCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load FILE",
		Short: "Validate a file and write it to a database",
		Long: `Load validates FILE and, if every rule passes, writes it to a database table
created from the same rules. With --database-url (or DATABASE_URL) the rows
go to Postgres through COPY; otherwise to the SQLite file given by --sqlite
(or SQLITE_PATH).

Example:
  fileframe load --rules people.yaml --table people --sqlite people.db people.csv
  fileframe load --rules people.yaml --database-url postgres://localhost/app people.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLoad(cmd, args[0])
		},
	}
	addInputFlags(cmd)
	cmd.Flags().String("table", "", "table name (default: file name)")
	cmd.Flags().String("sqlite", "", "SQLite database path (default from SQLITE_PATH)")
	cmd.Flags().String("database-url", "", "Postgres connection string (default from DATABASE_URL)")
	cmd.Flags().Int("batch-size", store.DefaultBatchSize, "rows per INSERT for SQLite")
	return cmd
}

func (a *app) runLoad(cmd *cobra.Command, path string) error {
	ctx := cmd.Context()

	ff, err := a.openFrame(ctx, path)
	if err != nil {
		return err
	}

	sink, closeSink, err := a.openSink(cmd)
	if err != nil {
		return err
	}
	defer closeSink()

	name := tableName(a.v.GetString("table"), path)
	n, err := sink.Write(ctx, name, ff,
		store.WithCreateTable(),
		store.WithBatchSize(a.v.GetInt("batch-size")),
	)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "loaded %d rows into %s (load %s)\n", n, name, ff.LoadID())
	return err
}

// openSink prefers Postgres when a URL is configured.
func (a *app) openSink(cmd *cobra.Command) (store.Sink, func(), error) {
	if url := firstNonEmpty(a.v.GetString("database-url"), a.cfg.Database.URL); url != "" {
		pool, err := store.ConnectPostgres(cmd.Context(), url, int32(a.cfg.Database.MaxConns))
		if err != nil {
			return nil, nil, err
		}
		return store.NewPostgres(pool, a.log()), pool.Close, nil
	}

	path := firstNonEmpty(a.v.GetString("sqlite"), a.cfg.Database.SQLitePath)
	sink, err := store.OpenSQLite(path, a.log())
	if err != nil {
		return nil, nil, err
	}
	return sink, func() {
		if err := sink.Close(); err != nil {
			a.log().Warn("close sqlite", "path", path, "error", err)
		}
	}, nil
}
