package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/fileframe/internal/table"
)

// maxVariables is SQLite's default limit on bound parameters per statement.
const maxVariables = 32766

// SQLiteSink writes tables to a SQLite database.
type SQLiteSink struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
// Use ":memory:" for a private in-memory database.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// An in-memory database lives and dies with its connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	return NewSQLite(db, logger), nil
}

// NewSQLite wraps an open database.
func NewSQLite(db *sql.DB, logger *slog.Logger) *SQLiteSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteSink{db: db, logger: logger}
}

// DB returns the underlying database.
func (s *SQLiteSink) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *SQLiteSink) Close() error { return s.db.Close() }

// Write inserts every row of f into the named table in one transaction and
// returns the number of rows written. Nothing is written if any row fails.
func (s *SQLiteSink) Write(ctx context.Context, name string, f Frame, opts ...WriteOption) (int64, error) {
	cfg := newWriteConfig(opts)
	tbl := f.Table()
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	if cfg.create {
		ddl, err := CreateTableSQL(SQLite, name, tbl, f.ConstraintDetails())
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return 0, fmt.Errorf("create table %s: %w", name, err)
		}
	}

	batch := cfg.batchSize
	if n := tbl.NumColumns(); n > 0 {
		batch = max(1, min(batch, maxVariables/n))
	}

	var written int64
	for lo := 0; lo < tbl.NumRows(); lo += batch {
		hi := min(lo+batch, tbl.NumRows())
		query, args := insertBatch(name, tbl, lo, hi)
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("insert rows %d-%d into %s: %w", lo+1, hi, name, err)
		}
		n, _ := res.RowsAffected()
		written += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("table written",
		slog.String("sink", "sqlite"),
		slog.String("table", name),
		slog.Int64("rows", written),
		slog.Duration("duration", time.Since(start)),
	)
	return written, nil
}

// insertBatch renders one multi-row INSERT for rows [lo, hi).
func insertBatch(name string, tbl *table.Table, lo, hi int) (string, []any) {
	cols := tbl.ColumnNames()
	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", QuoteIdent(name), quoteList(cols))
	args := make([]any, 0, (hi-lo)*len(cols))
	for r := lo; r < hi; r++ {
		if r > lo {
			b.WriteString(", ")
		}
		b.WriteString(row)
		for _, v := range tbl.Row(r) {
			args = append(args, v.Any())
		}
	}
	return b.String(), args
}
