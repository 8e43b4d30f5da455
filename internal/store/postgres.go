package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/fileframe/internal/table"
)

// TxBeginner starts transactions. Satisfied by *pgxpool.Pool and *pgx.Conn.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresSink writes tables to Postgres with COPY.
type PostgresSink struct {
	db     TxBeginner
	logger *slog.Logger
}

// NewPostgres creates a sink over db.
func NewPostgres(db TxBeginner, logger *slog.Logger) *PostgresSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSink{db: db, logger: logger}
}

// ConnectPostgres opens a pool for url and verifies it with a ping.
func ConnectPostgres(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Write copies every row of f into the named table inside one transaction
// and returns the number of rows copied.
func (p *PostgresSink) Write(ctx context.Context, name string, f Frame, opts ...WriteOption) (int64, error) {
	cfg := newWriteConfig(opts)
	tbl := f.Table()
	start := time.Now()

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	if cfg.create {
		ddl, err := CreateTableSQL(Postgres, name, tbl, f.ConstraintDetails())
		if err != nil {
			return 0, err
		}
		if _, err := tx.Exec(ctx, ddl); err != nil {
			return 0, fmt.Errorf("create table %s: %w", name, pgError(err))
		}
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{name}, tbl.ColumnNames(), copySource(tbl))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", name, pgError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	p.logger.Info("table written",
		slog.String("sink", "postgres"),
		slog.String("table", name),
		slog.Int64("rows", n),
		slog.Duration("duration", time.Since(start)),
	)
	return n, nil
}

// pgError adds the constraint name to Postgres integrity errors.
func pgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName != "" {
		return fmt.Errorf("%w (constraint %s)", err, pgErr.ConstraintName)
	}
	return err
}

// copySource streams table rows as pgtype values typed by column.
func copySource(tbl *table.Table) pgx.CopyFromSource {
	types := tbl.ColumnTypes()
	names := tbl.ColumnNames()
	colTypes := make([]table.ColumnType, len(names))
	for i, n := range names {
		colTypes[i] = types[n]
	}

	row := -1
	return pgx.CopyFromFunc(func() ([]any, error) {
		row++
		if row >= tbl.NumRows() {
			return nil, nil
		}
		vals := tbl.Row(row)
		out := make([]any, len(vals))
		for i, v := range vals {
			out[i] = PgValue(colTypes[i], v)
		}
		return out, nil
	})
}

// PgValue converts v to the pgtype matching its column type. Cells of
// mixed or text columns are sent as text.
func PgValue(t table.ColumnType, v table.Value) any {
	switch t {
	case table.TypeInt:
		i, ok := v.AsInt()
		return pgtype.Int8{Int64: i, Valid: ok}
	case table.TypeFloat:
		f, ok := v.AsFloat()
		return pgtype.Float8{Float64: f, Valid: ok}
	case table.TypeBool:
		b, ok := v.AsBool()
		return pgtype.Bool{Bool: b, Valid: ok}
	default:
		if v.IsNull() {
			return pgtype.Text{}
		}
		return pgtype.Text{String: v.String(), Valid: true}
	}
}
