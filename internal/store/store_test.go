package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/fileframe/internal/constraint"
	"github.com/JonMunkholm/fileframe/internal/table"
)

type frame struct {
	tbl   *table.Table
	descs []constraint.Descriptor
}

func (f frame) Table() *table.Table                        { return f.tbl }
func (f frame) ConstraintDetails() []constraint.Descriptor { return f.descs }

func descriptors(cs ...*constraint.Constraint) []constraint.Descriptor {
	out := make([]constraint.Descriptor, len(cs))
	for i, c := range cs {
		out[i] = c.Descriptor()
	}
	return out
}

func people(t *testing.T, ids ...string) *table.Table {
	t.Helper()
	idVals := make([]any, len(ids))
	ages := make([]any, len(ids))
	for i, id := range ids {
		idVals[i] = id
		ages[i] = 20 + i
	}
	tbl, err := table.New(table.MustColumn("Id", idVals...), table.MustColumn("Age", ages...))
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// ============================================================================
// DDL Tests
// ============================================================================

func TestCreateTableSQL(t *testing.T) {
	tbl, err := table.New(
		table.MustColumn("Id", "001", "002"),
		table.MustColumn("Name", "Alice", nil),
		table.MustColumn("Age", 25, 30),
		table.MustColumn("Score", 1.5, 2),
		table.MustColumn("Active", true, false),
	)
	if err != nil {
		t.Fatal(err)
	}
	descs := descriptors(
		constraint.DefaultValue("Name", "o'brien"),
		constraint.PrimaryKey("Id"),
		constraint.NotNull("Age"),
		constraint.MustCheck("Age", ">", 10),
		constraint.MustCheck("Age", "!=", 99),
		constraint.Unique("Name", "Age"),
		constraint.DefaultValue("Active", true),
	)

	tests := []struct {
		dialect Dialect
		want    string
	}{
		{
			dialect: Postgres,
			want: `CREATE TABLE IF NOT EXISTS "people" (
	"Id" TEXT,
	"Name" TEXT DEFAULT 'o''brien',
	"Age" BIGINT NOT NULL CHECK ("Age" > 10) CHECK ("Age" <> 99),
	"Score" DOUBLE PRECISION,
	"Active" BOOLEAN DEFAULT TRUE,
	PRIMARY KEY ("Id"),
	UNIQUE ("Name", "Age")
)`,
		},
		{
			dialect: SQLite,
			want: `CREATE TABLE IF NOT EXISTS "people" (
	"Id" TEXT,
	"Name" TEXT DEFAULT 'o''brien',
	"Age" INTEGER NOT NULL CHECK ("Age" > 10) CHECK ("Age" <> 99),
	"Score" REAL,
	"Active" INTEGER DEFAULT 1,
	PRIMARY KEY ("Id"),
	UNIQUE ("Name", "Age")
)`,
		},
	}
	for _, tt := range tests {
		t.Run(string(tt.dialect), func(t *testing.T) {
			got, err := CreateTableSQL(tt.dialect, "people", tbl, descs)
			if err != nil {
				t.Fatalf("CreateTableSQL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CreateTableSQL() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestCreateTableSQL_Errors(t *testing.T) {
	tbl := people(t, "a")
	_, err := CreateTableSQL(SQLite, "t", tbl, descriptors(constraint.NotNull("Missing")))
	if !errors.Is(err, table.ErrColumnNotFound) {
		t.Errorf("unknown column error = %v, want ErrColumnNotFound", err)
	}
	if _, err := CreateTableSQL(SQLite, "t", table.Empty(), nil); err == nil {
		t.Error("empty table: error = nil")
	}
}

func TestQuoteIdent(t *testing.T) {
	if got := QuoteIdent(`we"ird`); got != `"we""ird"` {
		t.Errorf("QuoteIdent() = %s", got)
	}
}

func TestParseDialect(t *testing.T) {
	for in, want := range map[string]Dialect{"postgres": Postgres, "PG": Postgres, "sqlite3": SQLite} {
		if got, err := ParseDialect(in); err != nil || got != want {
			t.Errorf("ParseDialect(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseDialect("oracle"); err == nil {
		t.Error("ParseDialect(oracle) error = nil")
	}
}

// ============================================================================
// SQLite sink Tests
// ============================================================================

func openMemory(t *testing.T) *SQLiteSink {
	t.Helper()
	sink, err := OpenSQLite(":memory:", quietLogger)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { sink.Close() })
	return sink
}

func countRows(t *testing.T, sink *SQLiteSink, name string) int {
	t.Helper()
	var n int
	if err := sink.DB().QueryRow(`SELECT COUNT(*) FROM ` + QuoteIdent(name)).Scan(&n); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

func TestSQLiteSink_Write(t *testing.T) {
	sink := openMemory(t)
	ctx := context.Background()
	f := frame{tbl: people(t, "a", "b", "c", "d", "e"), descs: descriptors(constraint.PrimaryKey("Id"))}

	n, err := sink.Write(ctx, "people", f, WithCreateTable(), WithBatchSize(2))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != 5 || countRows(t, sink, "people") != 5 {
		t.Errorf("Write() = %d, rows = %d, want 5, 5", n, countRows(t, sink, "people"))
	}

	var age int
	if err := sink.DB().QueryRow(`SELECT "Age" FROM "people" WHERE "Id" = 'c'`).Scan(&age); err != nil || age != 22 {
		t.Errorf("Age for c = %d, %v, want 22", age, err)
	}
}

func TestSQLiteSink_ConstraintViolationRollsBack(t *testing.T) {
	sink := openMemory(t)
	ctx := context.Background()
	descs := descriptors(constraint.PrimaryKey("Id"), constraint.MustCheck("Age", "<", 100))

	if _, err := sink.Write(ctx, "people", frame{tbl: people(t, "a", "b"), descs: descs}, WithCreateTable()); err != nil {
		t.Fatalf("first Write() error = %v", err)
	}

	_, err := sink.Write(ctx, "people", frame{tbl: people(t, "c", "a"), descs: descs})
	if err == nil {
		t.Fatal("Write() with duplicate primary key: error = nil")
	}
	if got := countRows(t, sink, "people"); got != 2 {
		t.Errorf("rows after failed write = %d, want 2", got)
	}
}

func TestSQLiteSink_NullsAndBools(t *testing.T) {
	sink := openMemory(t)
	tbl, _ := table.New(
		table.MustColumn("Flag", true, nil),
		table.MustColumn("Note", nil, "x"),
	)
	if _, err := sink.Write(context.Background(), "flags", frame{tbl: tbl}, WithCreateTable()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var nulls int
	err := sink.DB().QueryRow(`SELECT COUNT(*) FROM "flags" WHERE "Flag" IS NULL OR "Note" IS NULL`).Scan(&nulls)
	if err != nil || nulls != 2 {
		t.Errorf("null rows = %d, %v, want 2", nulls, err)
	}
}

func TestInsertBatch(t *testing.T) {
	query, args := insertBatch("t", people(t, "a", "b", "c"), 1, 3)
	want := `INSERT INTO "t" ("Id", "Age") VALUES (?, ?), (?, ?)`
	if query != want {
		t.Errorf("query = %s, want %s", query, want)
	}
	if len(args) != 4 || args[0] != "b" || args[1] != int64(21) {
		t.Errorf("args = %v", args)
	}
}

// ============================================================================
// Postgres conversion Tests
// ============================================================================

func TestPgValue(t *testing.T) {
	tests := []struct {
		name string
		typ  table.ColumnType
		v    table.Value
		want any
	}{
		{name: "int", typ: table.TypeInt, v: table.Int(7), want: pgtype.Int8{Int64: 7, Valid: true}},
		{name: "null int", typ: table.TypeInt, v: table.Null(), want: pgtype.Int8{}},
		{name: "int in float column", typ: table.TypeFloat, v: table.Int(2), want: pgtype.Float8{Float64: 2, Valid: true}},
		{name: "bool", typ: table.TypeBool, v: table.Bool(true), want: pgtype.Bool{Bool: true, Valid: true}},
		{name: "text", typ: table.TypeText, v: table.Text("a"), want: pgtype.Text{String: "a", Valid: true}},
		{name: "mixed", typ: table.TypeMixed, v: table.Int(3), want: pgtype.Text{String: "3", Valid: true}},
		{name: "null text", typ: table.TypeText, v: table.Null(), want: pgtype.Text{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PgValue(tt.typ, tt.v); got != tt.want {
				t.Errorf("PgValue() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestCopySource(t *testing.T) {
	src := copySource(people(t, "a", "b"))
	rows := 0
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			t.Fatalf("Values() error = %v", err)
		}
		if len(vals) != 2 {
			t.Fatalf("len(Values()) = %d, want 2", len(vals))
		}
		rows++
	}
	if err := src.Err(); err != nil || rows != 2 {
		t.Errorf("rows = %d, Err() = %v, want 2, nil", rows, err)
	}
}

func TestWriteConfig(t *testing.T) {
	cfg := newWriteConfig([]WriteOption{WithBatchSize(0)})
	if cfg.batchSize != DefaultBatchSize || cfg.create {
		t.Errorf("config = %+v", cfg)
	}
	cfg = newWriteConfig([]WriteOption{WithBatchSize(10), WithCreateTable()})
	if cfg.batchSize != 10 || !cfg.create {
		t.Errorf("config = %+v", cfg)
	}
}
