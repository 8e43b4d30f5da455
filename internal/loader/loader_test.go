package loader

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/fileframe/internal/table"
)

func readCSV(t *testing.T, data string, opts ...Option) *table.Table {
	t.Helper()
	tbl, err := ReadCSV(context.Background(), strings.NewReader(data), opts...)
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	return tbl
}

func column(t *testing.T, tbl *table.Table, name string) *table.Column {
	t.Helper()
	col, err := tbl.Column(name)
	if err != nil {
		t.Fatalf("Column(%q) error = %v (have %v)", name, err, tbl.ColumnNames())
	}
	return col
}

// ============================================================================
// CSV Tests
// ============================================================================

func TestReadCSV_Inference(t *testing.T) {
	tbl := readCSV(t, "Id,Name,Age,Score\n001,Alice,25,1.5\n002,,30,2\n")

	if tbl.NumRows() != 2 {
		t.Fatalf("NumRows() = %d, want 2", tbl.NumRows())
	}

	want := map[string]table.ColumnType{
		"Id":    table.TypeText,
		"Name":  table.TypeText,
		"Age":   table.TypeInt,
		"Score": table.TypeFloat,
	}
	got := tbl.ColumnTypes()
	for name, typ := range want {
		if got[name] != typ {
			t.Errorf("ColumnTypes()[%s] = %s, want %s", name, got[name], typ)
		}
	}

	if v := column(t, tbl, "Id").Values[0]; v.String() != "001" {
		t.Errorf("Id[0] = %q, want %q", v.String(), "001")
	}
	if !column(t, tbl, "Name").Values[1].IsNull() {
		t.Error("empty Name cell was not read as null")
	}
}

func TestReadCSV_NullMarkers(t *testing.T) {
	tbl := readCSV(t, "A,B\nNA,x\n1,NULL\n")
	a := column(t, tbl, "A")
	if !a.Values[0].IsNull() || a.Type() != table.TypeInt {
		t.Errorf("A = %v (%s), want [<null> 1] int", a.Values, a.Type())
	}
	if !column(t, tbl, "B").Values[1].IsNull() {
		t.Error("NULL marker not read as null")
	}

	custom := readCSV(t, "A\n-\nNA\n", WithNullValues("-"))
	a = column(t, custom, "A")
	if !a.Values[0].IsNull() {
		t.Error(`custom marker "-" not read as null`)
	}
	if got := a.Values[1].String(); got != "NA" {
		t.Errorf("A[1] = %q, want NA once markers are replaced", got)
	}
}

func TestReadCSV_Delimiters(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		delim rune
	}{
		{name: "semicolon", data: "A;B\n1;2\n", delim: ';'},
		{name: "tab", data: "A\tB\n1\t2\n", delim: '\t'},
		{name: "pipe", data: "A|B\n1|2\n", delim: '|'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := readCSV(t, tt.data, WithDelimiter(tt.delim))
			if got := strings.Join(tbl.ColumnNames(), ","); got != "A,B" {
				t.Errorf("ColumnNames() = %s, want A,B", got)
			}
		})
	}
}

func TestReadCSV_BOMAndInvalidUTF8(t *testing.T) {
	data := "\xEF\xBB\xBFId,Name\n1,caf\xE9\n"
	tbl := readCSV(t, data)
	if names := tbl.ColumnNames(); names[0] != "Id" {
		t.Errorf("first column = %q, want Id", names[0])
	}
	if got := column(t, tbl, "Name").Values[0].String(); got != "caf�" {
		t.Errorf("Name[0] = %q, want replacement character", got)
	}
}

func TestReadCSV_RaggedRows(t *testing.T) {
	tbl := readCSV(t, "A,B\n1\n2,3\n")
	if !column(t, tbl, "B").Values[0].IsNull() {
		t.Error("missing trailing cell not read as null")
	}

	_, err := ReadCSV(context.Background(), strings.NewReader("A\n1,2\n"))
	if err == nil {
		t.Error("row wider than header: error = nil")
	}
}

func TestReadCSV_HeaderHandling(t *testing.T) {
	tbl := readCSV(t, "A,,A\n1,2,3\n")
	if got := strings.Join(tbl.ColumnNames(), "|"); got != "A|Unnamed: 1|A.1" {
		t.Errorf("ColumnNames() = %s", got)
	}

	tbl = readCSV(t, "1,2\n3,4\n", WithoutHeader())
	if got := strings.Join(tbl.ColumnNames(), ","); got != "0,1" || tbl.NumRows() != 2 {
		t.Errorf("WithoutHeader: names = %s rows = %d", got, tbl.NumRows())
	}

	tbl = readCSV(t, "x,y\n3,4\n", WithNames("P", "Q"))
	if got := strings.Join(tbl.ColumnNames(), ","); got != "P,Q" || tbl.NumRows() != 1 {
		t.Errorf("WithNames: names = %s rows = %d", got, tbl.NumRows())
	}

	tbl = readCSV(t, "report title\n\nA\n1\n", WithSkipRows(1))
	if got := strings.Join(tbl.ColumnNames(), ","); got != "A" {
		t.Errorf("WithSkipRows: names = %s", got)
	}
}

func TestReadCSV_TypeOptions(t *testing.T) {
	raw := readCSV(t, "A\n1\n2\n", WithTypeInference(false))
	if typ := column(t, raw, "A").Type(); typ != table.TypeText {
		t.Errorf("inference off: type = %s, want text", typ)
	}

	money := "A\n\"$1,234.50\"\n(10)\n"
	if typ := column(t, readCSV(t, money), "A").Type(); typ != table.TypeText {
		t.Errorf("strict numbers: type = %s, want text", typ)
	}
	a := column(t, readCSV(t, money, WithLooseNumbers(true)), "A")
	if f, _ := a.Values[0].AsFloat(); f != 1234.5 {
		t.Errorf("loose A[0] = %v, want 1234.5", a.Values[0])
	}
	if f, _ := a.Values[1].AsFloat(); f != -10 {
		t.Errorf("loose A[1] = %v, want -10", a.Values[1])
	}

	flags := "F\nyes\nNo\n"
	if typ := column(t, readCSV(t, flags), "F").Type(); typ != table.TypeText {
		t.Errorf("bools off: type = %s, want text", typ)
	}
	if typ := column(t, readCSV(t, flags, WithBoolParsing(true)), "F").Type(); typ != table.TypeBool {
		t.Errorf("bools on: type = %s, want bool", typ)
	}
}

func TestReadCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadCSV(ctx, strings.NewReader("A\n1\n"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestCSV_Path(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte("A\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tbl, err := CSV(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if tbl.NumRows() != 1 {
		t.Errorf("NumRows() = %d, want 1", tbl.NumRows())
	}

	if _, err := CSV(filepath.Join(t.TempDir(), "missing.csv")).Load(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want os.ErrNotExist", err)
	}
}

// ============================================================================
// Fixed-width Tests
// ============================================================================

func TestReadFixedWidth(t *testing.T) {
	data := "Id  Name \n001 Alice\n002 Bob  \n"
	specs := []FieldSpec{{Start: 0, End: 4}, {Start: 4, End: 9}}

	tbl, err := ReadFixedWidth(context.Background(), strings.NewReader(data), specs)
	if err != nil {
		t.Fatalf("ReadFixedWidth() error = %v", err)
	}
	if got := strings.Join(tbl.ColumnNames(), ","); got != "Id,Name" {
		t.Fatalf("ColumnNames() = %s", got)
	}
	if got := column(t, tbl, "Name").Values[1].String(); got != "Bob" {
		t.Errorf("Name[1] = %q, want Bob", got)
	}
	if got := column(t, tbl, "Id").Values[0].String(); got != "001" {
		t.Errorf("Id[0] = %q, want 001", got)
	}
}

func TestReadFixedWidth_NamedSpecsAndShortLines(t *testing.T) {
	data := "1  x\n22\n"
	specs := []FieldSpec{{Name: "N", Start: 0, End: 3}, {Name: "S", Start: 3, End: 4}}

	tbl, err := ReadFixedWidth(context.Background(), strings.NewReader(data), specs, WithoutHeader())
	if err != nil {
		t.Fatalf("ReadFixedWidth() error = %v", err)
	}
	if got := strings.Join(tbl.ColumnNames(), ","); got != "N,S" {
		t.Errorf("ColumnNames() = %s, want N,S", got)
	}
	if typ := column(t, tbl, "N").Type(); typ != table.TypeInt {
		t.Errorf("N type = %s, want int", typ)
	}
	if !column(t, tbl, "S").Values[1].IsNull() {
		t.Error("cell past end of line not read as null")
	}
}

func TestReadFixedWidth_InvalidSpecs(t *testing.T) {
	for _, specs := range [][]FieldSpec{nil, {{Start: 3, End: 3}}, {{Start: -1, End: 2}}} {
		if _, err := ReadFixedWidth(context.Background(), strings.NewReader("x"), specs); err == nil {
			t.Errorf("specs %v: error = nil", specs)
		}
	}
}

// ============================================================================
// Excel Tests
// ============================================================================

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow("Sheet1", "A1", &[]any{"Id", "Name"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Sheet1", "A2", &[]any{1, "Alice"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Sheet1", "A3", &[]any{2, "Bob"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.NewSheet("Other"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Other", "A1", &[]any{"Code"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Other", "A2", &[]any{"X"}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "book.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}
	return path
}

func TestExcel(t *testing.T) {
	path := writeWorkbook(t)
	ctx := context.Background()

	tbl, err := Excel(path).Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if tbl.NumRows() != 2 || column(t, tbl, "Id").Type() != table.TypeInt {
		t.Errorf("first sheet: rows = %d types = %v", tbl.NumRows(), tbl.ColumnTypes())
	}

	for _, opt := range []Option{WithSheet("Other"), WithSheetIndex(1)} {
		tbl, err := Excel(path, opt).Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got := strings.Join(tbl.ColumnNames(), ","); got != "Code" {
			t.Errorf("ColumnNames() = %s, want Code", got)
		}
	}

	if _, err := Excel(path, WithSheet("Missing")).Load(ctx); err == nil {
		t.Error("missing sheet: error = nil")
	}
	if _, err := Excel(path, WithSheetIndex(5)).Load(ctx); err == nil {
		t.Error("sheet index out of range: error = nil")
	}
}

func TestExcelReader(t *testing.T) {
	f, err := os.Open(writeWorkbook(t))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	tbl, err := ExcelReader(f).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := column(t, tbl, "Name").Values[1].String(); got != "Bob" {
		t.Errorf("Name[1] = %q, want Bob", got)
	}
}

// ============================================================================
// Map / Columns Tests
// ============================================================================

func TestFromMap(t *testing.T) {
	data := map[string][]any{
		"b": {"001", nil},
		"a": {1, 2},
	}

	tbl, err := FromMap(data)
	if err != nil {
		t.Fatalf("FromMap() error = %v", err)
	}
	if got := strings.Join(tbl.ColumnNames(), ","); got != "a,b" {
		t.Errorf("sorted ColumnNames() = %s", got)
	}
	if got := column(t, tbl, "b").Values[0].String(); got != "001" {
		t.Errorf("b[0] = %q, want verbatim 001", got)
	}

	tbl, err = FromMap(data, WithColumnOrder("b", "a"))
	if err != nil {
		t.Fatalf("FromMap() error = %v", err)
	}
	if got := strings.Join(tbl.ColumnNames(), ","); got != "b,a" {
		t.Errorf("ordered ColumnNames() = %s", got)
	}

	if _, err := FromMap(data, WithColumnOrder("a", "z")); !errors.Is(err, table.ErrColumnNotFound) {
		t.Errorf("unknown order column error = %v", err)
	}
	if _, err := FromMap(data, WithColumnOrder("a")); err == nil {
		t.Error("partial column order: error = nil")
	}
	if _, err := FromMap(map[string][]any{"a": {1}, "b": {1, 2}}); err == nil {
		t.Error("ragged map: error = nil")
	}
	if _, err := FromMap(map[string][]any{"a": {struct{}{}}}); !errors.Is(err, table.ErrUnsupportedType) {
		t.Errorf("unsupported value error = %v", err)
	}
}

func TestColumns(t *testing.T) {
	tbl, err := Columns(table.MustColumn("A", 1, 2)).Load(context.Background())
	if err != nil || tbl.NumRows() != 2 {
		t.Errorf("Load() = %v, %v", tbl, err)
	}
}

// ============================================================================
// Parsing helper Tests
// ============================================================================

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in    string
		loose bool
		want  string
		ok    bool
	}{
		{in: "42", want: "42", ok: true},
		{in: " -3.5 ", want: "-3.5", ok: true},
		{in: "1e3", want: "1e3", ok: true},
		{in: ".5", want: ".5", ok: true},
		{in: "1,000", ok: false},
		{in: "1,000", loose: true, want: "1000", ok: true},
		{in: "$12.00", loose: true, want: "12.00", ok: true},
		{in: "(5)", loose: true, want: "-5", ok: true},
		{in: "abc", loose: true, ok: false},
		{in: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumber(tt.in, tt.loose)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseNumber(%q, %v) = %q, %v, want %q, %v", tt.in, tt.loose, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "T", "Yes", "y"} {
		if b, ok := ParseBool(s); !ok || !b {
			t.Errorf("ParseBool(%q) = %v, %v, want true, true", s, b, ok)
		}
	}
	for _, s := range []string{"false", "F", "no", "N"} {
		if b, ok := ParseBool(s); !ok || b {
			t.Errorf("ParseBool(%q) = %v, %v, want false, true", s, b, ok)
		}
	}
	for _, s := range []string{"1", "0", "maybe", ""} {
		if _, ok := ParseBool(s); ok {
			t.Errorf("ParseBool(%q) ok = true, want false", s)
		}
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  plain  ", want: "plain"},
		{in: `="00123"`, want: "00123"},
		{in: `"quoted"`, want: "quoted"},
		{in: `'single'`, want: "single"},
		{in: `"`, want: `"`},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		if got := CleanCell(tt.in); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"a.csv":  FormatCSV,
		"a.TSV":  FormatCSV,
		"a.fwf":  FormatFixedWidth,
		"a.xlsx": FormatExcel,
	}
	for path, want := range tests {
		if got, err := DetectFormat(path); err != nil || got != want {
			t.Errorf("DetectFormat(%q) = %q, %v, want %q", path, got, err, want)
		}
	}
	if _, err := DetectFormat("a.parquet"); err == nil {
		t.Error("DetectFormat(.parquet) error = nil")
	}
}

// ============================================================================
// Streaming Tests
// ============================================================================

func TestNormalize_SmallReads(t *testing.T) {
	input := "\xEF\xBB\xBFhéllo 世\xFF"
	want := "héllo 世�"

	r := Normalize(strings.NewReader(input))
	var out []byte
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
	}
	if string(out) != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestCountingReader(t *testing.T) {
	cr := NewCountingReader(strings.NewReader("abcd"), 8)
	if _, err := io.ReadAll(cr); err != nil {
		t.Fatal(err)
	}
	if cr.BytesRead != 4 || cr.Progress() != 50 {
		t.Errorf("BytesRead = %d Progress = %d, want 4, 50", cr.BytesRead, cr.Progress())
	}
	if NewCountingReader(strings.NewReader(""), 0).Progress() != 0 {
		t.Error("unknown total: Progress() != 0")
	}
}
