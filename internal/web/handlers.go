package web

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/fileframe/internal/constraint"
	"github.com/JonMunkholm/fileframe/internal/fileframe"
	"github.com/JonMunkholm/fileframe/internal/loader"
	"github.com/JonMunkholm/fileframe/internal/logging"
	"github.com/JonMunkholm/fileframe/internal/rules"
	"github.com/JonMunkholm/fileframe/internal/store"
	"github.com/JonMunkholm/fileframe/internal/table"
)

// maxMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const maxMemory = 32 << 20

var errNoFile = errors.New("no file provided")

// ValidateResponse is returned by POST /api/validate.
type ValidateResponse struct {
	LoadID      string                      `json:"load_id"`
	Valid       bool                        `json:"valid"`
	Rows        int                         `json:"rows"`
	Columns     []string                    `json:"columns"`
	ColumnTypes map[string]table.ColumnType `json:"column_types"`
	Constraints []string                    `json:"constraints"`
	Error       *ViolationDetail            `json:"error,omitempty"`
}

// ViolationDetail describes the first constraint a file failed.
type ViolationDetail struct {
	Code    string   `json:"code"`
	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	Action  string   `json:"action,omitempty"`
	Columns []string `json:"columns,omitempty"`
	Row     *int     `json:"row,omitempty"`
}

// SchemaResponse is returned by POST /api/schema.
type SchemaResponse struct {
	LoadID  string `json:"load_id"`
	Dialect string `json:"dialect"`
	Table   string `json:"table"`
	SQL     string `json:"sql"`
}

// LoadResponse is returned by POST /api/load.
type LoadResponse struct {
	LoadID string `json:"load_id"`
	Table  string `json:"table"`
	Rows   int64  `json:"rows"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status  string        `json:"status"`
	Limiter LimiterStatus `json:"limiter"`
	Sink    bool          `json:"sink"`
}

// upload is a parsed multipart request: the file, a source reading it and a
// frame with the request's rules registered.
type upload struct {
	filename string
	file     multipart.File
	form     *multipart.Form
	source   loader.Source
	frame    *fileframe.FileFrame
}

func (u *upload) Close() {
	u.file.Close()
	if u.form != nil {
		u.form.RemoveAll()
	}
}

// tableName returns the form's table field, or the file name without its
// extension.
func (u *upload) tableName(r *http.Request) string {
	if name := strings.TrimSpace(r.FormValue("table")); name != "" {
		return name
	}
	base := filepath.Base(u.filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// readUpload parses the request body. The caller must Close the upload.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Load.MaxFileSize)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	rs, err := readRules(r)
	if err != nil {
		r.MultipartForm.RemoveAll()
		return nil, err
	}
	frame := fileframe.NewEmpty()
	if err := rs.Apply(frame); err != nil {
		r.MultipartForm.RemoveAll()
		return nil, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		r.MultipartForm.RemoveAll()
		return nil, errNoFile
	}
	up := &upload{filename: header.Filename, file: file, form: r.MultipartForm, frame: frame}

	src, err := s.sourceFor(r, header.Filename, file)
	if err != nil {
		up.Close()
		return nil, err
	}
	up.source = src
	return up, nil
}

// readRules takes the rules document from the "rules" field, either as
// text or as an attached file. No rules means no constraints.
func readRules(r *http.Request) (*rules.RuleSet, error) {
	text := r.FormValue("rules")
	if text == "" {
		if f, _, err := r.FormFile("rules"); err == nil {
			defer f.Close()
			data, err := io.ReadAll(f)
			if err != nil {
				return nil, fmt.Errorf("read rules: %w", err)
			}
			text = string(data)
		}
	}
	if strings.TrimSpace(text) == "" {
		return &rules.RuleSet{}, nil
	}
	return rules.Parse([]byte(text))
}

// sourceFor picks a loader by file extension and applies the configured
// defaults plus per-request overrides.
func (s *Server) sourceFor(r *http.Request, filename string, file io.Reader) (loader.Source, error) {
	format, err := loader.DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	opts := []loader.Option{
		loader.WithNullValues(s.cfg.Load.NullMarkers()...),
		loader.WithTypeInference(s.cfg.Load.InferTypes),
	}

	switch format {
	case loader.FormatCSV:
		delim := s.cfg.Load.DelimiterRune()
		if v := r.FormValue("delimiter"); v != "" {
			override := s.cfg.Load
			override.Delimiter = v
			if delim = override.DelimiterRune(); delim == 0 {
				return nil, fmt.Errorf("parse csv: invalid delimiter %q", v)
			}
		} else if strings.EqualFold(filepath.Ext(filename), ".tsv") {
			delim = '\t'
		}
		if delim != 0 {
			opts = append(opts, loader.WithDelimiter(delim))
		}
		return loader.CSVReader(file, opts...), nil
	case loader.FormatExcel:
		if sheet := r.FormValue("sheet"); sheet != "" {
			opts = append(opts, loader.WithSheet(sheet))
		}
		return loader.ExcelReader(file, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported file format %q for upload", format)
	}
}

// uploadStatus maps a readUpload error to an HTTP status.
func uploadStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// isViolation reports whether a Load error came from validation rather than
// from reading the file.
func isViolation(err error) bool {
	_, ok := constraint.KindOf(err)
	return ok
}

func violationDetail(err error) *ViolationDetail {
	msg := MapError(err)
	detail := &ViolationDetail{
		Code:    msg.Code,
		Message: err.Error(),
		Action:  msg.Action,
	}
	var cv *constraint.ConstraintViolation
	if errors.As(err, &cv) {
		detail.Kind = cv.Kind.String()
		detail.Columns = cv.Columns
		if cv.Row >= 0 {
			row := cv.Row
			detail.Row = &row
		}
	}
	return detail
}

func describe(ff *fileframe.FileFrame) []string {
	descs := ff.ConstraintDetails()
	out := make([]string, len(descs))
	for i, d := range descs {
		out[i] = d.String()
	}
	return out
}

// handleHealth reports liveness and limiter occupancy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Limiter: s.limiter.Status(),
		Sink:    s.sink != nil,
	})
}

// handleValidate loads the uploaded file under the given rules.
// A file that fails a constraint gets 422 with the violation in the body.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, uploadStatus(err))
		return
	}
	defer up.Close()

	ff := up.frame
	err = ff.Load(r.Context(), up.source)
	if err != nil && !isViolation(err) {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	resp := ValidateResponse{
		LoadID:      ff.LoadID().String(),
		Valid:       err == nil,
		Rows:        ff.Table().NumRows(),
		Columns:     ff.ColumnNames(),
		ColumnTypes: ff.ColumnTypes(),
		Constraints: describe(ff),
	}
	status := http.StatusOK
	if err != nil {
		resp.Error = violationDetail(err)
		status = http.StatusUnprocessableEntity
	}

	logging.WithFields(r.Context(), "load_id", resp.LoadID, "file", up.filename).Info("upload validated",
		"rows", resp.Rows,
		"valid", resp.Valid,
		"constraints", len(resp.Constraints),
	)
	writeJSON(w, status, resp)
}

// handleSchema validates the upload and renders CREATE TABLE for it.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	up, ff, ok := s.validated(w, r)
	if !ok {
		return
	}
	defer up.Close()

	dialect, err := store.ParseDialect(formDefault(r, "dialect", string(store.Postgres)))
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	name := up.tableName(r)
	ddl, err := store.CreateTableSQL(dialect, name, ff.Table(), ff.ConstraintDetails())
	if err != nil {
		s.respondError(w, r, err, http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, http.StatusOK, SchemaResponse{
		LoadID:  ff.LoadID().String(),
		Dialect: string(dialect),
		Table:   name,
		SQL:     ddl,
	})
}

// handleLoad validates the upload and writes it to the configured sink,
// creating the table if needed.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	up, ff, ok := s.validated(w, r)
	if !ok {
		return
	}
	defer up.Close()

	name := up.tableName(r)
	n, err := s.sink.Write(r.Context(), name, ff, store.WithCreateTable())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, LoadResponse{
		LoadID: ff.LoadID().String(),
		Table:  name,
		Rows:   n,
	})
}

// validated reads and validates an upload, writing the error response
// itself when anything fails.
func (s *Server) validated(w http.ResponseWriter, r *http.Request) (*upload, *fileframe.FileFrame, bool) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, uploadStatus(err))
		return nil, nil, false
	}
	if err := up.frame.Load(r.Context(), up.source); err != nil {
		up.Close()
		status := http.StatusBadRequest
		if isViolation(err) {
			status = http.StatusUnprocessableEntity
		}
		s.respondError(w, r, err, status)
		return nil, nil, false
	}
	return up, up.frame, true
}

func formDefault(r *http.Request, key, fallback string) string {
	if v := strings.TrimSpace(r.FormValue(key)); v != "" {
		return v
	}
	return fallback
}
