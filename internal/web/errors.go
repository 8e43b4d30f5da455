package web

// errors.go maps errors to user-facing messages and writes error responses.
//
// Constraint violations are mapped by kind (CON001-CON009). Everything else
// falls through to a case-insensitive pattern list, the same way upload
// errors were classified before. Unknown errors get ERR000 and the technical
// error is only logged, never returned.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/fileframe/internal/constraint"
	"github.com/JonMunkholm/fileframe/internal/logging"
	"github.com/JonMunkholm/fileframe/internal/table"
)

// UserMessage is a user-facing description of an error.
type UserMessage struct {
	Message string // What went wrong
	Action  string // What the user can do about it
	Code    string // Reference code for support, e.g. CON001
}

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// violationMessages covers every constraint.ViolationKind.
var violationMessages = map[constraint.ViolationKind]UserMessage{
	constraint.NotNullViolation: {
		Message: "A required column contains empty values",
		Action:  "Fill in the missing values or add a default_value rule",
		Code:    "CON001",
	},
	constraint.PrimaryKeyNull: {
		Message: "A primary key column contains empty values",
		Action:  "Every row needs a value in each primary key column",
		Code:    "CON002",
	},
	constraint.PrimaryKeyDuplicate: {
		Message: "Primary key values are repeated",
		Action:  "Remove duplicate rows or choose a different key",
		Code:    "CON003",
	},
	constraint.UniqueDuplicate: {
		Message: "Values that must be unique are repeated",
		Action:  "Remove or correct the duplicate rows",
		Code:    "CON004",
	},
	constraint.CheckFailed: {
		Message: "Some values fail a check rule",
		Action:  "Correct the values or relax the check",
		Code:    "CON005",
	},
	constraint.UnsupportedOperator: {
		Message: "A check rule uses an unknown operator",
		Action:  "Use one of =, !=, >, <, >=, <=",
		Code:    "CON006",
	},
	constraint.DuplicatePrimaryKey: {
		Message: "More than one primary key rule was given",
		Action:  "Keep a single primary_key rule, listing all key columns",
		Code:    "CON007",
	},
	constraint.PrimaryKeyNotNullConflict: {
		Message: "A not_null rule repeats a primary key column",
		Action:  "Remove the not_null rule; primary key columns are already required",
		Code:    "CON008",
	},
	constraint.DuplicateConstraint: {
		Message: "The same rule was given twice",
		Action:  "Remove the repeated rule",
		Code:    "CON009",
	},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is checked in order; the first match wins.
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors (FILE001-FILE007)
	// These errors occur while receiving or parsing the uploaded file.
	// =========================================================================
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller parts",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was uploaded",
			Action:  "Attach the file in the 'file' form field",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unsupported file",
		msg: UserMessage{
			Message: "File type is not supported",
			Action:  "Upload a .csv, .tsv or .xlsx file",
			Code:    "FILE003",
		},
	},
	{
		pattern: "header has",
		msg: UserMessage{
			Message: "A row has more fields than the header",
			Action:  "Check the delimiter and quoting in the file",
			Code:    "FILE004",
		},
	},
	{
		pattern: "parse csv",
		msg: UserMessage{
			Message: "File could not be parsed",
			Action:  "Check that the file is valid CSV",
			Code:    "FILE005",
		},
	},
	{
		pattern: "open workbook",
		msg: UserMessage{
			Message: "Workbook could not be opened",
			Action:  "Check that the file is a valid .xlsx workbook",
			Code:    "FILE006",
		},
	},
	{
		pattern: "sheet",
		msg: UserMessage{
			Message: "Worksheet could not be read",
			Action:  "Check the sheet name or index",
			Code:    "FILE007",
		},
	},

	// =========================================================================
	// Rule Errors (RUL001-RUL003)
	// These errors occur when the rules document cannot be used.
	// =========================================================================
	{
		pattern: "parse rules",
		msg: UserMessage{
			Message: "Rules document is not valid YAML",
			Action:  "Check the rules syntax",
			Code:    "RUL001",
		},
	},
	{
		pattern: "rule ",
		msg: UserMessage{
			Message: "A rule is invalid",
			Action:  "Check the rule named in the error",
			Code:    "RUL002",
		},
	},
	{
		pattern: "unknown sql dialect",
		msg: UserMessage{
			Message: "Unknown SQL dialect",
			Action:  "Use postgres or sqlite",
			Code:    "RUL003",
		},
	},

	// =========================================================================
	// Load Errors (LOAD001-LOAD003)
	// These errors occur when the server cannot take on more work.
	// =========================================================================
	{
		pattern: "too many validations",
		msg: UserMessage{
			Message: "Server is busy processing other files",
			Action:  "Please wait a moment and try again",
			Code:    "LOAD001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "LOAD002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file",
			Code:    "LOAD003",
		},
	},
}

// columnNotFound is returned for rules naming a column the file lacks.
var columnNotFound = UserMessage{
	Message: "A rule refers to a column that is not in the file",
	Action:  "Check the column names in the rules against the file header",
	Code:    "COL001",
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-facing message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if errors.Is(err, table.ErrColumnNotFound) {
		return columnNotFound
	}
	if kind, ok := constraint.KindOf(err); ok {
		if msg, ok := violationMessages[kind]; ok {
			return msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// respondError logs err with the request ID and writes a JSON error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	writeJSON(w, statusCode, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// writeJSON encodes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
