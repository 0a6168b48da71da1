// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler sends JSON back to the client, except file downloads.
// Error responses always share one envelope so API consumers can rely on
// its shape:
//
//	{ "status": "error", "error": "field Name is required" }
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-roster/internal/roster"
	"github.com/aanand-mishra/student-roster/internal/spreadsheet"
	"github.com/aanand-mishra/student-roster/internal/storage"
)

// Response is the standard envelope returned for error cases.
// Success responses may return any JSON shape.
type Response struct {
	Status string `json:"status"` // "ok" or "error"
	Error  string `json:"error"`  // human-readable error detail
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON writes data as JSON with the given status code.
//
// ORDER MATTERS: Header() → WriteHeader() → body writes.
// Once WriteHeader is called, headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteFile writes a download: body with contentType, offered to the
// browser as filename.
func WriteFile(w http.ResponseWriter, filename, contentType string, body []byte) error {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(body)))
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(body)
	return err
}

// GeneralError wraps any Go error into the standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// StatusFor maps a domain error onto an HTTP status code:
//
//	validator.ValidationErrors                 → 400
//	spreadsheet.ErrUnreadable / Unsupported    → 400
//	roster.ErrNotImage                         → 400
//	storage.ErrNotFound                        → 404
//	roster.ErrPhotosDisabled                   → 501
//	anything else                              → 500
//
// ─────────────────────────────────────────────────────────────────────────────
func StatusFor(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs),
		errors.Is(err, spreadsheet.ErrUnreadable),
		errors.Is(err, spreadsheet.ErrUnsupportedFormat),
		errors.Is(err, roster.ErrNotImage):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, roster.ErrPhotosDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err with the status StatusFor picks. Validation
// failures get the per-field message of ValidationError.
func WriteError(w http.ResponseWriter, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return WriteJSON(w, http.StatusBadRequest, ValidationError(verrs))
	}
	return WriteJSON(w, StatusFor(err), GeneralError(err))
}

// ─────────────────────────────────────────────────────────────────────────────
// ValidationError converts validator.FieldError values into a single
// human-readable Response, one sentence per failing field:
//
//	{ "status": "error", "error": "field Name is required, field Age must be at least 16" }
//
// ─────────────────────────────────────────────────────────────────────────────
func ValidationError(errs validator.ValidationErrors) Response {
	return Response{
		Status: StatusError,
		Error:  strings.Join(FieldMessages(errs), ", "),
	}
}

// FieldMessages renders each field error as an English sentence.
func FieldMessages(errs validator.ValidationErrors) []string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, fieldMessage(e))
	}
	return msgs
}

func fieldMessage(e validator.FieldError) string {
	switch e.ActualTag() {
	case "required":
		return fmt.Sprintf("field %s is required", e.Field())
	case "min":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("field %s must be at least %s characters", e.Field(), e.Param())
		}
		return fmt.Sprintf("field %s must be at least %s", e.Field(), e.Param())
	case "max":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("field %s must be at most %s characters", e.Field(), e.Param())
		}
		return fmt.Sprintf("field %s must be at most %s", e.Field(), e.Param())
	case "oneof":
		return fmt.Sprintf("field %s must be one of: %s", e.Field(), strings.ReplaceAll(e.Param(), " ", ", "))
	case "datetime":
		return fmt.Sprintf("field %s must be a date in YYYY-MM-DD format", e.Field())
	case "course":
		return fmt.Sprintf("field %s is not an offered course", e.Field())
	case "url":
		return fmt.Sprintf("field %s must be a valid URL", e.Field())
	default:
		return fmt.Sprintf("field %s is invalid", e.Field())
	}
}
