// Package transfer serves roster downloads (xlsx, csv, pdf) and imports
// uploaded spreadsheets.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-roster/internal/http/middleware"
	"github.com/aanand-mishra/student-roster/internal/logging"
	"github.com/aanand-mishra/student-roster/internal/query"
	"github.com/aanand-mishra/student-roster/internal/roster"
	"github.com/aanand-mishra/student-roster/internal/spreadsheet"
	"github.com/aanand-mishra/student-roster/internal/types"
	"github.com/aanand-mishra/student-roster/internal/utils/response"
	"github.com/aanand-mishra/student-roster/internal/validation"
)

// Roster is what the transfer handlers need from roster.Roster.
type Roster interface {
	Students(ctx context.Context, owner string) ([]types.Student, error)
	Import(ctx context.Context, owner string, rows []types.StudentInput, check func(*types.StudentInput) error) roster.ImportResult
}

// ─────────────────────────────────────────────────────────────────────────────
// Export handles GET /api/students/export
//
// Query parameters:
//
//	format  xlsx (default), csv or pdf
//	scope   all (default) exports the full roster, newest first;
//	        view applies search, filter and sort as GET /api/students does
//
// Responds with the file as an attachment named students.<format>.
// ─────────────────────────────────────────────────────────────────────────────
func Export(rost Roster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		log := logging.WithFields(r.Context(), slog.String("format", q.Get("format")))
		owner := middleware.OwnerFromContext(r.Context())

		raw := q.Get("format")
		if raw == "" {
			raw = string(spreadsheet.FormatXLSX)
		}
		format, err := spreadsheet.ParseFormat(raw)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		students, err := rost.Students(r.Context(), owner)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		switch q.Get("scope") {
		case "", "all":
		case "view":
			students = query.Apply(students, query.FromValues(q))
		default:
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(fmt.Errorf("unknown scope %q: use all or view", q.Get("scope"))))
			return
		}

		body, err := spreadsheet.Export(format, students)
		if err != nil {
			log.Error("export failed", slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		log.Info("roster exported", slog.Int("rows", len(students)))
		response.WriteFile(w, format.Filename(), format.ContentType(), body)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Import handles POST /api/students/import
//
// Request: multipart/form-data with the spreadsheet in a "file" field.
// Each data row is validated and stored on its own; rows that fail are
// reported, not fatal.
//
// Success response (200 OK):
//
//	{ "imported": [...students...], "skipped": [{ "row": 3, "name": "Jo", "reason": "..." }] }
//
// Error responses:
//
//	400 Bad Request  no file, unreadable or unsupported file
//
// ─────────────────────────────────────────────────────────────────────────────
func Import(rost Roster, validate *validation.Validator, importer spreadsheet.Importer, maxUpload int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := middleware.OwnerFromContext(r.Context())
		r.Body = http.MaxBytesReader(w, r.Body, maxUpload)

		if err := r.ParseMultipartForm(maxUpload); err != nil {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(fmt.Errorf("invalid multipart form: %w", err)))
			return
		}
		file, header, err := r.FormFile("file")
		if errors.Is(err, http.ErrMissingFile) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("multipart field \"file\" is missing")))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		defer file.Close()

		log := logging.WithFields(r.Context(), slog.String("file", header.Filename))

		data, err := io.ReadAll(file)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		rows, err := importer.Import(header.Filename, data)
		if err != nil {
			log.Warn("import rejected", slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		res := rost.Import(r.Context(), owner, rows, func(in *types.StudentInput) error {
			err := validate.Student(in)
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				return errors.New(response.ValidationError(verrs).Error)
			}
			return err
		})

		log.Info("roster imported",
			slog.Int("rows", len(rows)),
			slog.Int("imported", len(res.Imported)),
			slog.Int("skipped", len(res.Skipped)))
		response.WriteJSON(w, http.StatusOK, res)
	}
}
