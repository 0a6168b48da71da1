// Package student contains the HTTP handlers for the Student resource.
//
// HANDLER PATTERN: CLOSURE / FACTORY
// ─────────────────────────────
// The router expects func(http.ResponseWriter, *http.Request). To inject
// dependencies, each exported function here is a factory: it is called
// ONCE at startup with the roster (and validator), and returns the
// handler that runs on EVERY request.
//
//	r.Post("/api/students", student.New(rost, validate, maxUpload))
//
// Every handler reads the owner placed in the context by the auth
// middleware; an owner only ever sees their own records.
package student

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/aanand-mishra/student-roster/internal/http/middleware"
	"github.com/aanand-mishra/student-roster/internal/logging"
	"github.com/aanand-mishra/student-roster/internal/query"
	"github.com/aanand-mishra/student-roster/internal/roster"
	"github.com/aanand-mishra/student-roster/internal/types"
	"github.com/aanand-mishra/student-roster/internal/utils/response"
	"github.com/aanand-mishra/student-roster/internal/validation"
)

// Roster is what the handlers need from roster.Roster.
type Roster interface {
	Students(ctx context.Context, owner string) ([]types.Student, error)
	Student(ctx context.Context, owner, id string) (types.Student, error)
	Add(ctx context.Context, owner string, in types.StudentInput, photo *roster.Photo) (types.Student, error)
	Update(ctx context.Context, owner, id string, in types.StudentInput, photo *roster.Photo) (types.Student, error)
	Delete(ctx context.Context, owner, id string) error
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/students
//
// Request body, either JSON:
//
//	{ "name": "Ana Souza", "age": 21, "course": "Computer Science",
//	  "status": "Active", "enrollmentDate": "2024-02-01" }
//
// or multipart/form-data with the same JSON in a "student" field and an
// optional image in a "photo" field.
//
// Success response (201 Created): the stored student.
//
// Error responses:
//
//	400 Bad Request  empty body, malformed JSON, or failed validation
//	501 Not Impl.    photo sent but uploads are not configured
//	500 Internal     storage or upload error
//
// ─────────────────────────────────────────────────────────────────────────────
func New(rost Roster, validate *validation.Validator, maxUpload int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())
		owner := middleware.OwnerFromContext(r.Context())
		log.Info("creating a student")

		in, photo, err := decodeInput(w, r, maxUpload)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if err := validate.Student(&in); err != nil {
			response.WriteError(w, err)
			return
		}

		s, err := rost.Add(r.Context(), owner, in, photo)
		if err != nil {
			log.Error("error creating student", slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		log.Info("student created", slog.String("id", s.ID))
		response.WriteJSON(w, http.StatusCreated, s)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /api/students
//
// Query parameters (all optional):
//
//	search  case-insensitive substring of name, course or id
//	filter  status or course; repeat or comma-separate for several
//	sort    name_asc (default), name_desc, age_asc, age_desc,
//	        date_asc, date_desc
//
// Returns an empty array [] (not null) when nothing matches.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(rost Roster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := middleware.OwnerFromContext(r.Context())

		students, err := rost.Students(r.Context(), owner)
		if err != nil {
			logging.FromContext(r.Context()).Error("error getting students", slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, query.Apply(students, query.FromValues(r.URL.Query())))
	}
}

// Stats handles GET /api/students/stats. The figures always cover the
// whole roster; search and filter parameters are ignored.
func Stats(rost Roster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := middleware.OwnerFromContext(r.Context())

		students, err := rost.Students(r.Context(), owner)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, query.Summarize(students))
	}
}

// Courses handles GET /api/students/courses.
//
//	{ "offered": [...configured courses...], "inUse": [...distinct courses in the roster...] }
func Courses(rost Roster, offered []string) http.HandlerFunc {
	offered = slices.Clone(offered)
	return func(w http.ResponseWriter, r *http.Request) {
		owner := middleware.OwnerFromContext(r.Context())

		students, err := rost.Students(r.Context(), owner)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, map[string][]string{
			"offered": offered,
			"inUse":   query.Courses(students),
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /api/students/{id}
//
// Error responses:
//
//	404 Not Found  no such student for this owner
//	500 Internal   storage error
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(rost Roster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		owner := middleware.OwnerFromContext(r.Context())

		s, err := rost.Student(r.Context(), owner, id)
		if err != nil {
			logging.FromContext(r.Context()).Error("error getting student",
				slog.String("id", id),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, s)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /api/students/{id}
// Replaces all editable fields; the body has the same shape as for New.
// When neither a photo nor a photoUrl is sent, the current photo is kept.
//
// Error responses:
//
//	400 Bad Request  empty body, malformed JSON, or failed validation
//	404 Not Found    no such student for this owner
//	500 Internal     storage or upload error
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(rost Roster, validate *validation.Validator, maxUpload int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		log := logging.WithFields(r.Context(), slog.String("id", id))
		owner := middleware.OwnerFromContext(r.Context())
		log.Info("updating a student")

		in, photo, err := decodeInput(w, r, maxUpload)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if err := validate.Student(&in); err != nil {
			response.WriteError(w, err)
			return
		}

		updated, err := rost.Update(r.Context(), owner, id, in, photo)
		if err != nil {
			log.Error("error updating student", slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		log.Info("student updated")
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// Delete handles DELETE /api/students/{id}. Responds
// { "status": "deleted" } or 404.
func Delete(rost Roster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		log := logging.WithFields(r.Context(), slog.String("id", id))
		owner := middleware.OwnerFromContext(r.Context())

		if err := rost.Delete(r.Context(), owner, id); err != nil {
			log.Error("error deleting student", slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		log.Info("student deleted")
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// decodeInput reads a StudentInput from a JSON body or from the "student"
// field of a multipart form, plus the optional "photo" file.
func decodeInput(w http.ResponseWriter, r *http.Request, maxUpload int64) (types.StudentInput, *roster.Photo, error) {
	var in types.StudentInput
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		err := json.NewDecoder(r.Body).Decode(&in)
		if errors.Is(err, io.EOF) {
			return in, nil, errors.New("request body is empty")
		}
		if err != nil {
			return in, nil, err
		}
		in.Status = types.ParseStatus(string(in.Status))
		return in, nil, nil
	}

	if err := r.ParseMultipartForm(maxUpload); err != nil {
		return in, nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	raw := r.FormValue("student")
	if raw == "" {
		return in, nil, errors.New("multipart field \"student\" is empty")
	}
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return in, nil, err
	}
	in.Status = types.ParseStatus(string(in.Status))

	file, header, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil, nil
	}
	if err != nil {
		return in, nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return in, nil, err
	}
	return in, &roster.Photo{Filename: header.Filename, Data: data}, nil
}
