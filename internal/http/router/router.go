// Package router assembles the chi router: global middleware, the public
// health check, and the authenticated /api routes.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/aanand-mishra/student-roster/internal/http/handlers/activity"
	"github.com/aanand-mishra/student-roster/internal/http/handlers/student"
	"github.com/aanand-mishra/student-roster/internal/http/handlers/transfer"
	"github.com/aanand-mishra/student-roster/internal/http/middleware"
	"github.com/aanand-mishra/student-roster/internal/roster"
	"github.com/aanand-mishra/student-roster/internal/spreadsheet"
	"github.com/aanand-mishra/student-roster/internal/utils/response"
	"github.com/aanand-mishra/student-roster/internal/validation"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	Roster      *roster.Roster
	Validate    *validation.Validator
	Importer    spreadsheet.Importer
	Courses     []string
	JWTSecret   []byte
	CORSOrigins []string
	MaxUpload   int64
}

// New returns the application handler.
//
// Route table:
//
//	GET    /health                   → liveness, no auth
//	POST   /api/students             → create
//	GET    /api/students             → list (search, filter, sort)
//	GET    /api/students/stats       → aggregate statistics
//	GET    /api/students/courses     → offered and in-use courses
//	GET    /api/students/export      → download xlsx / csv / pdf
//	POST   /api/students/import      → upload xlsx / csv
//	GET    /api/students/{id}        → read
//	PUT    /api/students/{id}        → update
//	DELETE /api/students/{id}        → delete
//	GET    /api/achievements         → unlocked milestones
//	GET    /api/notifications        → recent notifications
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(d.CORSOrigins))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": response.StatusOK})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(d.JWTSecret))

		r.Route("/students", func(r chi.Router) {
			r.Post("/", student.New(d.Roster, d.Validate, d.MaxUpload))
			r.Get("/", student.GetList(d.Roster))
			r.Get("/stats", student.Stats(d.Roster))
			r.Get("/courses", student.Courses(d.Roster, d.Courses))
			r.Get("/export", transfer.Export(d.Roster))
			r.Post("/import", transfer.Import(d.Roster, d.Validate, d.Importer, d.MaxUpload))
			r.Get("/{id}", student.GetByID(d.Roster))
			r.Put("/{id}", student.Update(d.Roster, d.Validate, d.MaxUpload))
			r.Delete("/{id}", student.Delete(d.Roster))
		})

		r.Get("/achievements", activity.Achievements(d.Roster))
		r.Get("/notifications", activity.Notifications(d.Roster))
	})

	return r
}
