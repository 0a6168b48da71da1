// Package validation builds the form-level validator. Storage never
// validates; everything a user submits (JSON body or imported row) goes
// through here first.
package validation

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-roster/internal/types"
)

// DefaultCourses is used when the config does not list any courses.
var DefaultCourses = []string{
	"Software Engineering",
	"Computer Science",
	"Information Systems",
	"Systems Analysis and Development",
	"Computer Engineering",
}

// Validator is a validator.Validate with the "course" rule bound to the
// configured course list.
type Validator struct {
	*validator.Validate

	// canonical maps a lower-cased course to its configured spelling.
	canonical map[string]string
}

// New returns a Validator for courses. The "course" rule itself matches
// exactly; Student maps other spellings onto the configured one first.
func New(courses []string) *Validator {
	if len(courses) == 0 {
		courses = DefaultCourses
	}

	canonical := make(map[string]string, len(courses))
	allowed := make(map[string]struct{}, len(courses))
	for _, c := range courses {
		c = strings.TrimSpace(c)
		canonical[strings.ToLower(c)] = c
		allowed[c] = struct{}{}
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	// RegisterValidation only fails on an empty tag or a nil func.
	_ = v.RegisterValidation("course", func(fl validator.FieldLevel) bool {
		_, ok := allowed[fl.Field().String()]
		return ok
	})
	return &Validator{Validate: v, canonical: canonical}
}

// Student normalises in and then validates it. A course matching a
// configured one regardless of case is rewritten to that spelling, so
// filters and stats see a single value per course.
func (v *Validator) Student(in *types.StudentInput) error {
	in.Normalize()
	if c, ok := v.canonical[strings.ToLower(in.Course)]; ok {
		in.Course = c
	}
	return v.Struct(in)
}
