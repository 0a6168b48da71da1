// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, storage, the query pipeline and the spreadsheet bridge can all
// import types without depending on each other.
package types

import (
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar-date layout used for enrollment dates.
const DateLayout = "2006-01-02"

// InvalidDate is what an unparseable enrollment date renders as.
const InvalidDate = "Invalid Date"

// Status is the enrollment status of a student. Only the two constants
// below are valid values.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// ParseStatus maps free-form text (case-insensitive, including the
// Portuguese spellings used by older exports) onto a Status.
// Unknown input is returned unchanged so validation can reject it.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active", "ativo":
		return StatusActive
	case "inactive", "inativo":
		return StatusInactive
	default:
		return Status(strings.TrimSpace(raw))
	}
}

// Student represents a stored student record.
//
// ID, OwnerID, CreatedAt and UpdatedAt are assigned by the storage layer.
// ID never changes after creation.
//
// Struct tags:
//
//	json:"..."  controls how the field appears when encoded to JSON.
//
// Validation rules live on StudentInput, not here: the store accepts any
// record, the 16–100 age bound and the course list are form policy.
type Student struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"ownerId,omitempty"`
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	Course         string    `json:"course"`
	Status         Status    `json:"status"`
	EnrollmentDate string    `json:"enrollmentDate"`
	PhotoURL       string    `json:"photoUrl,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Enrolled parses EnrollmentDate. ok is false when the stored string is
// not a calendar date.
func (s Student) Enrolled() (t time.Time, ok bool) {
	return ParseDate(s.EnrollmentDate)
}

// DisplayDate renders EnrollmentDate as dd/mm/yyyy, or InvalidDate.
func (s Student) DisplayDate() string {
	t, ok := s.Enrolled()
	if !ok {
		return InvalidDate
	}
	return t.Format("02/01/2006")
}

// dateLayouts are tried in order. Unpadded months and days are accepted so
// that "2024-2-1" compares correctly against "2024-10-1".
var dateLayouts = []string{
	DateLayout,
	"2006-1-2",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// ParseDate parses a calendar date string leniently.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// StudentInput is the form-level shape of a student: everything the user
// types, nothing the store assigns. It doubles as the partial record the
// spreadsheet importer produces.
//
// validate:"..." holds rules checked by the go-playground/validator package.
// "course" is a custom rule registered by the validation package against
// the configured course list.
type StudentInput struct {
	Name           string `json:"name"           validate:"required,min=3,max=100"`
	Age            int    `json:"age"            validate:"min=16,max=100"`
	Course         string `json:"course"         validate:"required,course"`
	Status         Status `json:"status"         validate:"required,oneof=Active Inactive"`
	EnrollmentDate string `json:"enrollmentDate" validate:"required,datetime=2006-01-02"`
	PhotoURL       string `json:"photoUrl,omitempty" validate:"omitempty,url"`
}

// Normalize trims the free-text fields in place. Validation runs on the
// normalised value, so a name of only spaces fails "required".
func (in *StudentInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Course = strings.TrimSpace(in.Course)
	in.EnrollmentDate = strings.TrimSpace(in.EnrollmentDate)
	in.PhotoURL = strings.TrimSpace(in.PhotoURL)
}

// Student converts the input into a record. Store-assigned fields stay zero.
func (in StudentInput) Student() Student {
	return Student{
		Name:           strings.TrimSpace(in.Name),
		Age:            in.Age,
		Course:         strings.TrimSpace(in.Course),
		Status:         in.Status,
		EnrollmentDate: strings.TrimSpace(in.EnrollmentDate),
		PhotoURL:       in.PhotoURL,
	}
}

// Achievement is a milestone unlocked by an owner. (OwnerID, Type) is
// unique; repeated unlocks are upserts.
type Achievement struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	UnlockedAt  time.Time `json:"unlockedAt"`
}
