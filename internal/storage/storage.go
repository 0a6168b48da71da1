// Package storage defines the Storage interface, the single contract that
// every persistence strategy must satisfy.
//
// WHY ONE INTERFACE?
// ──────────────────
// The roster can live in a local SQLite file, in a hosted PostgreSQL table,
// or only in process memory. Callers (the roster, the handlers, the tests)
// depend on this interface alone, so the strategy is a line in main.go
// (driven by config), never a parallel code path.
//
// Every method is scoped by an owner ID: an owner only ever sees and
// touches their own records.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/student-roster/internal/types"
)

// ErrNotFound is returned when a record does not exist for the given owner.
// Implementations wrap it, so callers check with errors.Is.
var ErrNotFound = errors.New("storage: record not found")

// Storage is the record-store contract.
type Storage interface {
	// CreateStudent inserts a new record for owner. The store assigns ID,
	// OwnerID, CreatedAt and UpdatedAt and returns the stored record.
	CreateStudent(ctx context.Context, owner string, student types.Student) (types.Student, error)

	// GetStudentByID fetches one record. Returns ErrNotFound if missing.
	GetStudentByID(ctx context.Context, owner, id string) (types.Student, error)

	// GetStudents returns every record of owner, most recently created
	// first. Returns an empty slice (not nil) if there are none.
	GetStudents(ctx context.Context, owner string) ([]types.Student, error)

	// UpdateStudentByID replaces the mutable fields of an existing record.
	// ID, OwnerID and CreatedAt are preserved. Returns ErrNotFound if missing.
	UpdateStudentByID(ctx context.Context, owner, id string, student types.Student) (types.Student, error)

	// DeleteStudentByID removes a record permanently. Returns ErrNotFound
	// if missing.
	DeleteStudentByID(ctx context.Context, owner, id string) error

	// CountStudents returns how many records owner has.
	CountStudents(ctx context.Context, owner string) (int, error)

	// UpsertAchievement stores an achievement keyed by (OwnerID, Type).
	// On conflict title, description and icon are refreshed; ID and
	// UnlockedAt of the existing row are kept.
	UpsertAchievement(ctx context.Context, achievement types.Achievement) (types.Achievement, error)

	// GetAchievements returns owner's achievements, newest unlock first.
	GetAchievements(ctx context.Context, owner string) ([]types.Achievement, error)

	// Close releases the underlying connection(s).
	Close() error
}
