// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// SQLite keeps the whole roster in a single file on disk: no network, no
// separate server process. It is the local-persistence strategy.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aanand-mishra/student-roster/internal/storage"
	"github.com/aanand-mishra/student-roster/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
// A single *sql.DB is a connection pool, safe for concurrent use.
type SQLite struct {
	Db *sql.DB
}

var _ storage.Storage = (*SQLite)(nil)

// schema is idempotent and safe to run on every startup.
//
//	students      one row per record, scoped by owner_id
//	achievements  unique per (owner_id, type) so unlocks can upsert
const schema = `
	CREATE TABLE IF NOT EXISTS students (
		id              TEXT    PRIMARY KEY,
		owner_id        TEXT    NOT NULL,
		name            TEXT    NOT NULL,
		age             INTEGER NOT NULL,
		course          TEXT    NOT NULL,
		status          TEXT    NOT NULL,
		enrollment_date TEXT    NOT NULL,
		photo_url       TEXT    NOT NULL DEFAULT '',
		created_at      TIMESTAMP NOT NULL,
		updated_at      TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_students_owner ON students (owner_id, created_at);

	CREATE TABLE IF NOT EXISTS achievements (
		id          TEXT PRIMARY KEY,
		owner_id    TEXT NOT NULL,
		type        TEXT NOT NULL,
		title       TEXT NOT NULL,
		description TEXT NOT NULL,
		icon        TEXT NOT NULL,
		unlocked_at TIMESTAMP NOT NULL,
		UNIQUE (owner_id, type)
	);
`

// New opens the SQLite database at path, creates the tables if they do
// not already exist, and returns a ready-to-use *SQLite.
func New(path string) (*SQLite, error) {
	// sql.Open does NOT open a real connection yet; it only validates
	// the driver name and DSN.
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create tables: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// Close closes the connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// CreateStudent inserts a new row. The ID is a random UUID; prepared
// statements with ? placeholders keep user input out of the SQL text.
func (s *SQLite) CreateStudent(ctx context.Context, owner string, student types.Student) (types.Student, error) {
	now := time.Now().UTC()
	student.ID = uuid.NewString()
	student.OwnerID = owner
	student.CreatedAt = now
	student.UpdatedAt = now

	_, err := s.Db.ExecContext(ctx,
		`INSERT INTO students
			(id, owner_id, name, age, course, status, enrollment_date, photo_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		student.ID, student.OwnerID, student.Name, student.Age, student.Course,
		string(student.Status), student.EnrollmentDate, student.PhotoURL,
		student.CreatedAt, student.UpdatedAt,
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: exec: %w", err)
	}

	return student, nil
}

// studentColumns is listed explicitly (never SELECT *) so Scan's column
// order cannot drift when the table grows.
const studentColumns = `id, owner_id, name, age, course, status, enrollment_date, photo_url, created_at, updated_at`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (types.Student, error) {
	var (
		student types.Student
		status  string
	)
	err := row.Scan(
		&student.ID,
		&student.OwnerID,
		&student.Name,
		&student.Age,
		&student.Course,
		&status,
		&student.EnrollmentDate,
		&student.PhotoURL,
		&student.CreatedAt,
		&student.UpdatedAt,
	)
	student.Status = types.Status(status)
	return student, err
}

// GetStudentByID fetches exactly one row matched by owner and ID.
func (s *SQLite) GetStudentByID(ctx context.Context, owner, id string) (types.Student, error) {
	row := s.Db.QueryRowContext(ctx,
		"SELECT "+studentColumns+" FROM students WHERE owner_id = ? AND id = ? LIMIT 1",
		owner, id,
	)

	student, err := scanStudent(row)
	if err != nil {
		// sql.ErrNoRows is the sentinel for "nothing matched".
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, fmt.Errorf("no student found with id %s: %w", id, storage.ErrNotFound)
		}
		return types.Student{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}

	return student, nil
}

// GetStudents returns all rows of owner, newest first.
func (s *SQLite) GetStudents(ctx context.Context, owner string) ([]types.Student, error) {
	rows, err := s.Db.QueryContext(ctx,
		"SELECT "+studentColumns+" FROM students WHERE owner_id = ? ORDER BY created_at DESC, rowid DESC",
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close() // must close rows to free the DB connection

	// Empty, non-nil slice: encodes as [] rather than null.
	students := make([]types.Student, 0)

	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	return students, nil
}

// UpdateStudentByID replaces the mutable fields and re-fetches the row so
// the caller gets exactly what is stored.
func (s *SQLite) UpdateStudentByID(ctx context.Context, owner, id string, student types.Student) (types.Student, error) {
	res, err := s.Db.ExecContext(ctx,
		`UPDATE students
		    SET name = ?, age = ?, course = ?, status = ?, enrollment_date = ?, photo_url = ?, updated_at = ?
		  WHERE owner_id = ? AND id = ?`,
		student.Name, student.Age, student.Course, string(student.Status),
		student.EnrollmentDate, student.PhotoURL, time.Now().UTC(),
		owner, id,
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: exec: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.Student{}, fmt.Errorf("no student found with id %s: %w", id, storage.ErrNotFound)
	}

	return s.GetStudentByID(ctx, owner, id)
}

// DeleteStudentByID removes a row by owner and ID.
func (s *SQLite) DeleteStudentByID(ctx context.Context, owner, id string) error {
	res, err := s.Db.ExecContext(ctx, "DELETE FROM students WHERE owner_id = ? AND id = ?", owner, id)
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no student found with id %s: %w", id, storage.ErrNotFound)
	}

	return nil
}

// CountStudents counts owner's rows.
func (s *SQLite) CountStudents(ctx context.Context, owner string) (int, error) {
	var n int
	if err := s.Db.QueryRowContext(ctx, "SELECT COUNT(*) FROM students WHERE owner_id = ?", owner).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountStudents: %w", err)
	}
	return n, nil
}

// UpsertAchievement relies on the UNIQUE (owner_id, type) constraint:
// ON CONFLICT refreshes the text fields and leaves id and unlocked_at alone.
func (s *SQLite) UpsertAchievement(ctx context.Context, a types.Achievement) (types.Achievement, error) {
	if a.UnlockedAt.IsZero() {
		a.UnlockedAt = time.Now().UTC()
	}

	_, err := s.Db.ExecContext(ctx,
		`INSERT INTO achievements (id, owner_id, type, title, description, icon, unlocked_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (owner_id, type) DO UPDATE
		    SET title = excluded.title, description = excluded.description, icon = excluded.icon`,
		uuid.NewString(), a.OwnerID, a.Type, a.Title, a.Description, a.Icon, a.UnlockedAt,
	)
	if err != nil {
		return types.Achievement{}, fmt.Errorf("UpsertAchievement: exec: %w", err)
	}

	var stored types.Achievement
	err = s.Db.QueryRowContext(ctx,
		`SELECT id, owner_id, type, title, description, icon, unlocked_at
		   FROM achievements WHERE owner_id = ? AND type = ?`,
		a.OwnerID, a.Type,
	).Scan(&stored.ID, &stored.OwnerID, &stored.Type, &stored.Title, &stored.Description, &stored.Icon, &stored.UnlockedAt)
	if err != nil {
		return types.Achievement{}, fmt.Errorf("UpsertAchievement: reload: %w", err)
	}

	return stored, nil
}

// GetAchievements lists owner's achievements, newest first.
func (s *SQLite) GetAchievements(ctx context.Context, owner string) ([]types.Achievement, error) {
	rows, err := s.Db.QueryContext(ctx,
		`SELECT id, owner_id, type, title, description, icon, unlocked_at
		   FROM achievements WHERE owner_id = ? ORDER BY unlocked_at DESC, type`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("GetAchievements: query: %w", err)
	}
	defer rows.Close()

	achievements := make([]types.Achievement, 0)
	for rows.Next() {
		var a types.Achievement
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Type, &a.Title, &a.Description, &a.Icon, &a.UnlockedAt); err != nil {
			return nil, fmt.Errorf("GetAchievements: scan row: %w", err)
		}
		achievements = append(achievements, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetAchievements: rows iteration: %w", err)
	}

	return achievements, nil
}
