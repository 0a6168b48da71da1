// Package postgres implements storage.Storage on a hosted PostgreSQL table
// store (Supabase or any Postgres) through a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aanand-mishra/student-roster/internal/storage"
	"github.com/aanand-mishra/student-roster/internal/types"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONNECTION
// ══════════════════════════════════════════════════════════════════════════════

// Postgres is the pooled implementation of storage.Storage.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ storage.Storage = (*Postgres)(nil)

const schema = `
	CREATE TABLE IF NOT EXISTS students (
		id              UUID        PRIMARY KEY,
		owner_id        TEXT        NOT NULL,
		name            TEXT        NOT NULL,
		age             INTEGER     NOT NULL,
		course          TEXT        NOT NULL,
		status          TEXT        NOT NULL,
		enrollment_date TEXT        NOT NULL,
		photo_url       TEXT        NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_students_owner ON students (owner_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS achievements (
		id          UUID        PRIMARY KEY,
		owner_id    TEXT        NOT NULL,
		type        TEXT        NOT NULL,
		title       TEXT        NOT NULL,
		description TEXT        NOT NULL,
		icon        TEXT        NOT NULL,
		unlocked_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (owner_id, type)
	);
`

// New connects to url, pings, and ensures the tables exist.
func New(ctx context.Context, url string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: create tables: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Close closes the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENTS
// ══════════════════════════════════════════════════════════════════════════════

const studentColumns = `id, owner_id, name, age, course, status, enrollment_date, photo_url, created_at, updated_at`

func scanStudent(row pgx.Row) (types.Student, error) {
	var (
		st     types.Student
		id     uuid.UUID
		status string
	)
	err := row.Scan(&id, &st.OwnerID, &st.Name, &st.Age, &st.Course, &status,
		&st.EnrollmentDate, &st.PhotoURL, &st.CreatedAt, &st.UpdatedAt)
	st.ID = id.String()
	st.Status = types.Status(status)
	return st, err
}

func notFound(id string) error {
	return fmt.Errorf("no student found with id %s: %w", id, storage.ErrNotFound)
}

// CreateStudent inserts a row and returns it as stored.
func (p *Postgres) CreateStudent(ctx context.Context, owner string, student types.Student) (types.Student, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO students (id, owner_id, name, age, course, status, enrollment_date, photo_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+studentColumns,
		uuid.New(), owner, student.Name, student.Age, student.Course,
		string(student.Status), student.EnrollmentDate, student.PhotoURL,
	)

	created, err := scanStudent(row)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: %w", err)
	}
	return created, nil
}

// GetStudentByID fetches one row.
func (p *Postgres) GetStudentByID(ctx context.Context, owner, id string) (types.Student, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return types.Student{}, notFound(id)
	}

	row := p.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE owner_id = $1 AND id = $2`,
		owner, uid,
	)
	st, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Student{}, notFound(id)
		}
		return types.Student{}, fmt.Errorf("GetStudentByID: %w", err)
	}
	return st, nil
}

// GetStudents lists owner's rows ordered by created_at descending.
func (p *Postgres) GetStudents(ctx context.Context, owner string) ([]types.Student, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+studentColumns+` FROM students WHERE owner_id = $1 ORDER BY created_at DESC`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}
	return students, nil
}

// UpdateStudentByID updates the mutable columns and returns the new row.
func (p *Postgres) UpdateStudentByID(ctx context.Context, owner, id string, student types.Student) (types.Student, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return types.Student{}, notFound(id)
	}

	row := p.pool.QueryRow(ctx, `
		UPDATE students
		   SET name = $3, age = $4, course = $5, status = $6, enrollment_date = $7,
		       photo_url = $8, updated_at = now()
		 WHERE owner_id = $1 AND id = $2
		RETURNING `+studentColumns,
		owner, uid, student.Name, student.Age, student.Course,
		string(student.Status), student.EnrollmentDate, student.PhotoURL,
	)
	st, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Student{}, notFound(id)
		}
		return types.Student{}, fmt.Errorf("UpdateStudentByID: %w", err)
	}
	return st, nil
}

// DeleteStudentByID deletes one row.
func (p *Postgres) DeleteStudentByID(ctx context.Context, owner, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return notFound(id)
	}

	tag, err := p.pool.Exec(ctx, `DELETE FROM students WHERE owner_id = $1 AND id = $2`, owner, uid)
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

// CountStudents counts owner's rows.
func (p *Postgres) CountStudents(ctx context.Context, owner string) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM students WHERE owner_id = $1`, owner).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountStudents: %w", err)
	}
	return n, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

const achievementColumns = `id, owner_id, type, title, description, icon, unlocked_at`

func scanAchievement(row pgx.Row) (types.Achievement, error) {
	var (
		a  types.Achievement
		id uuid.UUID
	)
	err := row.Scan(&id, &a.OwnerID, &a.Type, &a.Title, &a.Description, &a.Icon, &a.UnlockedAt)
	a.ID = id.String()
	return a, err
}

// UpsertAchievement inserts or refreshes the (owner, type) row.
func (p *Postgres) UpsertAchievement(ctx context.Context, a types.Achievement) (types.Achievement, error) {
	unlocked := a.UnlockedAt
	if unlocked.IsZero() {
		unlocked = time.Now().UTC()
	}

	row := p.pool.QueryRow(ctx, `
		INSERT INTO achievements (id, owner_id, type, title, description, icon, unlocked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner_id, type) DO UPDATE
		   SET title = EXCLUDED.title, description = EXCLUDED.description, icon = EXCLUDED.icon
		RETURNING `+achievementColumns,
		uuid.New(), a.OwnerID, a.Type, a.Title, a.Description, a.Icon, unlocked,
	)
	stored, err := scanAchievement(row)
	if err != nil {
		return types.Achievement{}, fmt.Errorf("UpsertAchievement: %w", err)
	}
	return stored, nil
}

// GetAchievements lists owner's achievements, newest first.
func (p *Postgres) GetAchievements(ctx context.Context, owner string) ([]types.Achievement, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+achievementColumns+` FROM achievements WHERE owner_id = $1 ORDER BY unlocked_at DESC, type`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("GetAchievements: query: %w", err)
	}
	defer rows.Close()

	out := make([]types.Achievement, 0)
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, fmt.Errorf("GetAchievements: scan row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetAchievements: rows iteration: %w", err)
	}
	return out, nil
}
