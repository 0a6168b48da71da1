// Package memory is a process-local storage.Storage. Nothing survives a
// restart; it backs tests and the "memory" storage driver.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aanand-mishra/student-roster/internal/storage"
	"github.com/aanand-mishra/student-roster/internal/types"
)

// Store keeps records per owner in insertion order.
type Store struct {
	mu           sync.RWMutex
	students     map[string][]types.Student
	achievements map[string]map[string]types.Achievement
	now          func() time.Time
}

var _ storage.Storage = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		students:     make(map[string][]types.Student),
		achievements: make(map[string]map[string]types.Achievement),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) CreateStudent(_ context.Context, owner string, student types.Student) (types.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	student.ID = uuid.NewString()
	student.OwnerID = owner
	student.CreatedAt = now
	student.UpdatedAt = now
	s.students[owner] = append(s.students[owner], student)
	return student, nil
}

func (s *Store) index(owner, id string) int {
	for i, st := range s.students[owner] {
		if st.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) GetStudentByID(_ context.Context, owner, id string) (types.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(owner, id)
	if i < 0 {
		return types.Student{}, fmt.Errorf("no student found with id %s: %w", id, storage.ErrNotFound)
	}
	return s.students[owner][i], nil
}

// GetStudents returns newest first. Records created within the same clock
// tick keep reverse insertion order.
func (s *Store) GetStudents(_ context.Context, owner string) ([]types.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.students[owner]
	out := make([]types.Student, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		out = append(out, src[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) UpdateStudentByID(_ context.Context, owner, id string, student types.Student) (types.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(owner, id)
	if i < 0 {
		return types.Student{}, fmt.Errorf("no student found with id %s: %w", id, storage.ErrNotFound)
	}

	cur := s.students[owner][i]
	cur.Name = student.Name
	cur.Age = student.Age
	cur.Course = student.Course
	cur.Status = student.Status
	cur.EnrollmentDate = student.EnrollmentDate
	cur.PhotoURL = student.PhotoURL
	cur.UpdatedAt = s.now()
	s.students[owner][i] = cur
	return cur, nil
}

func (s *Store) DeleteStudentByID(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(owner, id)
	if i < 0 {
		return fmt.Errorf("no student found with id %s: %w", id, storage.ErrNotFound)
	}
	list := s.students[owner]
	s.students[owner] = append(list[:i:i], list[i+1:]...)
	return nil
}

func (s *Store) CountStudents(_ context.Context, owner string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.students[owner]), nil
}

func (s *Store) UpsertAchievement(_ context.Context, a types.Achievement) (types.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byType, ok := s.achievements[a.OwnerID]
	if !ok {
		byType = make(map[string]types.Achievement)
		s.achievements[a.OwnerID] = byType
	}

	if cur, ok := byType[a.Type]; ok {
		cur.Title = a.Title
		cur.Description = a.Description
		cur.Icon = a.Icon
		byType[a.Type] = cur
		return cur, nil
	}

	a.ID = uuid.NewString()
	if a.UnlockedAt.IsZero() {
		a.UnlockedAt = s.now()
	}
	byType[a.Type] = a
	return a, nil
}

func (s *Store) GetAchievements(_ context.Context, owner string) ([]types.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Achievement, 0, len(s.achievements[owner]))
	for _, a := range s.achievements[owner] {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UnlockedAt.Equal(out[j].UnlockedAt) {
			return out[i].Type < out[j].Type
		}
		return out[i].UnlockedAt.After(out[j].UnlockedAt)
	})
	return out, nil
}
