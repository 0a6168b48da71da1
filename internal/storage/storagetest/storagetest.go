// Package storagetest is a conformance suite every storage.Storage
// implementation runs from its own tests.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-roster/internal/storage"
	"github.com/aanand-mishra/student-roster/internal/types"
)

// Run exercises s. The store must start empty.
func Run(t *testing.T, s storage.Storage) {
	t.Helper()
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		created, err := s.CreateStudent(ctx, "owner-a", student("Ana Souza", 21))
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "owner-a", created.OwnerID)
		assert.False(t, created.CreatedAt.IsZero())

		got, err := s.GetStudentByID(ctx, "owner-a", created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "Ana Souza", got.Name)
		assert.Equal(t, types.StatusActive, got.Status)
		assert.Equal(t, "2024-02-01", got.EnrollmentDate)
	})

	t.Run("owners are isolated", func(t *testing.T) {
		created, err := s.CreateStudent(ctx, "owner-b", student("Bruno Lima", 30))
		require.NoError(t, err)

		_, err = s.GetStudentByID(ctx, "owner-a", created.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		err = s.DeleteStudentByID(ctx, "owner-a", created.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		n, err := s.CountStudents(ctx, "owner-b")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("list is newest first", func(t *testing.T) {
		var want []string
		for _, name := range []string{"First One", "Second One", "Third One"} {
			c, err := s.CreateStudent(ctx, "owner-c", student(name, 20))
			require.NoError(t, err)
			want = append([]string{c.ID}, want...)
			time.Sleep(2 * time.Millisecond)
		}

		list, err := s.GetStudents(ctx, "owner-c")
		require.NoError(t, err)
		got := make([]string, len(list))
		for i, st := range list {
			got[i] = st.ID
		}
		assert.Equal(t, want, got)
	})

	t.Run("empty list is not nil", func(t *testing.T) {
		list, err := s.GetStudents(ctx, "nobody")
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})

	t.Run("update keeps identity", func(t *testing.T) {
		created, err := s.CreateStudent(ctx, "owner-d", student("Carla Dias", 22))
		require.NoError(t, err)

		change := student("Carla D. Santos", 23)
		change.Status = types.StatusInactive
		change.PhotoURL = "http://cdn.local/p.png"
		updated, err := s.UpdateStudentByID(ctx, "owner-d", created.ID, change)
		require.NoError(t, err)

		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "Carla D. Santos", updated.Name)
		assert.Equal(t, 23, updated.Age)
		assert.Equal(t, types.StatusInactive, updated.Status)
		assert.Equal(t, "http://cdn.local/p.png", updated.PhotoURL)
		assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

		_, err = s.UpdateStudentByID(ctx, "owner-d", "missing", change)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		created, err := s.CreateStudent(ctx, "owner-e", student("Dora Melo", 40))
		require.NoError(t, err)

		require.NoError(t, s.DeleteStudentByID(ctx, "owner-e", created.ID))
		_, err = s.GetStudentByID(ctx, "owner-e", created.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, s.DeleteStudentByID(ctx, "owner-e", created.ID), storage.ErrNotFound)
	})

	t.Run("achievement upsert is idempotent", func(t *testing.T) {
		at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		first, err := s.UpsertAchievement(ctx, types.Achievement{
			OwnerID: "owner-f", Type: "first_student", Title: "Old", Description: "d", Icon: "x", UnlockedAt: at,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, first.ID)

		again, err := s.UpsertAchievement(ctx, types.Achievement{
			OwnerID: "owner-f", Type: "first_student", Title: "New", Description: "d2", Icon: "y", UnlockedAt: at.Add(time.Hour),
		})
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, "New", again.Title)
		assert.True(t, again.UnlockedAt.Equal(at))

		list, err := s.GetAchievements(ctx, "owner-f")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "New", list[0].Title)
	})

	t.Run("achievements unlocked together order by type", func(t *testing.T) {
		at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		for _, typ := range []string{"ten_students", "first_student", "fifty_students"} {
			_, err := s.UpsertAchievement(ctx, types.Achievement{
				OwnerID: "owner-g", Type: typ, Title: typ, Description: "d", Icon: "x", UnlockedAt: at,
			})
			require.NoError(t, err)
		}

		list, err := s.GetAchievements(ctx, "owner-g")
		require.NoError(t, err)
		got := make([]string, len(list))
		for i, a := range list {
			got[i] = a.Type
		}
		assert.Equal(t, []string{"fifty_students", "first_student", "ten_students"}, got)
	})
}

func student(name string, age int) types.Student {
	return types.Student{
		Name:           name,
		Age:            age,
		Course:         "Computer Science",
		Status:         types.StatusActive,
		EnrollmentDate: "2024-02-01",
	}
}
