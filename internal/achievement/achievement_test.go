package achievement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-roster/internal/storage/memory"
	"github.com/aanand-mishra/student-roster/internal/types"
)

func TestReached(t *testing.T) {
	assert.Empty(t, Reached(0))
	assert.Len(t, Reached(1), 1)
	assert.Len(t, Reached(9), 1)
	assert.Len(t, Reached(10), 2)
	assert.Len(t, Reached(100), 4)
	assert.Len(t, Reached(250), 4)
}

func TestCheck_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	for i := 0; i < 10; i++ {
		_, err := store.CreateStudent(ctx, "owner", types.Student{Name: "Student"})
		require.NoError(t, err)
	}

	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := Check(ctx, store, "owner", now.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	list, err := store.GetAchievements(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, list, 2)

	ten := 0
	for _, a := range list {
		if a.Type == "ten_students" {
			ten++
			assert.True(t, a.UnlockedAt.Equal(now), "unlock time is kept on repeat")
		}
	}
	assert.Equal(t, 1, ten)
}

func TestCheck_NothingBelowFirstMilestone(t *testing.T) {
	got, err := Check(context.Background(), memory.New(), "owner", time.Now())
	require.NoError(t, err)
	assert.Empty(t, got)
}
