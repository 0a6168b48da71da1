// Package achievement unlocks milestones as an owner's roster grows.
package achievement

import (
	"context"
	"fmt"
	"time"

	"github.com/aanand-mishra/student-roster/internal/types"
)

// Milestone is an achievement reached at a record count.
type Milestone struct {
	Count       int
	Type        string
	Title       string
	Description string
	Icon        string
}

// Milestones, in ascending Count order.
var Milestones = []Milestone{
	{Count: 1, Type: "first_student", Title: "First Student", Description: "You added your first student!", Icon: "🎉"},
	{Count: 10, Type: "ten_students", Title: "Growing Class", Description: "You reached 10 students!", Icon: "🏆"},
	{Count: 50, Type: "fifty_students", Title: "Full House", Description: "You reached 50 students!", Icon: "🌟"},
	{Count: 100, Type: "hundred_students", Title: "Centurion", Description: "You reached 100 students!", Icon: "💯"},
}

// Reached returns the milestones unlocked by count.
func Reached(count int) []Milestone {
	var out []Milestone
	for _, m := range Milestones {
		if count >= m.Count {
			out = append(out, m)
		}
	}
	return out
}

// Store is the subset of storage.Storage that Check needs.
type Store interface {
	CountStudents(ctx context.Context, owner string) (int, error)
	UpsertAchievement(ctx context.Context, a types.Achievement) (types.Achievement, error)
}

// Check counts owner's records and upserts every reached milestone.
// Repeated calls at the same count leave one row per milestone.
func Check(ctx context.Context, store Store, owner string, now time.Time) ([]types.Achievement, error) {
	count, err := store.CountStudents(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("achievement.Check: count: %w", err)
	}

	reached := Reached(count)
	out := make([]types.Achievement, 0, len(reached))
	for _, m := range reached {
		a, err := store.UpsertAchievement(ctx, types.Achievement{
			OwnerID:     owner,
			Type:        m.Type,
			Title:       m.Title,
			Description: m.Description,
			Icon:        m.Icon,
			UnlockedAt:  now,
		})
		if err != nil {
			return out, fmt.Errorf("achievement.Check: %s: %w", m.Type, err)
		}
		out = append(out, a)
	}
	return out, nil
}
