package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_RecentIsNewestFirstAndCapped(t *testing.T) {
	m := NewMemory(slog.New(slog.NewTextHandler(io.Discard, nil)), 3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		m.Notify(ctx, Notification{Owner: "a", Title: fmt.Sprintf("n%d", i)})
	}
	m.Notify(ctx, Notification{Owner: "b", Title: "other", Severity: SeverityError})

	got, err := m.Recent(ctx, "a", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "n5", got[0].Title)
	assert.Equal(t, "n3", got[2].Title)
	assert.False(t, got[0].At.IsZero())

	got, err = m.Recent(ctx, "a", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = m.Recent(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
