// Package notify delivers transient, fire-and-forget messages to a user:
// "student added", "import failed" and the like. A failed delivery is
// logged and otherwise ignored.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Severity of a notification.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

// Notification is a single message for one owner.
type Notification struct {
	Owner       string    `json:"-"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	At          time.Time `json:"at"`
}

// Notifier sends notifications and exposes the recent ones per owner.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
	Recent(ctx context.Context, owner string, limit int) ([]Notification, error)
}

// DefaultKeep is how many notifications are retained per owner.
const DefaultKeep = 50

// Memory keeps the last Keep notifications per owner in process and logs
// each one.
type Memory struct {
	mu   sync.Mutex
	keep int
	log  *slog.Logger
	byID map[string][]Notification
}

var _ Notifier = (*Memory)(nil)

// NewMemory returns a Memory notifier. keep <= 0 uses DefaultKeep.
func NewMemory(log *slog.Logger, keep int) *Memory {
	if keep <= 0 {
		keep = DefaultKeep
	}
	if log == nil {
		log = slog.Default()
	}
	return &Memory{keep: keep, log: log, byID: make(map[string][]Notification)}
}

func (m *Memory) Notify(ctx context.Context, n Notification) {
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}
	logNotification(ctx, m.log, n)

	m.mu.Lock()
	defer m.mu.Unlock()
	list := append(m.byID[n.Owner], n)
	if len(list) > m.keep {
		list = list[len(list)-m.keep:]
	}
	m.byID[n.Owner] = list
}

// Recent returns up to limit notifications, newest first.
func (m *Memory) Recent(_ context.Context, owner string, limit int) ([]Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.byID[owner]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	out := make([]Notification, 0, limit)
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

func logNotification(ctx context.Context, log *slog.Logger, n Notification) {
	level := slog.LevelInfo
	if n.Severity == SeverityError {
		level = slog.LevelWarn
	}
	log.Log(ctx, level, "notification",
		slog.String("owner", n.Owner),
		slog.String("title", n.Title),
		slog.String("description", n.Description),
	)
}
