package roster

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-roster/internal/notify"
	"github.com/aanand-mishra/student-roster/internal/storage"
	"github.com/aanand-mishra/student-roster/internal/storage/memory"
	"github.com/aanand-mishra/student-roster/internal/types"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type fakeBlobs struct {
	mu   sync.Mutex
	keys []string
	ct   []string
	err  error
}

func (f *fakeBlobs) Put(_ context.Context, key string, data io.Reader, size int64, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, _ := io.ReadAll(data)
	if int64(len(b)) != size {
		return "", errors.New("size mismatch")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	f.ct = append(f.ct, contentType)
	return "https://cdn.test/" + key, nil
}

var clock = time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

func newRoster(t *testing.T, opts ...Option) (*Roster, *notify.Memory) {
	t.Helper()
	feed := notify.NewMemory(slog.New(slog.NewTextHandler(io.Discard, nil)), 0)
	base := []Option{
		WithNotifier(feed),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return clock }),
	}
	return New(memory.New(), append(base, opts...)...), feed
}

func input(name string) types.StudentInput {
	return types.StudentInput{
		Name:           name,
		Age:            20,
		Course:         "Computer Science",
		Status:         types.StatusActive,
		EnrollmentDate: "2024-03-01",
	}
}

func TestAdd_NotifiesAndUnlocksFirstStudent(t *testing.T) {
	r, feed := newRoster(t)
	ctx := context.Background()

	s, err := r.Add(ctx, "u1", input(" Ana Souza "), nil)
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", s.Name)

	list, err := r.Achievements(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "first_student", list[0].Type)

	ns, err := feed.Recent(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, ns, 2)
	assert.Equal(t, "Achievement unlocked: First Student", ns[0].Title)
	assert.Equal(t, "Student added", ns[1].Title)

	// A second add does not repeat the unlock notification.
	_, err = r.Add(ctx, "u1", input("Bruno Lima"), nil)
	require.NoError(t, err)
	ns, err = feed.Recent(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, ns, 3)
}

func TestStudents_ReturnsIndependentSnapshots(t *testing.T) {
	r, _ := newRoster(t)
	ctx := context.Background()

	_, err := r.Add(ctx, "u1", input("Ana Souza"), nil)
	require.NoError(t, err)

	first, err := r.Students(ctx, "u1")
	require.NoError(t, err)
	first[0].Name = "mutated"

	second, err := r.Students(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", second[0].Name)

	_, err = r.Add(ctx, "u1", input("Bruno Lima"), nil)
	require.NoError(t, err)
	third, err := r.Students(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, third, 2, "mutation drops the cached snapshot")
}

func TestSubscribe(t *testing.T) {
	r, _ := newRoster(t)
	ctx := context.Background()

	var events []Event
	stop := r.Subscribe(func(e Event) { events = append(events, e) })

	s, err := r.Add(ctx, "u1", input("Ana Souza"), nil)
	require.NoError(t, err)
	_, err = r.Update(ctx, "u1", s.ID, input("Ana S. Souza"), nil)
	require.NoError(t, err)
	require.NoError(t, r.Delete(ctx, "u1", s.ID))

	stop()
	_, err = r.Add(ctx, "u1", input("Late Arrival"), nil)
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, EventAdded, events[0].Kind)
	assert.Equal(t, EventUpdated, events[1].Kind)
	assert.Equal(t, "Ana S. Souza", events[1].Student.Name)
	assert.Equal(t, EventDeleted, events[2].Kind)
	assert.Equal(t, s.ID, events[2].Student.ID)
}

func TestPhotos(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		r, feed := newRoster(t)
		_, err := r.Add(ctx, "u1", input("Ana Souza"), &Photo{Filename: "a.png", Data: pngHeader})
		assert.ErrorIs(t, err, ErrPhotosDisabled)

		ns, _ := feed.Recent(ctx, "u1", 1)
		require.Len(t, ns, 1)
		assert.Equal(t, notify.SeverityError, ns[0].Severity)
	})

	t.Run("not an image", func(t *testing.T) {
		r, _ := newRoster(t, WithBlobs(&fakeBlobs{}))
		_, err := r.Add(ctx, "u1", input("Ana Souza"), &Photo{Filename: "a.png", Data: []byte("hello")})
		assert.ErrorIs(t, err, ErrNotImage)
	})

	t.Run("uploaded under owner key", func(t *testing.T) {
		blobs := &fakeBlobs{}
		r, _ := newRoster(t, WithBlobs(blobs))

		s, err := r.Add(ctx, "u1", input("Ana Souza"), &Photo{Filename: "avatar", Data: pngHeader})
		require.NoError(t, err)

		key := "u1/1749542400000.png"
		assert.Equal(t, []string{key}, blobs.keys)
		assert.Equal(t, []string{"image/png"}, blobs.ct)
		assert.Equal(t, "https://cdn.test/"+key, s.PhotoURL)

		// Update without a photo keeps the current one.
		updated, err := r.Update(ctx, "u1", s.ID, input("Ana S. Souza"), nil)
		require.NoError(t, err)
		assert.Equal(t, s.PhotoURL, updated.PhotoURL)
	})

	t.Run("upload failure stores nothing", func(t *testing.T) {
		r, _ := newRoster(t, WithBlobs(&fakeBlobs{err: errors.New("bucket gone")}))
		_, err := r.Add(ctx, "u1", input("Ana Souza"), &Photo{Filename: "a.png", Data: pngHeader})
		require.Error(t, err)

		list, err := r.Students(ctx, "u1")
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestUpdateDelete_NotFound(t *testing.T) {
	r, _ := newRoster(t)
	ctx := context.Background()

	_, err := r.Update(ctx, "u1", "missing", input("Ana Souza"), nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, "u1", "missing"), storage.ErrNotFound)
}

func TestImport(t *testing.T) {
	r, feed := newRoster(t)
	ctx := context.Background()

	rows := []types.StudentInput{input("Ana Souza"), input("Jo"), input("Bruno Lima")}
	res := r.Import(ctx, "u1", rows, func(in *types.StudentInput) error {
		if len(in.Name) < 3 {
			return errors.New("name too short")
		}
		return nil
	})

	assert.Len(t, res.Imported, 2)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, Skipped{Row: 2, Name: "Jo", Reason: "name too short"}, res.Skipped[0])

	list, err := r.Students(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	ns, err := feed.Recent(ctx, "u1", 0)
	require.NoError(t, err)
	titles := make([]string, len(ns))
	for i, n := range ns {
		titles[i] = n.Title
	}
	assert.Contains(t, titles, "Import finished")
	assert.NotContains(t, titles, "Student added")
}

func TestImport_NothingValid(t *testing.T) {
	r, feed := newRoster(t)
	ctx := context.Background()

	res := r.Import(ctx, "u1", []types.StudentInput{input("x")}, func(*types.StudentInput) error {
		return errors.New("invalid")
	})
	assert.Empty(t, res.Imported)
	assert.Len(t, res.Skipped, 1)

	ns, _ := feed.Recent(ctx, "u1", 1)
	require.Len(t, ns, 1)
	assert.Equal(t, "Import failed", ns[0].Title)
}

func TestImport_CheckNormalisesRow(t *testing.T) {
	r, _ := newRoster(t)
	ctx := context.Background()

	res := r.Import(ctx, "u1", []types.StudentInput{input("ana souza")}, func(in *types.StudentInput) error {
		in.Name = "Ana Souza"
		return nil
	})
	require.Len(t, res.Imported, 1)
	assert.Equal(t, "Ana Souza", res.Imported[0].Name)
}

// gatedStore pauses the first GetStudents after it has read the store,
// until release is closed.
type gatedStore struct {
	storage.Storage
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) GetStudents(ctx context.Context, owner string) ([]types.Student, error) {
	list, err := g.Storage.GetStudents(ctx, owner)
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return list, err
}

func TestStudents_ReadRacingAddDoesNotCacheStaleList(t *testing.T) {
	store := &gatedStore{
		Storage: memory.New(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := New(store,
		WithNotifier(notify.NewMemory(discard, 0)),
		WithLogger(discard),
		WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	done := make(chan []types.Student)
	go func() {
		list, err := r.Students(ctx, "u1")
		assert.NoError(t, err)
		done <- list
	}()

	<-store.entered
	_, err := r.Add(ctx, "u1", input("Ana Souza"), nil)
	require.NoError(t, err)
	close(store.release)
	assert.Empty(t, <-done)

	list, err := r.Students(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
