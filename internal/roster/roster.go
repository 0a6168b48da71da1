// Package roster owns each user's student list. Every read goes through a
// snapshot the roster caches per owner; every write goes through Add,
// Update or Delete, which persist the change, drop the snapshot, notify
// the user and publish an Event to subscribers.
package roster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/aanand-mishra/student-roster/internal/achievement"
	"github.com/aanand-mishra/student-roster/internal/blob"
	"github.com/aanand-mishra/student-roster/internal/notify"
	"github.com/aanand-mishra/student-roster/internal/storage"
	"github.com/aanand-mishra/student-roster/internal/types"
)

var (
	// ErrPhotosDisabled is returned when a photo is supplied but no blob
	// store is configured.
	ErrPhotosDisabled = errors.New("roster: photo uploads are not configured")
	// ErrNotImage is returned when an uploaded photo is not an image.
	ErrNotImage = errors.New("roster: photo is not an image")
)

// Photo is an uploaded picture attached to a record.
type Photo struct {
	Filename string
	Data     []byte
}

// EventKind names a mutation.
type EventKind string

const (
	EventAdded   EventKind = "added"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// Event describes a completed mutation. For EventDeleted only
// Student.ID is set.
type Event struct {
	Kind    EventKind
	Owner   string
	Student types.Student
}

// Roster is safe for concurrent use.
type Roster struct {
	store    storage.Storage
	blobs    blob.Store
	notifier notify.Notifier
	log      *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	cache   map[string][]types.Student
	gen     map[string]uint64
	subs    map[int]func(Event)
	nextSub int
}

// Option configures a Roster.
type Option func(*Roster)

// WithBlobs enables photo uploads.
func WithBlobs(b blob.Store) Option {
	return func(r *Roster) { r.blobs = b }
}

// WithNotifier replaces the default in-memory notifier.
func WithNotifier(n notify.Notifier) Option {
	return func(r *Roster) { r.notifier = n }
}

// WithLogger sets the logger used for failed side effects.
func WithLogger(l *slog.Logger) Option {
	return func(r *Roster) { r.log = l }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Roster) { r.now = now }
}

// New returns a Roster over store.
func New(store storage.Storage, opts ...Option) *Roster {
	r := &Roster{
		store: store,
		log:   slog.Default(),
		now:   func() time.Time { return time.Now().UTC() },
		cache: make(map[string][]types.Student),
		gen:   make(map[string]uint64),
		subs:  make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.notifier == nil {
		r.notifier = notify.NewMemory(r.log, 0)
	}
	return r
}

// Subscribe registers fn for every future Event. Call the returned func to
// stop receiving. fn runs on the mutating goroutine and must not block.
func (r *Roster) Subscribe(fn func(Event)) (unsubscribe func()) {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

func (r *Roster) publish(e Event) {
	r.mu.Lock()
	fns := make([]func(Event), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

// invalidate drops owner's snapshot and bumps its generation so a read
// already in flight does not cache the stale list.
func (r *Roster) invalidate(owner string) {
	r.mu.Lock()
	delete(r.cache, owner)
	r.gen[owner]++
	r.mu.Unlock()
}

// Students returns owner's records, newest first. The slice is a copy;
// callers may reorder it freely.
func (r *Roster) Students(ctx context.Context, owner string) ([]types.Student, error) {
	r.mu.Lock()
	cached, ok := r.cache[owner]
	gen := r.gen[owner]
	r.mu.Unlock()
	if ok {
		return slices.Clone(cached), nil
	}

	list, err := r.store.GetStudents(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("roster.Students: %w", err)
	}

	r.mu.Lock()
	if r.gen[owner] == gen {
		r.cache[owner] = list
	}
	r.mu.Unlock()
	return slices.Clone(list), nil
}

// Student returns one record or an error wrapping storage.ErrNotFound.
func (r *Roster) Student(ctx context.Context, owner, id string) (types.Student, error) {
	return r.store.GetStudentByID(ctx, owner, id)
}

// Add creates a record, uploading photo first when given. Milestones are
// checked after the insert; a failure there is logged, not returned.
func (r *Roster) Add(ctx context.Context, owner string, in types.StudentInput, photo *Photo) (types.Student, error) {
	s, err := r.add(ctx, owner, in, photo)
	if err != nil {
		r.fail(ctx, owner, "Error adding student", err)
		return types.Student{}, err
	}

	r.notify(ctx, owner, notify.SeverityInfo, "Student added", s.Name+" was added to the roster.")
	r.checkAchievements(ctx, owner)
	return s, nil
}

func (r *Roster) add(ctx context.Context, owner string, in types.StudentInput, photo *Photo) (types.Student, error) {
	student := in.Student()
	if photo != nil {
		url, err := r.upload(ctx, owner, photo)
		if err != nil {
			return types.Student{}, err
		}
		student.PhotoURL = url
	}

	s, err := r.store.CreateStudent(ctx, owner, student)
	if err != nil {
		return types.Student{}, fmt.Errorf("roster.Add: %w", err)
	}
	r.invalidate(owner)
	r.publish(Event{Kind: EventAdded, Owner: owner, Student: s})
	return s, nil
}

// Update replaces the editable fields of id. Without a new photo or an
// explicit photo URL the current photo is kept.
func (r *Roster) Update(ctx context.Context, owner, id string, in types.StudentInput, photo *Photo) (types.Student, error) {
	s, err := r.update(ctx, owner, id, in, photo)
	if err != nil {
		r.fail(ctx, owner, "Error updating student", err)
		return types.Student{}, err
	}

	r.notify(ctx, owner, notify.SeverityInfo, "Student updated", s.Name+" was updated.")
	return s, nil
}

func (r *Roster) update(ctx context.Context, owner, id string, in types.StudentInput, photo *Photo) (types.Student, error) {
	student := in.Student()
	switch {
	case photo != nil:
		url, err := r.upload(ctx, owner, photo)
		if err != nil {
			return types.Student{}, err
		}
		student.PhotoURL = url
	case student.PhotoURL == "":
		current, err := r.store.GetStudentByID(ctx, owner, id)
		if err != nil {
			return types.Student{}, fmt.Errorf("roster.Update: %w", err)
		}
		student.PhotoURL = current.PhotoURL
	}

	s, err := r.store.UpdateStudentByID(ctx, owner, id, student)
	if err != nil {
		return types.Student{}, fmt.Errorf("roster.Update: %w", err)
	}
	r.invalidate(owner)
	r.publish(Event{Kind: EventUpdated, Owner: owner, Student: s})
	return s, nil
}

// Delete removes id.
func (r *Roster) Delete(ctx context.Context, owner, id string) error {
	if err := r.store.DeleteStudentByID(ctx, owner, id); err != nil {
		err = fmt.Errorf("roster.Delete: %w", err)
		r.fail(ctx, owner, "Error deleting student", err)
		return err
	}
	r.invalidate(owner)
	r.publish(Event{Kind: EventDeleted, Owner: owner, Student: types.Student{ID: id, OwnerID: owner}})
	r.notify(ctx, owner, notify.SeverityInfo, "Student deleted", "The student was removed from the roster.")
	return nil
}

// Achievements returns owner's unlocked milestones, newest first.
func (r *Roster) Achievements(ctx context.Context, owner string) ([]types.Achievement, error) {
	return r.store.GetAchievements(ctx, owner)
}

// Notifications returns up to limit recent notifications, newest first.
func (r *Roster) Notifications(ctx context.Context, owner string, limit int) ([]notify.Notification, error) {
	return r.notifier.Recent(ctx, owner, limit)
}

func (r *Roster) upload(ctx context.Context, owner string, photo *Photo) (string, error) {
	if r.blobs == nil {
		return "", ErrPhotosDisabled
	}

	mt := mimetype.Detect(photo.Data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: %s", ErrNotImage, mt.String())
	}

	name := photo.Filename
	if !strings.Contains(name, ".") {
		name += mt.Extension()
	}
	key := blob.PhotoKey(owner, r.now(), name)

	url, err := r.blobs.Put(ctx, key, bytes.NewReader(photo.Data), int64(len(photo.Data)), mt.String())
	if err != nil {
		return "", fmt.Errorf("roster: upload photo: %w", err)
	}
	return url, nil
}

// checkAchievements upserts reached milestones and notifies about the ones
// the owner did not have before.
func (r *Roster) checkAchievements(ctx context.Context, owner string) {
	before, err := r.store.GetAchievements(ctx, owner)
	if err != nil {
		r.log.ErrorContext(ctx, "achievements: load", slog.String("owner", owner), slog.String("error", err.Error()))
		return
	}
	had := make(map[string]bool, len(before))
	for _, a := range before {
		had[a.Type] = true
	}

	unlocked, err := achievement.Check(ctx, r.store, owner, r.now())
	if err != nil {
		r.log.ErrorContext(ctx, "achievements: check", slog.String("owner", owner), slog.String("error", err.Error()))
	}
	for _, a := range unlocked {
		if had[a.Type] {
			continue
		}
		r.notify(ctx, owner, notify.SeverityInfo, "Achievement unlocked: "+a.Title, a.Icon+" "+a.Description)
	}
}

func (r *Roster) notify(ctx context.Context, owner string, sev notify.Severity, title, desc string) {
	r.notifier.Notify(ctx, notify.Notification{
		Owner:       owner,
		Title:       title,
		Description: desc,
		Severity:    sev,
		At:          r.now(),
	})
}

func (r *Roster) fail(ctx context.Context, owner, title string, err error) {
	r.notify(ctx, owner, notify.SeverityError, title, err.Error())
}
