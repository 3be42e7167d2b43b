package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"garage_door/internal/models"
	"garage_door/internal/repository"
)

var (
	errReadFailed  = errors.New("i/o controller unreachable")
	errStoreFailed = errors.New("read-only file system")
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
	return c.t
}

// fakeDoor returns a scripted contact level and counts relay pulses.
type fakeDoor struct {
	mu       sync.Mutex
	high     bool
	readErr  error
	relayErr error
	pulses   int
	// when set, TriggerRelay signals started and waits for release
	started chan struct{}
	release chan struct{}
}

func (d *fakeDoor) ReadContact() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.high, d.readErr
}

func (d *fakeDoor) TriggerRelay() error {
	d.mu.Lock()
	d.pulses++
	started, release, err := d.started, d.release, d.relayErr
	d.mu.Unlock()
	if started != nil {
		started <- struct{}{}
		<-release
	}
	return err
}

func (d *fakeDoor) set(high bool, readErr error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.high, d.readErr = high, readErr
}

func (d *fakeDoor) pulseCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pulses
}

// recordingNotifier keeps every notification it is given.
type recordingNotifier struct {
	mu  sync.Mutex
	got []models.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, note models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, note)
}

func (n *recordingNotifier) all() []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.Notification(nil), n.got...)
}

func (n *recordingNotifier) ofKind(kind models.NotificationKind) []models.Notification {
	var out []models.Notification
	for _, note := range n.all() {
		if note.Kind == kind {
			out = append(out, note)
		}
	}
	return out
}

// memoryStore is an in-memory repository.SettingsStore.
type memoryStore struct {
	mu        sync.Mutex
	settings  *models.Settings
	target    *string
	loadErr   error
	saveErr   error
	saves     []models.Settings
	// when blockSave is set, SaveSettings signals saveStarted and waits on it
	blockSave   chan struct{}
	saveStarted chan struct{}
}

var _ repository.SettingsStore = (*memoryStore)(nil)

func (s *memoryStore) LoadSettings(context.Context) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return models.Settings{}, s.loadErr
	}
	if s.settings == nil {
		return models.Settings{}, repository.ErrNotFound
	}
	return *s.settings, nil
}

func (s *memoryStore) SaveSettings(_ context.Context, st models.Settings) error {
	s.mu.Lock()
	block, started := s.blockSave, s.saveStarted
	s.mu.Unlock()
	if block != nil {
		if started != nil {
			started <- struct{}{}
		}
		<-block
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves = append(s.saves, st)
	s.settings = &st
	return nil
}

func (s *memoryStore) LoadTarget(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return "", s.loadErr
	}
	if s.target == nil {
		return "", repository.ErrNotFound
	}
	return *s.target, nil
}

func (s *memoryStore) SaveTarget(_ context.Context, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.target = &target
	return nil
}

func (s *memoryStore) savedSettings() []models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Settings(nil), s.saves...)
}
