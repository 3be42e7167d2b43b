package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"garage_door/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// noon UTC, outside the default 23-7 alert window
var testStart = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

type harness struct {
	m       *Monitor
	door    *fakeDoor
	notes   *recordingNotifier
	store   *memoryStore
	clock   *fakeClock
	metrics *Metrics
}

func newHarness(t *testing.T, open bool, store *memoryStore, opts ...func(*MonitorConfig)) *harness {
	t.Helper()
	if store == nil {
		store = &memoryStore{}
	}
	h := &harness{
		door:    &fakeDoor{high: open},
		notes:   &recordingNotifier{},
		store:   store,
		clock:   newFakeClock(testStart),
		metrics: NewMetrics(prometheus.NewRegistry()),
	}
	cfg := MonitorConfig{
		Name:     "test door",
		Location: time.UTC,
		Metrics:  h.metrics,
		Now:      h.clock.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	m, err := NewMonitor(context.Background(), cfg, h.door, h.notes, h.store, NewCommandChannel(2*time.Second), nil)
	require.NoError(t, err)
	h.m = m
	return h
}

func (h *harness) tick() {
	h.m.tick(context.Background(), h.clock.Now())
}

// do submits action and ticks the loop until it has been answered.
func (h *harness) do(t *testing.T, action string) string {
	t.Helper()
	res := submitAsync(context.Background(), h.m.Commands(), models.ParseCommand(action))
	deadline := time.After(2 * time.Second)
	for {
		select {
		case r := <-res:
			require.NoError(t, r.err)
			return r.resp.Text
		case <-deadline:
			t.Fatalf("command %q was not answered", action)
		default:
			h.tick()
			time.Sleep(time.Millisecond)
		}
	}
}

func storedSettings(s models.Settings) *memoryStore {
	return &memoryStore{settings: &s}
}

func TestNewMonitor_StartupFatalOnFirstRead(t *testing.T) {
	t.Parallel()

	door := &fakeDoor{readErr: errReadFailed}
	_, err := NewMonitor(context.Background(), MonitorConfig{}, door, nil, &memoryStore{}, nil, nil)
	require.ErrorIs(t, err, ErrStartupFatal)
	require.Contains(t, err.Error(), errReadFailed.Error())
}

func TestNewMonitor_DefaultsWhenStoreFails(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false, &memoryStore{loadErr: errStoreFailed})

	st := h.m.Status()
	require.Equal(t, models.DefaultSettings(), st.Settings)
	require.Equal(t, models.DoorClosed, st.Snapshot.State)
	require.Equal(t, "test door", st.Name)
	require.Equal(t, "closed,home,false,1,23,7,false,15", h.do(t, "get_state"))
}

func TestNewMonitor_LoadsPersistedSettingsAndTarget(t *testing.T) {
	t.Parallel()

	s := models.DefaultSettings()
	s.Presence = models.PresenceAway
	store := storedSettings(s)
	target := "device-Token-1"
	store.target = &target

	h := newHarness(t, false, store)
	require.Equal(t, s, h.m.Status().Settings)

	h.door.set(true, nil)
	h.tick()
	notes := h.notes.all()
	require.NotEmpty(t, notes)
	require.Equal(t, target, notes[0].Target)
}

func TestMonitor_TransitionSendsPreviousDuration(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false, nil)
	now := h.clock.Advance(90 * time.Second)
	h.door.set(true, nil)
	h.tick()

	data := h.notes.ofKind(models.NotifyData)
	require.Len(t, data, 1)
	require.Equal(t, models.DoorOpen, data[0].State)
	require.Equal(t, 90*time.Second, data[0].Duration)
	require.Equal(t, "1 minute", data[0].DurationTx)
	require.Equal(t, "test door", data[0].DoorName)

	st := h.m.Status()
	require.Equal(t, models.DoorOpen, st.Snapshot.State)
	require.Equal(t, now, st.Snapshot.EnteredAt)
	require.False(t, st.Snapshot.AlertSent)

	// no change, no notification
	h.clock.Advance(time.Second)
	h.tick()
	require.Len(t, h.notes.all(), 1)
}

func TestMonitor_SensorFailureKeepsState(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true, nil)
	before := h.m.Status().Snapshot

	h.clock.Advance(5 * time.Second)
	h.door.set(false, errReadFailed)
	h.tick()

	after := h.m.Status().Snapshot
	require.Equal(t, before.State, after.State)
	require.Equal(t, before.EnteredAt, after.EnteredAt)
	require.Empty(t, h.notes.all())
	require.Equal(t, float64(1), testutil.ToFloat64(h.metrics.sensorFailures))

	h.door.set(false, nil)
	h.tick()
	require.Equal(t, models.DoorClosed, h.m.Status().Snapshot.State)
}

func TestMonitor_ForgottenAlertOncePerEpisode(t *testing.T) {
	t.Parallel()

	s := models.DefaultSettings()
	s.ForgottenEnabled = true
	s.ForgottenMinutes = 15
	h := newHarness(t, true, storedSettings(s))

	h.clock.Advance(15 * time.Minute)
	h.tick()
	require.Empty(t, h.notes.ofKind(models.NotifyAlert))

	h.clock.Advance(time.Second)
	h.tick()
	alerts := h.notes.ofKind(models.NotifyAlert)
	require.Len(t, alerts, 1)
	require.Equal(t, "15 minutes", alerts[0].DurationTx)
	require.True(t, h.m.Status().Snapshot.AlertSent)

	for i := 0; i < 10; i++ {
		h.clock.Advance(time.Minute)
		h.tick()
	}
	require.Len(t, h.notes.ofKind(models.NotifyAlert), 1)

	// closing clears the latch, a new open episode alerts again
	h.door.set(false, nil)
	h.tick()
	require.False(t, h.m.Status().Snapshot.AlertSent)
	h.door.set(true, nil)
	h.tick()
	h.clock.Advance(16 * time.Minute)
	h.tick()
	require.Len(t, h.notes.ofKind(models.NotifyAlert), 2)
	require.Len(t, h.notes.ofKind(models.NotifyData), 2)
}

func TestMonitor_ClosedDoorNeverAlerts(t *testing.T) {
	t.Parallel()

	s := models.DefaultSettings()
	s.Presence = models.PresenceAway
	s.ForgottenEnabled = true
	h := newHarness(t, false, storedSettings(s))

	h.clock.Advance(24 * time.Hour)
	h.tick()
	require.Empty(t, h.notes.all())
	require.False(t, h.m.Status().Snapshot.AlertSent)
}

func TestMonitor_AwayAlertsOnFirstTick(t *testing.T) {
	t.Parallel()

	s := models.DefaultSettings()
	s.Presence = models.PresenceAway
	h := newHarness(t, true, storedSettings(s))

	h.tick()
	alerts := h.notes.ofKind(models.NotifyAlert)
	require.Len(t, alerts, 1)
	require.Equal(t, "0 seconds", alerts[0].DurationTx)
	require.Equal(t, models.DoorOpen, alerts[0].State)

	h.clock.Advance(time.Hour)
	h.tick()
	require.Len(t, h.notes.ofKind(models.NotifyAlert), 1)
}

func TestMonitor_WindowAlertPrecedesAway(t *testing.T) {
	t.Parallel()

	s := models.DefaultSettings()
	s.Presence = models.PresenceAway
	s.WindowAlertEnabled = true
	s.WindowAlertMinutes = 1
	h := newHarness(t, true, storedSettings(s), func(cfg *MonitorConfig) {
		// noon UTC is 02:00 the next day here, inside 23-7
		cfg.Location = time.FixedZone("UTC+14", 14*60*60)
	})

	h.clock.Advance(2 * time.Minute)
	h.tick()

	alerts := h.notes.ofKind(models.NotifyAlert)
	require.Len(t, alerts, 1)
	require.Equal(t, "2 minutes", alerts[0].DurationTx)
}

func TestMonitor_WindowAlertOutsideHours(t *testing.T) {
	t.Parallel()

	s := models.DefaultSettings()
	s.WindowAlertEnabled = true
	h := newHarness(t, true, storedSettings(s))

	h.clock.Advance(30 * time.Minute)
	h.tick()
	require.Empty(t, h.notes.ofKind(models.NotifyAlert))
}

func TestMonitor_DoorCommandsWhileClosed(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false, nil)

	require.Equal(t, models.RespOpening, h.do(t, "trigger"))
	require.Equal(t, 1, h.door.pulseCount())

	// the contact has not moved yet, so the latched state still says closed
	require.Equal(t, models.RespAlreadyClosed, h.do(t, "close"))
	require.Equal(t, models.RespAlreadyClosed, h.do(t, "DOWN"))
	require.Equal(t, 1, h.door.pulseCount())

	require.Equal(t, models.RespOpening, h.do(t, "up"))
	require.Equal(t, 2, h.door.pulseCount())
}

func TestMonitor_DoorCommandsWhileOpen(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true, nil)

	require.Equal(t, models.RespClosing, h.do(t, "trigger"))
	require.Equal(t, models.RespAlreadyOpen, h.do(t, "open"))
	require.Equal(t, models.RespClosing, h.do(t, "clothes"))
	require.Equal(t, 2, h.door.pulseCount())
}

func TestMonitor_RelayFailureStillAnswers(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false, nil)
	h.door.relayErr = errReadFailed

	require.Equal(t, models.RespOpening, h.do(t, "trigger"))
}

func TestMonitor_GetState(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true, nil)
	require.Equal(t, "open,home,false,1,23,7,false,15", h.do(t, "get_state"))
	require.Equal(t, "open,home,false,1,23,7,false,15", h.do(t, "get_status?_=1712345"))
}

func TestMonitor_SetSettingsPersists(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false, nil)

	require.Equal(t, models.RespSettingsSaved, h.do(t, "set_settings away,%20true,5,22,6,true,30"))
	want := models.Settings{
		Presence:           models.PresenceAway,
		WindowAlertEnabled: true,
		WindowAlertMinutes: 5,
		WindowStartHour:    22,
		WindowEndHour:      6,
		ForgottenEnabled:   true,
		ForgottenMinutes:   30,
	}
	require.Equal(t, []models.Settings{want}, h.store.savedSettings())
	require.Equal(t, want, h.m.Status().Settings)
	require.Equal(t, "closed,away,true,5,22,6,true,30", h.do(t, "get_settings"))
}

func TestMonitor_PersistenceFailureAppliesInMemory(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false, &memoryStore{saveErr: errStoreFailed})

	require.Equal(t, models.RespSettingsNotSaved, h.do(t, "set_settings away,false,1,23,7,false,15"))
	require.Equal(t, "closed,away,false,1,23,7,false,15", h.do(t, "get_state"))

	require.Equal(t, models.RespTargetNotSaved, h.do(t, "firebase:Xyz"))
	h.door.set(true, nil)
	h.tick()
	notes := h.notes.all()
	require.NotEmpty(t, notes)
	require.Equal(t, "Xyz", notes[0].Target)

	require.Equal(t, float64(2), testutil.ToFloat64(h.metrics.persistenceFailures))
}

func TestMonitor_SetTarget(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false, nil)

	require.Equal(t, models.RespTargetSaved, h.do(t, "target:AbC-123"))
	require.NotNil(t, h.store.target)
	require.Equal(t, "AbC-123", *h.store.target)
}

func TestMonitor_UnknownCommand(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false, nil)

	require.Equal(t, models.RespUnknownCommand, h.do(t, "dance"))
	require.Equal(t, models.RespUnknownCommand, h.do(t, "set_settings away,true"))
	require.Equal(t, models.RespUnknownCommand, h.do(t, "firebase:"))
	require.Empty(t, h.store.savedSettings())
	require.Equal(t, 0, h.door.pulseCount())
	require.Equal(t, float64(3), testutil.ToFloat64(h.metrics.commands.WithLabelValues(string(models.CommandUnknown))))
}

func TestMonitor_Metrics(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false, nil)
	h.door.set(true, nil)
	h.tick()
	require.Equal(t, float64(1), testutil.ToFloat64(h.metrics.doorOpen))
	h.door.set(false, nil)
	h.tick()
	require.Equal(t, float64(0), testutil.ToFloat64(h.metrics.doorOpen))

	require.Equal(t, float64(2), testutil.ToFloat64(h.metrics.ticks))
	require.Equal(t, float64(1), testutil.ToFloat64(h.metrics.transitions.WithLabelValues("open")))
	require.Equal(t, float64(1), testutil.ToFloat64(h.metrics.transitions.WithLabelValues("closed")))
	require.Equal(t, float64(2), testutil.ToFloat64(h.metrics.notifications.WithLabelValues("data")))
}

func TestMonitor_ConcurrentCommandsRunInOrder(t *testing.T) {
	t.Parallel()

	store := &memoryStore{
		blockSave:   make(chan struct{}),
		saveStarted: make(chan struct{}, 1),
	}
	door := &fakeDoor{}
	m, err := NewMonitor(context.Background(), MonitorConfig{Location: time.UTC}, door, &recordingNotifier{}, store, NewCommandChannel(5*time.Second), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx, 5*time.Millisecond)

	first := submitAsync(ctx, m.Commands(), models.ParseCommand("set_settings away,false,1,23,7,true,20"))
	select {
	case <-store.saveStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("first command never reached the store")
	}

	second := submitAsync(ctx, m.Commands(), models.ParseCommand("get_state"))
	time.Sleep(50 * time.Millisecond)
	select {
	case <-second:
		t.Fatal("second command answered while the first was in flight")
	default:
	}

	close(store.blockSave)

	r1 := <-first
	require.NoError(t, r1.err)
	require.Equal(t, models.RespSettingsSaved, r1.resp.Text)

	r2 := <-second
	require.NoError(t, r2.err)
	require.True(t, strings.HasPrefix(r2.resp.Text, "closed,away,"), r2.resp.Text)
	require.True(t, strings.HasSuffix(r2.resp.Text, ",true,20"), r2.resp.Text)
}

func TestMonitor_RunStopsCommandChannel(t *testing.T) {
	t.Parallel()

	h := newHarness(t, false, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.m.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Equal(t, models.RespOpening, func() string {
		resp, err := h.m.Commands().Submit(context.Background(), models.ParseCommand("open"))
		require.NoError(t, err)
		return resp.Text
	}())

	cancel()
	<-done
	_, err := h.m.Commands().Submit(context.Background(), models.ParseCommand("get_state"))
	require.ErrorIs(t, err, ErrMonitorStopped)
}

func TestNewService(t *testing.T) {
	t.Parallel()

	h := newHarness(t, true, nil)
	svc := NewService(h.m)
	require.Equal(t, models.DoorOpen, svc.Status().Snapshot.State)
	require.Same(t, h.m.Commands(), svc.Commander)
}
