package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"garage_door/internal/logger"
	"garage_door/internal/models"
	"garage_door/internal/repository"
)

const (
	// DefaultTick is the polling period of the monitor loop.
	DefaultTick = 1 * time.Second
	// DefaultDoorName is used in notifications when none is configured.
	DefaultDoorName = "garage door"
)

// MonitorConfig carries the optional knobs of a Monitor.
type MonitorConfig struct {
	Name     string
	Location *time.Location   // hour-of-day for the alert window; time.Local if nil
	Metrics  *Metrics         // optional
	Now      func() time.Time // clock, time.Now if nil
}

// Monitor is the only writer of the door snapshot and the settings. Both are
// touched exclusively from the loop goroutine (Run), so they need no lock;
// commands reach the loop through the CommandChannel.
type Monitor struct {
	name     string
	door     Door
	notifier Notifier
	store    repository.SettingsStore
	commands *CommandChannel
	log      *logger.Logger
	metrics  *Metrics
	loc      *time.Location
	now      func() time.Time

	snapshot models.Snapshot
	settings models.Settings
	target   string

	status atomic.Pointer[models.Status]
}

// NewMonitor loads settings and target from the store (defaults on failure)
// and takes the first door reading. A door that cannot be read at startup
// yields an error wrapping ErrStartupFatal.
func NewMonitor(
	ctx context.Context,
	cfg MonitorConfig,
	door Door,
	notifier Notifier,
	store repository.SettingsStore,
	commands *CommandChannel,
	log *logger.Logger,
) (*Monitor, error) {
	if door == nil {
		return nil, fmt.Errorf("%w: no door controller", ErrStartupFatal)
	}
	if log == nil {
		log = logger.Nop()
	}
	m := &Monitor{
		name:     cfg.Name,
		door:     door,
		notifier: notifier,
		store:    store,
		commands: commands,
		log:      log,
		metrics:  cfg.Metrics,
		loc:      cfg.Location,
		now:      cfg.Now,
	}
	if m.name == "" {
		m.name = DefaultDoorName
	}
	if m.loc == nil {
		m.loc = time.Local
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.commands == nil {
		m.commands = NewCommandChannel(DefaultCommandTimeout)
	}

	m.settings = m.loadSettings(ctx)
	m.target = m.loadTarget(ctx)

	high, err := door.ReadContact()
	if err != nil {
		return nil, fmt.Errorf("%w: initial door read: %v", ErrStartupFatal, err)
	}
	now := m.now()
	m.snapshot = models.Snapshot{
		State:     models.DoorStateFromContact(high),
		EnteredAt: now,
	}
	m.publishStatus(now)

	m.log.Infow("monitor_initialized",
		"name", m.name,
		"state", m.snapshot.State,
		"presence", m.settings.Presence,
		"has_target", m.target != "",
	)
	return m, nil
}

func (m *Monitor) loadSettings(ctx context.Context) models.Settings {
	if m.store == nil {
		return models.DefaultSettings()
	}
	s, err := m.store.LoadSettings(ctx)
	switch {
	case err == nil:
		return s
	case errors.Is(err, repository.ErrNotFound):
		m.log.Infow("settings_not_found_using_defaults")
	default:
		m.log.Errorw("settings_load_failed_using_defaults", "err", err)
	}
	return models.DefaultSettings()
}

func (m *Monitor) loadTarget(ctx context.Context) string {
	if m.store == nil {
		return ""
	}
	target, err := m.store.LoadTarget(ctx)
	switch {
	case err == nil:
		return target
	case errors.Is(err, repository.ErrNotFound):
		m.log.Infow("notifier_target_not_set")
	default:
		m.log.Errorw("notifier_target_load_failed", "err", err)
	}
	return ""
}

// Commands returns the channel this monitor serves.
func (m *Monitor) Commands() *CommandChannel {
	return m.commands
}

// Status returns the copy published at the end of the last tick.
func (m *Monitor) Status() models.Status {
	if st := m.status.Load(); st != nil {
		return *st
	}
	return models.Status{}
}

// Run ticks at the given interval until ctx is canceled. Pending and future
// submitters are released with ErrMonitorStopped when it returns.
func (m *Monitor) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = DefaultTick
	}
	defer m.commands.Close()

	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			m.log.Infow("monitor_stopped")
			return
		case <-t.C:
			m.tick(ctx, m.now())
		}
	}
}

// tick is one loop iteration.
func (m *Monitor) tick(ctx context.Context, now time.Time) {
	m.observe(ctx, now)
	m.evaluateAlerts(ctx, now)
	m.serveCommand(ctx)
	m.metrics.tick(m.snapshot.State)
	m.publishStatus(m.now())
}

// observe reads the contact and resets the snapshot on a state change.
func (m *Monitor) observe(ctx context.Context, now time.Time) {
	high, err := m.door.ReadContact()
	if err != nil {
		m.metrics.sensorFailure()
		m.log.Errorw("sensor_read_failed", "err", fmt.Errorf("%w: %v", ErrSensorRead, err), "kept_state", m.snapshot.State)
		return
	}
	newState := models.DoorStateFromContact(high)
	if newState == m.snapshot.State {
		return
	}

	previous := now.Sub(m.snapshot.EnteredAt)
	m.log.Infow("door_state_changed", "from", m.snapshot.State, "to", newState, "after", FormatDuration(previous))
	m.notify(ctx, newState, previous, models.NotifyData, now)

	m.snapshot = models.Snapshot{
		State:     newState,
		EnteredAt: now,
		AlertSent: false,
	}
	m.metrics.transition(newState)
}

// evaluateAlerts fires at most one alert per open episode: the scheduled or
// forgotten-open check first, then the away check, both behind the same latch.
func (m *Monitor) evaluateAlerts(ctx context.Context, now time.Time) {
	if m.snapshot.State != models.DoorOpen || m.snapshot.AlertSent {
		return
	}
	elapsed := now.Sub(m.snapshot.EnteredAt)

	if ShouldAlert(m.settings, elapsed, now.In(m.loc).Hour()) {
		m.notify(ctx, models.DoorOpen, elapsed, models.NotifyAlert, now)
		m.snapshot.AlertSent = true
		return
	}

	if m.settings.Presence == models.PresenceAway {
		m.notify(ctx, models.DoorOpen, 0, models.NotifyAlert, now)
		m.snapshot.AlertSent = true
	}
}

func (m *Monitor) notify(ctx context.Context, state models.DoorState, d time.Duration, kind models.NotificationKind, now time.Time) {
	m.metrics.notification(kind)
	if m.notifier == nil {
		return
	}
	m.notifier.Notify(ctx, models.Notification{
		DoorName:   m.name,
		State:      state,
		Duration:   d,
		DurationTx: FormatDuration(d),
		Kind:       kind,
		Target:     m.target,
		OccurredAt: now,
	})
}

// serveCommand executes at most one pending command.
func (m *Monitor) serveCommand(ctx context.Context) {
	req, ok := m.commands.poll()
	if !ok {
		return
	}
	resp := m.execute(ctx, req.cmd)
	req.reply <- resp
	m.metrics.command(req.cmd.Kind)
	m.log.Infow("command_handled", "request_id", req.id, "received", req.cmd.Raw, "kind", req.cmd.Kind, "responded", resp.Text)
}

// execute answers from the latched snapshot, never from the effect of the
// relay pulse it may have just issued.
func (m *Monitor) execute(ctx context.Context, cmd models.Command) models.Response {
	open := m.snapshot.State == models.DoorOpen

	switch cmd.Kind {
	case models.CommandTrigger:
		text := models.RespOpening
		if open {
			text = models.RespClosing
		}
		m.pulse(cmd)
		return models.Response{Text: text}

	case models.CommandOpen:
		if open {
			return models.Response{Text: models.RespAlreadyOpen}
		}
		m.pulse(cmd)
		return models.Response{Text: models.RespOpening}

	case models.CommandClose:
		if !open {
			return models.Response{Text: models.RespAlreadyClosed}
		}
		m.pulse(cmd)
		return models.Response{Text: models.RespClosing}

	case models.CommandGetState:
		return models.Response{Text: string(m.snapshot.State) + "," + m.settings.CSV()}

	case models.CommandSetSettings:
		m.settings = cmd.Settings
		if m.store != nil {
			if err := m.store.SaveSettings(ctx, cmd.Settings); err != nil {
				m.metrics.persistenceFailure()
				m.log.Errorw("settings_save_failed", "err", fmt.Errorf("%w: %v", ErrPersistence, err), "received", cmd.Raw)
				return models.Response{Text: models.RespSettingsNotSaved}
			}
		}
		return models.Response{Text: models.RespSettingsSaved}

	case models.CommandSetTarget:
		m.target = cmd.Target
		if m.store != nil {
			if err := m.store.SaveTarget(ctx, cmd.Target); err != nil {
				m.metrics.persistenceFailure()
				m.log.Errorw("target_save_failed", "err", fmt.Errorf("%w: %v", ErrPersistence, err))
				return models.Response{Text: models.RespTargetNotSaved}
			}
		}
		return models.Response{Text: models.RespTargetSaved}

	default:
		m.log.Warnw("unknown_command", "received", cmd.Raw, "err", cmd.Err)
		return models.Response{Text: models.RespUnknownCommand}
	}
}

func (m *Monitor) pulse(cmd models.Command) {
	if err := m.door.TriggerRelay(); err != nil {
		m.log.Errorw("relay_trigger_failed", "err", err, "received", cmd.Raw)
	}
}

func (m *Monitor) publishStatus(now time.Time) {
	m.status.Store(&models.Status{
		Name:      m.name,
		Snapshot:  m.snapshot,
		Settings:  m.settings,
		InState:   now.Sub(m.snapshot.EnteredAt),
		UpdatedAt: now,
	})
}
