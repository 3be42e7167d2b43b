package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"garage_door/internal/models"
)

type SettingsSQLite struct {
	db *sql.DB
}

func NewSettingsSQLite(db *sql.DB) *SettingsSQLite {
	return &SettingsSQLite{db: db}
}

// Ensure implementation of SettingsStore interface at compile time.
var _ SettingsStore = (*SettingsSQLite)(nil)

// single-row tables
const (
	settingsRowID = 1
	targetRowID   = 1

	upsertSettingsSQL = `
		INSERT INTO door_settings (id, home_away, alert_open_notify, alert_open_minutes, alert_open_start,
			alert_open_end, forgot_open_notify, forgot_open_minutes, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			home_away=excluded.home_away,
			alert_open_notify=excluded.alert_open_notify,
			alert_open_minutes=excluded.alert_open_minutes,
			alert_open_start=excluded.alert_open_start,
			alert_open_end=excluded.alert_open_end,
			forgot_open_notify=excluded.forgot_open_notify,
			forgot_open_minutes=excluded.forgot_open_minutes,
			updated_at=excluded.updated_at
	`

	selectSettingsSQL = `
		SELECT home_away, alert_open_notify, alert_open_minutes, alert_open_start,
			alert_open_end, forgot_open_notify, forgot_open_minutes
		FROM door_settings WHERE id=?
	`

	upsertTargetSQL = `
		INSERT INTO notifier_target (id, target, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			target=excluded.target,
			updated_at=excluded.updated_at
	`

	selectTargetSQL = `SELECT target FROM notifier_target WHERE id=?`
)

// SaveSettings updates or inserts the door_settings row (id always 1).
func (r *SettingsSQLite) SaveSettings(ctx context.Context, s models.Settings) error {
	_, err := r.db.ExecContext(ctx, upsertSettingsSQL,
		settingsRowID,
		string(s.Presence),
		s.WindowAlertEnabled,
		int64(s.WindowAlertMinutes),
		int64(s.WindowStartHour),
		int64(s.WindowEndHour),
		s.ForgottenEnabled,
		int64(s.ForgottenMinutes),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

// LoadSettings fetches the door_settings row. Returns ErrNotFound if it was never saved.
func (r *SettingsSQLite) LoadSettings(ctx context.Context) (models.Settings, error) {
	row := r.db.QueryRowContext(ctx, selectSettingsSQL, settingsRowID)

	var (
		s        models.Settings
		presence string
	)
	if err := row.Scan(
		&presence,
		&s.WindowAlertEnabled,
		&s.WindowAlertMinutes,
		&s.WindowStartHour,
		&s.WindowEndHour,
		&s.ForgottenEnabled,
		&s.ForgottenMinutes,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Settings{}, ErrNotFound
		}
		return models.Settings{}, fmt.Errorf("select settings: %w", err)
	}
	s.Presence = models.PresenceMode(presence)

	if err := s.Validate(); err != nil {
		return models.Settings{}, fmt.Errorf("stored settings: %w", err)
	}
	return s, nil
}

// SaveTarget updates or inserts the notifier_target row.
func (r *SettingsSQLite) SaveTarget(ctx context.Context, target string) error {
	if _, err := r.db.ExecContext(ctx, upsertTargetSQL, targetRowID, target, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert notifier target: %w", err)
	}
	return nil
}

// LoadTarget fetches the notifier target. Returns ErrNotFound if it was never saved.
func (r *SettingsSQLite) LoadTarget(ctx context.Context) (string, error) {
	var target string
	if err := r.db.QueryRowContext(ctx, selectTargetSQL, targetRowID).Scan(&target); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("select notifier target: %w", err)
	}
	return target, nil
}
