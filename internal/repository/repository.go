package repository

import (
	"context"
	"database/sql"
	"errors"

	"garage_door/internal/models"
)

// ErrNotFound is returned when nothing has been persisted yet.
var ErrNotFound = errors.New("not found")

// SettingsStore persists the alert settings and the notifier target.
type SettingsStore interface {
	LoadSettings(ctx context.Context) (models.Settings, error)
	SaveSettings(ctx context.Context, s models.Settings) error
	LoadTarget(ctx context.Context) (string, error)
	SaveTarget(ctx context.Context, target string) error
}

type Repository struct {
	Settings SettingsStore
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Settings: NewSettingsSQLite(db),
	}
}

// NewFileRepository keeps everything in a single YAML document at path.
func NewFileRepository(path string) *Repository {
	return &Repository{
		Settings: NewSettingsYAML(path),
	}
}
