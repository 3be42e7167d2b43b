package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"garage_door/internal/models"

	"gopkg.in/yaml.v3"
)

// yamlFilePermissions restricts the settings file to its owner.
const yamlFilePermissions = 0o600

// settingsDocument is the on-disk layout of the YAML store.
type settingsDocument struct {
	Settings *models.Settings `yaml:"settings,omitempty"`
	Target   *string          `yaml:"notifier_target,omitempty"`
}

// SettingsYAML keeps settings and target in one YAML file.
type SettingsYAML struct {
	path string
	mu   sync.Mutex
}

// Ensure implementation of SettingsStore interface at compile time.
var _ SettingsStore = (*SettingsYAML)(nil)

func NewSettingsYAML(path string) *SettingsYAML {
	return &SettingsYAML{path: filepath.Clean(path)}
}

func (r *SettingsYAML) LoadSettings(_ context.Context) (models.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		return models.Settings{}, err
	}
	if doc.Settings == nil {
		return models.Settings{}, ErrNotFound
	}
	if err := doc.Settings.Validate(); err != nil {
		return models.Settings{}, fmt.Errorf("stored settings: %w", err)
	}
	return *doc.Settings, nil
}

func (r *SettingsYAML) SaveSettings(_ context.Context, s models.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.readOrEmpty()
	if err != nil {
		return err
	}
	doc.Settings = &s
	return r.write(doc)
}

func (r *SettingsYAML) LoadTarget(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		return "", err
	}
	if doc.Target == nil {
		return "", ErrNotFound
	}
	return *doc.Target, nil
}

func (r *SettingsYAML) SaveTarget(_ context.Context, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.readOrEmpty()
	if err != nil {
		return err
	}
	doc.Target = &target
	return r.write(doc)
}

func (r *SettingsYAML) read() (settingsDocument, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settingsDocument{}, ErrNotFound
		}
		return settingsDocument{}, fmt.Errorf("read settings file: %w", err)
	}

	var doc settingsDocument
	if err := yaml.Unmarshal(contents, &doc); err != nil {
		return settingsDocument{}, fmt.Errorf("decode settings file: %w", err)
	}
	return doc, nil
}

// readOrEmpty lets the first save create the file.
func (r *SettingsYAML) readOrEmpty() (settingsDocument, error) {
	doc, err := r.read()
	if errors.Is(err, ErrNotFound) {
		return settingsDocument{}, nil
	}
	return doc, err
}

// write replaces the file atomically via a temp file and rename.
func (r *SettingsYAML) write(doc settingsDocument) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, yamlFilePermissions); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}
