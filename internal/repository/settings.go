package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/set-night/screenwatch/internal/config"
	"github.com/set-night/screenwatch/internal/domain"
)

const settingsKey = "watcher_settings"

// SettingsStore persists the global settings document in the app_settings
// key-value table.
type SettingsStore struct {
	db *pgxpool.Pool
}

func NewSettingsStore(db *pgxpool.Pool) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the stored settings, or defaults if none were saved yet.
func (s *SettingsStore) Get(ctx context.Context) (*domain.Settings, error) {
	var raw []byte
	err := s.db.QueryRow(ctx,
		`SELECT value FROM app_settings WHERE key = $1`, settingsKey,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		d := DefaultSettings()
		return &d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	var settings domain.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &settings, nil
}

func (s *SettingsStore) Put(ctx context.Context, settings *domain.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO app_settings (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = now()`,
		settingsKey, raw)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func DefaultSettings() domain.Settings {
	return domain.Settings{
		Model:               config.DefaultModel,
		IntervalSeconds:     config.DefaultIntervalSeconds,
		EnableNotifications: true,
		AutoBackoff:         true,
	}
}
