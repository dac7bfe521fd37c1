package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/set-night/screenwatch/internal/config"
)

// LogEntry is one row of the rolling debug log.
type LogEntry struct {
	ID        int64          `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// DebugLogStore keeps the most recent config.MaxStoredDebugLogs log records.
type DebugLogStore struct {
	db *pgxpool.Pool
}

func NewDebugLogStore(db *pgxpool.Pool) *DebugLogStore {
	return &DebugLogStore{db: db}
}

func (s *DebugLogStore) Append(ctx context.Context, level, message string, attrs map[string]any) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO debug_logs (level, message, attrs) VALUES ($1, $2, $3)`,
		level, message, attrs)
	if err != nil {
		return fmt.Errorf("append debug log: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		DELETE FROM debug_logs WHERE id NOT IN (
			SELECT id FROM debug_logs ORDER BY id DESC LIMIT $1
		)`, config.MaxStoredDebugLogs)
	if err != nil {
		return fmt.Errorf("trim debug log: %w", err)
	}
	return nil
}

func (s *DebugLogStore) Recent(ctx context.Context, limit int) ([]LogEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, created_at, level, message, attrs
		FROM debug_logs
		ORDER BY id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list debug logs: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Level, &e.Message, &e.Attrs); err != nil {
			return nil, fmt.Errorf("scan debug log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
