package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/set-night/screenwatch/internal/config"
	"github.com/set-night/screenwatch/internal/domain"
)

// ResponseStore persists inference responses, newest-first, keeping only the
// most recent config.MaxStoredResponses records.
type ResponseStore struct {
	db *pgxpool.Pool
}

func NewResponseStore(db *pgxpool.Pool) *ResponseStore {
	return &ResponseStore{db: db}
}

func (s *ResponseStore) Save(ctx context.Context, r *domain.Response) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO responses
			(id, session_id, created_at, model, prompt, response_text,
			 image_width, image_height, image_bytes, cost, raw)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.ID, r.SessionID, r.Timestamp, r.Model, r.Prompt, r.Text,
		r.ImageSize.Width, r.ImageSize.Height, r.ImageSize.Bytes, r.Cost, r.Raw)
	if err != nil {
		return fmt.Errorf("save response: %w", err)
	}

	// Rolling cap, oldest records go first.
	_, err = s.db.Exec(ctx, `
		DELETE FROM responses WHERE id NOT IN (
			SELECT id FROM responses ORDER BY created_at DESC LIMIT $1
		)`, config.MaxStoredResponses)
	if err != nil {
		return fmt.Errorf("trim responses: %w", err)
	}
	return nil
}

func (s *ResponseStore) List(ctx context.Context, limit, offset int) ([]domain.Response, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, session_id, created_at, model, prompt, response_text,
		       image_width, image_height, image_bytes, cost, raw
		FROM responses
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var responses []domain.Response
	for rows.Next() {
		var r domain.Response
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Timestamp, &r.Model, &r.Prompt,
			&r.Text, &r.ImageSize.Width, &r.ImageSize.Height, &r.ImageSize.Bytes,
			&r.Cost, &r.Raw); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

func (s *ResponseStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM responses`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return count, nil
}
