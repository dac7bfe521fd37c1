package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImageSize describes the processed image a response was produced from.
type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Bytes  int `json:"bytes"`
}

// Response is one completed inference call. Records are append-only and the
// persisted list keeps only the newest MaxStoredResponses.
type Response struct {
	ID        uuid.UUID       `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	SessionID uuid.UUID       `json:"sessionId"`
	Prompt    string          `json:"prompt"`
	ImageSize ImageSize       `json:"imageSize"`
	Text      string          `json:"text"`
	Raw       json.RawMessage `json:"raw,omitempty"`
	Model     string          `json:"model"`
	Cost      decimal.Decimal `json:"cost"`
}
