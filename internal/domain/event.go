package domain

import "time"

// EventName identifies a broadcast topic. The broadcaster keeps the most
// recent event per name so a late-attaching observer can catch up.
type EventName string

const (
	EventStatus             EventName = "status"
	EventAreaSelected       EventName = "area_selected"
	EventCaptureComplete    EventName = "capture_complete"
	EventAnalyzeComplete    EventName = "analyze_complete"
	EventSessionUpdate      EventName = "session_update"
	EventSessionListUpdated EventName = "session_list_updated"
	EventRateLimitHit       EventName = "rate_limit_hit"
	EventHistoryUpdated     EventName = "history_updated"
)

type Event struct {
	Name      EventName `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

type StatusType string

const (
	StatusTypeIdle       StatusType = "idle"
	StatusTypeActive     StatusType = "active"
	StatusTypeProcessing StatusType = "processing"
	StatusTypeWarning    StatusType = "warning"
	StatusTypeError      StatusType = "error"
)

// StatusInfo is the user-visible state line. Every failure updates it; only
// fatal failures flip it to error with a stopped session.
type StatusInfo struct {
	Type    StatusType `json:"type"`
	Message string     `json:"message"`
}

// Capture is the most recent processed frame, shared with observers.
type Capture struct {
	// DataURL is the JPEG frame as a base64 data URL.
	DataURL    string    `json:"dataUrl"`
	Timestamp  time.Time `json:"timestamp"`
	IsFallback bool      `json:"isFallback,omitempty"`
}
