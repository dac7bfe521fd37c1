package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusPaused    SessionStatus = "paused"
	StatusCompleted SessionStatus = "completed"
)

// Area is a capture rectangle in logical pixels. Scale is the device pixel
// ratio of the surface the area was selected on; physical pixel coordinates
// are logical ones multiplied by Scale.
type Area struct {
	Left   int     `json:"left"`
	Top    int     `json:"top"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Scale  float64 `json:"scale"`
}

func (a Area) Valid() bool {
	return a.Width > 0 && a.Height > 0
}

func (a Area) String() string {
	return fmt.Sprintf("%dx%d@%d,%d (scale %.2f)", a.Width, a.Height, a.Left, a.Top, a.Scale)
}

// SessionSettings is the snapshot of global settings taken when a session
// starts. A running session only ever reads from this snapshot; global
// settings changed mid-session do not leak in.
type SessionSettings struct {
	IntervalSeconds  int    `json:"intervalSeconds"`
	Model            string `json:"model"`
	Prompt           string `json:"prompt"`
	ConversationMode bool   `json:"conversationMode"`
	Notifications    bool   `json:"notifications"`
	AutoBackoff      bool   `json:"autoBackoff"`
}

func (s SessionSettings) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

// MaxHistoryEntries caps conversation history at the most recent 10
// exchanges (each exchange is a "User:" entry plus an "AI:" entry).
const MaxHistoryEntries = 20

// Session is the single live monitoring session. The monitor service is its
// sole writer; everyone else gets deep copies via Clone.
type Session struct {
	ID                   uuid.UUID       `json:"id"`
	Status               SessionStatus   `json:"status"`
	StartTime            time.Time       `json:"startTime"`
	EndTime              *time.Time      `json:"endTime,omitempty"`
	PauseTime            *time.Time      `json:"pauseTime,omitempty"`
	ResumeTime           *time.Time      `json:"resumeTime,omitempty"`
	DurationSeconds      int64           `json:"durationSeconds"`
	CaptureCount         int             `json:"captureCount"`
	APICallCount         int             `json:"apiCallCount"`
	RateLimitCount       int             `json:"rateLimitCount"`
	LastCaptureTime      *time.Time      `json:"lastCaptureTime,omitempty"`
	NextScheduledCapture *time.Time      `json:"nextScheduledCapture,omitempty"`
	Display              int             `json:"display"`
	SelectedArea         *Area           `json:"selectedArea,omitempty"`
	Settings             SessionSettings `json:"settings"`
	ConversationHistory  []string        `json:"conversationHistory,omitempty"`
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.EndTime = cloneTime(s.EndTime)
	c.PauseTime = cloneTime(s.PauseTime)
	c.ResumeTime = cloneTime(s.ResumeTime)
	c.LastCaptureTime = cloneTime(s.LastCaptureTime)
	c.NextScheduledCapture = cloneTime(s.NextScheduledCapture)
	if s.SelectedArea != nil {
		a := *s.SelectedArea
		c.SelectedArea = &a
	}
	if s.ConversationHistory != nil {
		c.ConversationHistory = append([]string(nil), s.ConversationHistory...)
	}
	return &c
}

// AppendExchange records one prompt/response pair and trims the history to
// the most recent MaxHistoryEntries entries.
func (s *Session) AppendExchange(prompt, answer string) {
	s.ConversationHistory = append(s.ConversationHistory,
		"User: "+prompt,
		"AI: "+answer,
	)
	if n := len(s.ConversationHistory); n > MaxHistoryEntries {
		trimmed := make([]string, MaxHistoryEntries)
		copy(trimmed, s.ConversationHistory[n-MaxHistoryEntries:])
		s.ConversationHistory = trimmed
	}
}

// DurationAt returns the session's lifetime at the given instant, excluding
// the completed pause span if the session was paused and resumed.
func (s *Session) DurationAt(now time.Time) time.Duration {
	end := now
	if s.EndTime != nil {
		end = *s.EndTime
	}
	d := end.Sub(s.StartTime)
	if s.PauseTime != nil && s.ResumeTime != nil {
		d -= s.ResumeTime.Sub(*s.PauseTime)
	}
	if d < 0 {
		return 0
	}
	return d
}

// Live reports whether the session still occupies the current-session slot.
func (s *Session) Live() bool {
	return s != nil && s.Status != StatusCompleted
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
