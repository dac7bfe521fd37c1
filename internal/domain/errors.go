package domain

import "errors"

var (
	ErrSessionExists   = errors.New("a session is already active or paused")
	ErrNoSession       = errors.New("no current session")
	ErrNoActiveSession = errors.New("no active session")
	ErrNoPausedSession = errors.New("no paused session to resume")
	ErrMissingPrompt   = errors.New("monitor prompt is required")
	ErrMissingAPIKey   = errors.New("api key is not configured")
	ErrInvalidArea     = errors.New("invalid selection area")
	ErrTargetGone      = errors.New("capture target no longer exists")
	ErrNoDisplay       = errors.New("no capture surface available")
	ErrNotFound        = errors.New("not found")
)
