package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/screenwatch/internal/config"
	"github.com/set-night/screenwatch/internal/domain"
)

// Analyzer is the inference boundary, satisfied by OpenRouterClient.
type Analyzer interface {
	Analyze(ctx context.Context, modelID, prompt, imageDataURL, apiKey string) (*Analysis, error)
}

// SessionSink persists session snapshots.
type SessionSink interface {
	Save(ctx context.Context, session *domain.Session) error
}

// ResponseSink persists inference responses.
type ResponseSink interface {
	Save(ctx context.Context, response *domain.Response) error
}

// SettingsSource supplies the global settings a new session snapshots.
type SettingsSource interface {
	Get(ctx context.Context) (*domain.Settings, error)
}

// Monitor owns the single live session and drives the capture cycle:
// capture, crop, infer, persist, reschedule. At most one cycle is in flight
// at any time, guarded by the busy flag; the schedule is a single one-shot
// timer that is re-armed explicitly on every cycle's exit path, so cycles
// can neither stack nor silently stop.
//
// The guard records which session's cycle holds it. A cycle still draining
// after its session was stopped keeps the guard until its terminal step, and
// every mutation it makes past that point is conditional on its session
// still being current, so a replacement session never sees writes from its
// predecessor's cycle.
type Monitor struct {
	ctx       context.Context
	source    Source
	crops     *CropChain
	client    Analyzer
	sessions  SessionSink
	responses ResponseSink
	settings  SettingsSource
	events    *Broadcaster
	notifier  *Notifier
	cfgAPIKey string

	saveCh chan *domain.Session

	mu           sync.Mutex
	current      *domain.Session
	apiKey       string // credential snapshot for the live session, never persisted
	busy         bool
	busyID       uuid.UUID // session whose cycle holds the guard
	timer        *time.Timer
	status       domain.StatusInfo
	lastCapture  *domain.Capture
	selectedArea *domain.Area
}

// MonitorDeps contains everything a Monitor needs.
type MonitorDeps struct {
	Source    Source
	Crops     *CropChain
	Client    Analyzer
	Sessions  SessionSink
	Responses ResponseSink
	Settings  SettingsSource
	Events    *Broadcaster
	Notifier  *Notifier
	APIKey    string
}

func NewMonitor(ctx context.Context, deps MonitorDeps) *Monitor {
	m := &Monitor{
		ctx:       ctx,
		source:    deps.Source,
		crops:     deps.Crops,
		client:    deps.Client,
		sessions:  deps.Sessions,
		responses: deps.Responses,
		settings:  deps.Settings,
		events:    deps.Events,
		notifier:  deps.Notifier,
		cfgAPIKey: deps.APIKey,
		saveCh:    make(chan *domain.Session, 64),
		status:    domain.StatusInfo{Type: domain.StatusTypeIdle, Message: "Ready"},
	}
	go m.saveLoop()
	return m
}

// StartRequest carries the parameters of a new monitoring session.
type StartRequest struct {
	Prompt           string
	Area             *domain.Area
	ConversationMode bool
	Display          int
}

// Start creates and activates a new session. It is rejected, not queued,
// while a non-completed session exists. The first cycle fires immediately,
// or as soon as a previous session's draining cycle releases the guard.
func (m *Monitor) Start(ctx context.Context, req StartRequest) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Live() {
		return nil, domain.ErrSessionExists
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, domain.ErrMissingPrompt
	}
	if req.Area != nil && !req.Area.Valid() {
		return nil, domain.ErrInvalidArea
	}

	settings, err := m.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	apiKey := settings.APIKey
	if apiKey == "" {
		apiKey = m.cfgAPIKey
	}
	if apiKey == "" {
		return nil, domain.ErrMissingAPIKey
	}

	area := req.Area
	if area == nil {
		area = m.selectedArea
	}

	now := time.Now()
	session := &domain.Session{
		ID:           uuid.New(),
		Status:       domain.StatusActive,
		StartTime:    now,
		Display:      req.Display,
		SelectedArea: area,
		Settings: domain.SessionSettings{
			IntervalSeconds:  settings.IntervalSeconds,
			Model:            settings.Model,
			Prompt:           req.Prompt,
			ConversationMode: req.ConversationMode,
			Notifications:    settings.EnableNotifications,
			AutoBackoff:      settings.AutoBackoff,
		},
	}
	if session.Settings.IntervalSeconds <= 0 {
		session.Settings.IntervalSeconds = config.DefaultIntervalSeconds
	}
	if session.Settings.Model == "" {
		session.Settings.Model = config.DefaultModel
	}
	session.NextScheduledCapture = &now

	m.current = session
	m.apiKey = apiKey

	m.persistSessionLocked()
	m.setStatusLocked(domain.StatusTypeActive, "Session started, capturing first image...")
	m.publishSessionLocked()
	m.events.Publish(domain.EventSessionListUpdated, nil)

	m.armLocked(0)

	return session.Clone(), nil
}

// Pause cancels the pending schedule. A cycle already in flight is allowed
// to finish but will not reschedule.
func (m *Monitor) Pause() (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.current.Live() || m.current.Status != domain.StatusActive {
		return nil, domain.ErrNoActiveSession
	}

	m.cancelTimerLocked()
	now := time.Now()
	m.current.Status = domain.StatusPaused
	m.current.PauseTime = &now
	m.current.NextScheduledCapture = nil

	m.persistSessionLocked()
	m.setStatusLocked(domain.StatusTypeIdle, "Session paused")
	m.publishSessionLocked()

	return m.current.Clone(), nil
}

// Resume re-enters the scheduling loop with the existing counters. Like a
// fresh start, the first cycle fires immediately unless this session's own
// cycle is still finishing from before the pause.
func (m *Monitor) Resume() (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.current.Live() || m.current.Status != domain.StatusPaused {
		return nil, domain.ErrNoPausedSession
	}

	now := time.Now()
	m.current.Status = domain.StatusActive
	m.current.ResumeTime = &now

	if !(m.busy && m.busyID == m.current.ID) {
		m.current.NextScheduledCapture = &now
		m.armLocked(0)
	}

	m.persistSessionLocked()
	m.setStatusLocked(domain.StatusTypeActive, "Session resumed")
	m.publishSessionLocked()

	return m.current.Clone(), nil
}

// Stop completes the session, stamps the end time and final duration, and
// clears the current-session slot. The final snapshot stays in history. A
// cycle still in flight keeps the guard until its own terminal step; its
// remaining writes are discarded because the session is no longer current.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || m.current.Status == domain.StatusCompleted {
		return domain.ErrNoSession
	}

	m.cancelTimerLocked()
	now := time.Now()
	m.current.Status = domain.StatusCompleted
	m.current.EndTime = &now
	m.current.DurationSeconds = int64(m.current.DurationAt(now).Seconds())
	m.current.NextScheduledCapture = nil

	m.persistSessionLocked()
	m.current = nil
	m.apiKey = ""

	m.setStatusLocked(domain.StatusTypeIdle, "Session completed")
	m.events.Publish(domain.EventSessionUpdate, nil)
	m.events.Publish(domain.EventSessionListUpdated, nil)
	return nil
}

// SettingsPatch is a partial in-place update of a running session's
// settings. Nil fields are left untouched.
type SettingsPatch struct {
	IntervalSeconds  *int
	Model            *string
	Prompt           *string
	ConversationMode *bool
	Notifications    *bool
	AutoBackoff      *bool
}

// UpdateSettings mutates the live session's settings snapshot. If the
// interval changed while a cycle is waiting (not executing), the pending
// wait is cancelled and re-armed with the new interval.
func (m *Monitor) UpdateSettings(patch SettingsPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.current.Live() {
		return domain.ErrNoSession
	}

	s := &m.current.Settings
	intervalChanged := false
	if patch.IntervalSeconds != nil && *patch.IntervalSeconds > 0 && *patch.IntervalSeconds != s.IntervalSeconds {
		s.IntervalSeconds = *patch.IntervalSeconds
		intervalChanged = true
	}
	if patch.Model != nil && *patch.Model != "" {
		s.Model = *patch.Model
	}
	if patch.Prompt != nil {
		s.Prompt = *patch.Prompt
	}
	if patch.ConversationMode != nil {
		s.ConversationMode = *patch.ConversationMode
	}
	if patch.Notifications != nil {
		s.Notifications = *patch.Notifications
	}
	if patch.AutoBackoff != nil {
		s.AutoBackoff = *patch.AutoBackoff
	}

	m.persistSessionLocked()

	if intervalChanged && m.current.Status == domain.StatusActive && !m.busy && m.timer != nil {
		next := time.Now().Add(s.Interval())
		m.current.NextScheduledCapture = &next
		m.armLocked(s.Interval())
		slog.Info("monitor interval changed, pending wait re-armed", "interval", s.Interval())
	}
	m.publishSessionLocked()
	return nil
}

// UpdateArea records a newly selected capture region, both on the engine
// state and on the live session if one exists.
func (m *Monitor) UpdateArea(area domain.Area) error {
	if !area.Valid() {
		return domain.ErrInvalidArea
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	a := area
	m.selectedArea = &a
	m.events.Publish(domain.EventAreaSelected, a)
	m.setStatusLocked(domain.StatusTypeActive, "Area selected")

	if m.current.Live() {
		sa := area
		m.current.SelectedArea = &sa
		m.persistSessionLocked()
		m.publishSessionLocked()
	}
	return nil
}

// State is a read snapshot for observers.
type State struct {
	Status         domain.StatusInfo `json:"status"`
	SelectedArea   *domain.Area      `json:"selectedArea,omitempty"`
	LastCapture    *domain.Capture   `json:"lastCapture,omitempty"`
	CurrentSession *domain.Session   `json:"currentSession,omitempty"`
}

func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := State{
		Status:         m.status,
		CurrentSession: m.current.Clone(),
	}
	if m.selectedArea != nil {
		a := *m.selectedArea
		state.SelectedArea = &a
	}
	if m.lastCapture != nil {
		c := *m.lastCapture
		state.LastCapture = &c
	}
	return state
}

// Close cancels any pending schedule. An in-flight cycle finishes on its
// own; its terminal step will see the daemon context cancelled.
func (m *Monitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelTimerLocked()
}

// fire is the one-shot timer callback: it claims the busy guard for the
// current session, stamps the capture attempt, and runs the cycle.
func (m *Monitor) fire() {
	m.mu.Lock()
	if !m.current.Live() || m.current.Status != domain.StatusActive {
		m.mu.Unlock()
		return
	}
	if m.busy {
		if m.busyID != m.current.ID {
			// A stopped session's cycle is still draining; retry shortly
			// instead of capturing concurrently with it.
			m.armLocked(config.CycleRetryDelay)
		} else {
			// Should not happen under the single-shot discipline.
			slog.Warn("cycle already in flight, skipping fire")
		}
		m.mu.Unlock()
		return
	}
	m.busy = true
	m.busyID = m.current.ID
	m.timer = nil
	m.current.NextScheduledCapture = nil

	// The attempt counts even if the capture fails.
	now := time.Now()
	m.current.CaptureCount++
	m.current.LastCaptureTime = &now

	m.persistSessionLocked()
	m.setStatusLocked(domain.StatusTypeProcessing, "Capturing for monitoring...")
	m.publishSessionLocked()

	p := cycleParams{
		sessionID:        m.current.ID,
		display:          m.current.Display,
		area:             m.current.SelectedArea,
		model:            m.current.Settings.Model,
		prompt:           m.current.Settings.Prompt,
		conversationMode: m.current.Settings.ConversationMode,
		notifications:    m.current.Settings.Notifications,
		autoBackoff:      m.current.Settings.AutoBackoff,
		apiKey:           m.apiKey,
	}
	if p.area != nil {
		a := *p.area
		p.area = &a
	}
	m.mu.Unlock()

	m.runCycle(p)
}

type cycleParams struct {
	sessionID        uuid.UUID
	display          int
	area             *domain.Area
	model            string
	prompt           string
	conversationMode bool
	notifications    bool
	autoBackoff      bool
	apiKey           string
}

// runCycle executes capture, crop, infer and persist. Every branch ends in
// exactly one terminal step (normal reschedule, backoff reschedule, or
// session stop) and exactly one guard release. All mutations after the
// capture stamp check that the cycle's session is still the current one.
func (m *Monitor) runCycle(p cycleParams) {
	frame, err := m.source.Capture(m.ctx, p.display)
	if errors.Is(err, domain.ErrTargetGone) {
		slog.Warn("capture target gone, falling back to primary display", "display", p.display)
		frame, err = m.source.Capture(m.ctx, 0)
		switch {
		case errors.Is(err, domain.ErrNoDisplay):
			m.fatal(p.sessionID, "No capture surface available. Session stopped.", err)
			return
		case err != nil:
			slog.Error("fallback capture failed", "error", err)
			m.cycleStatus(p.sessionID, domain.StatusTypeWarning, "Capture failed, retrying next interval")
			m.endCycle(p.sessionID, nil)
			return
		}
		m.rebindDisplay(p.sessionID, 0)
		p.display = 0
	} else if errors.Is(err, domain.ErrNoDisplay) {
		m.fatal(p.sessionID, "No capture surface available. Session stopped.", err)
		return
	} else if err != nil {
		slog.Error("capture failed", "display", p.display, "error", err)
		m.cycleStatus(p.sessionID, domain.StatusTypeWarning, "Capture failed, retrying next interval")
		m.endCycle(p.sessionID, nil)
		return
	}

	result := CropResult{Image: frame, Tier: "full-frame"}
	if p.area != nil {
		result = m.crops.Run(m.ctx, frame, *p.area)
	}

	dataURL, size, err := encodeJPEGDataURL(result.Image)
	if err != nil {
		slog.Error("encode frame failed", "error", err)
		m.cycleStatus(p.sessionID, domain.StatusTypeWarning, "Frame encoding failed, retrying next interval")
		m.endCycle(p.sessionID, nil)
		return
	}

	capture := &domain.Capture{DataURL: dataURL, Timestamp: time.Now(), IsFallback: result.Fallback}
	m.mu.Lock()
	owned := m.ownsLocked(p.sessionID)
	if owned {
		m.lastCapture = capture
		if result.Fallback {
			m.setStatusLocked(domain.StatusTypeWarning, "Using full frame (cropping failed)")
		} else {
			m.setStatusLocked(domain.StatusTypeActive, "Frame captured")
		}
	}
	m.mu.Unlock()
	if owned {
		m.events.Publish(domain.EventCaptureComplete, capture)
	}

	prompt := m.composePrompt(p)

	m.mu.Lock()
	if m.ownsLocked(p.sessionID) {
		m.current.APICallCount++
		m.persistSessionLocked()
		m.setStatusLocked(domain.StatusTypeProcessing, "Sending frame for analysis...")
		m.publishSessionLocked()
	}
	m.mu.Unlock()

	analysis, err := m.client.Analyze(m.ctx, p.model, prompt, dataURL, p.apiKey)
	if err != nil {
		m.handleInferenceError(p, err)
		return
	}

	// The call happened and the record carries its own session id, so it is
	// persisted even when the session was stopped mid-flight.
	response := &domain.Response{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		SessionID: p.sessionID,
		Prompt:    p.prompt,
		ImageSize: size,
		Text:      analysis.Text,
		Raw:       analysis.Raw,
		Model:     p.model,
		Cost:      analysis.Cost,
	}
	m.persistResponse(response)

	m.mu.Lock()
	owned = m.ownsLocked(p.sessionID)
	if owned {
		if p.conversationMode {
			m.current.AppendExchange(p.prompt, analysis.Text)
			m.persistSessionLocked()
		}
		m.setStatusLocked(domain.StatusTypeActive, "Analysis complete - monitoring continuing")
	}
	m.mu.Unlock()

	if owned {
		m.events.Publish(domain.EventAnalyzeComplete, response)
		m.events.Publish(domain.EventHistoryUpdated, nil)
		if p.notifications {
			m.notifier.Notify("Analysis complete", snippet(analysis.Text, 120))
		}
	}

	m.endCycle(p.sessionID, nil)
}

// handleInferenceError maps the error taxonomy onto the reschedule policy:
// rate limits optionally back off, everything else retries at the normal
// interval. A single bad response never kills the session.
func (m *Monitor) handleInferenceError(p cycleParams, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Kind == ErrKindRateLimit {
		var count int
		var owned bool
		m.mu.Lock()
		if m.ownsLocked(p.sessionID) {
			owned = true
			m.current.RateLimitCount++
			count = m.current.RateLimitCount
			m.persistSessionLocked()
		}
		m.mu.Unlock()

		if owned {
			m.events.Publish(domain.EventRateLimitHit, map[string]any{
				"error": apiErr.Message,
				"count": count,
			})
			if p.autoBackoff {
				delay := backoffDelay(count)
				slog.Warn("rate limit hit, backing off", "count", count, "delay", delay)
				m.cycleStatus(p.sessionID, domain.StatusTypeWarning, fmt.Sprintf("Rate limit: backing off %s", delay))
				m.endCycle(p.sessionID, &delay)
				return
			}
			m.cycleStatus(p.sessionID, domain.StatusTypeWarning, "Rate limit hit")
		}
		m.endCycle(p.sessionID, nil)
		return
	}

	slog.Error("inference failed", "model", p.model, "error", err)
	m.mu.Lock()
	owned := m.ownsLocked(p.sessionID)
	if owned {
		m.setStatusLocked(domain.StatusTypeError, "API error - continuing monitoring")
	}
	m.mu.Unlock()
	if owned {
		m.events.Publish(domain.EventAnalyzeComplete, map[string]any{"error": err.Error()})
	}
	m.endCycle(p.sessionID, nil)
}

// endCycle is the single terminal step of every cycle: release the guard if
// this cycle still holds it and, if the cycle's session is still current and
// active, arm the next one-shot wait.
func (m *Monitor) endCycle(sessionID uuid.UUID, backoff *time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.releaseGuardLocked(sessionID)

	if !m.ownsLocked(sessionID) || m.current.Status != domain.StatusActive {
		return
	}

	delay := m.current.Settings.Interval()
	if backoff != nil {
		delay = *backoff
	}
	next := time.Now().Add(delay)
	m.current.NextScheduledCapture = &next

	m.persistSessionLocked()
	m.armLocked(delay)
	m.publishSessionLocked()
}

// fatal stops the cycle's session with an error status. Used only when no
// capture surface exists at all. A cycle whose session is no longer current
// just releases the guard.
func (m *Monitor) fatal(sessionID uuid.UUID, message string, err error) {
	slog.Error("fatal monitoring error", "error", err)

	m.mu.Lock()
	m.releaseGuardLocked(sessionID)
	if !m.ownsLocked(sessionID) {
		m.mu.Unlock()
		return
	}

	m.cancelTimerLocked()
	notify := m.current.Settings.Notifications
	now := time.Now()
	m.current.Status = domain.StatusCompleted
	m.current.EndTime = &now
	m.current.DurationSeconds = int64(m.current.DurationAt(now).Seconds())
	m.current.NextScheduledCapture = nil
	m.persistSessionLocked()
	m.current = nil
	m.apiKey = ""

	m.setStatusLocked(domain.StatusTypeError, message)
	m.mu.Unlock()

	m.events.Publish(domain.EventSessionUpdate, nil)
	m.events.Publish(domain.EventSessionListUpdated, nil)
	if notify {
		m.notifier.Notify("Monitoring stopped", message)
	}
}

func (m *Monitor) rebindDisplay(sessionID uuid.UUID, display int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ownsLocked(sessionID) {
		m.current.Display = display
		m.persistSessionLocked()
		m.publishSessionLocked()
	}
}

func (m *Monitor) composePrompt(p cycleParams) string {
	if !p.conversationMode {
		return p.prompt
	}
	m.mu.Lock()
	var history []string
	if m.ownsLocked(p.sessionID) {
		history = append(history, m.current.ConversationHistory...)
	}
	m.mu.Unlock()

	if len(history) == 0 {
		return p.prompt
	}
	return fmt.Sprintf("Conversation History:\n%s\n\n---\n\nNew Query: %s",
		strings.Join(history, "\n"), p.prompt)
}

// ownsLocked reports whether the cycle's session is still the current one.
func (m *Monitor) ownsLocked(sessionID uuid.UUID) bool {
	return m.current != nil && m.current.ID == sessionID
}

// releaseGuardLocked frees the busy guard if the given session's cycle
// holds it.
func (m *Monitor) releaseGuardLocked(sessionID uuid.UUID) {
	if m.busy && m.busyID == sessionID {
		m.busy = false
		m.busyID = uuid.Nil
	}
}

// cycleStatus updates the status line only while the cycle's session is
// still current.
func (m *Monitor) cycleStatus(sessionID uuid.UUID, t domain.StatusType, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ownsLocked(sessionID) {
		m.setStatusLocked(t, message)
	}
}

// backoffDelay grows exponentially with the number of rate limits hit,
// capped at config.MaxBackoff.
func backoffDelay(rateLimitCount int) time.Duration {
	if rateLimitCount > 30 {
		return config.MaxBackoff
	}
	d := time.Duration((1<<uint(rateLimitCount))+5) * time.Second
	if d > config.MaxBackoff {
		return config.MaxBackoff
	}
	return d
}

// armLocked arms the single delayed-task handle; arming implicitly cancels
// any previous pending task.
func (m *Monitor) armLocked(delay time.Duration) {
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(delay, m.fire)
}

func (m *Monitor) cancelTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Monitor) setStatusLocked(t domain.StatusType, message string) {
	m.status = domain.StatusInfo{Type: t, Message: message}
	m.events.Publish(domain.EventStatus, m.status)
}

// persistSessionLocked queues the current snapshot for the background
// writer. Queuing happens under the engine lock so snapshots are written in
// mutation order; a full queue drops the snapshot rather than blocking.
func (m *Monitor) persistSessionLocked() {
	if m.current == nil {
		return
	}
	select {
	case m.saveCh <- m.current.Clone():
	default:
		slog.Warn("session save queue full, dropping snapshot", "session_id", m.current.ID)
	}
}

// saveLoop writes queued session snapshots off the engine lock, so a
// stalled database never blocks commands or the cycle.
func (m *Monitor) saveLoop() {
	for {
		select {
		case snapshot := <-m.saveCh:
			m.saveSnapshot(snapshot)
		case <-m.ctx.Done():
			for {
				select {
				case snapshot := <-m.saveCh:
					m.saveSnapshot(snapshot)
				default:
					return
				}
			}
		}
	}
}

func (m *Monitor) saveSnapshot(snapshot *domain.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), config.PersistTimeout)
	defer cancel()
	if err := m.sessions.Save(ctx, snapshot); err != nil {
		slog.Error("persist session failed", "session_id", snapshot.ID, "error", err)
	}
}

func (m *Monitor) persistResponse(response *domain.Response) {
	ctx, cancel := context.WithTimeout(context.Background(), config.PersistTimeout)
	defer cancel()
	if err := m.responses.Save(ctx, response); err != nil {
		slog.Error("persist response failed", "response_id", response.ID, "error", err)
	}
}

func (m *Monitor) publishSessionLocked() {
	m.events.Publish(domain.EventSessionUpdate, m.current.Clone())
}

func snippet(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

func encodeJPEGDataURL(img image.Image) (string, domain.ImageSize, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: config.JPEGQuality}); err != nil {
		return "", domain.ImageSize{}, fmt.Errorf("encode jpeg: %w", err)
	}
	bounds := img.Bounds()
	size := domain.ImageSize{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Bytes:  buf.Len(),
	}
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	return dataURL, size, nil
}
