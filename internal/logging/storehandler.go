package logging

import (
	"context"
	"log/slog"
	"time"
)

// logSink is where tee'd records end up (the persisted rolling debug log).
type logSink interface {
	Append(ctx context.Context, level, message string, attrs map[string]any) error
}

// StoreHandler wraps another slog.Handler and mirrors records into a
// persisted rolling log, best effort: appends happen on a background
// goroutine and are dropped when the buffer is full so logging can never
// block the monitoring loop.
type StoreHandler struct {
	inner slog.Handler
	ch    chan record
}

type record struct {
	level   string
	message string
	attrs   map[string]any
}

func NewStoreHandler(inner slog.Handler, sink logSink) *StoreHandler {
	h := &StoreHandler{
		inner: inner,
		ch:    make(chan record, 64),
	}
	go func() {
		for r := range h.ch {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := sink.Append(ctx, r.level, r.message, r.attrs); err != nil {
				// Can't log through ourselves here.
				_ = err
			}
			cancel()
		}
	}()
	return h
}

func (h *StoreHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *StoreHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})
	select {
	case h.ch <- record{level: r.Level.String(), message: r.Message, attrs: attrs}:
	default:
		// Buffer full, drop the mirror copy.
	}
	return h.inner.Handle(ctx, r)
}

func (h *StoreHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &StoreHandler{inner: h.inner.WithAttrs(attrs), ch: h.ch}
}

func (h *StoreHandler) WithGroup(name string) slog.Handler {
	return &StoreHandler{inner: h.inner.WithGroup(name), ch: h.ch}
}
