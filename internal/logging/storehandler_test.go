package logging

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSink struct {
	mu      sync.Mutex
	entries []struct {
		level   string
		message string
		attrs   map[string]any
	}
}

func (m *memSink) Append(_ context.Context, level, message string, attrs map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, struct {
		level   string
		message string
		attrs   map[string]any
	}{level, message, attrs})
	return nil
}

func (m *memSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func TestStoreHandlerMirrorsRecords(t *testing.T) {
	sink := &memSink{}
	var out bytes.Buffer
	logger := slog.New(NewStoreHandler(slog.NewJSONHandler(&out, nil), sink))

	logger.Info("capture complete", "display", 1)

	require.Eventually(t, func() bool {
		return sink.count() == 1
	}, 2*time.Second, 5*time.Millisecond)

	sink.mu.Lock()
	entry := sink.entries[0]
	sink.mu.Unlock()

	assert.Equal(t, "INFO", entry.level)
	assert.Equal(t, "capture complete", entry.message)
	assert.Equal(t, int64(1), entry.attrs["display"])

	// The inner handler still receives the record.
	assert.Contains(t, out.String(), "capture complete")
}

func TestStoreHandlerPreservesWithAttrs(t *testing.T) {
	sink := &memSink{}
	var out bytes.Buffer
	base := NewStoreHandler(slog.NewJSONHandler(&out, nil), sink)
	logger := slog.New(base).With("component", "monitor")

	logger.Warn("crop tier failed")

	require.Eventually(t, func() bool {
		return sink.count() == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Contains(t, out.String(), `"component":"monitor"`)
}
