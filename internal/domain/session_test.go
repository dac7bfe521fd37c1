package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestAppendExchangeTrimsToNewest(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		exchanges := rapid.IntRange(1, 50).Draw(rt, "exchanges")

		s := &Session{}
		for i := 0; i < exchanges; i++ {
			s.AppendExchange(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
		}

		if len(s.ConversationHistory) > MaxHistoryEntries {
			rt.Fatalf("history has %d entries, cap is %d", len(s.ConversationHistory), MaxHistoryEntries)
		}
		// The newest exchange always survives the trim.
		last := s.ConversationHistory[len(s.ConversationHistory)-1]
		if last != fmt.Sprintf("AI: a%d", exchanges-1) {
			rt.Fatalf("newest entry lost, got %q", last)
		}
		// Entries alternate between the two speakers.
		for i, entry := range s.ConversationHistory {
			wantPrefix := "User: "
			if i%2 == 1 {
				wantPrefix = "AI: "
			}
			if len(entry) < len(wantPrefix) || entry[:len(wantPrefix)] != wantPrefix {
				rt.Fatalf("entry %d = %q, want prefix %q", i, entry, wantPrefix)
			}
		}
	})
}

func TestDurationAtExcludesPauseSpan(t *testing.T) {
	start := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	pause := start.Add(2 * time.Minute)
	resume := start.Add(5 * time.Minute)
	now := start.Add(8 * time.Minute)

	s := &Session{
		StartTime:  start,
		PauseTime:  &pause,
		ResumeTime: &resume,
	}

	assert.Equal(t, 5*time.Minute, s.DurationAt(now))
}

func TestDurationAtUsesEndTime(t *testing.T) {
	start := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)

	s := &Session{StartTime: start, EndTime: &end}

	// The instant passed in is ignored once the session has ended.
	assert.Equal(t, 90*time.Second, s.DurationAt(start.Add(time.Hour)))
}

func TestDurationAtNeverNegative(t *testing.T) {
	start := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	s := &Session{StartTime: start}
	assert.Equal(t, time.Duration(0), s.DurationAt(start.Add(-time.Minute)))
}

func TestCloneIsDeep(t *testing.T) {
	now := time.Now()
	area := Area{Left: 1, Top: 2, Width: 3, Height: 4, Scale: 2}
	s := &Session{
		Status:              StatusActive,
		StartTime:           now,
		PauseTime:           &now,
		SelectedArea:        &area,
		ConversationHistory: []string{"User: hi", "AI: hello"},
	}

	c := s.Clone()
	require.NotNil(t, c)

	c.SelectedArea.Width = 99
	c.ConversationHistory[0] = "mutated"
	*c.PauseTime = now.Add(time.Hour)

	assert.Equal(t, 3, s.SelectedArea.Width)
	assert.Equal(t, "User: hi", s.ConversationHistory[0])
	assert.Equal(t, now, *s.PauseTime)
}

func TestCloneNil(t *testing.T) {
	var s *Session
	assert.Nil(t, s.Clone())
}

func TestLive(t *testing.T) {
	var s *Session
	assert.False(t, s.Live())
	assert.True(t, (&Session{Status: StatusActive}).Live())
	assert.True(t, (&Session{Status: StatusPaused}).Live())
	assert.False(t, (&Session{Status: StatusCompleted}).Live())
}

func TestAreaValid(t *testing.T) {
	assert.True(t, Area{Width: 10, Height: 10}.Valid())
	assert.False(t, Area{Width: 0, Height: 10}.Valid())
	assert.False(t, Area{Width: 10, Height: -1}.Valid())
}
