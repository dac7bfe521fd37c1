package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/screenwatch/internal/domain"
)

func drain(sub *Subscriber) []domain.Event {
	var events []domain.Event
	for {
		select {
		case e := <-sub.Events:
			events = append(events, e)
		default:
			return events
		}
	}
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := NewBroadcaster()
	s1 := b.Subscribe()
	s2 := b.Subscribe()
	defer b.Unsubscribe(s1)
	defer b.Unsubscribe(s2)

	b.Publish(domain.EventStatus, domain.StatusInfo{Type: domain.StatusTypeActive, Message: "up"})

	for _, sub := range []*Subscriber{s1, s2} {
		events := drain(sub)
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventStatus, events[0].Name)
	}
}

func TestSubscribeReplaysLatestEventPerTopic(t *testing.T) {
	b := NewBroadcaster()

	b.Publish(domain.EventStatus, domain.StatusInfo{Type: domain.StatusTypeActive, Message: "first"})
	b.Publish(domain.EventStatus, domain.StatusInfo{Type: domain.StatusTypeProcessing, Message: "second"})
	b.Publish(domain.EventAreaSelected, domain.Area{Width: 10, Height: 10})

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	events := drain(sub)
	require.Len(t, events, 2)

	byName := map[domain.EventName]domain.Event{}
	for _, e := range events {
		byName[e.Name] = e
	}
	status, ok := byName[domain.EventStatus]
	require.True(t, ok)
	assert.Equal(t, "second", status.Payload.(domain.StatusInfo).Message)
	_, ok = byName[domain.EventAreaSelected]
	assert.True(t, ok)
}

func TestReplayIsOrderedOldestFirst(t *testing.T) {
	b := NewBroadcaster()

	b.Publish(domain.EventStatus, nil)
	time.Sleep(2 * time.Millisecond)
	b.Publish(domain.EventAreaSelected, nil)
	time.Sleep(2 * time.Millisecond)
	b.Publish(domain.EventSessionUpdate, nil)

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	events := drain(sub)
	require.Len(t, events, 3)
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Timestamp.Before(events[i-1].Timestamp))
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe()
	b.Unsubscribe(sub)

	_, open := <-sub.Events
	assert.False(t, open)

	// A second unsubscribe of the same subscriber is a no-op.
	b.Unsubscribe(sub)

	// Publishing after unsubscribe must not panic on the closed channel.
	b.Publish(domain.EventStatus, nil)
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < cap(sub.Events)+10; i++ {
			b.Publish(domain.EventStatus, i)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a full subscriber")
	}
	assert.Len(t, drain(sub), cap(sub.Events))
}
