package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/set-night/screenwatch/internal/config"
	"github.com/set-night/screenwatch/internal/domain"
)

// Subscriber receives the event stream. Events arrives buffered; a slow
// consumer loses events rather than blocking the publisher.
type Subscriber struct {
	Events chan domain.Event
}

// Broadcaster fans events out to currently-attached observers and retains
// the most recent event per topic for config.EventRetention, so an observer
// attaching late still receives a coherent latest-known state.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[*Subscriber]struct{}
	latest *cache.Cache
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs:   make(map[*Subscriber]struct{}),
		latest: cache.New(config.EventRetention, config.EventCachePurge),
	}
}

func (b *Broadcaster) Publish(name domain.EventName, payload any) {
	event := domain.Event{Name: name, Timestamp: time.Now(), Payload: payload}
	b.latest.Set(string(name), event, cache.DefaultExpiration)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		select {
		case sub.Events <- event:
		default:
			slog.Warn("subscriber buffer full, dropping event", "event", name)
		}
	}
}

// Subscribe registers a new observer. The cached latest event of each topic
// is queued ahead of any live event, oldest first.
func (b *Broadcaster) Subscribe() *Subscriber {
	sub := &Subscriber{Events: make(chan domain.Event, config.SubscriberBufferSz)}

	b.mu.Lock()
	defer b.mu.Unlock()

	replay := make([]domain.Event, 0, len(b.latest.Items()))
	for _, item := range b.latest.Items() {
		replay = append(replay, item.Object.(domain.Event))
	}
	sort.Slice(replay, func(i, j int) bool {
		return replay[i].Timestamp.Before(replay[j].Timestamp)
	})
	for _, event := range replay {
		sub.Events <- event
	}

	b.subs[sub] = struct{}{}
	return sub
}

func (b *Broadcaster) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.Events)
	}
	b.mu.Unlock()
}
