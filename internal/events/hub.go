// Package events is an in-process publish/subscribe hub. Views subscribe to
// change notifications and recompute from scratch when one arrives.
package events

import (
	"sync"
	"time"
)

// Topic names an event stream.
type Topic string

const (
	// TasksChanged fires after any task mutation commits.
	TasksChanged Topic = "tasks.changed"
	// DayChanged fires when the local calendar date rolls over.
	DayChanged Topic = "day.changed"
)

// Event is one notification. TaskIDs lists the affected tasks when known.
type Event struct {
	Topic   Topic     `json:"topic"`
	TaskIDs []string  `json:"taskIds,omitempty"`
	Date    string    `json:"date,omitempty"`
	At      time.Time `json:"at"`
}

// subscriberBuffer bounds each subscriber queue. A full queue drops the
// event; subscribers recompute from scratch so a dropped event is harmless.
const subscriberBuffer = 16

type subscriber struct {
	ch     chan Event
	topics map[Topic]bool
}

// Hub fans events out to subscribers. Publish never blocks.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	nextID int
	closed bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]*subscriber)}
}

// Subscribe registers for the given topics (all topics when none given).
// The returned cancel func unsubscribes and closes the channel.
func (h *Hub) Subscribe(topics ...Topic) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}
	if len(topics) > 0 {
		sub.topics = make(map[Topic]bool, len(topics))
		for _, t := range topics {
			sub.topics[t] = true
		}
	}
	if h.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if s, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(s.ch)
			}
		})
	}
	return sub.ch, cancel
}

// Publish delivers e to every interested subscriber. It returns how many
// subscribers received it.
func (h *Hub) Publish(e Event) int {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return 0
	}

	delivered := 0
	for _, sub := range h.subs {
		if sub.topics != nil && !sub.topics[e.Topic] {
			continue
		}
		select {
		case sub.ch <- e:
			delivered++
		default:
		}
	}
	return delivered
}

// Close unsubscribes everyone. Later publishes are dropped.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		close(sub.ch)
		delete(h.subs, id)
	}
}
