// Package live implements the change feed that keeps UI queries fresh:
// services publish the tables a committed transaction touched, and
// subscribers re-run their queries on notification.
package live

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Table names used in change events.
const (
	TableVideos         = "videos"
	TablePlaylists      = "playlists"
	TablePlaylistVideos = "playlist_videos"
	TableTags           = "tags"
	TableVideoTags      = "video_tags"
	TableSettings       = "settings"
)

// Event describes a committed change. Publishers only send events after
// their transaction has committed, so a subscriber re-querying on an
// event always observes at least that transaction's state.
type Event struct {
	Tables []string  `json:"tables"`
	At     time.Time `json:"at"`
}

// Notifier is the write-side interface services depend on.
type Notifier interface {
	Publish(tables ...string)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) Publish(tables ...string) {}

type subscriber struct {
	ch     chan Event
	tables map[string]bool // empty means all tables
}

// Hub fans change events out to subscribers. Sends never block a
// publisher: when a subscriber's buffer is full its oldest pending event
// is dropped, which is safe because events only signal staleness.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	nextID int
	logger *logrus.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		subs:   make(map[int]*subscriber),
		logger: logger,
	}
}

// Subscribe registers interest in the given tables (none means all).
// The returned cancel func must be called to release the subscription;
// the channel is closed by cancel.
func (h *Hub) Subscribe(tables ...string) (<-chan Event, func()) {
	sub := &subscriber{
		ch:     make(chan Event, 16),
		tables: make(map[string]bool, len(tables)),
	}
	for _, table := range tables {
		sub.tables[table] = true
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = sub
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub.ch)
		}
		h.mu.Unlock()
	}
	return sub.ch, cancel
}

// Publish notifies subscribers interested in any of the given tables.
func (h *Hub) Publish(tables ...string) {
	if len(tables) == 0 {
		return
	}
	event := Event{Tables: tables, At: time.Now().UTC()}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if !sub.wants(tables) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// Buffer full: drop the oldest pending event to make room.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- event:
			default:
			}
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (s *subscriber) wants(tables []string) bool {
	if len(s.tables) == 0 {
		return true
	}
	for _, table := range tables {
		if s.tables[table] {
			return true
		}
	}
	return false
}
