package session

import (
	"log/slog"
	"sync"

	"github.com/aretw0/vaultguard/internal/logging"
	"github.com/aretw0/vaultguard/pkg/domain"
)

// Event is a message published to session subscribers.
// Data holds a *domain.SessionDiff, a *domain.ActionEvent, a ChatReply,
// a domain.Alert or a *domain.AutoActionEvent, depending on Type.
type Event struct {
	Type domain.EventType `json:"type"`
	Data any              `json:"data"`
}

// Broadcaster fans session events out to subscribers.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

// NewBroadcaster creates an empty Broadcaster. A nil logger discards drop warnings.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Broadcaster{
		subscribers: make(map[string]map[chan Event]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for sessionID.
func (b *Broadcaster) Subscribe(sessionID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 16)
	if _, ok := b.subscribers[sessionID]; !ok {
		b.subscribers[sessionID] = make(map[chan Event]struct{})
	}
	b.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if subs, ok := b.subscribers[sessionID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(b.subscribers, sessionID)
				}
			}
		})
	}
}

// Broadcast delivers ev to every subscriber of sessionID without blocking.
func (b *Broadcaster) Broadcast(sessionID string, ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[sessionID] {
		select {
		case ch <- ev:
		default:
			// Drop message if channel is full (slow client)
			b.logger.Warn("Session stream buffer full, dropping event", "session_id", sessionID, "type", ev.Type)
		}
	}
}

// Subscribers returns the number of subscribers of sessionID.
func (b *Broadcaster) Subscribers(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[sessionID])
}
