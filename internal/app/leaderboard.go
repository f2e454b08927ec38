package app

import (
	"sync"

	"riddle-game-service/internal/domain"
)

// Hub fans leaderboard snapshots out to live subscribers (the websocket
// feed). Publishing never blocks: a slow subscriber has its stale snapshot
// dropped and replaced with the latest one.
type Hub struct {
	mu   sync.Mutex
	subs map[chan []domain.LeaderboardEntry]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan []domain.LeaderboardEntry]struct{})}
}

// Subscribe registers a feed channel. The cancel function is idempotent and
// must be called to release the subscription.
func (h *Hub) Subscribe() (chan []domain.LeaderboardEntry, func()) {
	ch := make(chan []domain.LeaderboardEntry, 4)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a snapshot to every subscriber.
func (h *Hub) Publish(entries []domain.LeaderboardEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		h.sendLocked(ch, entries)
	}
}

// Empty reports whether anyone is listening, so publishers can skip the
// snapshot query entirely.
func (h *Hub) Empty() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs) == 0
}

// send delivers a snapshot to a single subscriber channel.
func (h *Hub) send(ch chan []domain.LeaderboardEntry, entries []domain.LeaderboardEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; !ok {
		return
	}
	h.sendLocked(ch, entries)
}

func (h *Hub) sendLocked(ch chan []domain.LeaderboardEntry, entries []domain.LeaderboardEntry) {
	select {
	case ch <- entries:
	default:
		// Evict the stale snapshot so the latest one always lands.
		select {
		case <-ch:
		default:
		}
		ch <- entries
	}
}
