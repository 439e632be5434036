package moderation

import (
	"sync"
	"time"
)

const (
	// FloodWindow is the trailing interval inside which messages count
	// toward the flood limit.
	FloodWindow = 30 * time.Second
	// FloodLimit is the number of messages inside the window above which a
	// sender is flagged.
	FloodLimit = 5

	floodSweepInterval = 5 * time.Minute
)

type floodKey struct {
	userID int64
	chatID int64
}

// FloodDetector counts recent messages per (user, chat) over a sliding time
// window. State is in-memory only; losing it on restart is acceptable since
// it rate-limits abuse rather than auditing it.
type FloodDetector struct {
	mu     sync.Mutex
	window time.Duration
	limit  int
	hits   map[floodKey][]time.Time
}

func NewFloodDetector() *FloodDetector {
	f := &FloodDetector{
		window: FloodWindow,
		limit:  FloodLimit,
		hits:   make(map[floodKey][]time.Time),
	}
	go f.sweep()
	return f
}

// RecordAndCheck appends a message timestamp for the sender and reports
// whether they are over the limit. Append and prune for a key happen under
// one lock acquisition so concurrent messages cannot lose updates.
func (f *FloodDetector) RecordAndCheck(userID, chatID int64, now time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := floodKey{userID: userID, chatID: chatID}
	window := append(f.hits[key], now)

	cutoff := now.Add(-f.window)
	kept := window[:0]
	for _, t := range window {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	f.hits[key] = kept

	return len(kept) > f.limit
}

// sweep drops keys that have gone quiet so the map does not grow without
// bound across many chats.
func (f *FloodDetector) sweep() {
	ticker := time.NewTicker(floodSweepInterval)
	for range ticker.C {
		cutoff := time.Now().Add(-f.window)
		f.mu.Lock()
		for key, window := range f.hits {
			if len(window) == 0 || !window[len(window)-1].After(cutoff) {
				delete(f.hits, key)
			}
		}
		f.mu.Unlock()
	}
}
