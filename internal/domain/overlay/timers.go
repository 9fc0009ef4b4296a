// Package overlay renders recognition results onto frames and tracks how
// long each recognized identity stays annotated.
package overlay

import (
	"sort"
	"sync"
	"time"
)

// DefaultDisplayDuration is how long a recognized box stays considered
// visible after the last detection.
const DefaultDisplayDuration = 2 * time.Second

// Timers maps identity names to annotation expiry times. Entries are
// refreshed on every recognition and never deleted; an expired entry simply
// stops satisfying Visible. The key space is bounded by the roster's names.
type Timers struct {
	mu     sync.RWMutex
	expiry map[string]time.Time
}

// NewTimers creates an empty timer registry.
func NewTimers() *Timers {
	return &Timers{expiry: make(map[string]time.Time)}
}

// Refresh sets name's annotation expiry.
func (t *Timers) Refresh(name string, until time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expiry[name] = until
}

// Visible reports whether name's box should still be drawn at now.
func (t *Timers) Visible(name string, now time.Time) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	until, ok := t.expiry[name]
	return ok && !now.After(until)
}

// ActiveNames returns the names visible at now, sorted for stable output.
func (t *Timers) ActiveNames(now time.Time) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var names []string
	for name, until := range t.expiry {
		if !now.After(until) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
