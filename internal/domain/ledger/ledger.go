// Package ledger tracks daily attendance with at-most-once marking per
// person per calendar day.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/presence/internal/domain/model"
	"github.com/okian/presence/pkg/metrics"
)

// DayFormat is the calendar-day key layout used for ledger scoping.
const DayFormat = "2006-01-02"

// Recorder appends attendance records to durable storage, one log per day.
type Recorder interface {
	Append(ctx context.Context, day string, rec model.Record) error
}

// Ledger enforces the one-record-per-(day, name) invariant. The marked set
// rolls over implicitly when Mark observes a new day; days are independent
// and nothing carries over.
//
// A ledger starts inactive. While inactive every Mark is suppressed without
// touching the marked set or the recorder, so recognition can keep running
// with attendance switched off.
type Ledger struct {
	mu       sync.Mutex
	day      string
	marked   map[string]struct{}
	recorder Recorder
	active   atomic.Bool
}

// New creates a Ledger with configuration options.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		marked: make(map[string]struct{}),
	}

	// Apply all options
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// SetActive toggles attendance marking. Safe to call while a session runs.
func (l *Ledger) SetActive(active bool) {
	l.active.Store(active)
}

// Active reports whether marks are currently being recorded.
func (l *Ledger) Active() bool {
	return l.active.Load()
}

// Mark records attendance for name at the given time. Returns true when a
// new record was appended, false when the mark was suppressed (attendance
// inactive, unknown name, or already marked today). The name is only added
// to the marked set after the record is durably appended, so a failed
// append can be retried.
func (l *Ledger) Mark(ctx context.Context, name string, now time.Time) (bool, error) {
	if name == "" || name == model.Unknown {
		return false, nil
	}
	if !l.active.Load() {
		metrics.RecordAttendanceSuppressed()
		return false, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.roll(now)

	if _, seen := l.marked[name]; seen {
		metrics.RecordAttendanceRepeat()
		return false, nil
	}

	if l.recorder != nil {
		if err := l.recorder.Append(ctx, l.day, model.Record{Name: name, Time: now}); err != nil {
			metrics.RecordAttendanceFailure()
			metrics.RecordErrorByComponent("ledger", "append_failed")
			return false, fmt.Errorf("append attendance record: %w", err)
		}
	}

	l.marked[name] = struct{}{}
	metrics.RecordAttendanceMarked()
	return true, nil
}

// Marked reports whether name is already marked for the day containing now.
func (l *Ledger) Marked(name string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.roll(now)
	_, seen := l.marked[name]
	return seen
}

// Size returns the number of people marked for the current day.
func (l *Ledger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.marked)
}

// roll resets the marked set when now falls on a different day than the one
// being tracked. Must be called with l.mu held.
func (l *Ledger) roll(now time.Time) {
	day := now.Format(DayFormat)
	if day != l.day {
		l.day = day
		l.marked = make(map[string]struct{})
	}
}
