package backup

import (
	"sync"
)

// TaskState is the lifecycle state of one upload task.
type TaskState int

const (
	StatePending TaskState = iota
	StateEncoding
	StateSending
	StateCompleted
	StateFailed
	StateCanceled
)

func (s TaskState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateEncoding:
		return "encoding"
	case StateSending:
		return "sending"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (s TaskState) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCanceled
}

// UploadRecord is the visible state of one dispatched task.
type UploadRecord struct {
	Key         Key
	DisplayName string
	Progress    float64
	State       TaskState
}

// Snapshot is a point-in-time view of overall progress.
type Snapshot struct {
	Total  int
	Done   int
	Ratio  float64
	Recent []UploadRecord
}

// Aggregator converts per-task progress events and terminal outcomes
// into an overall ratio plus a bounded most-recent-N activity window.
// All mutation is mutex-serialized; many tasks update it concurrently.
type Aggregator struct {
	mu       sync.Mutex
	total    int
	done     int
	capacity int
	recent   []*UploadRecord
	byKey    map[Key]*UploadRecord
}

func NewAggregator(capacity int) *Aggregator {
	if capacity <= 0 {
		capacity = 20
	}
	return &Aggregator{
		capacity: capacity,
		byKey:    make(map[Key]*UploadRecord),
	}
}

// AddTotal registers n more filtered items as pending work.
func (a *Aggregator) AddTotal(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total += n
}

// Begin records a task entering the visible window. The oldest record
// is evicted when the window exceeds capacity; eviction never touches
// the counters.
func (a *Aggregator) Begin(key Key, displayName string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec := &UploadRecord{Key: key, DisplayName: displayName, State: StatePending}
	a.recent = append(a.recent, rec)
	a.byKey[key] = rec

	if len(a.recent) > a.capacity {
		evicted := a.recent[0]
		a.recent = a.recent[1:]
		if a.byKey[evicted.Key] == evicted {
			delete(a.byKey, evicted.Key)
		}
	}
}

// SetState moves a task to a non-terminal state.
func (a *Aggregator) SetState(key Key, state TaskState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if rec, ok := a.byKey[key]; ok {
		rec.State = state
	}
}

// Update reports fractional progress for a task. Values are clamped to
// [0,1] and never decrease, so retries cannot make progress move
// backwards in the visible window.
func (a *Aggregator) Update(key Key, progress float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.byKey[key]
	if !ok {
		return
	}
	if progress > 1 {
		progress = 1
	}
	if progress > rec.Progress {
		rec.Progress = progress
	}
}

// Finish records a terminal outcome. Every terminal state counts
// toward the done total, so the overall ratio reaches 1.0 even when
// some items never succeed.
func (a *Aggregator) Finish(key Key, state TaskState) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.done++
	if rec, ok := a.byKey[key]; ok {
		rec.State = state
		if state == StateCompleted {
			rec.Progress = 1
		}
	}
}

// OverallRatio returns done/total, or 0 when nothing is registered.
func (a *Aggregator) OverallRatio() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.total == 0 {
		return 0
	}
	return float64(a.done) / float64(a.total)
}

// Snapshot returns a copy of the counters and the recent window,
// newest last.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := Snapshot{
		Total:  a.total,
		Done:   a.done,
		Recent: make([]UploadRecord, len(a.recent)),
	}
	if a.total > 0 {
		snap.Ratio = float64(a.done) / float64(a.total)
	}
	for i, rec := range a.recent {
		snap.Recent[i] = *rec
	}
	return snap
}
