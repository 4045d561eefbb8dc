// Package suggest holds the bounded advisory queue shown beside the
// dashboard. Newest suggestions always rank first; priority only affects
// styling.
package suggest

import "github.com/luki/homedash/internal/sensor"

// DefaultCapacity is the maximum number of queued suggestions.
const DefaultCapacity = 10

// Queue is a newest-first list capped at Max entries.
type Queue struct {
	items []sensor.Suggestion
	Max   int
}

// NewQueue creates an empty queue holding at most capacity entries.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{Max: capacity}
}

// Push prepends incoming, keeping its relative order, and drops whatever
// falls past Max from the tail.
func (q *Queue) Push(incoming ...sensor.Suggestion) {
	if len(incoming) == 0 {
		return
	}
	merged := make([]sensor.Suggestion, 0, len(incoming)+len(q.items))
	merged = append(merged, incoming...)
	merged = append(merged, q.items...)
	if len(merged) > q.Max {
		merged = merged[:q.Max]
	}
	q.items = merged
}

// ReplaceAll installs a freshly pulled list, truncated to Max.
func (q *Queue) ReplaceAll(list []sensor.Suggestion) {
	n := len(list)
	if n > q.Max {
		n = q.Max
	}
	q.items = make([]sensor.Suggestion, n)
	copy(q.items, list[:n])
}

// Items returns a copy of the queue, newest first.
func (q *Queue) Items() []sensor.Suggestion {
	out := make([]sensor.Suggestion, len(q.items))
	copy(out, q.items)
	return out
}

// Len returns the number of queued suggestions.
func (q *Queue) Len() int { return len(q.items) }
