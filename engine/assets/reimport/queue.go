// Package reimport coalesces reimport requests coming from the directory
// listener and API calls until the main loop drains them.
package reimport

import (
	"github.com/spaghettifunk/delta/engine/containers"
)

/**
 * @brief Path-keyed set of pending reimports. Safe for concurrent producers;
 * DrainAndProcess must only be called by the goroutine that owns the registry.
 */
type Queue struct {
	pending *containers.SyncSet
}

func NewQueue() *Queue {
	return &Queue{pending: containers.NewSyncSet()}
}

// QueueReimport records path. It returns false when the path is already
// waiting for the next drain.
func (q *Queue) QueueReimport(path string) bool {
	return q.pending.Add(path)
}

// Contains reports whether path waits for the next drain.
func (q *Queue) Contains(path string) bool {
	return q.pending.Contains(path)
}

// Cancel drops a pending request.
func (q *Queue) Cancel(path string) bool {
	return q.pending.Remove(path)
}

func (q *Queue) Pending() int {
	return q.pending.Len()
}

// DrainAndProcess swaps the pending set for an empty one and calls fn once per
// path. Paths queued while fn runs wait for the next drain.
func (q *Queue) DrainAndProcess(fn func(path string)) int {
	paths := q.pending.TakeAll()
	for _, p := range paths {
		fn(p)
	}
	return len(paths)
}
