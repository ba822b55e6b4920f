// Package syncqueue holds the ordered, deduplicated set of pending remote
// writes. At most one item exists per entry id: re-enqueuing an entry
// replaces the pending snapshot instead of duplicating work.
package syncqueue

import (
	"sort"
	"sync"
	"time"

	"github.com/daybookapp/daybook/internal/client/models"
)

// Item is one pending write: the entry snapshot to persist plus retry
// bookkeeping. Per-entry backoff is independent, so one entry's retries
// never starve another's.
type Item struct {
	EntryID     string
	Snapshot    *models.JournalEntry
	EnqueuedAt  time.Time
	RetryCount  int
	NextAttempt time.Time

	// Parked items are out of the automatic backoff rotation: either the
	// server rejected the snapshot permanently or the automatic retry cap
	// was reached. They stay queued (never silently vanish) until an
	// explicit user-triggered retry revives them.
	Parked    bool
	LastError string
}

func (i *Item) clone() *Item {
	c := *i
	c.Snapshot = i.Snapshot.Clone()
	return &c
}

// Queue is safe for concurrent use; all mutation happens under a single
// lock, which is what makes queue updates atomic with respect to each other.
type Queue struct {
	mu         sync.Mutex
	items      map[string]*Item
	backoff    Backoff
	maxRetries int

	now func() time.Time
}

// New constructs a queue. maxRetries caps automatic retries per item; once
// exceeded the item is parked.
func New(backoff Backoff, maxRetries int) *Queue {
	return &Queue{
		items:      make(map[string]*Item),
		backoff:    backoff,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// SetClock replaces the queue's time source. Test hook.
func (q *Queue) SetClock(now func() time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.now = now
}

// Enqueue coalesces a snapshot with any pending item for the same entry id.
//
// Retry-reset policy: the retry count (and a parked state) resets only when
// the snapshot's logical content actually changed. A no-op re-enqueue keeps
// the current backoff position, so hammering Enqueue with an identical
// snapshot cannot defeat the backoff schedule.
func (q *Queue) Enqueue(entry *models.JournalEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	snapshot := entry.Clone()

	existing, ok := q.items[entry.ID]
	if !ok {
		q.items[entry.ID] = &Item{
			EntryID:     entry.ID,
			Snapshot:    snapshot,
			EnqueuedAt:  now,
			NextAttempt: now,
		}
		return
	}

	changed := !existing.Snapshot.ContentEquals(snapshot)
	existing.Snapshot = snapshot
	if changed {
		existing.RetryCount = 0
		existing.NextAttempt = now
		existing.Parked = false
		existing.LastError = ""
	}
}

// Get returns a copy of the pending item for id, if any.
func (q *Queue) Get(id string) (*Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	item, ok := q.items[id]
	if !ok {
		return nil, false
	}
	return item.clone(), true
}

// Has reports whether an item is queued under id.
func (q *Queue) Has(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.items[id]
	return ok
}

// Due returns copies of every unparked item whose next attempt time has
// passed, oldest enqueue first. A drain pass attempts all of them.
func (q *Queue) Due() []*Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	var due []*Item
	for _, item := range q.items {
		if item.Parked || item.NextAttempt.After(now) {
			continue
		}
		due = append(due, item.clone())
	}
	sort.Slice(due, func(i, j int) bool { return due[i].EnqueuedAt.Before(due[j].EnqueuedAt) })
	return due
}

// All returns copies of every queued item, parked ones included.
func (q *Queue) All() []*Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	all := make([]*Item, 0, len(q.items))
	for _, item := range q.items {
		all = append(all, item.clone())
	}
	sort.Slice(all, func(i, j int) bool { return all[i].EnqueuedAt.Before(all[j].EnqueuedAt) })
	return all
}

// Remove drops the item for id after a successful delivery.
func (q *Queue) Remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.items, id)
}

// Rekey moves a pending item to a new entry id, keeping its bookkeeping.
// Used when the server issues a permanent id for a temporary one.
func (q *Queue) Rekey(oldID, newID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	item, ok := q.items[oldID]
	if !ok {
		return
	}
	delete(q.items, oldID)
	item.EntryID = newID
	item.Snapshot.ID = newID
	q.items[newID] = item
}

// RecordTransientFailure bumps the retry count and schedules the next
// attempt on the backoff schedule. Once the retry cap is exceeded the item
// is parked pending an explicit retry. Returns the updated state.
func (q *Queue) RecordTransientFailure(id string, cause error) (*Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.items[id]
	if !ok {
		return nil, false
	}
	item.RetryCount++
	item.NextAttempt = q.now().Add(q.backoff.Delay(item.RetryCount))
	if cause != nil {
		item.LastError = cause.Error()
	}
	if item.RetryCount > q.maxRetries {
		item.Parked = true
	}
	return item.clone(), true
}

// Defer pushes the item's next attempt into the future without touching its
// retry budget or parked state. Used when delivery is blocked by something
// retries alone cannot fix, like stale credentials.
func (q *Queue) Defer(id string, delay time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.items[id]
	if !ok {
		return
	}
	item.NextAttempt = q.now().Add(delay)
}

// RecordPermanentFailure parks the item immediately: it stays queued but
// leaves the automatic rotation. Returns the updated state.
func (q *Queue) RecordPermanentFailure(id string, cause error) (*Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.items[id]
	if !ok {
		return nil, false
	}
	item.Parked = true
	if cause != nil {
		item.LastError = cause.Error()
	}
	return item.clone(), true
}

// ReviveParked puts every parked item back into the rotation with a fresh
// retry budget. This is the explicit user-triggered retry path.
func (q *Queue) ReviveParked() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	n := 0
	for _, item := range q.items {
		if !item.Parked {
			continue
		}
		item.Parked = false
		item.RetryCount = 0
		item.NextAttempt = now
		item.LastError = ""
		n++
	}
	return n
}

// ResetSchedule makes every unparked item due immediately, keeping retry
// counts. Called after first authentication so preserved pre-auth items get
// an immediate retry pass.
func (q *Queue) ResetSchedule() {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	for _, item := range q.items {
		if item.Parked {
			continue
		}
		item.NextAttempt = now
	}
}

// Clear drops every queued item. Called on user switch, where operations
// queued for the old user must not run under the new identity.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = make(map[string]*Item)
}

// Len returns the number of queued items, parked ones included.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
