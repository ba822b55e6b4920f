// Package engine implements the client-side offline-first synchronization
// engine for journal entries. The engine accepts edits instantly, writes
// them through to the local store synchronously, and reconciles them against
// the remote store in the background.
//
// The engine is an explicit context object: construct one per authenticated
// session and pass it by reference to the UI layer. Only the engine mutates
// the local store and the sync queue.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/daybookapp/daybook/internal/client/identity"
	"github.com/daybookapp/daybook/internal/client/localstore"
	"github.com/daybookapp/daybook/internal/client/models"
	"github.com/daybookapp/daybook/internal/client/remote"
	"github.com/daybookapp/daybook/internal/client/syncqueue"
	"github.com/daybookapp/daybook/internal/common"
	"github.com/daybookapp/daybook/internal/logging"
)

// StoreProvider returns the local store bound to a user's namespace. It is
// consulted on user switch, so state written for one account is never read
// under another.
type StoreProvider func(userID string) localstore.Store

// unauthorizedDefer is how long an item sits out after an unauthorized
// delivery. Retrying sooner cannot succeed until the user logs in again,
// which makes the queue due immediately anyway.
const unauthorizedDefer = 30 * time.Second

// Engine orchestrates the local store, the sync queue, the identity binder
// and the remote adapter.
//
// All mutating operations write to the local store before returning and
// never perform a blocking network call on the synchronous path. Local
// store failures are fatal to the calling operation; remote failures only
// ever affect queue state and surface through the status observable.
type Engine struct {
	queue  *syncqueue.Queue
	binder *identity.Binder
	client remote.Client
	log    logging.Logger

	mu         sync.Mutex
	store      localstore.Store
	storeFor   StoreProvider
	generation int

	status    Status
	statusFns []func(Status)

	now  func() time.Time
	kick chan struct{}

	drainInterval time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the engine's time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithStoreProvider installs the per-user store factory used on user switch.
func WithStoreProvider(p StoreProvider) Option {
	return func(e *Engine) { e.storeFor = p }
}

// WithDrainInterval sets how often the background loop checks for due items.
func WithDrainInterval(d time.Duration) Option {
	return func(e *Engine) { e.drainInterval = d }
}

// New wires an engine together. The store is the session's local store
// (pre-auth it is the anonymous namespace; it stays bound through first
// authentication).
func New(store localstore.Store, queue *syncqueue.Queue, binder *identity.Binder, client remote.Client, log logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		queue:         queue,
		binder:        binder,
		client:        client,
		log:           log,
		status:        StatusIdle,
		now:           time.Now,
		kick:          make(chan struct{}, 1),
		drainInterval: time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateEntryImmediately synchronously creates an entry for date, writes it
// to the local store and returns it. The id is temporary; the UI never waits
// on remote latency for entry creation. The remote write is queued and
// happens in the background.
func (e *Engine) CreateEntryImmediately(ctx context.Context, date string, entryType models.EntryType) (*models.JournalEntry, error) {
	now := e.now().UTC()
	entry := &models.JournalEntry{
		ID:        models.NewTemporaryID(),
		Date:      date,
		Type:      entryType,
		Blocks:    []models.Block{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.Put(ctx, entry); err != nil {
		return nil, fmt.Errorf("local write failed: %w", err)
	}
	e.queue.Enqueue(entry)
	e.wake()
	e.refreshStatusLocked()

	return entry.Clone(), nil
}

// UpdateEntryFast synchronously replaces the entry's blocks, bumps
// updatedAt and queues the new snapshot for delivery. Safe to call at high
// frequency; queue coalescing bounds the pending work to one item per
// entry.
func (e *Engine) UpdateEntryFast(ctx context.Context, entryID string, blocks []models.Block) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.store.Get(ctx, entryID)
	if err != nil {
		return fmt.Errorf("entry %s: %w", entryID, err)
	}

	entry.Blocks = blocks
	entry.UpdatedAt = e.now().UTC()

	if err := e.store.Put(ctx, entry); err != nil {
		return fmt.Errorf("local write failed: %w", err)
	}
	e.queue.Enqueue(entry)
	e.wake()
	e.refreshStatusLocked()
	return nil
}

// GetEntryByDate returns the entry for a calendar date from the local store.
func (e *Engine) GetEntryByDate(ctx context.Context, date string) (*models.JournalEntry, error) {
	e.mu.Lock()
	store := e.store
	e.mu.Unlock()
	return store.GetByDate(ctx, date)
}

// GetAllEntries is the authoritative read: the local store's view, including
// entries not yet synced remotely.
func (e *Engine) GetAllEntries(ctx context.Context) ([]*models.JournalEntry, error) {
	e.mu.Lock()
	store := e.store
	e.mu.Unlock()
	return store.GetAll(ctx)
}

// SetUserID forwards an identity change to the binder and acts on the
// transition:
//
//   - first authentication: queued pre-auth items are preserved and
//     scheduled for an immediate retry pass, and orphaned temporary-id
//     entries in the local store are recovered into the queue;
//   - user switch: the queue is cleared and any in-flight drain result is
//     discarded — operations queued for the old user must not run under the
//     new identity; the local store is rebound to the new user's namespace;
//   - sign-out: queued items are retained but not drained until a new
//     identity is bound.
func (e *Engine) SetUserID(ctx context.Context, userID string) error {
	transition := e.binder.SetUserID(userID)

	switch transition {
	case identity.TransitionNone:
		return nil

	case identity.TransitionFirstAuth:
		e.log.Info(ctx, "identity bound", "transition", transition.String())
		e.queue.ResetSchedule()
		if _, err := e.RetryAuthSync(ctx); err != nil {
			return err
		}
		e.wake()

	case identity.TransitionSwitch:
		e.log.Info(ctx, "user switch, clearing queued work", "transition", transition.String())
		e.mu.Lock()
		e.generation++
		e.queue.Clear()
		if e.storeFor != nil {
			e.store = e.storeFor(userID)
		}
		e.refreshStatusLocked()
		e.mu.Unlock()
		e.wake()

	case identity.TransitionSignOut:
		e.log.Info(ctx, "signed out, retaining queued work", "transition", transition.String())
	}

	return nil
}

// RetryAuthSync scans the local store for entries still carrying the
// temporary-id prefix and enqueues every one not already represented in the
// queue. The queue is not the only source of truth for "what needs
// syncing"; temporary-id entries in the local store are a second,
// authoritative signal. Returns how many entries were recovered.
func (e *Engine) RetryAuthSync(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries, err := e.store.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("orphan scan failed: %w", err)
	}

	recovered := 0
	for _, entry := range entries {
		if !models.IsTemporaryID(entry.ID) || e.queue.Has(entry.ID) {
			continue
		}
		e.queue.Enqueue(entry)
		recovered++
	}
	if recovered > 0 {
		e.log.Info(ctx, "recovered orphaned entries into sync queue", "count", recovered)
		e.wake()
	}
	e.refreshStatusLocked()
	return recovered, nil
}

// RetryParked puts parked items back on the automatic rotation. This is the
// explicit, user-triggered retry for permanently-rejected or retry-capped
// items.
func (e *Engine) RetryParked() int {
	n := e.queue.ReviveParked()
	if n > 0 {
		e.wake()
	}
	e.mu.Lock()
	e.refreshStatusLocked()
	e.mu.Unlock()
	return n
}

// Drain attempts to deliver every due queued item to the remote store.
// Without a bound identity the pass is skipped and every item stays queued.
// Remote failures never propagate to the caller; they adjust queue state
// and the status observable.
func (e *Engine) Drain(ctx context.Context) {
	if e.binder.UserID() == "" {
		e.log.Debug(ctx, "drain skipped, no identity bound")
		return
	}

	due := e.queue.Due()
	if len(due) == 0 {
		e.mu.Lock()
		e.refreshStatusLocked()
		e.mu.Unlock()
		return
	}

	e.setStatus(StatusSyncing)

	e.mu.Lock()
	gen := e.generation
	e.mu.Unlock()

	for _, item := range due {
		// Suspension point: no engine lock is held across the network
		// call.
		result, err := e.client.Upsert(ctx, item.Snapshot)

		e.mu.Lock()
		if e.generation != gen || e.binder.UserID() == "" {
			// User switched or signed out while the call was in flight;
			// the result belongs to the previous identity and must not
			// be applied, and no further items may be sent.
			e.mu.Unlock()
			e.log.Warn(ctx, "abandoning drain pass after identity change")
			return
		}
		if err != nil {
			e.recordFailureLocked(ctx, item, err)
		} else {
			e.applySuccessLocked(ctx, item, result)
		}
		e.refreshStatusLocked()
		e.mu.Unlock()
	}
}

// applySuccessLocked clears the delivered item and migrates a temporary id
// to the permanent one everywhere the entry is keyed: id slot, date index
// and queue key. Caller holds e.mu.
func (e *Engine) applySuccessLocked(ctx context.Context, item *syncqueue.Item, result *remote.UpsertResult) {
	id := item.EntryID
	if result.ID != "" && result.ID != id {
		if err := e.store.Rekey(ctx, id, result.ID); err != nil && !errors.Is(err, common.ErrNotFound) {
			e.log.Error(ctx, "failed to migrate entry id", "from", id, "to", result.ID, "error", err)
			return
		}
		e.queue.Rekey(id, result.ID)
		id = result.ID
		e.log.Info(ctx, "entry received permanent id", "id", id)
	}

	// Keep the item queued when a newer snapshot arrived while this one
	// was in flight; the next pass delivers the latest state.
	if cur, ok := e.queue.Get(id); ok && !cur.Snapshot.UpdatedAt.After(item.Snapshot.UpdatedAt) {
		e.queue.Remove(id)
	}
}

// recordFailureLocked routes a delivery failure into the retry machinery.
// Caller holds e.mu.
func (e *Engine) recordFailureLocked(ctx context.Context, item *syncqueue.Item, err error) {
	switch {
	case remote.IsPermanent(err):
		e.queue.RecordPermanentFailure(item.EntryID, err)
		e.log.Error(ctx, "entry rejected by server", "id", item.EntryID, "error", err)
	case errors.Is(err, common.ErrUnauthorized):
		// Not an error state: the identity is stale or missing. The item
		// stays queued but is pushed out so a stale token does not cause
		// a re-send on every tick; a fresh login resets the schedule.
		e.queue.Defer(item.EntryID, unauthorizedDefer)
		e.log.Warn(ctx, "drain deferred, unauthorized", "id", item.EntryID)
	default:
		updated, _ := e.queue.RecordTransientFailure(item.EntryID, err)
		if updated != nil && updated.Parked {
			e.log.Warn(ctx, "retry cap reached, parking entry", "id", item.EntryID, "retries", updated.RetryCount)
		} else {
			e.log.Debug(ctx, "transient delivery failure", "id", item.EntryID, "error", err)
		}
	}
}

// ReconcileRemote merges the server's entries into the local store:
// last-write-wins by updatedAt, and entries with local pending writes are
// never overwritten. Used for initial load across devices, outside the hot
// sync path.
func (e *Engine) ReconcileRemote(ctx context.Context) error {
	if e.binder.UserID() == "" {
		return common.ErrUnauthorized
	}

	entries, err := e.client.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, incoming := range entries {
		if e.queue.Has(incoming.ID) {
			continue
		}
		local, err := e.store.Get(ctx, incoming.ID)
		if err == nil && local.UpdatedAt.After(incoming.UpdatedAt) {
			continue
		}
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("local read failed: %w", err)
		}
		if err := e.store.Put(ctx, incoming); err != nil {
			return fmt.Errorf("local write failed: %w", err)
		}
	}
	return nil
}

// Run drives periodic drains until ctx is cancelled. Mutating operations
// wake it early so new writes are attempted without waiting a full tick.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-e.kick:
		}
		e.Drain(ctx)
	}
}

// Status returns the current sync indicator.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// OnStatusChange registers fn to be called whenever the indicator changes.
// fn must not call back into the engine.
func (e *Engine) OnStatusChange(fn func(Status)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statusFns = append(e.statusFns, fn)
}

// PendingCount returns the number of queued items, parked ones included.
func (e *Engine) PendingCount() int {
	return e.queue.Len()
}

func (e *Engine) wake() {
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

func (e *Engine) setStatus(s Status) {
	e.mu.Lock()
	e.setStatusLocked(s)
	e.mu.Unlock()
}

func (e *Engine) setStatusLocked(s Status) {
	if e.status == s {
		return
	}
	e.status = s
	for _, fn := range e.statusFns {
		fn(s)
	}
}

// refreshStatusLocked derives the indicator from queue state: parked items
// mean error, pending items mean syncing, an empty queue means synced (or
// idle before any work existed). Caller holds e.mu.
func (e *Engine) refreshStatusLocked() {
	all := e.queue.All()
	if len(all) == 0 {
		if e.status != StatusIdle {
			e.setStatusLocked(StatusSynced)
		}
		return
	}
	for _, item := range all {
		if item.Parked {
			e.setStatusLocked(StatusError)
			return
		}
	}
	e.setStatusLocked(StatusSyncing)
}
