// Package localstore provides the durable, synchronous, per-device cache of
// journal entries. It is the read-of-record for the client: the remote store
// is a write-behind target and never a read source on the hot path.
//
// Two logical namespaces are kept: an id-keyed entry slot and a date→id
// index, both scoped per user so accounts sharing a device never leak into
// each other.
package localstore

import (
	"context"

	"github.com/daybookapp/daybook/internal/client/models"
)

// Store is a synchronous key-value persistence boundary. Implementations
// perform no network access and have no awareness of authentication.
//
// Absence is reported as common.ErrNotFound, never as a panic or a nil
// dereference. Storage failures (disk full, closed handle) are returned
// loudly; callers treat them as fatal because offline-first durability has
// broken.
type Store interface {
	// Put writes the entry under its id-keyed slot and updates the
	// date→id index entry.
	Put(ctx context.Context, entry *models.JournalEntry) error

	// Get returns the entry stored under id.
	Get(ctx context.Context, id string) (*models.JournalEntry, error)

	// GetByDate resolves the date index and returns the entry for date.
	GetByDate(ctx context.Context, date string) (*models.JournalEntry, error)

	// GetAll returns every entry present, including ones not yet synced
	// remotely (temporary-id entries).
	GetAll(ctx context.Context) ([]*models.JournalEntry, error)

	// Rekey atomically moves an entry from oldID to newID in both the
	// id slot and the date index. Used when a temporary id is replaced
	// by the permanent server-issued one.
	Rekey(ctx context.Context, oldID, newID string) error

	// Delete removes the entry and its date-index row.
	Delete(ctx context.Context, id string) error
}
