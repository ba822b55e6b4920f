// Package remote is the thin request/response adapter to the backend entry
// store. The engine consumes its contract: idempotent upsert by id, and a
// "transient" vs "permanent" failure distinction expressed through sentinel
// errors.
package remote

import (
	"context"
	"errors"
	"time"

	"github.com/daybookapp/daybook/internal/client/models"
	"github.com/daybookapp/daybook/internal/common"
)

// UpsertResult carries the server's view of the entry after an upsert. ID is
// the permanent id; when the client sent a temporary id, ID differs from it
// and the caller must migrate every local reference.
type UpsertResult struct {
	ID        string
	UpdatedAt time.Time
}

// Client is the transport-agnostic contract to the daybook backend.
//
// Upsert must be idempotent under retry: the same logical entry delivered
// twice must not create two remote records. The server guarantees this by
// keying on the entry id once one has been issued, and on (user id, date)
// while the id is still temporary.
//
// Failures are classified through sentinel errors, matched with errors.Is:
//
//	common.ErrUnavailable  — transient (network, timeout, 5xx); retry later
//	common.ErrRejected     — permanent (validation/schema rejection); park
//	common.ErrUnauthorized — identity problem; drain is deferred
type Client interface {
	Close() error
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (userID string, err error)
	Ping(ctx context.Context) error
	Upsert(ctx context.Context, entry *models.JournalEntry) (*UpsertResult, error)
	FetchAll(ctx context.Context) ([]*models.JournalEntry, error)
}

// IsTransient reports whether err should stay on the automatic retry
// rotation.
func IsTransient(err error) bool {
	return errors.Is(err, common.ErrUnavailable)
}

// IsPermanent reports whether err means the snapshot will never be accepted
// as-is.
func IsPermanent(err error) bool {
	return errors.Is(err, common.ErrRejected)
}
