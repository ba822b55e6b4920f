package entries

import (
	"context"

	"github.com/daybookapp/daybook/internal/server/models"
)

type Repository interface {
	GetByID(ctx context.Context, userID, id string) (*models.Entry, error)
	GetByUserAndDate(ctx context.Context, userID, date string) (*models.Entry, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Entry, error)

	// UpsertByID writes the entry keyed on its id. An existing row is only
	// overwritten when the incoming updatedAt is not older, so replayed
	// snapshots cannot clobber newer state. The stored row is returned.
	UpsertByID(ctx context.Context, entry *models.Entry) (*models.Entry, error)

	// UpsertByDate writes the entry keyed on (userID, date). Used when the
	// client does not yet know a permanent id: repeated deliveries for the
	// same date converge on one row instead of duplicating it.
	UpsertByDate(ctx context.Context, entry *models.Entry) (*models.Entry, error)
}
