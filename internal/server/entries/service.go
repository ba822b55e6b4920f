package entries

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/daybookapp/daybook/internal/server/models"
	"github.com/google/uuid"
)

// tempIDPrefix marks client-minted placeholder ids. The server never issues
// ids carrying it; such an entry is resolved by its calendar date instead.
const tempIDPrefix = "local-"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Upsert persists one entry snapshot for userID and returns the stored row.
//
// A snapshot under a temporary id is keyed by (user, date): the first
// delivery mints a permanent id, and every retry of the same snapshot — or a
// delivery from a client that never learned the permanent id — converges on
// that row. Snapshots under a permanent id are keyed by the id itself.
// Either way the write is last-write-wins on the client's updatedAt, so the
// call is safe to repeat.
func (s *Service) Upsert(ctx context.Context, userID string, entry *models.Entry) (*models.Entry, error) {

	entry.UserID = userID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = entry.CreatedAt
	}

	if strings.HasPrefix(entry.ID, tempIDPrefix) {
		entry.ID = uuid.NewString()
		stored, err := s.repo.UpsertByDate(ctx, entry)
		if err != nil {
			return nil, fmt.Errorf("error saving entry: %w", err)
		}
		return stored, nil
	}

	stored, err := s.repo.UpsertByID(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("error saving entry: %w", err)
	}
	return stored, nil
}

// List returns every entry belonging to userID.
func (s *Service) List(ctx context.Context, userID string) ([]*models.Entry, error) {
	result, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing entries: %w", err)
	}
	return result, nil
}
