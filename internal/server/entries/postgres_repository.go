package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/daybookapp/daybook/internal/common"
	"github.com/daybookapp/daybook/internal/dbx"
	"github.com/daybookapp/daybook/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*models.Entry, error) {
	query :=
		`SELECT id, user_id, date, type, blocks, created_at, updated_at FROM entries
		 WHERE user_id = $1 AND id = $2
		 `
	return r.getOne(ctx, query, userID, id)
}

func (r *PostgresRepository) GetByUserAndDate(ctx context.Context, userID, date string) (*models.Entry, error) {
	query :=
		`SELECT id, user_id, date, type, blocks, created_at, updated_at FROM entries
		 WHERE user_id = $1 AND date = $2
		 `
	return r.getOne(ctx, query, userID, date)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Entry, error) {
	entry := &models.Entry{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&entry.ID, &entry.UserID, &entry.Date, &entry.Type, &entry.Blocks, &entry.CreatedAt, &entry.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entry, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Entry, error) {
	query :=
		`SELECT id, user_id, date, type, blocks, created_at, updated_at FROM entries
		 WHERE user_id = $1
		 ORDER BY date
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		entry := &models.Entry{}
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Date, &entry.Type, &entry.Blocks,
			&entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) UpsertByID(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
	query :=
		`INSERT INTO entries (id, user_id, date, type, blocks, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE
		 SET type = excluded.type, blocks = excluded.blocks, updated_at = excluded.updated_at
		 WHERE entries.user_id = excluded.user_id AND entries.updated_at <= excluded.updated_at
		 RETURNING id, user_id, date, type, blocks, created_at, updated_at
		 `
	return r.upsert(ctx, query, entry, func() (*models.Entry, error) {
		return r.GetByID(ctx, entry.UserID, entry.ID)
	})
}

func (r *PostgresRepository) UpsertByDate(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
	query :=
		`INSERT INTO entries (id, user_id, date, type, blocks, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id, date) DO UPDATE
		 SET type = excluded.type, blocks = excluded.blocks, updated_at = excluded.updated_at
		 WHERE entries.updated_at <= excluded.updated_at
		 RETURNING id, user_id, date, type, blocks, created_at, updated_at
		 `
	return r.upsert(ctx, query, entry, func() (*models.Entry, error) {
		return r.GetByUserAndDate(ctx, entry.UserID, entry.Date)
	})
}

// upsert runs an insert-or-update statement. When the conditional update
// keeps the existing (newer) row, the statement returns no row; the stored
// state is then fetched so the caller always gets what the server holds.
func (r *PostgresRepository) upsert(ctx context.Context, query string, entry *models.Entry, current func() (*models.Entry, error)) (*models.Entry, error) {
	stored := &models.Entry{}
	err := r.db.QueryRowContext(ctx, query,
		entry.ID, entry.UserID, entry.Date, entry.Type, entry.Blocks, entry.CreatedAt, entry.UpdatedAt).Scan(
		&stored.ID, &stored.UserID, &stored.Date, &stored.Type, &stored.Blocks, &stored.CreatedAt, &stored.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return current()
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return stored, nil
}
