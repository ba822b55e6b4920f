package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/daybookapp/daybook/internal/client/localstore/migrations"
	"github.com/daybookapp/daybook/internal/client/models"
	"github.com/daybookapp/daybook/internal/common"
	"github.com/daybookapp/daybook/internal/dbx"
	"github.com/pressly/goose/v3"
)

// SQLiteStore implements Store on a local SQLite database. Entries are kept
// as JSON payloads in an id-keyed table plus a separate date index table,
// both carrying a per-user namespace column.
type SQLiteStore struct {
	db *sql.DB
	ns string
}

// NewSQLiteStore binds a store to db under the given namespace. The
// namespace is typically a user id; use "anonymous" before sign-in.
func NewSQLiteStore(db *sql.DB, namespace string) *SQLiteStore {
	return &SQLiteStore{db: db, ns: namespace}
}

// WithNamespace returns a store over the same database bound to another
// namespace. Used on user switch.
func (s *SQLiteStore) WithNamespace(namespace string) *SQLiteStore {
	return &SQLiteStore{db: s.db, ns: namespace}
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the client database at dsn and applies migrations.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return db, nil
}

func (s *SQLiteStore) Put(ctx context.Context, entry *models.JournalEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query := `INSERT INTO entries (ns, id, payload)
			VALUES (?, ?, ?)
			ON CONFLICT(ns, id) DO UPDATE SET payload = excluded.payload`
		if _, err := tx.ExecContext(ctx, query, s.ns, entry.ID, payload); err != nil {
			return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
		}

		query = `INSERT INTO date_index (ns, date, entry_id)
			VALUES (?, ?, ?)
			ON CONFLICT(ns, date) DO UPDATE SET entry_id = excluded.entry_id`
		if _, err := tx.ExecContext(ctx, query, s.ns, entry.Date, entry.ID); err != nil {
			return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
		}
		return nil
	})
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.JournalEntry, error) {
	return s.getOne(ctx, `SELECT payload FROM entries WHERE ns=? AND id=?`, s.ns, id)
}

func (s *SQLiteStore) GetByDate(ctx context.Context, date string) (*models.JournalEntry, error) {
	query := `SELECT e.payload FROM date_index d
		JOIN entries e ON e.ns = d.ns AND e.id = d.entry_id
		WHERE d.ns=? AND d.date=?`
	return s.getOne(ctx, query, s.ns, date)
}

func (s *SQLiteStore) getOne(ctx context.Context, query string, args ...any) (*models.JournalEntry, error) {
	var payload []byte
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return decodeEntry(payload)
}

func (s *SQLiteStore) GetAll(ctx context.Context) ([]*models.JournalEntry, error) {
	query := `SELECT payload FROM entries WHERE ns=? ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, s.ns)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []*models.JournalEntry
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		entry, err := decodeEntry(payload)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *SQLiteStore) Rekey(ctx context.Context, oldID, newID string) error {
	entry, err := s.Get(ctx, oldID)
	if err != nil {
		return err
	}
	entry.ID = newID

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM entries WHERE ns=? AND id=?`, s.ns, oldID); err != nil {
			return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entries (ns, id, payload) VALUES (?, ?, ?)
			 ON CONFLICT(ns, id) DO UPDATE SET payload = excluded.payload`,
			s.ns, newID, payload); err != nil {
			return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE date_index SET entry_id=? WHERE ns=? AND entry_id=?`,
			newID, s.ns, oldID); err != nil {
			return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
		}
		return nil
	})
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM date_index WHERE ns=? AND entry_id=?`, s.ns, id); err != nil {
			return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM entries WHERE ns=? AND id=?`, s.ns, id); err != nil {
			return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
		}
		return nil
	})
}

// decodeEntry validates persisted payloads on the way out, so malformed
// local data fails fast instead of propagating.
func decodeEntry(payload []byte) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode entry: %w", err)
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return &entry, nil
}
