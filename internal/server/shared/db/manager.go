package db

import (
	"context"
	"database/sql"

	"github.com/daybookapp/daybook/internal/server/entries"
	"github.com/daybookapp/daybook/internal/server/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Users() users.Repository
	Entries() entries.Repository
	Close() error
}
