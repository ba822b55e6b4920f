// Package server initializes and runs the daybook sync backend. It wires
// the Postgres repositories, the user and entry services, and the HTTP API,
// and handles graceful shutdown on OS signals.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/daybookapp/daybook/internal/logging"
	"github.com/daybookapp/daybook/internal/server/config"
	"github.com/daybookapp/daybook/internal/server/entries"
	"github.com/daybookapp/daybook/internal/server/httpapi"
	"github.com/daybookapp/daybook/internal/server/shared/db"
	"github.com/daybookapp/daybook/internal/server/users"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	manager      db.RepositoryManager
	userService  *users.Service
	entryService *entries.Service
}

func NewApp(c *config.Config) (*App, error) {

	slog := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slog)

	m, err := db.NewPostgresRepositoryManager(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	us := users.NewService(m.Users(), c)
	es := entries.NewService(m.Entries())

	return &App{config: c, logger: logger, manager: m, userService: us, entryService: es}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	router := httpapi.NewRouter(
		httpapi.NewAuthHandler(app.userService),
		httpapi.NewEntryHandler(app.entryService),
		[]byte(app.config.SecretKey),
	)

	s := httpapi.NewServer(app.config.EndpointAddr, router, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run() {

	ctx, cancelFunc := context.WithCancel(context.Background())

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.manager.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
