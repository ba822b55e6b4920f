package cli

import (
	"bufio"
	"context"
	"log"
	"os"
	"time"

	"github.com/daybookapp/daybook/internal/client/config"
	"github.com/daybookapp/daybook/internal/client/engine"
	"github.com/daybookapp/daybook/internal/client/identity"
	"github.com/daybookapp/daybook/internal/client/localstore"
	"github.com/daybookapp/daybook/internal/client/remote"
	"github.com/daybookapp/daybook/internal/client/syncqueue"
	"github.com/daybookapp/daybook/internal/logging"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config   *config.Config
	engine   *engine.Engine
	client   remote.Client
	userName string
	Mode     Mode
	reader   *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	db, err := localstore.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	store := localstore.NewSQLiteStore(db, "anonymous")
	queue := syncqueue.New(syncqueue.Backoff{
		Base:       c.BackoffBase,
		Max:        c.BackoffMax,
		Multiplier: 2.0,
	}, c.MaxRetries)

	apiClient := remote.NewHTTPClient(c.ServerEndpointAddr)

	eng := engine.New(store, queue, identity.NewBinder(), apiClient, logging.NewJSON(os.Stderr),
		engine.WithDrainInterval(c.DrainInterval),
		engine.WithStoreProvider(func(userID string) localstore.Store {
			return store.WithNamespace(userID)
		}),
	)

	return &App{config: c, engine: eng, client: apiClient, reader: bufio.NewReader(os.Stdin)}, nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

// Run starts the background sync loop and the connectivity watcher, then
// hands control to the REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.client.Close()

	go a.engine.Run(ctx)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.client.Ping(ctx)
			cancel()

			if err != nil {
				if a.Mode == ModeOnline {
					a.setMode(ModeOffline)
				}
			} else {
				if a.Mode != ModeOnline {
					a.setMode(ModeOnline)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}
