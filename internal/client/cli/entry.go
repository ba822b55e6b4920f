package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/daybookapp/daybook/internal/client/models"
	"github.com/daybookapp/daybook/internal/common"
)

// nowFn is a test seam for the current time.
var nowFn = time.Now

// Today opens today's journal entry, creating it locally when none exists
// yet. Creation never waits on the server; the entry starts under a
// temporary id and is adopted on sync.
func (a *App) Today(ctx context.Context) error {
	entry, err := a.todayEntry(ctx)
	if err != nil {
		return err
	}
	printEntry(entry)
	return nil
}

// Write appends a paragraph to today's entry. The text is persisted locally
// before the command returns; delivery happens in the background.
func (a *App) Write(ctx context.Context) error {
	entry, err := a.todayEntry(ctx)
	if err != nil {
		return err
	}

	text, err := GetMultiline(a.reader, "Write your paragraph", os.Stdout)
	if err != nil {
		return err
	}
	if text == "" {
		fmt.Println("Nothing to add.")
		return nil
	}

	blocks := append(entry.Blocks, models.Block{
		ID:        models.NewBlockID(entry.ID),
		Type:      models.BlockTypeParagraph,
		Text:      text,
		CreatedAt: nowFn().UTC(),
	})
	if err := a.engine.UpdateEntryFast(ctx, entry.ID, blocks); err != nil {
		return err
	}

	fmt.Println("Saved.")
	return nil
}

// List prints every entry in the local store, newest date first.
func (a *App) List(ctx context.Context) error {
	entries, err := a.engine.GetAllEntries(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No entries yet.")
		return nil
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Date > entries[j].Date })
	for _, entry := range entries {
		marker := ""
		if models.IsTemporaryID(entry.ID) {
			marker = " (not yet synced)"
		}
		fmt.Printf("%s  %s  %d block(s)%s\n", entry.Date, entry.Type, len(entry.Blocks), marker)
	}
	return nil
}

// Sync forces an immediate delivery pass and, when logged in, pulls remote
// entries into the local store.
func (a *App) Sync(ctx context.Context) error {
	a.engine.Drain(ctx)

	if a.isLoggedIn() {
		if err := a.engine.ReconcileRemote(ctx); err != nil {
			fmt.Printf("Pull failed: %s\n", err.Error())
			return err
		}
	}
	fmt.Printf("Sync state: %s, %d pending\n", a.engine.Status(), a.engine.PendingCount())
	return nil
}

// Status prints the sync indicator and pending queue size.
func (a *App) Status(ctx context.Context) error {
	fmt.Printf("State: %s\n", a.engine.Status())
	fmt.Printf("Pending: %d\n", a.engine.PendingCount())
	return nil
}

// Retry revives entries parked after server rejections or exhausted retries.
func (a *App) Retry(ctx context.Context) error {
	n := a.engine.RetryParked()
	fmt.Printf("Revived %d entr(y/ies)\n", n)
	return nil
}

func (a *App) todayEntry(ctx context.Context) (*models.JournalEntry, error) {
	date := nowFn().Format(models.DateLayout)

	entry, err := a.engine.GetEntryByDate(ctx, date)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	entry, err = a.engine.CreateEntryImmediately(ctx, date, models.EntryTypeGeneral)
	if err != nil {
		return nil, err
	}
	fmt.Printf("Created entry for %s\n", date)
	return entry, nil
}

func printEntry(entry *models.JournalEntry) {
	fmt.Printf("%s (%s)\n", entry.Date, entry.Type)
	if len(entry.Blocks) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for _, block := range entry.Blocks {
		fmt.Printf("  - %s\n", block.Text)
	}
}
