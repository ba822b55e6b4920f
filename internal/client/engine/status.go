package engine

// Status is the non-blocking sync indicator exposed to the UI. Editing is
// never blocked by sync state; this is the only surface remote failures
// reach.
type Status string

const (
	// StatusIdle: nothing pending, no drain has run yet.
	StatusIdle Status = "idle"

	// StatusSyncing: items are queued or a drain pass is in flight.
	StatusSyncing Status = "syncing"

	// StatusSynced: every queued write has been delivered.
	StatusSynced Status = "synced"

	// StatusError: at least one item is parked and needs attention.
	StatusError Status = "error"
)
