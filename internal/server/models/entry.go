package models

import (
	"encoding/json"
	"time"
)

// Entry is one journal record as stored server-side. Blocks are kept as an
// opaque JSON document; the server orders and filters by the indexed columns
// and never interprets block contents.
type Entry struct {
	ID        string
	UserID    string
	Date      string
	Type      string
	Blocks    json.RawMessage
	CreatedAt time.Time

	// UpdatedAt carries the client's timestamp: last write wins, and a
	// replayed older snapshot must not clobber a newer one.
	UpdatedAt time.Time
}
