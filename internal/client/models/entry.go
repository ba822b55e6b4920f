// Package models defines client-side data models used by the daybook client.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// TempIDPrefix marks identifiers minted locally before the server has issued
// a permanent one. The prefix is reserved: the server never issues ids that
// start with it.
const TempIDPrefix = "local-"

// DateLayout is the calendar-date format used throughout the client.
const DateLayout = "2006-01-02"

// EntryType classifies a journal entry kind.
type EntryType string

const (
	EntryTypeGeneral   EntryType = "general"
	EntryTypeGratitude EntryType = "gratitude"
	EntryTypeMorning   EntryType = "morning"
	EntryTypeEvening   EntryType = "evening"
)

// BlockType classifies a unit of journal content.
type BlockType string

const (
	BlockTypeParagraph BlockType = "paragraph"
	BlockTypeHeading   BlockType = "heading"
	BlockTypeQuote     BlockType = "quote"
	BlockTypeList      BlockType = "list"
)

// Block is one unit of journal content. Block ids are qualified with the
// owning entry id so they never collide across entries.
type Block struct {
	ID        string    `json:"id" validate:"required"`
	Type      BlockType `json:"type" validate:"required"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// JournalEntry is one journal record for a calendar date, composed of
// ordered blocks. Block ordering is preserved verbatim between local and
// remote representations; the last full write wins.
type JournalEntry struct {
	// ID is either a permanent server-issued id or a temporary local one
	// (distinguishable by TempIDPrefix).
	ID string `json:"id" validate:"required"`

	// Date is the calendar date in DateLayout form. One logical entry per
	// date per user, though uniqueness is not enforced at this layer.
	Date string `json:"date" validate:"required,datetime=2006-01-02"`

	Type EntryType `json:"type" validate:"required"`

	Blocks []Block `json:"blocks" validate:"dive"`

	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the authority for conflict/staleness decisions.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewTemporaryID mints a placeholder entry id carrying the reserved prefix.
func NewTemporaryID() string {
	return TempIDPrefix + uuid.NewString()
}

// IsTemporaryID reports whether id was minted locally and still awaits a
// permanent server-issued replacement.
func IsTemporaryID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// NewBlockID mints a block id scoped under the owning entry.
func NewBlockID(entryID string) string {
	return fmt.Sprintf("%s:%s", entryID, uuid.NewString())
}

var validate = validator.New()

// Validate checks the entry against its declared constraints. It is applied
// at the local-store and remote-store boundaries so malformed persisted data
// fails fast instead of propagating.
func (e *JournalEntry) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("invalid entry: %w", err)
	}
	return nil
}

// Clone returns a deep copy of the entry. The engine hands out and enqueues
// clones so callers can never mutate a stored snapshot through a shared
// blocks slice.
func (e *JournalEntry) Clone() *JournalEntry {
	c := *e
	c.Blocks = make([]Block, len(e.Blocks))
	copy(c.Blocks, e.Blocks)
	return &c
}

// ContentEquals reports whether two entries carry the same logical content:
// same date, type and blocks, in order. Timestamps and ids are excluded so
// a temp→permanent id migration or an updatedAt bump alone does not count
// as a content change.
func (e *JournalEntry) ContentEquals(other *JournalEntry) bool {
	if other == nil {
		return false
	}
	if e.Date != other.Date || e.Type != other.Type || len(e.Blocks) != len(other.Blocks) {
		return false
	}
	for i := range e.Blocks {
		a, b := e.Blocks[i], other.Blocks[i]
		if a.ID != b.ID || a.Type != b.Type || a.Text != b.Text {
			return false
		}
	}
	return true
}
