package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/daybookapp/daybook/internal/common"
	"github.com/daybookapp/daybook/internal/server/models"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// EntryService is the slice of the entries service the entry endpoints need.
type EntryService interface {
	Upsert(ctx context.Context, userID string, entry *models.Entry) (*models.Entry, error)
	List(ctx context.Context, userID string) ([]*models.Entry, error)
}

type EntryHandler struct {
	entries   EntryService
	validator *validator.Validate
}

func NewEntryHandler(entries EntryService) *EntryHandler {
	return &EntryHandler{
		entries:   entries,
		validator: validator.New(),
	}
}

// entryPayload is the wire form of one journal entry. Blocks stay an opaque
// JSON array; the server stores them verbatim.
type entryPayload struct {
	ID        string          `json:"id" validate:"required"`
	Date      string          `json:"date" validate:"required,datetime=2006-01-02"`
	Type      string          `json:"type" validate:"required"`
	Blocks    json.RawMessage `json:"blocks"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type upsertResponse struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type listResponse struct {
	Entries []entryPayload `json:"entries"`
}

func toPayload(e *models.Entry) entryPayload {
	blocks := e.Blocks
	if len(blocks) == 0 {
		blocks = json.RawMessage(`[]`)
	}
	return entryPayload{
		ID:        e.ID,
		Date:      e.Date,
		Type:      e.Type,
		Blocks:    blocks,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func (h *EntryHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req entryPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "Invalid request body")
		return
	}

	if req.ID == "" {
		req.ID = mux.Vars(r)["id"]
	}
	if id := mux.Vars(r)["id"]; id != "" && id != req.ID {
		BadRequest(w, "Entry id in path and body differ")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		BadRequest(w, err.Error())
		return
	}

	blocks := req.Blocks
	if len(blocks) == 0 {
		blocks = json.RawMessage(`[]`)
	}

	stored, err := h.entries.Upsert(r.Context(), GetUserID(r), &models.Entry{
		ID:        req.ID,
		Date:      req.Date,
		Type:      req.Type,
		Blocks:    blocks,
		CreatedAt: req.CreatedAt,
		UpdatedAt: req.UpdatedAt,
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			Conflict(w, "Entry conflicts with existing data")
			return
		}
		InternalError(w, "Failed to save entry")
		return
	}

	Success(w, upsertResponse{ID: stored.ID, UpdatedAt: stored.UpdatedAt})
}

func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.entries.List(r.Context(), GetUserID(r))
	if err != nil {
		InternalError(w, "Failed to list entries")
		return
	}

	resp := listResponse{Entries: make([]entryPayload, 0, len(result))}
	for _, e := range result {
		resp.Entries = append(resp.Entries, toPayload(e))
	}

	Success(w, resp)
}
