package localstore

import (
	"context"
	"sync"

	"github.com/daybookapp/daybook/internal/client/models"
	"github.com/daybookapp/daybook/internal/common"
)

// MemoryStore is an in-memory Store used in tests and as a reference
// implementation of the id-slot + date-index layout.
type MemoryStore struct {
	mu      sync.Mutex
	byID    map[string]*models.JournalEntry
	dateIdx map[string]string // date -> entry id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*models.JournalEntry),
		dateIdx: make(map[string]string),
	}
}

func (m *MemoryStore) Put(ctx context.Context, entry *models.JournalEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[entry.ID] = entry.Clone()
	m.dateIdx[entry.Date] = entry.ID
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*models.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return entry.Clone(), nil
}

func (m *MemoryStore) GetByDate(ctx context.Context, date string) (*models.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.dateIdx[date]
	if !ok {
		return nil, common.ErrNotFound
	}
	entry, ok := m.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return entry.Clone(), nil
}

func (m *MemoryStore) GetAll(ctx context.Context) ([]*models.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*models.JournalEntry, 0, len(m.byID))
	for _, entry := range m.byID {
		result = append(result, entry.Clone())
	}
	return result, nil
}

func (m *MemoryStore) Rekey(ctx context.Context, oldID, newID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.byID[oldID]
	if !ok {
		return common.ErrNotFound
	}
	delete(m.byID, oldID)
	entry.ID = newID
	m.byID[newID] = entry
	if m.dateIdx[entry.Date] == oldID {
		m.dateIdx[entry.Date] = newID
	}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.byID[id]
	if !ok {
		return nil
	}
	delete(m.byID, id)
	if m.dateIdx[entry.Date] == id {
		delete(m.dateIdx, entry.Date)
	}
	return nil
}
