package document

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Meta is storage-owned metadata attached to each persisted revision.
type Meta struct {
	RevisionID string    `json:"revision_id,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// Store persists document snapshots keyed by model name and document id.
type Store interface {
	Save(ctx context.Context, doc *Document) (Meta, error)
	Load(ctx context.Context, model *Model, id uuid.UUID) (*Document, Meta, bool, error)
}

// MemoryStore is a minimal in-memory Store implementation intended for tests
// and examples. Saving clears the document's new flag and change marks, which
// is what downstream translation backfill keys on.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	data map[string]any
	meta Meta
}

// NewMemoryStore constructs an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]memoryRecord{}}
}

// Save stores a deep copy of the document data under a fresh revision id and
// marks the document persisted.
func (s *MemoryStore) Save(_ context.Context, doc *Document) (Meta, error) {
	if doc == nil || doc.Model() == nil {
		return Meta{}, fmt.Errorf("document: cannot save nil document")
	}
	meta := Meta{
		RevisionID: uuid.NewString(),
		UpdatedAt:  time.Now(),
	}
	key := storeKey(doc.Model(), doc.ID())

	s.mu.Lock()
	s.records[key] = memoryRecord{data: cloneData(doc.data), meta: meta}
	s.mu.Unlock()

	doc.markPersisted()
	return meta, nil
}

// Load materialises a persisted document; ok is false when no record exists.
func (s *MemoryStore) Load(_ context.Context, model *Model, id uuid.UUID) (*Document, Meta, bool, error) {
	if model == nil {
		return nil, Meta{}, false, fmt.Errorf("document: model must not be nil")
	}

	s.mu.RLock()
	record, ok := s.records[storeKey(model, id)]
	s.mu.RUnlock()
	if !ok {
		return nil, Meta{}, false, nil
	}

	doc := &Document{
		model:   model,
		id:      id,
		data:    cloneData(record.data),
		changed: map[string]struct{}{},
	}
	return doc, record.meta, true, nil
}

func storeKey(model *Model, id uuid.UUID) string {
	return fmt.Sprintf("%s/%s", model.Name(), id)
}
