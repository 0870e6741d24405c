package document

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestMemoryStoreSaveLoadRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	model := testModel(t)

	doc := New(model)
	doc.Set("title", "Hello")
	doc.RawSet("i18n.fr.title", "Bonjour")
	if !doc.IsNew() {
		t.Fatalf("expected fresh document to be new")
	}

	meta, err := store.Save(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error from Save: %v", err)
	}
	if meta.RevisionID == "" || meta.UpdatedAt.IsZero() {
		t.Fatalf("expected populated revision metadata, got %+v", meta)
	}
	if doc.IsNew() {
		t.Fatalf("saving must clear the new flag")
	}
	if len(doc.Changed()) != 0 {
		t.Fatalf("saving must clear change marks, got %v", doc.Changed())
	}

	loaded, loadedMeta, ok, err := store.Load(context.Background(), model, doc.ID())
	if err != nil {
		t.Fatalf("unexpected error from Load: %v", err)
	}
	if !ok {
		t.Fatalf("expected persisted record to exist")
	}
	if loaded.IsNew() {
		t.Fatalf("loaded documents must not be new")
	}
	if loadedMeta.RevisionID != meta.RevisionID {
		t.Fatalf("expected revision metadata to round trip")
	}
	if got := loaded.RawGet("i18n.fr.title"); got != "Bonjour" {
		t.Fatalf("expected persisted overlay data, got %v", got)
	}

	// persisted data is a copy, later edits must not bleed into the record
	doc.RawSet("title", "mutated")
	reloaded, _, _, err := store.Load(context.Background(), model, doc.ID())
	if err != nil {
		t.Fatalf("unexpected error from Load: %v", err)
	}
	if got := reloaded.RawGet("title"); got != "Hello" {
		t.Fatalf("expected stored snapshot to be isolated, got %v", got)
	}
}

func TestMemoryStoreLoadMissingRecord(t *testing.T) {
	store := NewMemoryStore()
	model := testModel(t)

	_, _, ok, err := store.Load(context.Background(), model, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error from Load: %v", err)
	}
	if ok {
		t.Fatalf("expected missing record to report ok=false")
	}

	if _, err := store.Save(context.Background(), nil); err == nil {
		t.Fatalf("expected nil document save to error")
	}
	if _, _, _, err := store.Load(context.Background(), nil, uuid.New()); err == nil {
		t.Fatalf("expected nil model load to error")
	}
}
