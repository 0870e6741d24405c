package document

import (
	"testing"
)

func testModel(t *testing.T) *Model {
	t.Helper()
	model, err := NewModel("articles",
		Field{Name: "title", Type: "string"},
		Field{Name: "views", Type: "int"},
	)
	if err != nil {
		t.Fatalf("unexpected error from NewModel: %v", err)
	}
	return model
}

func TestRawPathAccess(t *testing.T) {
	doc := New(testModel(t))

	doc.RawSet("i18n.fr.title", "Bonjour")
	if got := doc.RawGet("i18n.fr.title"); got != "Bonjour" {
		t.Fatalf("expected nested path value, got %v", got)
	}
	if got := doc.RawGet("i18n.de.title"); got != nil {
		t.Fatalf("missing paths must read nil, got %v", got)
	}
	if got := doc.RawGet("i18n.fr.title.deeper"); got != nil {
		t.Fatalf("descending through a leaf must read nil, got %v", got)
	}

	doc.RawDelete("i18n.fr.title")
	if got := doc.RawGet("i18n.fr.title"); got != nil {
		t.Fatalf("expected deleted path to read nil, got %v", got)
	}
}

func TestSetPrefersVirtualOverFieldHook(t *testing.T) {
	model := testModel(t)
	if err := model.Redeclare("title",
		func(doc *Document) any { return "field-hook" },
		func(doc *Document, value any) any { return "field-hook" },
	); err != nil {
		t.Fatalf("unexpected error from Redeclare: %v", err)
	}
	if err := model.AddVirtual("headline",
		func(doc *Document) any { return doc.RawGet("title") },
		func(doc *Document, value any) any {
			doc.RawSet("title", value)
			return value
		},
	); err != nil {
		t.Fatalf("unexpected error from AddVirtual: %v", err)
	}

	doc := New(model)
	if got := doc.Set("headline", "Hello"); got != "Hello" {
		t.Fatalf("expected virtual setter result, got %v", got)
	}
	if got := doc.Get("headline"); got != "Hello" {
		t.Fatalf("expected virtual getter to read through, got %v", got)
	}
	if got := doc.Get("title"); got != "field-hook" {
		t.Fatalf("expected field hook to intercept plain access, got %v", got)
	}
	// undeclared names fall through to raw storage and still mark changes
	if got := doc.Set("status", "draft"); got != "draft" {
		t.Fatalf("expected raw write result, got %v", got)
	}
	if !doc.HasChanged("status") {
		t.Fatalf("expected raw write to carry a change mark")
	}
}

func TestVirtualWithoutSetterReturnsNil(t *testing.T) {
	model := testModel(t)
	if err := model.AddVirtual("computed",
		func(doc *Document) any { return 42 },
		nil,
	); err != nil {
		t.Fatalf("unexpected error from AddVirtual: %v", err)
	}

	doc := New(model)
	if got := doc.Set("computed", "ignored"); got != nil {
		t.Fatalf("expected read-only virtual write to return nil, got %v", got)
	}
	if got := doc.Get("computed"); got != 42 {
		t.Fatalf("expected virtual getter value, got %v", got)
	}
}

func TestChangedReturnsSortedMarks(t *testing.T) {
	doc := New(testModel(t))
	doc.MarkChanged("views")
	doc.MarkChanged("i18n")
	doc.MarkChanged("title")

	changed := doc.Changed()
	if len(changed) != 3 {
		t.Fatalf("expected 3 marks, got %v", changed)
	}
	for i, path := range []string{"i18n", "title", "views"} {
		if changed[i] != path {
			t.Fatalf("expected sorted marks, got %v", changed)
		}
	}
}

func TestLocalsAreTransient(t *testing.T) {
	doc := New(testModel(t))

	if _, ok := doc.Local("language"); ok {
		t.Fatalf("expected missing local to report ok=false")
	}
	doc.SetLocal("language", "fr")
	value, ok := doc.Local("language")
	if !ok || value != "fr" {
		t.Fatalf("expected stored local, got %v ok=%v", value, ok)
	}
	if got := doc.Snapshot(); got["language"] != nil {
		t.Fatalf("locals must never leak into document data, got %v", got)
	}
	doc.ClearLocal("language")
	if _, ok := doc.Local("language"); ok {
		t.Fatalf("expected cleared local to be gone")
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	doc := New(testModel(t))
	doc.RawSet("i18n.fr.title", "Bonjour")
	doc.RawSet("tags", []any{"a", "b"})

	snapshot := doc.Snapshot()
	snapshot["i18n"].(map[string]any)["fr"].(map[string]any)["title"] = "mutated"
	snapshot["tags"].([]any)[0] = "mutated"

	if got := doc.RawGet("i18n.fr.title"); got != "Bonjour" {
		t.Fatalf("snapshot mutation must not reach the document, got %v", got)
	}
	if got := doc.RawGet("tags").([]any)[0]; got != "a" {
		t.Fatalf("snapshot slice mutation must not reach the document, got %v", got)
	}
}
