package daymem

import (
	"context"
	"errors"
	"testing"
)

// stubEmbedder returns canned vectors by exact text, or a fixed fallback.
type stubEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	fail     bool
	calls    int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	if s.fail {
		return nil, errors.New("provider down")
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return s.fallback, nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCleanText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"<p>Hello</p>", "Hello"},
		{"<p>Meeting   notes</p>", "Meeting notes"},
		{"<div><span></span></div>", ""},
		{"  plain   text  ", "plain text"},
		{"", ""},
		{"<p>a</p><p>b</p>", "a b"},
	}

	for _, c := range cases {
		if got := CleanText(c.in); got != c.want {
			t.Errorf("CleanText(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestUpdateEmbeddingCreates(t *testing.T) {
	store := newTestStore(t)
	store.SetEmbedder(&stubEmbedder{fallback: []float32{1, 0, 0}})

	note, err := store.SaveNote("2025-01-01", "<p>Meeting notes</p>")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := store.UpdateEmbedding(context.Background(), note.ID, note.Text); err != nil {
		t.Fatalf("update embedding failed: %v", err)
	}

	emb, err := store.GetEmbedding(note.ID)
	if err != nil {
		t.Fatalf("get embedding failed: %v", err)
	}
	if emb == nil {
		t.Fatal("expected embedding, got nil")
	}
	if emb.SourceText != "Meeting notes" {
		t.Errorf("expected cleaned source text, got %q", emb.SourceText)
	}
	if len(emb.Vector) != 3 || emb.Vector[0] != 1 {
		t.Errorf("vector round-trip mismatch: %v", emb.Vector)
	}
}

func TestUpdateEmbeddingReplacesStale(t *testing.T) {
	store := newTestStore(t)
	store.SetEmbedder(&stubEmbedder{fallback: []float32{1, 0}})

	note, err := store.SaveNote("2025-01-01", "first version")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := store.UpdateEmbedding(context.Background(), note.ID, "first version"); err != nil {
		t.Fatalf("first update failed: %v", err)
	}
	if err := store.UpdateEmbedding(context.Background(), note.ID, "second version"); err != nil {
		t.Fatalf("second update failed: %v", err)
	}

	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM note_embeddings WHERE note_id = ?`, note.ID).Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 embedding, got %d", count)
	}

	emb, err := store.GetEmbedding(note.ID)
	if err != nil {
		t.Fatalf("get embedding failed: %v", err)
	}
	if emb.SourceText != "second version" {
		t.Errorf("expected fresh source text, got %q", emb.SourceText)
	}
}

func TestUpdateEmbeddingEmptyTextDeletes(t *testing.T) {
	store := newTestStore(t)
	store.SetEmbedder(&stubEmbedder{fallback: []float32{1, 0}})

	note, err := store.SaveNote("2025-01-01", "something")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := store.UpdateEmbedding(context.Background(), note.ID, "something"); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	// tag-only content cleans to empty and must remove the row
	if err := store.UpdateEmbedding(context.Background(), note.ID, "<p></p>"); err != nil {
		t.Fatalf("empty update failed: %v", err)
	}

	emb, err := store.GetEmbedding(note.ID)
	if err != nil {
		t.Fatalf("get embedding failed: %v", err)
	}
	if emb != nil {
		t.Errorf("expected no embedding for empty text, got %+v", emb)
	}
}

func TestUpdateEmbeddingProviderFailure(t *testing.T) {
	store := newTestStore(t)
	store.SetEmbedder(&stubEmbedder{fail: true})

	note, err := store.SaveNote("2025-01-01", "content")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := store.UpdateEmbedding(context.Background(), note.ID, "content"); err == nil {
		t.Error("expected provider error")
	}

	emb, err := store.GetEmbedding(note.ID)
	if err != nil {
		t.Fatalf("get embedding failed: %v", err)
	}
	if emb != nil {
		t.Error("no embedding should exist after a failed provider call")
	}
}

func TestDeleteNoteCascadesEmbedding(t *testing.T) {
	store := newTestStore(t)
	store.SetEmbedder(&stubEmbedder{fallback: []float32{1, 0}})

	note, err := store.SaveNote("2025-01-01", "content")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.UpdateEmbedding(context.Background(), note.ID, "content"); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if err := store.DeleteNote("2025-01-01"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM note_embeddings`).Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected cascade to remove embedding, found %d rows", count)
	}
}

func TestGenerateMissingEmbeddings(t *testing.T) {
	store := newTestStore(t)
	emb := &stubEmbedder{fallback: []float32{1, 0}}
	store.SetEmbedder(emb)

	covered, err := store.SaveNote("2025-01-01", "already indexed")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.UpdateEmbedding(context.Background(), covered.ID, covered.Text); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if _, err := store.SaveNote("2025-01-02", "missing one"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := store.SaveNote("2025-01-03", "missing two"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := store.SaveNote("2025-01-04", ""); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	result, err := store.GenerateMissingEmbeddings(context.Background())
	if err != nil {
		t.Fatalf("backfill failed: %v", err)
	}

	if result.Processed != 2 {
		t.Errorf("expected 2 processed, got %d", result.Processed)
	}
	if result.Succeeded != 2 {
		t.Errorf("expected 2 succeeded, got %d", result.Succeeded)
	}
	if result.Failed != 0 {
		t.Errorf("expected 0 failed, got %d", result.Failed)
	}

	// every note with text now holds exactly one embedding
	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM note_embeddings`).Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 embeddings, got %d", count)
	}
}

func TestGenerateMissingEmbeddingsCountsFailures(t *testing.T) {
	store := newTestStore(t)
	emb := &stubEmbedder{fail: true}
	store.SetEmbedder(emb)

	if _, err := store.SaveNote("2025-01-01", "one"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := store.SaveNote("2025-01-02", "two"); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	result, err := store.GenerateMissingEmbeddings(context.Background())
	if err != nil {
		t.Fatalf("backfill should not abort on provider failures: %v", err)
	}

	if result.Processed != 2 || result.Failed != 2 || result.Succeeded != 0 {
		t.Errorf("unexpected counts: %+v", result)
	}
}

func TestGenerateMissingEmbeddingsNoEmbedder(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.SaveNote("2025-01-01", "one"); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	result, err := store.GenerateMissingEmbeddings(context.Background())
	if err != nil {
		t.Fatalf("backfill failed: %v", err)
	}
	if result.Processed != 0 {
		t.Errorf("expected no work without an embedder, got %+v", result)
	}
}
