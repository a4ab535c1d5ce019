package daymem

import (
	"context"
	"database/sql"
	"sync"
	"time"
)

// DayFormat is the calendar key layout every note is addressed by.
const DayFormat = "2006-01-02"

// Embedder turns text into a fixed-dimension vector. The dimension is set by
// the provider's model and is not validated here; retrieval treats a
// dimension mismatch as zero similarity.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Store struct {
	db       *sql.DB
	embedder Embedder

	// serializes writes so concurrent SaveNote calls for the same day cannot
	// race the one-row-per-day upsert
	mu sync.Mutex
}

// Note is one journal entry, at most one per calendar day.
type Note struct {
	ID        int64
	Day       string
	Text      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoteEmbedding pairs a note with the vector derived from its cleaned text.
// SourceText is the exact cleaned text the vector was computed from; a row
// only exists while it matches the note's current content (stale rows are
// deleted and regenerated, never patched).
type NoteEmbedding struct {
	ID         int64
	NoteID     int64
	SourceText string
	Vector     []float32
	CreatedAt  time.Time
}

// ScoredNote is a retrieval hit with its cosine similarity to the query.
type ScoredNote struct {
	Note       *Note
	Similarity float64
}

// BackfillResult summarizes one GenerateMissingEmbeddings run.
type BackfillResult struct {
	Processed int
	Succeeded int
	Failed    int
}
