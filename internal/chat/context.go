// Package chat grounds assistant turns in the user's own notes: the current
// day's content always, plus semantically related notes when the question
// looks like it reaches beyond today.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/bowerhall/daybook/internal/logger"
	"github.com/bowerhall/daybook/pkg/daymem"
)

// Retriever is the slice of the store the builder queries for related notes.
type Retriever interface {
	FindSimilar(ctx context.Context, query string, limit int) ([]daymem.ScoredNote, error)
}

// recallTerms are the cue words that make a question corpus-wide instead of
// today-only. Deliberately loose; a false positive just costs one retrieval.
var recallTerms = []string{
	"remember",
	"recall",
	"wrote",
	"written",
	"mention",
	"search",
	"find",
	"look up",
	"when did",
	"what did",
	"compare",
	"before",
	"last week",
	"last month",
	"yesterday",
	"earlier",
	"previous",
	"other day",
}

type ContextBuilder struct {
	retriever  Retriever
	limit      int
	snippetLen int
}

func NewContextBuilder(retriever Retriever, limit, snippetLen int) *ContextBuilder {
	if limit <= 0 {
		limit = 5
	}
	if snippetLen <= 0 {
		snippetLen = 200
	}
	return &ContextBuilder{
		retriever:  retriever,
		limit:      limit,
		snippetLen: snippetLen,
	}
}

// NeedsRetrieval decides whether a question benefits from searching the whole
// journal, or the current day's note alone is enough.
func (b *ContextBuilder) NeedsRetrieval(query string) bool {
	q := strings.ToLower(query)
	for _, term := range recallTerms {
		if strings.Contains(q, term) {
			return true
		}
	}
	return false
}

// Build assembles the system grounding context for one assistant turn.
// Retrieval failures degrade to today-only context; they never fail the turn.
func (b *ContextBuilder) Build(ctx context.Context, query, day, dayContent string) string {
	var sb strings.Builder

	sb.WriteString("You are a helpful assistant that answers questions about the user's journal.\n\n")

	sb.WriteString("Current note content for " + day + ":\n")
	if strings.TrimSpace(daymem.CleanText(dayContent)) == "" {
		sb.WriteString("No content for today yet.\n")
	} else {
		sb.WriteString(dayContent + "\n")
	}

	if b.retriever != nil && b.NeedsRetrieval(query) {
		hits, err := b.retriever.FindSimilar(ctx, query, b.limit)
		if err != nil {
			logger.Warn("related-note retrieval failed", "error", err)
		} else if len(hits) > 0 {
			sb.WriteString("\nRelated notes from other days:\n")
			for _, hit := range hits {
				sb.WriteString(b.formatHit(hit) + "\n")
			}
		}
	}

	sb.WriteString("\nHelp the user understand, analyze, or get insights about their notes. Be concise and helpful.")

	return sb.String()
}

func (b *ContextBuilder) formatHit(hit daymem.ScoredNote) string {
	snippet := daymem.CleanText(hit.Note.Text)
	if runes := []rune(snippet); len(runes) > b.snippetLen {
		snippet = string(runes[:b.snippetLen]) + "..."
	}
	return fmt.Sprintf("[%s] (%d%% match) %s", hit.Note.Day, int(hit.Similarity*100), snippet)
}
