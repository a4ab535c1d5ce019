package daymem

import (
	"context"
	"database/sql"
	"regexp"
	"strings"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/ncruces"
)

// BackfillDelay is the pause between provider calls during a backfill run.
// Rate-limit courtesy, not a correctness requirement.
const BackfillDelay = 100 * time.Millisecond

var markupTags = regexp.MustCompile(`<[^>]*>`)
var whitespace = regexp.MustCompile(`\s+`)

// CleanText strips markup tags and collapses whitespace. Embeddings are
// always derived from the cleaned form, never the raw editor payload.
func CleanText(text string) string {
	clean := markupTags.ReplaceAllString(text, " ")
	clean = whitespace.ReplaceAllString(clean, " ")
	return strings.TrimSpace(clean)
}

// UpdateEmbedding refreshes the embedding for a note after its text changed.
// Any existing row is deleted first; a new one is only written when the
// cleaned text is non-empty. Deleting-then-recreating (rather than patching)
// is what keeps "a row exists" equivalent to "the row is fresh".
func (s *Store) UpdateEmbedding(ctx context.Context, noteID int64, text string) error {
	if err := s.DeleteEmbedding(noteID); err != nil {
		return err
	}

	clean := CleanText(text)
	if clean == "" {
		return nil
	}

	if s.embedder == nil {
		return nil
	}

	vector, err := s.embedder.Embed(ctx, clean)
	if err != nil {
		return err
	}

	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return err
	}

	// a concurrent DeleteNote may have removed the note while the provider
	// call was in flight; the foreign key turns that into an insert error we
	// swallow as "nothing to index"
	_, err = s.db.Exec(`
		INSERT INTO note_embeddings (note_id, embedding_text, embedding_vector)
		VALUES (?, ?, ?)
	`, noteID, clean, blob)
	if err != nil {
		if exists, lookupErr := s.noteExists(noteID); lookupErr == nil && !exists {
			return nil
		}
		return &WriteError{Op: "save embedding", Err: err}
	}
	return nil
}

func (s *Store) noteExists(noteID int64) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM notes WHERE id = ?`, noteID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteEmbedding removes the embedding row for a note, if any.
func (s *Store) DeleteEmbedding(noteID int64) error {
	if _, err := s.db.Exec(`DELETE FROM note_embeddings WHERE note_id = ?`, noteID); err != nil {
		return &WriteError{Op: "delete embedding", Err: err}
	}
	return nil
}

// GetEmbedding returns the embedding for a note, or nil when none exists.
func (s *Store) GetEmbedding(noteID int64) (*NoteEmbedding, error) {
	var e NoteEmbedding
	var blob []byte
	err := s.db.QueryRow(`
		SELECT id, note_id, embedding_text, embedding_vector, created_at
		FROM note_embeddings WHERE note_id = ?
	`, noteID).Scan(&e.ID, &e.NoteID, &e.SourceText, &blob, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &ReadError{Op: "get embedding", Err: err}
	}
	e.Vector = deserializeFloat32(blob)
	return &e, nil
}

func (s *Store) embeddedNoteIDs() (map[int64]bool, error) {
	rows, err := s.db.Query(`SELECT note_id FROM note_embeddings`)
	if err != nil {
		return nil, &ReadError{Op: "list embeddings", Err: err}
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, &ReadError{Op: "list embeddings", Err: err}
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// GenerateMissingEmbeddings walks every note with non-empty text and creates
// an embedding for those that lack one. Runs sequentially with a small pause
// between provider calls; individual failures are counted and never abort
// the batch.
func (s *Store) GenerateMissingEmbeddings(ctx context.Context) (*BackfillResult, error) {
	result := &BackfillResult{}

	if s.embedder == nil {
		return result, nil
	}

	notes, err := s.ListAllNotes()
	if err != nil {
		return nil, err
	}

	embedded, err := s.embeddedNoteIDs()
	if err != nil {
		return nil, err
	}

	for _, note := range notes {
		if embedded[note.ID] || strings.TrimSpace(note.Text) == "" {
			continue
		}

		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.Processed++
		if err := s.UpdateEmbedding(ctx, note.ID, note.Text); err != nil {
			result.Failed++
		} else {
			result.Succeeded++
		}

		time.Sleep(BackfillDelay)
	}

	return result, nil
}
