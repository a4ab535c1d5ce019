package daymem

import (
	"context"
	"encoding/binary"
	"math"
	"sort"
)

// SimilarityThreshold is the minimum cosine similarity a stored note must
// score against the query before it is considered related at all.
const SimilarityThreshold = 0.3

// FindSimilar embeds the query and ranks every stored embedding against it
// by cosine similarity. A plain linear scan: at personal-journal scale
// (thousands of notes) an ANN index would be overhead, not a win. Results
// below SimilarityThreshold are dropped, the rest are ordered by descending
// similarity and truncated to limit. Returns nil when no embedder is set.
func (s *Store) FindSimilar(ctx context.Context, query string, limit int) ([]ScoredNote, error) {
	if s.embedder == nil {
		return nil, nil
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT n.id, n.day, n.text, n.created_at, n.updated_at, e.embedding_vector
		FROM note_embeddings e
		JOIN notes n ON e.note_id = n.id
		WHERE n.text IS NOT NULL AND n.text != ''
	`)
	if err != nil {
		return nil, &ReadError{Op: "scan embeddings", Err: err}
	}
	defer rows.Close()

	var scored []ScoredNote
	for rows.Next() {
		var n Note
		var blob []byte
		if err := rows.Scan(&n.ID, &n.Day, &n.Text, &n.CreatedAt, &n.UpdatedAt, &blob); err != nil {
			return nil, &ReadError{Op: "scan embeddings", Err: err}
		}

		sim := CosineSimilarity(queryVec, deserializeFloat32(blob))
		if sim > SimilarityThreshold {
			scored = append(scored, ScoredNote{Note: &n, Similarity: sim})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &ReadError{Op: "scan embeddings", Err: err}
	}

	// stable sort keeps ties in scan order, so repeated queries rank the
	// same way
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}

	return scored, nil
}

// CosineSimilarity is the normalized dot product of two vectors, in [-1, 1].
// Defined as 0 when the dimensions differ or either magnitude is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	magnitude := math.Sqrt(normA) * math.Sqrt(normB)
	if magnitude == 0 {
		return 0
	}
	return dot / magnitude
}

// deserializeFloat32 reverses sqlite_vec.SerializeFloat32: a packed sequence
// of little-endian float32 components.
func deserializeFloat32(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}
