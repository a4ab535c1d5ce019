package daymem

import "database/sql"

// SaveNote inserts the note for day, or overwrites its text and refreshes
// updated_at. This is the only mutation path for notes; created_at and the
// surrogate id survive overwrites.
func (s *Store) SaveNote(day, text string) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO notes (day, text) VALUES (?, ?)
		ON CONFLICT(day) DO UPDATE SET
			text = excluded.text,
			updated_at = datetime('now')
	`, day, text)
	if err != nil {
		return nil, &WriteError{Op: "save note", Err: err}
	}

	note, err := s.getNote(day)
	if err != nil {
		return nil, err
	}

	return note, nil
}

// GetNote returns the note for day, or nil when none exists.
func (s *Store) GetNote(day string) (*Note, error) {
	return s.getNote(day)
}

func (s *Store) getNote(day string) (*Note, error) {
	var note Note
	err := s.db.QueryRow(`
		SELECT id, day, text, created_at, updated_at
		FROM notes WHERE day = ?
	`, day).Scan(&note.ID, &note.Day, &note.Text, &note.CreatedAt, &note.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &ReadError{Op: "get note", Err: err}
	}
	return &note, nil
}

// DeleteNote removes the note for day. Its embedding row, if any, goes with
// it via the foreign-key cascade.
func (s *Store) DeleteNote(day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM notes WHERE day = ?`, day); err != nil {
		return &WriteError{Op: "delete note", Err: err}
	}
	return nil
}

// ListEditedDays returns every day holding non-empty text, newest edit first.
// The calendar uses this to mark days that have content.
func (s *Store) ListEditedDays() ([]string, error) {
	rows, err := s.db.Query(`
		SELECT day FROM notes
		WHERE text IS NOT NULL AND text != ''
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, &ReadError{Op: "list edited days", Err: err}
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, &ReadError{Op: "list edited days", Err: err}
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, &ReadError{Op: "list edited days", Err: err}
	}
	return days, nil
}

// ListAllNotes returns every note ordered by created_at descending. Used by
// the embedding backfill.
func (s *Store) ListAllNotes() ([]*Note, error) {
	rows, err := s.db.Query(`
		SELECT id, day, text, created_at, updated_at
		FROM notes ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, &ReadError{Op: "list notes", Err: err}
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.Day, &n.Text, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, &ReadError{Op: "list notes", Err: err}
		}
		notes = append(notes, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, &ReadError{Op: "list notes", Err: err}
	}
	return notes, nil
}
