// Package conversation keeps a bounded per-session chat transcript so the
// assistant can replay recent turns to the completion provider.
package conversation

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const defaultMaxMessages = 12

type Message struct {
	ID        string
	SessionID string
	Role      string
	Content   string
	CreatedAt time.Time
}

type Store struct {
	db          *sql.DB
	maxMessages int
}

const schema = `
CREATE TABLE IF NOT EXISTS chat_messages (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at DATETIME DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages(session_id, created_at DESC);
`

// NewStore creates a conversation buffer on the provided database handle.
func NewStore(db *sql.DB, maxMessages int) (*Store, error) {
	if maxMessages <= 0 {
		maxMessages = defaultMaxMessages
	}
	s := &Store{db: db, maxMessages: maxMessages}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// Add appends a turn and trims the session back to the buffer size.
func (s *Store) Add(sessionID, role, content string) (*Message, error) {
	msg := &Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO chat_messages (id, session_id, role, content)
		VALUES (?, ?, ?, ?)`,
		msg.ID, sessionID, role, content)
	if err != nil {
		return nil, err
	}

	// evict oldest turns beyond the buffer size
	_, err = s.db.Exec(`
		DELETE FROM chat_messages
		WHERE session_id = ?
		AND id NOT IN (
			SELECT id FROM chat_messages
			WHERE session_id = ?
			ORDER BY rowid DESC
			LIMIT ?
		)`,
		sessionID, sessionID, s.maxMessages)
	if err != nil {
		return nil, err
	}

	return msg, nil
}

// History returns the buffered turns for a session, oldest first.
func (s *Store) History(sessionID string) ([]Message, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, role, content, created_at
		FROM chat_messages
		WHERE session_id = ?
		ORDER BY rowid ASC`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Clear drops every turn for a session.
func (s *Store) Clear(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM chat_messages WHERE session_id = ?`, sessionID)
	return err
}
