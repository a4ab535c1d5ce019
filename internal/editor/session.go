// Package editor coordinates a live editing surface with the note store.
// A Session turns the editor's high-frequency content snapshots into a
// low-frequency stream of durable writes: edits are debounced, navigation
// flushes synchronously, and an in-flight write never swallows a newer edit.
package editor

import (
	"context"
	"sync"
	"time"

	"github.com/bowerhall/daybook/internal/logger"
	"github.com/bowerhall/daybook/pkg/daymem"
)

// NoteSaver is the slice of the store a session writes through.
type NoteSaver interface {
	SaveNote(day, text string) (*daymem.Note, error)
}

// EmbeddingUpdater receives the detached refresh fired after each
// successful save.
type EmbeddingUpdater interface {
	UpdateEmbedding(ctx context.Context, noteID int64, text string) error
}

type Config struct {
	// Debounce is how long after the last edit a save is attempted.
	Debounce time.Duration
	// EmptyContent is the canonical empty document; it is never persisted.
	EmptyContent string
}

// Session is the per-active-date autosave state machine. One session exists
// per focused date; replacing it goes through Close, which flushes pending
// edits first.
type Session struct {
	day   string
	cfg   Config
	store NoteSaver

	index   EmbeddingUpdater
	onSaved func(note *daymem.Note, text string)

	mu        sync.Mutex
	timer     *time.Timer
	pending   string
	lastSaved string
	closed    bool

	// saveMu serializes durable writes; ForceSave acquiring it is what makes
	// the flush wait out an in-flight debounced save
	saveMu sync.Mutex
}

// NewSession starts a session for day. initial is the content just loaded
// from the store, used as the baseline for change detection.
func NewSession(store NoteSaver, cfg Config, day, initial string) *Session {
	return &Session{
		day:       day,
		cfg:       cfg,
		store:     store,
		pending:   initial,
		lastSaved: initial,
	}
}

// SetEmbeddingIndex attaches the index refreshed after each successful save.
// The refresh runs detached; its failure never affects the save outcome.
func (s *Session) SetEmbeddingIndex(index EmbeddingUpdater) {
	s.index = index
}

// SetOnSaved registers a callback invoked after each successful durable write.
func (s *Session) SetOnSaved(fn func(note *daymem.Note, text string)) {
	s.onSaved = fn
}

func (s *Session) Day() string {
	return s.day
}

// ContentChanged records the newest editor content and re-arms the debounce
// timer. Never blocks; at most one timer is pending at a time.
func (s *Session) ContentChanged(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.pending = text

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.cfg.Debounce, s.timerFired)
}

func (s *Session) timerFired() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	if err := s.save(); err != nil {
		// content stays dirty; the next debounce cycle or ForceSave retries
		logger.Warn("autosave failed", "day", s.day, "error", err)
	}
}

// ForceSave cancels any pending debounce and synchronously flushes unsaved
// content. Callers must invoke it (and check the error) before navigating
// away; it is the only guarantee against losing the session's edits.
func (s *Session) ForceSave() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	return s.save()
}

// Close flushes and retires the session. Later ContentChanged calls are
// ignored.
func (s *Session) Close() error {
	err := s.ForceSave()

	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	return err
}

// save writes the pending content if it is worth writing. Writes serialize
// on saveMu; the loop re-checks pending after each write so an edit arriving
// mid-write gets its own follow-up save (last write wins).
func (s *Session) save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	for {
		s.mu.Lock()
		text := s.pending
		skip := text == s.lastSaved || text == "" || text == s.cfg.EmptyContent
		s.mu.Unlock()

		if skip {
			return nil
		}

		note, err := s.store.SaveNote(s.day, text)
		if err != nil {
			return err
		}

		s.mu.Lock()
		s.lastSaved = text
		more := s.pending != text
		s.mu.Unlock()

		if s.onSaved != nil {
			s.onSaved(note, text)
		}

		if s.index != nil {
			go func(noteID int64, text string) {
				if err := s.index.UpdateEmbedding(context.Background(), noteID, text); err != nil {
					logger.Warn("embedding update failed", "day", s.day, "error", err)
				}
			}(note.ID, text)
		}

		if !more {
			return nil
		}
	}
}
