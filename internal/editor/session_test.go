package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bowerhall/daybook/pkg/daymem"
)

type fakeSaver struct {
	mu    sync.Mutex
	saves []string
	fail  bool
}

func (f *fakeSaver) SaveNote(day, text string) (*daymem.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("disk full")
	}
	f.saves = append(f.saves, text)
	return &daymem.Note{ID: 1, Day: day, Text: text}, nil
}

func (f *fakeSaver) saved() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.saves...)
}

var testConfig = Config{
	Debounce:     20 * time.Millisecond,
	EmptyContent: "<p></p>",
}

func TestDebounceCoalesces(t *testing.T) {
	saver := &fakeSaver{}
	session := NewSession(saver, testConfig, "2025-01-01", "")

	for _, text := range []string{"H", "He", "Hel", "Hell", "Hello"} {
		session.ContentChanged(text)
	}

	time.Sleep(100 * time.Millisecond)

	saves := saver.saved()
	if len(saves) != 1 {
		t.Fatalf("expected exactly 1 write, got %d: %v", len(saves), saves)
	}
	if saves[0] != "Hello" {
		t.Errorf("expected last content to win, got %q", saves[0])
	}
}

func TestForceSaveFlushesMidWindow(t *testing.T) {
	saver := &fakeSaver{}
	cfg := Config{Debounce: time.Hour, EmptyContent: "<p></p>"}
	session := NewSession(saver, cfg, "2025-01-01", "")

	session.ContentChanged("unsaved draft")

	if err := session.ForceSave(); err != nil {
		t.Fatalf("force save failed: %v", err)
	}

	saves := saver.saved()
	if len(saves) != 1 || saves[0] != "unsaved draft" {
		t.Fatalf("expected flushed draft, got %v", saves)
	}
}

func TestEmptyContentNeverSaved(t *testing.T) {
	saver := &fakeSaver{}
	session := NewSession(saver, testConfig, "2025-01-01", "")

	session.ContentChanged("<p></p>")
	if err := session.ForceSave(); err != nil {
		t.Fatalf("force save failed: %v", err)
	}

	if saves := saver.saved(); len(saves) != 0 {
		t.Errorf("empty document should never be persisted, got %v", saves)
	}
}

func TestUnchangedContentNotRewritten(t *testing.T) {
	saver := &fakeSaver{}
	session := NewSession(saver, testConfig, "2025-01-01", "loaded text")

	session.ContentChanged("loaded text")
	if err := session.ForceSave(); err != nil {
		t.Fatalf("force save failed: %v", err)
	}

	if saves := saver.saved(); len(saves) != 0 {
		t.Errorf("identical content should not be rewritten, got %v", saves)
	}
}

func TestFailedSaveStaysDirtyAndRetries(t *testing.T) {
	saver := &fakeSaver{fail: true}
	session := NewSession(saver, testConfig, "2025-01-01", "")

	session.ContentChanged("important")
	if err := session.ForceSave(); err == nil {
		t.Fatal("expected write error to propagate")
	}

	saver.mu.Lock()
	saver.fail = false
	saver.mu.Unlock()

	if err := session.ForceSave(); err != nil {
		t.Fatalf("retry failed: %v", err)
	}

	saves := saver.saved()
	if len(saves) != 1 || saves[0] != "important" {
		t.Fatalf("expected content saved on retry, got %v", saves)
	}
}

func TestCloseFlushesAndRetires(t *testing.T) {
	saver := &fakeSaver{}
	cfg := Config{Debounce: time.Hour, EmptyContent: "<p></p>"}
	session := NewSession(saver, cfg, "2025-01-01", "")

	session.ContentChanged("before close")
	if err := session.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	// edits after close are dropped
	session.ContentChanged("after close")
	time.Sleep(50 * time.Millisecond)

	saves := saver.saved()
	if len(saves) != 1 || saves[0] != "before close" {
		t.Fatalf("expected only pre-close content, got %v", saves)
	}
}

// blockingSaver lets the test hold a write open to race edits against it.
type blockingSaver struct {
	started chan string
	release chan struct{}

	mu    sync.Mutex
	saves []string
}

func (b *blockingSaver) SaveNote(day, text string) (*daymem.Note, error) {
	b.started <- text
	<-b.release
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saves = append(b.saves, text)
	return &daymem.Note{ID: 1, Day: day, Text: text}, nil
}

func TestInFlightSaveNeverSwallowsNewerEdit(t *testing.T) {
	saver := &blockingSaver{
		started: make(chan string),
		release: make(chan struct{}),
	}
	cfg := Config{Debounce: 5 * time.Millisecond, EmptyContent: "<p></p>"}
	session := NewSession(saver, cfg, "2025-01-01", "")

	session.ContentChanged("first")

	// wait until the debounced write is in flight
	if got := <-saver.started; got != "first" {
		t.Fatalf("expected first write, got %q", got)
	}

	// a newer edit lands while the write is still running
	session.ContentChanged("second")
	saver.release <- struct{}{}

	// the save loop must follow up with the newer content
	select {
	case got := <-saver.started:
		if got != "second" {
			t.Fatalf("expected follow-up write of newer content, got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no follow-up save for the newer edit")
	}
	saver.release <- struct{}{}

	if err := session.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	saver.mu.Lock()
	defer saver.mu.Unlock()
	if len(saver.saves) != 2 || saver.saves[1] != "second" {
		t.Fatalf("expected both writes in order, got %v", saver.saves)
	}
}

func TestOnSavedAndDetachedEmbedding(t *testing.T) {
	saver := &fakeSaver{}
	session := NewSession(saver, testConfig, "2025-01-01", "")

	var savedText string
	session.SetOnSaved(func(note *daymem.Note, text string) {
		savedText = text
	})

	updated := make(chan string, 1)
	session.SetEmbeddingIndex(embedFunc(func(ctx context.Context, noteID int64, text string) error {
		updated <- text
		return nil
	}))

	session.ContentChanged("note body")
	if err := session.ForceSave(); err != nil {
		t.Fatalf("force save failed: %v", err)
	}

	if savedText != "note body" {
		t.Errorf("onSaved saw %q", savedText)
	}

	select {
	case text := <-updated:
		if text != "note body" {
			t.Errorf("embedding update saw %q", text)
		}
	case <-time.After(time.Second):
		t.Fatal("detached embedding update never ran")
	}
}

func TestEmbeddingFailureDoesNotAffectSave(t *testing.T) {
	saver := &fakeSaver{}
	session := NewSession(saver, testConfig, "2025-01-01", "")
	session.SetEmbeddingIndex(embedFunc(func(ctx context.Context, noteID int64, text string) error {
		return errors.New("provider down")
	}))

	session.ContentChanged("content")
	if err := session.ForceSave(); err != nil {
		t.Fatalf("save must succeed regardless of embedding failure: %v", err)
	}

	if saves := saver.saved(); len(saves) != 1 {
		t.Fatalf("expected 1 save, got %v", saves)
	}
}

type embedFunc func(ctx context.Context, noteID int64, text string) error

func (f embedFunc) UpdateEmbedding(ctx context.Context, noteID int64, text string) error {
	return f(ctx, noteID, text)
}
