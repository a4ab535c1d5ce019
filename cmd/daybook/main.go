package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bowerhall/daybook/internal/chat"
	"github.com/bowerhall/daybook/internal/config"
	"github.com/bowerhall/daybook/internal/conversation"
	"github.com/bowerhall/daybook/internal/editor"
	"github.com/bowerhall/daybook/internal/embedder"
	"github.com/bowerhall/daybook/internal/llm"
	"github.com/bowerhall/daybook/internal/logger"
	"github.com/bowerhall/daybook/internal/scheduler"
	"github.com/bowerhall/daybook/pkg/daymem"
)

func init() {
	godotenv.Load()
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: daybook <command> [args]

commands:
  show [day]        print the note for a day (default today)
  write [day]       replace a day's note with text read from stdin
  list              list days that have content
  delete <day>      remove a day's note and its embedding
  search <query>    find notes related to a query
  chat <question>   ask the assistant about your notes
  backfill          generate embeddings for notes that lack one
  serve             run the scheduled embedding backfill until interrupted`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}

	store, err := daymem.Open(cfg.StorePath)
	if err != nil {
		logger.Fatal("failed to open store", "error", err)
	}
	defer store.Close()

	if cfg.RetrievalConfigured() {
		emb, err := embedder.New(embedder.Config{
			Provider: cfg.Embedder.Provider,
			APIKey:   cfg.Embedder.APIKey,
			BaseURL:  cfg.Embedder.BaseURL,
			Model:    cfg.Embedder.Model,
		})
		if err != nil {
			logger.Fatal("failed to create embedder", "error", err)
		}
		if emb != nil {
			store.SetEmbedder(emb)
			logger.Debug("embedder configured", "provider", cfg.Embedder.Provider)
		}
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "show":
		runShow(store, dayArg(2))
	case "write":
		runWrite(store, cfg, dayArg(2))
	case "list":
		runList(store)
	case "delete":
		if len(os.Args) < 3 {
			usage()
		}
		if err := store.DeleteNote(os.Args[2]); err != nil {
			logger.Fatal("delete failed", "error", err)
		}
	case "search":
		if len(os.Args) < 3 {
			usage()
		}
		runSearch(ctx, store, cfg, os.Args[2])
	case "chat":
		if len(os.Args) < 3 {
			usage()
		}
		runChat(ctx, store, cfg, os.Args[2])
	case "backfill":
		runBackfill(ctx, store, cfg)
	case "serve":
		runServe(store, cfg)
	default:
		usage()
	}
}

func dayArg(i int) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return time.Now().Format(daymem.DayFormat)
}

func runShow(store *daymem.Store, day string) {
	note, err := store.GetNote(day)
	if err != nil {
		logger.Fatal("read failed", "error", err)
	}
	if note == nil {
		fmt.Printf("no note for %s\n", day)
		return
	}
	fmt.Println(note.Text)
}

// runWrite pushes stdin through an edit session rather than writing the
// store directly, so the CLI exercises the same save path as an editor.
func runWrite(store *daymem.Store, cfg *config.Config, day string) {
	text, err := io.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		logger.Fatal("read stdin failed", "error", err)
	}

	note, err := store.GetNote(day)
	if err != nil {
		logger.Fatal("read failed", "error", err)
	}

	initial := ""
	if note != nil {
		initial = note.Text
	}

	session := editor.NewSession(store, editor.Config{
		Debounce:     cfg.Editor.Debounce,
		EmptyContent: cfg.Editor.EmptyContent,
	}, day, initial)
	session.SetEmbeddingIndex(store)

	session.ContentChanged(string(text))
	if err := session.Close(); err != nil {
		logger.Fatal("save failed", "error", err)
	}

	// give the detached embedding update a moment before the process exits
	time.Sleep(500 * time.Millisecond)
}

func runList(store *daymem.Store) {
	days, err := store.ListEditedDays()
	if err != nil {
		logger.Fatal("list failed", "error", err)
	}
	for _, day := range days {
		fmt.Println(day)
	}
}

func runSearch(ctx context.Context, store *daymem.Store, cfg *config.Config, query string) {
	if !cfg.RetrievalConfigured() {
		fmt.Fprintln(os.Stderr, "semantic search is disabled: no embedding provider configured")
		return
	}

	hits, err := store.FindSimilar(ctx, query, cfg.Retrieval.Limit)
	if err != nil {
		logger.Fatal("search failed", "error", err)
	}

	for _, hit := range hits {
		snippet := daymem.CleanText(hit.Note.Text)
		if runes := []rune(snippet); len(runes) > cfg.Retrieval.SnippetLen {
			snippet = string(runes[:cfg.Retrieval.SnippetLen]) + "..."
		}
		fmt.Printf("[%s] (%d%%) %s\n", hit.Note.Day, int(hit.Similarity*100), snippet)
	}
}

func runChat(ctx context.Context, store *daymem.Store, cfg *config.Config, question string) {
	if !cfg.AssistantConfigured() {
		fmt.Fprintln(os.Stderr, "chat is disabled: no chat provider configured")
		return
	}

	model, err := llm.New(llm.Config{
		Provider:  cfg.LLM.Provider,
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		BaseURL:   cfg.LLM.BaseURL,
		MaxTokens: cfg.LLM.MaxTokens,
	})
	if err != nil {
		logger.Fatal("failed to create llm", "error", err)
	}

	history, err := conversation.NewStore(store.DB(), cfg.Chat.HistorySize)
	if err != nil {
		logger.Fatal("failed to open chat history", "error", err)
	}

	builder := chat.NewContextBuilder(store, cfg.Retrieval.Limit, cfg.Retrieval.SnippetLen)
	assistant := chat.NewAssistant(model, history, builder)

	today := time.Now().Format(daymem.DayFormat)
	dayContent := ""
	if note, err := store.GetNote(today); err == nil && note != nil {
		dayContent = note.Text
	}

	reply, err := assistant.Send(ctx, "cli", question, today, dayContent)
	if err != nil {
		logger.Fatal("chat failed", "error", err)
	}

	fmt.Println(reply)
}

func runBackfill(ctx context.Context, store *daymem.Store, cfg *config.Config) {
	if !cfg.RetrievalConfigured() {
		fmt.Fprintln(os.Stderr, "backfill skipped: no embedding provider configured")
		return
	}

	result, err := store.GenerateMissingEmbeddings(ctx)
	if err != nil {
		logger.Fatal("backfill failed", "error", err)
	}

	fmt.Printf("processed %d, succeeded %d, failed %d\n",
		result.Processed, result.Succeeded, result.Failed)
}

func runServe(store *daymem.Store, cfg *config.Config) {
	runner, err := scheduler.NewBackfillRunner(store, cfg.Backfill.Schedule)
	if err != nil {
		logger.Fatal("failed to create backfill runner", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	logger.Info("daybook serving", "db", cfg.StorePath, "schedule", cfg.Backfill.Schedule)
	runner.Run(ctx)
}
