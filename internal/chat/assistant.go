package chat

import (
	"context"

	"github.com/bowerhall/daybook/internal/conversation"
	"github.com/bowerhall/daybook/internal/llm"
	"github.com/bowerhall/daybook/internal/logger"
)

// errorReply is stored as a visible assistant turn when the provider fails,
// so the transcript always reflects what the user saw.
const errorReply = "Sorry, I encountered an error. Please try again."

type Assistant struct {
	model   llm.LLM
	history *conversation.Store
	builder *ContextBuilder
}

func NewAssistant(model llm.LLM, history *conversation.Store, builder *ContextBuilder) *Assistant {
	return &Assistant{
		model:   model,
		history: history,
		builder: builder,
	}
}

// Send runs one assistant turn: record the user message, ground it in the
// journal, call the completion provider, record the reply. A provider
// failure still leaves a well-formed transcript and returns the error for
// the caller to surface.
func (a *Assistant) Send(ctx context.Context, sessionID, message, day, dayContent string) (string, error) {
	prior, err := a.history.History(sessionID)
	if err != nil {
		return "", err
	}

	if _, err := a.history.Add(sessionID, "user", message); err != nil {
		return "", err
	}

	var messages []llm.Message
	for _, turn := range prior {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: message})

	system := a.builder.Build(ctx, message, day, dayContent)

	reply, err := a.model.Chat(ctx, system, messages)
	if err != nil {
		if _, histErr := a.history.Add(sessionID, "assistant", errorReply); histErr != nil {
			logger.Error("failed to record error turn", "error", histErr)
		}
		return "", err
	}

	if _, err := a.history.Add(sessionID, "assistant", reply); err != nil {
		logger.Error("failed to record assistant turn", "error", err)
	}

	return reply, nil
}

// Clear wipes a session's transcript.
func (a *Assistant) Clear(sessionID string) error {
	return a.history.Clear(sessionID)
}
