// Package interview maintains per-session interview conversations with an
// AI interviewer persona.
//
// The engine owns one ordered turn history per session. Each Chat call
// appends the candidate's message, sends the full history plus a fixed
// system instruction to a chat-completion provider, appends the reply, and
// returns it. Histories live only in process memory and are discarded when
// the session ends.
package interview

import (
	"context"
	"log/slog"
	"sync"

	"github.com/voxhire/go-interview/pkg/inference"
)

// Speaker identifies who produced a turn.
type Speaker string

const (
	// SpeakerUser is the candidate.
	SpeakerUser Speaker = "user"

	// SpeakerAssistant is the AI interviewer.
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one labeled utterance in a session's conversation history.
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Engine drives interview conversations against a chat-completion provider.
// It is safe for concurrent use across sessions.
type Engine struct {
	provider inference.Provider
	logger   *slog.Logger

	mu        sync.Mutex
	histories map[string][]Turn
}

// NewEngine creates a new conversation engine.
// A nil logger falls back to slog.Default().
func NewEngine(provider inference.Provider, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		provider:  provider,
		logger:    logger.With("component", "interview.engine"),
		histories: make(map[string][]Turn),
	}
}

// Chat appends the candidate's message to the session history, asks the
// provider for the interviewer's reply, appends it, and returns it.
// Provider errors propagate unmodified; the candidate turn stays recorded.
func (e *Engine) Chat(ctx context.Context, sessionID, userText string) (string, error) {
	return e.exchange(ctx, sessionID, userText)
}

// StartInterview seeds the exchange with a fixed opening instruction
// instead of a candidate message. Both the synthetic opening and the reply
// are recorded so a later evaluation sees the full exchange.
func (e *Engine) StartInterview(ctx context.Context, sessionID string) (string, error) {
	return e.exchange(ctx, sessionID, openingInstruction)
}

// History returns a copy of the session's turn sequence.
// Returns an empty slice for unknown sessions, never an error.
func (e *Engine) History(sessionID string) []Turn {
	e.mu.Lock()
	defer e.mu.Unlock()

	history := e.histories[sessionID]
	out := make([]Turn, len(history))
	copy(out, history)
	return out
}

// ClearHistory discards the session's turn sequence.
func (e *Engine) ClearHistory(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.histories, sessionID)
}

// exchange runs one user/assistant round trip for the session.
func (e *Engine) exchange(ctx context.Context, sessionID, userText string) (string, error) {
	e.mu.Lock()
	e.histories[sessionID] = append(e.histories[sessionID], Turn{Speaker: SpeakerUser, Text: userText})
	history := e.histories[sessionID]

	messages := make([]inference.Message, 0, len(history)+1)
	messages = append(messages, inference.NewSystemMessage(systemPrompt))
	for _, turn := range history {
		switch turn.Speaker {
		case SpeakerAssistant:
			messages = append(messages, inference.NewAssistantMessage(turn.Text))
		default:
			messages = append(messages, inference.NewUserMessage(turn.Text))
		}
	}
	e.mu.Unlock()

	resp, err := e.provider.Chat(ctx, &inference.ChatRequest{Messages: messages})
	if err != nil {
		return "", err
	}

	reply := resp.Message.Content

	e.mu.Lock()
	e.histories[sessionID] = append(e.histories[sessionID], Turn{Speaker: SpeakerAssistant, Text: reply})
	turns := len(e.histories[sessionID])
	e.mu.Unlock()

	e.logger.Debug("interview exchange",
		"session", sessionID,
		"turns", turns,
		"latency_ms", resp.LatencyMs,
	)

	return reply, nil
}
