// Package evaluation grades a finished interview conversation.
//
// The engine renders the session transcript into a single grading prompt,
// asks a chat-completion provider to score the candidate against a fixed
// rubric, and parses the loosely-structured reply into a Record. When the
// reply cannot be parsed, a deterministic fallback record is returned
// instead of an error; each new Evaluate call re-attempts a fresh model
// call. Records are stored in process memory keyed by session id.
package evaluation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/voxhire/go-interview/pkg/inference"
	"github.com/voxhire/go-interview/pkg/interview"
)

// ErrEmptyHistory is returned when evaluating a session with no turns.
var ErrEmptyHistory = errors.New("evaluation: empty conversation history")

// Scores holds the five rubric criteria, each conventionally in [1,10].
// Overall may be fractional.
type Scores struct {
	Communication  float64 `json:"communication"`
	Technical      float64 `json:"technical"`
	Motivation     float64 `json:"motivation"`
	ProblemSolving float64 `json:"problemSolving"`
	Overall        float64 `json:"overall"`
}

// Comments holds the qualitative feedback for a candidate.
type Comments struct {
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Summary      string   `json:"summary"`
}

// Record is the structured result of grading one interview.
type Record struct {
	Scores      Scores    `json:"scores"`
	Comments    Comments  `json:"comments"`
	EvaluatedAt time.Time `json:"evaluatedAt"`
}

// Engine grades interview transcripts and stores the results.
// It is safe for concurrent use across sessions.
type Engine struct {
	provider inference.Provider
	logger   *slog.Logger

	mu      sync.RWMutex
	records map[string]*Record
}

// NewEngine creates a new evaluation engine.
// A nil logger falls back to slog.Default().
func NewEngine(provider inference.Provider, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		provider: provider,
		logger:   logger.With("component", "evaluation.engine"),
		records:  make(map[string]*Record),
	}
}

// Evaluate grades the session's conversation history and stores the result,
// replacing any prior record for the session. An empty history is a defined
// failure; provider errors propagate unmodified. A malformed model reply
// yields the fixed fallback record, never an error.
func (e *Engine) Evaluate(ctx context.Context, sessionID string, history []interview.Turn) (*Record, error) {
	if len(history) == 0 {
		return nil, ErrEmptyHistory
	}

	prompt := buildPrompt(renderTranscript(history))

	resp, err := e.provider.Chat(ctx, &inference.ChatRequest{
		Messages: []inference.Message{inference.NewUserMessage(prompt)},
	})
	if err != nil {
		return nil, err
	}

	record, ok := decodeRecord(resp.Message.Content)
	if !ok {
		e.logger.Warn("could not parse evaluation reply, using fallback",
			"session", sessionID,
			"reply_chars", len(resp.Message.Content),
		)
		record = fallbackRecord()
	}
	record.EvaluatedAt = time.Now()

	e.mu.Lock()
	e.records[sessionID] = record
	e.mu.Unlock()

	e.logger.Info("evaluation complete",
		"session", sessionID,
		"overall", record.Scores.Overall,
	)

	stored := *record
	return &stored, nil
}

// Get returns the stored record for the session, if any.
// It never triggers computation.
func (e *Engine) Get(sessionID string) (*Record, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	record, ok := e.records[sessionID]
	if !ok {
		return nil, false
	}
	copied := *record
	return &copied, true
}

// Clear removes the stored record for the session.
func (e *Engine) Clear(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.records, sessionID)
}

// Fallback values used when the model reply cannot be parsed.
const (
	fallbackScore    = 5
	fallbackStrength = "Evaluation could not be completed automatically"
	fallbackSummary  = "The evaluation response could not be parsed. End the interview again to retry."
)

// fallbackRecord returns the fixed neutral record used when parsing fails.
func fallbackRecord() *Record {
	return &Record{
		Scores: Scores{
			Communication:  fallbackScore,
			Technical:      fallbackScore,
			Motivation:     fallbackScore,
			ProblemSolving: fallbackScore,
			Overall:        fallbackScore,
		},
		Comments: Comments{
			Strengths:    []string{fallbackStrength},
			Improvements: []string{},
			Summary:      fallbackSummary,
		},
	}
}
