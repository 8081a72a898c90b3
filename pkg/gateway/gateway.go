// Package gateway owns the WebSocket lifecycle of interview sessions.
//
// Each client connection becomes one Session with a fresh id. Inbound events
// drive the speech-to-text, conversation, synthesis, and evaluation
// components in strict sequence; outbound events go back over the same
// connection. Pipelines run one at a time per session, and a session's
// history and audio buffer die with its connection. Evaluation records
// survive disconnect.
package gateway

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/voxhire/go-interview/pkg/evaluation"
	"github.com/voxhire/go-interview/pkg/interview"
	"github.com/voxhire/go-interview/pkg/protocol"
	"github.com/voxhire/go-interview/pkg/stt"
	"github.com/voxhire/go-interview/pkg/tts"
)

// Config carries the gateway's collaborators.
type Config struct {
	STT         stt.Provider
	Interviews  *interview.Engine
	TTS         tts.Provider
	Evaluations *evaluation.Engine

	// SpoolDir is where buffered utterances are written while a
	// transcription run is in flight. Defaults to os.TempDir().
	SpoolDir string

	Logger *slog.Logger
}

// Gateway manages WebSocket connections from interview clients.
type Gateway struct {
	stt         stt.Provider
	interviews  *interview.Engine
	tts         tts.Provider
	evaluations *evaluation.Engine
	spoolDir    string
	logger      *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	// Stats
	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	pipelineRuns     atomic.Uint64
	pipelineErrors   atomic.Uint64
}

// New creates a gateway wired to the given components.
func New(cfg Config) *Gateway {
	if cfg.SpoolDir == "" {
		cfg.SpoolDir = os.TempDir()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Gateway{
		stt:         cfg.STT,
		interviews:  cfg.Interviews,
		tts:         cfg.TTS,
		evaluations: cfg.Evaluations,
		spoolDir:    cfg.SpoolDir,
		logger:      cfg.Logger.With("component", "gateway"),
		sessions:    make(map[string]*Session),
	}
}

// RegisterRoutes registers the WebSocket routes on a Fiber app.
func (g *Gateway) RegisterRoutes(app *fiber.App) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/interview", websocket.New(g.handleClient))
}

// handleClient runs one client connection from upgrade to disconnect.
func (g *Gateway) handleClient(c *websocket.Conn) {
	sessionID := uuid.NewString()
	sess := newSession(sessionID, &wsEmitter{conn: c})

	g.mu.Lock()
	g.sessions[sessionID] = sess
	count := len(g.sessions)
	g.mu.Unlock()

	g.logger.Info("session connected", "session", sessionID, "active", count)

	defer func() {
		g.mu.Lock()
		delete(g.sessions, sessionID)
		count := len(g.sessions)
		g.mu.Unlock()

		// History and buffered audio die with the connection.
		// Any stored evaluation record stays retrievable.
		g.interviews.ClearHistory(sessionID)

		g.logger.Info("session disconnected", "session", sessionID, "active", count)
	}()

	for {
		msgType, data, err := c.ReadMessage()
		if err != nil {
			g.logger.Debug("read loop ended", "session", sessionID, "error", err)
			return
		}

		sess.touch()
		g.messagesReceived.Add(1)

		// Binary frames are raw microphone chunks.
		if msgType == websocket.BinaryMessage {
			sess.appendAudio(data, "")
			continue
		}

		g.handleMessage(sess, data)
	}
}

// handleMessage dispatches one inbound text frame.
func (g *Gateway) handleMessage(sess *Session, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		g.logger.Warn("unparseable message", "session", sess.ID, "error", err)
		return
	}

	switch msg.Type {
	case protocol.TypeAudioData:
		g.handleAudioChunk(sess, msg)

	case protocol.TypeAudioComplete:
		g.processAudio(sess)

	case protocol.TypeTextMessage:
		text, err := msg.GetTextMessageData()
		if err != nil || strings.TrimSpace(text.Message) == "" {
			g.logger.Warn("invalid text message", "session", sess.ID, "error", err)
			return
		}
		g.processText(sess, text.Message)

	case protocol.TypeStartInterview:
		g.startInterview(sess)

	case protocol.TypeEndInterview:
		g.endInterview(sess)

	case protocol.TypeGetEvaluation:
		g.getEvaluation(sess)

	default:
		g.logger.Warn("unknown message type", "session", sess.ID, "type", msg.Type)
	}
}

// handleAudioChunk decodes and buffers one base64 audio chunk.
func (g *Gateway) handleAudioChunk(sess *Session, msg *protocol.Message) {
	chunk, err := msg.GetAudioData()
	if err != nil {
		g.emitProcessingError(sess, "could not parse audio chunk", err)
		return
	}
	audio, err := chunk.DecodeAudio()
	if err != nil {
		g.emitProcessingError(sess, "could not decode audio chunk", err)
		return
	}
	sess.appendAudio(audio, chunk.Format)
}

// processAudio runs the full utterance pipeline: drain the accumulator,
// spool it, transcribe, chat, synthesize. An empty accumulator is a
// log-only no-op.
func (g *Gateway) processAudio(sess *Session) {
	sess.runMu.Lock()
	defer sess.runMu.Unlock()

	audio, format := sess.drainAudio()
	if len(audio) == 0 {
		g.logger.Debug("audio-complete with empty buffer", "session", sess.ID)
		return
	}

	g.pipelineRuns.Add(1)
	ctx := context.Background()
	start := time.Now()

	spool, err := g.spoolAudio(sess.ID, audio)
	if err != nil {
		g.logger.Warn("could not spool audio", "session", sess.ID, "error", err)
	} else {
		defer os.Remove(spool)
	}

	result, err := g.stt.Transcribe(ctx, audio, "")
	if err != nil {
		g.pipelineErrors.Add(1)
		g.emitProcessingError(sess, "could not transcribe audio", err)
		return
	}

	g.logger.Info("transcribed utterance",
		"session", sess.ID,
		"audio_bytes", len(audio),
		"format", format,
		"chars", len(result.Text),
		"latency_ms", result.LatencyMs,
	)

	if msg, err := protocol.NewTranscriptionMessage(result.Text); err == nil {
		g.emit(sess, msg)
	}

	g.respond(ctx, sess, result.Text, start)
}

// processText runs the pipeline for a typed candidate message.
func (g *Gateway) processText(sess *Session, text string) {
	sess.runMu.Lock()
	defer sess.runMu.Unlock()

	g.pipelineRuns.Add(1)
	g.respond(context.Background(), sess, text, time.Now())
}

// startInterview asks the conversation engine for its seeded opening.
func (g *Gateway) startInterview(sess *Session) {
	sess.runMu.Lock()
	defer sess.runMu.Unlock()

	g.pipelineRuns.Add(1)
	ctx := context.Background()
	start := time.Now()

	reply, err := g.interviews.StartInterview(ctx, sess.ID)
	if err != nil {
		g.pipelineErrors.Add(1)
		g.emitProcessingError(sess, "could not start the interview", err)
		return
	}
	g.deliver(ctx, sess, reply, start)
}

// respond runs the chat stage and then the delivery tail.
func (g *Gateway) respond(ctx context.Context, sess *Session, userText string, start time.Time) {
	reply, err := g.interviews.Chat(ctx, sess.ID, userText)
	if err != nil {
		g.pipelineErrors.Add(1)
		g.emitProcessingError(sess, "could not generate a response", err)
		return
	}
	g.deliver(ctx, sess, reply, start)
}

// deliver emits the interviewer's text reply, then synthesizes and emits
// its audio. The text event always goes out first so a synthesis failure
// never loses the reply.
func (g *Gateway) deliver(ctx context.Context, sess *Session, reply string, start time.Time) {
	if msg, err := protocol.NewAIResponseMessage(reply); err == nil {
		g.emit(sess, msg)
	}

	audio, err := g.tts.Synthesize(ctx, reply)
	if err != nil {
		g.pipelineErrors.Add(1)
		g.emitProcessingError(sess, "could not synthesize speech", err)
		return
	}

	if msg, err := protocol.NewAIAudioMessage(audio.Audio); err == nil {
		g.emit(sess, msg)
	}

	g.logger.Info("pipeline complete",
		"session", sess.ID,
		"reply_chars", len(reply),
		"audio_bytes", len(audio.Audio),
		"total_ms", time.Since(start).Milliseconds(),
	)
}

// endInterview grades the session's full history.
func (g *Gateway) endInterview(sess *Session) {
	sess.runMu.Lock()
	defer sess.runMu.Unlock()

	ctx := context.Background()
	history := g.interviews.History(sess.ID)

	record, err := g.evaluations.Evaluate(ctx, sess.ID, history)
	if err != nil {
		g.pipelineErrors.Add(1)
		if msg, merr := protocol.NewEvaluationErrorMessage(err.Error()); merr == nil {
			g.emit(sess, msg)
		}
		return
	}

	if msg, err := protocol.NewMessage(protocol.TypeEvaluationComplete, record); err == nil {
		g.emit(sess, msg)
	}
}

// getEvaluation looks up the stored record without recomputing.
func (g *Gateway) getEvaluation(sess *Session) {
	record, ok := g.evaluations.Get(sess.ID)
	if !ok {
		if msg, err := protocol.NewEvaluationErrorMessage("no evaluation available for this session"); err == nil {
			g.emit(sess, msg)
		}
		return
	}

	if msg, err := protocol.NewMessage(protocol.TypeEvaluationResult, record); err == nil {
		g.emit(sess, msg)
	}
}

// spoolAudio writes the drained utterance to a transient file and returns
// its path. The caller removes it when the pipeline run finishes.
func (g *Gateway) spoolAudio(sessionID string, audio []byte) (string, error) {
	f, err := os.CreateTemp(g.spoolDir, "utterance-*.webm")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.Write(audio); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// emit sends one outbound message, counting and logging failures.
func (g *Gateway) emit(sess *Session, msg *protocol.Message) {
	g.messagesSent.Add(1)
	if err := sess.send(msg); err != nil {
		g.logger.Warn("emit failed", "session", sess.ID, "type", msg.Type, "error", err)
	}
}

// emitProcessingError reports a pipeline failure to the client.
func (g *Gateway) emitProcessingError(sess *Session, message string, err error) {
	g.logger.Error("pipeline error", "session", sess.ID, "message", message, "error", err)

	msg, merr := protocol.NewProcessingErrorMessage(message, err)
	if merr != nil {
		return
	}
	g.emit(sess, msg)
}

// SessionCount returns the number of connected sessions.
func (g *Gateway) SessionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.sessions)
}

// Stats contains gateway counters.
type Stats struct {
	SessionCount     int    `json:"session_count"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	PipelineRuns     uint64 `json:"pipeline_runs"`
	PipelineErrors   uint64 `json:"pipeline_errors"`
}

// GetStats returns a snapshot of the gateway counters.
func (g *Gateway) GetStats() Stats {
	return Stats{
		SessionCount:     g.SessionCount(),
		MessagesReceived: g.messagesReceived.Load(),
		MessagesSent:     g.messagesSent.Load(),
		PipelineRuns:     g.pipelineRuns.Load(),
		PipelineErrors:   g.pipelineErrors.Load(),
	}
}
