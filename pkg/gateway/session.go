package gateway

import (
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/voxhire/go-interview/pkg/protocol"
)

// Emitter delivers outbound protocol messages to one client connection.
// Implementations must be safe for concurrent use.
type Emitter interface {
	Emit(msg *protocol.Message) error
}

// wsEmitter wraps a websocket connection with a write mutex so pipeline
// stages and control replies never interleave frames.
type wsEmitter struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsEmitter) Emit(msg *protocol.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

// Session is one connected candidate.
type Session struct {
	ID        string
	Connected time.Time

	emitter Emitter

	mu          sync.Mutex
	audio       []byte
	audioFormat string
	lastSeen    time.Time

	// runMu serializes pipeline runs: at most one in-flight
	// transcribe/chat/synthesize or evaluation run per session.
	runMu sync.Mutex
}

func newSession(id string, emitter Emitter) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		Connected: now,
		emitter:   emitter,
		lastSeen:  now,
	}
}

// appendAudio adds a microphone chunk to the accumulator.
// The first chunk's format wins for the whole utterance.
func (s *Session) appendAudio(chunk []byte, format string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.audio) == 0 && format != "" {
		s.audioFormat = format
	}
	s.audio = append(s.audio, chunk...)
}

// drainAudio atomically snapshots and resets the accumulator.
func (s *Session) drainAudio() ([]byte, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	audio, format := s.audio, s.audioFormat
	s.audio = nil
	s.audioFormat = ""
	return audio, format
}

func (s *Session) bufferedBytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.audio)
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// LastSeen reports when the session last received a frame.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) send(msg *protocol.Message) error {
	return s.emitter.Emit(msg)
}
