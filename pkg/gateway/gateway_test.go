package gateway

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/voxhire/go-interview/pkg/evaluation"
	"github.com/voxhire/go-interview/pkg/inference"
	"github.com/voxhire/go-interview/pkg/interview"
	"github.com/voxhire/go-interview/pkg/protocol"
	"github.com/voxhire/go-interview/pkg/stt"
	"github.com/voxhire/go-interview/pkg/tts"
)

// fakeEmitter records outbound messages in order.
type fakeEmitter struct {
	mu   sync.Mutex
	msgs []*protocol.Message
}

func (f *fakeEmitter) Emit(msg *protocol.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeEmitter) types() []protocol.MessageType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]protocol.MessageType, len(f.msgs))
	for i, m := range f.msgs {
		out[i] = m.Type
	}
	return out
}

func (f *fakeEmitter) message(i int) *protocol.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.msgs[i]
}

func (f *fakeEmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

const evalReply = `{"scores":{"communication":8,"technical":7,"motivation":9,"problemSolving":6,"overall":7.5},
	"comments":{"strengths":["clear"],"improvements":[],"summary":"good"}}`

type testDeps struct {
	stt      *stt.Mock
	chat     *inference.Mock
	tts      *tts.Mock
	evalChat *inference.Mock
}

func newTestGateway(t *testing.T) (*Gateway, *Session, *fakeEmitter, *testDeps) {
	t.Helper()

	deps := &testDeps{
		stt:      stt.NewMock(),
		chat:     inference.NewMock(),
		tts:      tts.NewMock(),
		evalChat: inference.NewMock(),
	}
	deps.evalChat.ChatFunc = func(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
		return &inference.ChatResponse{Message: inference.NewAssistantMessage(evalReply)}, nil
	}

	g := New(Config{
		STT:         deps.stt,
		Interviews:  interview.NewEngine(deps.chat, nil),
		TTS:         deps.tts,
		Evaluations: evaluation.NewEngine(deps.evalChat, nil),
		SpoolDir:    t.TempDir(),
	})

	emitter := &fakeEmitter{}
	sess := newSession("test-session", emitter)
	g.mu.Lock()
	g.sessions[sess.ID] = sess
	g.mu.Unlock()

	return g, sess, emitter, deps
}

// dispatch marshals a protocol message and feeds it through the text-frame path.
func dispatch(t *testing.T, g *Gateway, sess *Session, msg *protocol.Message) {
	t.Helper()
	data, err := msg.Bytes()
	if err != nil {
		t.Fatalf("marshal message: %v", err)
	}
	g.handleMessage(sess, data)
}

func TestAudioPipelineEventOrder(t *testing.T) {
	g, sess, emitter, _ := newTestGateway(t)

	chunk, _ := protocol.NewAudioDataMessage([]byte("opus-bytes"), "webm")
	dispatch(t, g, sess, chunk)

	done, _ := protocol.NewMessage(protocol.TypeAudioComplete, nil)
	dispatch(t, g, sess, done)

	want := []protocol.MessageType{
		protocol.TypeTranscription,
		protocol.TypeAIResponse,
		protocol.TypeAIAudio,
	}
	got := emitter.types()
	if len(got) != len(want) {
		t.Fatalf("event types = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, got[i], want[i])
		}
	}

	tr, err := emitter.message(0).GetTranscriptionData()
	if err != nil {
		t.Fatalf("GetTranscriptionData() error = %v", err)
	}
	if tr.Text != "mock transcript" {
		t.Errorf("transcript = %q", tr.Text)
	}
}

func TestAudioCompleteEmptyBufferIsNoOp(t *testing.T) {
	g, sess, emitter, deps := newTestGateway(t)

	done, _ := protocol.NewMessage(protocol.TypeAudioComplete, nil)
	dispatch(t, g, sess, done)

	if n := emitter.count(); n != 0 {
		t.Errorf("emitted %d events, want 0", n)
	}
	if n := deps.stt.CallCount("Transcribe"); n != 0 {
		t.Errorf("Transcribe called %d times, want 0", n)
	}
}

func TestAudioAccumulatorDrainedAfterRun(t *testing.T) {
	g, sess, emitter, deps := newTestGateway(t)

	chunk, _ := protocol.NewAudioDataMessage([]byte("opus-bytes"), "webm")
	dispatch(t, g, sess, chunk)

	done, _ := protocol.NewMessage(protocol.TypeAudioComplete, nil)
	dispatch(t, g, sess, done)
	dispatch(t, g, sess, done) // second complete sees an empty buffer

	if n := deps.stt.CallCount("Transcribe"); n != 1 {
		t.Errorf("Transcribe called %d times, want 1", n)
	}
	if n := emitter.count(); n != 3 {
		t.Errorf("emitted %d events, want 3", n)
	}
}

func TestBinaryFramesAccumulate(t *testing.T) {
	g, sess, emitter, deps := newTestGateway(t)

	sess.appendAudio([]byte("part-one-"), "")
	sess.appendAudio([]byte("part-two"), "")

	var gotAudio []byte
	deps.stt.TranscribeFunc = func(ctx context.Context, audio []byte, language string) (*stt.Result, error) {
		gotAudio = audio
		return &stt.Result{Text: "joined"}, nil
	}

	done, _ := protocol.NewMessage(protocol.TypeAudioComplete, nil)
	dispatch(t, g, sess, done)

	if string(gotAudio) != "part-one-part-two" {
		t.Errorf("transcribed audio = %q", gotAudio)
	}
	if emitter.count() == 0 {
		t.Fatal("expected pipeline events")
	}
}

func TestInvalidAudioChunkReportsError(t *testing.T) {
	g, sess, emitter, _ := newTestGateway(t)

	bad, _ := protocol.NewMessage(protocol.TypeAudioData, protocol.AudioData{Data: "not!!base64"})
	dispatch(t, g, sess, bad)

	types := emitter.types()
	if len(types) != 1 || types[0] != protocol.TypeProcessingError {
		t.Errorf("event types = %v, want [processing-error]", types)
	}
}

func TestTextMessagePipeline(t *testing.T) {
	g, sess, emitter, deps := newTestGateway(t)

	deps.chat.ChatFunc = func(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
		return &inference.ChatResponse{Message: inference.NewAssistantMessage("Why Go?")}, nil
	}

	msg, _ := protocol.NewTextMessage("I like concurrency")
	dispatch(t, g, sess, msg)

	want := []protocol.MessageType{protocol.TypeAIResponse, protocol.TypeAIAudio}
	got := emitter.types()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("event types = %v, want %v", got, want)
	}

	reply, err := emitter.message(0).GetAIResponseData()
	if err != nil {
		t.Fatalf("GetAIResponseData() error = %v", err)
	}
	if reply.Message != "Why Go?" {
		t.Errorf("reply = %q", reply.Message)
	}
}

func TestSynthesisFailureStillDeliversText(t *testing.T) {
	g, sess, emitter, deps := newTestGateway(t)

	deps.tts.SynthesizeFunc = func(ctx context.Context, text string) (*tts.AudioResult, error) {
		return nil, errors.New("synthesis down")
	}

	msg, _ := protocol.NewTextMessage("hello")
	dispatch(t, g, sess, msg)

	want := []protocol.MessageType{protocol.TypeAIResponse, protocol.TypeProcessingError}
	got := emitter.types()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("event types = %v, want %v", got, want)
	}
}

func TestTranscriptionFailureAbortsPipeline(t *testing.T) {
	g, sess, emitter, deps := newTestGateway(t)

	deps.stt.TranscribeFunc = func(ctx context.Context, audio []byte, language string) (*stt.Result, error) {
		return nil, errors.New("stt down")
	}

	chunk, _ := protocol.NewAudioDataMessage([]byte("opus"), "webm")
	dispatch(t, g, sess, chunk)
	done, _ := protocol.NewMessage(protocol.TypeAudioComplete, nil)
	dispatch(t, g, sess, done)

	types := emitter.types()
	if len(types) != 1 || types[0] != protocol.TypeProcessingError {
		t.Errorf("event types = %v, want [processing-error]", types)
	}
	if n := deps.chat.CallCount("Chat"); n != 0 {
		t.Errorf("Chat called %d times, want 0", n)
	}
}

func TestChatFailureReportsError(t *testing.T) {
	g, sess, emitter, deps := newTestGateway(t)

	deps.chat.ChatFunc = func(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
		return nil, errors.New("model down")
	}

	msg, _ := protocol.NewTextMessage("hello")
	dispatch(t, g, sess, msg)

	types := emitter.types()
	if len(types) != 1 || types[0] != protocol.TypeProcessingError {
		t.Errorf("event types = %v, want [processing-error]", types)
	}
	if n := deps.tts.CallCount("Synthesize"); n != 0 {
		t.Errorf("Synthesize called %d times, want 0", n)
	}
}

func TestStartInterviewEmitsOpening(t *testing.T) {
	g, sess, emitter, deps := newTestGateway(t)

	deps.chat.ChatFunc = func(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
		return &inference.ChatResponse{Message: inference.NewAssistantMessage("Welcome! Tell me about yourself.")}, nil
	}

	msg, _ := protocol.NewMessage(protocol.TypeStartInterview, nil)
	dispatch(t, g, sess, msg)

	want := []protocol.MessageType{protocol.TypeAIResponse, protocol.TypeAIAudio}
	got := emitter.types()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("event types = %v, want %v", got, want)
	}
}

func TestEndInterviewEmptyHistory(t *testing.T) {
	g, sess, emitter, _ := newTestGateway(t)

	msg, _ := protocol.NewMessage(protocol.TypeEndInterview, nil)
	dispatch(t, g, sess, msg)

	types := emitter.types()
	if len(types) != 1 || types[0] != protocol.TypeEvaluationError {
		t.Errorf("event types = %v, want [evaluation-error]", types)
	}
}

func TestEndInterviewThenGetEvaluation(t *testing.T) {
	g, sess, emitter, _ := newTestGateway(t)

	// Build some history first.
	text, _ := protocol.NewTextMessage("I led a migration to Go services")
	dispatch(t, g, sess, text)

	end, _ := protocol.NewMessage(protocol.TypeEndInterview, nil)
	dispatch(t, g, sess, end)

	get, _ := protocol.NewMessage(protocol.TypeGetEvaluation, nil)
	dispatch(t, g, sess, get)

	types := emitter.types()
	if types[2] != protocol.TypeEvaluationComplete {
		t.Errorf("event 2 = %v, want evaluation-complete", types[2])
	}
	if types[3] != protocol.TypeEvaluationResult {
		t.Errorf("event 3 = %v, want evaluation-result", types[3])
	}

	var fresh, stored evaluation.Record
	if err := emitter.message(2).ParseData(&fresh); err != nil {
		t.Fatalf("parse evaluation-complete: %v", err)
	}
	if err := emitter.message(3).ParseData(&stored); err != nil {
		t.Fatalf("parse evaluation-result: %v", err)
	}

	// The stored read returns the identical record.
	if fresh.Scores != stored.Scores {
		t.Errorf("stored scores %+v != fresh scores %+v", stored.Scores, fresh.Scores)
	}
	if fresh.Scores.Overall != 7.5 {
		t.Errorf("overall = %v, want 7.5", fresh.Scores.Overall)
	}
}

func TestGetEvaluationWithoutRecord(t *testing.T) {
	g, sess, emitter, _ := newTestGateway(t)

	get, _ := protocol.NewMessage(protocol.TypeGetEvaluation, nil)
	dispatch(t, g, sess, get)

	types := emitter.types()
	if len(types) != 1 || types[0] != protocol.TypeEvaluationError {
		t.Errorf("event types = %v, want [evaluation-error]", types)
	}
}

func TestSpoolFileRemovedAfterRun(t *testing.T) {
	g, sess, _, _ := newTestGateway(t)

	chunk, _ := protocol.NewAudioDataMessage([]byte("opus-bytes"), "webm")
	dispatch(t, g, sess, chunk)
	done, _ := protocol.NewMessage(protocol.TypeAudioComplete, nil)
	dispatch(t, g, sess, done)

	entries, err := os.ReadDir(g.spoolDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("spool dir has %d leftover files", len(entries))
	}
}

func TestSpoolFileRemovedOnTranscriptionFailure(t *testing.T) {
	g, sess, _, deps := newTestGateway(t)

	deps.stt.TranscribeFunc = func(ctx context.Context, audio []byte, language string) (*stt.Result, error) {
		return nil, errors.New("stt down")
	}

	chunk, _ := protocol.NewAudioDataMessage([]byte("opus-bytes"), "webm")
	dispatch(t, g, sess, chunk)
	done, _ := protocol.NewMessage(protocol.TypeAudioComplete, nil)
	dispatch(t, g, sess, done)

	entries, err := os.ReadDir(g.spoolDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("spool dir has %d leftover files", len(entries))
	}
}

func TestUnparseableFrameIsIgnored(t *testing.T) {
	g, sess, emitter, _ := newTestGateway(t)

	g.handleMessage(sess, []byte("not json"))

	if n := emitter.count(); n != 0 {
		t.Errorf("emitted %d events, want 0", n)
	}
}

func TestAudioRoundTrip(t *testing.T) {
	g, sess, emitter, deps := newTestGateway(t)

	synthesized := []byte{0x00, 0x01, 0xFF, 0xFE, 0x7F}
	deps.tts.SynthesizeFunc = func(ctx context.Context, text string) (*tts.AudioResult, error) {
		return &tts.AudioResult{Audio: synthesized}, nil
	}

	msg, _ := protocol.NewTextMessage("hello")
	dispatch(t, g, sess, msg)

	audioMsg := emitter.message(emitter.count() - 1)
	if audioMsg.Type != protocol.TypeAIAudio {
		t.Fatalf("last event = %v, want ai-audio", audioMsg.Type)
	}

	data, err := audioMsg.GetAIAudioData()
	if err != nil {
		t.Fatalf("GetAIAudioData() error = %v", err)
	}
	decoded, err := data.DecodeAudio()
	if err != nil {
		t.Fatalf("DecodeAudio() error = %v", err)
	}
	if string(decoded) != string(synthesized) {
		t.Errorf("decoded audio %v != synthesized %v", decoded, synthesized)
	}
}

func TestStatsCountPipelines(t *testing.T) {
	g, sess, _, _ := newTestGateway(t)

	msg, _ := protocol.NewTextMessage("hello")
	dispatch(t, g, sess, msg)
	dispatch(t, g, sess, msg)

	stats := g.GetStats()
	if stats.PipelineRuns != 2 {
		t.Errorf("PipelineRuns = %d, want 2", stats.PipelineRuns)
	}
	if stats.SessionCount != 1 {
		t.Errorf("SessionCount = %d, want 1", stats.SessionCount)
	}
	if stats.MessagesSent == 0 {
		t.Error("MessagesSent = 0, want > 0")
	}
}

func TestHistoryClearedOnDisconnect(t *testing.T) {
	g, sess, _, _ := newTestGateway(t)

	msg, _ := protocol.NewTextMessage("hello")
	dispatch(t, g, sess, msg)

	end, _ := protocol.NewMessage(protocol.TypeEndInterview, nil)
	dispatch(t, g, sess, end)

	// Simulate the disconnect cleanup path.
	g.mu.Lock()
	delete(g.sessions, sess.ID)
	g.mu.Unlock()
	g.interviews.ClearHistory(sess.ID)

	if got := len(g.interviews.History(sess.ID)); got != 0 {
		t.Errorf("history length after disconnect = %d, want 0", got)
	}

	// The evaluation record survives the disconnect.
	if _, ok := g.evaluations.Get(sess.ID); !ok {
		t.Error("evaluation record should survive disconnect")
	}
}
