// interview-client: Command-line test client for interviewd
// Connects over WebSocket, sends interview events, and prints server replies
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/voxhire/go-interview/pkg/protocol"
)

var (
	addr   = flag.String("addr", "localhost:8080", "interviewd host:port")
	format = flag.String("audio-format", "webm", "format label for audio uploads")
)

func main() {
	flag.Parse()

	url := fmt.Sprintf("ws://%s/ws/interview", *addr)
	fmt.Printf("🎙  Connecting to %s...\n", url)

	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		fmt.Printf("❌ Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer ws.Close()

	fmt.Println("Connected. Commands:")
	fmt.Println("  /start           begin the interview")
	fmt.Println("  /audio <file>    upload an audio file as one utterance")
	fmt.Println("  /end             end and evaluate")
	fmt.Println("  /eval            fetch the stored evaluation")
	fmt.Println("  /quit            disconnect")
	fmt.Println("  anything else    sent as a typed answer")
	fmt.Println()

	go readLoop(ws)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var msg *protocol.Message
		var err error

		switch {
		case line == "/quit":
			return
		case line == "/start":
			msg, err = protocol.NewMessage(protocol.TypeStartInterview, nil)
		case line == "/end":
			msg, err = protocol.NewMessage(protocol.TypeEndInterview, nil)
		case line == "/eval":
			msg, err = protocol.NewMessage(protocol.TypeGetEvaluation, nil)
		case strings.HasPrefix(line, "/audio "):
			if err := sendAudio(ws, strings.TrimPrefix(line, "/audio ")); err != nil {
				fmt.Printf("❌ %v\n", err)
			}
			continue
		default:
			msg, err = protocol.NewTextMessage(line)
		}

		if err != nil {
			fmt.Printf("❌ Failed to build message: %v\n", err)
			continue
		}
		if err := send(ws, msg); err != nil {
			fmt.Printf("❌ Write error: %v\n", err)
			return
		}
	}
}

// sendAudio uploads one file as an audio chunk followed by audio-complete.
func sendAudio(ws *websocket.Conn, path string) error {
	audio, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	chunk, err := protocol.NewAudioDataMessage(audio, *format)
	if err != nil {
		return err
	}
	if err := send(ws, chunk); err != nil {
		return err
	}

	done, err := protocol.NewMessage(protocol.TypeAudioComplete, nil)
	if err != nil {
		return err
	}
	fmt.Printf("📤 Sent %d audio bytes\n", len(audio))
	return send(ws, done)
}

func send(ws *websocket.Conn, msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	return ws.WriteMessage(websocket.TextMessage, data)
}

// readLoop prints every server event until the connection drops.
func readLoop(ws *websocket.Conn) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			fmt.Printf("\n👋 Connection closed: %v\n", err)
			os.Exit(0)
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			fmt.Printf("⚠️  Unparseable frame: %v\n", err)
			continue
		}

		switch msg.Type {
		case protocol.TypeTranscription:
			if d, err := msg.GetTranscriptionData(); err == nil {
				fmt.Printf("📝 You said: %s\n", d.Text)
			}

		case protocol.TypeAIResponse:
			if d, err := msg.GetAIResponseData(); err == nil {
				fmt.Printf("🤖 Interviewer: %s\n", d.Message)
			}

		case protocol.TypeAIAudio:
			if d, err := msg.GetAIAudioData(); err == nil {
				audio, _ := d.DecodeAudio()
				fmt.Printf("🔊 Received %d audio bytes\n", len(audio))
			}

		case protocol.TypeProcessingError:
			if d, err := msg.GetProcessingErrorData(); err == nil {
				fmt.Printf("❌ %s: %s\n", d.Message, d.Error)
			}

		case protocol.TypeEvaluationComplete, protocol.TypeEvaluationResult:
			fmt.Printf("📊 Evaluation: %s\n", string(msg.Data))

		case protocol.TypeEvaluationError:
			if d, err := msg.GetEvaluationErrorData(); err == nil {
				fmt.Printf("❌ Evaluation failed: %s\n", d.Error)
			}

		default:
			fmt.Printf("❓ %s: %s\n", msg.Type, string(msg.Data))
		}
	}
}
