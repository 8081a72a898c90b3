package evaluation

import (
	"fmt"
	"strings"

	"github.com/voxhire/go-interview/pkg/interview"
)

// gradingPrompt instructs the model to grade a transcript and reply with a
// single JSON object matching the Record shape.
const gradingPrompt = `You are an experienced hiring manager reviewing a practice job interview.
Grade the candidate based on the transcript below.

Score each criterion from 1 to 10:
- communication: clarity, structure, and articulation of answers
- technical: depth and correctness of technical content
- motivation: enthusiasm and interest in the role
- problemSolving: reasoning and approach to open-ended questions
- overall: your holistic impression

Respond with ONLY a JSON object, no prose before or after, in exactly this shape:
{
  "scores": {"communication": 0, "technical": 0, "motivation": 0, "problemSolving": 0, "overall": 0},
  "comments": {"strengths": ["..."], "improvements": ["..."], "summary": "..."}
}

Transcript:
%s`

// renderTranscript flattens a turn history into labeled lines, one per turn.
func renderTranscript(history []interview.Turn) string {
	var b strings.Builder
	for _, turn := range history {
		label := "candidate"
		if turn.Speaker == interview.SpeakerAssistant {
			label = "interviewer"
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(turn.Text)
		b.WriteString("\n")
	}
	return b.String()
}

func buildPrompt(transcript string) string {
	return fmt.Sprintf(gradingPrompt, transcript)
}
