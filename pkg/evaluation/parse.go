package evaluation

import (
	"encoding/json"
	"strings"
)

// ExtractJSON returns the substring from the first '{' through the last '}'
// in the reply, tolerating surrounding prose the model may add despite
// instructions. The second return value reports whether a candidate block
// was found.
func ExtractJSON(reply string) (string, bool) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return reply[start : end+1], true
}

// decodeRecord extracts and strictly validates a grading reply.
// Both a scores field and a comments field must be present; any failure in
// extraction, parsing, or the presence check reports !ok.
func decodeRecord(reply string) (*Record, bool) {
	raw, ok := ExtractJSON(reply)
	if !ok {
		return nil, false
	}

	var probe struct {
		Scores   json.RawMessage `json:"scores"`
		Comments json.RawMessage `json:"comments"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, false
	}
	if probe.Scores == nil || probe.Comments == nil {
		return nil, false
	}

	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, false
	}
	return &record, true
}
