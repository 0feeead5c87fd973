package agent

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

// ExtractJSON pulls a JSON object out of model output. A ```json fenced
// block wins; otherwise the first object in the text is decoded. It
// returns nil when no object can be parsed.
func ExtractJSON(text string) map[string]any {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		var obj map[string]any
		if err := json.Unmarshal([]byte(m[1]), &obj); err == nil {
			return obj
		}
	}

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil
	}
	var obj map[string]any
	if err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&obj); err != nil {
		return nil
	}
	return obj
}

// ParseReply turns raw model output into a Response. Structured output
// may carry the reply under public_response, message or reply, plus an
// optional confidence. Anything else is used verbatim.
func ParseReply(raw string) (Response, error) {
	resp := Response{Raw: raw}

	if obj := ExtractJSON(raw); obj != nil {
		for _, key := range []string{"public_response", "message", "reply"} {
			if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
				resp.Text = strings.TrimSpace(s)
				break
			}
		}
		if c, ok := obj["confidence"].(float64); ok && c >= 0 && c <= 1 {
			resp.Confidence = &c
		}
	}

	if resp.Text == "" {
		resp.Text = strings.TrimSpace(raw)
	}
	if resp.Text == "" {
		return resp, ErrEmptyReply
	}
	return resp, nil
}
