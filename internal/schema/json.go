package schema

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrNoJSON is returned when no parseable JSON can be located in a model
// response. This is terminal: permissive recovery has nothing to recover.
var ErrNoJSON = eris.New("no JSON found in response")

// ExtractJSON locates a JSON value inside raw model output. It tries a
// fenced code block first, then the largest top-level brace or bracket
// span. Returns ErrNoJSON when neither yields parseable JSON.
func ExtractJSON(raw string) (json.RawMessage, error) {
	if block := fencedBlock(raw); block != "" {
		if msg, ok := parseable(block); ok {
			return msg, nil
		}
	}

	if msg, ok := largestSpan(raw, '{', '}'); ok {
		return msg, nil
	}
	if msg, ok := largestSpan(raw, '[', ']'); ok {
		return msg, nil
	}

	return nil, ErrNoJSON
}

// fencedBlock returns the contents of the first markdown code fence, or
// "" when the text has none.
func fencedBlock(text string) string {
	start := strings.Index(text, "```")
	if start < 0 {
		return ""
	}
	rest := text[start+3:]
	// Skip an optional language tag on the fence line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		first := strings.TrimSpace(rest[:nl])
		if first == "json" || first == "" {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}

// largestSpan scans for balanced top-level open..close spans and returns
// the largest one that parses as JSON. Delimiters inside string literals
// are ignored.
func largestSpan(text string, open, close byte) (json.RawMessage, bool) {
	var best json.RawMessage
	var inString, escaped bool
	depth := 0
	start := -1

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case open:
			if depth == 0 {
				start = i
			}
			depth++
		case close:
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				if msg, ok := parseable(text[start : i+1]); ok && len(msg) > len(best) {
					best = msg
				}
				start = -1
			}
		}
	}

	return best, best != nil
}

func parseable(candidate string) (json.RawMessage, bool) {
	var probe any
	if err := json.Unmarshal([]byte(candidate), &probe); err != nil {
		return nil, false
	}
	switch probe.(type) {
	case map[string]any, []any:
		return json.RawMessage(candidate), true
	}
	return nil, false
}
