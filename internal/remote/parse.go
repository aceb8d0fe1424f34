package remote

import (
	"encoding/json"
	"strings"
)

// ExtractJSON pulls the outermost JSON object out of model text, tolerating
// markdown code fences and surrounding prose. Returns "" when no balanced
// object is present.
func ExtractJSON(text string) string {
	text = stripFences(text)

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// ExtractHTML pulls an HTML document out of model text, tolerating code
// fences and preamble prose. Returns "" when no document is present.
func ExtractHTML(text string) string {
	text = stripFences(text)

	lower := strings.ToLower(text)
	start := strings.Index(lower, "<!doctype")
	if start < 0 {
		start = strings.Index(lower, "<html")
	}
	if start < 0 {
		return ""
	}

	end := strings.LastIndex(lower, "</html>")
	if end < 0 {
		return strings.TrimSpace(text[start:])
	}
	return strings.TrimSpace(text[start : end+len("</html>")])
}

// decodeStructured unmarshals the JSON object embedded in model text into
// out. Malformed or absent payloads leave out at its zero value and report
// false; they are recoverable, not errors.
func decodeStructured(text string, out any) bool {
	payload := ExtractJSON(text)
	if payload == "" {
		return false
	}
	return json.Unmarshal([]byte(payload), out) == nil
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	// Drop the opening fence line and a trailing fence if present.
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	if i := strings.LastIndex(text, "```"); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}
