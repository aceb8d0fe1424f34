package remote

import "testing"

func TestExtractJSONPlainObject(t *testing.T) {
	got := ExtractJSON(`{"found": true, "x": 40, "y": 60, "label": "fan"}`)
	if got != `{"found": true, "x": 40, "y": 60, "label": "fan"}` {
		t.Fatalf("unexpected extraction: %q", got)
	}
}

func TestExtractJSONInsideFenceAndProse(t *testing.T) {
	text := "Here is the result:\n```json\n{\"found\": false, \"x\": 0, \"y\": 0, \"label\": \"\"}\n```\nLet me know if you need more."
	got := ExtractJSON(text)
	var result LocateResult
	if !decodeStructured(got, &result) {
		t.Fatalf("failed to decode extracted payload %q", got)
	}
	if result.Found {
		t.Fatalf("expected found=false, got %+v", result)
	}
}

func TestExtractJSONNestedBracesAndStrings(t *testing.T) {
	text := `{"label": "a { tricky } name", "nested": {"x": 1}} trailing`
	got := ExtractJSON(text)
	if got != `{"label": "a { tricky } name", "nested": {"x": 1}}` {
		t.Fatalf("unexpected extraction: %q", got)
	}
}

func TestExtractJSONAbsent(t *testing.T) {
	if got := ExtractJSON("no structured data here"); got != "" {
		t.Fatalf("expected empty extraction, got %q", got)
	}
	if got := ExtractJSON("unbalanced { forever"); got != "" {
		t.Fatalf("expected empty extraction for unbalanced braces, got %q", got)
	}
}

func TestDecodeStructuredMalformedLeavesZeroValue(t *testing.T) {
	var result BioAnalysis
	if decodeStructured(`{"isBiological": "definitely"}`, &result) {
		t.Fatalf("expected decode failure for wrong field type")
	}
	if result.IsBiological || result.Confidence != 0 {
		t.Fatalf("malformed payload mutated result: %+v", result)
	}
}

func TestExtractHTMLFromFencedResponse(t *testing.T) {
	text := "Sure, here you go:\n```html\n<!DOCTYPE html>\n<html><body>hi</body></html>\n```"
	got := ExtractHTML(text)
	if got != "<!DOCTYPE html>\n<html><body>hi</body></html>" {
		t.Fatalf("unexpected document: %q", got)
	}
}

func TestExtractHTMLWithoutClosingTag(t *testing.T) {
	got := ExtractHTML("<html><body>truncated")
	if got != "<html><body>truncated" {
		t.Fatalf("unexpected document: %q", got)
	}
}

func TestExtractHTMLAbsent(t *testing.T) {
	if got := ExtractHTML("plain prose answer"); got != "" {
		t.Fatalf("expected empty document, got %q", got)
	}
}
