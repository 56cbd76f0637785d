// Package jsonutil recovers structured JSON from LLM responses, which may
// arrive wrapped in markdown code fences or surrounded by prose.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Parse strips markdown fences from raw LLM response text, locates the JSON
// object or array inside it, and unmarshals it into T.
func Parse[T any](raw string) (T, error) {
	var result T

	jsonStr, err := extract(stripFences(raw))
	if err != nil {
		return result, fmt.Errorf("%w (raw length: %d)", err, len(raw))
	}

	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		var zero T
		preview := jsonStr
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		return zero, fmt.Errorf("invalid JSON: %w (text: %s)", err, preview)
	}
	return result, nil
}

// stripFences removes ```json ... ``` or ``` ... ``` wrapping, returning the
// fenced content or the original text when no fences are present.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return text
	}

	end := len(lines) - 1
	for i := len(lines) - 1; i >= 1; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			end = i
			break
		}
	}

	// lines[0] is the opening fence (possibly with a language tag)
	return strings.Join(lines[1:end], "\n")
}

// extract returns the JSON object or array embedded in text: the first { or [
// matched against the last corresponding } or ].
func extract(text string) (string, error) {
	text = strings.TrimSpace(text)

	objIdx := strings.Index(text, "{")
	arrIdx := strings.Index(text, "[")
	if objIdx == -1 && arrIdx == -1 {
		return "", fmt.Errorf("no JSON content found")
	}

	start, closer := objIdx, "}"
	if objIdx == -1 || (arrIdx != -1 && arrIdx < objIdx) {
		start, closer = arrIdx, "]"
	}

	text = text[start:]
	end := strings.LastIndex(text, closer)
	if end == -1 {
		return "", fmt.Errorf("no closing %s found", closer)
	}
	return text[:end+1], nil
}
