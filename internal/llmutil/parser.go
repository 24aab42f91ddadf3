// internal/llmutil/parser.go
package llmutil

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var (
	// Backticks are written as \x60 because Go raw strings cannot contain them.

	// fencedRegex captures the body of a markdown code fence, with or without a language tag.
	fencedRegex = regexp.MustCompile("(?s)^\x60\x60\x60[a-zA-Z]*\\s*(.*?)\\s*\x60\x60\x60\\s*$")
	// openFenceRegex matches a fence that was never closed (truncated responses).
	openFenceRegex = regexp.MustCompile("(?s)^\x60\x60\x60[a-zA-Z]*\\s*")
)

// StripCodeFences removes a surrounding markdown code fence such as ```json ... ```.
// Text without a leading fence is returned trimmed and otherwise unchanged.
func StripCodeFences(response string) string {
	response = strings.TrimSpace(response)
	if !strings.HasPrefix(response, "```") {
		return response
	}
	if m := fencedRegex.FindStringSubmatch(response); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(strings.TrimSuffix(openFenceRegex.ReplaceAllString(response, ""), "```"))
}

// ExtractJSON returns the JSON document embedded in a model response. It strips
// code fences and, for conversational replies, cuts the outermost array or object.
// The bracket kind that opens first wins so an array of objects stays an array.
func ExtractJSON(response string) string {
	s := StripCodeFences(response)
	if s == "" || s[0] == '[' || s[0] == '{' {
		return s
	}

	open := strings.IndexAny(s, "[{")
	if open == -1 {
		return s
	}
	closer := "]"
	if s[open] == '{' {
		closer = "}"
	}
	end := strings.LastIndex(s, closer)
	if end <= open {
		return s
	}
	return s[open : end+1]
}

// RepairJSON attempts to turn almost-JSON (trailing commas, single quotes,
// truncated arrays) into a valid document.
func RepairJSON(s string) (string, error) {
	fixed, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return "", fmt.Errorf("json repair failed: %w", err)
	}
	return fixed, nil
}

// TruncateString truncates a string to a maximum length, appending "..." when cut.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	// Byte-based cut; good enough for log and error text.
	return s[:maxLen] + "..."
}
