package llmutil

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", `[{"action":"navigate"}]`, `[{"action":"navigate"}]`},
		{"json fence", "```json\n[{\"action\":\"navigate\"}]\n```", `[{"action":"navigate"}]`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"unterminated fence", "```json\n[1, 2", `[1, 2`},
		{"surrounding whitespace", "  \n```json\n[]\n```\n ", `[]`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, StripCodeFences(tc.input))
		})
	}
}

func TestExtractJSON(t *testing.T) {
	t.Run("array of objects inside a fence stays an array", func(t *testing.T) {
		in := "```json\n[{\"action\": \"click\", \"selector\": \"button\"}]\n```"
		assert.Equal(t, `[{"action": "click", "selector": "button"}]`, ExtractJSON(in))
	})

	t.Run("prose around an array", func(t *testing.T) {
		in := "Here are the steps: [{\"action\":\"wait\",\"value\":500}] Hope this helps!"
		assert.Equal(t, `[{"action":"wait","value":500}]`, ExtractJSON(in))
	})

	t.Run("prose around an object", func(t *testing.T) {
		in := "Result -> {\"ok\": true} <- done"
		assert.Equal(t, `{"ok": true}`, ExtractJSON(in))
	})

	t.Run("no json at all", func(t *testing.T) {
		assert.Equal(t, "I cannot help with that.", ExtractJSON("I cannot help with that."))
	})
}

func TestRepairJSON(t *testing.T) {
	fixed, err := RepairJSON(`[{"action": "navigate",}, {'action': 'wait'}]`)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(fixed), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "wait", decoded[1]["action"])
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", TruncateString("abc", 5))
	assert.Equal(t, "ab...", TruncateString("abcdef", 2))
	assert.Equal(t, "", TruncateString("abc", 0))
}

// FuzzExtractJSON checks that extraction only ever cuts the response down.
func FuzzExtractJSON(f *testing.F) {
	// Seed corpus
	f.Add("```json\n[{\"action\": \"click\"}]\n```")
	f.Add("Here are the steps: [{\"action\":\"wait\"}] done")
	f.Add("{\"a\": [1, 2]} trailing }")
	f.Add("```\n[1, 2")
	f.Add("] backwards [")

	f.Fuzz(func(t *testing.T, response string) {
		out := ExtractJSON(response)
		assert.True(t, strings.Contains(response, out), "%q is not part of %q", out, response)
		assert.LessOrEqual(t, len(out), len(response))
	})
}
