package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "plain JSON",
			input:    `{"key": "value"}`,
			expected: `{"key": "value"}`,
		},
		{
			name:     "preamble and trailing chatter",
			input:    "Here is the analysis:\n{\"match_score\": 80}\nLet me know!",
			expected: `{"match_score": 80}`,
		},
		{
			name:     "braces inside strings",
			input:    `Result: {"template": "Hello {name}", "quote": "say \"}\""}`,
			expected: `{"template": "Hello {name}", "quote": "say \"}\""}`,
		},
		{
			name:     "array",
			input:    "Items:\n[\"a\", \"b\"] done",
			expected: `["a", "b"]`,
		},
		{
			name:     "unterminated is returned as is",
			input:    `{"key": `,
			expected: `{"key":`,
		},
		{
			name:     "no json at all",
			input:    "sorry",
			expected: "sorry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "  Built things.  ", "Built things."},
		{"fenced", "```text\nLed a team of five.\n```", "Led a team of five."},
		{"quoted", `"Shipped the billing rewrite."`, "Shipped the billing rewrite."},
		{"smart quoted", "“Cut costs by 30%.”", "Cut costs by 30%."},
		{"inner quotes kept", `"Known as "the fixer" on the team"`, `"Known as "the fixer" on the team"`},
		{"crlf", "line one\r\nline two", "line one\nline two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanText(tt.input))
		})
	}
}
