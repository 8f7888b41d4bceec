package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get(GenerationFile, "section-content")
	require.NoError(t, err)
	assert.Contains(t, prompt, "{{.Tone}}")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get(MatchingFile, "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestRender(t *testing.T) {
	ClearCache()

	prompt, err := Render(MatchingFile, "analyze-match", map[string]string{
		"JobDescription": "Senior Go engineer",
		"Resume":         `{"skills":["Go"]}`,
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Senior Go engineer")
	assert.Contains(t, prompt, `{"skills":["Go"]}`)
	assert.NotContains(t, prompt, "{{.JobDescription}}")
}

func TestFormat(t *testing.T) {
	result := Format("Hello {{.Name}}, welcome to {{.Company}}!", map[string]string{
		"Name":    "Alice",
		"Company": "Acme Corp",
	})
	assert.Equal(t, "Hello Alice, welcome to Acme Corp!", result)
}

func TestFormat_EmptyData(t *testing.T) {
	template := "Hello {{.Name}}"

	assert.Equal(t, template, Format(template, map[string]string{}))
}

func TestFormat_ValuesAreNotReexpanded(t *testing.T) {
	result := Format("{{.A}} {{.B}}", map[string]string{"A": "{{.B}}", "B": "b"})

	assert.Equal(t, "{{.B}} b", result)
}

func TestList(t *testing.T) {
	ClearCache()

	keys, err := List(GenerationFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"default-instructions", "section-content"}, keys)
}
