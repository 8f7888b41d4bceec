package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-editor/internal/types"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"only whitespace", "  \n\t \n", ""},
		{"collapses spaces", "Line    with \t multiple    spaces", "Line with multiple spaces"},
		{"line endings", "a\r\nb\rc", "a\nb\nc"},
		{"blank lines", "Line 1\n\n\n\n\nLine 2", "Line 1\n\nLine 2"},
		{"headings", "  ## Requirements  ", "## Requirements"},
		{"bullets", "  *   Go\n• Kafka\n- SQL", "- Go\n- Kafka\n- SQL"},
		{"non-breaking spaces", "Go  developer", "Go developer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.input))
		})
	}
}

func TestCleanText_Deterministic(t *testing.T) {
	input := "Test content   with   spaces\n\n\nMultiple   blank   lines"
	assert.Equal(t, CleanText(input), CleanText(CleanText(input)))
}

func TestLooksLikeHTML(t *testing.T) {
	assert.True(t, LooksLikeHTML("<div>We need Go</div>"))
	assert.True(t, LooksLikeHTML("<P class='x'>text</P>"))
	assert.True(t, LooksLikeHTML("line<br/>line"))
	assert.False(t, LooksLikeHTML("Experience with C++ <3 and a <b> tag-free life"))
	assert.False(t, LooksLikeHTML("Salary > 100k and < 200k"))
}

func TestExtractMainText_JobPosting(t *testing.T) {
	html := `<html><body>
		<nav>Home | Jobs</nav>
		<div class="job-description">
			<h2>Requirements</h2>
			<ul><li>Go</li><li>PostgreSQL</li></ul>
			<script>track()</script>
		</div>
		<footer>© Acme</footer>
	</body></html>`

	text, err := JobDescription(html)
	require.NoError(t, err)

	assert.Contains(t, text, "Requirements")
	assert.Contains(t, text, "- Go\n- PostgreSQL")
	assert.NotContains(t, text, "Home")
	assert.NotContains(t, text, "track()")
	assert.NotContains(t, text, "Acme")
}

func TestExtractMainText_FallbackToBody(t *testing.T) {
	text, err := ExtractMainText(`<html><body><p>Plain page</p><p>Second</p></body></html>`, JobPostingSelectors())
	require.NoError(t, err)
	assert.Equal(t, "Plain page\nSecond", CleanText(text))
}

func TestJobDescription_PlainText(t *testing.T) {
	text, err := JobDescription("  Senior Go   engineer\n\n\n\nKafka a plus  ")
	require.NoError(t, err)
	assert.Equal(t, "Senior Go engineer\n\nKafka a plus", text)
}

func TestJobDescription_Blank(t *testing.T) {
	for _, input := range []string{"", "   ", "<div>  </div>", "<html><body><script>x()</script></body></html>"} {
		_, err := JobDescription(input)
		var ve *types.ValidationError
		assert.ErrorAs(t, err, &ve, "input %q", input)
	}
}
