package snippet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_ReturnCap(t *testing.T) {
	// Five occurrences of one term yield at most two snippets
	body := strings.Repeat("the flight was delayed. ", 5)
	matches := Extract(body, []string{"flight"}, DefaultConfig())
	assert.LessOrEqual(t, len(matches), 2)
	assert.Len(t, matches, 2)
}

func TestExtract_ScanCapBiasesEarlierTerms(t *testing.T) {
	// The first term fills the scan budget (3) before the second term is
	// reached; truncation to 2 then keeps only first-term snippets.
	body := strings.Repeat("alpha ", 4) + "beta"
	matches := Extract(body, []string{"alpha", "beta"}, DefaultConfig())
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.Equal(t, "alpha", m.Term)
	}
}

func TestExtract_WindowAndEllipses(t *testing.T) {
	body := strings.Repeat("x", 100) + "needle" + strings.Repeat("y", 100)
	matches := Extract(body, []string{"needle"}, DefaultConfig())
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, "needle", m.Term)
	assert.True(t, strings.HasPrefix(m.Context, "..."))
	assert.True(t, strings.HasSuffix(m.Context, "..."))
	// 50 chars each side plus the term itself plus the ellipses
	assert.Equal(t, "..."+strings.Repeat("x", 50)+"needle"+strings.Repeat("y", 50)+"...", m.Context)
}

func TestExtract_ClampsToBounds(t *testing.T) {
	matches := Extract("needle", []string{"needle"}, DefaultConfig())
	require.Len(t, matches, 1)
	assert.Equal(t, "...needle...", matches[0].Context)
}

func TestExtract_CollapsesLineBreaks(t *testing.T) {
	body := "before\r\nthe needle\nafter"
	matches := Extract(body, []string{"needle"}, DefaultConfig())
	require.Len(t, matches, 1)
	assert.NotContains(t, matches[0].Context, "\n")
	assert.Contains(t, matches[0].Context, "before the needle after")
}

func TestExtract_CaseInsensitiveNonOverlapping(t *testing.T) {
	body := "NEEDLE needle NeedLe"
	cfg := Config{MaxPerItem: 10, ScanCap: 10, WindowRadius: 5}
	matches := Extract(body, []string{"needle"}, cfg)
	assert.Len(t, matches, 3)
}

func TestExtract_Degenerate(t *testing.T) {
	assert.Nil(t, Extract("", []string{"a"}, DefaultConfig()))
	assert.Nil(t, Extract("body", nil, DefaultConfig()))
	assert.Empty(t, Extract("body", []string{"zzz"}, DefaultConfig()))
}

func TestStripHTML(t *testing.T) {
	html := "<html><body><p>Hello <b>world</b></p></body></html>"
	assert.Equal(t, "Hello world", StripHTML(html))

	// Snippets come out of stripped HTML when there is no plain body
	matches := Extract(StripHTML(html), []string{"world"}, DefaultConfig())
	require.Len(t, matches, 1)
	assert.Contains(t, matches[0].Context, "Hello world")
}
