package query

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testPolicy() FieldPolicy {
	return FieldPolicy{
		TextColumn: "search_text",
		FTSTable:   "items_fts",
		DateColumn: "received_at",
	}
}

func TestCompile_SimpleSubstring(t *testing.T) {
	got := Compile(Parse("invoice"), DateRange{}, testPolicy(), CapabilitySubstring)
	assert.Equal(t, `search_text LIKE '%invoice%' ESCAPE '\'`, got)
}

func TestCompile_SimpleIndexed(t *testing.T) {
	got := Compile(Parse("invoice"), DateRange{}, testPolicy(), CapabilityIndexed)
	assert.Equal(t, `id IN (SELECT rowid FROM items_fts WHERE items_fts MATCH '"invoice"')`, got)
}

func TestCompile_OrDisjunction(t *testing.T) {
	got := Compile(Parse("ZRH EWR"), DateRange{}, testPolicy(), CapabilitySubstring)
	assert.Equal(t, `(search_text LIKE '%ZRH%' ESCAPE '\' OR search_text LIKE '%EWR%' ESCAPE '\')`, got)
}

func TestCompile_AndOfGroups(t *testing.T) {
	got := Compile(Parse("ZRH EWR&United"), DateRange{}, testPolicy(), CapabilitySubstring)
	want := `((search_text LIKE '%ZRH%' ESCAPE '\' OR search_text LIKE '%EWR%' ESCAPE '\') AND search_text LIKE '%United%' ESCAPE '\')`
	assert.Equal(t, want, got)
}

func TestCompile_DateBounds(t *testing.T) {
	since := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	until := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// One bound wraps the whole predicate in a conjunction
	got := Compile(Parse("a"), DateRange{Since: &since}, testPolicy(), CapabilitySubstring)
	assert.Equal(t, `(search_text LIKE '%a%' ESCAPE '\' AND date(received_at) >= '2026-01-15')`, got)

	// Both bounds; time-of-day never appears
	got = Compile(Parse("a"), DateRange{Since: &since, Until: &until}, testPolicy(), CapabilitySubstring)
	assert.Equal(t, `(search_text LIKE '%a%' ESCAPE '\' AND date(received_at) >= '2026-01-15' AND date(received_at) <= '2026-03-01')`, got)

	// No bounds: text predicate returned unwrapped
	got = Compile(Parse("a"), DateRange{}, testPolicy(), CapabilitySubstring)
	assert.NotContains(t, got, "date(")
}

func TestCompile_CalendarDateColumn(t *testing.T) {
	policy := testPolicy()
	policy.DateColumn = "start_at"
	since := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	got := Compile(Parse("standup"), DateRange{Since: &since}, policy, CapabilitySubstring)
	assert.Contains(t, got, "date(start_at) >= '2026-06-01'")
}

func TestCompile_Deterministic(t *testing.T) {
	since := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	dr := DateRange{Since: &since}
	expr := Parse("flight&ZRH EWR")

	first := Compile(expr, dr, testPolicy(), CapabilityIndexed)
	second := Compile(expr, dr, testPolicy(), CapabilityIndexed)
	assert.Equal(t, first, second)
}

func TestCompile_CapabilityChangesOperatorOnly(t *testing.T) {
	expr := Parse("a b&c")

	substring := Compile(expr, DateRange{}, testPolicy(), CapabilitySubstring)
	indexed := Compile(expr, DateRange{}, testPolicy(), CapabilityIndexed)

	// Same boolean structure either way
	normalize := func(s string) string {
		s = strings.ReplaceAll(s, `search_text LIKE '%a%' ESCAPE '\'`, "P")
		s = strings.ReplaceAll(s, `search_text LIKE '%b%' ESCAPE '\'`, "P")
		s = strings.ReplaceAll(s, `search_text LIKE '%c%' ESCAPE '\'`, "P")
		s = strings.ReplaceAll(s, `id IN (SELECT rowid FROM items_fts WHERE items_fts MATCH '"a"')`, "P")
		s = strings.ReplaceAll(s, `id IN (SELECT rowid FROM items_fts WHERE items_fts MATCH '"b"')`, "P")
		s = strings.ReplaceAll(s, `id IN (SELECT rowid FROM items_fts WHERE items_fts MATCH '"c"')`, "P")
		return s
	}
	assert.Equal(t, "((P OR P) AND P)", normalize(substring))
	assert.Equal(t, normalize(substring), normalize(indexed))
}

func TestCompile_EmptyPatternMatchesNothing(t *testing.T) {
	assert.Equal(t, "0", Compile(Parse(""), DateRange{}, testPolicy(), CapabilitySubstring))
	assert.Equal(t, "0", Compile(Parse("  "), DateRange{}, testPolicy(), CapabilityIndexed))
}

func TestCompile_Escaping(t *testing.T) {
	got := Compile(Parse("o'brien"), DateRange{}, testPolicy(), CapabilitySubstring)
	assert.Equal(t, `search_text LIKE '%o''brien%' ESCAPE '\'`, got)

	got = Compile(Parse("100%"), DateRange{}, testPolicy(), CapabilitySubstring)
	assert.Equal(t, `search_text LIKE '%100\%%' ESCAPE '\'`, got)

	got = Compile(Parse("o'brien"), DateRange{}, testPolicy(), CapabilityIndexed)
	assert.Equal(t, `id IN (SELECT rowid FROM items_fts WHERE items_fts MATCH '"o''brien"')`, got)
}
