package query

import (
	"strings"
	"time"
)

// Capability describes how the backing store can match text.
type Capability int

const (
	// CapabilitySubstring means only LIKE-style substring matching is
	// available.
	CapabilitySubstring Capability = iota
	// CapabilityIndexed means the store has a full-text index and the
	// phrase-match operator can be used.
	CapabilityIndexed
)

func (c Capability) String() string {
	if c == CapabilityIndexed {
		return "indexed"
	}
	return "substring"
}

// FieldPolicy maps the logical text and date fields onto concrete store
// columns. The store supplies one per folder; the compiler never invents
// column names.
type FieldPolicy struct {
	// TextColumn is the column substring predicates run against.
	TextColumn string
	// FTSTable is the full-text table phrase predicates run against.
	FTSTable string
	// DateColumn is the column date bounds compare against.
	DateColumn string
}

// DateRange optionally bounds results by calendar date, inclusive on both
// ends. Time-of-day is ignored.
type DateRange struct {
	Since *time.Time
	Until *time.Time
}

// matchesNothing is the predicate emitted for the degenerate empty pattern.
// SQLite evaluates a bare 0 as false, so the store returns no candidates.
const matchesNothing = "0"

// Compile translates an expression plus date bounds into a SQL predicate
// fragment for the store to apply. Output is deterministic: identical inputs
// always produce byte-identical strings.
//
// Each term becomes either a phrase-match subquery against the FTS table
// (indexed capability) or a LIKE predicate against the text column
// (substring fallback). The boolean structure of the expression is preserved
// either way. Date bounds, when present, are ANDed on at the end with
// calendar-date granularity.
func Compile(expr Expr, dr DateRange, policy FieldPolicy, cap Capability) string {
	if expr.IsEmpty() {
		return matchesNothing
	}

	text := compileExpr(expr, policy, cap)

	var dates []string
	if dr.Since != nil {
		dates = append(dates, "date("+policy.DateColumn+") >= '"+dr.Since.Format("2006-01-02")+"'")
	}
	if dr.Until != nil {
		dates = append(dates, "date("+policy.DateColumn+") <= '"+dr.Until.Format("2006-01-02")+"'")
	}
	if len(dates) == 0 {
		return text
	}

	parts := append([]string{text}, dates...)
	return "(" + strings.Join(parts, " AND ") + ")"
}

func compileExpr(expr Expr, policy FieldPolicy, cap Capability) string {
	switch expr.Op {
	case OpOr:
		preds := make([]string, len(expr.Terms))
		for i, t := range expr.Terms {
			preds[i] = termPredicate(t, policy, cap)
		}
		return "(" + strings.Join(preds, " OR ") + ")"
	case OpAnd:
		preds := make([]string, len(expr.Groups))
		for i, g := range expr.Groups {
			preds[i] = compileExpr(g, policy, cap)
		}
		return "(" + strings.Join(preds, " AND ") + ")"
	default:
		return termPredicate(expr.Term, policy, cap)
	}
}

// termPredicate emits the single-field predicate for one term.
func termPredicate(term string, policy FieldPolicy, cap Capability) string {
	if cap == CapabilityIndexed {
		return "id IN (SELECT rowid FROM " + policy.FTSTable +
			" WHERE " + policy.FTSTable + " MATCH '" + ftsPhrase(term) + "')"
	}
	return policy.TextColumn + " LIKE '%" + likeEscape(term) + "%' ESCAPE '\\'"
}

// ftsPhrase quotes a term as an FTS5 phrase string. Interior double quotes
// are doubled per FTS5 string syntax; single quotes are doubled for the
// surrounding SQL literal.
func ftsPhrase(term string) string {
	t := strings.ReplaceAll(term, `"`, `""`)
	t = strings.ReplaceAll(t, "'", "''")
	return `"` + t + `"`
}

// likeEscape escapes a term for use inside a LIKE '%...%' literal.
func likeEscape(term string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`%`, `\%`,
		`_`, `\_`,
		`'`, `''`,
	)
	return r.Replace(term)
}
