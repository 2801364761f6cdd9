package query

import "strings"

// Op identifies the shape of a parsed expression.
type Op int

const (
	// OpSimple is a single term.
	OpSimple Op = iota
	// OpOr is a disjunction of two or more terms.
	OpOr
	// OpAnd is a conjunction of two or more groups, each of which is
	// itself OpSimple or OpOr. The grammar produces no deeper nesting.
	OpAnd
)

// Expr is a parsed search pattern.
//
// Exactly one of Term, Terms, or Groups is populated depending on Op. An
// OpOr always carries at least two terms and an OpAnd at least two groups;
// degenerate input collapses to OpSimple instead.
type Expr struct {
	Op     Op
	Term   string
	Terms  []string
	Groups []Expr
}

// IsEmpty reports whether the expression is the degenerate empty-match form
// produced by an empty or separator-only pattern. An empty expression is
// defined to match nothing.
func (e Expr) IsEmpty() bool {
	return e.Op == OpSimple && e.Term == ""
}

// Parse turns a raw search pattern into an expression tree. It never fails:
// degenerate input yields the degenerate empty-match expression.
//
// Grammar: the pattern splits on '&' into AND groups. Within a group, '|'
// splits into OR terms (legacy syntax, takes precedence); otherwise
// whitespace splits into OR terms (space = OR, the default). A group with a
// single term is a bare term. Empty groups are dropped; a single surviving
// group is returned unwrapped.
//
//	"ZRH EWR&United"  ->  (ZRH OR EWR) AND United
func Parse(pattern string) Expr {
	rawGroups := strings.Split(pattern, "&")

	groups := make([]Expr, 0, len(rawGroups))
	for _, raw := range rawGroups {
		g, ok := parseGroup(raw)
		if ok {
			groups = append(groups, g)
		}
	}

	switch len(groups) {
	case 0:
		return Expr{Op: OpSimple, Term: ""}
	case 1:
		return groups[0]
	default:
		return Expr{Op: OpAnd, Groups: groups}
	}
}

// parseGroup parses one AND group. ok is false when the group contains no
// terms at all.
func parseGroup(raw string) (Expr, bool) {
	var terms []string
	if strings.Contains(raw, "|") {
		for _, t := range strings.Split(raw, "|") {
			t = strings.TrimSpace(t)
			if t != "" {
				terms = append(terms, t)
			}
		}
	} else {
		terms = strings.Fields(raw)
	}

	switch len(terms) {
	case 0:
		return Expr{}, false
	case 1:
		return Expr{Op: OpSimple, Term: terms[0]}, true
	default:
		return Expr{Op: OpOr, Terms: terms}, true
	}
}

// ExtractTerms flattens a pattern into its individual terms, treating '&',
// '|', and whitespace uniformly as separators. Order is first occurrence;
// duplicates are removed. Used by the scorer and snippet extractor, which
// do not care about boolean structure.
func ExtractTerms(pattern string) []string {
	normalized := strings.NewReplacer("|", " ", "&", " ").Replace(pattern)

	var terms []string
	seen := make(map[string]struct{})
	for _, t := range strings.Fields(normalized) {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	return terms
}
