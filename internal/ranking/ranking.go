package ranking

import (
	"context"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dstanton/mailsearch-mcp/pkg/types"
)

// Config holds every scoring constant. Callers pass it explicitly so tests
// can run with alternate weightings; nothing in this package reads globals.
type Config struct {
	SubjectWeight int // points per term matched in the subject
	SenderWeight  int // points per term matched in the sender
	BodyWeight    int // points per term matched in the body (content mode)
	AllTermsBonus int // multiplier applied when every queried term matched

	RelevanceCeiling float64 // raw relevance is normalized against this
	RelevanceShare   float64 // weight of normalized relevance in the combined score
	RecencyShare     float64 // weight of recency in the combined score

	MaxAgeDays     int     // recency horizon; older items score 0
	MissingRecency float64 // recency for items without a usable date

	PageSize int // results per page
	Workers  int // scoring parallelism; <=0 means NumCPU
}

// DefaultConfig returns the standard weighting: subject 3, sender 2, body 1,
// x3 all-terms bonus, 70/30 relevance/recency split against a ceiling of 30
// raw points, a one-year recency horizon, and pages of 10.
func DefaultConfig() Config {
	return Config{
		SubjectWeight:    3,
		SenderWeight:     2,
		BodyWeight:       1,
		AllTermsBonus:    3,
		RelevanceCeiling: 30,
		RelevanceShare:   0.7,
		RecencyShare:     0.3,
		MaxAgeDays:       365,
		MissingRecency:   0.5,
		PageSize:         10,
	}
}

// Scored pairs an item with its transient scores. Scores are dropped at
// pagination and never leave the ranking pipeline.
type Scored struct {
	Item      types.Item
	Combined  float64
	Relevance float64
}

// Relevance computes the field-weighted term match score for one item.
// Matching is case-insensitive substring matching. The body is only
// consulted when includeBody is set, so listing-mode searches never pay for
// body text. Items matching every queried term get the all-terms bonus when
// more than one term was queried.
func Relevance(item types.Item, terms []string, includeBody bool, cfg Config) float64 {
	if len(terms) == 0 {
		return 0
	}

	subject := strings.ToLower(item.Subject)
	sender := strings.ToLower(item.Sender)
	var body string
	if includeBody {
		body = strings.ToLower(item.Body)
	}

	score := 0
	matched := make(map[string]struct{}, len(terms))

	for _, term := range terms {
		t := strings.ToLower(term)
		if strings.Contains(subject, t) {
			score += cfg.SubjectWeight
			matched[t] = struct{}{}
		}
		if strings.Contains(sender, t) {
			score += cfg.SenderWeight
			matched[t] = struct{}{}
		}
		if includeBody && strings.Contains(body, t) {
			score += cfg.BodyWeight
			matched[t] = struct{}{}
		}
	}

	if len(matched) == len(terms) && len(terms) > 1 {
		score *= cfg.AllTermsBonus
	}

	return float64(score)
}

// Recency maps an item timestamp to [0, 1]: 1.0 for items from today,
// decaying linearly to 0 at maxAgeDays, clamped at 0 beyond that. A zero
// timestamp returns cfg.MissingRecency as an explicit neutral tie-break.
func Recency(ts, now time.Time, cfg Config) float64 {
	if ts.IsZero() {
		return cfg.MissingRecency
	}
	ageDays := now.Sub(ts).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	r := 1 - ageDays/float64(cfg.MaxAgeDays)
	if r < 0 {
		return 0
	}
	return r
}

// Combine merges a raw relevance score and a recency score into the final
// sort key. Relevance is clamped against the configured ceiling so both
// components are comparable on [0, 1].
func Combine(relevance, recency float64, cfg Config) float64 {
	normalized := relevance / cfg.RelevanceCeiling
	if normalized > 1 {
		normalized = 1
	}
	return normalized*cfg.RelevanceShare + recency*cfg.RecencyShare
}

// Rank scores every candidate and returns them ordered by combined score,
// best first. Per-item scoring has no cross-item dependencies and runs on a
// bounded worker pool; the final sort is a stable single-threaded sort so
// ties keep the store's enumeration order and the result is deterministic.
func Rank(ctx context.Context, items []types.Item, terms []string, includeBody bool, now time.Time, cfg Config) ([]Scored, error) {
	scored := make([]Scored, len(items))

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range items {
		g.Go(func() error {
			rel := Relevance(items[i], terms, includeBody, cfg)
			rec := Recency(items[i].Timestamp, now, cfg)
			scored[i] = Scored{
				Item:      items[i],
				Combined:  Combine(rel, rec, cfg),
				Relevance: rel,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Combined > scored[j].Combined
	})

	return scored, nil
}

// Paginate slices one page out of a ranked sequence. Offsets are clamped to
// the valid range and HasMore is true exactly when results exist past this
// page.
func Paginate(ranked []Scored, offset, pageSize int) ([]Scored, types.Pagination) {
	total := len(ranked)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + pageSize
	if end > total {
		end = total
	}

	pg := types.Pagination{
		Total:   total,
		Offset:  offset,
		Limit:   pageSize,
		HasMore: offset+pageSize < total,
	}
	return ranked[offset:end], pg
}
