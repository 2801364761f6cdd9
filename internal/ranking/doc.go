// Package ranking scores search candidates by term relevance and recency,
// merges the two into a combined sort key, and paginates the ordered result.
//
// Relevance is a field-weighted substring match count (subject > sender >
// body) with a multiplier when every queried term matched somewhere.
// Recency decays linearly over a configurable horizon. Both are pure
// functions over already-fetched items; nothing here performs I/O.
package ranking
