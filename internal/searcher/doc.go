// Package searcher coordinates the search pipeline over the item store.
//
// One call to Search runs: pattern parse -> filter compile -> candidate
// fetch (pre-narrowed by the store) -> relevance/recency ranking -> stable
// sort -> pagination -> snippet annotation (content mode only).
//
// # Output Modes
//
// List mode (default, fast):
//
//	resp, _ := s.Search(ctx, searcher.Request{
//	    Pattern: "ZRH EWR&United",
//	    Path:    "work/Inbox",
//	})
//
// Content mode additionally fetches bodies, weighs them into relevance, and
// returns bounded context snippets per result:
//
//	resp, _ := s.Search(ctx, searcher.Request{
//	    Pattern: "invoice",
//	    Path:    "work/Inbox",
//	    Mode:    searcher.ModeContent,
//	})
//
// # Error Recovery
//
// A compiled filter the backend rejects is recovered as an empty page with
// Response.Diagnostic set; a missing folder is a hard error carrying the
// attempted path; a missing per-item field is silently treated as empty.
//
// # Caching
//
// Responses are cached in a bounded LRU keyed by a hash of the request.
// Ingestion invalidates the whole cache.
package searcher
