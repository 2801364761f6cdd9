// Package store provides the SQLite-backed item store for the mail vault.
//
// The store owns everything stateful: folders, items, the full-text index,
// and all I/O. The search core above it is purely computational and only
// sees folder handles, compiled filter strings, and immutable item batches.
//
// # Database Schema
//
// Tables:
//   - folders: account folders (account, path, kind)
//   - items: messages, events, contacts, tasks with both received and
//     event-start timestamps plus a lowercased search_text haystack
//   - items_fts: FTS5 full-text index over search_text, kept in sync by
//     triggers; created best-effort because FTS5 availability depends on
//     the driver build
//
// # Capability
//
// Capability reports indexed when items_fts exists and substring otherwise.
// The filter compiler uses this to choose between MATCH phrase predicates
// and LIKE predicates; either way the store just interpolates the compiled
// predicate into the candidate query.
//
// # Field Policy
//
// Calendar folders filter and rank on start_at, every other kind on
// received_at. The policy also names the text column and FTS table so the
// compiler never hard-codes schema details.
//
// # Build Tags
//
// Default build uses modernc.org/sqlite (pure Go, FTS5 included):
//
//	CGO_ENABLED=0 go build ./...
//
// The sqlite_cgo tag switches to github.com/mattn/go-sqlite3:
//
//	CGO_ENABLED=1 go build -tags "sqlite_cgo fts5" ./...
package store
