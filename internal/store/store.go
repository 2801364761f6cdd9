package store

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/dstanton/mailsearch-mcp/internal/query"
	"github.com/dstanton/mailsearch-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrFilterRejected is returned when the backend refuses a compiled
	// filter expression. Callers recover by returning an empty result set
	// with a diagnostic rather than failing the request.
	ErrFilterRejected = errors.New("filter rejected")
)

// Store is the item store contract the search core runs against. It owns all
// I/O: folder lookup, candidate enumeration under a compiled filter, lazy
// body fetch, and ingestion. The core never mutates items.
type Store interface {
	// Accounts lists the distinct account names in the vault.
	Accounts(ctx context.Context) ([]string, error)

	// LookupFolder resolves an account name (partial, case-insensitive
	// match) and folder path to a folder handle. Returns ErrNotFound when
	// no folder matches.
	LookupFolder(ctx context.Context, account, path string) (*types.Folder, error)

	// ListFolders enumerates folders for an account, optionally below a
	// path prefix, with item counts.
	ListFolders(ctx context.Context, account, pathPrefix string) ([]types.Folder, error)

	// ListCandidates returns the folder's items matching the compiled
	// filter, in natural enumeration order. Bodies are not populated.
	// A filter the backend cannot execute yields ErrFilterRejected.
	ListCandidates(ctx context.Context, folder *types.Folder, filter string) ([]types.Item, error)

	// FieldPolicy maps logical fields to store columns for a folder.
	FieldPolicy(folder *types.Folder) query.FieldPolicy

	// Capability reports whether indexed phrase matching is available.
	Capability(ctx context.Context) query.Capability

	// Body fetches the plain-text and HTML bodies for one item.
	Body(ctx context.Context, itemID int64) (body, htmlBody string, err error)

	// GetItem loads a full item, body included, by its raw entry ID.
	GetItem(ctx context.Context, entryID string) (*types.Item, error)

	// UpsertFolder creates or updates a folder and fills in its ID.
	UpsertFolder(ctx context.Context, folder *types.Folder) error

	// UpsertItem creates or updates an item, returning its row ID.
	UpsertItem(ctx context.Context, rec *ItemRecord) (int64, error)

	// ImportItems ingests a JSON item export into a folder and returns
	// the number of items stored.
	ImportItems(ctx context.Context, folder *types.Folder, r io.Reader) (int, error)

	// Stats reports vault-wide counts and capability flags.
	Stats(ctx context.Context) (*Stats, error)

	Close() error
}

// ItemRecord is the write-side shape of an item. Reads surface types.Item
// with a single policy-selected timestamp; writes keep received and start
// times separate because both persist.
type ItemRecord struct {
	EntryID     string
	FolderID    int64
	Subject     string
	Sender      string
	Body        string
	HTMLBody    string
	ReceivedAt  *time.Time
	StartAt     *time.Time
	Unread      bool
	Attachments []string
}

// Stats summarizes vault contents.
type Stats struct {
	Accounts   int    `json:"accounts"`
	Folders    int    `json:"folders"`
	Items      int    `json:"items"`
	FTSEnabled bool   `json:"fts_enabled"`
	Driver     string `json:"driver"`
	BuildMode  string `json:"build_mode"`
}
