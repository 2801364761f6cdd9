package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/dstanton/mailsearch-mcp/internal/query"
	"github.com/dstanton/mailsearch-mcp/pkg/types"
)

// SQLite implements the Store interface using SQLite
type SQLite struct {
	db *sql.DB

	// FTS availability cache. Only successful checks are cached; errors
	// cause a retry on the next call.
	ftsMu      sync.Mutex
	ftsResult  bool
	ftsChecked bool
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLite creates a new SQLite-backed store instance
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Best effort: FTS5 availability depends on the driver build. Without
	// it the store reports substring capability and searches still work.
	if _, err := db.Exec(ftsSchema); err != nil {
		log.Printf("full-text index unavailable, falling back to substring matching: %v", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Folder operations

func (s *SQLite) Accounts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT account FROM folders ORDER BY account")
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// LookupFolder resolves "account" with a case-insensitive partial match and
// "path" with a case-insensitive exact match. Partial account matching lets
// callers write "work" for "work@example.com".
func (s *SQLite) LookupFolder(ctx context.Context, account, path string) (*types.Folder, error) {
	q := `
		SELECT f.id, f.account, f.path, f.kind,
		       (SELECT COUNT(*) FROM items i WHERE i.folder_id = f.id)
		FROM folders f
		WHERE instr(lower(f.account), lower(?)) > 0 AND lower(f.path) = lower(?)
		ORDER BY f.account, f.id
		LIMIT 1
	`
	var f types.Folder
	err := s.db.QueryRowContext(ctx, q, account, path).Scan(
		&f.ID, &f.Account, &f.Path, &f.Kind, &f.ItemCount,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup folder: %w", err)
	}
	return &f, nil
}

func (s *SQLite) ListFolders(ctx context.Context, account, pathPrefix string) ([]types.Folder, error) {
	q := `
		SELECT f.id, f.account, f.path, f.kind,
		       (SELECT COUNT(*) FROM items i WHERE i.folder_id = f.id)
		FROM folders f
		WHERE instr(lower(f.account), lower(?)) > 0
	`
	args := []interface{}{account}
	if pathPrefix != "" {
		q += " AND (lower(f.path) = lower(?) OR lower(f.path) LIKE lower(?) || '/%')"
		args = append(args, pathPrefix, pathPrefix)
	}
	q += " ORDER BY f.account, f.path"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var folders []types.Folder
	for rows.Next() {
		var f types.Folder
		if err := rows.Scan(&f.ID, &f.Account, &f.Path, &f.Kind, &f.ItemCount); err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

func (s *SQLite) UpsertFolder(ctx context.Context, folder *types.Folder) error {
	if folder.Kind == "" {
		folder.Kind = types.FolderMail
	}
	q := `
		INSERT INTO folders (account, path, kind)
		VALUES (?, ?, ?)
		ON CONFLICT(account, path) DO UPDATE SET kind = excluded.kind
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, q, folder.Account, folder.Path, folder.Kind).Scan(&folder.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert folder: %w", err)
	}
	return nil
}

// Field policy and capability

// FieldPolicy returns the column mapping for a folder. Calendar folders
// filter and rank on the event start time; everything else uses the
// received time.
func (s *SQLite) FieldPolicy(folder *types.Folder) query.FieldPolicy {
	dateColumn := "received_at"
	if folder.Kind == types.FolderCalendar {
		dateColumn = "start_at"
	}
	return query.FieldPolicy{
		TextColumn: "search_text",
		FTSTable:   "items_fts",
		DateColumn: dateColumn,
	}
}

// Capability reports indexed matching when the FTS table exists. The result
// of a successful probe is cached; probe errors are not, so the next call
// retries.
func (s *SQLite) Capability(ctx context.Context) query.Capability {
	s.ftsMu.Lock()
	defer s.ftsMu.Unlock()

	if s.ftsChecked {
		return capabilityFor(s.ftsResult)
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='items_fts'
	`).Scan(&count)
	if err != nil {
		return query.CapabilitySubstring
	}

	s.ftsResult = count > 0
	s.ftsChecked = true
	return capabilityFor(s.ftsResult)
}

func capabilityFor(fts bool) query.Capability {
	if fts {
		return query.CapabilityIndexed
	}
	return query.CapabilitySubstring
}

// Item operations

// ListCandidates applies the compiled filter to the folder's items. Bodies
// are deliberately not selected; they are fetched lazily via Body only when
// content mode needs them. ORDER BY id gives the stable natural enumeration
// order the ranker's tie-break relies on.
func (s *SQLite) ListCandidates(ctx context.Context, folder *types.Folder, filter string) ([]types.Item, error) {
	policy := s.FieldPolicy(folder)
	q := fmt.Sprintf(`
		SELECT id, entry_id, folder_id, subject, sender, %s, has_attachments, unread
		FROM items
		WHERE folder_id = ? AND (%s)
		ORDER BY id
	`, policy.DateColumn, filter)

	rows, err := s.db.QueryContext(ctx, q, folder.ID)
	if err != nil {
		// A compiled filter the backend cannot execute is the only way
		// this query fails to prepare; surface it as a rejection the
		// caller can recover from.
		return nil, fmt.Errorf("%w: %v", ErrFilterRejected, err)
	}
	defer func() { _ = rows.Close() }()

	var items []types.Item
	for rows.Next() {
		var it types.Item
		var ts sql.NullString
		if err := rows.Scan(&it.ID, &it.EntryID, &it.FolderID, &it.Subject, &it.Sender,
			&ts, &it.HasAttachments, &it.Unread); err != nil {
			return nil, err
		}
		it.Timestamp = parseStoredTime(ts)
		items = append(items, it)
	}
	return items, rows.Err()
}

// Body fetches the plain-text and HTML bodies for one item. A missing item
// yields ErrNotFound; NULL bodies come back as empty strings.
func (s *SQLite) Body(ctx context.Context, itemID int64) (string, string, error) {
	var body, htmlBody sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT body, html_body FROM items WHERE id = ?", itemID).Scan(&body, &htmlBody)
	if err == sql.ErrNoRows {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch body: %w", err)
	}
	return body.String, htmlBody.String, nil
}

func (s *SQLite) GetItem(ctx context.Context, entryID string) (*types.Item, error) {
	q := `
		SELECT i.id, i.entry_id, i.folder_id, i.subject, i.sender,
		       i.body, i.html_body,
		       CASE WHEN f.kind = 'calendar' THEN i.start_at ELSE i.received_at END,
		       i.has_attachments, i.unread, i.attachments
		FROM items i
		JOIN folders f ON f.id = i.folder_id
		WHERE i.entry_id = ?
	`
	var it types.Item
	var body, htmlBody, ts, attachments sql.NullString
	err := s.db.QueryRowContext(ctx, q, entryID).Scan(
		&it.ID, &it.EntryID, &it.FolderID, &it.Subject, &it.Sender,
		&body, &htmlBody, &ts, &it.HasAttachments, &it.Unread, &attachments,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	it.Body = body.String
	it.HTMLBody = htmlBody.String
	it.Timestamp = parseStoredTime(ts)
	if attachments.Valid && attachments.String != "" {
		// Malformed attachment metadata is treated as absent, not fatal.
		_ = json.Unmarshal([]byte(attachments.String), &it.Attachments)
	}
	return &it, nil
}

func (s *SQLite) UpsertItem(ctx context.Context, rec *ItemRecord) (int64, error) {
	var attachments interface{}
	if len(rec.Attachments) > 0 {
		b, err := json.Marshal(rec.Attachments)
		if err != nil {
			return 0, fmt.Errorf("failed to encode attachments: %w", err)
		}
		attachments = string(b)
	}

	q := `
		INSERT INTO items (folder_id, entry_id, subject, sender, body, html_body,
		                   received_at, start_at, has_attachments, unread, attachments,
		                   search_text, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(entry_id) DO UPDATE SET
			folder_id = excluded.folder_id,
			subject = excluded.subject,
			sender = excluded.sender,
			body = excluded.body,
			html_body = excluded.html_body,
			received_at = excluded.received_at,
			start_at = excluded.start_at,
			has_attachments = excluded.has_attachments,
			unread = excluded.unread,
			attachments = excluded.attachments,
			search_text = excluded.search_text,
			updated_at = excluded.updated_at
		RETURNING id
	`
	var id int64
	err := s.db.QueryRowContext(ctx, q,
		rec.FolderID, rec.EntryID, rec.Subject, rec.Sender,
		nullString(rec.Body), nullString(rec.HTMLBody),
		formatStoredTime(rec.ReceivedAt), formatStoredTime(rec.StartAt),
		len(rec.Attachments) > 0, rec.Unread, attachments,
		searchText(rec), time.Now(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert item: %w", err)
	}
	return id, nil
}

// Stats reports vault-wide counts and capability flags.
func (s *SQLite) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{
		FTSEnabled: s.Capability(ctx) == query.CapabilityIndexed,
		Driver:     DriverName,
		BuildMode:  BuildMode,
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(DISTINCT account) FROM folders),
		       (SELECT COUNT(*) FROM folders),
		       (SELECT COUNT(*) FROM items)
	`)
	if err := row.Scan(&st.Accounts, &st.Folders, &st.Items); err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}
	return st, nil
}

// Helpers

// searchText builds the lowercased haystack substring predicates run
// against: subject, sender, and body in one column.
func searchText(rec *ItemRecord) string {
	return strings.ToLower(rec.Subject + "\n" + rec.Sender + "\n" + rec.Body)
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func formatStoredTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// parseStoredTime converts a stored RFC 3339 string to a time. Absent or
// malformed values become the zero time, which the ranker treats as an
// unknown date rather than an error.
func parseStoredTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
