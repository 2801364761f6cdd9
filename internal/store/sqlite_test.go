package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstanton/mailsearch-mcp/internal/query"
	"github.com/dstanton/mailsearch-mcp/pkg/types"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedFolder(t *testing.T, s *SQLite, account, path string, kind types.FolderKind) *types.Folder {
	t.Helper()
	f := &types.Folder{Account: account, Path: path, Kind: kind}
	require.NoError(t, s.UpsertFolder(context.Background(), f))
	require.NotZero(t, f.ID)
	return f
}

func seedItem(t *testing.T, s *SQLite, rec *ItemRecord) int64 {
	t.Helper()
	id, err := s.UpsertItem(context.Background(), rec)
	require.NoError(t, err)
	return id
}

func timePtr(t time.Time) *time.Time { return &t }

func TestLookupFolder_PartialAccountMatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedFolder(t, s, "connor.larson@outlook.com", "Inbox", types.FolderMail)

	// Partial, case-insensitive account match; exact path match
	f, err := s.LookupFolder(ctx, "larson", "inbox")
	require.NoError(t, err)
	assert.Equal(t, "connor.larson@outlook.com", f.Account)
	assert.Equal(t, "Inbox", f.Path)

	_, err = s.LookupFolder(ctx, "nobody", "Inbox")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.LookupFolder(ctx, "larson", "Archive")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFolders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inbox := seedFolder(t, s, "work", "Inbox", types.FolderMail)
	seedFolder(t, s, "work", "Inbox/Receipts", types.FolderMail)
	seedFolder(t, s, "work", "Calendar", types.FolderCalendar)
	seedFolder(t, s, "home", "Inbox", types.FolderMail)

	seedItem(t, s, &ItemRecord{EntryID: "m1", FolderID: inbox.ID, Subject: "hello"})

	folders, err := s.ListFolders(ctx, "work", "")
	require.NoError(t, err)
	assert.Len(t, folders, 3)

	folders, err = s.ListFolders(ctx, "work", "Inbox")
	require.NoError(t, err)
	require.Len(t, folders, 2)
	assert.Equal(t, "Inbox", folders[0].Path)
	assert.Equal(t, 1, folders[0].ItemCount)
	assert.Equal(t, "Inbox/Receipts", folders[1].Path)

	accounts, err := s.Accounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"home", "work"}, accounts)
}

func TestFieldPolicy(t *testing.T) {
	s := newTestStore(t)

	mail := s.FieldPolicy(&types.Folder{Kind: types.FolderMail})
	assert.Equal(t, "received_at", mail.DateColumn)
	assert.Equal(t, "search_text", mail.TextColumn)
	assert.Equal(t, "items_fts", mail.FTSTable)

	cal := s.FieldPolicy(&types.Folder{Kind: types.FolderCalendar})
	assert.Equal(t, "start_at", cal.DateColumn)
}

func TestCapability_IndexedWhenFTSExists(t *testing.T) {
	s := newTestStore(t)
	// The pure Go driver ships FTS5, so a fresh vault is indexed
	assert.Equal(t, query.CapabilityIndexed, s.Capability(context.Background()))
	// Cached second call agrees
	assert.Equal(t, query.CapabilityIndexed, s.Capability(context.Background()))
}

func TestListCandidates_SubstringFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inbox := seedFolder(t, s, "work", "Inbox", types.FolderMail)
	other := seedFolder(t, s, "work", "Archive", types.FolderMail)

	received := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	seedItem(t, s, &ItemRecord{EntryID: "m1", FolderID: inbox.ID, Subject: "Flight to ZRH", Sender: "united", ReceivedAt: timePtr(received)})
	seedItem(t, s, &ItemRecord{EntryID: "m2", FolderID: inbox.ID, Subject: "Dinner plans", ReceivedAt: timePtr(received)})
	seedItem(t, s, &ItemRecord{EntryID: "m3", FolderID: other.ID, Subject: "Flight refund"})

	policy := s.FieldPolicy(inbox)
	filter := query.Compile(query.Parse("flight"), query.DateRange{}, policy, query.CapabilitySubstring)

	items, err := s.ListCandidates(ctx, inbox, filter)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "m1", items[0].EntryID)
	assert.Equal(t, received, items[0].Timestamp)
	// Bodies stay unloaded during candidate listing
	assert.Empty(t, items[0].Body)
}

func TestListCandidates_IndexedFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inbox := seedFolder(t, s, "work", "Inbox", types.FolderMail)

	seedItem(t, s, &ItemRecord{EntryID: "m1", FolderID: inbox.ID, Subject: "Flight to ZRH"})
	seedItem(t, s, &ItemRecord{EntryID: "m2", FolderID: inbox.ID, Subject: "EWR layover", Sender: "united flight desk"})
	seedItem(t, s, &ItemRecord{EntryID: "m3", FolderID: inbox.ID, Subject: "Dinner plans"})

	policy := s.FieldPolicy(inbox)
	filter := query.Compile(query.Parse("flight&ZRH EWR"), query.DateRange{}, policy, s.Capability(ctx))

	items, err := s.ListCandidates(ctx, inbox, filter)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "m1", items[0].EntryID)
	assert.Equal(t, "m2", items[1].EntryID)
}

func TestListCandidates_DateBounds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inbox := seedFolder(t, s, "work", "Inbox", types.FolderMail)

	seedItem(t, s, &ItemRecord{EntryID: "old", FolderID: inbox.ID, Subject: "report",
		ReceivedAt: timePtr(time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC))})
	seedItem(t, s, &ItemRecord{EntryID: "new", FolderID: inbox.ID, Subject: "report",
		ReceivedAt: timePtr(time.Date(2026, 6, 15, 8, 0, 0, 0, time.UTC))})

	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	policy := s.FieldPolicy(inbox)
	filter := query.Compile(query.Parse("report"), query.DateRange{Since: &since}, policy, query.CapabilitySubstring)

	items, err := s.ListCandidates(ctx, inbox, filter)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "new", items[0].EntryID)

	// Inclusive boundary: an item dated exactly on the bound matches
	since = time.Date(2026, 6, 15, 23, 0, 0, 0, time.UTC)
	filter = query.Compile(query.Parse("report"), query.DateRange{Since: &since}, policy, query.CapabilitySubstring)
	items, err = s.ListCandidates(ctx, inbox, filter)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestListCandidates_EmptyPatternMatchesNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inbox := seedFolder(t, s, "work", "Inbox", types.FolderMail)
	seedItem(t, s, &ItemRecord{EntryID: "m1", FolderID: inbox.ID, Subject: "anything"})

	policy := s.FieldPolicy(inbox)
	filter := query.Compile(query.Parse(""), query.DateRange{}, policy, query.CapabilitySubstring)

	items, err := s.ListCandidates(ctx, inbox, filter)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestListCandidates_RejectsMalformedFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inbox := seedFolder(t, s, "work", "Inbox", types.FolderMail)

	_, err := s.ListCandidates(ctx, inbox, "THIS IS NOT SQL ((")
	assert.ErrorIs(t, err, ErrFilterRejected)
}

func TestBodyLazyFetch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inbox := seedFolder(t, s, "work", "Inbox", types.FolderMail)
	id := seedItem(t, s, &ItemRecord{EntryID: "m1", FolderID: inbox.ID,
		Subject: "hello", Body: "plain body", HTMLBody: "<p>html body</p>"})

	body, htmlBody, err := s.Body(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "plain body", body)
	assert.Equal(t, "<p>html body</p>", htmlBody)

	_, _, err = s.Body(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetItem(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cal := seedFolder(t, s, "work", "Calendar", types.FolderCalendar)

	start := time.Date(2026, 9, 3, 14, 0, 0, 0, time.UTC)
	seedItem(t, s, &ItemRecord{
		EntryID:     "evt1",
		FolderID:    cal.ID,
		Subject:     "Standup",
		Sender:      "alice",
		Body:        "daily sync",
		StartAt:     timePtr(start),
		Attachments: []string{"agenda.pdf"},
	})

	item, err := s.GetItem(ctx, "evt1")
	require.NoError(t, err)
	assert.Equal(t, "Standup", item.Subject)
	assert.Equal(t, "daily sync", item.Body)
	// Calendar items surface the event start as their timestamp
	assert.Equal(t, start, item.Timestamp)
	assert.True(t, item.HasAttachments)
	assert.Equal(t, []string{"agenda.pdf"}, item.Attachments)

	_, err = s.GetItem(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertItem_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inbox := seedFolder(t, s, "work", "Inbox", types.FolderMail)

	first := seedItem(t, s, &ItemRecord{EntryID: "m1", FolderID: inbox.ID, Subject: "v1"})
	second := seedItem(t, s, &ItemRecord{EntryID: "m1", FolderID: inbox.ID, Subject: "v2"})
	assert.Equal(t, first, second)

	item, err := s.GetItem(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "v2", item.Subject)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Items)
}

func TestImportItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inbox := seedFolder(t, s, "work", "Inbox", types.FolderMail)

	payload := `[
		{"entry_id": "m1", "subject": "Flight to ZRH", "sender": "united", "received": "2026-08-01T09:00:00Z", "unread": true},
		{"subject": "No id", "received": "2026-08-02"},
		{"subject": "With attachment", "attachments": ["ticket.pdf"]}
	]`

	n, err := s.ImportItems(ctx, inbox, strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	policy := s.FieldPolicy(inbox)
	filter := query.Compile(query.Parse("id ZRH attachment"), query.DateRange{}, policy, query.CapabilitySubstring)
	items, err := s.ListCandidates(ctx, inbox, filter)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	// Items without an entry id got a generated one
	for _, it := range items {
		assert.NotEmpty(t, it.EntryID)
	}

	// Bad timestamps fail the import with a per-item error
	_, err = s.ImportItems(ctx, inbox, strings.NewReader(`[{"subject": "x", "received": "not a date"}]`))
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inbox := seedFolder(t, s, "work", "Inbox", types.FolderMail)
	seedFolder(t, s, "home", "Inbox", types.FolderMail)
	seedItem(t, s, &ItemRecord{EntryID: "m1", FolderID: inbox.ID, Subject: "hi"})

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Accounts)
	assert.Equal(t, 2, st.Folders)
	assert.Equal(t, 1, st.Items)
	assert.True(t, st.FTSEnabled)
	assert.Equal(t, DriverName, st.Driver)
}
