package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/dstanton/mailsearch-mcp/pkg/types"
)

// importItem is the JSON shape accepted by ImportItems. Timestamps accept
// RFC 3339 or plain calendar dates.
type importItem struct {
	EntryID     string   `json:"entry_id,omitempty"`
	Subject     string   `json:"subject"`
	Sender      string   `json:"sender,omitempty"`
	Body        string   `json:"body,omitempty"`
	HTMLBody    string   `json:"html_body,omitempty"`
	Received    string   `json:"received,omitempty"`
	Start       string   `json:"start,omitempty"`
	Unread      bool     `json:"unread,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

// ImportItems ingests a JSON array of items into a folder. Items without an
// entry ID get a generated UUID so they stay addressable by read_item.
// Returns the number of items stored.
func (s *SQLite) ImportItems(ctx context.Context, folder *types.Folder, r io.Reader) (int, error) {
	var raw []importItem
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return 0, fmt.Errorf("failed to decode import: %w", err)
	}

	count := 0
	for i, in := range raw {
		rec := &ItemRecord{
			EntryID:     in.EntryID,
			FolderID:    folder.ID,
			Subject:     in.Subject,
			Sender:      in.Sender,
			Body:        in.Body,
			HTMLBody:    in.HTMLBody,
			Unread:      in.Unread,
			Attachments: in.Attachments,
		}
		if rec.EntryID == "" {
			rec.EntryID = uuid.NewString()
		}

		var err error
		if rec.ReceivedAt, err = parseImportTime(in.Received); err != nil {
			return count, fmt.Errorf("item %d: invalid received time: %w", i, err)
		}
		if rec.StartAt, err = parseImportTime(in.Start); err != nil {
			return count, fmt.Errorf("item %d: invalid start time: %w", i, err)
		}

		if _, err := s.UpsertItem(ctx, rec); err != nil {
			return count, fmt.Errorf("item %d: %w", i, err)
		}
		count++
	}
	return count, nil
}

func parseImportTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized time %q", s)
}
