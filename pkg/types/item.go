package types

import "time"

// FolderKind identifies what a folder contains. The kind decides which date
// field drives filtering and recency (event start for calendars, received
// time for everything else).
type FolderKind string

const (
	FolderMail     FolderKind = "mail"
	FolderCalendar FolderKind = "calendar"
	FolderContacts FolderKind = "contacts"
	FolderTasks    FolderKind = "tasks"
)

// Folder is a collection of items within an account.
type Folder struct {
	ID        int64      `json:"-"`
	Account   string     `json:"account"`
	Path      string     `json:"path"`
	Kind      FolderKind `json:"kind"`
	ItemCount int        `json:"item_count"`
}

// FullPath returns the account-qualified folder path, e.g. "work/Inbox".
func (f *Folder) FullPath() string {
	if f.Path == "" {
		return f.Account
	}
	return f.Account + "/" + f.Path
}

// Item is a single message, event, contact, or task as stored in the vault.
// Body is lazily populated: listing operations leave it empty and callers
// fetch it through the store only when content is actually needed.
type Item struct {
	ID             int64
	EntryID        string
	FolderID       int64
	Subject        string
	Sender         string
	Body           string
	HTMLBody       string
	Timestamp      time.Time // zero when the item has no usable date
	HasAttachments bool
	Unread         bool
	Attachments    []string
}
