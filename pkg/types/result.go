package types

// Match is a single snippet of body text surrounding a matched term,
// returned only in content mode.
type Match struct {
	Term    string `json:"term"`
	Context string `json:"context"`
}

// Result is one externally visible search hit. Scoring fields never appear
// here; they are stripped during pagination. Empty optional fields are
// omitted from the JSON output to keep tool responses small.
type Result struct {
	EntryID        string  `json:"entry_id"`
	Subject        string  `json:"subject,omitempty"`
	Sender         string  `json:"sender,omitempty"`
	Date           string  `json:"date,omitempty"`
	HasAttachments bool    `json:"has_attachments,omitempty"`
	IsRead         *bool   `json:"is_read,omitempty"`
	Matches        []Match `json:"matches,omitempty"`
}

// Pagination describes the window a Page covers.
type Pagination struct {
	Total   int  `json:"total"`
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"has_more"`
}

// Page is one page of ranked search results.
type Page struct {
	Pagination Pagination `json:"pagination"`
	Results    []Result   `json:"results"`
}
