// Package types defines the shared data model for the mail vault: folders,
// items, search results, and pages, plus the entry-id codec and compact date
// formatting used in tool output.
package types
