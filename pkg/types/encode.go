package types

import (
	"encoding/base64"
	"fmt"
	"time"
)

// EncodeEntryID converts a raw store entry ID into the compact URL-safe form
// used in tool output. Raw entry IDs can be long hex strings; the encoded
// form is what callers pass back to read_item.
func EncodeEntryID(raw string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeEntryID reverses EncodeEntryID.
func DecodeEntryID(encoded string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid entry id: %w", err)
	}
	return string(b), nil
}

// FormatCompactDate renders an item date in the shortest unambiguous form:
// time of day for today, month and day within the current year, and the full
// date otherwise. A zero time renders as the empty string.
func FormatCompactDate(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	switch {
	case ty == ny && tm == nm && td == nd:
		return t.Format("Jan 02 15:04")
	case ty == ny:
		return t.Format("Jan 02")
	default:
		return t.Format("Jan 02 2006")
	}
}
