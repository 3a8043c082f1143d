// Package transfer implements import and export of taxonomy data in the
// interchange formats users actually move tag lists around in: plain text,
// JSON, CSV, and Markdown. Column order and headers are load-bearing for
// round-trips; do not reorder them.
package transfer

import (
	"github.com/tagwardenapp/tagwarden-server/internal/errors"
)

// Format identifies an interchange format.
type Format string

// Supported formats.
const (
	FormatPlain    Format = "plain"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	switch f {
	case FormatPlain, FormatJSON, FormatCSV, FormatMarkdown:
		return true
	}
	return false
}

// ParseFormat validates a user-supplied format string.
func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if !f.Valid() {
		return "", errors.Validationf("unknown format %q", s)
	}
	return f, nil
}
