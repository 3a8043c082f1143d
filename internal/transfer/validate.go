package transfer

import (
	"fmt"

	"github.com/tagwardenapp/tagwarden-server/internal/util"
)

// ValidationResult reports the outcome of validating an imported tag list.
// Errors block the import; warnings never do. ValidTags keeps input order
// with duplicates removed.
type ValidationResult struct {
	IsValid   bool     `json:"isValid"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	ValidTags []string `json:"validTags"`
}

// ValidateTagImport checks parsed records before they touch the store.
// Empty names and negative counts are errors; duplicate rows and
// non-canonical spellings (case, whitespace, non-NFC unicode) are warnings.
func ValidateTagImport(records []TagRecord) ValidationResult {
	result := ValidationResult{IsValid: true}
	seen := make(map[string]bool, len(records))

	for i, rec := range records {
		if rec.Tag == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: empty tag name", i+1))
			continue
		}
		if rec.UseCount < 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: negative use count for %q", i+1, rec.Tag))
			continue
		}

		if seen[rec.Tag] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("duplicate tag %q skipped", rec.Tag))
			continue
		}
		seen[rec.Tag] = true

		result.Warnings = append(result.Warnings, util.TagNameWarnings(rec.Tag)...)
		result.ValidTags = append(result.ValidTags, rec.Tag)
	}

	result.IsValid = len(result.Errors) == 0
	return result
}
