package transfer

import (
	"encoding/csv"
	"strings"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
	"github.com/tagwardenapp/tagwarden-server/internal/errors"
)

// permissionCSVHeader is the exact column set for permission CSV round-trips.
var permissionCSVHeader = []string{"tag", "userId", "userName", "userEmail", "role"}

// ExportPermissions renders grants as CSV.
func ExportPermissions(perms []domain.TagPermission) ([]byte, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)

	if err := w.Write(permissionCSVHeader); err != nil {
		return nil, err
	}
	for _, p := range perms {
		row := []string{p.Tag, p.UserID, p.UserName, p.UserEmail, string(p.Role)}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

// ImportPermissions parses a permission CSV. Unknown roles are hard errors;
// role strings are case-insensitive on the way in.
func ImportPermissions(data []byte) ([]domain.TagPermission, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.Validation("malformed CSV").WithCause(err)
	}
	if len(rows) == 0 {
		return nil, errors.Validation("permission CSV is empty")
	}
	if !equalFold(rows[0], permissionCSVHeader) {
		return nil, errors.Validationf("CSV header must be %q", strings.Join(permissionCSVHeader, ","))
	}

	var perms []domain.TagPermission
	for i, row := range rows[1:] {
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if len(row) != len(permissionCSVHeader) {
			return nil, errors.Validationf("CSV row %d has %d columns, want %d", i+2, len(row), len(permissionCSVHeader))
		}

		role := domain.Role(strings.ToLower(strings.TrimSpace(row[4])))
		if !role.Valid() {
			return nil, errors.Validationf("CSV row %d: unknown role %q", i+2, row[4])
		}
		if strings.TrimSpace(row[0]) == "" {
			return nil, errors.Validationf("CSV row %d: empty tag", i+2)
		}
		if strings.TrimSpace(row[1]) == "" {
			return nil, errors.Validationf("CSV row %d: empty userId", i+2)
		}

		perms = append(perms, domain.TagPermission{
			Tag:       row[0],
			UserID:    row[1],
			UserName:  row[2],
			UserEmail: row[3],
			Role:      role,
		})
	}
	return perms, nil
}
