package transfer_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
	"github.com/tagwardenapp/tagwarden-server/internal/transfer"
)

func sampleTags() []*domain.Tag {
	first := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	last := time.Date(2025, 6, 2, 16, 30, 0, 0, time.UTC)
	return []*domain.Tag{
		{Name: "science fiction", UseCount: 42, FirstUsed: first, LastUsed: last},
		{Name: "slow-burn", UseCount: 7, FirstUsed: first, LastUsed: first},
		{Name: "cozy", UseCount: 0},
	}
}

func TestExportTags_Plain(t *testing.T) {
	out, err := transfer.ExportTags(sampleTags(), transfer.FormatPlain)
	require.NoError(t, err)
	assert.Equal(t, "science fiction\nslow-burn\ncozy\n", string(out))
}

func TestExportTags_CSVHeader(t *testing.T) {
	out, err := transfer.ExportTags(sampleTags(), transfer.FormatCSV)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "tag,useCount,firstUsed,lastUsed", lines[0])
	assert.Equal(t, "science fiction,42,2025-01-10T08:00:00Z,2025-06-02T16:30:00Z", lines[1])
	assert.Equal(t, "cozy,0,,", lines[3], "never-used tags export empty timestamps")
}

func TestExportTags_Markdown(t *testing.T) {
	out, err := transfer.ExportTags(sampleTags(), transfer.FormatMarkdown)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "# Tags")
	assert.Contains(t, text, "- science fiction")
	assert.Contains(t, text, "| Tag | Uses | First Used | Last Used |")
	assert.Contains(t, text, "| slow-burn | 7 |")
}

func TestImportTags_RoundTrips(t *testing.T) {
	tags := sampleTags()

	for _, format := range []transfer.Format{
		transfer.FormatPlain,
		transfer.FormatJSON,
		transfer.FormatCSV,
		transfer.FormatMarkdown,
	} {
		t.Run(string(format), func(t *testing.T) {
			out, err := transfer.ExportTags(tags, format)
			require.NoError(t, err)

			records, err := transfer.ImportTags(out, format)
			require.NoError(t, err)
			require.Len(t, records, len(tags))
			for i, rec := range records {
				assert.Equal(t, tags[i].Name, rec.Tag)
			}
		})
	}
}

func TestImportTags_CSVPreservesCounts(t *testing.T) {
	out, err := transfer.ExportTags(sampleTags(), transfer.FormatCSV)
	require.NoError(t, err)

	records, err := transfer.ImportTags(out, transfer.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 42, records[0].UseCount)
	assert.True(t, records[0].FirstUsed.Equal(time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)))
	assert.True(t, records[2].FirstUsed.IsZero())
}

func TestImportTags_CSVRejectsWrongHeader(t *testing.T) {
	_, err := transfer.ImportTags([]byte("name,count\npop,1\n"), transfer.FormatCSV)
	require.Error(t, err)
}

func TestImportTags_JSONAcceptsBareNames(t *testing.T) {
	records, err := transfer.ImportTags([]byte(`["pop", "rock"]`), transfer.FormatJSON)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "pop", records[0].Tag)
}

func TestImportTags_PlainSkipsBlankLines(t *testing.T) {
	records, err := transfer.ImportTags([]byte("pop\n\n\nrock\n"), transfer.FormatPlain)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestValidateTagImport(t *testing.T) {
	records := []transfer.TagRecord{
		{Tag: "clean"},
		{Tag: ""},
		{Tag: "Mixed Case"},
		{Tag: "clean"},
		{Tag: "negative", UseCount: -1},
	}

	result := transfer.ValidateTagImport(records)
	assert.False(t, result.IsValid)
	assert.Len(t, result.Errors, 2, "empty name and negative count block")
	assert.Equal(t, []string{"clean", "Mixed Case"}, result.ValidTags)

	var dupWarned, caseWarned bool
	for _, w := range result.Warnings {
		if strings.Contains(w, "duplicate") {
			dupWarned = true
		}
		if strings.Contains(w, "uppercase") {
			caseWarned = true
		}
	}
	assert.True(t, dupWarned)
	assert.True(t, caseWarned)
}

func TestValidateTagImport_AllClean(t *testing.T) {
	result := transfer.ValidateTagImport([]transfer.TagRecord{{Tag: "pop"}, {Tag: "rock"}})
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, []string{"pop", "rock"}, result.ValidTags)
}

func TestPermissionCSV_RoundTrip(t *testing.T) {
	perms := []domain.TagPermission{
		{Tag: "music", UserID: "u1", UserName: "Ada", UserEmail: "ada@example.com", Role: domain.RoleAdmin},
		{Tag: "music", UserID: "u2", UserName: "Grace", UserEmail: "grace@example.com", Role: domain.RoleViewer},
	}

	out, err := transfer.ExportPermissions(perms)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	assert.Equal(t, "tag,userId,userName,userEmail,role", lines[0])

	parsed, err := transfer.ImportPermissions(out)
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assert.Equal(t, perms[0].Tag, parsed[0].Tag)
	assert.Equal(t, perms[0].UserID, parsed[0].UserID)
	assert.Equal(t, perms[0].Role, parsed[0].Role)
	assert.Equal(t, perms[1].UserEmail, parsed[1].UserEmail)
}

func TestImportPermissions_RejectsUnknownRole(t *testing.T) {
	csv := "tag,userId,userName,userEmail,role\nmusic,u1,Ada,ada@example.com,owner\n"
	_, err := transfer.ImportPermissions([]byte(csv))
	require.Error(t, err)
}

func TestImportPermissions_RoleCaseInsensitive(t *testing.T) {
	csv := "tag,userId,userName,userEmail,role\nmusic,u1,Ada,ada@example.com,ADMIN\n"
	parsed, err := transfer.ImportPermissions([]byte(csv))
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, domain.RoleAdmin, parsed[0].Role)
}
