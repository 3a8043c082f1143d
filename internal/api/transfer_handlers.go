package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tagwardenapp/tagwarden-server/internal/errors"
	"github.com/tagwardenapp/tagwarden-server/internal/service"
	"github.com/tagwardenapp/tagwarden-server/internal/transfer"
)

func (s *Server) registerTransferRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "exportTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/export/tags",
		Summary:     "Export tags",
		Description: "Renders every tag in the requested format: plain, json, csv, or markdown",
		Tags:        []string{"Transfer"},
	}, s.handleExportTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "importTags",
		Method:      http.MethodPost,
		Path:        "/api/v1/import/tags",
		Summary:     "Import tags",
		Description: "Validates an uploaded tag list and creates the missing tags; a single error blocks the whole import",
		Tags:        []string{"Transfer"},
	}, s.handleImportTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "exportPermissions",
		Method:      http.MethodGet,
		Path:        "/api/v1/export/permissions",
		Summary:     "Export permissions",
		Description: "Renders every grant as CSV",
		Tags:        []string{"Transfer"},
	}, s.handleExportPermissions)

	huma.Register(s.api, huma.Operation{
		OperationID: "importPermissions",
		Method:      http.MethodPost,
		Path:        "/api/v1/import/permissions",
		Summary:     "Import permissions",
		Description: "Grants each CSV row through normal governance checks; failed rows are reported, not fatal",
		Tags:        []string{"Transfer"},
	}, s.handleImportPermissions)
}

// === DTOs ===

// ExportTagsInput contains parameters for exporting tags.
type ExportTagsInput struct {
	Format string `query:"format" doc:"Export format: plain, json, csv, or markdown (default plain)"`
}

// RawExportOutput returns an export document verbatim.
type RawExportOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// ImportTagsInput carries an uploaded tag list.
type ImportTagsInput struct {
	Format  string `query:"format" doc:"Import format: plain, json, csv, or markdown (default plain)"`
	RawBody []byte
}

// ImportTagsOutput wraps the import report for Huma.
type ImportTagsOutput struct {
	Body service.ImportReport
}

// ImportPermissionsInput carries an uploaded permission CSV.
type ImportPermissionsInput struct {
	ActorID string `header:"X-Actor-ID" doc:"User performing the import"`
	RawBody []byte
}

// ImportPermissionsOutput wraps the permission import report for Huma.
type ImportPermissionsOutput struct {
	Body service.PermissionImportReport
}

// parseFormat maps the query parameter onto a transfer format, defaulting
// to plain text.
func parseFormat(raw string) (transfer.Format, error) {
	if raw == "" {
		return transfer.FormatPlain, nil
	}
	f := transfer.Format(raw)
	if !f.Valid() {
		return "", errors.Validationf("unknown format %q", raw)
	}
	return f, nil
}

func contentTypeFor(f transfer.Format) string {
	switch f {
	case transfer.FormatJSON:
		return "application/json; charset=utf-8"
	case transfer.FormatCSV:
		return "text/csv; charset=utf-8"
	case transfer.FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// === Handlers ===

func (s *Server) handleExportTags(ctx context.Context, input *ExportTagsInput) (*RawExportOutput, error) {
	format, err := parseFormat(input.Format)
	if err != nil {
		return nil, err
	}

	data, err := s.services.Transfer.ExportTags(ctx, format)
	if err != nil {
		return nil, err
	}

	return &RawExportOutput{
		ContentType: contentTypeFor(format),
		Body:        data,
	}, nil
}

func (s *Server) handleImportTags(ctx context.Context, input *ImportTagsInput) (*ImportTagsOutput, error) {
	format, err := parseFormat(input.Format)
	if err != nil {
		return nil, err
	}

	report, err := s.services.Transfer.ImportTags(ctx, input.RawBody, format)
	if err != nil {
		return nil, err
	}

	return &ImportTagsOutput{Body: *report}, nil
}

func (s *Server) handleExportPermissions(ctx context.Context, _ *struct{}) (*RawExportOutput, error) {
	data, err := s.services.Transfer.ExportPermissions(ctx)
	if err != nil {
		return nil, err
	}

	return &RawExportOutput{
		ContentType: "text/csv; charset=utf-8",
		Body:        data,
	}, nil
}

func (s *Server) handleImportPermissions(ctx context.Context, input *ImportPermissionsInput) (*ImportPermissionsOutput, error) {
	actorID, err := requireActor(input.ActorID)
	if err != nil {
		return nil, err
	}

	report, err := s.services.Transfer.ImportPermissions(ctx, input.RawBody, actorID)
	if err != nil {
		return nil, err
	}

	return &ImportPermissionsOutput{Body: *report}, nil
}
