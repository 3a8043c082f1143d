package service

import (
	"context"
	"log/slog"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
	"github.com/tagwardenapp/tagwarden-server/internal/store"
	"github.com/tagwardenapp/tagwarden-server/internal/transfer"
)

// TransferService moves taxonomy data in and out of the store in the
// interchange formats internal/transfer speaks.
type TransferService struct {
	store  *store.Store
	perms  *PermissionService
	logger *slog.Logger
}

func NewTransferService(st *store.Store, perms *PermissionService, logger *slog.Logger) *TransferService {
	return &TransferService{
		store:  st,
		perms:  perms,
		logger: logger,
	}
}

// ImportReport is what an import run produced.
type ImportReport struct {
	Validation transfer.ValidationResult `json:"validation"`
	Created    int                       `json:"created"`
	Existing   int                       `json:"existing"`
}

// ExportTags renders every known tag in the requested format.
func (s *TransferService) ExportTags(ctx context.Context, format transfer.Format) ([]byte, error) {
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, errTranslate(err)
	}
	return transfer.ExportTags(tags, format)
}

// ImportTags parses and validates an uploaded tag list, then creates every
// valid tag that does not exist yet. Validation errors block the whole
// import; warnings are reported but do not.
func (s *TransferService) ImportTags(ctx context.Context, data []byte, format transfer.Format) (*ImportReport, error) {
	records, err := transfer.ImportTags(data, format)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{Validation: transfer.ValidateTagImport(records)}
	if !report.Validation.IsValid {
		return report, nil
	}

	for _, name := range report.Validation.ValidTags {
		_, created, err := s.store.FindOrCreateTag(ctx, name)
		if err != nil {
			return report, errTranslate(err)
		}
		if created {
			report.Created++
		} else {
			report.Existing++
		}
	}

	s.logger.Info("imported tags",
		"format", format, "created", report.Created, "existing", report.Existing)
	return report, nil
}

// ExportPermissions renders every grant as CSV.
func (s *TransferService) ExportPermissions(ctx context.Context) ([]byte, error) {
	perms, err := s.store.ListAllPermissions(ctx)
	if err != nil {
		return nil, errTranslate(err)
	}
	return transfer.ExportPermissions(perms)
}

// PermissionImportReport is what a permission import run produced.
type PermissionImportReport struct {
	Applied int      `json:"applied"`
	Errors  []string `json:"errors,omitempty"`
}

// ImportPermissions parses a permission CSV and grants each row through the
// permission service, so governance checks and audit entries apply per row.
// Rows that fail (unknown tag, actor lacks admin) are collected rather than
// aborting the rest of the import.
func (s *TransferService) ImportPermissions(ctx context.Context, data []byte, actorID string) (*PermissionImportReport, error) {
	perms, err := transfer.ImportPermissions(data)
	if err != nil {
		return nil, err
	}

	report := &PermissionImportReport{}
	for _, p := range perms {
		if _, err := s.store.GetTag(ctx, p.Tag); err != nil {
			report.Errors = append(report.Errors, "unknown tag "+p.Tag)
			continue
		}
		grant := domain.TagPermission{
			Tag:       p.Tag,
			UserID:    p.UserID,
			UserName:  p.UserName,
			UserEmail: p.UserEmail,
			Role:      p.Role,
		}
		if err := s.perms.Grant(ctx, &grant, actorID); err != nil {
			report.Errors = append(report.Errors, "grant "+p.Tag+"/"+p.UserID+": "+err.Error())
			continue
		}
		report.Applied++
	}

	s.logger.Info("imported permissions",
		"applied", report.Applied, "failed", len(report.Errors))
	return report, nil
}
