package service

import (
	"context"
	"log/slog"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
	"github.com/tagwardenapp/tagwarden-server/internal/errors"
	"github.com/tagwardenapp/tagwarden-server/internal/store"
	"github.com/tagwardenapp/tagwarden-server/internal/version"
)

// recordRetries bounds the retry loop when two writers race on the same
// version number. Each retry recomputes the next number from a fresh read.
const recordRetries = 3

// VersionService orchestrates tag version history: recording, diffing,
// merging, and reverting.
type VersionService struct {
	store  *store.Store
	perms  *PermissionService
	logger *slog.Logger
}

// NewVersionService creates a new version service.
func NewVersionService(st *store.Store, perms *PermissionService, logger *slog.Logger) *VersionService {
	return &VersionService{
		store:  st,
		perms:  perms,
		logger: logger,
	}
}

// History returns a tag's full version history, oldest first.
func (s *VersionService) History(ctx context.Context, tag string) ([]domain.TagVersion, error) {
	return s.store.ListVersions(ctx, tag)
}

// Get returns one numbered version.
func (s *VersionService) Get(ctx context.Context, tag string, n int) (*domain.TagVersion, error) {
	v, err := s.store.GetVersion(ctx, tag, n)
	return v, errTranslate(err)
}

// Record appends a change as the tag's next version. On a write race for the
// same number it re-reads and retries; persistent conflict bubbles up.
func (s *VersionService) Record(ctx context.Context, tag string, change domain.TagChange) (*domain.TagVersion, error) {
	var lastErr error
	for range recordRetries {
		existing, err := s.store.ListVersions(ctx, tag)
		if err != nil {
			return nil, err
		}

		v := version.Create(tag, change, existing)
		err = s.store.CreateVersion(ctx, &v)
		if err == nil {
			return &v, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, errTranslate(lastErr)
}

// Revert appends a compensating version pointing back at the target version.
// History is never truncated. Requires edit capability.
func (s *VersionService) Revert(ctx context.Context, tag string, target int, actorID string) (*domain.TagVersion, error) {
	if err := s.perms.requireEdit(ctx, tag, actorID); err != nil {
		return nil, err
	}

	existing, err := s.store.ListVersions(ctx, tag)
	if err != nil {
		return nil, err
	}

	v, err := version.Revert(tag, target, existing)
	if err != nil {
		var nf *version.VersionNotFoundError
		if errors.As(err, &nf) {
			return nil, errors.NotFoundf("tag %q has no version %d", nf.Tag, nf.Version)
		}
		return nil, err
	}
	v.Changes[0].Author = actorID

	if err := s.store.CreateVersion(ctx, &v); err != nil {
		return nil, errTranslate(err)
	}

	s.logger.Info("version reverted", "tag", tag, "target", target, "new_version", v.Version, "actor", actorID)
	return &v, nil
}

// Compare diffs two versions of a tag.
func (s *VersionService) Compare(ctx context.Context, tag string, a, b int) (*version.Diff, error) {
	va, err := s.store.GetVersion(ctx, tag, a)
	if err != nil {
		return nil, errTranslate(err)
	}
	vb, err := s.store.GetVersion(ctx, tag, b)
	if err != nil {
		return nil, errTranslate(err)
	}

	diff := version.Compare(*va, *vb)
	return &diff, nil
}

// CheckConflicts reports whether two versions could merge cleanly.
func (s *VersionService) CheckConflicts(ctx context.Context, tag string, a, b int) (*version.ConflictReport, error) {
	va, err := s.store.GetVersion(ctx, tag, a)
	if err != nil {
		return nil, errTranslate(err)
	}
	vb, err := s.store.GetVersion(ctx, tag, b)
	if err != nil {
		return nil, errTranslate(err)
	}

	report := version.CheckConflicts(*va, *vb)
	return &report, nil
}

// Merge combines two versions into a new one. Conflicting change types must
// each carry a resolution picking a side; unresolved conflicts come back as
// a validation error holding the report. Requires edit capability.
func (s *VersionService) Merge(ctx context.Context, tag string, a, b int, resolutions map[domain.ChangeType]version.Side, actorID string) (*domain.TagVersion, error) {
	if err := s.perms.requireEdit(ctx, tag, actorID); err != nil {
		return nil, err
	}

	va, err := s.store.GetVersion(ctx, tag, a)
	if err != nil {
		return nil, errTranslate(err)
	}
	vb, err := s.store.GetVersion(ctx, tag, b)
	if err != nil {
		return nil, errTranslate(err)
	}

	merged, report, err := version.Merge(*va, *vb, resolutions)
	if err != nil {
		return nil, errors.ValidationWithDetails("merge has unresolved conflicts", report)
	}

	if err := s.store.CreateVersion(ctx, &merged); err != nil {
		return nil, errTranslate(err)
	}

	s.logger.Info("versions merged", "tag", tag, "a", a, "b", b, "result", merged.Version, "actor", actorID)
	return &merged, nil
}

// ValidateHistory checks every tag's version sequence for duplicates and
// gaps. Violations are reported, never repaired.
func (s *VersionService) ValidateHistory(ctx context.Context) ([]version.Violation, error) {
	all, err := s.store.ListAllVersions(ctx)
	if err != nil {
		return nil, err
	}
	return version.ValidateAll(all), nil
}
