package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
	"github.com/tagwardenapp/tagwarden-server/internal/errors"
	"github.com/tagwardenapp/tagwarden-server/internal/id"
	"github.com/tagwardenapp/tagwarden-server/internal/search"
	"github.com/tagwardenapp/tagwarden-server/internal/store"
	"github.com/tagwardenapp/tagwarden-server/internal/util"
)

// TagService orchestrates tag lifecycle operations: create, rename, merge,
// alias, delete. Every identity-affecting mutation runs the permission gate
// first and records a version entry after.
type TagService struct {
	store    *store.Store
	versions *VersionService
	perms    *PermissionService
	index    *search.SearchIndex
	logger   *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(st *store.Store, versions *VersionService, perms *PermissionService, index *search.SearchIndex, logger *slog.Logger) *TagService {
	return &TagService{
		store:    st,
		versions: versions,
		perms:    perms,
		index:    index,
		logger:   logger,
	}
}

// CreateResult is the outcome of creating a tag, including advisory warnings
// about the chosen name. Warnings never block creation.
type CreateResult struct {
	Tag      *domain.Tag `json:"tag"`
	Created  bool        `json:"created"`
	Warnings []string    `json:"warnings,omitempty"`
}

// List returns all tags ordered by popularity.
func (s *TagService) List(ctx context.Context) ([]*domain.Tag, error) {
	return s.store.ListTags(ctx)
}

// Get returns a tag by exact name, resolving aliases when the name itself is
// unknown.
func (s *TagService) Get(ctx context.Context, name string) (*domain.Tag, error) {
	t, err := s.store.GetTag(ctx, name)
	if err == nil {
		return t, nil
	}
	if !errors.Is(errTranslate(err), errors.ErrNotFound) {
		return nil, err
	}

	// Not a tag name; maybe an alias spelling.
	alias, aliasErr := s.store.Aliases.GetByIndex(ctx, "alias", name)
	if aliasErr != nil {
		return nil, errors.NotFoundf("tag %q not found", name)
	}
	t, err = s.store.GetTag(ctx, alias.Canonical)
	if err != nil {
		return nil, errors.Internal("alias points at missing tag").WithCause(err)
	}
	return t, nil
}

// Create makes a new tag under the exact given name. The name is never
// rewritten; non-canonical spellings come back as warnings.
func (s *TagService) Create(ctx context.Context, name string) (*CreateResult, error) {
	if name == "" {
		return nil, errors.Validation("tag name must not be empty")
	}

	tag, created, err := s.store.FindOrCreateTag(ctx, name)
	if err != nil {
		return nil, err
	}

	if created {
		s.logger.Info("tag created", "tag", name)
	}

	return &CreateResult{
		Tag:      tag,
		Created:  created,
		Warnings: util.TagNameWarnings(name),
	}, nil
}

// Rename moves a tag to a new name. Requires edit capability; records a
// rename change in version history and carries versions, permissions, edges,
// aliases, and usage history over to the new name.
func (s *TagService) Rename(ctx context.Context, oldName, newName, actorID string) (*domain.Tag, error) {
	if newName == "" {
		return nil, errors.Validation("new tag name must not be empty")
	}
	if oldName == newName {
		return nil, errors.Validation("new name equals the current name")
	}

	if err := s.perms.requireEdit(ctx, oldName, actorID); err != nil {
		return nil, err
	}

	renamed, err := s.store.RenameTag(ctx, oldName, newName)
	if err != nil {
		return nil, errTranslate(err)
	}

	if err := s.store.MoveVersions(ctx, oldName, newName); err != nil {
		return nil, err
	}
	if err := s.store.MovePermissions(ctx, oldName, newName); err != nil {
		return nil, err
	}
	if err := s.moveEdges(ctx, oldName, newName); err != nil {
		return nil, err
	}
	if err := s.store.RenameInUsage(ctx, oldName, newName); err != nil {
		return nil, err
	}
	if err := s.retargetAliases(ctx, oldName, newName); err != nil {
		return nil, err
	}

	change := domain.TagChange{
		Type:        domain.ChangeRename,
		Description: "renamed " + oldName + " to " + newName,
		Timestamp:   time.Now(),
		Author:      actorID,
		Rename:      &domain.RenameDetails{OldValue: oldName, NewValue: newName},
	}
	if _, err := s.versions.Record(ctx, newName, change); err != nil {
		return nil, err
	}

	s.logger.Info("tag renamed", "from", oldName, "to", newName, "actor", actorID)
	return renamed, nil
}

// Merge folds the source tags into the target. Requires edit capability on
// the target and every source. Usage history is rewritten to credit the
// target, edges touching sources are dropped, aliases are created from the
// old names, and the merge is recorded in the target's version history.
func (s *TagService) Merge(ctx context.Context, sources []string, target, actorID string) (*domain.Tag, error) {
	if len(sources) == 0 {
		return nil, errors.Validation("merge needs at least one source tag")
	}
	for _, src := range sources {
		if src == target {
			return nil, errors.Validation("merge target cannot be one of its sources")
		}
	}

	if err := s.perms.requireEdit(ctx, target, actorID); err != nil {
		return nil, err
	}
	for _, src := range sources {
		if err := s.perms.requireEdit(ctx, src, actorID); err != nil {
			return nil, err
		}
		if _, err := s.store.GetTag(ctx, src); err != nil {
			return nil, errTranslate(err)
		}
	}

	targetTag, err := s.store.GetTag(ctx, target)
	if err != nil {
		return nil, errTranslate(err)
	}

	for _, src := range sources {
		if err := s.store.RenameInUsage(ctx, src, target); err != nil {
			return nil, err
		}
		if _, err := s.store.RemoveEdgesForTag(ctx, src); err != nil {
			return nil, err
		}
		if err := s.store.DeleteTag(ctx, src); err != nil {
			return nil, err
		}

		alias := &domain.TagAlias{
			ID:        id.MustGenerate("al"),
			Alias:     src,
			Canonical: target,
			CreatedAt: time.Now(),
		}
		if err := s.store.Aliases.Create(ctx, alias.ID, alias); err != nil && !errors.Is(err, store.ErrAlreadyExists) {
			return nil, err
		}
	}

	change := domain.TagChange{
		Type:        domain.ChangeMerge,
		Description: "merged tags into " + target,
		Timestamp:   time.Now(),
		Author:      actorID,
		Merge:       &domain.MergeDetails{Sources: sources, Target: target},
	}
	if _, err := s.versions.Record(ctx, target, change); err != nil {
		return nil, err
	}

	s.logger.Info("tags merged", "sources", sources, "target", target, "actor", actorID)
	return targetTag, nil
}

// Split records a split of one tag into several. The source tag survives;
// targets are created if missing. The split is advisory bookkeeping — usage
// history is not rewritten because the engine cannot know which historical
// uses belong to which target.
func (s *TagService) Split(ctx context.Context, source string, targets []string, actorID string) error {
	if len(targets) < 2 {
		return errors.Validation("split needs at least two target tags")
	}

	if err := s.perms.requireEdit(ctx, source, actorID); err != nil {
		return err
	}
	if _, err := s.store.GetTag(ctx, source); err != nil {
		return errTranslate(err)
	}

	for _, tgt := range targets {
		if _, _, err := s.store.FindOrCreateTag(ctx, tgt); err != nil {
			return err
		}
	}

	change := domain.TagChange{
		Type:        domain.ChangeSplit,
		Description: "split " + source,
		Timestamp:   time.Now(),
		Author:      actorID,
		Split:       &domain.SplitDetails{Source: source, Targets: targets},
	}
	if _, err := s.versions.Record(ctx, source, change); err != nil {
		return err
	}

	s.logger.Info("tag split", "source", source, "targets", targets, "actor", actorID)
	return nil
}

// AddAlias maps a synonym spelling onto a canonical tag and records it in the
// canonical tag's version history.
func (s *TagService) AddAlias(ctx context.Context, alias, canonical, actorID string) (*domain.TagAlias, error) {
	if alias == canonical {
		return nil, errors.Validation("alias cannot equal its canonical tag")
	}
	if err := s.perms.requireEdit(ctx, canonical, actorID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetTag(ctx, canonical); err != nil {
		return nil, errTranslate(err)
	}
	if exists, err := s.store.TagExists(ctx, alias); err != nil {
		return nil, err
	} else if exists {
		return nil, errors.Conflictf("%q is an existing tag, not a free alias", alias)
	}

	a := &domain.TagAlias{
		ID:        id.MustGenerate("al"),
		Alias:     alias,
		Canonical: canonical,
		CreatedAt: time.Now(),
	}
	if err := s.store.Aliases.Create(ctx, a.ID, a); err != nil {
		return nil, errTranslate(err)
	}

	change := domain.TagChange{
		Type:        domain.ChangeAlias,
		Description: "aliased " + alias + " to " + canonical,
		Timestamp:   time.Now(),
		Author:      actorID,
		Alias:       &domain.AliasDetails{Alias: alias, Canonical: canonical},
	}
	if _, err := s.versions.Record(ctx, canonical, change); err != nil {
		return nil, err
	}

	return a, nil
}

// Delete removes a tag entirely: record, edges, and aliases. Requires admin
// capability. Version history and audit entries stay behind as the permanent
// record.
func (s *TagService) Delete(ctx context.Context, name, actorID string) error {
	if err := s.perms.requireAdmin(ctx, name, actorID); err != nil {
		return err
	}

	if _, err := s.store.RemoveEdgesForTag(ctx, name); err != nil {
		return err
	}
	for a, err := range s.store.Aliases.List(ctx) {
		if err != nil {
			return err
		}
		if a.Canonical == name {
			if err := s.store.Aliases.Delete(ctx, a.ID); err != nil {
				return err
			}
		}
	}
	if err := s.store.DeleteTag(ctx, name); err != nil {
		return errTranslate(err)
	}

	s.logger.Info("tag deleted", "tag", name, "actor", actorID)
	return nil
}

// Typeahead runs a prefix search over tag names and aliases.
func (s *TagService) Typeahead(ctx context.Context, query string, limit int) (*search.Result, error) {
	params := search.DefaultParams()
	params.Query = query
	if limit > 0 {
		params.Limit = limit
	}
	return s.index.Search(ctx, params)
}

// ReindexAll reseeds the search index from the store.
func (s *TagService) ReindexAll(ctx context.Context) error {
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return err
	}

	docs := make([]*search.TagDocument, 0, len(tags))
	for _, t := range tags {
		aliases, err := s.store.AliasesForTag(ctx, t.Name)
		if err != nil {
			return err
		}
		docs = append(docs, search.NewTagDocument(t, aliases))
	}

	if err := s.index.Rebuild(); err != nil {
		return err
	}
	return s.index.IndexTags(docs)
}

// RecordUsage appends one usage event after validating that every named tag
// exists, creating missing ones first.
func (s *TagService) RecordUsage(ctx context.Context, tags []string, ts time.Time) (*domain.TagUsage, error) {
	if len(tags) == 0 {
		return nil, errors.Validation("usage record needs at least one tag")
	}
	if ts.IsZero() {
		ts = time.Now()
	}

	for _, name := range tags {
		if _, _, err := s.store.FindOrCreateTag(ctx, name); err != nil {
			return nil, err
		}
	}

	u := &domain.TagUsage{Tags: tags, Timestamp: ts}
	if err := s.store.AppendUsage(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// moveEdges rewrites hierarchy edges referencing oldName to newName.
func (s *TagService) moveEdges(ctx context.Context, oldName, newName string) error {
	removed, err := s.store.RemoveEdgesForTag(ctx, oldName)
	if err != nil {
		return err
	}
	for _, e := range removed {
		if e.Parent == oldName {
			e.Parent = newName
		}
		if e.Child == oldName {
			e.Child = newName
		}
		if err := s.store.AddEdge(ctx, &e); err != nil && !errors.Is(err, store.ErrEdgeExists) {
			return err
		}
	}
	return nil
}

// retargetAliases repoints aliases whose canonical was renamed.
func (s *TagService) retargetAliases(ctx context.Context, oldName, newName string) error {
	for a, err := range s.store.Aliases.List(ctx) {
		if err != nil {
			return err
		}
		if a.Canonical != oldName {
			continue
		}
		updated := *a
		updated.Canonical = newName
		if err := s.store.Aliases.Update(ctx, a.ID, &updated); err != nil {
			return err
		}
	}
	return nil
}
