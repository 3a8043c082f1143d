package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
	"github.com/tagwardenapp/tagwarden-server/internal/search"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns all tags ordered by popularity",
		Tags:        []string{"Tags"},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "createTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags",
		Summary:     "Create tag",
		Description: "Creates a tag, or returns the existing one when the name resolves to a known tag or alias",
		Tags:        []string{"Tags"},
	}, s.handleCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTag",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{name}",
		Summary:     "Get tag",
		Description: "Returns a tag by name, following aliases",
		Tags:        []string{"Tags"},
	}, s.handleGetTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "renameTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags/{name}/rename",
		Summary:     "Rename tag",
		Description: "Renames a tag, rewriting usage history and recording a version entry",
		Tags:        []string{"Tags"},
	}, s.handleRenameTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "mergeTags",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags/merge",
		Summary:     "Merge tags",
		Description: "Folds source tags into a target tag, leaving aliases behind",
		Tags:        []string{"Tags"},
	}, s.handleMergeTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "splitTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags/{name}/split",
		Summary:     "Split tag",
		Description: "Records an advisory split of one tag into several; the source tag survives",
		Tags:        []string{"Tags"},
	}, s.handleSplitTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/{name}",
		Summary:     "Delete tag",
		Description: "Deletes a tag and its hierarchy edges",
		Tags:        []string{"Tags"},
	}, s.handleDeleteTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "createAlias",
		Method:      http.MethodPost,
		Path:        "/api/v1/aliases",
		Summary:     "Create alias",
		Description: "Maps a synonym to a canonical tag",
		Tags:        []string{"Tags"},
	}, s.handleCreateAlias)

	huma.Register(s.api, huma.Operation{
		OperationID: "typeahead",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/search",
		Summary:     "Typeahead search",
		Description: "Fuzzy-matches tags and aliases against a partial query",
		Tags:        []string{"Tags"},
	}, s.handleTypeahead)

	huma.Register(s.api, huma.Operation{
		OperationID: "reindexTags",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags/reindex",
		Summary:     "Rebuild search index",
		Description: "Rebuilds the typeahead index from the tag store",
		Tags:        []string{"Tags"},
	}, s.handleReindexTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "recordUsage",
		Method:      http.MethodPost,
		Path:        "/api/v1/usage",
		Summary:     "Record tag usage",
		Description: "Records one co-occurring tag set and bumps per-tag counters",
		Tags:        []string{"Tags"},
	}, s.handleRecordUsage)
}

// === DTOs ===

// TagResponse contains tag data in API responses.
type TagResponse struct {
	ID        string    `json:"id" doc:"Tag ID"`
	Name      string    `json:"name" doc:"Tag name"`
	UseCount  int       `json:"use_count" doc:"Number of recorded uses"`
	FirstUsed time.Time `json:"first_used,omitzero" doc:"First recorded use"`
	LastUsed  time.Time `json:"last_used,omitzero" doc:"Most recent recorded use"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update time"`
}

func toTagResponse(t *domain.Tag) TagResponse {
	return TagResponse{
		ID:        t.ID,
		Name:      t.Name,
		UseCount:  t.UseCount,
		FirstUsed: t.FirstUsed,
		LastUsed:  t.LastUsed,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// ListTagsResponse contains a list of tags.
type ListTagsResponse struct {
	Tags []TagResponse `json:"tags" doc:"List of tags"`
}

// ListTagsOutput wraps the list tags response for Huma.
type ListTagsOutput struct {
	Body ListTagsResponse
}

// CreateTagRequest is the request body for creating a tag.
type CreateTagRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100" doc:"Tag name"`
}

// CreateTagInput wraps the create tag request for Huma.
type CreateTagInput struct {
	Body CreateTagRequest
}

// CreateTagResponse reports the created (or found) tag plus quality warnings.
type CreateTagResponse struct {
	Tag      TagResponse `json:"tag" doc:"The tag"`
	Created  bool        `json:"created" doc:"Whether a new tag was created"`
	Warnings []string    `json:"warnings,omitempty" doc:"Name quality warnings"`
}

// CreateTagOutput wraps the create tag response for Huma.
type CreateTagOutput struct {
	Body CreateTagResponse
}

// GetTagInput contains parameters for getting a tag.
type GetTagInput struct {
	Name string `path:"name" doc:"Tag name"`
}

// TagOutput wraps the tag response for Huma.
type TagOutput struct {
	Body TagResponse
}

// RenameTagRequest is the request body for renaming a tag.
type RenameTagRequest struct {
	NewName string `json:"new_name" validate:"required,min=1,max=100" doc:"New tag name"`
}

// RenameTagInput wraps the rename tag request for Huma.
type RenameTagInput struct {
	ActorID string `header:"X-Actor-ID" doc:"User performing the change"`
	Name    string `path:"name" doc:"Current tag name"`
	Body    RenameTagRequest
}

// MergeTagsRequest is the request body for merging tags.
type MergeTagsRequest struct {
	Sources []string `json:"sources" validate:"required,min=1" doc:"Tags to fold into the target"`
	Target  string   `json:"target" validate:"required" doc:"Target tag name"`
}

// MergeTagsInput wraps the merge tags request for Huma.
type MergeTagsInput struct {
	ActorID string `header:"X-Actor-ID" doc:"User performing the change"`
	Body    MergeTagsRequest
}

// SplitTagRequest is the request body for splitting a tag.
type SplitTagRequest struct {
	Targets []string `json:"targets" validate:"required,min=2" doc:"Tags the source splits into"`
}

// SplitTagInput wraps the split tag request for Huma.
type SplitTagInput struct {
	ActorID string `header:"X-Actor-ID" doc:"User performing the change"`
	Name    string `path:"name" doc:"Source tag name"`
	Body    SplitTagRequest
}

// DeleteTagInput contains parameters for deleting a tag.
type DeleteTagInput struct {
	ActorID string `header:"X-Actor-ID" doc:"User performing the change"`
	Name    string `path:"name" doc:"Tag name"`
}

// CreateAliasRequest is the request body for creating an alias.
type CreateAliasRequest struct {
	Alias     string `json:"alias" validate:"required,min=1,max=100" doc:"Synonym"`
	Canonical string `json:"canonical" validate:"required" doc:"Canonical tag name"`
}

// CreateAliasInput wraps the create alias request for Huma.
type CreateAliasInput struct {
	ActorID string `header:"X-Actor-ID" doc:"User performing the change"`
	Body    CreateAliasRequest
}

// AliasResponse contains alias data in API responses.
type AliasResponse struct {
	ID        string    `json:"id" doc:"Alias ID"`
	Alias     string    `json:"alias" doc:"Synonym"`
	Canonical string    `json:"canonical" doc:"Canonical tag name"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
}

// AliasOutput wraps the alias response for Huma.
type AliasOutput struct {
	Body AliasResponse
}

// TypeaheadInput contains typeahead query parameters.
type TypeaheadInput struct {
	Query string `query:"q" doc:"Partial tag name"`
	Limit int    `query:"limit" doc:"Maximum results (default 20)"`
}

// TypeaheadOutput wraps the search result for Huma.
type TypeaheadOutput struct {
	Body search.Result
}

// RecordUsageRequest is the request body for recording usage.
type RecordUsageRequest struct {
	Tags []string `json:"tags" validate:"required,min=1" doc:"Tags applied together"`
}

// RecordUsageInput wraps the record usage request for Huma.
type RecordUsageInput struct {
	Body RecordUsageRequest
}

// UsageResponse contains one recorded usage.
type UsageResponse struct {
	ID        string    `json:"id" doc:"Usage record ID"`
	Tags      []string  `json:"tags" doc:"Tags applied together"`
	Timestamp time.Time `json:"timestamp" doc:"When the usage happened"`
}

// UsageOutput wraps the usage response for Huma.
type UsageOutput struct {
	Body UsageResponse
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, _ *struct{}) (*ListTagsOutput, error) {
	tags, err := s.services.Tag.List(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]TagResponse, len(tags))
	for i, t := range tags {
		resp[i] = toTagResponse(t)
	}

	return &ListTagsOutput{Body: ListTagsResponse{Tags: resp}}, nil
}

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*CreateTagOutput, error) {
	result, err := s.services.Tag.Create(ctx, input.Body.Name)
	if err != nil {
		return nil, err
	}

	return &CreateTagOutput{
		Body: CreateTagResponse{
			Tag:      toTagResponse(result.Tag),
			Created:  result.Created,
			Warnings: result.Warnings,
		},
	}, nil
}

func (s *Server) handleGetTag(ctx context.Context, input *GetTagInput) (*TagOutput, error) {
	t, err := s.services.Tag.Get(ctx, input.Name)
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: toTagResponse(t)}, nil
}

func (s *Server) handleRenameTag(ctx context.Context, input *RenameTagInput) (*TagOutput, error) {
	actorID, err := requireActor(input.ActorID)
	if err != nil {
		return nil, err
	}

	t, err := s.services.Tag.Rename(ctx, input.Name, input.Body.NewName, actorID)
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: toTagResponse(t)}, nil
}

func (s *Server) handleMergeTags(ctx context.Context, input *MergeTagsInput) (*TagOutput, error) {
	actorID, err := requireActor(input.ActorID)
	if err != nil {
		return nil, err
	}

	t, err := s.services.Tag.Merge(ctx, input.Body.Sources, input.Body.Target, actorID)
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: toTagResponse(t)}, nil
}

func (s *Server) handleSplitTag(ctx context.Context, input *SplitTagInput) (*MessageOutput, error) {
	actorID, err := requireActor(input.ActorID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.Split(ctx, input.Name, input.Body.Targets, actorID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tag split recorded"}}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *DeleteTagInput) (*MessageOutput, error) {
	actorID, err := requireActor(input.ActorID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.Delete(ctx, input.Name, actorID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tag deleted"}}, nil
}

func (s *Server) handleCreateAlias(ctx context.Context, input *CreateAliasInput) (*AliasOutput, error) {
	actorID, err := requireActor(input.ActorID)
	if err != nil {
		return nil, err
	}

	alias, err := s.services.Tag.AddAlias(ctx, input.Body.Alias, input.Body.Canonical, actorID)
	if err != nil {
		return nil, err
	}

	return &AliasOutput{
		Body: AliasResponse{
			ID:        alias.ID,
			Alias:     alias.Alias,
			Canonical: alias.Canonical,
			CreatedAt: alias.CreatedAt,
		},
	}, nil
}

func (s *Server) handleTypeahead(ctx context.Context, input *TypeaheadInput) (*TypeaheadOutput, error) {
	result, err := s.services.Tag.Typeahead(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, err
	}

	return &TypeaheadOutput{Body: *result}, nil
}

func (s *Server) handleReindexTags(ctx context.Context, input *struct {
	ActorID string `header:"X-Actor-ID" doc:"User performing the rebuild"`
}) (*MessageOutput, error) {
	if _, err := requireActor(input.ActorID); err != nil {
		return nil, err
	}

	if err := s.services.Tag.ReindexAll(ctx); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Reindex complete"}}, nil
}

func (s *Server) handleRecordUsage(ctx context.Context, input *RecordUsageInput) (*UsageOutput, error) {
	usage, err := s.services.Tag.RecordUsage(ctx, input.Body.Tags, time.Now())
	if err != nil {
		return nil, err
	}

	return &UsageOutput{
		Body: UsageResponse{
			ID:        usage.ID,
			Tags:      usage.Tags,
			Timestamp: usage.Timestamp,
		},
	}, nil
}
