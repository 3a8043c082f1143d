package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
	"github.com/tagwardenapp/tagwarden-server/internal/version"
)

func (s *Server) registerVersionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "tagHistory",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{name}/versions",
		Summary:     "Tag version history",
		Description: "Returns every recorded version of a tag, oldest first",
		Tags:        []string{"Versions"},
	}, s.handleTagHistory)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTagVersion",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{name}/versions/{version}",
		Summary:     "Get tag version",
		Description: "Returns one version of a tag by number",
		Tags:        []string{"Versions"},
	}, s.handleGetTagVersion)

	huma.Register(s.api, huma.Operation{
		OperationID: "compareTagVersions",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{name}/diff",
		Summary:     "Compare tag versions",
		Description: "Diffs two versions of a tag by change identity",
		Tags:        []string{"Versions"},
	}, s.handleCompareTagVersions)

	huma.Register(s.api, huma.Operation{
		OperationID: "checkTagConflicts",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{name}/conflicts",
		Summary:     "Check version conflicts",
		Description: "Reports identity changes that would need manual resolution before merging",
		Tags:        []string{"Versions"},
	}, s.handleCheckTagConflicts)

	huma.Register(s.api, huma.Operation{
		OperationID: "mergeTagVersions",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags/{name}/versions/merge",
		Summary:     "Merge tag versions",
		Description: "Unions two versions' change sets into a new version; conflicts require explicit resolutions",
		Tags:        []string{"Versions"},
	}, s.handleMergeTagVersions)

	huma.Register(s.api, huma.Operation{
		OperationID: "revertTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags/{name}/revert",
		Summary:     "Revert tag",
		Description: "Appends a revert version pointing at an earlier one; history is never truncated",
		Tags:        []string{"Versions"},
	}, s.handleRevertTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "validateVersionHistory",
		Method:      http.MethodGet,
		Path:        "/api/v1/versions/validate",
		Summary:     "Validate version history",
		Description: "Reports duplicate and gapped version numbers across all tags",
		Tags:        []string{"Versions"},
	}, s.handleValidateVersionHistory)
}

// === DTOs ===

// TagHistoryInput contains parameters for reading version history.
type TagHistoryInput struct {
	Name string `path:"name" doc:"Tag name"`
}

// TagHistoryResponse contains a tag's full version history.
type TagHistoryResponse struct {
	Versions []domain.TagVersion `json:"versions" doc:"Every version, oldest first"`
}

// TagHistoryOutput wraps the history response for Huma.
type TagHistoryOutput struct {
	Body TagHistoryResponse
}

// GetTagVersionInput contains parameters for reading one version.
type GetTagVersionInput struct {
	Name    string `path:"name" doc:"Tag name"`
	Version int    `path:"version" doc:"Version number"`
}

// TagVersionOutput wraps a single version for Huma.
type TagVersionOutput struct {
	Body domain.TagVersion
}

// CompareVersionsInput contains parameters for diffing two versions.
type CompareVersionsInput struct {
	Name string `path:"name" doc:"Tag name"`
	From int    `query:"from" required:"true" doc:"Base version number"`
	To   int    `query:"to" required:"true" doc:"Target version number"`
}

// DiffOutput wraps a version diff for Huma.
type DiffOutput struct {
	Body version.Diff
}

// ConflictReportOutput wraps a conflict report for Huma.
type ConflictReportOutput struct {
	Body version.ConflictReport
}

// MergeVersionsRequest is the request body for merging versions.
type MergeVersionsRequest struct {
	Ours        int               `json:"ours" validate:"required,min=1" doc:"First version number"`
	Theirs      int               `json:"theirs" validate:"required,min=1" doc:"Second version number"`
	Resolutions map[string]string `json:"resolutions,omitempty" doc:"Conflict resolutions keyed by change type: ours or theirs"`
}

// MergeVersionsInput wraps the merge versions request for Huma.
type MergeVersionsInput struct {
	ActorID string `header:"X-Actor-ID" doc:"User performing the merge"`
	Name    string `path:"name" doc:"Tag name"`
	Body    MergeVersionsRequest
}

// RevertTagRequest is the request body for reverting a tag.
type RevertTagRequest struct {
	ToVersion int `json:"to_version" validate:"required,min=1" doc:"Version to revert to"`
}

// RevertTagInput wraps the revert request for Huma.
type RevertTagInput struct {
	ActorID string `header:"X-Actor-ID" doc:"User performing the revert"`
	Name    string `path:"name" doc:"Tag name"`
	Body    RevertTagRequest
}

// HistoryValidationResponse contains version-set integrity problems.
type HistoryValidationResponse struct {
	Valid      bool                `json:"valid" doc:"Whether all version histories are intact"`
	Violations []version.Violation `json:"violations,omitempty" doc:"Duplicates and gaps found"`
}

// HistoryValidationOutput wraps the validation response for Huma.
type HistoryValidationOutput struct {
	Body HistoryValidationResponse
}

// === Handlers ===

func (s *Server) handleTagHistory(ctx context.Context, input *TagHistoryInput) (*TagHistoryOutput, error) {
	versions, err := s.services.Version.History(ctx, input.Name)
	if err != nil {
		return nil, err
	}

	return &TagHistoryOutput{Body: TagHistoryResponse{Versions: versions}}, nil
}

func (s *Server) handleGetTagVersion(ctx context.Context, input *GetTagVersionInput) (*TagVersionOutput, error) {
	v, err := s.services.Version.Get(ctx, input.Name, input.Version)
	if err != nil {
		return nil, err
	}

	return &TagVersionOutput{Body: *v}, nil
}

func (s *Server) handleCompareTagVersions(ctx context.Context, input *CompareVersionsInput) (*DiffOutput, error) {
	diff, err := s.services.Version.Compare(ctx, input.Name, input.From, input.To)
	if err != nil {
		return nil, err
	}

	return &DiffOutput{Body: *diff}, nil
}

func (s *Server) handleCheckTagConflicts(ctx context.Context, input *CompareVersionsInput) (*ConflictReportOutput, error) {
	report, err := s.services.Version.CheckConflicts(ctx, input.Name, input.From, input.To)
	if err != nil {
		return nil, err
	}

	return &ConflictReportOutput{Body: *report}, nil
}

func (s *Server) handleMergeTagVersions(ctx context.Context, input *MergeVersionsInput) (*TagVersionOutput, error) {
	actorID, err := requireActor(input.ActorID)
	if err != nil {
		return nil, err
	}

	var resolutions map[domain.ChangeType]version.Side
	if len(input.Body.Resolutions) > 0 {
		resolutions = make(map[domain.ChangeType]version.Side, len(input.Body.Resolutions))
		for changeType, side := range input.Body.Resolutions {
			resolutions[domain.ChangeType(changeType)] = version.Side(side)
		}
	}

	merged, err := s.services.Version.Merge(ctx, input.Name, input.Body.Ours, input.Body.Theirs, resolutions, actorID)
	if err != nil {
		return nil, err
	}

	return &TagVersionOutput{Body: *merged}, nil
}

func (s *Server) handleRevertTag(ctx context.Context, input *RevertTagInput) (*TagVersionOutput, error) {
	actorID, err := requireActor(input.ActorID)
	if err != nil {
		return nil, err
	}

	v, err := s.services.Version.Revert(ctx, input.Name, input.Body.ToVersion, actorID)
	if err != nil {
		return nil, err
	}

	return &TagVersionOutput{Body: *v}, nil
}

func (s *Server) handleValidateVersionHistory(ctx context.Context, _ *struct{}) (*HistoryValidationOutput, error) {
	violations, err := s.services.Version.ValidateHistory(ctx)
	if err != nil {
		return nil, err
	}

	return &HistoryValidationOutput{
		Body: HistoryValidationResponse{
			Valid:      len(violations) == 0,
			Violations: violations,
		},
	}, nil
}
