package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tagwardenapp/tagwarden-server/internal/hierarchy"
)

func (s *Server) registerHierarchyRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listEdges",
		Method:      http.MethodGet,
		Path:        "/api/v1/hierarchy/edges",
		Summary:     "List hierarchy edges",
		Description: "Returns every parent-child edge in the taxonomy",
		Tags:        []string{"Hierarchy"},
	}, s.handleListEdges)

	huma.Register(s.api, huma.Operation{
		OperationID: "addEdge",
		Method:      http.MethodPost,
		Path:        "/api/v1/hierarchy/edges",
		Summary:     "Add hierarchy edge",
		Description: "Links a child tag under a parent tag; cycles are rejected",
		Tags:        []string{"Hierarchy"},
	}, s.handleAddEdge)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeEdge",
		Method:      http.MethodDelete,
		Path:        "/api/v1/hierarchy/edges",
		Summary:     "Remove hierarchy edge",
		Description: "Unlinks a child tag from a parent tag",
		Tags:        []string{"Hierarchy"},
	}, s.handleRemoveEdge)

	huma.Register(s.api, huma.Operation{
		OperationID: "tagAncestors",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{name}/ancestors",
		Summary:     "Tag ancestors",
		Description: "Returns every tag above this one in the hierarchy",
		Tags:        []string{"Hierarchy"},
	}, s.handleAncestors)

	huma.Register(s.api, huma.Operation{
		OperationID: "tagDescendants",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{name}/descendants",
		Summary:     "Tag descendants",
		Description: "Returns every tag below this one in the hierarchy",
		Tags:        []string{"Hierarchy"},
	}, s.handleDescendants)

	huma.Register(s.api, huma.Operation{
		OperationID: "tagPath",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{name}/path",
		Summary:     "Tag path",
		Description: "Returns the root-to-tag path, following the lexicographically first parent at each step",
		Tags:        []string{"Hierarchy"},
	}, s.handlePath)

	huma.Register(s.api, huma.Operation{
		OperationID: "validateHierarchy",
		Method:      http.MethodGet,
		Path:        "/api/v1/hierarchy/validate",
		Summary:     "Validate hierarchy",
		Description: "Reports cycles, orphans, and duplicate tag records",
		Tags:        []string{"Hierarchy"},
	}, s.handleValidateHierarchy)

	huma.Register(s.api, huma.Operation{
		OperationID: "suggestEdges",
		Method:      http.MethodGet,
		Path:        "/api/v1/hierarchy/suggestions",
		Summary:     "Suggest hierarchy edges",
		Description: "Derives candidate parent-child edges from tag naming patterns",
		Tags:        []string{"Hierarchy"},
	}, s.handleSuggestEdges)
}

// === DTOs ===

// EdgeResponse contains one hierarchy edge in API responses.
type EdgeResponse struct {
	Parent    string    `json:"parent" doc:"Parent tag name"`
	Child     string    `json:"child" doc:"Child tag name"`
	CreatedBy string    `json:"created_by,omitempty" doc:"User who created the edge"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
}

// ListEdgesResponse contains all hierarchy edges.
type ListEdgesResponse struct {
	Edges []EdgeResponse `json:"edges" doc:"All parent-child edges"`
}

// ListEdgesOutput wraps the edge list for Huma.
type ListEdgesOutput struct {
	Body ListEdgesResponse
}

// AddEdgeRequest is the request body for adding an edge.
type AddEdgeRequest struct {
	Parent string `json:"parent" validate:"required" doc:"Parent tag name"`
	Child  string `json:"child" validate:"required" doc:"Child tag name"`
}

// AddEdgeInput wraps the add edge request for Huma.
type AddEdgeInput struct {
	ActorID string `header:"X-Actor-ID" doc:"User performing the change"`
	Body    AddEdgeRequest
}

// EdgeOutput wraps a single edge for Huma.
type EdgeOutput struct {
	Body EdgeResponse
}

// RemoveEdgeInput contains parameters for removing an edge.
type RemoveEdgeInput struct {
	ActorID string `header:"X-Actor-ID" doc:"User performing the change"`
	Parent  string `query:"parent" required:"true" doc:"Parent tag name"`
	Child   string `query:"child" required:"true" doc:"Child tag name"`
}

// TagPathInput contains parameters for hierarchy traversal.
type TagPathInput struct {
	Name string `path:"name" doc:"Tag name"`
}

// TagListResponse contains an ordered list of tag names.
type TagListResponse struct {
	Tags []string `json:"tags" doc:"Tag names"`
}

// TagListOutput wraps a tag name list for Huma.
type TagListOutput struct {
	Body TagListResponse
}

// HierarchyValidationResponse contains structural problems in the hierarchy.
type HierarchyValidationResponse struct {
	Valid      bool                  `json:"valid" doc:"Whether the hierarchy is structurally sound"`
	Violations []hierarchy.Violation `json:"violations,omitempty" doc:"Cycles, orphans, and duplicates found"`
}

// HierarchyValidationOutput wraps the validation response for Huma.
type HierarchyValidationOutput struct {
	Body HierarchyValidationResponse
}

// EdgeSuggestionsResponse contains derived edge candidates.
type EdgeSuggestionsResponse struct {
	Suggestions []hierarchy.EdgeSuggestion `json:"suggestions" doc:"Candidate parent-child edges"`
}

// EdgeSuggestionsOutput wraps the suggestions response for Huma.
type EdgeSuggestionsOutput struct {
	Body EdgeSuggestionsResponse
}

// === Handlers ===

func (s *Server) handleListEdges(ctx context.Context, _ *struct{}) (*ListEdgesOutput, error) {
	g, err := s.services.Hierarchy.Graph(ctx)
	if err != nil {
		return nil, err
	}

	edges := g.Edges()
	resp := make([]EdgeResponse, len(edges))
	for i, e := range edges {
		resp[i] = EdgeResponse{
			Parent:    e.Parent,
			Child:     e.Child,
			CreatedBy: e.CreatedBy,
			CreatedAt: e.CreatedAt,
		}
	}

	return &ListEdgesOutput{Body: ListEdgesResponse{Edges: resp}}, nil
}

func (s *Server) handleAddEdge(ctx context.Context, input *AddEdgeInput) (*EdgeOutput, error) {
	actorID, err := requireActor(input.ActorID)
	if err != nil {
		return nil, err
	}

	edge, err := s.services.Hierarchy.AddEdge(ctx, input.Body.Parent, input.Body.Child, actorID)
	if err != nil {
		return nil, err
	}

	return &EdgeOutput{
		Body: EdgeResponse{
			Parent:    edge.Parent,
			Child:     edge.Child,
			CreatedBy: edge.CreatedBy,
			CreatedAt: edge.CreatedAt,
		},
	}, nil
}

func (s *Server) handleRemoveEdge(ctx context.Context, input *RemoveEdgeInput) (*MessageOutput, error) {
	actorID, err := requireActor(input.ActorID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Hierarchy.RemoveEdge(ctx, input.Parent, input.Child, actorID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Edge removed"}}, nil
}

func (s *Server) handleAncestors(ctx context.Context, input *TagPathInput) (*TagListOutput, error) {
	tags, err := s.services.Hierarchy.Ancestors(ctx, input.Name)
	if err != nil {
		return nil, err
	}

	return &TagListOutput{Body: TagListResponse{Tags: tags}}, nil
}

func (s *Server) handleDescendants(ctx context.Context, input *TagPathInput) (*TagListOutput, error) {
	tags, err := s.services.Hierarchy.Descendants(ctx, input.Name)
	if err != nil {
		return nil, err
	}

	return &TagListOutput{Body: TagListResponse{Tags: tags}}, nil
}

func (s *Server) handlePath(ctx context.Context, input *TagPathInput) (*TagListOutput, error) {
	tags, err := s.services.Hierarchy.Path(ctx, input.Name)
	if err != nil {
		return nil, err
	}

	return &TagListOutput{Body: TagListResponse{Tags: tags}}, nil
}

func (s *Server) handleValidateHierarchy(ctx context.Context, _ *struct{}) (*HierarchyValidationOutput, error) {
	violations, err := s.services.Hierarchy.Validate(ctx)
	if err != nil {
		return nil, err
	}

	return &HierarchyValidationOutput{
		Body: HierarchyValidationResponse{
			Valid:      len(violations) == 0,
			Violations: violations,
		},
	}, nil
}

func (s *Server) handleSuggestEdges(ctx context.Context, _ *struct{}) (*EdgeSuggestionsOutput, error) {
	suggestions, err := s.services.Hierarchy.SuggestEdges(ctx)
	if err != nil {
		return nil, err
	}

	return &EdgeSuggestionsOutput{Body: EdgeSuggestionsResponse{Suggestions: suggestions}}, nil
}
