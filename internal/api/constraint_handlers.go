package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tagwardenapp/tagwarden-server/internal/constraint"
	"github.com/tagwardenapp/tagwarden-server/internal/domain"
)

func (s *Server) registerConstraintRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRules",
		Method:      http.MethodGet,
		Path:        "/api/v1/rules",
		Summary:     "List constraint rules",
		Description: "Returns every configured constraint rule, file-loaded and user-created",
		Tags:        []string{"Constraints"},
	}, s.handleListRules)

	huma.Register(s.api, huma.Operation{
		OperationID: "createRule",
		Method:      http.MethodPost,
		Path:        "/api/v1/rules",
		Summary:     "Create constraint rule",
		Description: "Creates a constraint rule and records a limit change on each named tag",
		Tags:        []string{"Constraints"},
	}, s.handleCreateRule)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteRule",
		Method:      http.MethodDelete,
		Path:        "/api/v1/rules/{id}",
		Summary:     "Delete constraint rule",
		Description: "Deletes a user-created constraint rule",
		Tags:        []string{"Constraints"},
	}, s.handleDeleteRule)

	huma.Register(s.api, huma.Operation{
		OperationID: "validateTagSet",
		Method:      http.MethodPost,
		Path:        "/api/v1/rules/validate",
		Summary:     "Validate tag set",
		Description: "Evaluates a candidate tag set against every rule and returns all violations",
		Tags:        []string{"Constraints"},
	}, s.handleValidateTagSet)
}

// === DTOs ===

// RuleListResponse contains all constraint rules.
type RuleListResponse struct {
	Rules []domain.ConstraintRule `json:"rules" doc:"All constraint rules"`
}

// RuleListOutput wraps the rule list for Huma.
type RuleListOutput struct {
	Body RuleListResponse
}

// CreateRuleRequest is the request body for creating a rule.
type CreateRuleRequest struct {
	Type    string   `json:"type" validate:"required,oneof=max_per_search min_per_search required_with exclusive_with max_total" doc:"Rule type"`
	Tags    []string `json:"tags" validate:"required,min=1" doc:"Tags the rule covers"`
	Value   int      `json:"value,omitempty" validate:"omitempty,min=1" doc:"Numeric limit for counting rules"`
	Message string   `json:"message,omitempty" doc:"Override for the violation text"`
}

// CreateRuleInput wraps the create rule request for Huma.
type CreateRuleInput struct {
	ActorID string `header:"X-Actor-ID" doc:"User creating the rule"`
	Body    CreateRuleRequest
}

// RuleOutput wraps one rule for Huma.
type RuleOutput struct {
	Body domain.ConstraintRule
}

// DeleteRuleInput contains parameters for deleting a rule.
type DeleteRuleInput struct {
	ActorID string `header:"X-Actor-ID" doc:"User performing the delete"`
	ID      string `path:"id" doc:"Rule ID"`
}

// ValidateTagSetRequest is the request body for validating a tag set.
type ValidateTagSetRequest struct {
	Tags []string `json:"tags" validate:"required,min=1" doc:"Candidate tag set"`
}

// ValidateTagSetInput wraps the validate request for Huma.
type ValidateTagSetInput struct {
	Body ValidateTagSetRequest
}

// ValidateTagSetOutput wraps the validation result for Huma.
type ValidateTagSetOutput struct {
	Body constraint.Result
}

// === Handlers ===

func (s *Server) handleListRules(ctx context.Context, _ *struct{}) (*RuleListOutput, error) {
	rules, err := s.services.Constraint.Rules(ctx)
	if err != nil {
		return nil, err
	}

	return &RuleListOutput{Body: RuleListResponse{Rules: rules}}, nil
}

func (s *Server) handleCreateRule(ctx context.Context, input *CreateRuleInput) (*RuleOutput, error) {
	actorID, err := requireActor(input.ActorID)
	if err != nil {
		return nil, err
	}

	rule := &domain.ConstraintRule{
		Type:    domain.RuleType(input.Body.Type),
		Tags:    input.Body.Tags,
		Value:   input.Body.Value,
		Message: input.Body.Message,
	}
	created, err := s.services.Constraint.CreateRule(ctx, rule, s.services.Version, actorID)
	if err != nil {
		return nil, err
	}

	return &RuleOutput{Body: *created}, nil
}

func (s *Server) handleDeleteRule(ctx context.Context, input *DeleteRuleInput) (*MessageOutput, error) {
	if _, err := requireActor(input.ActorID); err != nil {
		return nil, err
	}

	if err := s.services.Constraint.DeleteRule(ctx, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Rule deleted"}}, nil
}

func (s *Server) handleValidateTagSet(ctx context.Context, input *ValidateTagSetInput) (*ValidateTagSetOutput, error) {
	result, err := s.services.Constraint.Validate(ctx, input.Body.Tags)
	if err != nil {
		return nil, err
	}

	return &ValidateTagSetOutput{Body: *result}, nil
}
