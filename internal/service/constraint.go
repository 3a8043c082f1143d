package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/tagwardenapp/tagwarden-server/internal/constraint"
	"github.com/tagwardenapp/tagwarden-server/internal/domain"
	"github.com/tagwardenapp/tagwarden-server/internal/errors"
	"github.com/tagwardenapp/tagwarden-server/internal/id"
	"github.com/tagwardenapp/tagwarden-server/internal/rules"
	"github.com/tagwardenapp/tagwarden-server/internal/store"
	"github.com/tagwardenapp/tagwarden-server/internal/validation"
)

// ConstraintService evaluates tag sets against the combined rule set:
// API-managed rules from the store plus file-defined rules from the hot
// reloading loader. The caller decides whether violations block.
type ConstraintService struct {
	store     *store.Store
	loader    *rules.Loader
	logger    *slog.Logger
	validator *validation.Validator
}

// NewConstraintService creates a new constraint service. loader may be nil
// when no rules file is configured.
func NewConstraintService(st *store.Store, loader *rules.Loader, logger *slog.Logger) *ConstraintService {
	return &ConstraintService{
		store:     st,
		loader:    loader,
		logger:    logger,
		validator: validation.New(),
	}
}

// Rules returns the combined rule set: stored rules first, file rules after.
func (s *ConstraintService) Rules(ctx context.Context) ([]domain.ConstraintRule, error) {
	var out []domain.ConstraintRule
	for r, err := range s.store.Rules.List(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	if s.loader != nil {
		out = append(out, s.loader.Rules()...)
	}
	return out, nil
}

// Validate evaluates a candidate tag set against every rule. All violations
// are collected; none short-circuit.
func (s *ConstraintService) Validate(ctx context.Context, tagSet []string) (*constraint.Result, error) {
	ruleSet, err := s.Rules(ctx)
	if err != nil {
		return nil, err
	}

	usageCounts, err := s.usageCounts(ctx, ruleSet)
	if err != nil {
		return nil, err
	}

	result := constraint.Validate(tagSet, ruleSet, usageCounts)
	return &result, nil
}

// CreateRule stores a new API-managed rule and records a limit change on each
// tag the rule names.
func (s *ConstraintService) CreateRule(ctx context.Context, r *domain.ConstraintRule, versions *VersionService, actorID string) (*domain.ConstraintRule, error) {
	if err := s.validator.Validate(r); err != nil {
		return nil, err
	}
	if !r.Type.Valid() {
		return nil, errors.Validationf("unknown rule type %q", r.Type)
	}

	now := time.Now()
	r.ID = id.MustGenerate("rule")
	r.CreatedAt = now
	r.UpdatedAt = now

	if err := s.store.Rules.Create(ctx, r.ID, r); err != nil {
		return nil, errTranslate(err)
	}

	for _, tag := range r.Tags {
		change := domain.TagChange{
			Type:        domain.ChangeLimit,
			Description: "constraint " + string(r.Type) + " attached",
			Timestamp:   now,
			Author:      actorID,
			Limit:       &domain.LimitDetails{RuleType: string(r.Type), Value: r.Value},
		}
		if _, err := versions.Record(ctx, tag, change); err != nil {
			return nil, err
		}
	}

	s.logger.Info("constraint rule created", "rule", r.ID, "type", r.Type, "actor", actorID)
	return r, nil
}

// DeleteRule removes an API-managed rule. File-defined rules cannot be
// deleted through the API; edit the rules file instead.
func (s *ConstraintService) DeleteRule(ctx context.Context, ruleID string) error {
	return s.store.Rules.Delete(ctx, ruleID)
}

// usageCounts collects the historical use counts for tags referenced by
// max_total rules. Only those tags need counting.
func (s *ConstraintService) usageCounts(ctx context.Context, ruleSet []domain.ConstraintRule) (map[string]int, error) {
	needed := make(map[string]bool)
	for _, r := range ruleSet {
		if r.Type != domain.RuleMaxTotal {
			continue
		}
		for _, tag := range r.Tags {
			needed[tag] = true
		}
	}
	if len(needed) == 0 {
		return nil, nil
	}

	counts := make(map[string]int, len(needed))
	for tag := range needed {
		t, err := s.store.GetTag(ctx, tag)
		if errors.Is(errTranslate(err), errors.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		counts[tag] = t.UseCount
	}
	return counts, nil
}
