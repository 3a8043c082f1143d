// Package constraint evaluates candidate tag sets against governance rules.
// Every rule is checked independently and all violations are collected; the
// caller decides whether violations block the write or are advisory.
package constraint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
)

// Violation is one failed rule with the tags that triggered it.
type Violation struct {
	RuleType domain.RuleType `json:"rule_type"`
	Message  string          `json:"message"`
	Tags     []string        `json:"tags"`
}

// Result is the outcome of validating one tag set.
type Result struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations"`
}

// Validate evaluates tagSet against every rule and returns all violations —
// N violated rules produce exactly N violations, never a short-circuited 1.
// usageCounts carries historical per-tag usage for max_total rules; the
// candidate use itself is added on top.
func Validate(tagSet []string, rules []domain.ConstraintRule, usageCounts map[string]int) Result {
	present := make(map[string]bool, len(tagSet))
	for _, t := range tagSet {
		present[t] = true
	}

	var violations []Violation
	for _, rule := range rules {
		if v := check(rule, tagSet, present, usageCounts); v != nil {
			violations = append(violations, *v)
		}
	}
	return Result{Valid: len(violations) == 0, Violations: violations}
}

func check(rule domain.ConstraintRule, tagSet []string, present map[string]bool, usageCounts map[string]int) *Violation {
	switch rule.Type {
	case domain.RuleMaxPerSearch:
		matched := intersect(rule.Tags, present)
		if len(matched) > rule.Value {
			return violation(rule, matched,
				fmt.Sprintf("at most %d of [%s] allowed, found %d", rule.Value, strings.Join(rule.Tags, ", "), len(matched)))
		}

	case domain.RuleMinPerSearch:
		matched := intersect(rule.Tags, present)
		if len(matched) < rule.Value {
			return violation(rule, matched,
				fmt.Sprintf("at least %d of [%s] required, found %d", rule.Value, strings.Join(rule.Tags, ", "), len(matched)))
		}

	case domain.RuleRequiredWith:
		if len(rule.Tags) == 0 || !present[rule.Tags[0]] {
			return nil
		}
		var missing []string
		for _, required := range rule.Tags[1:] {
			if !present[required] {
				missing = append(missing, required)
			}
		}
		if len(missing) > 0 {
			return violation(rule, missing,
				fmt.Sprintf("%q requires %s", rule.Tags[0], strings.Join(missing, ", ")))
		}

	case domain.RuleExclusiveWith:
		matched := intersect(rule.Tags, present)
		if len(matched) > 1 {
			return violation(rule, matched,
				fmt.Sprintf("tags %s are mutually exclusive", strings.Join(matched, ", ")))
		}

	case domain.RuleMaxTotal:
		var exceeded []string
		for _, tag := range rule.Tags {
			if !present[tag] {
				continue
			}
			if usageCounts[tag]+1 > rule.Value {
				exceeded = append(exceeded, tag)
			}
		}
		if len(exceeded) > 0 {
			return violation(rule, exceeded,
				fmt.Sprintf("usage cap of %d exceeded for %s", rule.Value, strings.Join(exceeded, ", ")))
		}
	}
	return nil
}

func violation(rule domain.ConstraintRule, tags []string, msg string) *Violation {
	if rule.Message != "" {
		msg = rule.Message
	}
	sorted := append([]string{}, tags...)
	sort.Strings(sorted)
	return &Violation{RuleType: rule.Type, Message: msg, Tags: sorted}
}

// intersect returns rule tags that appear in the candidate set, in rule order.
func intersect(ruleTags []string, present map[string]bool) []string {
	var out []string
	for _, t := range ruleTags {
		if present[t] {
			out = append(out, t)
		}
	}
	return out
}
