package domain

import "time"

// RuleType discriminates constraint rules.
type RuleType string

// Constraint rule types.
const (
	RuleMaxPerSearch  RuleType = "max_per_search"
	RuleMinPerSearch  RuleType = "min_per_search"
	RuleRequiredWith  RuleType = "required_with"
	RuleExclusiveWith RuleType = "exclusive_with"
	RuleMaxTotal      RuleType = "max_total"
)

// Valid reports whether t is a known rule type.
func (t RuleType) Valid() bool {
	switch t {
	case RuleMaxPerSearch, RuleMinPerSearch, RuleRequiredWith, RuleExclusiveWith, RuleMaxTotal:
		return true
	}
	return false
}

// ConstraintRule limits which tag combinations are acceptable in a single
// tag set. Rules are evaluated independently; violations are collected, never
// short-circuited, and the caller decides whether they block or advise.
//
// Semantics per type:
//   - max_per_search / min_per_search: cardinality bound on the intersection
//     of the candidate set with Tags.
//   - required_with: if the set contains Tags[0] it must contain all of Tags[1:].
//   - exclusive_with: at most one of Tags may appear.
//   - max_total: historical use count of each listed tag, plus the candidate
//     use, must not exceed Value.
type ConstraintRule struct {
	ID        string    `json:"id"`
	Type      RuleType  `json:"type" validate:"required"`
	Tags      []string  `json:"tags" validate:"required,min=1"`
	Value     int       `json:"value,omitempty" validate:"gte=0"`
	Message   string    `json:"message,omitempty"` // Optional human override for the violation text
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
