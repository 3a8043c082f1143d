package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagwardenapp/tagwarden-server/internal/domain"
)

func rule(rt domain.RuleType, value int, tags ...string) domain.ConstraintRule {
	return domain.ConstraintRule{ID: "rule-test", Type: rt, Tags: tags, Value: value}
}

func TestValidate_NoRules(t *testing.T) {
	result := Validate([]string{"genre:pop", "genre:rock", "mood:sad"}, nil, nil)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Violations)
}

func TestValidate_MaxPerSearch(t *testing.T) {
	// Rule caps the two genre tags at 1; the selection carries both.
	result := Validate(
		[]string{"genre:pop", "genre:rock", "mood:sad"},
		[]domain.ConstraintRule{rule(domain.RuleMaxPerSearch, 1, "genre:pop", "genre:rock")},
		nil,
	)

	require.Len(t, result.Violations, 1)
	assert.False(t, result.Valid)
	assert.Equal(t, domain.RuleMaxPerSearch, result.Violations[0].RuleType)
	assert.ElementsMatch(t, []string{"genre:pop", "genre:rock"}, result.Violations[0].Tags)
}

func TestValidate_MinPerSearch(t *testing.T) {
	result := Validate(
		[]string{"mood:sad"},
		[]domain.ConstraintRule{rule(domain.RuleMinPerSearch, 1, "genre:pop", "genre:rock")},
		nil,
	)
	require.Len(t, result.Violations, 1)

	result = Validate(
		[]string{"genre:pop"},
		[]domain.ConstraintRule{rule(domain.RuleMinPerSearch, 1, "genre:pop", "genre:rock")},
		nil,
	)
	assert.True(t, result.Valid)
}

func TestValidate_RequiredWith(t *testing.T) {
	rules := []domain.ConstraintRule{rule(domain.RuleRequiredWith, 0, "explicit", "age-restricted", "flagged")}

	result := Validate([]string{"explicit"}, rules, nil)
	require.Len(t, result.Violations, 1)
	assert.ElementsMatch(t, []string{"age-restricted", "flagged"}, result.Violations[0].Tags)

	// Trigger tag absent: rule does not apply.
	result = Validate([]string{"age-restricted"}, rules, nil)
	assert.True(t, result.Valid)

	result = Validate([]string{"explicit", "age-restricted", "flagged"}, rules, nil)
	assert.True(t, result.Valid)
}

func TestValidate_ExclusiveWith(t *testing.T) {
	rules := []domain.ConstraintRule{rule(domain.RuleExclusiveWith, 0, "kids", "explicit")}

	result := Validate([]string{"kids", "explicit"}, rules, nil)
	require.Len(t, result.Violations, 1)

	result = Validate([]string{"kids"}, rules, nil)
	assert.True(t, result.Valid)
}

func TestValidate_MaxTotal(t *testing.T) {
	rules := []domain.ConstraintRule{rule(domain.RuleMaxTotal, 100, "trending")}

	result := Validate([]string{"trending"}, rules, map[string]int{"trending": 100})
	require.Len(t, result.Violations, 1)

	result = Validate([]string{"trending"}, rules, map[string]int{"trending": 99})
	assert.True(t, result.Valid)
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	// Three independently violated rules yield exactly three violations.
	rules := []domain.ConstraintRule{
		rule(domain.RuleMaxPerSearch, 1, "genre:pop", "genre:rock"),
		rule(domain.RuleExclusiveWith, 0, "genre:pop", "mood:sad"),
		rule(domain.RuleRequiredWith, 0, "genre:rock", "era:90s"),
	}

	result := Validate([]string{"genre:pop", "genre:rock", "mood:sad"}, rules, nil)
	assert.Len(t, result.Violations, 3)
}

func TestValidate_CustomMessageOverride(t *testing.T) {
	r := rule(domain.RuleExclusiveWith, 0, "kids", "explicit")
	r.Message = "kids content cannot be explicit"

	result := Validate([]string{"kids", "explicit"}, []domain.ConstraintRule{r}, nil)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, "kids content cannot be explicit", result.Violations[0].Message)
}
