package api

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tagwardenapp/tagwarden-server/internal/constraint"
	"github.com/tagwardenapp/tagwarden-server/internal/hierarchy"
	"github.com/tagwardenapp/tagwarden-server/internal/version"
)

// Three engines expose a Violation type in response bodies. Registration
// refuses two types sharing one schema name, so the namer must keep them
// apart.
func TestSchemaNamerSeparatesViolationTypes(t *testing.T) {
	names := map[string]reflect.Type{}
	for _, typ := range []reflect.Type{
		reflect.TypeOf(hierarchy.Violation{}),
		reflect.TypeOf(version.Violation{}),
		reflect.TypeOf(constraint.Violation{}),
	} {
		name := schemaNamer(typ, "Violation")
		if existing, ok := names[name]; ok {
			t.Fatalf("schema name %q assigned to both %s and %s", name, existing, typ)
		}
		names[name] = typ
	}

	assert.Contains(t, names, "HierarchyViolation")
	assert.Contains(t, names, "VersionViolation")
	assert.Contains(t, names, "ConstraintViolation")
}

func TestSchemaNamerLeavesUniqueNamesAlone(t *testing.T) {
	assert.Equal(t, "TagResponse", schemaNamer(reflect.TypeOf(TagResponse{}), "TagResponse"))
}
