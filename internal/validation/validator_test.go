package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainerrors "github.com/tagwardenapp/tagwarden-server/internal/errors"
	"github.com/tagwardenapp/tagwarden-server/internal/validation"
)

type grantRequest struct {
	Tag       string `json:"tag" validate:"required,min=1,max=100"`
	UserID    string `json:"userId" validate:"required"`
	UserEmail string `json:"userEmail" validate:"omitempty,email"`
	Role      string `json:"role" validate:"required,oneof=admin editor viewer"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	req := grantRequest{
		Tag:       "science-fiction",
		UserID:    "alice",
		UserEmail: "alice@example.com",
		Role:      "editor",
	}

	assert.NoError(t, v.Validate(req))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       grantRequest
		wantField string
	}{
		{
			name:      "missing tag",
			req:       grantRequest{UserID: "alice", Role: "viewer"},
			wantField: "tag",
		},
		{
			name:      "missing user",
			req:       grantRequest{Tag: "fiction", Role: "viewer"},
			wantField: "userId",
		},
		{
			name: "invalid email",
			req: grantRequest{
				Tag:       "fiction",
				UserID:    "alice",
				UserEmail: "not-an-email",
				Role:      "viewer",
			},
			wantField: "userEmail",
		},
		{
			name: "unknown role",
			req: grantRequest{
				Tag:    "fiction",
				UserID: "alice",
				Role:   "owner",
			},
			wantField: "role",
		},
		{
			name: "tag too long",
			req: grantRequest{
				Tag:    string(make([]byte, 101)),
				UserID: "alice",
				Role:   "viewer",
			},
			wantField: "tag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.True(t, domainerrors.As(err, &domainErr))
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())

			fields, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(grantRequest{UserID: "alice", Role: "viewer"})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.True(t, domainerrors.As(err, &domainErr))

	// Field errors are keyed by JSON tag name, not Go field name.
	fields, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, fields, "tag")
	assert.NotContains(t, fields, "Tag")
}
