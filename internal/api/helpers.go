package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// requireActor validates the X-Actor-ID header on mutating requests.
// There is no authentication layer; the header identifies who to record
// in version history and audit logs.
func requireActor(actorID string) (string, error) {
	if actorID == "" {
		return "", huma.Error401Unauthorized("Missing X-Actor-ID header")
	}
	return actorID, nil
}

// MessageResponse contains a simple confirmation message.
type MessageResponse struct {
	Message string `json:"message" doc:"Confirmation message"`
}

// MessageOutput wraps a message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}
