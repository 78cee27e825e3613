package ai

import (
	"context"
	"errors"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyResponse is returned when a backend answers with no text.
var ErrEmptyResponse = errors.New("empty model response")

// Turn is one entry of the conversation handed to a model.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator produces a reply to prompt given the preceding conversation.
type Generator interface {
	Generate(ctx context.Context, prompt string, history []Turn) (string, error)
}
