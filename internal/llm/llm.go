package llm

import (
	"context"
	"errors"

	"family-meal-planner/internal/shared"
)

// ErrTimeout and ErrRateLimited let callers present different user-facing
// messages for the two retryable AI failure modes. Clients wrap them into the
// errors they return, so errors.Is works through the whole chain.
var (
	ErrTimeout     = errors.New("ai request timed out")
	ErrRateLimited = errors.New("ai request was rate limited")
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}
