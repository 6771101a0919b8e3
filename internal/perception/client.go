// Package perception holds the LLM provider adapters. Every backend family
// is reduced to one call signature so the router and kernel never see
// provider SDK or HTTP plumbing.
package perception

import (
	"context"
	"fmt"
)

// LLMClient is the uniform surface every backend implements.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// VisionClient describes an image-capable backend used by the LOOK action.
type VisionClient interface {
	DescribeImage(ctx context.Context, prompt, base64PNG string) (string, error)
}

// APIError is a transport-level provider failure carrying the HTTP status
// and raw response body. It is always surfaced as a typed error at the
// adapter boundary, never a panic.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.Status, e.Body)
}
