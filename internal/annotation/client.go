package annotation

import (
	"context"
	"fmt"
)

// Provider submits a video for annotation and blocks until the provider's
// long-running operation completes or ctx is done.
type Provider interface {
	Annotate(ctx context.Context, req AnnotateRequest) (*AnnotationResult, error)
}

// ProviderError represents an error response from the annotation provider.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("annotation request failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx) and network errors.
// Client errors (4xx) are considered permanent.
func (e *ProviderError) IsRetryable() bool {
	return e.StatusCode >= 500
}
