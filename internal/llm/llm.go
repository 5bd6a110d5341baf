package llm

import (
	"context"
	"errors"
	"fmt"

	"lunch-menu/internal/shared"
)

var ErrNoContent = errors.New("no content generated")

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// VisionGenerator answers a text instruction about a single image.
type VisionGenerator interface {
	GenerateFromImage(ctx context.Context, prompt string, image []byte, mimeType string) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// VisionClient is a VisionGenerator that owns resources.
type VisionClient interface {
	VisionGenerator
	Closer
}

// StatusError is returned when the model endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gemini api error: status=%d body=%s", e.StatusCode, e.Body)
}
