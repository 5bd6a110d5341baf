package extractor

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"lunch-menu/internal/llm"
	"lunch-menu/internal/shared"
)

//go:embed extractor_prompt.md
var extractorPrompt string

const (
	agentName     = "MenuExtractor"
	maxImageBytes = 20 << 20
	defaultMime   = "image/jpeg"
)

// Prompt returns the fixed instruction sent with every menu image.
func Prompt() string {
	return extractorPrompt
}

// ExtractorResult is the raw model text for one menu image. Raw may still be
// wrapped in a markdown fence.
type ExtractorResult struct {
	Raw  string
	Meta shared.AgentMeta
}

// Extractor downloads a menu image and asks a vision model to transcribe it.
type Extractor struct {
	visionGen  llm.VisionGenerator
	httpClient *http.Client
}

// NewExtractor creates a new Extractor instance.
func NewExtractor(visionGen llm.VisionGenerator) *Extractor {
	return &Extractor{
		visionGen:  visionGen,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Extract fetches imageURL and returns the model's answer to the menu prompt.
func (e *Extractor) Extract(ctx context.Context, imageURL string) (ExtractorResult, error) {
	image, mimeType, err := e.fetchImage(ctx, imageURL)
	if err != nil {
		return ExtractorResult{}, fmt.Errorf("failed to download menu image: %w", err)
	}

	start := time.Now()
	resp, err := e.visionGen.GenerateFromImage(ctx, extractorPrompt, image, mimeType)
	if err != nil {
		return ExtractorResult{}, fmt.Errorf("failed to get LLM response: %w", err)
	}

	return ExtractorResult{
		Raw: resp.Content,
		Meta: shared.AgentMeta{
			AgentName: agentName,
			Usage:     resp.Usage,
			Latency:   time.Since(start),
		},
	}, nil
}

func (e *Extractor) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; lunch-menu/1.0)")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("bad status: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image body: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image body")
	}

	return data, detectMimeType(resp.Header.Get("Content-Type"), data), nil
}

// detectMimeType prefers the server's image content type, then sniffs the
// bytes, then falls back to JPEG.
func detectMimeType(header string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(header); err == nil && strings.HasPrefix(mt, "image/") {
		return mt
	}
	if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	return defaultMime
}
