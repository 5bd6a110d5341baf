package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"lunch-menu/internal/config"
	"lunch-menu/internal/shared"
)

// geminiRESTClient calls generateContent over plain HTTPS with the image
// inlined as base64.
type geminiRESTClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

type restPart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *restInlineData `json:"inline_data,omitempty"`
}

type restInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type restContent struct {
	Parts []restPart `json:"parts"`
}

type restRequest struct {
	Contents []restContent `json:"contents"`
}

type restResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// NewGeminiRESTClient creates a Gemini client that talks to the REST endpoint.
func NewGeminiRESTClient(cfg *config.Config) VisionClient {
	return &geminiRESTClient{
		apiKey:  cfg.GeminiAPIKey,
		baseURL: cfg.GeminiBaseURL,
		model:   cfg.GeminiModel,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// GenerateFromImage sends the prompt and the image and returns the text of the
// first part of the first candidate verbatim.
func (c *geminiRESTClient) GenerateFromImage(ctx context.Context, prompt string, image []byte, mimeType string) (ContentResponse, error) {
	reqBody := restRequest{
		Contents: []restContent{{
			Parts: []restPart{
				{Text: prompt},
				{InlineData: &restInlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return ContentResponse{}, &StatusError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var out restResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ContentResponse{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return ContentResponse{}, ErrNoContent
	}

	return ContentResponse{
		Content: out.Candidates[0].Content.Parts[0].Text,
		Usage: shared.TokenUsage{
			PromptTokens:     out.UsageMetadata.PromptTokenCount,
			CompletionTokens: out.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      out.UsageMetadata.TotalTokenCount,
			Model:            c.model,
		},
	}, nil
}

func (c *geminiRESTClient) Close() error {
	return nil
}
