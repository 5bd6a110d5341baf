package ghost

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lunch-menu/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"

	acceptVersion = "v5.0"
	tokenAudience = "/admin/"
)

// Post is a post as returned by the Ghost Admin API.
type Post struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Slug   string `json:"slug,omitempty"`
	HTML   string `json:"html,omitempty"`
	Status string `json:"status,omitempty"`
	URL    string `json:"url,omitempty"`
}

// NewPost is the content of a post to create.
type NewPost struct {
	Title  string
	HTML   string
	Status string
	Tags   []string
}

type postsResponse struct {
	Posts []Post `json:"posts"`
}

// Client publishes weekly menus to a Ghost blog.
type Client interface {
	CreatePost(ctx context.Context, p NewPost) (*Post, error)
}

// ghostClient is the concrete implementation of the Ghost API client.
type ghostClient struct {
	httpClient *http.Client
	baseURL    string
	adminKey   string
}

// NewClient creates a new Ghost Admin API client.
func NewClient(cfg *config.Config) Client {
	return &ghostClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    cfg.GhostURL,
		adminKey:   cfg.GhostAdminKey,
	}
}

// CreatePost creates a new post from HTML using the Ghost Admin API.
func (c *ghostClient) CreatePost(ctx context.Context, p NewPost) (*Post, error) {
	token, err := c.createAdminToken(time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to create admin token: %w", err)
	}

	status := p.Status
	if status == "" {
		status = StatusDraft
	}

	post := map[string]any{
		"title":  p.Title,
		"html":   p.HTML,
		"status": status,
	}
	if len(p.Tags) > 0 {
		tags := make([]map[string]string, 0, len(p.Tags))
		for _, t := range p.Tags {
			tags = append(tags, map[string]string{"name": t})
		}
		post["tags"] = tags
	}

	body, err := json.Marshal(map[string]any{"posts": []any{post}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode post: %w", err)
	}

	url := fmt.Sprintf("%s/ghost/api/admin/posts/?source=html", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Ghost "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Version", acceptVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("admin api error: status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var response postsResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(response.Posts) == 0 {
		return nil, fmt.Errorf("no post returned from api")
	}

	return &response.Posts[0], nil
}

// createAdminToken generates a short-lived JWT for the Admin API. The admin
// key has the form "<id>:<hex secret>".
func (c *ghostClient) createAdminToken(now time.Time) (string, error) {
	id, secretHex, ok := strings.Cut(c.adminKey, ":")
	if !ok || id == "" || secretHex == "" {
		return "", fmt.Errorf("invalid admin key format: expected id:secret")
	}

	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return "", fmt.Errorf("failed to decode secret hex: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
		Audience:  jwt.ClaimStrings{tokenAudience},
	})
	token.Header["kid"] = id

	return token.SignedString(secret)
}
