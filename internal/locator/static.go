package locator

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// StaticLocator scans the server-rendered HTML of a listing page. It needs
// no browser but only sees images whose size is declared in the markup.
type StaticLocator struct {
	targetURL  string
	httpClient *http.Client
}

// NewStaticLocator creates a locator for pages that render server-side.
func NewStaticLocator(targetURL string) *StaticLocator {
	return &StaticLocator{
		targetURL:  targetURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Locate returns the first large listing photo found in the page.
func (l *StaticLocator) Locate(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.targetURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; lunch-menu/1.0)")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch listing page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch listing page: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse listing page: %w", err)
	}

	var found string
	doc.Find("img").EachWithBreak(func(i int, s *goquery.Selection) bool {
		src := imageSource(s)
		if src == "" || !matchesImageHost(src) || declaredWidth(s) <= minImageWidth {
			return true
		}
		found = resolveURL(l.targetURL, src)
		return false
	})

	if found == "" {
		return "", ErrImageNotFound
	}
	return OptimizeImageURL(found), nil
}

// imageSource prefers the lazy-load attribute, which holds the real photo
// while src is still a placeholder.
func imageSource(s *goquery.Selection) string {
	for _, attr := range []string{"data-src", "src"} {
		if v := strings.TrimSpace(s.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	return ""
}

func declaredWidth(s *goquery.Selection) int {
	for _, attr := range []string{"width", "data-width"} {
		v := strings.TrimSuffix(strings.TrimSpace(s.AttrOr(attr, "")), "px")
		if w, err := strconv.Atoi(v); err == nil {
			return w
		}
	}
	return 0
}
