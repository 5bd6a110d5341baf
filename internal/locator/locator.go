package locator

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"lunch-menu/internal/config"
)

var ErrImageNotFound = errors.New("menu image not found")

const (
	// minImageWidth filters out avatars and profile thumbnails.
	minImageWidth = 300

	croppedSize = "size=678x452"
	fullSize    = "size=750x452"
)

// imageHosts are the asset hosts that serve listing photos.
var imageHosts = []string{"pstatic.net", "phinf.naver.net"}

// Locator finds the URL of the current week's menu photo.
type Locator interface {
	Locate(ctx context.Context) (string, error)
}

// New returns the locator selected by LOCATOR.
func New(cfg *config.Config) Locator {
	if cfg.Locator == config.LocatorStatic {
		return NewStaticLocator(cfg.TargetURL)
	}
	return NewChromeLocator(cfg.TargetURL, cfg.LocatorTimeout, cfg.LocatorSettle)
}

// OptimizeImageURL asks the image host for the uncropped rendition. URLs
// without the cropped size parameter are returned unchanged.
func OptimizeImageURL(u string) string {
	return strings.Replace(u, croppedSize, fullSize, 1)
}

func matchesImageHost(src string) bool {
	for _, host := range imageHosts {
		if strings.Contains(src, host) {
			return true
		}
	}
	return false
}

func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
