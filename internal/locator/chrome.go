package locator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const entryFrameSelector = "#entryIframe"

// navigationMargin covers browser start-up and the two page loads on top of
// the frame wait and the settle time.
const navigationMargin = 30 * time.Second

// findImageScript returns the src of the first large listing photo, or an
// empty string.
var findImageScript = fmt.Sprintf(`(() => {
	const hosts = %s;
	for (const img of document.querySelectorAll('img')) {
		const src = img.src || '';
		if (img.width > %d && hosts.some(h => src.includes(h))) {
			return src;
		}
	}
	return '';
})()`, imageHostsJS(), minImageWidth)

// ChromeLocator renders the listing page in headless Chrome.
type ChromeLocator struct {
	targetURL string
	timeout   time.Duration
	settle    time.Duration
	opts      []chromedp.ExecAllocatorOption
}

// NewChromeLocator creates a locator that waits at most timeout for the entry
// frame and then gives lazy images settle to load.
func NewChromeLocator(targetURL string, timeout, settle time.Duration) *ChromeLocator {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(1280, 1024),
		chromedp.Flag("lang", "ko-KR"),
	)
	return &ChromeLocator{
		targetURL: targetURL,
		timeout:   timeout,
		settle:    settle,
		opts:      opts,
	}
}

// Locate drives the browser through the listing and returns the optimized
// photo URL.
func (l *ChromeLocator) Locate(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.budget())
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, l.opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx, chromedp.Navigate(l.targetURL)); err != nil {
		return "", fmt.Errorf("failed to open listing page: %w", err)
	}

	var frameSrc string
	var ok bool
	waitCtx, cancelWait := context.WithTimeout(browserCtx, l.timeout)
	err := chromedp.Run(waitCtx,
		chromedp.WaitReady(entryFrameSelector, chromedp.ByQuery),
		chromedp.AttributeValue(entryFrameSelector, "src", &frameSrc, &ok, chromedp.ByQuery),
	)
	cancelWait()
	if err != nil {
		return "", fmt.Errorf("%w: entry frame did not appear: %v", ErrImageNotFound, err)
	}
	if !ok || frameSrc == "" {
		return "", fmt.Errorf("%w: entry frame has no src", ErrImageNotFound)
	}

	// The frame is cross-origin, so the tab itself moves into it.
	frameURL := resolveURL(l.targetURL, frameSrc)
	zap.L().Debug("entering listing frame", zap.String("url", frameURL))

	var src string
	err = chromedp.Run(browserCtx,
		chromedp.Navigate(frameURL),
		chromedp.Evaluate(`window.scrollBy(0, 600)`, nil),
		chromedp.Sleep(l.settle),
		chromedp.Evaluate(findImageScript, &src),
	)
	if err != nil {
		return "", fmt.Errorf("failed to scan listing frame: %w", err)
	}
	if src == "" {
		return "", ErrImageNotFound
	}

	return OptimizeImageURL(src), nil
}

// budget bounds a whole Locate call, including a page that never finishes
// loading.
func (l *ChromeLocator) budget() time.Duration {
	return l.timeout + l.settle + navigationMargin
}

func imageHostsJS() string {
	b, _ := json.Marshal(imageHosts)
	return string(b)
}
