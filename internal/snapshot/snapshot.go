// Package snapshot renders the served calendar page to a PNG through a
// headless Chromium.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	DefaultWidth      = 1440
	DefaultHeight     = 1080
	DefaultTimeoutSec = 30
)

// Options defines parameters for one capture.
type Options struct {
	// URL of the page to capture, e.g. "http://127.0.0.1:8080/".
	URL string

	// Width and Height are the viewport dimensions in pixels. If zero,
	// DefaultWidth / DefaultHeight are used.
	Width  int
	Height int

	// Timeout bounds the entire capture operation.
	Timeout time.Duration
}

// CapturePNG navigates a headless Chromium to opts.URL, waits for the page
// to signal that the calendar grid finished rendering, and returns a PNG of
// the full page.
//
// Rendering-complete condition: the page root exposes data-ready="true"
// once the grid is painted, and the capture waits for that attribute to be
// visible.
func CapturePNG(parentCtx context.Context, opts Options) ([]byte, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("snapshot: URL is required")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("snapshot: chromedp run failed: %w", err)
	}

	return png, nil
}
