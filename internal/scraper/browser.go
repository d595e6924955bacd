package scraper

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// newBrowser creates a Chrome allocator and tab context. The returned
// cancel func tears down both.
func (s *Scraper) newBrowser(ctx context.Context) (context.Context, context.CancelFunc) {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts, chromedp.Flag("headless", s.cfg.Headless))

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	return tabCtx, func() {
		cancelTab()
		cancelAlloc()
	}
}

// sleep pauses for d while honoring context cancellation.
func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// decodeDataURL extracts the raw bytes of a base64 data URL.
func decodeDataURL(dataURL string) ([]byte, error) {
	_, payload, found := strings.Cut(dataURL, ",")
	if !found {
		return nil, ErrInvalidImage
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalidImage
	}
	return data, nil
}
