// Package snapshot renders a display page in headless Chrome and captures it as
// a PNG image.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// Options tune the capture.
type Options struct {
	Width  int64
	Height int64
	// Settle is how long the page gets to lay out before the capture. The
	// physics simulation of vis-network keeps moving nodes for a while.
	Settle  time.Duration
	Timeout time.Duration
	// Quality 100 captures a PNG, anything lower a JPEG.
	Quality int
}

func DefaultOptions() Options {
	return Options{
		Width:   1600,
		Height:  1200,
		Settle:  3 * time.Second,
		Timeout: 30 * time.Second,
		Quality: 100,
	}
}

// PageURL turns a local HTML file into a URL Chrome can navigate to.
func PageURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// Capture loads url and returns a full page screenshot.
func Capture(ctx context.Context, url string, opts Options) ([]byte, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	ctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	var png []byte
	err := chromedp.Run(ctx,
		emulation.SetDeviceMetricsOverride(opts.Width, opts.Height, 1, false),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(opts.Settle),
		chromedp.FullScreenshot(&png, opts.Quality),
	)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", url, err)
	}
	return png, nil
}

// CaptureFile screenshots the HTML page at htmlPath into pngPath.
func CaptureFile(ctx context.Context, htmlPath, pngPath string, opts Options) error {
	url, err := PageURL(htmlPath)
	if err != nil {
		return err
	}
	png, err := Capture(ctx, url, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(pngPath, png, 0o644)
}
