package browser

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"
	log "github.com/sirupsen/logrus"
)

// StealthArgs hide the most obvious automation fingerprints.
var StealthArgs = []string{
	"--disable-blink-features=AutomationControlled",
	"--no-sandbox",
}

type LaunchOptions struct {
	Headless bool
	// ExtraArgs are appended to StealthArgs.
	ExtraArgs []string
}

// ContextOptions describe one isolated browser context.
type ContextOptions struct {
	StorageStatePath string
	UserAgent        string
	Width, Height    int
	Locale           string
	TimezoneID       string
}

// DefaultContextOptions returns the Japanese desktop profile with a random
// user agent. statePath may be empty.
func DefaultContextOptions(statePath string) ContextOptions {
	return ContextOptions{
		StorageStatePath: statePath,
		UserAgent:        RandomUserAgent(),
		Width:            1920,
		Height:           1080,
		Locale:           "ja-JP",
		TimezoneID:       "Asia/Tokyo",
	}
}

// PageRunner runs fn against a fresh page in its own browser context.
type PageRunner interface {
	WithPage(ctx context.Context, opts ContextOptions, fn func(page playwright.Page) error) error
}

type PlaywrightManager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

func NewPlaywright(ctx context.Context, opts LaunchOptions) (*PlaywrightManager, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	args := append(append([]string{}, StealthArgs...), opts.ExtraArgs...)
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     args,
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("could not launch chromium: %w", err)
	}

	log.WithField("headless", opts.Headless).Debug("🌐 Chromium launched")
	return &PlaywrightManager{pw: pw, browser: browser}, nil
}

func (pm *PlaywrightManager) NewContext(opts ContextOptions) (playwright.BrowserContext, error) {
	ctxOpts := playwright.BrowserNewContextOptions{}
	if opts.UserAgent != "" {
		ctxOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	if opts.Locale != "" {
		ctxOpts.Locale = playwright.String(opts.Locale)
	}
	if opts.TimezoneID != "" {
		ctxOpts.TimezoneId = playwright.String(opts.TimezoneID)
	}
	if opts.Width > 0 && opts.Height > 0 {
		ctxOpts.Viewport = &playwright.Size{Width: opts.Width, Height: opts.Height}
	}
	if opts.StorageStatePath != "" {
		ctxOpts.StorageStatePath = playwright.String(opts.StorageStatePath)
	}

	bctx, err := pm.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}
	return bctx, nil
}

// WithPage opens context and page, runs fn, and closes both on every exit
// path. Cancelling ctx closes the context, which aborts in-flight calls.
func (pm *PlaywrightManager) WithPage(ctx context.Context, opts ContextOptions, fn func(page playwright.Page) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bctx, err := pm.NewContext(opts)
	if err != nil {
		return err
	}
	defer bctx.Close()

	page, err := bctx.NewPage()
	if err != nil {
		return fmt.Errorf("could not create page: %w", err)
	}
	defer page.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			log.Debug("context cancelled, closing browser context")
			_ = bctx.Close()
		case <-done:
		}
	}()

	if err := fn(page); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %v", ctxErr, err)
		}
		return err
	}
	return nil
}

func (pm *PlaywrightManager) Close() error {
	var firstErr error
	if pm.browser != nil {
		if err := pm.browser.Close(); err != nil {
			firstErr = fmt.Errorf("could not close browser: %w", err)
		}
	}
	if pm.pw != nil {
		if err := pm.pw.Stop(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("could not stop playwright: %w", err)
		}
	}
	return firstErr
}
