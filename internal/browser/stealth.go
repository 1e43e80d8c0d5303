package browser

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/playwright-community/playwright-go"
)

var userAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// RandomUserAgent picks one of the Chrome 120 desktop user agents.
func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RandomDelay waits for a random duration in [min, max].
func RandomDelay(ctx context.Context, min, max time.Duration) error {
	return Sleep(ctx, randomDuration(min, max))
}

func randomDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)+1))
}

// Humanizer paces page interaction. A disabled Humanizer does nothing.
type Humanizer struct {
	Enabled  bool
	MinDelay time.Duration
	MaxDelay time.Duration

	ScrollStepMin, ScrollStepMax   int
	ScrollPauseMin, ScrollPauseMax time.Duration
}

// NewHumanizer takes the delay bounds in seconds, as they appear in settings.yaml.
func NewHumanizer(enabled bool, minDelay, maxDelay float64) *Humanizer {
	return &Humanizer{
		Enabled:        enabled,
		MinDelay:       time.Duration(minDelay * float64(time.Second)),
		MaxDelay:       time.Duration(maxDelay * float64(time.Second)),
		ScrollStepMin:  300,
		ScrollStepMax:  500,
		ScrollPauseMin: 500 * time.Millisecond,
		ScrollPauseMax: 1500 * time.Millisecond,
	}
}

func (h *Humanizer) Wait(ctx context.Context) error {
	if h == nil || !h.Enabled {
		return nil
	}
	return RandomDelay(ctx, h.MinDelay, h.MaxDelay)
}

// Scroll moves down the page in random steps until the bottom is reached.
func (h *Humanizer) Scroll(ctx context.Context, page playwright.Page) error {
	if h == nil || !h.Enabled {
		return nil
	}

	raw, err := page.Evaluate("document.body.scrollHeight")
	if err != nil {
		return fmt.Errorf("read scroll height: %w", err)
	}
	height := toInt(raw)

	pos := 0
	for pos < height {
		pos += h.ScrollStepMin + rand.Intn(h.ScrollStepMax-h.ScrollStepMin+1)
		if _, err := page.Evaluate(fmt.Sprintf("window.scrollTo(0, %d)", pos)); err != nil {
			return fmt.Errorf("scroll: %w", err)
		}
		if err := RandomDelay(ctx, h.ScrollPauseMin, h.ScrollPauseMax); err != nil {
			return err
		}
	}
	return nil
}

// MouseJiggle moves the mouse to a few random points inside the viewport.
func (h *Humanizer) MouseJiggle(ctx context.Context, page playwright.Page) error {
	if h == nil || !h.Enabled {
		return nil
	}
	viewport := page.ViewportSize()
	if viewport == nil || viewport.Width <= 0 || viewport.Height <= 0 {
		return nil
	}
	for i := 0; i < 3; i++ {
		x := rand.Intn(viewport.Width)
		y := rand.Intn(viewport.Height)
		if err := page.Mouse().Move(float64(x), float64(y)); err != nil {
			return err
		}
		if err := RandomDelay(ctx, 100*time.Millisecond, 300*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}

// toInt converts a value returned by page.Evaluate.
func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
