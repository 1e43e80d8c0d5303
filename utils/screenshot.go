package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/playwright-community/playwright-go"
	log "github.com/sirupsen/logrus"
)

// ScreenShotDebugger saves full-page screenshots of pages that did not look
// the way the scraper expected. A nil debugger is disabled.
type ScreenShotDebugger struct {
	outputDir string
}

func NewScreenShotDebugger(dir string) (*ScreenShotDebugger, error) {
	if dir == "" {
		dir = filepath.Join(".", "logs", "screenshots")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create screenshot dir: %w", err)
	}
	return &ScreenShotDebugger{outputDir: dir}, nil
}

func (s *ScreenShotDebugger) Dir() string { return s.outputDir }

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Filename builds the screenshot file name for name at time at.
func Filename(name string, at time.Time) string {
	return fmt.Sprintf("%s_%s.png", unsafeName.ReplaceAllString(name, "-"), at.Format("2006-01-02_15-04-05"))
}

func (s *ScreenShotDebugger) CaptureAndLog(page playwright.Page, name, message string) (string, error) {
	if s == nil {
		return "", nil
	}
	path := filepath.Join(s.outputDir, Filename(name, time.Now()))
	log.Printf("📸 %s", message)

	_, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		log.Printf("⚠️ Failed to capture screenshot: %v", err)
		return "", err
	}

	log.Printf("   Screenshot saved: %s", path)
	return path, nil
}
