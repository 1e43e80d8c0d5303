package pdf

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go-lancers-scout/internal/browser"
	"go-lancers-scout/internal/models"
	"go-lancers-scout/internal/priority"

	"github.com/playwright-community/playwright-go"
	log "github.com/sirupsen/logrus"
)

//go:embed templates/report.html
var templates embed.FS

// Report is the data behind one ranked-jobs PDF.
type Report struct {
	Title       string
	GeneratedAt time.Time
	Profile     models.UserProfile
	Jobs        []priority.RankedJob
}

var funcMap = template.FuncMap{
	"join": strings.Join,
	"inc":  func(i int) int { return i + 1 },
	"intOr": func(v *int, fallback string) string {
		if v == nil {
			return fallback
		}
		return strconv.Itoa(*v)
	},
	"grade": func(score float64) string {
		switch {
		case score >= 70:
			return "high"
		case score >= 50:
			return "mid"
		default:
			return "low"
		}
	},
}

var reportTemplate = template.Must(template.New("report.html").Funcs(funcMap).ParseFS(templates, "templates/report.html"))

// Generator renders reports to PDF with a headless page.
type Generator struct {
	pages browser.PageRunner
}

func NewGenerator(pages browser.PageRunner) *Generator {
	return &Generator{pages: pages}
}

// RenderHTML executes the report template.
func RenderHTML(report Report) ([]byte, error) {
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now()
	}
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, report); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// Generate renders report to A4 PDF bytes.
func (g *Generator) Generate(ctx context.Context, report Report) ([]byte, error) {
	html, err := RenderHTML(report)
	if err != nil {
		return nil, err
	}

	var pdfBytes []byte
	err = g.pages.WithPage(ctx, browser.ContextOptions{Locale: "ja-JP"}, func(page playwright.Page) error {
		if err := page.SetContent(string(html), playwright.PageSetContentOptions{
			WaitUntil: playwright.WaitUntilStateNetworkidle,
		}); err != nil {
			return fmt.Errorf("could not set page content: %w", err)
		}

		pdfBytes, err = page.PDF(playwright.PagePdfOptions{
			Format:          playwright.String("A4"),
			Landscape:       playwright.Bool(true),
			PrintBackground: playwright.Bool(true),
			Margin: &playwright.Margin{
				Top:    playwright.String("10mm"),
				Bottom: playwright.String("10mm"),
				Left:   playwright.String("8mm"),
				Right:  playwright.String("8mm"),
			},
		})
		if err != nil {
			return fmt.Errorf("could not generate PDF: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("📄 Rendered report with %d jobs (%d bytes)", len(report.Jobs), len(pdfBytes))
	return pdfBytes, nil
}

// SaveToFile writes pdfBytes, creating the parent directory.
func SaveToFile(pdfBytes []byte, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("could not create directory: %w", err)
	}
	return os.WriteFile(outputPath, pdfBytes, 0644)
}
