package lancers

import (
	"strings"
	"unicode/utf8"

	"go-lancers-scout/internal/apperr"
	"go-lancers-scout/internal/filter"
	"go-lancers-scout/internal/models"
	"go-lancers-scout/internal/scraper"

	"github.com/PuerkitoBio/goquery"
)

// detailPage is the input of the detail field strategies.
type detailPage struct {
	doc   *goquery.Document
	title string
}

var detailTitleStrategies = []scraper.Strategy[detailPage, string]{
	func(p detailPage) (string, bool) {
		content := strings.TrimSpace(metaContent(p.doc, "keywords"))
		return content, content != ""
	},
	func(p detailPage) (string, bool) {
		m, ok := submatch(reSideJobTitle, p.title)
		return strings.TrimSpace(m), ok
	},
	func(p detailPage) (string, bool) {
		if p.title == "" {
			return "", false
		}
		return strings.TrimSpace(strings.Split(p.title, "|")[0]), true
	},
}

var detailDescriptionStrategies = []scraper.Strategy[detailPage, string]{
	func(p detailPage) (string, bool) {
		for _, selector := range descriptionSelectors {
			if segments := longTexts(p.doc.Find(selector)); len(segments) > 0 {
				return strings.Join(segments, "\n\n"), true
			}
		}
		return "", false
	},
	func(p detailPage) (string, bool) {
		content := metaContent(p.doc, "description")
		return content, content != ""
	},
}

var detailClientNameStrategies = []scraper.Strategy[detailPage, string]{
	func(p detailPage) (string, bool) {
		alt, _ := p.doc.Find(selClientAvatar).First().Attr("alt")
		alt = strings.TrimSpace(alt)
		return alt, alt != ""
	},
	func(p detailPage) (string, bool) {
		name := strings.TrimSpace(p.doc.Find(selClientLink).First().Text())
		return name, name != ""
	},
}

// IsAccessRestricted reports whether the page title marks a members-only job.
func IsAccessRestricted(pageTitle string) bool {
	return strings.Contains(pageTitle, accessRestrictedMarker)
}

// ParseDetail extracts a job detail page. Only an invalid url or an access
// restricted page fail; every other field is best-effort.
func ParseDetail(doc *goquery.Document, rawURL, pageTitle string) (*models.JobRecord, error) {
	id := ExtractJobID(rawURL)
	if id == "" {
		return nil, apperr.InvalidURL(rawURL)
	}
	if IsAccessRestricted(pageTitle) {
		return nil, apperr.AccessDenied("job %s is restricted to logged-in members", id)
	}

	page := detailPage{doc: doc, title: pageTitle}
	job := models.NewJobRecord(models.ServiceLancers, id, rawURL)
	job.JobType = models.JobTypeProject
	job.Status = models.StatusOpen

	scraper.Safely("title", func() {
		job.Title, _ = scraper.FirstMatch(page, detailTitleStrategies...)
	})
	scraper.Safely("description", func() {
		job.Description, _ = scraper.FirstMatch(page, detailDescriptionStrategies...)
	})
	scraper.Safely("budget", func() {
		job.BudgetMin, job.BudgetMax = priceRange(numbers(doc.Find(selPrice), ",", "円"))
		if job.BudgetMin != nil {
			job.BudgetType = models.BudgetFixed
		}
	})
	scraper.Safely("deadline", func() { job.Deadline = deadline(doc) })
	scraper.Safely("client", func() {
		// rating and order history are not shown on the detail page
		if name, ok := scraper.FirstMatch(page, detailClientNameStrategies...); ok {
			job.Client = &models.ClientInfo{Name: name}
		}
	})
	scraper.Safely("skills", func() { job.RequiredSkills = filter.ExtractSkills(job.Description) })
	scraper.Safely("feature_tags", func() { job.FeatureTags = texts(doc.Find(selDetailFeatureTags)) })

	job.Category = filter.Categorize(job.Title + " " + job.Description)
	return job, nil
}

func metaContent(doc *goquery.Document, name string) string {
	content, _ := doc.Find(`meta[name="` + name + `"]`).First().Attr("content")
	return content
}

// longTexts keeps the segments long enough to be real prose.
func longTexts(sel *goquery.Selection) []string {
	var out []string
	sel.Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if utf8.RuneCountInString(text) > minDescriptionSegment {
			out = append(out, strings.TrimSpace(text))
		}
	})
	return out
}

func deadline(doc *goquery.Document) *string {
	var out *string
	doc.Find(selScheduleItem).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if !strings.Contains(item.Find(selScheduleItemTitle).Text(), "締切") {
			return true
		}
		text := item.Find(selScheduleText).First()
		if text.Length() == 0 {
			return true
		}
		out = models.String(strings.TrimSpace(text.Text()))
		return false
	})
	return out
}
