package lancers

import (
	"strconv"
	"strings"

	"go-lancers-scout/internal/filter"
	"go-lancers-scout/internal/models"
	"go-lancers-scout/internal/scraper"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

const DefaultMaxItems = 50

var cardIDStrategies = []scraper.Strategy[*goquery.Selection, string]{
	func(card *goquery.Selection) (string, bool) {
		onclick, _ := card.Attr("onclick")
		return submatch(reOnclick, onclick)
	},
	func(card *goquery.Selection) (string, bool) {
		href, _ := card.Find(selCardTitle).First().Attr("href")
		return submatch(reDetailPath, href)
	},
	func(card *goquery.Selection) (string, bool) {
		href, _ := card.Find(selDetailLink).First().Attr("href")
		return submatch(reDetailPath, href)
	},
}

var cardStatusStrategies = []scraper.Strategy[*goquery.Selection, models.JobStatus]{
	func(card *goquery.Selection) (models.JobStatus, bool) {
		text := card.Find(selCardStatus).First().Text()
		switch {
		case strings.Contains(text, "募集中"):
			return models.StatusOpen, true
		case strings.Contains(text, "終了"), strings.Contains(text, "締切"):
			return models.StatusClosed, true
		}
		return "", false
	},
}

var cardJobTypeStrategies = []scraper.Strategy[*goquery.Selection, models.JobType]{
	func(card *goquery.Selection) (models.JobType, bool) {
		for _, badge := range jobTypeBadges {
			if card.Find(badge.selector).Length() > 0 {
				return badge.value, true
			}
		}
		return "", false
	},
}

// ParseCards walks the listing cards in DOM order and parses at most maxItems.
// Cards without an id are skipped.
func ParseCards(doc *goquery.Document, maxItems int) []*models.JobRecord {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	jobs := []*models.JobRecord{}
	doc.Find(selCard).EachWithBreak(func(i int, card *goquery.Selection) bool {
		if i >= maxItems {
			return false
		}
		if job := parseCardSafe(card); job != nil {
			jobs = append(jobs, job)
		}
		return true
	})
	return jobs
}

func parseCardSafe(card *goquery.Selection) (job *models.JobRecord) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Debug("skipping card")
			job = nil
		}
	}()
	return ParseCard(card)
}

// ParseCard extracts one search result card. It returns nil when the job id
// cannot be recovered.
func ParseCard(card *goquery.Selection) *models.JobRecord {
	id, ok := scraper.FirstMatch(card, cardIDStrategies...)
	if !ok {
		return nil
	}

	job := models.NewJobRecord(models.ServiceLancers, id, DetailURL(id))

	scraper.Safely("title", func() { job.Title = cardTitle(card) })
	scraper.Safely("status", func() {
		if status, ok := scraper.FirstMatch(card, cardStatusStrategies...); ok {
			job.Status = status
		}
	})
	scraper.Safely("remaining_days", func() {
		if days, ok := submatchInt(reRemainingDays, card.Find(selCardRemaining).First().Text()); ok {
			job.RemainingDays = models.Int(days)
		}
	})
	scraper.Safely("tags", func() { job.Tags = texts(card.Find(selCardTag)) })
	scraper.Safely("job_type", func() {
		if jt, ok := scraper.FirstMatch(card, cardJobTypeStrategies...); ok {
			job.JobType = jt
		}
	})
	scraper.Safely("price", func() {
		job.BudgetMin, job.BudgetMax = priceRange(numbers(card.Find(selCardPrice), ","))
	})
	scraper.Safely("feature_tags", func() { job.FeatureTags = texts(card.Find(selCardFeatureTags)) })
	scraper.Safely("counts", func() { job.ProposalCount, job.RecruitmentCount = cardCounts(card) })
	scraper.Safely("client", func() { job.Client = cardClient(card) })

	if job.JobType == models.JobTypeProject {
		job.BudgetType = models.BudgetFixed
	}
	job.Category = filter.Categorize(job.Title)
	return job
}

// cardTitle strips the inline tag labels the title element also contains.
func cardTitle(card *goquery.Selection) string {
	title := strings.TrimSpace(card.Find(selCardTitle).First().Text())
	tags := card.Find(selCardTags).First()
	if tags.Length() == 0 {
		return title
	}
	for _, tag := range strings.Fields(tags.Text()) {
		title = strings.TrimSpace(strings.ReplaceAll(title, tag, ""))
	}
	return title
}

func cardCounts(card *goquery.Selection) (proposals, recruitment *int) {
	counts := card.Find(selCardCounts)
	if counts.Length() < 2 {
		return nil, nil
	}
	if n, ok := digits(counts.Eq(0).Text()); ok {
		proposals = models.Int(n)
	}
	if n, ok := digits(counts.Eq(1).Text()); ok {
		recruitment = models.Int(n)
	}
	return proposals, recruitment
}

func cardClient(card *goquery.Selection) *models.ClientInfo {
	name := card.Find(selCardClientName).First()
	if name.Length() == 0 {
		return nil
	}

	client := &models.ClientInfo{Name: strings.TrimSpace(name.Text())}
	card.Find(selCardClientNote).Each(func(_ int, note *goquery.Selection) {
		text := note.Text()
		switch {
		case strings.Contains(text, "発注"):
			if n, ok := submatchInt(reInteger, text); ok {
				client.OrderHistory = models.Int(n)
			}
		case strings.Contains(text, "評価"):
			if m, ok := submatch(reRating, text); ok {
				if rating, err := strconv.ParseFloat(m, 64); err == nil {
					client.Rating = models.Float(rating)
				}
			}
		}
	})
	return client
}
