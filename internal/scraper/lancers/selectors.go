package lancers

import (
	"regexp"

	"go-lancers-scout/internal/models"
)

const (
	BaseURL   = "https://www.lancers.jp"
	searchURL = BaseURL + "/work/search"
	detailURL = BaseURL + "/work/detail/"
)

// search listing
const (
	selCard            = ".p-search-job-media"
	selCardTitle       = ".p-search-job-media__title"
	selCardTags        = ".p-search-job-media__tags"
	selCardTag         = ".p-search-job-media__tag"
	selCardStatus      = ".p-search-job-media__time-text"
	selCardRemaining   = ".p-search-job-media__time-remaining"
	selCardPrice       = ".p-search-job-media__number"
	selCardFeatureTags = ".p-search-job-media__tag-list"
	selCardCounts      = ".p-search-job-media__propose-number"
	selCardClientName  = ".p-search-job-media__avatar-note a"
	selCardClientNote  = ".p-search-job-media__avatar-subnote"
	selDetailLink      = "a[href*='/work/detail/']"
)

var jobTypeBadges = []struct {
	selector string
	value    models.JobType
}{
	{".c-badge--worktype-project", models.JobTypeProject},
	{".c-badge--worktype-task", models.JobTypeTask},
	{".c-badge--worktype-competition", models.JobTypeCompetition},
}

// detail page
const (
	selDetail              = ".p-work-detail"
	selPrice               = ".price-number"
	selScheduleItem        = ".p-work-detail-schedule__item"
	selScheduleItemTitle   = ".p-work-detail-schedule__item__title"
	selScheduleText        = ".p-work-detail-schedule__text"
	selClientAvatar        = ".p-work-detail-sub-heading__avatar-image"
	selClientLink          = `a[href^="/client/"]`
	selDetailFeatureTags   = ".c-tag.p-work-detail-tag"
	minDescriptionSegment  = 50
	accessRestrictedMarker = "閲覧制限"
)

var descriptionSelectors = []string{
	".c-definition-list__description",
	".p-work-detail-lancer__postscript-description",
	"[class*='description']",
}

var (
	reDetailURL     = regexp.MustCompile(`lancers\.jp/work/detail/(\d+)`)
	reListURL       = regexp.MustCompile(`lancers\.jp/work/search`)
	reOnclick       = regexp.MustCompile(`goToLjpWorkDetail\((\d+)\)`)
	reDetailPath    = regexp.MustCompile(`/work/detail/(\d+)`)
	reRemainingDays = regexp.MustCompile(`あと(\d+)日`)
	reInteger       = regexp.MustCompile(`(\d+)`)
	reRating        = regexp.MustCompile(`(\d+\.?\d*)`)
	reSideJobTitle  = regexp.MustCompile(`^(.+?)の副業`)
)
