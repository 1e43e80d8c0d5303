// Define an interface for all marketplace scrapers
// Ensure consistency between Lancers and future services

package scraper

import (
	"context"

	"go-lancers-scout/internal/models"
)

// SearchParams describe one search listing page.
type SearchParams struct {
	Category    string
	Subcategory string
	JobTypes    []models.JobType
	OpenOnly    bool
	Page        int
}

// Scraper defines the interface that all marketplace scrapers must implement
type Scraper interface {
	//Name is the display name (Lancers, CrowdWorks, ...)
	Name() string

	Service() models.Service

	//CanHandle reports whether url is a job detail page of this service
	CanHandle(url string) bool

	//CanHandleList reports whether url is a search listing of this service
	CanHandleList(url string) bool

	BuildSearchURL(params SearchParams) string

	//Scrape one job detail page
	Scrape(ctx context.Context, url string) (*models.JobRecord, error)

	//ScrapeList returns up to maxItems cards from one listing page
	ScrapeList(ctx context.Context, url string, maxItems int) ([]*models.JobRecord, error)
}
