package scraper

import "go-lancers-scout/internal/models"

// Registry dispatches URLs to the scraper that claims them.
type Registry struct {
	scrapers []Scraper
}

func NewRegistry(scrapers ...Scraper) *Registry {
	return &Registry{scrapers: scrapers}
}

func (r *Registry) Register(s Scraper) {
	r.scrapers = append(r.scrapers, s)
}

// ForURL returns the first scraper that handles url as a detail or list page.
func (r *Registry) ForURL(url string) Scraper {
	for _, s := range r.scrapers {
		if s.CanHandle(url) || s.CanHandleList(url) {
			return s
		}
	}
	return nil
}

func (r *Registry) ForService(service models.Service) Scraper {
	for _, s := range r.scrapers {
		if s.Service() == service {
			return s
		}
	}
	return nil
}
