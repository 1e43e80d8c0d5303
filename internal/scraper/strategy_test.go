package scraper

import (
	"context"
	"strings"
	"testing"

	"go-lancers-scout/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestFirstMatch(t *testing.T) {
	miss := func(string) (int, bool) { return 0, false }
	boom := func(string) (int, bool) { panic("boom") }
	length := func(s string) (int, bool) { return len(s), s != "" }
	seven := func(string) (int, bool) { return 7, true }

	tests := []struct {
		name       string
		src        string
		strategies []Strategy[string, int]
		expected   int
		ok         bool
	}{
		{"first success wins", "abc", []Strategy[string, int]{length, seven}, 3, true},
		{"skips misses", "", []Strategy[string, int]{miss, length, seven}, 7, true},
		{"panic counts as miss", "abc", []Strategy[string, int]{boom, seven}, 7, true},
		{"all miss", "", []Strategy[string, int]{miss, boom}, 0, false},
		{"no strategies", "abc", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := FirstMatch(tt.src, tt.strategies...)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestSafely(t *testing.T) {
	var after bool
	assert.NotPanics(t, func() {
		Safely("title", func() { panic("selector exploded") })
		Safely("status", func() { after = true })
	})
	assert.True(t, after)
}

type fakeScraper struct {
	service models.Service
	host    string
}

func (f fakeScraper) Name() string { return string(f.service) }
func (f fakeScraper) Service() models.Service { return f.service }
func (f fakeScraper) CanHandle(url string) bool { return strings.Contains(url, f.host+"/detail") }
func (f fakeScraper) CanHandleList(url string) bool {
	return strings.Contains(url, f.host+"/search")
}
func (f fakeScraper) BuildSearchURL(SearchParams) string { return "https://" + f.host + "/search" }
func (f fakeScraper) Scrape(context.Context, string) (*models.JobRecord, error) {
	return nil, nil
}
func (f fakeScraper) ScrapeList(context.Context, string, int) ([]*models.JobRecord, error) {
	return nil, nil
}

func TestRegistry(t *testing.T) {
	lancers := fakeScraper{service: models.ServiceLancers, host: "lancers.jp"}
	registry := NewRegistry(lancers)
	registry.Register(fakeScraper{service: models.ServiceCrowdWorks, host: "crowdworks.jp"})

	assert.Equal(t, models.ServiceLancers, registry.ForURL("https://lancers.jp/detail/1").Service())
	assert.Equal(t, models.ServiceCrowdWorks, registry.ForURL("https://crowdworks.jp/search?page=2").Service())
	assert.Nil(t, registry.ForURL("https://example.com/detail/1"))

	assert.Equal(t, lancers, registry.ForService(models.ServiceLancers))
	assert.Nil(t, registry.ForService("upwork"))
}
