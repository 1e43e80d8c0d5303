package lancers

import (
	"net/url"
	"strconv"
	"strings"

	"go-lancers-scout/internal/scraper"
)

// categorySlugs are the top-level search paths Lancers accepts.
var categorySlugs = map[string]bool{
	"system":      true,
	"web":         true,
	"writing":     true,
	"design":      true,
	"multimedia":  true,
	"business":    true,
	"translation": true,
}

func CanHandle(rawURL string) bool {
	return reDetailURL.MatchString(rawURL)
}

func CanHandleList(rawURL string) bool {
	return reListURL.MatchString(rawURL)
}

// ExtractJobID returns the numeric id of a detail URL, or "".
func ExtractJobID(rawURL string) string {
	if m := reDetailURL.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	return ""
}

func DetailURL(jobID string) string {
	return detailURL + jobID
}

// BuildSearchURL renders the search URL. Parameter order is fixed:
// open, type[] (repeated), page.
func BuildSearchURL(p scraper.SearchParams) string {
	var b strings.Builder
	b.WriteString(searchURL)

	if categorySlugs[p.Category] {
		b.WriteString("/" + p.Category)
		if p.Subcategory != "" {
			b.WriteString("/" + p.Subcategory)
		}
	}

	var params []string
	if p.OpenOnly {
		params = append(params, "open=1")
	}
	for _, jt := range p.JobTypes {
		params = append(params, url.QueryEscape("type[]")+"="+url.QueryEscape(string(jt)))
	}
	if p.Page > 1 {
		params = append(params, "page="+strconv.Itoa(p.Page))
	}

	if len(params) > 0 {
		b.WriteString("?" + strings.Join(params, "&"))
	}
	return b.String()
}
