package lancers

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func submatch(re *regexp.Regexp, s string) (string, bool) {
	if s == "" {
		return "", false
	}
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func submatchInt(re *regexp.Regexp, s string) (int, bool) {
	m, ok := submatch(re, s)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	return n, err == nil
}

// digits parses s only when it is a plain run of ASCII digits.
func digits(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// numbers collects the integer texts of sel after removing the strip strings.
func numbers(sel *goquery.Selection, strip ...string) []int {
	var out []int
	sel.Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		for _, x := range strip {
			text = strings.ReplaceAll(text, x, "")
		}
		if n, ok := digits(text); ok {
			out = append(out, n)
		}
	})
	return out
}

// priceRange maps 1 price to min=max and 2+ prices to the first two.
func priceRange(prices []int) (min, max *int) {
	switch {
	case len(prices) >= 2:
		lo, hi := prices[0], prices[1]
		return &lo, &hi
	case len(prices) == 1:
		lo, hi := prices[0], prices[0]
		return &lo, &hi
	default:
		return nil, nil
	}
}

// texts returns the trimmed, non-empty texts of sel.
func texts(sel *goquery.Selection) []string {
	out := []string{}
	sel.Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out
}
