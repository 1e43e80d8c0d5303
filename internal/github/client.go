// Package github reads a user's public profile and repositories to derive
// the skills a proposal can point at.
package github

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go-lancers-scout/internal/apperr"

	gh "github.com/google/go-github/v66/github"
	log "github.com/sirupsen/logrus"
)

type Profile struct {
	Username    string    `json:"login"`
	Name        string    `json:"name"`
	Bio         string    `json:"bio"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	CreatedAt   time.Time `json:"created_at"`
}

type Repo struct {
	Name        string    `json:"name"`
	URL         string    `json:"html_url"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	Stars       int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	UpdatedAt   time.Time `json:"updated_at"`
	Topics      []string  `json:"topics"`
	Fork        bool      `json:"fork"`
}

// LanguageStat counts how many repositories use a language.
type LanguageStat struct {
	Language   string  `json:"language"`
	Repos      int     `json:"repos"`
	Percentage float64 `json:"percentage"`
}

type Client struct {
	username string
	api      *gh.Client
}

// NewClient reads public data for username. token is optional and only
// raises the rate limit.
func NewClient(username, token string) *Client {
	api := gh.NewClient(&http.Client{Timeout: 30 * time.Second})
	if token != "" {
		api = api.WithAuthToken(token)
	}
	api.UserAgent = "lancers-scout"
	return &Client{username: username, api: api}
}

// withBaseURL points the client at another API root, e.g. a test server.
func (c *Client) withBaseURL(raw string) error {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	c.api.BaseURL = u
	return nil
}

// wrap maps go-github failures onto application errors.
func (c *Client) wrap(resp *gh.Response, err error, what string) error {
	if errors.Is(err, context.Canceled) {
		return apperr.Interrupted()
	}
	if resp != nil && resp.Response != nil && resp.StatusCode != http.StatusOK {
		return apperr.GitHubAPI(resp.StatusCode, c.username)
	}
	return apperr.Network(err, "github %s", what)
}

func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	u, resp, err := c.api.Users.Get(ctx, c.username)
	if err != nil {
		return nil, c.wrap(resp, err, "profile")
	}
	return &Profile{
		Username:    u.GetLogin(),
		Name:        u.GetName(),
		Bio:         u.GetBio(),
		Company:     u.GetCompany(),
		Location:    u.GetLocation(),
		PublicRepos: u.GetPublicRepos(),
		Followers:   u.GetFollowers(),
		CreatedAt:   u.GetCreatedAt().Time,
	}, nil
}

// Repos returns the user's own repositories, most recently updated first.
// Forks are skipped.
func (c *Client) Repos(ctx context.Context) ([]Repo, error) {
	opts := &gh.RepositoryListByUserOptions{
		Type:        "owner",
		Sort:        "updated",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var all []*gh.Repository
	for {
		page, resp, err := c.api.Repositories.ListByUser(ctx, c.username, opts)
		if err != nil {
			return nil, c.wrap(resp, err, "repos")
		}
		all = append(all, page...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	repos := make([]Repo, 0, len(all))
	for _, r := range all {
		if r.GetFork() {
			continue
		}
		repos = append(repos, repoFrom(r))
	}
	log.Printf("🐙 Loaded %d repositories of %s (%d forks skipped)", len(repos), c.username, len(all)-len(repos))
	return repos, nil
}

func repoFrom(r *gh.Repository) Repo {
	return Repo{
		Name:        r.GetName(),
		URL:         r.GetHTMLURL(),
		Description: r.GetDescription(),
		Language:    r.GetLanguage(),
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		UpdatedAt:   r.GetUpdatedAt().Time,
		Topics:      r.Topics,
		Fork:        r.GetFork(),
	}
}

// Languages counts repository languages, most used first.
func Languages(repos []Repo) []LanguageStat {
	counts := make(map[string]int)
	total := 0
	for _, r := range repos {
		if r.Fork || r.Language == "" {
			continue
		}
		counts[r.Language]++
		total++
	}

	stats := make([]LanguageStat, 0, len(counts))
	for lang, n := range counts {
		stats = append(stats, LanguageStat{Language: lang, Repos: n, Percentage: float64(n) / float64(total) * 100})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Repos != stats[j].Repos {
			return stats[i].Repos > stats[j].Repos
		}
		return stats[i].Language < stats[j].Language
	})
	return stats
}

// LanguageSkills returns the repository languages as profile skills.
func LanguageSkills(repos []Repo) []string {
	stats := Languages(repos)
	skills := make([]string, len(stats))
	for i, s := range stats {
		skills[i] = s.Language
	}
	return skills
}

// MatchRepos returns up to five repositories relevant to skills. Language
// matches weigh 3, topics 2, description mentions 1; ties go to stars.
func MatchRepos(repos []Repo, skills []string) []Repo {
	type scored struct {
		repo  Repo
		score int
	}
	lower := make(map[string]bool, len(skills))
	for _, s := range skills {
		lower[strings.ToLower(s)] = true
	}

	var matched []scored
	for _, r := range repos {
		score := 0
		if lower[strings.ToLower(r.Language)] {
			score += 3
		}
		for _, topic := range r.Topics {
			if lower[strings.ToLower(topic)] {
				score += 2
			}
		}
		desc := strings.ToLower(r.Description)
		for _, s := range skills {
			if desc != "" && strings.Contains(desc, strings.ToLower(s)) {
				score++
			}
		}
		if score > 0 {
			matched = append(matched, scored{r, score})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].score != matched[j].score {
			return matched[i].score > matched[j].score
		}
		return matched[i].repo.Stars > matched[j].repo.Stars
	})
	if len(matched) > 5 {
		matched = matched[:5]
	}
	out := make([]Repo, len(matched))
	for i, m := range matched {
		out[i] = m.repo
	}
	return out
}
