package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-lancers-scout/internal/apperr"
	"go-lancers-scout/internal/models"

	log "github.com/sirupsen/logrus"
)

var loginURLs = map[models.Service]string{
	models.ServiceLancers:    "https://www.lancers.jp/user/login",
	models.ServiceCrowdWorks: "https://crowdworks.jp/login",
}

// successPatterns are URL substrings that only appear after a login.
var successPatterns = map[models.Service][]string{
	models.ServiceLancers:    {"lancers.jp/mypage", "lancers.jp/work"},
	models.ServiceCrowdWorks: {"crowdworks.jp/public/jobs", "crowdworks.jp/mypage"},
}

const loginPollInterval = time.Second

// SessionStore keeps one storage-state file per service.
type SessionStore struct {
	dir string
}

func NewSessionStore(dir string) (*SessionStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &SessionStore{dir: dir}, nil
}

func (s *SessionStore) Dir() string { return s.dir }

func (s *SessionStore) statePath(service models.Service) string {
	return filepath.Join(s.dir, string(service)+"_state.json")
}

func (s *SessionStore) legacyCookiePath(service models.Service) string {
	return filepath.Join(s.dir, string(service)+"_cookies.json")
}

func (s *SessionStore) HasSession(service models.Service) bool {
	_, err := os.Stat(s.statePath(service))
	return err == nil
}

// StatePath returns the state file path, or ("", false) when there is no session.
func (s *SessionStore) StatePath(service models.Service) (string, bool) {
	if !s.HasSession(service) {
		return "", false
	}
	return s.statePath(service), true
}

// Login opens a visible browser on the login page and waits until the user
// lands on a logged-in URL. It returns false when timeout elapses first.
func (s *SessionStore) Login(ctx context.Context, service models.Service, timeout time.Duration) (bool, error) {
	loginURL, ok := loginURLs[service]
	if !ok {
		return false, apperr.Authentication("unsupported service %q", service)
	}

	pm, err := NewPlaywright(ctx, LaunchOptions{Headless: false, ExtraArgs: []string{"--start-maximized"}})
	if err != nil {
		return false, err
	}
	defer pm.Close()

	opts := DefaultContextOptions("")
	opts.Width, opts.Height = 1280, 900

	bctx, err := pm.NewContext(opts)
	if err != nil {
		return false, err
	}
	defer bctx.Close()

	page, err := bctx.NewPage()
	if err != nil {
		return false, fmt.Errorf("could not create page: %w", err)
	}

	log.Printf("🔐 Opening %s login page, please log in within %s", service, timeout)
	if _, err := page.Goto(loginURL); err != nil {
		return false, apperr.Network(err, "open login page %s", loginURL)
	}

	ok, err = waitForLogin(ctx, service, page.URL, timeout, loginPollInterval)
	if err != nil || !ok {
		return false, err
	}

	path := s.statePath(service)
	tmp := path + ".tmp"
	if _, err := bctx.StorageState(tmp); err != nil {
		return false, fmt.Errorf("save storage state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return false, fmt.Errorf("save storage state: %w", err)
	}
	log.Printf("✅ Logged in to %s, session saved to %s", service, path)
	return true, nil
}

// waitForLogin polls currentURL until it shows a logged-in page. It returns
// false without error when timeout elapses first.
func waitForLogin(ctx context.Context, service models.Service, currentURL func() string, timeout, interval time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				log.Printf("⏱️ Login to %s timed out", service)
				return false, nil
			}
			return false, apperr.Interrupted()
		case <-ticker.C:
			if loggedIn(service, currentURL()) {
				return true, nil
			}
		}
	}
}

func loggedIn(service models.Service, url string) bool {
	for _, pattern := range successPatterns[service] {
		if strings.Contains(url, pattern) {
			return true
		}
	}
	return false
}

// Logout removes the state file and the legacy cookie file.
func (s *SessionStore) Logout(service models.Service) (bool, error) {
	removed := false
	for _, path := range []string{s.statePath(service), s.legacyCookiePath(service)} {
		err := os.Remove(path)
		switch {
		case err == nil:
			removed = true
		case errors.Is(err, os.ErrNotExist):
		default:
			return removed, fmt.Errorf("remove %s: %w", path, err)
		}
	}
	return removed, nil
}

// VerifySession checks the state file offline for a cookie of the service domain.
func (s *SessionStore) VerifySession(service models.Service) bool {
	state, err := readState(s.statePath(service))
	if err != nil {
		return false
	}
	domain := "." + string(service) + ".jp"
	for _, c := range state.Cookies {
		if strings.Contains(c.Domain, domain) {
			return true
		}
	}
	return false
}

func (s *SessionStore) ListSessions() map[models.Service]bool {
	sessions := make(map[models.Service]bool, len(models.Services))
	for _, service := range models.Services {
		sessions[service] = s.HasSession(service)
	}
	return sessions
}

// ImportCookies seeds a session from an exported cookie list.
func (s *SessionStore) ImportCookies(service models.Service, exportPath string) (int, error) {
	if _, ok := loginURLs[service]; !ok {
		return 0, apperr.Authentication("unsupported service %q", service)
	}
	cookies, err := LoadCookies(exportPath)
	if err != nil {
		return 0, err
	}

	state := &storageState{}
	for _, c := range cookies {
		if c.Name == "" || c.Domain == "" {
			continue
		}
		state.Cookies = append(state.Cookies, c.toState())
	}
	if len(state.Cookies) == 0 {
		return 0, apperr.Authentication("no usable cookies in %s", exportPath)
	}

	if err := writeState(s.statePath(service), state); err != nil {
		return 0, fmt.Errorf("write storage state: %w", err)
	}
	log.Printf("🍪 Imported %d cookies for %s", len(state.Cookies), service)
	return len(state.Cookies), nil
}

// ContextOptionsFor returns the default context options with the stored
// session attached when one exists.
func (s *SessionStore) ContextOptionsFor(service models.Service) ContextOptions {
	path, _ := s.StatePath(service)
	return DefaultContextOptions(path)
}
