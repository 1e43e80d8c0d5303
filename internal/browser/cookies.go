package browser

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Cookie is one entry of a browser-extension cookie export.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}

// storageState mirrors the Playwright storage-state file.
type storageState struct {
	Cookies []stateCookie     `json:"cookies"`
	Origins []json.RawMessage `json:"origins"`
}

type stateCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}

func LoadCookies(path string) ([]Cookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("parse cookie export %s: %w", path, err)
	}
	return cookies, nil
}

func (c Cookie) toState() stateCookie {
	sc := stateCookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Expires:  -1,
		HTTPOnly: c.HTTPOnly,
		Secure:   c.Secure,
		SameSite: normalizeSameSite(c.SameSite),
	}
	if sc.Path == "" {
		sc.Path = "/"
	}
	if c.Expires > 0 {
		sc.Expires = c.Expires
	}
	return sc
}

// extensions export "no_restriction", "lax", "unspecified"; playwright only
// accepts Strict, Lax and None.
func normalizeSameSite(s string) string {
	switch strings.ToLower(s) {
	case "strict":
		return "Strict"
	case "none", "no_restriction":
		return "None"
	default:
		return "Lax"
	}
}

func readState(path string) (*storageState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state storageState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse storage state %s: %w", path, err)
	}
	return &state, nil
}

// writeState writes through a temp file so readers never see a partial file.
func writeState(path string, state *storageState) error {
	if state.Origins == nil {
		state.Origins = []json.RawMessage{}
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
