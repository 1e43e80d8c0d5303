// Package apperr defines the application error taxonomy. Every error carries
// a stable machine-readable code that doubles as the CLI exit status.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type Code int

const (
	CodeSuccess         Code = 0
	CodeGeneral         Code = 1
	CodeInvalidArgument Code = 2
	CodeConfig          Code = 3
	CodeNetwork         Code = 4
	CodeScraping        Code = 5
	CodeAPI             Code = 6
	CodeAuth            Code = 7
	CodeInterrupted     Code = 130
)

// Kinds. Match them with errors.Is.
var (
	ErrInvalidURL      = errors.New("invalid url")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConfig          = errors.New("config error")
	ErrNetwork         = errors.New("network error")
	ErrScraping        = errors.New("scraping error")
	ErrPageNotFound    = errors.New("page not found")
	ErrElementNotFound = errors.New("element not found")
	ErrLoginRequired   = errors.New("login required")
	ErrAccessDenied    = errors.New("access denied")
	ErrGitHubAPI       = errors.New("github api error")
	ErrGeminiAPI       = errors.New("gemini api error")
	ErrAuthentication  = errors.New("authentication error")
	ErrInterrupted     = errors.New("interrupted")
)

var kindCodes = map[error]Code{
	ErrInvalidURL:      CodeInvalidArgument,
	ErrInvalidArgument: CodeInvalidArgument,
	ErrConfig:          CodeConfig,
	ErrNetwork:         CodeNetwork,
	ErrScraping:        CodeScraping,
	ErrPageNotFound:    CodeScraping,
	ErrElementNotFound: CodeScraping,
	ErrLoginRequired:   CodeScraping,
	ErrAccessDenied:    CodeScraping,
	ErrGitHubAPI:       CodeAPI,
	ErrGeminiAPI:       CodeAPI,
	ErrAuthentication:  CodeAuth,
	ErrInterrupted:     CodeInterrupted,
}

// Error is the base application error.
type Error struct {
	Kind    error
	Message string
	Cause   error
	// Status is the HTTP status for remote API errors, 0 otherwise.
	Status int
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Is lets every scraping sub-kind match ErrScraping.
func (e *Error) Is(target error) bool {
	if target == ErrScraping {
		return IsScrapingKind(e.Kind)
	}
	return false
}

func (e *Error) Code() Code {
	if c, ok := kindCodes[e.Kind]; ok {
		return c
	}
	return CodeGeneral
}

func IsScrapingKind(kind error) bool {
	switch kind {
	case ErrScraping, ErrPageNotFound, ErrElementNotFound, ErrLoginRequired, ErrAccessDenied:
		return true
	}
	return false
}

func newError(kind error, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func InvalidURL(url string) *Error {
	return newError(ErrInvalidURL, nil, "unsupported url: %s", url)
}

func InvalidArgument(format string, args ...any) *Error {
	return newError(ErrInvalidArgument, nil, format, args...)
}

func Config(cause error, format string, args ...any) *Error {
	return newError(ErrConfig, cause, format, args...)
}

func Network(cause error, format string, args ...any) *Error {
	return newError(ErrNetwork, cause, format, args...)
}

func Scraping(cause error, format string, args ...any) *Error {
	return newError(ErrScraping, cause, format, args...)
}

func PageNotFound(url string) *Error {
	return newError(ErrPageNotFound, nil, "page not found: %s", url)
}

func ElementNotFound(selector string) *Error {
	return newError(ErrElementNotFound, nil, "element not found: %s", selector)
}

func LoginRequired(service string) *Error {
	return newError(ErrLoginRequired, nil, "login required for %s", service)
}

func AccessDenied(format string, args ...any) *Error {
	return newError(ErrAccessDenied, nil, format, args...)
}

// GitHubAPI builds an API error from a non-200 GitHub response.
func GitHubAPI(status int, subject string) *Error {
	e := &Error{Kind: ErrGitHubAPI, Status: status}
	switch status {
	case http.StatusNotFound:
		e.Message = fmt.Sprintf("github: user not found: %s", subject)
	case http.StatusForbidden:
		e.Message = "github: rate limit exceeded"
	default:
		e.Message = fmt.Sprintf("github api error: status %d", status)
	}
	return e
}

func GeminiAPI(cause error, format string, args ...any) *Error {
	return newError(ErrGeminiAPI, cause, format, args...)
}

func Authentication(format string, args ...any) *Error {
	return newError(ErrAuthentication, nil, format, args...)
}

func Interrupted() *Error {
	return newError(ErrInterrupted, nil, "interrupted")
}

// CodeOf maps any error to an exit code.
func CodeOf(err error) Code {
	if err == nil {
		return CodeSuccess
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	if errors.Is(err, context.Canceled) {
		return CodeInterrupted
	}
	return CodeGeneral
}
