package fetch

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Default fetch bounds
const (
	DefaultTimeout = 300 * time.Second
	DefaultTries   = 3
)

var (
	// ErrToolUnavailable means the download tool is not installed or not executable
	ErrToolUnavailable = errors.New("download tool not available")
	// ErrTimeout means the fetch did not finish within its timeout
	ErrTimeout = errors.New("download timed out")
	// ErrFailed means the tool ran (or the request was made) and failed
	ErrFailed = errors.New("download failed")
)

// Request describes one fetch of URL into the local file Dest
type Request struct {
	URL     string
	Dest    string
	Timeout time.Duration
	Tries   int
}

func (r Request) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

func (r Request) tries() int {
	if r.Tries <= 0 {
		return DefaultTries
	}
	return r.Tries
}

// ExitError reports a download tool that ran and exited non-zero
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("download failed (exit code %d)", e.Code)
	}
	return fmt.Sprintf("download failed (exit code %d): %s", e.Code, e.Stderr)
}

// Unwrap makes errors.Is(err, ErrFailed) hold
func (e *ExitError) Unwrap() error {
	return ErrFailed
}

// WithToken returns rawURL with token added as the "token" query parameter,
// keeping any query the URL already has.
func WithToken(rawURL, token string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Redact hides the token query parameter of rawURL for logging
func Redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<unparseable url>"
	}
	q := u.Query()
	if q.Has("token") {
		q.Set("token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
