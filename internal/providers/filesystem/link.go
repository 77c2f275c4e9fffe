package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/fileshelf/internal/providers/fetch"
)

var filenamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// LinkerConfig holds the fixed parameters of fetch-and-link
type LinkerConfig struct {
	// StagingDir receives fetched artifacts. It is shared by all requests.
	StagingDir string
	// Token is appended to every source URL as the "token" query parameter
	Token   string
	Timeout time.Duration
	Tries   int
}

// Linker fetches remote files into the staging directory and symlinks them
// into the tree.
//
// The staging directory is shared. Each fetch writes to its own partial file
// and is renamed onto the staging name only once complete, so a failed fetch
// never touches an artifact another link points at. Two successful fetches of
// the same filename still replace each other: the last rename wins.
type Linker struct {
	resolver *Resolver
	fetcher  Fetcher
	cfg      LinkerConfig
	logger   *zap.Logger
}

// NewLinker creates a linker
func NewLinker(resolver *Resolver, fetcher Fetcher, cfg LinkerConfig, logger *zap.Logger) *Linker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Linker{resolver: resolver, fetcher: fetcher, cfg: cfg, logger: logger}
}

// StagingDir returns the directory fetched artifacts are written to
func (l *Linker) StagingDir() string {
	return l.cfg.StagingDir
}

// ValidateFilename accepts only letters, digits, '.', '_' and '-', and
// rejects any name containing "..".
func ValidateFilename(name string) error {
	if name == "" {
		return fmt.Errorf("%w: filename is required", ErrInvalidFilename)
	}
	if name == "." || strings.Contains(name, "..") || !filenamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q: use only letters, numbers, dot, underscore, hyphen", ErrInvalidFilename, name)
	}
	return nil
}

// Link runs validate, fetch, link. A fetch failure removes this request's
// partial download; a link failure keeps the artifact and reports its path in
// a *LinkError.
func (l *Linker) Link(ctx context.Context, req LinkRequest) (*LinkResult, error) {
	target, linkPath, err := l.validate(req)
	if err != nil {
		return nil, err
	}

	staging := filepath.Join(l.cfg.StagingDir, req.Filename)
	source, err := fetch.WithToken(req.URL, l.cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("%w: url: %v", ErrInvalidInput, err)
	}

	part, err := l.partial(req.Filename)
	if err != nil {
		return nil, fmt.Errorf("%w: staging: %v", ErrFetchFailed, err)
	}

	err = l.fetcher.Fetch(ctx, fetch.Request{
		URL:     source,
		Dest:    part,
		Timeout: l.cfg.Timeout,
		Tries:   l.cfg.Tries,
	})
	if err != nil {
		l.discard(part)
		l.logger.Error("Fetch failed",
			zap.String("url", fetch.Redact(source)),
			zap.String("partial", part),
			zap.Error(err),
		)
		return nil, fetchError(err)
	}

	if err := os.Rename(part, staging); err != nil {
		l.discard(part)
		return nil, fmt.Errorf("%w: staging %s: %v", ErrFetchFailed, staging, err)
	}

	// Symlink fails with EEXIST if something appeared since validation
	if err := os.Symlink(staging, linkPath); err != nil {
		l.logger.Error("Failed to create symlink",
			zap.String("link", linkPath),
			zap.String("staging", staging),
			zap.Error(err),
		)
		return nil, &LinkError{LinkPath: linkPath, StagingPath: staging, Err: err}
	}

	l.logger.Info("Created symlink", zap.String("link", linkPath), zap.String("staging", staging))
	return &LinkResult{
		LinkPath:    linkPath,
		LinkRel:     childRel(target.Rel, req.Filename),
		StagingPath: staging,
	}, nil
}

func (l *Linker) validate(req LinkRequest) (Location, string, error) {
	if strings.TrimSpace(req.URL) == "" {
		return Location{}, "", fmt.Errorf("%w: url is required", ErrInvalidInput)
	}
	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Location{}, "", fmt.Errorf("%w: %q is not an http(s) url", ErrInvalidInput, req.URL)
	}

	if err := ValidateFilename(req.Filename); err != nil {
		return Location{}, "", err
	}

	target, err := l.resolver.Resolve(req.TargetDir)
	if err != nil {
		return Location{}, "", err
	}
	info, err := os.Stat(target.Real)
	if err != nil {
		return Location{}, "", fmt.Errorf("%w: target directory %q: %v", ErrNotFound, req.TargetDir, err)
	}
	if !info.IsDir() {
		return Location{}, "", fmt.Errorf("%w: target %q", ErrNotDirectory, req.TargetDir)
	}

	linkPath := filepath.Join(target.Real, req.Filename)
	if _, err := os.Lstat(linkPath); err == nil {
		return Location{}, "", fmt.Errorf("%w: %q in %s", ErrAlreadyExists, req.Filename, DisplayPath(target.Rel))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Location{}, "", fmt.Errorf("%w: %s: %v", ErrLinkFailed, linkPath, err)
	}
	return target, linkPath, nil
}

// partial reserves a hidden file next to the staging name for one fetch
func (l *Linker) partial(filename string) (string, error) {
	f, err := os.CreateTemp(l.cfg.StagingDir, "."+filename+"-*.part")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		l.discard(name)
		return "", err
	}
	// CreateTemp uses 0600; downloaded artifacts are ordinary readable files
	if err := os.Chmod(name, 0o644); err != nil {
		l.discard(name)
		return "", err
	}
	return name, nil
}

func (l *Linker) discard(part string) {
	if err := os.Remove(part); err != nil && !errors.Is(err, fs.ErrNotExist) {
		l.logger.Warn("Failed to remove partial download", zap.String("partial", part), zap.Error(err))
	}
}

func fetchError(err error) error {
	switch {
	case errors.Is(err, fetch.ErrToolUnavailable):
		return fmt.Errorf("%w: %w", ErrToolUnavailable, err)
	case errors.Is(err, fetch.ErrTimeout):
		return fmt.Errorf("%w: %w", ErrFetchTimeout, err)
	default:
		return fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
}
