package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CommandFetcher downloads through an external wget-compatible tool
type CommandFetcher struct {
	Tool   string
	logger *zap.Logger
}

// NewCommandFetcher creates a fetcher that runs tool (looked up in PATH)
func NewCommandFetcher(tool string, logger *zap.Logger) *CommandFetcher {
	if tool == "" {
		tool = "wget"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandFetcher{Tool: tool, logger: logger}
}

// Fetch runs the tool and waits for it, bounded by req.Timeout. It tells
// apart a missing tool, a timeout, and a tool that ran and failed.
func (f *CommandFetcher) Fetch(ctx context.Context, req Request) error {
	path, err := exec.LookPath(f.Tool)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrToolUnavailable, f.Tool, err)
	}

	ctx, cancel := context.WithTimeout(ctx, req.timeout())
	defer cancel()

	args := []string{
		"-O", req.Dest,
		"--no-verbose",
		"--tries=" + strconv.Itoa(req.tries()),
		req.URL,
	}
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	f.logger.Info("Running download tool",
		zap.String("tool", path),
		zap.String("url", Redact(req.URL)),
		zap.String("dest", req.Dest),
		zap.Int("tries", req.tries()),
		zap.Duration("timeout", req.timeout()),
	)

	start := time.Now()
	err = cmd.Run()
	if err == nil {
		f.logger.Info("Download tool succeeded",
			zap.String("url", Redact(req.URL)),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("stdout", strings.TrimSpace(stdout.String())),
			zap.String("stderr", strings.TrimSpace(stderr.String())),
		)
		return nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, req.timeout())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode(), Stderr: strings.TrimSpace(stderr.String())}
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %s: %v", ErrToolUnavailable, f.Tool, err)
	}
	return fmt.Errorf("%w: %v", ErrFailed, err)
}
