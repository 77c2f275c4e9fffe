// Package testutil provides testing utilities and helpers for fileshelf tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/fileshelf/internal/providers/fetch"
)

// MockFetcher is a mock implementation of the fetch collaborator.
type MockFetcher struct {
	mock.Mock
}

// Fetch mocks the Fetch method.
func (m *MockFetcher) Fetch(ctx context.Context, req fetch.Request) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// NewMockFetcher creates a mock fetcher with no default behavior, so any
// unexpected call fails the test.
func NewMockFetcher(t *testing.T) *MockFetcher {
	t.Helper()
	m := new(MockFetcher)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// WriteDest returns a Run function that writes content to the request's Dest,
// simulating a download that produced a file.
func WriteDest(content string) func(args mock.Arguments) {
	return func(args mock.Arguments) {
		req := args.Get(1).(fetch.Request)
		_ = os.WriteFile(req.Dest, []byte(content), 0o644)
	}
}

// Tree creates files and directories under root. Entries ending in "/" are
// directories; everything else is a file containing its own name.
func Tree(t *testing.T, root string, entries ...string) {
	t.Helper()
	for _, e := range entries {
		p := filepath.Join(root, filepath.FromSlash(e))
		if strings.HasSuffix(e, "/") {
			require.NoError(t, os.MkdirAll(p, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(e), 0o644))
	}
}

// RealTempDir returns t.TempDir() with symlinks evaluated, so paths compare
// equal to canonicalized results on systems where the temp dir is a link.
func RealTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

// Exists reports whether anything (including a dangling link) is at p.
func Exists(p string) bool {
	_, err := os.Lstat(p)
	return err == nil
}
