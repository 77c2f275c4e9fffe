package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/fileshelf/internal/testutil"
)

func TestDeleteRootIsRejected(t *testing.T) {
	r, root := newTestResolver(t)
	d := NewDeleter(r, zap.NewNop())

	for _, raw := range []string{"", ".", "/", "example_subdir/.."} {
		loc, err := r.ResolveEntry(raw)
		require.NoError(t, err)

		_, err = d.Delete(loc)
		assert.ErrorIs(t, err, ErrRootDelete)
	}

	assert.True(t, testutil.Exists(filepath.Join(root, "welcome.txt")))
}

func TestDeleteFile(t *testing.T) {
	r, root := newTestResolver(t)
	d := NewDeleter(r, nil)

	loc, err := r.ResolveEntry("welcome.txt")
	require.NoError(t, err)

	kind, err := d.Delete(loc)
	require.NoError(t, err)
	assert.Equal(t, DeletedFile, kind)
	assert.False(t, testutil.Exists(filepath.Join(root, "welcome.txt")))
}

func TestDeleteDirectoryTree(t *testing.T) {
	r, root := newTestResolver(t)
	testutil.Tree(t, root, "deep/a/b/c.txt", "deep/d/")
	d := NewDeleter(r, nil)

	loc, err := r.ResolveEntry("deep")
	require.NoError(t, err)

	kind, err := d.Delete(loc)
	require.NoError(t, err)
	assert.Equal(t, DeletedDirectory, kind)
	assert.False(t, testutil.Exists(filepath.Join(root, "deep")))
	assert.True(t, testutil.Exists(filepath.Join(root, "example_subdir")))
}

func TestDeleteSymlinks(t *testing.T) {
	r, root := newTestResolver(t)
	outside := root + "-evil"
	testutil.Tree(t, outside, "secret")
	d := NewDeleter(r, nil)

	require.NoError(t, os.Symlink(outside, filepath.Join(root, "escape")))
	require.NoError(t, os.Symlink(filepath.Join(root, "example_subdir"), filepath.Join(root, "alias")))
	require.NoError(t, os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "dangling")))

	for _, name := range []string{"escape", "alias", "dangling"} {
		t.Run(name, func(t *testing.T) {
			loc, err := r.ResolveEntry(name)
			require.NoError(t, err)

			kind, err := d.Delete(loc)
			require.NoError(t, err)
			assert.Equal(t, DeletedOther, kind)
			assert.False(t, testutil.Exists(filepath.Join(root, name)))
		})
	}

	// Link targets are untouched
	assert.True(t, testutil.Exists(filepath.Join(outside, "secret")))
	assert.True(t, testutil.Exists(filepath.Join(root, "example_subdir", "nested_file.md")))
}

func TestDeleteMissingIsNotFound(t *testing.T) {
	r, root := newTestResolver(t)
	d := NewDeleter(r, nil)

	before, err := os.ReadDir(root)
	require.NoError(t, err)

	loc, err := r.ResolveEntry("no/such/item")
	require.NoError(t, err)

	_, err = d.Delete(loc)
	assert.ErrorIs(t, err, ErrNotFound)

	after, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after))
}

func TestDeleteFailureIsReported(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	r, root := newTestResolver(t)
	testutil.Tree(t, root, "locked/file.txt")
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o555))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	loc, err := r.ResolveEntry("locked/file.txt")
	require.NoError(t, err)

	_, err = NewDeleter(r, nil).Delete(loc)
	assert.ErrorIs(t, err, ErrDeleteFailed)
	assert.True(t, testutil.Exists(filepath.Join(locked, "file.txt")))
}
