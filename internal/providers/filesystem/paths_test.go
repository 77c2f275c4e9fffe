package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/fileshelf/internal/testutil"
)

func newTestResolver(t *testing.T, trusted ...string) (*Resolver, string) {
	t.Helper()
	root := filepath.Join(testutil.RealTempDir(t), "data")
	testutil.Tree(t, root,
		"welcome.txt",
		"example_subdir/nested_file.md",
		"with space/file name.txt",
		"empty/",
	)
	r, err := NewResolver(root, trusted...)
	require.NoError(t, err)
	return r, root
}

func TestNewResolver(t *testing.T) {
	base := testutil.RealTempDir(t)
	testutil.Tree(t, base, "file.txt")

	t.Run("missing root", func(t *testing.T) {
		_, err := NewResolver(filepath.Join(base, "missing"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("root is a file", func(t *testing.T) {
		_, err := NewResolver(filepath.Join(base, "file.txt"))
		assert.ErrorIs(t, err, ErrNotDirectory)
	})

	t.Run("valid root", func(t *testing.T) {
		r, err := NewResolver(base)
		require.NoError(t, err)
		assert.Equal(t, base, r.Root())
	})
}

func TestResolveRoot(t *testing.T) {
	r, root := newTestResolver(t)

	for _, raw := range []string{"", ".", "/", "//", "./.", "a/.."} {
		t.Run(raw, func(t *testing.T) {
			loc, err := r.Resolve(raw)
			require.NoError(t, err)
			assert.Equal(t, root, loc.Abs)
			assert.Equal(t, root, loc.Real)
			assert.Equal(t, "", loc.Rel)
			assert.True(t, loc.IsRoot())
		})
	}
}

func TestResolve(t *testing.T) {
	r, root := newTestResolver(t)

	tests := []struct {
		name    string
		raw     string
		wantRel string
	}{
		{name: "plain file", raw: "welcome.txt", wantRel: "welcome.txt"},
		{name: "nested", raw: "example_subdir/nested_file.md", wantRel: "example_subdir/nested_file.md"},
		{name: "leading slash", raw: "/example_subdir", wantRel: "example_subdir"},
		{name: "repeated separators", raw: "example_subdir//nested_file.md", wantRel: "example_subdir/nested_file.md"},
		{name: "encoded slash", raw: "example_subdir%2Fnested_file.md", wantRel: "example_subdir/nested_file.md"},
		{name: "encoded space", raw: "with%20space/file%20name.txt", wantRel: "with space/file name.txt"},
		{name: "inner dot-dot", raw: "example_subdir/../welcome.txt", wantRel: "welcome.txt"},
		{name: "rooted dot-dot collapses at root", raw: "/../welcome.txt", wantRel: "welcome.txt"},
		{name: "missing path still resolves", raw: "does/not/exist", wantRel: "does/not/exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := r.Resolve(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRel, loc.Rel)
			assert.Equal(t, filepath.Join(root, filepath.FromSlash(tt.wantRel)), loc.Abs)
			assert.True(t, Contains(root, loc.Real))
		})
	}
}

func TestResolveRejectsEscapes(t *testing.T) {
	r, _ := newTestResolver(t)

	tests := []struct {
		name string
		raw  string
	}{
		{name: "parent", raw: ".."},
		{name: "relative dot-dot is not collapsed", raw: "../welcome.txt"},
		{name: "grandparent", raw: "../.."},
		{name: "climb out", raw: "example_subdir/../../etc/passwd"},
		{name: "encoded dot-dot", raw: "%2e%2e/%2e%2e/etc"},
		{name: "encoded slash dot-dot", raw: "..%2F..%2Fetc"},
		{name: "null byte", raw: "welcome.txt%00.png"},
		{name: "raw null byte", raw: "welcome\x00.txt"},
		{name: "newline", raw: "welcome%0A.txt"},
		{name: "bad escape", raw: "%zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.raw)
			assert.ErrorIs(t, err, ErrPathEscape)

			_, err = r.ResolveEntry(tt.raw)
			assert.ErrorIs(t, err, ErrPathEscape)
		})
	}
}

func TestResolveNeverLeavesRoot(t *testing.T) {
	r, root := newTestResolver(t)

	segments := []string{"..", ".", "example_subdir", "x", "", "%2e%2e", "/"}
	var inputs []string
	for _, a := range segments {
		for _, b := range segments {
			for _, c := range segments {
				inputs = append(inputs, a+"/"+b+"/"+c, a+b+"/"+c, "/"+a+"/"+b+c)
			}
		}
	}

	for _, raw := range inputs {
		loc, err := r.Resolve(raw)
		if err != nil {
			assert.ErrorIs(t, err, ErrPathEscape, "raw=%q", raw)
			continue
		}
		assert.True(t, Contains(root, loc.Abs), "raw=%q abs=%q", raw, loc.Abs)
		assert.True(t, Contains(root, loc.Real), "raw=%q real=%q", raw, loc.Real)
	}
}

// A raw string prefix check would let a root of /data match /data-evil.
func TestResolveSegmentPrefix(t *testing.T) {
	r, root := newTestResolver(t)
	evil := root + "-evil"
	testutil.Tree(t, evil, "secret")

	_, err := r.Resolve("../data-evil/secret")
	assert.ErrorIs(t, err, ErrPathEscape)

	assert.False(t, Contains(root, filepath.Join(evil, "secret")))
	assert.False(t, Contains("/data", "/data-evil/secret"))
	assert.False(t, Contains("/data", "/datastore"))
	assert.True(t, Contains("/data", "/data"))
	assert.True(t, Contains("/data", "/data/x/y"))
	assert.True(t, Contains("/", "/anything"))
}

func TestResolveSymlinks(t *testing.T) {
	r, root := newTestResolver(t)
	outside := root + "-evil"
	testutil.Tree(t, outside, "secret")

	require.NoError(t, os.Symlink(outside, filepath.Join(root, "escape")))
	require.NoError(t, os.Symlink(filepath.Join(root, "example_subdir"), filepath.Join(root, "alias")))
	require.NoError(t, os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "dangling")))

	t.Run("link leaving root is rejected", func(t *testing.T) {
		_, err := r.Resolve("escape")
		assert.ErrorIs(t, err, ErrPathEscape)

		_, err = r.Resolve("escape/secret")
		assert.ErrorIs(t, err, ErrPathEscape)
	})

	t.Run("link leaving root is addressable as an entry", func(t *testing.T) {
		loc, err := r.ResolveEntry("escape")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "escape"), loc.Real)
	})

	t.Run("entry under an escaping link is rejected", func(t *testing.T) {
		_, err := r.ResolveEntry("escape/secret")
		assert.ErrorIs(t, err, ErrPathEscape)
	})

	t.Run("link inside root is followed", func(t *testing.T) {
		loc, err := r.Resolve("alias/nested_file.md")
		require.NoError(t, err)
		assert.Equal(t, "alias/nested_file.md", loc.Rel)
		assert.Equal(t, filepath.Join(root, "example_subdir", "nested_file.md"), loc.Real)
	})

	t.Run("dangling link resolves to itself", func(t *testing.T) {
		loc, err := r.Resolve("dangling")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "dangling"), loc.Real)
	})
}

func TestResolveTrustedLinkRoot(t *testing.T) {
	staging := testutil.RealTempDir(t)
	testutil.Tree(t, staging, "model.bin")

	r, root := newTestResolver(t, staging)
	require.NoError(t, os.Symlink(filepath.Join(staging, "model.bin"), filepath.Join(root, "model.bin")))

	loc, err := r.Resolve("model.bin")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(staging, "model.bin"), loc.Real)
	assert.Equal(t, "model.bin", loc.Rel)
}

func TestToRelative(t *testing.T) {
	r, root := newTestResolver(t)

	rel, err := r.ToRelative(root)
	require.NoError(t, err)
	assert.Equal(t, "", rel)

	rel, err = r.ToRelative(filepath.Join(root, "example_subdir", "nested_file.md"))
	require.NoError(t, err)
	assert.Equal(t, "example_subdir/nested_file.md", rel)

	_, err = r.ToRelative(filepath.Dir(root))
	assert.ErrorIs(t, err, ErrPathEscape)

	_, err = r.ToRelative(root + "-evil")
	assert.ErrorIs(t, err, ErrPathEscape)
}

func TestResolveRoundTrip(t *testing.T) {
	r, _ := newTestResolver(t)

	for _, raw := range []string{"", "welcome.txt", "with%20space/file%20name.txt", "example_subdir/./nested_file.md", "/a//b/../c"} {
		t.Run(raw, func(t *testing.T) {
			first, err := r.Resolve(raw)
			require.NoError(t, err)

			rel, err := r.ToRelative(first.Abs)
			require.NoError(t, err)

			second, err := r.Resolve(EncodePath(rel))
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}
