package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Resolver maps untrusted subpaths onto locations contained in a root directory
type Resolver struct {
	root    string
	real    string
	trusted []string
}

// NewResolver creates a resolver for root. The root must exist and be a
// directory. Trusted link roots are directories outside the root that
// canonicalized paths may land in (the staging directory links point into).
func NewResolver(root string, trusted ...string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid root %q: %w", root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("root %s: %w", abs, ErrNotFound)
		}
		return nil, fmt.Errorf("root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s: %w", abs, ErrNotDirectory)
	}

	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("root %s: %w", abs, err)
	}

	r := &Resolver{root: abs, real: real}
	for _, dir := range trusted {
		if dir == "" {
			continue
		}
		t, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted link root %q: %w", dir, err)
		}
		if c, err := canonical(t); err == nil {
			t = c
		}
		r.trusted = append(r.trusted, t)
	}
	return r, nil
}

// Root returns the absolute root directory
func (r *Resolver) Root() string {
	return r.root
}

// Resolve decodes and validates raw, following symlinks all the way.
func (r *Resolver) Resolve(raw string) (Location, error) {
	loc, err := r.lexical(raw)
	if err != nil {
		return Location{}, err
	}

	real, err := canonical(loc.Abs)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %q: %v", ErrPathEscape, raw, err)
	}
	if !r.allowed(real) {
		return Location{}, fmt.Errorf("%w: %q resolves to %s", ErrPathEscape, raw, real)
	}

	loc.Real = real
	return loc, nil
}

// ResolveEntry is like Resolve but does not follow a symlink in the final
// element, so the returned location addresses the link itself.
func (r *Resolver) ResolveEntry(raw string) (Location, error) {
	loc, err := r.lexical(raw)
	if err != nil {
		return Location{}, err
	}
	if loc.IsRoot() {
		loc.Real = r.real
		return loc, nil
	}

	parent, err := canonical(filepath.Dir(loc.Abs))
	if err != nil {
		return Location{}, fmt.Errorf("%w: %q: %v", ErrPathEscape, raw, err)
	}
	if !Contains(r.real, parent) {
		return Location{}, fmt.Errorf("%w: parent of %q resolves to %s", ErrPathEscape, raw, parent)
	}

	loc.Real = filepath.Join(parent, filepath.Base(loc.Abs))
	return loc, nil
}

// ToRelative maps an absolute path under the root back to its relative path.
func (r *Resolver) ToRelative(abs string) (string, error) {
	abs = filepath.Clean(abs)
	for _, base := range []string{r.root, r.real} {
		if !Contains(base, abs) {
			continue
		}
		rel, err := filepath.Rel(base, abs)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrPathEscape, abs, err)
		}
		if rel == "." {
			return "", nil
		}
		return filepath.ToSlash(rel), nil
	}
	return "", fmt.Errorf("%w: %s", ErrPathEscape, abs)
}

// lexical performs the pure path arithmetic part of resolution
func (r *Resolver) lexical(raw string) (Location, error) {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %q: %v", ErrPathEscape, raw, err)
	}

	for _, c := range decoded {
		if c == 0 || unicode.IsControl(c) {
			return Location{}, fmt.Errorf("%w: %q contains control characters", ErrPathEscape, raw)
		}
	}

	clean := filepath.Clean(filepath.FromSlash(decoded))
	clean = strings.TrimLeft(clean, string(filepath.Separator))
	if clean == "" || clean == "." {
		return Location{Abs: r.root, Rel: ""}, nil
	}

	abs := filepath.Join(r.root, clean)
	if !Contains(r.root, abs) {
		return Location{}, fmt.Errorf("%w: %q", ErrPathEscape, raw)
	}

	rel, err := r.ToRelative(abs)
	if err != nil {
		return Location{}, err
	}
	return Location{Abs: abs, Rel: rel}, nil
}

func (r *Resolver) allowed(real string) bool {
	if Contains(r.real, real) {
		return true
	}
	for _, t := range r.trusted {
		if Contains(t, real) {
			return true
		}
	}
	return false
}

// Contains reports whether p equals root or lies beneath it.
// Comparison is per path segment: /data does not contain /data-evil.
func Contains(root, p string) bool {
	root = filepath.Clean(root)
	p = filepath.Clean(p)
	if p == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}

// canonical evaluates symlinks in p. Missing trailing elements are kept
// lexically on top of the deepest existing ancestor, so a dangling link
// resolves to the link itself.
func canonical(p string) (string, error) {
	real, err := filepath.EvalSymlinks(p)
	if err == nil {
		return real, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	parent := filepath.Dir(p)
	if parent == p {
		return p, nil
	}
	realParent, err := canonical(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(realParent, filepath.Base(p)), nil
}
