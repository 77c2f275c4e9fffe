package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
)

// Lister enumerates the immediate children of a directory
type Lister struct{}

// NewLister creates a directory lister
func NewLister() *Lister {
	return &Lister{}
}

// List returns the regular files and directories directly under loc, sorted
// case-insensitively by name. Children whose metadata cannot be read (broken
// links, permission denied) or that are neither files nor directories are
// skipped; only a failure to enumerate loc itself is an error.
func (l *Lister) List(loc Location) ([]DirEntry, error) {
	dir := loc.Real
	if dir == "" {
		dir = loc.Abs
	}

	children, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, loc.Abs, err)
	}

	entries := make([]DirEntry, 0, len(children))
	for _, child := range children {
		name := child.Name()
		abs := filepath.Join(loc.Abs, name)

		// Stat follows links so linked files are listed by their target type
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		if !info.IsDir() && !info.Mode().IsRegular() {
			continue
		}

		entries = append(entries, DirEntry{
			Name:     name,
			AbsPath:  abs,
			RelPath:  EncodePath(childRel(loc.Rel, name)),
			IsDir:    info.IsDir(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := strings.ToLower(entries[i].Name), strings.ToLower(entries[j].Name)
		if a != b {
			return a < b
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// ScanOptions bounds a recursive subdirectory scan
type ScanOptions struct {
	// MaxDepth limits how deep the scan descends (0 = unlimited)
	MaxDepth int
	// Exclude holds doublestar patterns matched against relative paths;
	// matching directories are skipped along with their subtrees
	Exclude []string
}

// Scanner enumerates every subdirectory under the root
type Scanner struct {
	resolver *Resolver
	opts     ScanOptions
}

// NewScanner creates a scanner over the resolver's root
func NewScanner(resolver *Resolver, opts ScanOptions) (*Scanner, error) {
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: bad exclude pattern %q", ErrInvalidInput, pattern)
		}
	}
	return &Scanner{resolver: resolver, opts: opts}, nil
}

// Subdirectories returns the relative paths of all directories below the
// root, sorted lexicographically, excluding the root itself. Symlinked
// directories are not descended, which rules out cycles.
func (s *Scanner) Subdirectories(ctx context.Context) ([]string, error) {
	root := s.resolver.real

	var (
		mu   sync.Mutex
		dirs = []string{}
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil // Skip unreadable subtrees
		}
		if p == root || !d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if s.opts.MaxDepth > 0 && strings.Count(rel, "/")+1 > s.opts.MaxDepth {
			return filepath.SkipDir
		}
		if s.excluded(rel) {
			return filepath.SkipDir
		}

		mu.Lock()
		dirs = append(dirs, rel)
		mu.Unlock()
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, root, err)
	}

	sort.Strings(dirs)
	return dirs, nil
}

func (s *Scanner) excluded(rel string) bool {
	for _, pattern := range s.opts.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
