package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Deleter removes files, directory subtrees and links under the root
type Deleter struct {
	resolver *Resolver
	logger   *zap.Logger
}

// NewDeleter creates a deleter bound to the resolver's root
func NewDeleter(resolver *Resolver, logger *zap.Logger) *Deleter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deleter{resolver: resolver, logger: logger}
}

// Delete removes the item at loc, which should come from ResolveEntry so a
// symlink is removed as a link. The root itself is never deleted and is
// rejected before any filesystem access.
func (d *Deleter) Delete(loc Location) (DeletedKind, error) {
	target := loc.Real
	if target == "" {
		target = loc.Abs
	}
	if loc.IsRoot() || filepath.Clean(loc.Abs) == d.resolver.root || target == d.resolver.real {
		return DeletedOther, ErrRootDelete
	}

	info, err := os.Lstat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			d.logger.Warn("Attempt to delete non-existent item", zap.String("path", loc.Abs))
			return DeletedOther, fmt.Errorf("%w: %s", ErrNotFound, loc.Rel)
		}
		return DeletedOther, fmt.Errorf("%w: %s: %v", ErrDeleteFailed, loc.Rel, err)
	}

	kind := DeletedOther
	switch {
	case info.IsDir():
		kind = DeletedDirectory
		err = os.RemoveAll(target)
	case info.Mode().IsRegular():
		kind = DeletedFile
		err = os.Remove(target)
	default:
		// Symlinks (dangling or not), sockets, fifos
		err = os.Remove(target)
	}
	if err != nil {
		d.logger.Error("Delete failed", zap.String("path", loc.Abs), zap.Error(err))
		return kind, fmt.Errorf("%w: %s: %v", ErrDeleteFailed, loc.Rel, err)
	}

	d.logger.Info("Deleted item",
		zap.String("path", loc.Abs),
		zap.String("kind", kind.String()),
	)
	return kind, nil
}
