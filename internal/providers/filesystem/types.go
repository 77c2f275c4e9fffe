package filesystem

import (
	"context"
	"time"

	"github.com/GriffinCanCode/fileshelf/internal/providers/fetch"
)

// Location is a resolved, contained filesystem location
type Location struct {
	// Abs is the lexical absolute path under the root
	Abs string
	// Real is Abs with symlinks evaluated
	Real string
	// Rel is the slash-separated path relative to the root, "" for the root
	Rel string
}

// IsRoot reports whether the location addresses the root directory itself
func (l Location) IsRoot() bool {
	return l.Rel == ""
}

// DirEntry is one listed child of a directory
type DirEntry struct {
	Name     string    `json:"name"`
	AbsPath  string    `json:"abs_path"`
	RelPath  string    `json:"rel_path"`
	IsDir    bool      `json:"is_dir"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Breadcrumb is one ancestor step of a relative path
type Breadcrumb struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// DeletedKind describes what Delete removed
type DeletedKind int

const (
	DeletedFile DeletedKind = iota
	DeletedDirectory
	DeletedOther
)

// String returns the user-facing noun for the kind
func (k DeletedKind) String() string {
	switch k {
	case DeletedFile:
		return "File"
	case DeletedDirectory:
		return "Directory"
	default:
		return "Item"
	}
}

// Fetcher retrieves a remote resource into a local file
type Fetcher interface {
	Fetch(ctx context.Context, req fetch.Request) error
}

// LinkRequest describes one fetch-and-link operation
type LinkRequest struct {
	URL       string
	Filename  string
	TargetDir string // relative path of the target directory, possibly URL-encoded
}

// LinkResult reports a completed fetch-and-link operation
type LinkResult struct {
	LinkPath    string
	LinkRel     string
	StagingPath string
}
