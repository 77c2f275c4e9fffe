package filesystem

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// EncodePath URL-encodes a relative path segment by segment, keeping the
// slashes between segments.
func EncodePath(rel string) string {
	if rel == "" {
		return ""
	}
	parts := strings.Split(rel, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// Breadcrumbs returns the ancestry of rel, one entry per segment, each
// carrying the encoded cumulative prefix. The root has no breadcrumbs.
func Breadcrumbs(rel string) []Breadcrumb {
	rel = strings.Trim(rel, "/")
	if rel == "" {
		return []Breadcrumb{}
	}

	parts := strings.Split(rel, "/")
	crumbs := make([]Breadcrumb, 0, len(parts))
	for i, part := range parts {
		crumbs = append(crumbs, Breadcrumb{
			Name: part,
			Path: EncodePath(strings.Join(parts[:i+1], "/")),
		})
	}
	return crumbs
}

// DisplayPath renders rel for humans, anchored at "Root"
func DisplayPath(rel string) string {
	if rel == "" {
		return "Root"
	}
	return "Root/" + rel
}

// ParentOf returns the encoded relative path of loc's parent directory.
// ok is false exactly when loc is the root.
func (r *Resolver) ParentOf(loc Location) (parent string, ok bool) {
	if filepath.Clean(loc.Abs) == r.root {
		return "", false
	}
	dir := path.Dir(loc.Rel)
	if dir == "." {
		return "", true
	}
	return EncodePath(dir), true
}

// childRel joins a child name onto a relative directory path
func childRel(dirRel, name string) string {
	if dirRel == "" {
		return name
	}
	return dirRel + "/" + name
}
