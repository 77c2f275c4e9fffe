// Package filesystem provides the path-safety and traversal layer of fileshelf.
//
// This package is organized into specialized modules:
//   - paths: Resolution of untrusted, URL-encoded subpaths into contained locations
//   - directory: Directory listing and recursive subdirectory scanning
//   - navigation: Breadcrumbs and parent links derived from relative paths
//   - delete: Removal of files, directory subtrees and links
//   - link: Fetching remote files into a staging area and linking them into the tree
//
// All operations:
//   - Go through the Resolver before touching the filesystem
//   - Compare paths by segment, never by raw string prefix
//   - Report failures as wrapped sentinel errors (see errors.go)
//
// Symlink policy:
//   - Resolve follows symlinks; a canonical path outside the root (and outside
//     every trusted link root) is rejected with ErrPathEscape
//   - ResolveEntry follows symlinks in the parent only, so a link itself can be
//     deleted even when its target lies outside the root
//
// Example Usage:
//
//	resolver, err := filesystem.NewResolver("/srv/models", "/tmp")
//	loc, err := resolver.Resolve("example_subdir%2Fnested")
//	entries, err := filesystem.NewLister().List(loc)
package filesystem
