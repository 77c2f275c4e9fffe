package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/fileshelf/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/fileshelf/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/fileshelf/internal/providers/fetch"
	"github.com/GriffinCanCode/fileshelf/internal/providers/filesystem"
)

// Route prefixes
const (
	BrowsePrefix   = "/browse/"
	RawPrefix      = "/raw/"
	DeletePrefix   = "/delete/"
	DownloadRoute  = "/download"
	subpathParam   = "subpath"
	notFoundDetail = "Path not found or access denied."
)

// Handlers contains all HTTP handlers
type Handlers struct {
	resolver *filesystem.Resolver
	lister   *filesystem.Lister
	scanner  *filesystem.Scanner
	deleter  *filesystem.Deleter
	linker   *filesystem.Linker
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(
	resolver *filesystem.Resolver,
	lister *filesystem.Lister,
	scanner *filesystem.Scanner,
	deleter *filesystem.Deleter,
	linker *filesystem.Linker,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		resolver: resolver,
		lister:   lister,
		scanner:  scanner,
		deleter:  deleter,
		linker:   linker,
		metrics:  metrics,
		logger:   logger,
	}
}

// Register mounts the file browser routes. gate guards the mutating ones.
func (h *Handlers) Register(r gin.IRoutes, gate gin.HandlerFunc) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET(BrowsePrefix+"*"+subpathParam, h.Browse)
	r.GET(RawPrefix+"*"+subpathParam, h.Raw)
	r.GET(DeletePrefix+"*"+subpathParam, gate, h.Delete)
	r.GET(DownloadRoute, h.DownloadForm)
	r.POST(DownloadRoute, gate, h.FetchAndLink)
}

// Root redirects to the browser
func (h *Handlers) Root(c *gin.Context) {
	c.Redirect(http.StatusFound, BrowsePrefix)
}

// Health handles health check
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{
		"status":  "healthy",
		"service": "fileshelf",
		"root":    filepath.Base(h.resolver.Root()),
	}
	if h.metrics != nil {
		resp["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// Browse returns the listing view of a directory
func (h *Handlers) Browse(c *gin.Context) {
	sub := rawSubpath(c, BrowsePrefix)

	loc, err := h.resolver.Resolve(sub)
	if err != nil {
		h.logger.Warn("Rejected browse path", zap.String("subpath", sub), zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundDetail})
		return
	}

	info, err := os.Stat(loc.Real)
	if err != nil {
		h.logger.Warn("Browse path does not exist", zap.String("subpath", sub), zap.String("path", loc.Abs))
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundDetail})
		return
	}
	if !info.IsDir() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Path is not a directory."})
		return
	}

	timer := monitoring.NewTimer(h.metrics, monitoring.OpList)
	items, err := h.lister.List(loc)
	if err != nil {
		timer.Stop("error")
		h.logger.Error("Failed to list directory", zap.String("path", loc.Abs), zap.Error(err))

		parent, ok := h.resolver.ParentOf(loc)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error accessing directory: " + cause(err)})
			return
		}
		flash(c, LevelDanger, "Error accessing directory: "+cause(err))
		c.Redirect(http.StatusSeeOther, browseURL(parent))
		return
	}
	timer.Stop("success")

	var parentPath *string
	if parent, ok := h.resolver.ParentOf(loc); ok {
		parentPath = &parent
	}

	c.JSON(http.StatusOK, gin.H{
		"items":                items,
		"current_path_display": filesystem.DisplayPath(loc.Rel),
		"current_rel_path":     filesystem.EncodePath(loc.Rel),
		"parent_path":          parentPath,
		"breadcrumbs":          filesystem.Breadcrumbs(loc.Rel),
		"messages":             takeFlash(c),
	})
}

// Raw serves a regular file with a sniffed content type
func (h *Handlers) Raw(c *gin.Context) {
	sub := rawSubpath(c, RawPrefix)

	loc, err := h.resolver.Resolve(sub)
	if err != nil {
		h.logger.Warn("Rejected raw path", zap.String("subpath", sub), zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundDetail})
		return
	}

	f, err := os.Open(loc.Real)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundDetail})
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundDetail})
		return
	}
	if !info.Mode().IsRegular() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Path is not a file."})
		return
	}

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error reading file: " + err.Error()})
		return
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error reading file: " + err.Error()})
		return
	}

	c.Header("Content-Type", mtype.String())
	c.Header("X-Content-Type-Options", "nosniff")
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}

// Delete removes a file, directory, or link and redirects to its parent
func (h *Handlers) Delete(c *gin.Context) {
	sub := rawSubpath(c, DeletePrefix)

	loc, err := h.resolver.ResolveEntry(sub)
	if err == nil && loc.IsRoot() {
		err = filesystem.ErrRootDelete
	}
	if err != nil {
		monitoring.NewTimer(h.metrics, monitoring.OpDelete).Stop("rejected")
		h.logger.Warn("Rejected delete of unsafe path or root", zap.String("subpath", sub), zap.Error(err))
		flash(c, LevelDanger, "Cannot delete this item (unsafe path or root directory).")
		c.Redirect(http.StatusSeeOther, BrowsePrefix)
		return
	}

	name := path.Base(loc.Rel)
	parent, _ := h.resolver.ParentOf(loc)

	timer := monitoring.NewTimer(h.metrics, monitoring.OpDelete)
	kind, err := h.deleter.Delete(loc)
	switch {
	case err == nil:
		timer.Stop("success")
		flash(c, LevelSuccess, fmt.Sprintf("%s '%s' deleted successfully.", kind, name))
	case errors.Is(err, filesystem.ErrNotFound):
		timer.Stop("not_found")
		flash(c, LevelWarning, fmt.Sprintf("Item '%s' not found.", name))
	default:
		timer.Stop("error")
		flash(c, LevelDanger, fmt.Sprintf("Error deleting '%s': %s", name, cause(err)))
	}

	c.Redirect(http.StatusSeeOther, browseURL(parent))
}

// DownloadForm returns the data needed to fill the fetch-and-link form
func (h *Handlers) DownloadForm(c *gin.Context) {
	timer := monitoring.NewTimer(h.metrics, monitoring.OpScan)
	dirs, err := h.scanner.Subdirectories(c.Request.Context())
	if err != nil {
		timer.Stop("error")
		h.logger.Error("Failed to scan directories", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning directories: " + cause(err)})
		return
	}
	timer.Stop("success")

	c.JSON(http.StatusOK, gin.H{
		"available_dirs": dirs,
		"temp_dir":       h.linker.StagingDir(),
		"root_dir_short": filepath.Base(h.resolver.Root()),
		"messages":       takeFlash(c),
	})
}

// FetchAndLink downloads a file into staging and links it into the tree
func (h *Handlers) FetchAndLink(c *gin.Context) {
	source := strings.TrimSpace(c.PostForm("url"))
	filename := strings.TrimSpace(c.PostForm("filename"))
	targetDir, hasTarget := c.GetPostForm("target_dir_rel")

	if source == "" || filename == "" || !hasTarget {
		flash(c, LevelDanger, "Missing required fields (URL, Filename, Target Directory).")
		c.Redirect(http.StatusSeeOther, DownloadRoute)
		return
	}

	// The download outlives a client that disconnects; the fetcher bounds it
	ctx := context.WithoutCancel(c.Request.Context())

	timer := monitoring.NewTimer(h.metrics, monitoring.OpLink)
	res, err := h.linker.Link(ctx, filesystem.LinkRequest{
		URL:       source,
		Filename:  filename,
		TargetDir: targetDir,
	})
	if err != nil {
		result, level, messages := linkFailure(err, filename)
		timer.Stop(result)
		h.logger.Warn("Fetch and link failed",
			zap.String("url", fetch.Redact(source)),
			zap.String("filename", filename),
			zap.String("target", targetDir),
			zap.String("result", result),
			zap.Error(err),
		)
		for i, msg := range messages {
			if i == 0 {
				flash(c, level, msg)
			} else {
				flash(c, LevelInfo, msg)
			}
		}
		c.Redirect(http.StatusSeeOther, DownloadRoute)
		return
	}
	timer.Stop("success")

	flash(c, LevelInfo, fmt.Sprintf("File downloaded successfully to %s.", res.StagingPath))
	flash(c, LevelSuccess, fmt.Sprintf("Symbolic link created successfully: '%s' -> '%s'", res.LinkRel, res.StagingPath))

	targetRel := path.Dir(res.LinkRel)
	if targetRel == "." {
		targetRel = ""
	}
	c.Redirect(http.StatusSeeOther, browseURL(filesystem.EncodePath(targetRel)))
}

// linkFailure maps a Link error to a metrics result, a flash level and the
// messages to show, most important first.
func linkFailure(err error, filename string) (result, level string, messages []string) {
	var linkErr *filesystem.LinkError
	var exitErr *fetch.ExitError

	switch {
	case errors.Is(err, filesystem.ErrInvalidFilename):
		return "invalid", LevelDanger, []string{
			fmt.Sprintf("Invalid filename '%s'. Use only letters, numbers, dot, underscore, hyphen.", filename),
		}
	case errors.Is(err, filesystem.ErrInvalidInput):
		return "invalid", LevelDanger, []string{"Invalid source URL. Use an http or https address."}
	case errors.Is(err, filesystem.ErrPathEscape),
		errors.Is(err, filesystem.ErrNotFound),
		errors.Is(err, filesystem.ErrNotDirectory):
		return "invalid", LevelDanger, []string{"Invalid target directory selected."}
	case errors.Is(err, filesystem.ErrAlreadyExists):
		return "exists", LevelWarning, []string{
			fmt.Sprintf("A file or link named '%s' already exists in the target directory. Please choose a different filename or target.", filename),
		}
	case errors.Is(err, filesystem.ErrToolUnavailable):
		return "tool_unavailable", LevelDanger, []string{"Error: download tool not found. Is wget installed and in the system's PATH?"}
	case errors.Is(err, filesystem.ErrFetchTimeout):
		return "fetch_timeout", LevelDanger, []string{"Download timed out."}
	case errors.As(err, &exitErr):
		return "fetch_failed", LevelDanger, []string{
			fmt.Sprintf("Download failed (exit code %d). Error: %s", exitErr.Code, exitErr.Stderr),
		}
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return "circuit_open", LevelWarning, []string{
			"Downloads from this host are paused after repeated failures. Try again in a minute.",
		}
	case errors.Is(err, filesystem.ErrFetchFailed):
		return "fetch_failed", LevelDanger, []string{"Download failed. Error: " + cause(err)}
	case errors.As(err, &linkErr):
		return "link_failed", LevelDanger, []string{
			"Failed to create symbolic link: " + cause(linkErr.Err),
			fmt.Sprintf("The downloaded file is available at %s", linkErr.StagingPath),
		}
	case errors.Is(err, filesystem.ErrLinkFailed):
		return "link_failed", LevelDanger, []string{"Failed to create symbolic link: " + cause(err)}
	default:
		return "error", LevelDanger, []string{"An unexpected error occurred: " + err.Error()}
	}
}

// rawSubpath returns the still-encoded remainder of the request path after
// prefix. The resolver decodes it exactly once.
func rawSubpath(c *gin.Context, prefix string) string {
	escaped := c.Request.URL.EscapedPath()
	if i := strings.Index(escaped, prefix); i >= 0 {
		return escaped[i+len(prefix):]
	}
	return strings.TrimPrefix(c.Param(subpathParam), "/")
}

// browseURL builds the browse URL of an already encoded relative path
func browseURL(encodedRel string) string {
	return BrowsePrefix + encodedRel
}

// cause returns the innermost OS-level reason of err for user messages
func cause(err error) string {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err.Error()
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return linkErr.Err.Error()
	}
	return err.Error()
}
