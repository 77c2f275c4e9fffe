// Package fetch downloads remote files into local paths for fileshelf.
//
// Two interchangeable backends are provided:
//   - CommandFetcher: shells out to wget (or a compatible tool)
//   - HTTPFetcher: downloads in-process with go-resty/resty
//
// Both bound each download with a timeout and a retry count, and report
// failures as one of three sentinel errors so callers can tell them apart:
//   - ErrToolUnavailable: the tool is missing from PATH
//   - ErrTimeout: the download exceeded its timeout
//   - ErrFailed: the tool ran and failed (see ExitError), or the server refused
//
// Example Usage:
//
//	f := fetch.NewCommandFetcher("wget", logger)
//	err := f.Fetch(ctx, fetch.Request{URL: u, Dest: "/tmp/model.bin"})
package fetch
