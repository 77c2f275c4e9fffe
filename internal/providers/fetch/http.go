package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// HTTPFetcher downloads in-process with resty, for hosts without wget
type HTTPFetcher struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPFetcher creates an in-process fetcher
func NewHTTPFetcher(logger *zap.Logger) *HTTPFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Pooled transport from retryablehttp; retries are driven by resty
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil

	return &HTTPFetcher{
		httpClient: &http.Client{Transport: retryClient.HTTPClient.Transport},
		logger:     logger,
	}
}

// Fetch downloads req.URL into req.Dest. Partial output is removed on failure.
func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) error {
	ctx, cancel := context.WithTimeout(ctx, req.timeout())
	defer cancel()

	client := resty.NewWithClient(f.httpClient).
		SetRetryCount(req.tries()-1).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(30*time.Second).
		SetHeader("User-Agent", "fileshelf/1.0").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r != nil && r.StatusCode() >= http.StatusInternalServerError
		})

	f.logger.Info("Downloading over HTTP",
		zap.String("url", Redact(req.URL)),
		zap.String("dest", req.Dest),
		zap.Int("tries", req.tries()),
	)

	resp, err := client.R().SetContext(ctx).SetOutput(req.Dest).Get(req.URL)
	if err != nil {
		os.Remove(req.Dest)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeout(err) {
			return fmt.Errorf("%w after %s", ErrTimeout, req.timeout())
		}
		return fmt.Errorf("%w: %v", ErrFailed, err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		os.Remove(req.Dest)
		return fmt.Errorf("%w: HTTP %d", ErrFailed, resp.StatusCode())
	}

	f.logger.Info("HTTP download succeeded",
		zap.String("url", Redact(req.URL)),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", resp.Time()),
	)
	return nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
