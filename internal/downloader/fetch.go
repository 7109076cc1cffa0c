package downloader

import (
	"context"
	"errors"
	"io"
	"net/http"

	errs "threadscli/pkg/errors"
	"threadscli/pkg/retry"
)

// HTTPFetcher downloads media from the CDN. CDN URLs are signed, so no
// session cookies are sent.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
	Referer   string
	Retry     *retry.Config
}

// Fetch opens url, retrying transient failures. The caller closes the body.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	cfg := f.Retry
	if cfg == nil {
		cfg = retry.DefaultConfig()
	}
	return retry.DoWithResult(ctx, func(ctx context.Context) (io.ReadCloser, error) {
		return f.fetchOnce(ctx, url)
	}, cfg)
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.NewConfig("invalid media URL: " + err.Error())
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	if f.Referer != "" {
		req.Header.Set("Referer", f.Referer)
	}
	req.Header.Set("Accept", "*/*")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil || errors.Is(err, context.DeadlineExceeded) {
			return nil, errs.NewTimeout(err)
		}
		return nil, errs.NewNetwork(err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errs.NewHTTP(resp.StatusCode, "")
	}
	return resp.Body, nil
}
