package page

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/expert-assistant/internal/infrastructure/resilience"
)

const (
	maxPageBytes = 5 << 20
	userAgent    = "expert-assistant/1.0 (+page fetch)"
)

// Fetcher downloads HTML pages for the web tier. Candidates live on
// unrelated hosts, so a failed page is never retried or recorded against
// the others; the web retriever moves on to the next candidate instead.
type Fetcher struct {
	httpClient *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{httpClient: &http.Client{Timeout: timeout}}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return "", resilience.WrapTemporary("page fetch", err, resilience.ClassifyHTTPError)
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create page request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("page request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &resilience.HTTPStatusError{
			Service:    "page",
			Operation:  "fetch",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") && !strings.HasPrefix(ct, "text/") {
		return "", fmt.Errorf("page fetch: unsupported content type %q", ct)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read page body: %w", err)
	}
	return string(raw), nil
}
