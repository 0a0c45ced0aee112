package duckduckgo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
	"github.com/kirillkom/expert-assistant/internal/infrastructure/resilience"
)

const (
	DefaultBaseURL = "https://lite.duckduckgo.com/lite/"
	DefaultRegion  = "br-pt"

	maxResultPage = 2 << 20
	userAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// Searcher queries the DuckDuckGo lite HTML endpoint.
type Searcher struct {
	baseURL    string
	region     string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, region string, timeout time.Duration, executor *resilience.Executor) *Searcher {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if strings.TrimSpace(region) == "" {
		region = DefaultRegion
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Searcher{
		baseURL:    baseURL,
		region:     region,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]domain.WebResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "web search", fmt.Errorf("empty query"))
	}
	if limit <= 0 {
		limit = 3
	}

	var page string
	fetch := func(callCtx context.Context) error {
		body, err := s.get(callCtx, query)
		if err != nil {
			return err
		}
		page = body
		return nil
	}

	var err error
	if s.executor == nil {
		err = fetch(ctx)
	} else {
		err = s.executor.Execute(ctx, "duckduckgo.search", fetch, resilience.ClassifyHTTPError)
	}
	if err != nil {
		return nil, resilience.WrapTemporary("duckduckgo search", err, resilience.ClassifyHTTPError)
	}

	return parseLiteResults(page, limit)
}

func (s *Searcher) get(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("kl", s.region)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("duckduckgo search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &resilience.HTTPStatusError{
			Service:    "duckduckgo",
			Operation:  "search",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResultPage))
	if err != nil {
		return "", fmt.Errorf("read search response: %w", err)
	}
	return string(raw), nil
}

// parseLiteResults walks the lite result table. Each result-link anchor
// opens a new result; the following result-snippet cell fills its snippet.
func parseLiteResults(page string, limit int) ([]domain.WebResult, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	results := make([]domain.WebResult, 0, limit)
	var current *domain.WebResult
	flush := func() {
		if current != nil && current.URL != "" && len(results) < limit {
			current.Position = len(results) + 1
			results = append(results, *current)
		}
		current = nil
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(results) >= limit {
			return
		}
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "a" && hasClass(n, "result-link"):
				flush()
				current = &domain.WebResult{
					Title: nodeText(n),
					URL:   resolveRedirect(attr(n, "href")),
				}
			case n.Data == "td" && hasClass(n, "result-snippet") && current != nil:
				current.Snippet = nodeText(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	flush()

	return results, nil
}

// resolveRedirect unwraps //duckduckgo.com/l/?uddg=<target> links.
func resolveRedirect(raw string) string {
	idx := strings.Index(raw, "uddg=")
	if idx == -1 {
		return raw
	}
	encoded := raw[idx+len("uddg="):]
	if amp := strings.Index(encoded, "&"); amp != -1 {
		encoded = encoded[:amp]
	}
	decoded, err := url.QueryUnescape(encoded)
	if err != nil {
		return raw
	}
	return decoded
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
