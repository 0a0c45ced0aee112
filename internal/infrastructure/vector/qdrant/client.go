package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
	"github.com/kirillkom/expert-assistant/internal/infrastructure/resilience"
)

const upsertBatchSize = 256

// Client stores segment vectors in a Qdrant collection using Euclid
// distance. Point ids are segment ordinals.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
	executor   *resilience.Executor

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

// New builds a Qdrant client. executor may be nil.
func New(baseURL, collection string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

type point struct {
	ID      int            `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Replace drops the collection and loads every vector of the store.
func (c *Client) Replace(ctx context.Context, store *domain.PassageStore) error {
	if err := store.Validate(); err != nil {
		return err
	}
	if store.Len() == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "qdrant replace", fmt.Errorf("store has no segments"))
	}

	if err := c.dropCollection(ctx); err != nil {
		return err
	}
	c.resetEnsured()
	if err := c.ensureCollection(ctx, store.Dimension); err != nil {
		return err
	}

	for start := 0; start < store.Len(); start += upsertBatchSize {
		end := min(start+upsertBatchSize, store.Len())
		points := make([]point, 0, end-start)
		for i := start; i < end; i++ {
			points = append(points, point{
				ID:     i,
				Vector: store.Vectors[i],
				Payload: map[string]any{
					"ordinal": i,
					"model":   store.Model,
				},
			})
		}
		path := fmt.Sprintf("/collections/%s/points?wait=true", c.collection)
		if err := c.do(ctx, http.MethodPut, path, map[string]any{"points": points}, nil, "upsert"); err != nil {
			return err
		}
	}
	return nil
}

// Search returns neighbors ordered by squared L2 distance. Qdrant reports
// plain Euclid distance, so scores are squared here.
func (c *Client) Search(ctx context.Context, queryVector []float32, limit int) ([]domain.Neighbor, error) {
	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": false,
	}

	var searchResp struct {
		Result []struct {
			ID    int     `json:"id"`
			Score float64 `json:"score"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/search", c.collection)
	if err := c.do(ctx, http.MethodPost, path, reqBody, &searchResp, "search"); err != nil {
		return nil, err
	}

	out := make([]domain.Neighbor, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.Neighbor{Ordinal: r.ID, Distance: r.Score * r.Score})
	}
	return out, nil
}

// Count returns the number of points in the collection.
func (c *Client) Count(ctx context.Context) (int, error) {
	var countResp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/count", c.collection)
	if err := c.do(ctx, http.MethodPost, path, map[string]any{"exact": true}, &countResp, "count"); err != nil {
		return 0, err
	}
	return countResp.Result.Count, nil
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Euclid",
		},
	}
	err := c.do(ctx, http.MethodPut, "/collections/"+c.collection, reqBody, nil, "ensure collection")
	if err != nil && !isStatus(err, http.StatusConflict) {
		return err
	}
	c.markCollectionEnsured(vectorSize)
	return nil
}

func (c *Client) dropCollection(ctx context.Context) error {
	err := c.do(ctx, http.MethodDelete, "/collections/"+c.collection, nil, nil, "drop collection")
	if err != nil && !isStatus(err, http.StatusNotFound) {
		return err
	}
	return nil
}

func (c *Client) markCollectionEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}

func (c *Client) resetEnsured() {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = false
	c.ensuredVectorSize = 0
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any, operation string) error {
	call := func(callCtx context.Context) error {
		return c.send(callCtx, method, path, payload, out, operation)
	}
	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "qdrant."+strings.ReplaceAll(operation, " ", "_"), call, classifyQdrantError)
	} else {
		err = call(ctx)
	}
	return resilience.WrapTemporary("qdrant "+operation, err, classifyQdrantError)
}

func (c *Client) send(ctx context.Context, method, path string, payload any, out any, operation string) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", operation, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &resilience.HTTPStatusError{
			Service:    "qdrant",
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}
