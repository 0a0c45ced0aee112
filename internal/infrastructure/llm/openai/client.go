package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/expert-assistant/internal/infrastructure/resilience"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.1-8b-instant"
)

type Options struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func (o *Options) defaults() {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Model == "" {
		o.Model = DefaultModel
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
}

// Completer talks to any OpenAI-compatible /chat/completions endpoint.
type Completer struct {
	opts       Options
	httpClient *http.Client
	executor   *resilience.Executor
}

// NewCompleter builds a completer. executor may be nil.
func NewCompleter(opts Options, executor *resilience.Executor) *Completer {
	opts.defaults()
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Completer{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		executor:   executor,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Completer) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	payload := chatRequest{
		Model:    c.opts.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	if temperature >= 0 {
		payload.Temperature = &temperature
	}

	var text string
	call := func(callCtx context.Context) error {
		out, err := c.post(callCtx, payload)
		text = out
		return err
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "openai.chat", call, resilience.ClassifyHTTPError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", resilience.WrapTemporary("openai chat", err, resilience.ClassifyHTTPError)
	}
	return strings.TrimSpace(text), nil
}

func (c *Completer) post(ctx context.Context, payload chatRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &resilience.HTTPStatusError{
			Service:    "openai",
			Operation:  "chat",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("chat response has no choices")
	}
	return decoded.Choices[0].Message.Content, nil
}
