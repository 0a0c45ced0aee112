package ollama

import (
	"context"
	"strings"
)

// Completer generates text with /api/generate. A negative temperature
// leaves sampling to the model defaults.
type Completer struct {
	client *Client
}

func NewCompleter(client *Client) *Completer {
	return &Completer{client: client}
}

func (c *Completer) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	req := generateRequest{Model: c.client.genModel, Prompt: prompt}
	if temperature >= 0 {
		req.Options = &generateOptions{Temperature: temperature}
	}

	var resp generateResponse
	if err := c.client.call(ctx, "/api/generate", "generate", req, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Response), nil
}
