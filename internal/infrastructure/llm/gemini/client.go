package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/kirillkom/expert-assistant/internal/infrastructure/resilience"
)

const DefaultModel = "gemini-2.0-flash"

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Completer generates text with the Gemini API.
type Completer struct {
	models   contentGenerator
	model    string
	executor *resilience.Executor
}

// New creates a Gemini completer. executor may be nil.
func New(ctx context.Context, apiKey, model string, executor *resilience.Executor) (*Completer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newCompleter(client.Models, model, executor), nil
}

func newCompleter(models contentGenerator, model string, executor *resilience.Executor) *Completer {
	if model == "" {
		model = DefaultModel
	}
	return &Completer{models: models, model: model, executor: executor}
}

func (c *Completer) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	var cfg *genai.GenerateContentConfig
	if temperature >= 0 {
		t := float32(temperature)
		cfg = &genai.GenerateContentConfig{Temperature: &t}
	}

	var text string
	call := func(callCtx context.Context) error {
		resp, err := c.models.GenerateContent(callCtx, c.model, genai.Text(prompt), cfg)
		if err != nil {
			return fmt.Errorf("gemini generate content: %w", err)
		}
		text = resp.Text()
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "gemini.generate", call, classifyGeminiError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", resilience.WrapTemporary("gemini generate", err, classifyGeminiError)
	}
	return strings.TrimSpace(text), nil
}

func classifyGeminiError(err error) resilience.ErrorClassification {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if resilience.IsRetryableHTTPStatus(apiErr.Code) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		if apiErr.Code >= http.StatusBadRequest {
			return resilience.ErrorClassification{}
		}
	}
	return resilience.ClassifyHTTPError(err)
}
