package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/expert-assistant/internal/config"
	"github.com/kirillkom/expert-assistant/internal/core/domain"
	"github.com/kirillkom/expert-assistant/internal/core/ports"
	"github.com/kirillkom/expert-assistant/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	assistant   ports.Assistant
	httpMetrics *metrics.HTTPServerMetrics
	validator   *requestValidator

	modelID          string
	streamChunkChars int
	rateLimitRPS     float64
	rateLimitBurst   int
	maxInFlight      int
	backpressureWait time.Duration
}

// NewRouter wires the HTTP surface. httpMetrics may be nil.
func NewRouter(cfg config.Config, assistant ports.Assistant, httpMetrics *metrics.HTTPServerMetrics) (*Router, error) {
	validator, err := newRequestValidator()
	if err != nil {
		return nil, err
	}
	modelID := strings.TrimSpace(cfg.OpenAICompatModelID)
	if modelID == "" {
		modelID = "expert-assistant-v1"
	}
	return &Router{
		assistant:        metrics.InstrumentAssistant(assistant, httpMetrics, serviceName, "http"),
		httpMetrics:      httpMetrics,
		validator:        validator,
		modelID:          modelID,
		streamChunkChars: cfg.OpenAICompatStreamChunkChars,
		rateLimitRPS:     cfg.APIRateLimitRPS,
		rateLimitBurst:   cfg.APIRateLimitBurst,
		maxInFlight:      cfg.APIMaxInFlight,
		backpressureWait: cfg.APIBackpressureWait,
	}, nil
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/ask", rt.ask)
	mux.HandleFunc("/v1/ask", rt.ask)
	mux.HandleFunc("/v1/models", rt.listModels)
	mux.HandleFunc("/v1/chat/completions", rt.chatCompletions)
	if rt.httpMetrics != nil {
		mux.Handle("/metrics", rt.httpMetrics.Handler())
	}

	var handler http.Handler = rt.validator.middleware(mux)
	handler = backpressureMiddleware(handler, rt.maxInFlight, rt.backpressureWait)
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	if rt.httpMetrics != nil {
		handler = rt.httpMetrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type askResponse struct {
	Answer string `json:"answer"`
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req domain.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := rt.assistant.Ask(r.Context(), req)
	if err != nil {
		rt.writeAssistantError(w, r, "ask", err)
		return
	}

	slog.Info("ask_routed",
		"request_id", requestIDFromContext(r.Context()),
		"endpoint", "ask",
		"route", answer.Route,
		"language", answer.Language,
		"history_turns", len(req.History),
	)
	writeJSON(w, http.StatusOK, askResponse{Answer: answer.Text})
}

func (rt *Router) writeAssistantError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("ask_failed",
			"request_id", requestIDFromContext(r.Context()),
			"endpoint", endpoint,
			"error", err,
		)
	}
	writeError(w, status, publicErrorMessage(err, status))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
