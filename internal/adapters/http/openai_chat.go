package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
)

func (rt *Router) listModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, modelListResponse{
		Object: "list",
		Data: []modelObject{{
			ID:      rt.modelID,
			Object:  "model",
			Created: time.Now().Unix(),
			OwnedBy: "expert-assistant",
		}},
	})
}

func (rt *Router) chatCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req chatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages are required")
		return
	}
	question, history, ok := splitConversation(req.Messages)
	if !ok {
		writeError(w, http.StatusBadRequest, "at least one user message with text content is required")
		return
	}

	modelID := strings.TrimSpace(req.Model)
	if modelID == "" {
		modelID = rt.modelID
	}

	start := time.Now()
	answer, err := rt.assistant.Ask(r.Context(), domain.AskRequest{Question: question, History: history})
	if err != nil {
		rt.writeAssistantError(w, r, "chat_completions", err)
		return
	}

	slog.Info("ask_routed",
		"request_id", requestIDFromContext(r.Context()),
		"endpoint", "chat_completions",
		"route", answer.Route,
		"language", answer.Language,
		"history_turns", len(history),
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)

	reply := newCompletion(modelID)
	if req.Stream != nil && *req.Stream {
		if err := writeSSE(w, reply.chunks(answer.Text, rt.streamChunkChars)); err != nil {
			slog.Warn("sse_write_failed", "request_id", requestIDFromContext(r.Context()), "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, reply.response(question, answer.Text))
}
