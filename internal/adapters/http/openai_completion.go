package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const finishStop = "stop"

// completion carries the identity shared by every object of one
// chat-completion reply, streamed or not.
type completion struct {
	id      string
	created int64
	model   string
}

func newCompletion(model string) completion {
	return completion{
		id:      "chatcmpl-" + uuid.NewString(),
		created: time.Now().Unix(),
		model:   model,
	}
}

func (c completion) response(question, answer string) chatCompletionResponse {
	finish := finishStop
	prompt, reply := len(strings.Fields(question)), len(strings.Fields(answer))
	return chatCompletionResponse{
		ID:      c.id,
		Object:  "chat.completion",
		Created: c.created,
		Model:   c.model,
		Choices: []chatCompletionChoice{{
			Message:      chatMessage{Role: "assistant", Content: answer},
			FinishReason: &finish,
		}},
		// word counts; the assistant does not expose provider token usage
		Usage: &usage{PromptTokens: prompt, CompletionTokens: reply, TotalTokens: prompt + reply},
	}
}

// chunks slices the finished answer into stream deltas. The first delta
// carries the role and the last one only the finish reason.
func (c completion) chunks(answer string, size int) []chatCompletionChunk {
	if size <= 0 {
		size = 120
	}
	parts := splitByRunes(answer, size)
	out := make([]chatCompletionChunk, 0, len(parts)+1)
	for i, part := range parts {
		var delta chatMessageDelta
		if i == 0 {
			role := "assistant"
			delta.Role = &role
		}
		if part != "" {
			delta.Content = &part
		}
		out = append(out, c.chunk(delta, nil))
	}
	finish := finishStop
	return append(out, c.chunk(chatMessageDelta{}, &finish))
}

func (c completion) chunk(delta chatMessageDelta, finish *string) chatCompletionChunk {
	return chatCompletionChunk{
		ID:      c.id,
		Object:  "chat.completion.chunk",
		Created: c.created,
		Model:   c.model,
		Choices: []chatCompletionChunkChoice{{Delta: delta, FinishReason: finish}},
	}
}

// splitByRunes cuts text into pieces of at most size runes. Blank text
// yields one empty piece so the stream still opens with a role delta.
func splitByRunes(text string, size int) []string {
	if strings.TrimSpace(text) == "" {
		return []string{""}
	}
	runes := []rune(text)
	if size <= 0 || len(runes) <= size {
		return []string{text}
	}
	parts := make([]string, 0, (len(runes)+size-1)/size)
	for len(runes) > 0 {
		n := min(size, len(runes))
		parts = append(parts, string(runes[:n]))
		runes = runes[n:]
	}
	return parts
}

// writeSSE sends chunks as server-sent events followed by the [DONE]
// sentinel, flushing after each event.
func writeSSE(w http.ResponseWriter, chunks []chatCompletionChunk) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming is not supported by response writer")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(data []byte) error {
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}
	for _, chunk := range chunks {
		payload, err := json.Marshal(chunk)
		if err != nil {
			return err
		}
		if err := send(payload); err != nil {
			return err
		}
	}
	return send([]byte("[DONE]"))
}
