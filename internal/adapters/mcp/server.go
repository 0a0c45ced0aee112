package mcpadapter

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
	"github.com/kirillkom/expert-assistant/internal/core/ports"
)

const askToolName = "ask"

// NewServer exposes the assistant as a single MCP tool.
func NewServer(assistant ports.Assistant, version string) *server.MCPServer {
	s := server.NewMCPServer("expert-assistant", version, server.WithToolCapabilities(false))
	s.AddTool(askTool(), askHandler(assistant))
	return s
}

func askTool() mcp.Tool {
	return mcp.NewTool(askToolName,
		mcp.WithDescription("Answer a question from the product manual, falling back to a web search when the manual has no answer."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to answer, in any supported language."),
		),
		mcp.WithArray("history",
			mcp.Description("Earlier turns of the conversation, oldest first."),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"role":    map[string]any{"type": "string", "enum": []string{"user", "assistant"}},
					"content": map[string]any{"type": "string"},
				},
				"required": []string{"role", "content"},
			}),
		),
	)
}

type askArguments struct {
	Question string        `json:"question"`
	History  []domain.Turn `json:"history"`
}

func askHandler(assistant ports.Assistant) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args askArguments
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
		}
		if strings.TrimSpace(args.Question) == "" {
			return mcp.NewToolResultError("question is required"), nil
		}

		history := make([]domain.Turn, 0, len(args.History))
		for _, turn := range args.History {
			if turn.Role != domain.RoleUser && turn.Role != domain.RoleAssistant {
				continue
			}
			history = append(history, turn)
		}

		answer, err := assistant.Ask(ctx, domain.AskRequest{Question: args.Question, History: history})
		if err != nil {
			slog.Error("mcp_ask_failed", "error", err)
			if domain.IsKind(err, domain.ErrInvalidInput) {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultError("the assistant could not answer right now"), nil
		}
		slog.Info("ask_routed", "endpoint", "mcp", "route", answer.Route, "language", answer.Language)
		return mcp.NewToolResultText(answer.Text), nil
	}
}

// ServeStdio blocks serving MCP over stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
