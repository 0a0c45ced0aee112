package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
)

const judgeContextLimit = 6000

func buildJudgePrompt(question, candidate string) string {
	snippet, _ := truncateRunes(candidate, judgeContextLimit)
	return fmt.Sprintf(`Decide whether the CONTEXT below contains enough information to answer the QUESTION.
Reply with exactly one word: YES or NO.

CONTEXT:
"%s"

QUESTION:
"%s"
`, snippet, question)
}

func buildAnswerPrompt(req domain.SynthesisRequest, profile domain.LanguageProfile) string {
	var b strings.Builder
	b.WriteString("You are a senior technical expert assisting a professional user.\n")
	b.WriteString("Answer the question using only the information in the sources below.\n")
	b.WriteString(fmt.Sprintf("If the sources do not contain the answer, reply with exactly this sentence and nothing else: %q\n", profile.Fallback))

	if len(req.Contexts) > 1 {
		b.WriteString("Sources are listed in priority order. Use source 1 wherever it covers the question; ")
		b.WriteString("use source 2 only for what source 1 does not cover.\n")
	}

	if len(req.History) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, turn := range req.History {
			b.WriteString(historyLabel(turn.Role) + ": " + strings.TrimSpace(turn.Content) + "\n")
		}
	}

	for i, c := range req.Contexts {
		b.WriteString(fmt.Sprintf("\nSource %d (%s):\n%s\n", i+1, c.Source, c.Text))
	}

	b.WriteString("\nQuestion:\n" + req.Question + "\n")
	b.WriteString(fmt.Sprintf("\nAnswer in %s, clearly and concisely.\n", profile.Name))
	return b.String()
}

func historyLabel(role domain.Role) string {
	if role == domain.RoleAssistant {
		return "Assistant"
	}
	return "User"
}
