package usecase

import (
	"strings"
	"unicode/utf8"

	"pdf-ai-pipeline/internal/domain/model"
)

const (
	// SyncSummaryInstruction is used for uploads summarized inline.
	SyncSummaryInstruction = "Summarize this PDF document. List the main topics and the important points as bullet points."

	// JobSummaryInstruction is used for background jobs, which run on the capable tier.
	JobSummaryInstruction = "Analyze the following text in detail. Summarize its main idea, key arguments " +
		"and important conclusions as bullet points."

	chatSystemInstruction = "You are a PDF assistant. Answer based on the PDF the user uploaded.\n" +
		"If the answer is not clearly in the PDF, say so and ask the user for a hint such as a page or a heading.\n" +
		"Be clear and practical."
)

// BuildSummaryPrompt frames text with instruction.
func BuildSummaryPrompt(instruction, text string) string {
	if strings.TrimSpace(instruction) == "" {
		instruction = SyncSummaryInstruction
	}
	var b strings.Builder
	b.Grow(len(instruction) + len(text) + 32)
	b.WriteString(instruction)
	b.WriteString("\n\nTEXT:\n---\n")
	b.WriteString(text)
	b.WriteString("\n---")
	return b.String()
}

// BuildChatPrompt lays out the system instruction, file name, document,
// conversation history and the new question, in that order.
func BuildChatPrompt(filename, document string, history []model.Turn, question string) string {
	var b strings.Builder
	b.WriteString(chatSystemInstruction)
	b.WriteString("\n\nFILE: ")
	b.WriteString(filename)
	b.WriteString("\n\nPDF CONTENT:\n---\n")
	b.WriteString(document)
	b.WriteString("\n---\n\nCONVERSATION HISTORY:\n---\n")
	for _, t := range history {
		if t.Role == model.RoleAssistant {
			b.WriteString("Assistant: ")
		} else {
			b.WriteString("User: ")
		}
		b.WriteString(t.Content)
		b.WriteByte('\n')
	}
	b.WriteString("---\n\nUSER QUESTION:\n")
	b.WriteString(question)
	return b.String()
}

// TruncateRunes cuts s to at most max characters and reports whether it cut.
func TruncateRunes(s string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}
