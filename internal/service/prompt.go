package service

import (
	"fmt"
	"strings"
)

const promptTemplate = `You are an AI assistant helping employees understand their company handbook. Based on the following excerpts from the employee handbook, provide a clear, comprehensive answer to the employee's question.

Employee Handbook Excerpts:
%s

Employee Question: %s

Instructions:
- Provide specific, actionable information from the handbook
- Use bullet points or numbered lists when appropriate for clarity
- Be helpful and professional
- If information is incomplete, mention what sections might have more details
- Keep the answer concise but comprehensive

Answer:`

// composePrompt joins the passages with blank lines and wraps them with the
// handbook instructions and the question.
func composePrompt(question string, passages []string) string {
	return fmt.Sprintf(promptTemplate, strings.Join(passages, "\n\n"), question)
}
