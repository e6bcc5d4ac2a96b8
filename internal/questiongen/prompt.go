package questiongen

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a Sunday school teacher writing quiz questions for children aged 7-14.

Rules:
- Write multiple-choice questions for the given subject.
- Every question has exactly 4 options and exactly one correct answer.
- The answer field must repeat the correct option word for word.
- Keep options short: a word, a number or a short phrase.
- Distractors should be plausible, not silly.
- Questions must be self-contained and age-appropriate.
- Do not repeat any question from the "already in the bank" list.`

// buildUserMessage constructs the user message for one batch.
func buildUserMessage(subject string, n int, existing []string, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Subject: %s\n", subject)
	fmt.Fprintf(&b, "Number of questions: %d\n", n)
	fmt.Fprintf(&b, "Maximum option length: %d characters\n", cfg.MaxOptionBytes)

	b.WriteString("\nAlready in the bank:\n")
	b.WriteString(buildDedup(existing, cfg.MaxExisting))

	return b.String()
}

// buildDedup formats existing prompts for the prompt, keeping the most
// recent max. Returns "None" when there are none.
func buildDedup(existing []string, max int) string {
	if len(existing) == 0 {
		return "None"
	}
	if max > 0 && len(existing) > max {
		existing = existing[len(existing)-max:]
	}

	var b strings.Builder
	for i, q := range existing {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}
