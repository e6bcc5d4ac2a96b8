package questiongen

import (
	"fmt"
	"strings"

	"github.com/debreselam/schoolbot/internal/quiz"
)

const optionCount = 4

// ValidationError describes why a generated question was dropped.
type ValidationError struct {
	Question string
	Message  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("question %q: %s", e.Question, e.Message)
}

// normalise trims whitespace from every field.
func normalise(raw questionOutput) quiz.Question {
	opts := make([]string, len(raw.Options))
	for i, o := range raw.Options {
		opts[i] = strings.TrimSpace(o)
	}
	return quiz.Question{
		Prompt:  strings.TrimSpace(raw.Question),
		Options: opts,
		Answer:  strings.TrimSpace(raw.Answer),
	}
}

// check validates q against the bank rules and the batch limits. seen holds
// the lower-cased prompts already accepted or present in the bank.
func check(q quiz.Question, seen map[string]bool, cfg Config) *ValidationError {
	if len(q.Options) != optionCount {
		return &ValidationError{Question: q.Prompt, Message: fmt.Sprintf("has %d options, want %d", len(q.Options), optionCount)}
	}
	if err := q.Validate(); err != nil {
		return &ValidationError{Question: q.Prompt, Message: err.Error()}
	}
	if cfg.MaxOptionBytes > 0 {
		for _, o := range q.Options {
			if len(o) > cfg.MaxOptionBytes {
				return &ValidationError{Question: q.Prompt, Message: fmt.Sprintf("option %q exceeds %d bytes", o, cfg.MaxOptionBytes)}
			}
		}
	}
	if seen[strings.ToLower(q.Prompt)] {
		return &ValidationError{Question: q.Prompt, Message: "duplicate prompt"}
	}
	return nil
}
