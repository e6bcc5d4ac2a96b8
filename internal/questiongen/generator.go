package questiongen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/debreselam/schoolbot/internal/llm"
	"github.com/debreselam/schoolbot/internal/quiz"
)

// Purpose labels generation calls in the LLM request log.
const Purpose = "question-generation"

var ErrNoValidQuestions = errors.New("no valid questions generated")

// Generator writes new quiz questions with a language model.
type Generator struct {
	provider llm.Provider
	config   Config
}

// New creates a Generator with the given provider and config.
func New(provider llm.Provider, cfg Config) *Generator {
	return &Generator{provider: provider, config: cfg}
}

// Generate asks for n questions on subject. Questions whose prompt matches
// one of existing (case-insensitively) or that break the bank rules are
// dropped; the rest are returned, possibly fewer than n. It fails with
// ErrNoValidQuestions when nothing survives.
func (g *Generator) Generate(ctx context.Context, subject string, n int, existing []string) ([]quiz.Question, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, fmt.Errorf("%w: empty subject", quiz.ErrInvalidQuestion)
	}
	if n <= 0 {
		return nil, nil
	}
	if g.config.MaxBatch > 0 && n > g.config.MaxBatch {
		n = g.config.MaxBatch
	}
	ctx = llm.WithPurpose(ctx, Purpose)

	req := llm.Request{
		System:      systemPrompt,
		Messages:    llm.UserPrompt(buildUserMessage(subject, n, existing, g.config)),
		Schema:      QuestionsSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}
	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var raw batchOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}

	seen := make(map[string]bool, len(existing)+len(raw.Questions))
	for _, p := range existing {
		seen[strings.ToLower(strings.TrimSpace(p))] = true
	}
	var (
		out   []quiz.Question
		first *ValidationError
	)
	for _, r := range raw.Questions {
		q := normalise(r)
		if verr := check(q, seen, g.config); verr != nil {
			if first == nil {
				first = verr
			}
			continue
		}
		seen[strings.ToLower(q.Prompt)] = true
		out = append(out, q)
		if len(out) == n {
			break
		}
	}
	if len(out) == 0 {
		if first != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoValidQuestions, first)
		}
		return nil, ErrNoValidQuestions
	}
	return out, nil
}
