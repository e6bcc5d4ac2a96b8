package quiz

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
)

var ErrInvalidQuestion = errors.New("invalid question")

// Question is one immutable multiple-choice item of a subject's bank.
type Question struct {
	Prompt  string   `json:"question"`
	Options []string `json:"options"`
	Answer  string   `json:"answer"`
}

// Validate checks that the prompt is set, options are distinct and non-empty,
// and the answer is one of the options.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("%w: empty prompt", ErrInvalidQuestion)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: %q needs at least two options", ErrInvalidQuestion, q.Prompt)
	}
	seen := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		if o == "" {
			return fmt.Errorf("%w: %q has an empty option", ErrInvalidQuestion, q.Prompt)
		}
		if seen[o] {
			return fmt.Errorf("%w: %q repeats option %q", ErrInvalidQuestion, q.Prompt, o)
		}
		seen[o] = true
	}
	if !seen[q.Answer] {
		return fmt.Errorf("%w: answer %q of %q is not among the options", ErrInvalidQuestion, q.Answer, q.Prompt)
	}
	return nil
}

func (q Question) clone() Question {
	q.Options = slices.Clone(q.Options)
	return q
}

// Bank holds the static question bank keyed by lower-cased subject.
type Bank struct {
	mu       sync.RWMutex
	subjects map[string][]Question
}

// NewBank creates an empty bank.
func NewBank() *Bank {
	return &Bank{subjects: make(map[string][]Question)}
}

// SubjectKey canonicalises a subject name.
func SubjectKey(subject string) string {
	return strings.ToLower(strings.TrimSpace(subject))
}

// Add validates and appends questions to a subject. Prompts already present
// in the subject are skipped. It returns how many were added.
func (b *Bank) Add(subject string, qs ...Question) (int, error) {
	key := SubjectKey(subject)
	if key == "" {
		return 0, fmt.Errorf("%w: empty subject", ErrInvalidQuestion)
	}
	for _, q := range qs {
		if err := q.Validate(); err != nil {
			return 0, err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	existing := b.subjects[key]
	seen := make(map[string]bool, len(existing))
	for _, q := range existing {
		seen[q.Prompt] = true
	}
	added := 0
	for _, q := range qs {
		if seen[q.Prompt] {
			continue
		}
		seen[q.Prompt] = true
		existing = append(existing, q.clone())
		added++
	}
	b.subjects[key] = existing
	return added, nil
}

// Questions returns a copy of the subject's questions (nil if unknown).
func (b *Bank) Questions(subject string) []Question {
	b.mu.RLock()
	defer b.mu.RUnlock()
	qs := b.subjects[SubjectKey(subject)]
	if len(qs) == 0 {
		return nil
	}
	out := make([]Question, len(qs))
	for i, q := range qs {
		out[i] = q.clone()
	}
	return out
}

// Subjects returns the subject keys in sorted order.
func (b *Bank) Subjects() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.subjects))
	for k := range b.subjects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Size returns the number of questions for a subject.
func (b *Bank) Size(subject string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subjects[SubjectKey(subject)])
}
