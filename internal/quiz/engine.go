package quiz

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSampleSize is the number of questions drawn per attempt when
// Options.SampleSize is unset.
const DefaultSampleSize = 3

var (
	ErrSubjectHasNoQuestions = errors.New("subject has no questions")
	ErrNoQuizInProgress      = errors.New("no quiz in progress")
	ErrNoQuestionIssued      = errors.New("no question has been issued yet")
	ErrAlreadyAnswered       = errors.New("current question already answered")
	ErrNotOwner              = errors.New("quiz belongs to another session")
)

// AnswerRecord is one graded answer, in attempt order.
type AnswerRecord struct {
	Prompt    string `json:"question"`
	Submitted string `json:"submitted"`
	Correct   string `json:"correct"`
	IsCorrect bool   `json:"is_correct"`
}

// Issued is a question handed to the caller together with its position.
type Issued struct {
	Subject  string
	Question Question
	Ordinal  int // 1-based
	Total    int
}

// Result summarises an attempt.
type Result struct {
	Subject    string
	Score      int
	Total      int
	Percentage float64
	Elapsed    time.Duration
	Answers    []AnswerRecord
}

// Quiz is one attempt. Cursor never decreases and never exceeds
// len(questions); score never exceeds cursor.
type Quiz struct {
	ID        uuid.UUID
	Owner     string
	Subject   string
	StartedAt time.Time

	questions    []Question
	cursor       int
	lastGraded   int
	score        int
	answers      []AnswerRecord
	lastActivity time.Time
}

// Options configures an Engine.
type Options struct {
	SampleSize int
	Now        func() time.Time
	// Rand draws question order. Access is serialised by the engine lock.
	Rand *rand.Rand
}

// Engine owns every active quiz. All methods are safe for concurrent use.
type Engine struct {
	mu      sync.Mutex
	bank    *Bank
	quizzes map[uuid.UUID]*Quiz
	sample  int
	now     func() time.Time
	rng     *rand.Rand
}

// NewEngine creates an engine drawing from bank.
func NewEngine(bank *Bank, opts Options) *Engine {
	if opts.SampleSize <= 0 {
		opts.SampleSize = DefaultSampleSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	}
	return &Engine{
		bank:    bank,
		quizzes: make(map[uuid.UUID]*Quiz),
		sample:  opts.SampleSize,
		now:     opts.Now,
		rng:     opts.Rand,
	}
}

// SampleSize returns the configured number of questions per attempt.
func (e *Engine) SampleSize() int { return e.sample }

// Bank returns the question bank the engine draws from.
func (e *Engine) Bank() *Bank { return e.bank }

// Start draws min(sample size, bank size) questions without replacement and
// registers a new quiz owned by owner.
func (e *Engine) Start(owner, subject string) (uuid.UUID, error) {
	pool := e.bank.Questions(subject)
	if len(pool) == 0 {
		return uuid.Nil, ErrSubjectHasNoQuestions
	}
	n := min(e.sample, len(pool))

	e.mu.Lock()
	defer e.mu.Unlock()

	perm := e.rng.Perm(len(pool))
	drawn := make([]Question, n)
	for i := range n {
		drawn[i] = pool[perm[i]]
	}

	now := e.now()
	q := &Quiz{
		ID:           uuid.New(),
		Owner:        owner,
		Subject:      SubjectKey(subject),
		StartedAt:    now,
		questions:    drawn,
		lastGraded:   -1,
		lastActivity: now,
	}
	e.quizzes[q.ID] = q
	return q.ID, nil
}

// lookup returns the quiz after checking ownership. Caller holds e.mu.
func (e *Engine) lookup(owner string, id uuid.UUID) (*Quiz, error) {
	q, ok := e.quizzes[id]
	if !ok {
		return nil, ErrNoQuizInProgress
	}
	if q.Owner != owner {
		return nil, ErrNotOwner
	}
	return q, nil
}

// NextQuestion returns the question at the cursor and advances it. The
// question counts as issued from this moment. ok is false once the attempt
// is exhausted.
func (e *Engine) NextQuestion(owner string, id uuid.UUID) (Issued, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	q, err := e.lookup(owner, id)
	if err != nil {
		return Issued{}, false, err
	}
	q.lastActivity = e.now()
	if q.cursor >= len(q.questions) {
		return Issued{}, false, nil
	}
	item := q.questions[q.cursor].clone()
	q.cursor++
	return Issued{Subject: q.Subject, Question: item, Ordinal: q.cursor, Total: len(q.questions)}, true, nil
}

// SubmitAnswer grades answer against the most recently issued question.
// Matching is exact. Each issued question accepts exactly one answer.
func (e *Engine) SubmitAnswer(owner string, id uuid.UUID, answer string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	q, err := e.lookup(owner, id)
	if err != nil {
		return false, err
	}
	idx := q.cursor - 1
	if idx < 0 {
		return false, ErrNoQuestionIssued
	}
	if idx == q.lastGraded {
		return false, ErrAlreadyAnswered
	}

	item := q.questions[idx]
	correct := answer == item.Answer
	q.answers = append(q.answers, AnswerRecord{
		Prompt:    item.Prompt,
		Submitted: answer,
		Correct:   item.Answer,
		IsCorrect: correct,
	})
	if correct {
		q.score++
	}
	q.lastGraded = idx
	q.lastActivity = e.now()
	return correct, nil
}

// Result reports the attempt's score so far.
func (e *Engine) Result(owner string, id uuid.UUID) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	q, err := e.lookup(owner, id)
	if err != nil {
		return Result{}, err
	}
	total := len(q.questions)
	var pct float64
	if total > 0 {
		pct = float64(q.score) / float64(total) * 100
	}
	answers := make([]AnswerRecord, len(q.answers))
	copy(answers, q.answers)
	return Result{
		Subject:    q.Subject,
		Score:      q.score,
		Total:      total,
		Percentage: pct,
		Elapsed:    e.now().Sub(q.StartedAt),
		Answers:    answers,
	}, nil
}

// Discard removes a quiz. Unknown ids are ignored.
func (e *Engine) Discard(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.quizzes, id)
}

// Sweep discards quizzes with no activity for longer than idle and returns
// how many were removed.
func (e *Engine) Sweep(idle time.Duration) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-idle)
	removed := 0
	for id, q := range e.quizzes {
		if q.lastActivity.Before(cutoff) {
			delete(e.quizzes, id)
			removed++
		}
	}
	return removed
}

// Active returns the number of registered quizzes.
func (e *Engine) Active() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.quizzes)
}
