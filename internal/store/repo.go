package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SharedContact is one contact shared by an account.
type SharedContact struct {
	ID        int64
	AccountID string
	Phone     string
	Name      string
	SharedAt  time.Time
}

// ContactLog records every contact shared through the bot.
type ContactLog interface {
	// AppendContact records a shared contact.
	AppendContact(ctx context.Context, c SharedContact) error

	// RecentContacts returns up to n contacts, newest first.
	RecentContacts(ctx context.Context, n int) ([]SharedContact, error)
}

// Attempt is one finished quiz attempt.
type Attempt struct {
	ID         uuid.UUID
	AccountID  string
	Subject    string
	Score      int
	Total      int
	Percentage float64
	Elapsed    time.Duration
	FinishedAt time.Time
}

// AttemptStats aggregates finished attempts.
type AttemptStats struct {
	Count          int
	MeanPercentage float64
	BySubject      map[string]int
}

// AttemptLog records finished quiz attempts.
type AttemptLog interface {
	// AppendAttempt records a finished attempt.
	AppendAttempt(ctx context.Context, a Attempt) error

	// Stats aggregates every recorded attempt.
	Stats(ctx context.Context) (AttemptStats, error)
}

// LLMRequestEventData captures the data for a single LLM request.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	CostUSD      float64 // 0 when the model has no known price
	Success      bool
	ErrorMessage string
}

// LLMRequest is a recorded LLM call.
type LLMRequest struct {
	ID        int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMRequestLog records LLM API calls.
type LLMRequestLog interface {
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// RecentLLMRequests returns up to limit requests, newest first. A
	// non-empty purpose filters by purpose.
	RecentLLMRequests(ctx context.Context, purpose string, limit int) ([]LLMRequest, error)
}
