package llm

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/debreselam/schoolbot/internal/store"
)

func TestMockProvider(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 3}})
	mock.Push(MockResponse{Err: errors.New("scripted")})

	resp, err := mock.Generate(context.Background(), Request{Messages: UserPrompt("first")})
	if err != nil || string(resp.Content) != `{"a":1}` || resp.Model != ProviderMock {
		t.Fatalf("first reply = %+v, %v", resp, err)
	}
	if _, err := mock.Generate(context.Background(), Request{}); err == nil || err.Error() != "scripted" {
		t.Fatalf("second reply err = %v", err)
	}
	var unavailable *ErrProviderUnavailable
	if _, err := mock.Generate(context.Background(), Request{}); !errors.As(err, &unavailable) {
		t.Fatalf("exhausted script err = %v", err)
	}

	reqs := mock.Requests()
	if len(reqs) != 3 || reqs[0].Messages[0].Content != "first" {
		t.Fatalf("recorded requests = %+v", reqs)
	}
}

func TestMockProviderValidatesSchema(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"question":1}`)})
	_, err := mock.Generate(context.Background(), Request{Schema: quizSchema})
	var invalid *ErrInvalidResponse
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want ErrInvalidResponse", err)
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"valid", `{"question":"Who?","answer":"Noah"}`, true},
		{"missing field", `{"question":"Who?"}`, false},
		{"wrong type", `{"question":"Who?","answer":3}`, false},
		{"extra field", `{"question":"Who?","answer":"Noah","x":1}`, false},
		{"not json", `question: who`, false},
		{"empty", ``, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(quizSchema, json.RawMessage(tt.raw))
			if (err == nil) != tt.ok {
				t.Fatalf("err = %v, ok %v", err, tt.ok)
			}
		})
	}
	if err := validateResponse(nil, json.RawMessage(`anything`)); err != nil {
		t.Fatalf("nil schema: %v", err)
	}
}

func TestPurpose(t *testing.T) {
	if got := PurposeFrom(context.Background()); got != "unlabelled" {
		t.Errorf("default purpose = %q", got)
	}
	if got := PurposeFrom(WithPurpose(context.Background(), "question-generation")); got != "question-generation" {
		t.Errorf("purpose = %q", got)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"mock needs nothing", func(c *Config) { c.Provider = ProviderMock }, true},
		{"anthropic without key", func(c *Config) {}, false},
		{"anthropic with key", func(c *Config) { c.Anthropic.APIKey = "k" }, true},
		{"openrouter with key", func(c *Config) { c.Provider = ProviderOpenRouter; c.OpenRouter.APIKey = "k" }, true},
		{"gemini key on wrong provider", func(c *Config) { c.Provider = ProviderOpenAI; c.Gemini.APIKey = "k" }, false},
		{"unknown provider", func(c *Config) { c.Provider = "llama" }, false},
		{"no attempts", func(c *Config) { c.Anthropic.APIKey = "k"; c.Retry.MaxAttempts = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err == nil) != tt.ok {
				t.Fatalf("Validate() = %v, ok %v", err, tt.ok)
			}
		})
	}
}

func TestResolveModel(t *testing.T) {
	if got := resolveModel(ProviderAnthropic, "claude-sonnet"); got != "claude-sonnet-4-20250514" {
		t.Errorf("alias = %q", got)
	}
	if got := resolveModel(ProviderGemini, "gemini-2.5-flash"); got != "gemini-2.5-flash" {
		t.Errorf("pass-through = %q", got)
	}
}

func TestLoggingRecordsRequests(t *testing.T) {
	st, err := store.Open(store.MemoryDSN)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{}`), Usage: Usage{InputTokens: 1000, OutputTokens: 500}},
		MockResponse{Err: &ErrRateLimit{}},
	)
	p := WithLogging(mock, ProviderMock, st.LLMRequestLog(), quiet())
	ctx := WithPurpose(context.Background(), "question-generation")
	if _, err := p.Generate(ctx, Request{}); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Generate(ctx, Request{}); err == nil {
		t.Fatal("expected the scripted failure")
	}

	var total, failed int
	row := st.DB().QueryRow(`SELECT COUNT(*), SUM(CASE WHEN success THEN 0 ELSE 1 END) FROM llm_requests WHERE purpose = 'question-generation'`)
	if err := row.Scan(&total, &failed); err != nil {
		t.Fatal(err)
	}
	if total != 2 || failed != 1 {
		t.Fatalf("total = %d, failed = %d", total, failed)
	}
}

func TestPriceCost(t *testing.T) {
	p, ok := PriceOf("gpt-4o-mini")
	if !ok {
		t.Fatal("gpt-4o-mini has no price")
	}
	got := p.Cost(Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000})
	if math.Abs(got-0.75) > 1e-9 {
		t.Errorf("cost = %v, want 0.75", got)
	}
	if _, ok := PriceOf("mock"); ok {
		t.Error("mock should have no price")
	}
}

func TestNewProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderMock
	p, err := NewProvider(context.Background(), cfg, nil, quiet())
	if err != nil {
		t.Fatal(err)
	}
	if p.ModelID() != ProviderMock {
		t.Errorf("model = %q", p.ModelID())
	}

	cfg.Provider = ProviderOpenAI
	if _, err := NewProvider(context.Background(), cfg, nil, quiet()); err == nil {
		t.Error("openai without key accepted")
	}
}
