package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/debreselam/schoolbot/internal/store"
)

// NewProvider builds the configured provider wrapped as
// caller -> retry -> logging -> provider, so each attempt is recorded.
// requests may be nil.
func NewProvider(ctx context.Context, cfg Config, requests store.LLMRequestLog, log logrus.FieldLogger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	creds := cfg.Selected()
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = newAnthropicProvider(creds)
	case ProviderOpenAI:
		base, err = newOpenAIProvider(creds)
	case ProviderOpenRouter:
		if creds.BaseURL == "" {
			creds.BaseURL = defaultOpenRouterBaseURL
		}
		base, err = newOpenAIProvider(creds)
	case ProviderGemini:
		base, err = newGeminiProvider(ctx, creds)
	case ProviderMock:
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("llm: init %s: %w", cfg.Provider, err)
	}

	p := WithRetry(WithLogging(base, cfg.Provider, requests, log), cfg.Retry, log)
	if cfg.Timeout > 0 {
		p = &bounded{inner: p, timeout: cfg.Timeout}
	}
	return p, nil
}

// bounded applies Config.Timeout to a whole call, retries included.
type bounded struct {
	inner   Provider
	timeout time.Duration
}

func (b *bounded) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.inner.Generate(ctx, req)
}

func (b *bounded) ModelID() string { return b.inner.ModelID() }
