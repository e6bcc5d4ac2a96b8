package llm

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/debreselam/schoolbot/internal/store"
)

type logged struct {
	inner    Provider
	provider string
	requests store.LLMRequestLog
	log      logrus.FieldLogger
}

// WithLogging records every call in requests (when non-nil) and in log.
// A failure to record never fails the call.
func WithLogging(p Provider, provider string, requests store.LLMRequestLog, log logrus.FieldLogger) Provider {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &logged{inner: p, provider: provider, requests: requests, log: log}
}

func (l *logged) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	ev := store.LLMRequestEventData{
		Provider:  l.provider,
		Model:     l.inner.ModelID(),
		Purpose:   PurposeFrom(ctx),
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}
	if resp != nil {
		ev.Model = resp.Model
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		if price, ok := PriceOf(resp.Model); ok {
			ev.CostUSD = price.Cost(resp.Usage)
		}
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	entry := l.log.WithFields(logrus.Fields{
		"provider":      ev.Provider,
		"model":         ev.Model,
		"purpose":       ev.Purpose,
		"latency_ms":    ev.LatencyMs,
		"input_tokens":  ev.InputTokens,
		"output_tokens": ev.OutputTokens,
		"cost_usd":      ev.CostUSD,
	})
	if err != nil {
		entry.WithError(err).Warn("llm request failed")
	} else {
		entry.Debug("llm request")
	}

	if l.requests != nil {
		// Detached from ctx so a cancelled call is still recorded.
		if logErr := l.requests.AppendLLMRequest(context.WithoutCancel(ctx), ev); logErr != nil {
			l.log.WithError(logErr).Warn("record llm request")
		}
	}
	return resp, err
}

func (l *logged) ModelID() string { return l.inner.ModelID() }
