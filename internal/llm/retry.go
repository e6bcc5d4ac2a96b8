package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"
)

type retrying struct {
	inner Provider
	cfg   RetryConfig
	log   logrus.FieldLogger
}

// WithRetry repeats failed calls with exponential backoff and jitter.
// Invalid output is repeated at most once; see Retryable for the rest.
func WithRetry(p Provider, cfg RetryConfig, log logrus.FieldLogger) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &retrying{inner: p, cfg: cfg, log: log}
}

func (r *retrying) Generate(ctx context.Context, req Request) (*Response, error) {
	var (
		err           error
		invalidRepeat bool
	)
	for attempt := range r.cfg.MaxAttempts {
		var resp *Response
		resp, err = r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !Retryable(err) {
			return nil, err
		}
		var invalid *ErrInvalidResponse
		if errors.As(err, &invalid) {
			if invalidRepeat {
				return nil, err
			}
			invalidRepeat = true
		}
		if attempt == r.cfg.MaxAttempts-1 {
			break
		}

		wait := r.backoff(attempt, err)
		r.log.WithError(err).WithFields(logrus.Fields{
			"model":   r.inner.ModelID(),
			"attempt": attempt + 1,
			"wait":    wait.String(),
		}).Warn("llm call failed, retrying")

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return nil, err
}

func (r *retrying) ModelID() string { return r.inner.ModelID() }

func (r *retrying) backoff(attempt int, err error) time.Duration {
	var limited *ErrRateLimit
	if errors.As(err, &limited) && limited.RetryAfter > 0 {
		return limited.RetryAfter
	}
	wait := float64(r.cfg.InitialWait) * math.Pow(r.cfg.Multiplier, float64(attempt))
	wait = min(wait, float64(r.cfg.MaxWait))
	wait *= 0.8 + 0.4*rand.Float64() // ±20%
	return time.Duration(max(wait, 0))
}
