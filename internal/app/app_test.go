package app

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/debreselam/schoolbot/internal/config"
	"github.com/debreselam/schoolbot/internal/llm"
	"github.com/debreselam/schoolbot/internal/questiongen"
	"github.com/debreselam/schoolbot/internal/session"
	"github.com/debreselam/schoolbot/internal/store"
)

func testConfig() config.Config {
	return config.Config{
		DB:            store.MemoryDSN,
		QuizSize:      3,
		MinCredential: session.DefaultMinCredentialLength,
		BcryptCost:    bcrypt.MinCost,
		LLM:           llm.DefaultConfig(),
	}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	a, err := New(cfg, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNew(t *testing.T) {
	a := newApp(t, testConfig())

	assert.Equal(t, []string{"bible", "english", "math"}, a.Bank.Subjects())
	assert.Equal(t, 3, a.Engine.SampleSize())
	assert.NotEmpty(t, a.Dataset.Accounts)

	out := a.Machine.Handle(context.Background(), session.Restart{Session: "chat-1"})
	require.NotEmpty(t, out)
	assert.IsType(t, session.LanguageMenu{}, out[0])
	assert.Equal(t, 1, a.Machine.Sessions())
}

func TestNew_Errors(t *testing.T) {
	t.Run("invalid config", func(t *testing.T) {
		cfg := testConfig()
		cfg.QuizSize = 0
		_, err := New(cfg, quietLogger())
		assert.ErrorContains(t, err, "quiz size must be positive")
	})

	t.Run("missing seed file", func(t *testing.T) {
		cfg := testConfig()
		cfg.SeedPath = t.TempDir() + "/missing.json"
		_, err := New(cfg, quietLogger())
		assert.ErrorContains(t, err, "load seed")
	})
}

func TestTopUpQuestions(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		a := newApp(t, testConfig())
		before := a.Bank.Size("Math")
		a.TopUpQuestions(context.Background())
		assert.Equal(t, before, a.Bank.Size("Math"))
	})

	t.Run("provider failures leave the seed bank", func(t *testing.T) {
		cfg := testConfig()
		cfg.GenerateQuestions = 2
		cfg.LLM.Provider = llm.ProviderMock
		cfg.LLM.Retry.MaxAttempts = 1
		a := newApp(t, cfg)
		before := a.Bank.Size("Math")

		a.TopUpQuestions(context.Background())

		assert.Equal(t, before, a.Bank.Size("Math"))
		reqs, err := a.Store.LLMRequestLog().RecentLLMRequests(context.Background(), questiongen.Purpose, 10)
		require.NoError(t, err)
		require.Len(t, reqs, 3)
		assert.False(t, reqs[0].Success)
	})
}

func TestRunJanitor(t *testing.T) {
	t.Run("disabled returns at once", func(t *testing.T) {
		a := newApp(t, testConfig())
		done := make(chan struct{})
		go func() {
			a.RunJanitor(context.Background())
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("janitor did not return")
		}
	})

	t.Run("stops on cancel", func(t *testing.T) {
		cfg := testConfig()
		cfg.IdleTimeout = time.Hour
		a := newApp(t, cfg)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			a.RunJanitor(ctx)
			close(done)
		}()
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("janitor did not stop")
		}
	})
}
