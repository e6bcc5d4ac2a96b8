// Package app assembles the bot from configuration: seed data, directory,
// question bank, quiz engine, activity store and session machine. Every
// transport runs on top of an App.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/debreselam/schoolbot/internal/authz"
	"github.com/debreselam/schoolbot/internal/config"
	"github.com/debreselam/schoolbot/internal/directory"
	"github.com/debreselam/schoolbot/internal/lang"
	"github.com/debreselam/schoolbot/internal/llm"
	"github.com/debreselam/schoolbot/internal/questiongen"
	"github.com/debreselam/schoolbot/internal/quiz"
	"github.com/debreselam/schoolbot/internal/seed"
	"github.com/debreselam/schoolbot/internal/session"
	"github.com/debreselam/schoolbot/internal/store"
)

// App holds the assembled components.
type App struct {
	Config    config.Config
	Dataset   *seed.Dataset
	Directory *directory.Memory
	Bank      *quiz.Bank
	Engine    *quiz.Engine
	Store     *store.Store
	Machine   *session.Machine
	Log       logrus.FieldLogger
}

// New builds an App from cfg. The caller must Close it.
func New(cfg config.Config, log logrus.FieldLogger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	ds, err := loadSeed(cfg.SeedPath)
	if err != nil {
		return nil, err
	}
	dir := directory.NewMemory(cfg.BcryptCost)
	bank := quiz.NewBank()
	if err := ds.Populate(dir, bank); err != nil {
		return nil, fmt.Errorf("populate seed: %w", err)
	}

	st, err := store.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	engine := quiz.NewEngine(bank, quiz.Options{SampleSize: cfg.QuizSize})
	m, err := session.NewMachine(session.Config{
		Directory:           dir,
		Quizzes:             engine,
		Gate:                authz.NewGate(nil),
		Languages:           lang.NewPreferences(),
		Catalog:             ds.Catalog,
		Contacts:            st.ContactLog(),
		Attempts:            st.AttemptLog(),
		MinCredentialLength: cfg.MinCredential,
		Logger:              log,
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"accounts": len(ds.Accounts),
		"subjects": len(bank.Subjects()),
		"db":       cfg.DB,
	}).Info("schoolbot ready")

	return &App{
		Config:    cfg,
		Dataset:   ds,
		Directory: dir,
		Bank:      bank,
		Engine:    engine,
		Store:     st,
		Machine:   m,
		Log:       log,
	}, nil
}

func loadSeed(path string) (*seed.Dataset, error) {
	if path == "" {
		return seed.Default()
	}
	ds, err := seed.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load seed %s: %w", path, err)
	}
	return ds, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}

// Provider builds the configured LLM provider, logging to the store.
func (a *App) Provider(ctx context.Context) (llm.Provider, error) {
	return llm.NewProvider(ctx, a.Config.LLM, a.Store.LLMRequestLog(), a.Log)
}

// TopUpQuestions adds Config.GenerateQuestions LLM-written questions to
// every subject. It does nothing when generation is disabled. Failures are
// logged; the bot runs on the seed bank alone.
func (a *App) TopUpQuestions(ctx context.Context) {
	n := a.Config.GenerateQuestions
	if n <= 0 {
		return
	}
	provider, err := a.Provider(ctx)
	if err != nil {
		a.Log.WithError(err).Warn("LLM provider not configured; skipping question generation")
		return
	}
	gen := questiongen.New(provider, questiongen.DefaultConfig())
	if _, err := questiongen.TopUp(ctx, gen, a.Bank, n, a.Log); err != nil {
		a.Log.WithError(err).Warn("question generation stopped")
	}
}

// RunJanitor sweeps idle sessions and quizzes every interval until ctx is
// done. It returns immediately when idle expiry is disabled.
func (a *App) RunJanitor(ctx context.Context) {
	idle := a.Config.IdleTimeout
	if idle <= 0 {
		return
	}
	interval := max(idle/4, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions, quizzes := a.Machine.Sweep(idle)
			if sessions > 0 || quizzes > 0 {
				a.Log.WithFields(logrus.Fields{
					"sessions": sessions,
					"quizzes":  quizzes,
				}).Info("expired idle sessions")
			}
		}
	}
}
