package session

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/debreselam/schoolbot/internal/authz"
	"github.com/debreselam/schoolbot/internal/directory"
	"github.com/debreselam/schoolbot/internal/lang"
	"github.com/debreselam/schoolbot/internal/quiz"
	"github.com/debreselam/schoolbot/internal/seed"
	"github.com/debreselam/schoolbot/internal/store"
)

// DefaultMinCredentialLength is the shortest accepted new credential.
const DefaultMinCredentialLength = 6

// Config wires a Machine to its collaborators. Directory, Quizzes and
// Languages are required; the rest are optional.
type Config struct {
	Directory directory.Directory
	// Lister enables rosters and analytics. When nil and Directory
	// implements directory.Lister, Directory is used.
	Lister    directory.Lister
	Quizzes   *quiz.Engine
	Gate      *authz.Gate
	Languages *lang.Preferences
	Catalog   seed.Catalog
	Contacts  store.ContactLog
	Attempts  store.AttemptLog

	MinCredentialLength int
	Logger              logrus.FieldLogger
	Now                 func() time.Time
}

// Machine is the session state machine. Handle is safe for concurrent use;
// events for the same session are processed one at a time.
type Machine struct {
	dir      directory.Directory
	lister   directory.Lister
	quizzes  *quiz.Engine
	gate     *authz.Gate
	langs    *lang.Preferences
	catalog  seed.Catalog
	contacts store.ContactLog
	attempts store.AttemptLog
	minCred  int
	log      logrus.FieldLogger
	now      func() time.Time
	sessions *table
}

// NewMachine validates cfg and builds a Machine.
func NewMachine(cfg Config) (*Machine, error) {
	if cfg.Directory == nil {
		return nil, errors.New("session: directory is required")
	}
	if cfg.Quizzes == nil {
		return nil, errors.New("session: quiz engine is required")
	}
	if cfg.Languages == nil {
		return nil, errors.New("session: language preferences are required")
	}
	if cfg.Lister == nil {
		if l, ok := cfg.Directory.(directory.Lister); ok {
			cfg.Lister = l
		}
	}
	if cfg.Gate == nil {
		cfg.Gate = authz.NewGate(nil)
	}
	if cfg.MinCredentialLength <= 0 {
		cfg.MinCredentialLength = DefaultMinCredentialLength
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Machine{
		dir:      cfg.Directory,
		lister:   cfg.Lister,
		quizzes:  cfg.Quizzes,
		gate:     cfg.Gate,
		langs:    cfg.Languages,
		catalog:  cfg.Catalog,
		contacts: cfg.Contacts,
		attempts: cfg.Attempts,
		minCred:  cfg.MinCredentialLength,
		log:      cfg.Logger,
		now:      cfg.Now,
		sessions: newTable(),
	}, nil
}

// Handle processes one event to completion and returns the responses to
// render. It never panics: an unexpected fault is logged and reported as
// Rejected{ErrInternal}, and the session keeps its state from before the
// event.
func (m *Machine) Handle(ctx context.Context, ev Event) (out []Response) {
	e := m.sessions.acquire(ev.SessionID())
	defer e.mu.Unlock()

	log := m.log.WithFields(logrus.Fields{
		"session_id": ev.SessionID(),
		"event":      ev.Kind(),
		"state":      e.sess.Expect.Name(),
	})

	working := *e.sess
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(logrus.Fields{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			}).Error("event handler fault")
			out = reject(ErrInternal)
		}
	}()

	out = m.dispatch(ctx, &working, ev, log)
	working.LastSeen = m.now()
	*e.sess = working

	log.WithField("next_state", working.Expect.Name()).Debug("event handled")
	return out
}

// Session returns a copy of the session's current state.
func (m *Machine) Session(id string) (Session, bool) {
	return m.sessions.snapshot(id)
}

// Sweep drops sessions idle for longer than idle together with their
// language preferences and quizzes, then discards any other quiz idle that
// long.
func (m *Machine) Sweep(idle time.Duration) (sessions, quizzes int) {
	removed, orphaned := m.sessions.sweep(m.now().Add(-idle))
	m.langs.Forget(removed...)
	for _, id := range orphaned {
		m.quizzes.Discard(id)
	}
	return len(removed), len(orphaned) + m.quizzes.Sweep(idle)
}

// Sessions returns the number of live sessions.
func (m *Machine) Sessions() int {
	return m.sessions.len()
}

func (m *Machine) dispatch(ctx context.Context, s *Session, ev Event, log logrus.FieldLogger) []Response {
	switch ev := ev.(type) {
	case Restart:
		return m.restart(s)
	case SelectLanguage:
		return m.selectLanguage(s, ev.Code)
	case SubmitIdentifier:
		if _, ok := s.Expect.(AwaitingIdentifier); !ok {
			return useStart()
		}
		return m.submitIdentifier(ctx, s, ev.Text, log)
	case SubmitCredential:
		st, ok := s.Expect.(AwaitingCredential)
		if !ok {
			return useStart()
		}
		return m.submitCredential(ctx, s, st.Candidate, ev.Text, log)
	case SubmitNewCredential:
		switch st := s.Expect.(type) {
		case AwaitingNewCredential:
			return m.submitNewCredential(ctx, s, st.Candidate, ev.Text, log)
		case AwaitingCredentialChange:
			return m.changeCredential(ctx, s, ev.Text, log)
		}
		return useStart()
	case ShareContact:
		if _, pending := loginCandidate(s.Expect); !pending && !s.LoggedIn() {
			// A login in progress has not reached the contact step.
			if _, idle := s.Expect.(Idle); !idle {
				return useStart()
			}
		}
		return m.shareContact(ctx, s, ev.Phone, ev.DisplayName, log)
	case SubmitManualContact:
		if _, ok := s.Expect.(AwaitingManualContact); !ok {
			return useStart()
		}
		return m.shareContact(ctx, s, ev.Phone, "", log)
	case SubmitText:
		return m.submitText(ctx, s, ev.Text, log)
	case InvokeAction:
		return m.invoke(ctx, s, ev.Action, log)
	}
	return reject(ErrUnrecognizedAction)
}

// submitText routes free text by the current expectation.
func (m *Machine) submitText(ctx context.Context, s *Session, text string, log logrus.FieldLogger) []Response {
	switch st := s.Expect.(type) {
	case AwaitingIdentifier:
		return m.submitIdentifier(ctx, s, text, log)
	case AwaitingCredential:
		return m.submitCredential(ctx, s, st.Candidate, text, log)
	case AwaitingNewCredential:
		return m.submitNewCredential(ctx, s, st.Candidate, text, log)
	case AwaitingCredentialChange:
		return m.changeCredential(ctx, s, text, log)
	case AwaitingManualContact:
		return m.shareContact(ctx, s, text, "", log)
	case AwaitingContactMethod:
		// Typed text is not a shared contact; ask again.
		return []Response{Prompt{Kind: PromptContactMethod}}
	}
	return useStart()
}

func useStart() []Response {
	return []Response{Notice{Kind: NoticeUseStart}}
}

// internal logs an unexpected collaborator failure and reports it.
func internal(log logrus.FieldLogger, err error, msg string) []Response {
	log.WithError(err).Error(msg)
	return reject(ErrInternal)
}
