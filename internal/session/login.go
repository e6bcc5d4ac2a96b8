package session

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/debreselam/schoolbot/internal/authz"
	"github.com/debreselam/schoolbot/internal/directory"
	"github.com/debreselam/schoolbot/internal/lang"
	"github.com/debreselam/schoolbot/internal/store"
)

func (m *Machine) restart(s *Session) []Response {
	if s.HasQuiz() {
		m.quizzes.Discard(s.ActiveQuiz)
	}
	s.clear()
	return []Response{LanguageMenu{Languages: lang.Supported()}}
}

// selectLanguage records the preference. Before login it (re)starts the
// identifier step; after login it returns to settings.
func (m *Machine) selectLanguage(s *Session, code string) []Response {
	l, err := m.langs.Set(s.ID, code)
	if err != nil {
		return reject(err)
	}
	set := Notice{Kind: NoticeLanguageSet, Detail: l.Name}
	if s.LoggedIn() {
		s.Expect = Idle{}
		return []Response{set, settingsChoices()}
	}
	s.Expect = AwaitingIdentifier{}
	return []Response{set, Prompt{Kind: PromptIdentifier}}
}

func (m *Machine) submitIdentifier(ctx context.Context, s *Session, text string, log logrus.FieldLogger) []Response {
	acct, err := m.dir.Get(ctx, text)
	if errors.Is(err, directory.ErrUnknownIdentifier) {
		return reject(ErrUnknownIdentifier)
	}
	if err != nil {
		return internal(log, err, "look up identifier")
	}
	s.Expect = AwaitingCredential{Candidate: acct}
	return []Response{Prompt{Kind: PromptCredential, Name: acct.Name, Role: acct.Role}}
}

func (m *Machine) submitCredential(ctx context.Context, s *Session, cand directory.Account, text string, log logrus.FieldLogger) []Response {
	ok, err := m.dir.VerifyCredential(ctx, cand.ID, strings.TrimSpace(text))
	if err != nil {
		return internal(log, err, "verify credential")
	}
	if !ok {
		return reject(ErrIncorrectCredential)
	}

	// Re-read: another session may have changed the account since the
	// identifier step.
	acct, err := m.dir.Get(ctx, cand.ID)
	if err != nil {
		return internal(log, err, "reload account")
	}
	if !acct.CredentialChanged {
		s.Expect = AwaitingNewCredential{Candidate: acct}
		return []Response{Prompt{Kind: PromptNewCredential, Name: acct.Name, Role: acct.Role, MinLength: m.minCred}}
	}
	return m.contactGate(s, acct, log)
}

func (m *Machine) submitNewCredential(ctx context.Context, s *Session, cand directory.Account, text string, log logrus.FieldLogger) []Response {
	cred := strings.TrimSpace(text)
	if utf8.RuneCountInString(cred) < m.minCred {
		return reject(ErrCredentialTooShort)
	}
	if err := m.dir.SetCredential(ctx, cand.ID, cred); err != nil {
		return internal(log, err, "set credential")
	}
	acct, err := m.dir.Get(ctx, cand.ID)
	if err != nil {
		return internal(log, err, "reload account")
	}
	log.WithField("account_id", acct.ID).Info("default credential replaced")
	return append([]Response{Notice{Kind: NoticeCredentialChanged}}, m.contactGate(s, acct, log)...)
}

// changeCredential is the settings flow for a logged-in session.
func (m *Machine) changeCredential(ctx context.Context, s *Session, text string, log logrus.FieldLogger) []Response {
	if !s.LoggedIn() {
		s.Expect = Idle{}
		return reject(ErrSessionExpiredOrMissing)
	}
	cred := strings.TrimSpace(text)
	if utf8.RuneCountInString(cred) < m.minCred {
		return reject(ErrCredentialTooShort)
	}
	if err := m.dir.SetCredential(ctx, s.Identity.AccountID, cred); err != nil {
		return internal(log, err, "set credential")
	}
	s.Expect = Idle{}
	log.WithField("account_id", s.Identity.AccountID).Info("credential changed from settings")
	return []Response{Notice{Kind: NoticeCredentialChanged}, m.menu(s)}
}

// contactGate completes login when the account has a contact on file and
// otherwise asks for one.
func (m *Machine) contactGate(s *Session, acct directory.Account, log logrus.FieldLogger) []Response {
	if !acct.HasContact() {
		cand := acct
		s.Expect = AwaitingContactMethod{Candidate: &cand}
		return []Response{Prompt{Kind: PromptContactMethod, Name: acct.Name, Role: acct.Role}}
	}
	return []Response{m.completeLogin(s, acct, log)}
}

func (m *Machine) completeLogin(s *Session, acct directory.Account, log logrus.FieldLogger) MenuReady {
	s.Identity = &Identity{
		AccountID: acct.ID,
		Name:      acct.Name,
		Role:      acct.Role,
		Class:     acct.Class(),
		Subject:   acct.Subject(),
	}
	s.Expect = Idle{}
	log.WithFields(logrus.Fields{
		"account_id": acct.ID,
		"role":       acct.Role.String(),
	}).Info("login completed")
	return m.menu(s)
}

// menu builds the role menu. Callers ensure s is logged in.
func (m *Machine) menu(s *Session) MenuReady {
	id := s.Identity
	return MenuReady{
		Role:    id.Role,
		Name:    id.Name,
		Context: MenuContext{Class: id.Class, Subject: id.Subject},
		Actions: authz.MenuFor(id.Role),
	}
}

// shareContact records a contact for the pending login candidate, or for
// the logged-in account when no candidate is pending.
func (m *Machine) shareContact(ctx context.Context, s *Session, phone, displayName string, log logrus.FieldLogger) []Response {
	cand, pending := loginCandidate(s.Expect)

	var accountID, name string
	switch {
	case pending:
		accountID, name = cand.ID, cand.Name
	case s.LoggedIn():
		accountID, name = s.Identity.AccountID, s.Identity.Name
	default:
		return reject(ErrSessionExpiredOrMissing)
	}

	phone = strings.TrimSpace(phone)
	if phone == "" {
		return reject(ErrEmptyContact)
	}
	if displayName = strings.TrimSpace(displayName); displayName == "" {
		displayName = name
	}

	c := directory.Contact{Phone: phone, Name: displayName}
	if err := m.dir.SetContact(ctx, accountID, c); err != nil {
		return internal(log, err, "set contact")
	}
	if m.contacts != nil {
		err := m.contacts.AppendContact(ctx, store.SharedContact{
			AccountID: accountID,
			Phone:     c.Phone,
			Name:      c.Name,
			SharedAt:  m.now(),
		})
		if err != nil {
			// The directory already holds the contact; the log is best effort.
			log.WithError(err).Warn("append shared contact")
		}
	}

	saved := Notice{Kind: NoticeContactSaved}
	if pending {
		acct, err := m.dir.Get(ctx, accountID)
		if err != nil {
			return internal(log, err, "reload account")
		}
		return []Response{saved, m.completeLogin(s, acct, log)}
	}
	s.Expect = Idle{}
	return []Response{saved, m.menu(s)}
}
