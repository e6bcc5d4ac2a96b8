package session

import "github.com/debreselam/schoolbot/internal/directory"

// Expectation records what input the session is waiting for. The variant
// set is closed; variants that need a login candidate carry it, so a
// candidate-dependent state without a candidate cannot be built.
type Expectation interface {
	// Name is the stable state name used in logs and prompts.
	Name() string
	expectation()
}

// Idle expects nothing in particular: menu actions, or /start.
type Idle struct{}

// AwaitingIdentifier waits for an account identifier.
type AwaitingIdentifier struct{}

// AwaitingCredential waits for the candidate's current credential.
type AwaitingCredential struct {
	Candidate directory.Account
}

// AwaitingNewCredential waits for a replacement for a default credential.
type AwaitingNewCredential struct {
	Candidate directory.Account
}

// AwaitingContactMethod waits for a shared contact. A nil Candidate means
// the contact is being updated from settings after login.
type AwaitingContactMethod struct {
	Candidate *directory.Account
}

// AwaitingManualContact waits for a typed phone number. A nil Candidate
// means the settings flow.
type AwaitingManualContact struct {
	Candidate *directory.Account
}

// AwaitingCredentialChange waits for a new credential from the settings
// flow of a logged-in session.
type AwaitingCredentialChange struct{}

func (Idle) Name() string                     { return "none" }
func (AwaitingIdentifier) Name() string       { return "awaiting-identifier" }
func (AwaitingCredential) Name() string       { return "awaiting-credential" }
func (AwaitingNewCredential) Name() string    { return "awaiting-new-credential" }
func (AwaitingContactMethod) Name() string    { return "awaiting-contact-method" }
func (AwaitingManualContact) Name() string    { return "awaiting-manual-contact" }
func (AwaitingCredentialChange) Name() string { return "awaiting-credential-change" }

func (Idle) expectation()                     {}
func (AwaitingIdentifier) expectation()       {}
func (AwaitingCredential) expectation()       {}
func (AwaitingNewCredential) expectation()    {}
func (AwaitingContactMethod) expectation()    {}
func (AwaitingManualContact) expectation()    {}
func (AwaitingCredentialChange) expectation() {}

// loginCandidate returns the pending login account carried by the contact
// variants, if any.
func loginCandidate(e Expectation) (*directory.Account, bool) {
	switch v := e.(type) {
	case AwaitingContactMethod:
		return v.Candidate, v.Candidate != nil
	case AwaitingManualContact:
		return v.Candidate, v.Candidate != nil
	}
	return nil, false
}
