package session

// Event is an inbound event addressed to one session.
type Event interface {
	SessionID() string
	Kind() string
}

// Restart clears the session and offers the language menu.
type Restart struct{ Session string }

// SelectLanguage records the display language and starts login.
type SelectLanguage struct {
	Session string
	Code    string
}

// SubmitIdentifier carries a typed account identifier.
type SubmitIdentifier struct {
	Session string
	Text    string
}

// SubmitCredential carries the current credential.
type SubmitCredential struct {
	Session string
	Text    string
}

// SubmitNewCredential carries a replacement credential, either during
// first login or from settings.
type SubmitNewCredential struct {
	Session string
	Text    string
}

// ShareContact carries a contact shared through the transport's contact
// button.
type ShareContact struct {
	Session     string
	Phone       string
	DisplayName string
}

// SubmitManualContact carries a typed phone number.
type SubmitManualContact struct {
	Session string
	Phone   string
}

// SubmitText is free text whose meaning depends on the current
// expectation. Transports that cannot tell the steps apart send this.
type SubmitText struct {
	Session string
	Text    string
}

// InvokeAction is a menu selection such as "analytics" or
// "start_quiz:math".
type InvokeAction struct {
	Session string
	Action  string
}

func (e Restart) SessionID() string             { return e.Session }
func (e SelectLanguage) SessionID() string      { return e.Session }
func (e SubmitIdentifier) SessionID() string    { return e.Session }
func (e SubmitCredential) SessionID() string    { return e.Session }
func (e SubmitNewCredential) SessionID() string { return e.Session }
func (e ShareContact) SessionID() string        { return e.Session }
func (e SubmitManualContact) SessionID() string { return e.Session }
func (e SubmitText) SessionID() string          { return e.Session }
func (e InvokeAction) SessionID() string        { return e.Session }

func (Restart) Kind() string             { return "restart" }
func (SelectLanguage) Kind() string      { return "select_language" }
func (SubmitIdentifier) Kind() string    { return "submit_identifier" }
func (SubmitCredential) Kind() string    { return "submit_credential" }
func (SubmitNewCredential) Kind() string { return "submit_new_credential" }
func (ShareContact) Kind() string        { return "share_contact" }
func (SubmitManualContact) Kind() string { return "submit_manual_contact" }
func (SubmitText) Kind() string          { return "submit_text" }
func (InvokeAction) Kind() string        { return "invoke_action" }
