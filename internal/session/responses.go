package session

import (
	"time"

	"github.com/debreselam/schoolbot/internal/directory"
	"github.com/debreselam/schoolbot/internal/lang"
	"github.com/debreselam/schoolbot/internal/quiz"
)

// Response is an outbound result for the presentation layer.
type Response interface {
	response()
}

// PromptKind names the input a Prompt asks for.
type PromptKind string

const (
	PromptIdentifier       PromptKind = "awaiting-identifier"
	PromptCredential       PromptKind = "awaiting-credential"
	PromptNewCredential    PromptKind = "awaiting-new-credential"
	PromptContactMethod    PromptKind = "awaiting-contact-method"
	PromptManualContact    PromptKind = "awaiting-manual-contact"
	PromptCredentialChange PromptKind = "awaiting-credential-change"
)

// Prompt asks the user for the next input. Name and Role describe the
// account being logged in, when there is one.
type Prompt struct {
	Kind      PromptKind
	Name      string
	Role      directory.Role
	MinLength int
}

// Rejected reports a recoverable error; Reason is one of the session
// package's Err values.
type Rejected struct {
	Reason error
}

// MenuContext carries the role-specific fields shown with a menu.
type MenuContext struct {
	Class   string
	Subject string
}

// MenuReady presents the role menu after login or when returning to it.
type MenuReady struct {
	Role    directory.Role
	Name    string
	Context MenuContext
	Actions []string
}

// QuestionReady presents one quiz question.
type QuestionReady struct {
	Subject string
	Text    string
	Options []string
	Ordinal int
	Total   int
}

// AnswerGraded reports the grade of the answer just submitted.
type AnswerGraded struct {
	Correct  bool
	Expected string
}

// QuizResult is the final report of an attempt.
type QuizResult struct {
	Subject    string
	Score      int
	Total      int
	Percentage float64
	Elapsed    time.Duration
	Answers    []quiz.AnswerRecord
}

// ElapsedSeconds returns Elapsed in whole seconds.
func (r QuizResult) ElapsedSeconds() int {
	return int(r.Elapsed / time.Second)
}

// LanguageMenu offers the supported languages. Back is the action of the
// back button, empty when there is none.
type LanguageMenu struct {
	Languages []lang.Language
	Back      string
}

// NoticeKind names a short confirmation.
type NoticeKind string

const (
	NoticeLanguageSet       NoticeKind = "language_set"
	NoticeCredentialChanged NoticeKind = "credential_changed"
	NoticeContactSaved      NoticeKind = "contact_saved"
	NoticeLoggedOut         NoticeKind = "logged_out"
	NoticeUseStart          NoticeKind = "use_start"
	NoticeHomeworkClass     NoticeKind = "homework_class"
	NoticeGradeEntry        NoticeKind = "grade_entry"
	NoticeAttendanceMarked  NoticeKind = "attendance_marked"
)

// Notice is a one-line confirmation; Detail fills in the specifics.
type Notice struct {
	Kind   NoticeKind
	Detail string
}

// Info is read-only content for a menu feature. Topic is the action that
// produced it; Scope narrows it, e.g. to a class.
type Info struct {
	Topic string
	Scope string
	Lines []string
	Back  string
}

// Choice is one selectable option. An empty Label means the action's
// standard label.
type Choice struct {
	Label  string
	Action string
}

// Choices asks the user to pick an action. Rows group options that belong
// on the same line.
type Choices struct {
	Topic string
	Scope string
	Rows  [][]Choice
	Back  string
}

func (Prompt) response()        {}
func (Rejected) response()      {}
func (MenuReady) response()     {}
func (QuestionReady) response() {}
func (AnswerGraded) response()  {}
func (QuizResult) response()    {}
func (LanguageMenu) response()  {}
func (Notice) response()        {}
func (Info) response()          {}
func (Choices) response()       {}
