// Package render turns session responses into chat messages: text plus
// rows of buttons. Transports only map Message onto their own widgets.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/debreselam/schoolbot/internal/authz"
	"github.com/debreselam/schoolbot/internal/directory"
	"github.com/debreselam/schoolbot/internal/lang"
	"github.com/debreselam/schoolbot/internal/session"
)

// Button is one tappable option. Action is sent back as InvokeAction.
type Button struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

// Message is a rendered response.
type Message struct {
	Text    string     `json:"text"`
	Buttons [][]Button `json:"buttons,omitempty"`

	// RequestContact asks the transport for its native share-contact
	// control.
	RequestContact bool `json:"request_contact,omitempty"`

	// RemoveKeyboard clears a previously shown contact control.
	RemoveKeyboard bool `json:"remove_keyboard,omitempty"`
}

// All renders every response in order.
func All(rs []session.Response) []Message {
	return lo.Map(rs, func(r session.Response, _ int) Message { return Render(r) })
}

// Render converts a single response.
func Render(r session.Response) Message {
	switch r := r.(type) {
	case session.Prompt:
		return prompt(r)
	case session.Rejected:
		return Message{Text: rejection(r.Reason)}
	case session.MenuReady:
		return menu(r)
	case session.QuestionReady:
		return question(r)
	case session.AnswerGraded:
		if r.Correct {
			return Message{Text: "✅ Correct!"}
		}
		return Message{Text: fmt.Sprintf("❌ Incorrect! The answer was: %s", r.Expected)}
	case session.QuizResult:
		return result(r)
	case session.LanguageMenu:
		return languages(r)
	case session.Notice:
		return notice(r)
	case session.Info:
		return info(r)
	case session.Choices:
		return choices(r)
	}
	return Message{Text: rejection(session.ErrInternal)}
}

func prompt(p session.Prompt) Message {
	switch p.Kind {
	case session.PromptIdentifier:
		return Message{Text: "👤 Please enter your User ID:\n\n📝 Examples: STS0001, TCH1001, ADM5001"}
	case session.PromptCredential:
		return Message{Text: fmt.Sprintf("👋 Welcome %s!\n🎭 Role: %s\n\n🔐 Enter your password:", p.Name, title(p.Role.String()))}
	case session.PromptNewCredential:
		return Message{Text: fmt.Sprintf("⚠️ Change default password first!\n\nEnter new password (min %d chars):", p.MinLength)}
	case session.PromptContactMethod:
		return Message{
			Text:           "📱 Contact Verification Required\n\nTap the button to share your number, or enter it manually.",
			Buttons:        [][]Button{{button(authz.EnterContact)}},
			RequestContact: true,
		}
	case session.PromptManualContact:
		return Message{Text: "📱 Enter your phone number:", RemoveKeyboard: true}
	case session.PromptCredentialChange:
		return Message{Text: fmt.Sprintf("🔐 Enter new password (min %d chars):", p.MinLength)}
	}
	return Message{Text: string(p.Kind)}
}

func rejection(err error) string {
	switch {
	case errors.Is(err, session.ErrUnknownIdentifier):
		return "❌ Invalid User ID!\n\nTry: STS0001, TCH1001, ADM5001\n\nEnter again:"
	case errors.Is(err, session.ErrIncorrectCredential):
		return "❌ Incorrect password! Try again:"
	case errors.Is(err, session.ErrCredentialTooShort):
		return "❌ Password too short. Try again:"
	case errors.Is(err, session.ErrSessionExpiredOrMissing):
		return "❌ Session error. Use /start"
	case errors.Is(err, session.ErrNoQuizInProgress):
		return "❌ Quiz expired. Start again."
	case errors.Is(err, session.ErrSubjectHasNoQuestions):
		return "❌ No questions available."
	case errors.Is(err, session.ErrUnauthorized):
		return "❌ Please login with /start"
	case errors.Is(err, session.ErrUnrecognizedAction):
		return "❌ Unknown command"
	case errors.Is(err, session.ErrUnknownLanguage):
		return "❌ Unknown language"
	case errors.Is(err, session.ErrEmptyContact):
		return "❌ Phone number is empty. Try again:"
	case errors.Is(err, session.ErrAlreadyAnswered):
		return "⚠️ Already answered."
	case errors.Is(err, session.ErrNotQuizOwner):
		return "❌ This quiz belongs to another chat."
	}
	return "❌ Error occurred. Use /start"
}

type menuHeader struct{ m session.MenuReady }

func (h menuHeader) Student() string {
	return fmt.Sprintf("🎓 Welcome %s!\n🏫 Class: %s", h.m.Name, orUnknown(h.m.Context.Class))
}

func (h menuHeader) Teacher() string {
	return fmt.Sprintf("👨‍🏫 Welcome %s!\n📚 Subject: %s", h.m.Name, orUnknown(h.m.Context.Subject))
}

func (h menuHeader) Admin() string {
	return fmt.Sprintf("👑 Welcome %s!\n🛠 Administrator Panel", h.m.Name)
}

func menu(m session.MenuReady) Message {
	header := directory.Dispatch[string](m.Role, menuHeader{m})
	return Message{
		Text:    header + "\n\nPlease choose:",
		Buttons: lo.Map(m.Actions, func(a string, _ int) []Button { return []Button{button(a)} }),
	}
}

func question(q session.QuestionReady) Message {
	rows := lo.Map(q.Options, func(o string, i int) []Button {
		return []Button{{Label: fmt.Sprintf("%d. %s", i+1, o), Action: authz.With(authz.SubmitAnswer, o)}}
	})
	return Message{
		Text:    fmt.Sprintf("❓ Question %d/%d: %s", q.Ordinal, q.Total, q.Text),
		Buttons: rows,
	}
}

func result(r session.QuizResult) Message {
	var b strings.Builder
	b.WriteString("🏆 Quiz Completed!\n\n")
	fmt.Fprintf(&b, "📖 Subject: %s\n", title(r.Subject))
	fmt.Fprintf(&b, "📊 Score: %d/%d\n", r.Score, r.Total)
	fmt.Fprintf(&b, "📈 Percentage: %.1f%%\n", r.Percentage)
	fmt.Fprintf(&b, "⏱️ Time: %ds", r.ElapsedSeconds())
	return Message{
		Text:    b.String(),
		Buttons: [][]Button{{{Label: "⬅️ Menu", Action: authz.MainMenu}}},
	}
}

func languages(l session.LanguageMenu) Message {
	rows := lo.Map(l.Languages, func(lg lang.Language, _ int) []Button {
		return []Button{{Label: lg.Name, Action: authz.With(authz.SetLang, lg.Code)}}
	})
	if l.Back != "" {
		rows = append(rows, backButton(l.Back))
	}
	return Message{
		Text:    "🌍 Please choose your language / ቋንቋዎን ይምረጡ / Afaan kee filadhu:",
		Buttons: rows,
	}
}

func notice(n session.Notice) Message {
	switch n.Kind {
	case session.NoticeLanguageSet:
		return Message{Text: "✅ Language set to " + n.Detail}
	case session.NoticeCredentialChanged:
		return Message{Text: "✅ Password changed!"}
	case session.NoticeContactSaved:
		return Message{Text: "✅ Contact verified!", RemoveKeyboard: true}
	case session.NoticeLoggedOut:
		return Message{Text: "✅ Logged out. Use /start", RemoveKeyboard: true}
	case session.NoticeUseStart:
		return Message{Text: "Use /start to begin"}
	case session.NoticeHomeworkClass:
		return Message{Text: "📝 Homework assigned to " + n.Detail}
	case session.NoticeGradeEntry:
		return Message{Text: "📊 Recording grades for " + n.Detail}
	case session.NoticeAttendanceMarked:
		return Message{Text: "✅ Attendance marked: " + n.Detail}
	}
	return Message{Text: string(n.Kind)}
}

func heading(topic, scope string) string {
	h := Label(topic)
	if scope != "" {
		h += " for " + scope
	}
	return h
}

func info(i session.Info) Message {
	var b strings.Builder
	b.WriteString(heading(i.Topic, i.Scope))
	b.WriteString("\n\n")
	if len(i.Lines) == 0 {
		b.WriteString("Nothing to show.")
	} else {
		b.WriteString(strings.Join(i.Lines, "\n"))
	}
	msg := Message{Text: b.String()}
	if i.Back != "" {
		msg.Buttons = [][]Button{backButton(i.Back)}
	}
	return msg
}

func choices(c session.Choices) Message {
	rows := lo.Map(c.Rows, func(row []session.Choice, _ int) []Button {
		return lo.Map(row, func(ch session.Choice, _ int) Button {
			if ch.Label != "" {
				return Button{Label: ch.Label, Action: ch.Action}
			}
			return button(ch.Action)
		})
	})
	if c.Back != "" {
		rows = append(rows, backButton(c.Back))
	}
	return Message{Text: heading(c.Topic, c.Scope) + "\n\nPlease choose:", Buttons: rows}
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
