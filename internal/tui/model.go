// Package tui is a local terminal chat client for the session machine. It
// renders the same messages the Telegram bot sends, with buttons picked by
// keyboard.
package tui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"github.com/samber/lo"

	"github.com/debreselam/schoolbot/internal/authz"
	"github.com/debreselam/schoolbot/internal/render"
	"github.com/debreselam/schoolbot/internal/session"
)

// Handler processes one event. *session.Machine satisfies it.
type Handler interface {
	Handle(ctx context.Context, ev session.Event) []session.Response
}

// responsesMsg carries the machine's answer to one event.
type responsesMsg struct {
	out []session.Response
}

type focusArea int

const (
	focusInput focusArea = iota
	focusButtons
)

const contactCommand = "/contact"

type entry struct {
	text     string
	fromUser bool
	rejected bool
	hint     bool
}

// Model is the root Bubble Tea model of the chat.
type Model struct {
	handler Handler
	ctx     context.Context
	sid     string

	transcript []entry
	buttons    []render.Button
	selected   int
	focus      focusArea
	secret     bool
	status     string

	input    textinput.Model
	viewport viewport.Model
	width    int
	height   int
}

// New creates a chat model for session sid.
func New(ctx context.Context, h Handler, sid string) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 256
	ti.Focus()

	return Model{
		handler:  h,
		ctx:      ctx,
		sid:      sid,
		input:    ti,
		viewport: viewport.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.send(session.Restart{Session: m.sid}), textinput.Blink)
}

func (m Model) send(ev session.Event) tea.Cmd {
	h, ctx := m.handler, m.ctx
	return func() tea.Msg {
		return responsesMsg{out: h.Handle(ctx, ev)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(max(msg.Width-6, 10))
		m.refresh()
		return m, nil

	case responsesMsg:
		m.apply(msg.out)
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.toggleFocus()
			return m, nil
		case "pgup":
			m.viewport.PageUp()
			return m, nil
		case "pgdown":
			m.viewport.PageDown()
			return m, nil
		}
		if m.focus == focusButtons {
			return m.handleButtonKey(msg)
		}
		if msg.String() == "enter" {
			return m.submitInput()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.focus == focusButtons || len(m.buttons) == 0 {
		m.focus = focusInput
		m.input.Focus()
		return
	}
	m.focus = focusButtons
	m.input.Blur()
}

func (m Model) handleButtonKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.buttons)-1 {
			m.selected++
		}
	case "enter":
		if m.selected >= len(m.buttons) {
			return m, nil
		}
		b := m.buttons[m.selected]
		m.say(entry{text: "▸ " + b.Label, fromUser: true})
		return m, m.send(actionEvent(m.sid, b.Action))
	}
	return m, nil
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.Reset()

	shown := text
	if m.secret {
		shown = strings.Repeat("•", len([]rune(text)))
	}
	m.say(entry{text: shown, fromUser: true})
	return m, m.send(textEvent(m.sid, text))
}

// actionEvent maps a button press to an event. Language buttons select the
// language directly.
func actionEvent(sid, action string) session.Event {
	a := authz.Parse(action)
	if a.Name == authz.SetLang && a.Arg != "" {
		return session.SelectLanguage{Session: sid, Code: a.Arg}
	}
	return session.InvokeAction{Session: sid, Action: action}
}

// textEvent maps typed text to an event. "/start" restarts and
// "/contact <phone>" stands in for a shared contact.
func textEvent(sid, text string) session.Event {
	cmd, rest, _ := strings.Cut(text, " ")
	switch cmd {
	case "/start":
		return session.Restart{Session: sid}
	case contactCommand:
		return session.ShareContact{Session: sid, Phone: strings.TrimSpace(rest)}
	}
	return session.SubmitText{Session: sid, Text: text}
}

// apply appends rendered responses to the transcript and takes the buttons
// of the last message that has any. Rejections keep the current buttons.
func (m *Model) apply(out []session.Response) {
	for _, r := range out {
		msg := render.Render(r)
		_, rejected := r.(session.Rejected)
		m.say(entry{text: msg.Text, rejected: rejected})

		if p, ok := r.(session.Prompt); ok {
			m.secret = isSecret(p.Kind)
		} else if !rejected {
			m.secret = false
		}
		switch r := r.(type) {
		case session.MenuReady:
			m.status = fmt.Sprintf("%s · %s", r.Name, r.Role)
		case session.LanguageMenu:
			m.status = ""
		case session.Notice:
			if r.Kind == session.NoticeLoggedOut {
				m.status = ""
			}
		}

		if msg.RequestContact {
			m.say(entry{text: "Type " + contactCommand + " <phone> to share your number.", hint: true})
		}
		switch {
		case len(msg.Buttons) > 0:
			m.buttons = lo.Flatten(msg.Buttons)
		case !rejected:
			m.buttons = nil
		}
	}

	m.selected = 0
	if len(m.buttons) > 0 {
		m.focus = focusButtons
		m.input.Blur()
	} else {
		m.focus = focusInput
		m.input.Focus()
	}
	if m.secret {
		m.input.EchoMode = textinput.EchoPassword
	} else {
		m.input.EchoMode = textinput.EchoNormal
	}
}

func isSecret(k session.PromptKind) bool {
	switch k {
	case session.PromptCredential, session.PromptNewCredential, session.PromptCredentialChange:
		return true
	}
	return false
}

func (m *Model) say(e entry) {
	m.transcript = append(m.transcript, e)
	m.refresh()
}

func (m *Model) refresh() {
	blocks := lo.Map(m.transcript, func(e entry, _ int) string {
		switch {
		case e.fromUser:
			return userStyle.Render("you: " + e.text)
		case e.rejected:
			return rejectedStyle.Render(e.text)
		case e.hint:
			return hintStyle.Render(e.text)
		}
		return botStyle.Render(e.text)
	})
	m.viewport.SetContent(strings.Join(blocks, "\n\n"))
	m.viewport.GotoBottom()
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.frame())
	return v
}

// frame renders the whole screen for the current size.
func (m Model) frame() string {
	if tooSmall(m.width, m.height) {
		return renderMinSizeMessage(m.width, m.height)
	}

	header := renderHeader(m.status, m.width)
	footer := renderFooter(m.keyHints(), m.width)
	buttons := m.renderButtons()

	vp := m.viewport
	vp.SetWidth(m.width)
	avail := m.height - 6 - strings.Count(buttons, "\n") - 3
	vp.SetHeight(max(avail, 3))
	vp.GotoBottom()

	content := vp.View() + "\n\n" + buttons + "\n" + m.input.View()
	return renderFrame(header, content, footer, m.width, m.height)
}

func (m Model) renderButtons() string {
	if len(m.buttons) == 0 {
		return ""
	}
	lines := make([]string, len(m.buttons))
	for i, b := range m.buttons {
		switch {
		case m.focus != focusButtons:
			lines[i] = buttonDimmed.Render("  " + b.Label)
		case i == m.selected:
			lines[i] = buttonSelected.Render("▸ " + b.Label)
		default:
			lines[i] = buttonIdle.Render("  " + b.Label)
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m Model) keyHints() []keyHint {
	if m.focus == focusButtons {
		return []keyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Tab", Description: "Type"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	hints := []keyHint{{Key: "Enter", Description: "Send"}}
	if len(m.buttons) > 0 {
		hints = append(hints, keyHint{Key: "Tab", Description: "Buttons"})
	}
	return append(hints, keyHint{Key: "Ctrl+C", Description: "Quit"})
}

// Run starts the chat program and blocks until the user quits.
func Run(ctx context.Context, h Handler, sid string) error {
	p := tea.NewProgram(New(ctx, h, sid), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
