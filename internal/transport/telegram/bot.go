// Package telegram serves the session machine over the Telegram Bot API
// using long polling. Each chat is one session.
package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"

	"github.com/debreselam/schoolbot/internal/authz"
	"github.com/debreselam/schoolbot/internal/render"
	"github.com/debreselam/schoolbot/internal/session"
)

// Handler processes one event. *session.Machine satisfies it.
type Handler interface {
	Handle(ctx context.Context, ev session.Event) []session.Response
}

// Options configures a Bot.
type Options struct {
	Token       string
	PollTimeout time.Duration
	Logger      logrus.FieldLogger
}

// Bot relays Telegram updates to a Handler.
type Bot struct {
	bot     *tele.Bot
	handler Handler
	log     logrus.FieldLogger
	ctx     context.Context
}

// New connects to the Bot API and registers the update handlers.
func New(h Handler, opts Options) (*Bot, error) {
	if opts.Token == "" {
		return nil, errors.New("telegram: bot token is required")
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	log := opts.Logger.WithField("transport", "telegram")

	b := &Bot{handler: h, log: log, ctx: context.Background()}
	tb, err := tele.NewBot(tele.Settings{
		Token:  opts.Token,
		Poller: &tele.LongPoller{Timeout: opts.PollTimeout},
		OnError: func(err error, c tele.Context) {
			entry := log.WithError(err)
			if c != nil && c.Chat() != nil {
				entry = entry.WithField("chat_id", c.Chat().ID)
			}
			entry.Error("telegram update failed")
		},
	})
	if err != nil {
		return nil, err
	}
	b.bot = tb

	tb.Handle("/start", b.onUpdate)
	tb.Handle(tele.OnText, b.onUpdate)
	tb.Handle(tele.OnContact, b.onUpdate)
	tb.Handle(tele.OnCallback, b.onUpdate)
	return b, nil
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	go func() {
		<-ctx.Done()
		b.bot.Stop()
	}()
	b.log.WithField("username", b.bot.Me.Username).Info("telegram bot started")
	b.bot.Start()
	return nil
}

func (b *Bot) onUpdate(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	if c.Callback() != nil {
		if err := c.Respond(); err != nil {
			b.log.WithError(err).Debug("answer callback")
		}
	}
	ev := eventFor(sessionID(chat.ID), c.Update())
	if ev == nil {
		return nil
	}
	for _, msg := range render.All(b.handler.Handle(b.ctx, ev)) {
		if err := send(c, msg); err != nil {
			return err
		}
	}
	return nil
}

func sessionID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// eventFor maps an update to a session event, or nil when the update
// carries nothing the machine understands.
func eventFor(sid string, u tele.Update) session.Event {
	if u.Callback != nil {
		a := authz.Parse(u.Callback.Data)
		if a.Name == authz.SetLang && a.Arg != "" {
			return session.SelectLanguage{Session: sid, Code: a.Arg}
		}
		return session.InvokeAction{Session: sid, Action: u.Callback.Data}
	}
	m := u.Message
	if m == nil {
		return nil
	}
	switch {
	case m.Contact != nil:
		name := strings.TrimSpace(m.Contact.FirstName + " " + m.Contact.LastName)
		return session.ShareContact{Session: sid, Phone: m.Contact.PhoneNumber, DisplayName: name}
	case isStart(m.Text):
		return session.Restart{Session: sid}
	case m.Text != "":
		return session.SubmitText{Session: sid, Text: m.Text}
	}
	return nil
}

// isStart matches "/start" and "/start@botname", with or without a payload.
func isStart(text string) bool {
	cmd, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return cmd == "/start"
}
