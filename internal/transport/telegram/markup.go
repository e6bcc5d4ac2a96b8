package telegram

import (
	"github.com/samber/lo"
	tele "gopkg.in/telebot.v3"

	"github.com/debreselam/schoolbot/internal/render"
)

const shareContactLabel = "📱 Share Contact"

// send delivers msg. A contact request uses the reply keyboard, which
// cannot be combined with inline buttons, so those follow in a second
// message.
func send(c tele.Context, msg render.Message) error {
	first, second := markups(msg)
	var opts []any
	if first != nil {
		opts = append(opts, first)
	}
	if err := c.Send(msg.Text, opts...); err != nil {
		return err
	}
	if second != nil {
		return c.Send("Or choose:", second)
	}
	return nil
}

// markups returns the markup of the message itself and, when needed, of a
// follow-up carrying the inline buttons. Plain text gets no markup.
func markups(msg render.Message) (first, second *tele.ReplyMarkup) {
	switch {
	case msg.RequestContact:
		first = &tele.ReplyMarkup{
			ReplyKeyboard:   [][]tele.ReplyButton{{{Text: shareContactLabel, Contact: true}}},
			ResizeKeyboard:  true,
			OneTimeKeyboard: true,
		}
		if len(msg.Buttons) > 0 {
			second = inline(msg.Buttons)
		}
	case len(msg.Buttons) > 0:
		first = inline(msg.Buttons)
	case msg.RemoveKeyboard:
		first = &tele.ReplyMarkup{RemoveKeyboard: true}
	}
	return first, second
}

func inline(rows [][]render.Button) *tele.ReplyMarkup {
	return &tele.ReplyMarkup{
		InlineKeyboard: lo.Map(rows, func(row []render.Button, _ int) []tele.InlineButton {
			return lo.Map(row, func(b render.Button, _ int) tele.InlineButton {
				return tele.InlineButton{Text: b.Label, Data: b.Action}
			})
		}),
	}
}
