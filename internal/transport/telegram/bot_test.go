package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"github.com/debreselam/schoolbot/internal/render"
	"github.com/debreselam/schoolbot/internal/session"
)

func TestEventFor(t *testing.T) {
	const sid = "42"
	tests := []struct {
		name   string
		update tele.Update
		want   session.Event
	}{
		{
			name:   "start",
			update: tele.Update{Message: &tele.Message{Text: "/start"}},
			want:   session.Restart{Session: sid},
		},
		{
			name:   "start with bot name",
			update: tele.Update{Message: &tele.Message{Text: "/start@schoolbot ref"}},
			want:   session.Restart{Session: sid},
		},
		{
			name:   "text",
			update: tele.Update{Message: &tele.Message{Text: "STS0001"}},
			want:   session.SubmitText{Session: sid, Text: "STS0001"},
		},
		{
			name:   "starter is not start",
			update: tele.Update{Message: &tele.Message{Text: "/starter"}},
			want:   session.SubmitText{Session: sid, Text: "/starter"},
		},
		{
			name: "contact",
			update: tele.Update{Message: &tele.Message{Contact: &tele.Contact{
				PhoneNumber: "+251911000000",
				FirstName:   "Sarah",
				LastName:    "Johnson",
			}}},
			want: session.ShareContact{Session: sid, Phone: "+251911000000", DisplayName: "Sarah Johnson"},
		},
		{
			name:   "language callback",
			update: tele.Update{Callback: &tele.Callback{Data: "set_lang:am"}},
			want:   session.SelectLanguage{Session: sid, Code: "am"},
		},
		{
			name:   "action callback",
			update: tele.Update{Callback: &tele.Callback{Data: "submit_answer:Time: 10:30"}},
			want:   session.InvokeAction{Session: sid, Action: "submit_answer:Time: 10:30"},
		},
		{
			name:   "empty message",
			update: tele.Update{Message: &tele.Message{}},
		},
		{
			name:   "no message",
			update: tele.Update{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eventFor(sid, tt.update))
		})
	}
}

func TestSessionID(t *testing.T) {
	assert.Equal(t, "-1001234", sessionID(-1001234))
}

func TestMarkups(t *testing.T) {
	t.Run("inline buttons", func(t *testing.T) {
		first, second := markups(render.Message{
			Text:    "menu",
			Buttons: [][]render.Button{{{Label: "📚 Study Materials", Action: "materials"}}, {{Label: "A", Action: "a"}, {Label: "B", Action: "b"}}},
		})
		require.NotNil(t, first)
		assert.Nil(t, second)
		require.Len(t, first.InlineKeyboard, 2)
		assert.Equal(t, tele.InlineButton{Text: "📚 Study Materials", Data: "materials"}, first.InlineKeyboard[0][0])
		assert.Len(t, first.InlineKeyboard[1], 2)
	})

	t.Run("contact request with alternatives", func(t *testing.T) {
		first, second := markups(render.Message{
			RequestContact: true,
			Buttons:        [][]render.Button{{{Label: "⌨️ Enter Manually", Action: "enter_contact"}}},
		})
		require.NotNil(t, first)
		require.Len(t, first.ReplyKeyboard, 1)
		assert.True(t, first.ReplyKeyboard[0][0].Contact)
		assert.True(t, first.OneTimeKeyboard)
		require.NotNil(t, second)
		assert.Equal(t, "enter_contact", second.InlineKeyboard[0][0].Data)
	})

	t.Run("remove keyboard", func(t *testing.T) {
		first, second := markups(render.Message{RemoveKeyboard: true})
		require.NotNil(t, first)
		assert.True(t, first.RemoveKeyboard)
		assert.Nil(t, second)
	})

	t.Run("plain text", func(t *testing.T) {
		first, second := markups(render.Message{Text: "hi"})
		assert.Nil(t, first)
		assert.Nil(t, second)
	})
}
