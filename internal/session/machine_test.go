package session

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/debreselam/schoolbot/internal/authz"
	"github.com/debreselam/schoolbot/internal/directory"
	"github.com/debreselam/schoolbot/internal/lang"
	"github.com/debreselam/schoolbot/internal/quiz"
	"github.com/debreselam/schoolbot/internal/seed"
	"github.com/debreselam/schoolbot/internal/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	m       *Machine
	dir     *directory.Memory
	quizzes *quiz.Engine
	langs   *lang.Preferences
	store   *store.Store
	clock   *fakeClock
	answers map[string]string
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// newHarness builds a machine over the embedded seed data and an in-memory
// store. mutate may adjust the config before the machine is built.
func newHarness(t *testing.T, mutate ...func(*Config)) *harness {
	t.Helper()

	ds, err := seed.Default()
	require.NoError(t, err)
	dir := directory.NewMemory(bcrypt.MinCost)
	bank := quiz.NewBank()
	require.NoError(t, ds.Populate(dir, bank))

	answers := make(map[string]string)
	for _, qs := range ds.Questions {
		for _, q := range qs {
			answers[q.Prompt] = q.Answer
		}
	}

	st, err := store.Open(store.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := &fakeClock{now: time.Date(2024, 9, 1, 9, 0, 0, 0, time.UTC)}
	engine := quiz.NewEngine(bank, quiz.Options{
		SampleSize: 3,
		Now:        clock.Now,
		Rand:       rand.New(rand.NewPCG(1, 2)),
	})
	langs := lang.NewPreferences()

	cfg := Config{
		Directory: dir,
		Quizzes:   engine,
		Languages: langs,
		Catalog:   ds.Catalog,
		Contacts:  st.ContactLog(),
		Attempts:  st.AttemptLog(),
		Logger:    quietLogger(),
		Now:       clock.Now,
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	m, err := NewMachine(cfg)
	require.NoError(t, err)

	return &harness{m: m, dir: dir, quizzes: engine, langs: langs, store: st, clock: clock, answers: answers}
}

func (h *harness) send(ev Event) []Response {
	return h.m.Handle(context.Background(), ev)
}

func (h *harness) expect(t *testing.T, sid string) Expectation {
	t.Helper()
	s, ok := h.m.Session(sid)
	require.True(t, ok, "session %s missing", sid)
	return s.Expect
}

// firstLogin walks a seed account with a default credential and no contact
// through the whole first-login flow and returns the final responses.
func (h *harness) firstLogin(t *testing.T, sid, id, credential string) []Response {
	t.Helper()
	h.send(SelectLanguage{Session: sid, Code: "en"})
	at[Prompt](t, h.send(SubmitIdentifier{Session: sid, Text: id}), 0)
	at[Prompt](t, h.send(SubmitCredential{Session: sid, Text: credential}), 0)
	out := h.send(SubmitNewCredential{Session: sid, Text: "newpass1"})
	at[Prompt](t, out, 1)
	return h.send(ShareContact{Session: sid, Phone: "+251911000000", DisplayName: "Self"})
}

func at[T Response](t *testing.T, out []Response, i int) T {
	t.Helper()
	require.Greater(t, len(out), i, "responses: %#v", out)
	v, ok := out[i].(T)
	require.True(t, ok, "response %d is %T, want %T", i, out[i], v)
	return v
}

func requireRejected(t *testing.T, out []Response, want error) {
	t.Helper()
	require.Len(t, out, 1, "responses: %#v", out)
	r := at[Rejected](t, out, 0)
	require.ErrorIs(t, r.Reason, want)
}

func TestFirstLoginScenario(t *testing.T) {
	h := newHarness(t)
	const sid = "chat-1"

	out := h.send(SelectLanguage{Session: sid, Code: "am"})
	require.Len(t, out, 2)
	assert.Equal(t, Notice{Kind: NoticeLanguageSet, Detail: "አማርኛ 🇪🇹"}, out[0])
	assert.Equal(t, Prompt{Kind: PromptIdentifier}, out[1])

	out = h.send(SubmitIdentifier{Session: sid, Text: "sts0001"})
	require.Len(t, out, 1)
	assert.Equal(t, Prompt{Kind: PromptCredential, Name: "ሚካኤል አለማየሁ", Role: directory.RoleStudent}, out[0])

	out = h.send(SubmitCredential{Session: sid, Text: "student123"})
	p := at[Prompt](t, out, 0)
	assert.Equal(t, PromptNewCredential, p.Kind)
	assert.Equal(t, DefaultMinCredentialLength, p.MinLength)

	requireRejected(t, h.send(SubmitNewCredential{Session: sid, Text: "abc"}), ErrCredentialTooShort)
	assert.IsType(t, AwaitingNewCredential{}, h.expect(t, sid))

	out = h.send(SubmitNewCredential{Session: sid, Text: "newpass1"})
	require.Len(t, out, 2)
	assert.Equal(t, Notice{Kind: NoticeCredentialChanged}, out[0])
	assert.Equal(t, PromptContactMethod, at[Prompt](t, out, 1).Kind)

	out = h.send(ShareContact{Session: sid, Phone: "+251911000000", DisplayName: "Name"})
	require.Len(t, out, 2)
	assert.Equal(t, Notice{Kind: NoticeContactSaved}, out[0])
	menu := at[MenuReady](t, out, 1)
	assert.Equal(t, directory.RoleStudent, menu.Role)
	assert.Equal(t, "ቀዳማይ", menu.Context.Class)
	assert.Equal(t, authz.MenuFor(directory.RoleStudent), menu.Actions)

	s, ok := h.m.Session(sid)
	require.True(t, ok)
	require.True(t, s.LoggedIn())
	assert.Equal(t, "STS0001", s.Identity.AccountID)
	assert.Equal(t, Idle{}, s.Expect)

	acct, err := h.dir.Get(context.Background(), "STS0001")
	require.NoError(t, err)
	assert.True(t, acct.CredentialChanged)
	assert.Equal(t, &directory.Contact{Phone: "+251911000000", Name: "Name"}, acct.Contact)
	assert.Equal(t, "am", h.langs.Get(sid).Code)

	recent, err := h.store.ContactLog().RecentContacts(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "STS0001", recent[0].AccountID)
}

func TestCredentialChecks(t *testing.T) {
	h := newHarness(t)
	const sid = "chat-1"
	h.send(SelectLanguage{Session: sid, Code: "en"})

	requireRejected(t, h.send(SubmitIdentifier{Session: sid, Text: "STS9999"}), ErrUnknownIdentifier)
	assert.IsType(t, AwaitingIdentifier{}, h.expect(t, sid))

	h.send(SubmitIdentifier{Session: sid, Text: "TCH1001"})
	requireRejected(t, h.send(SubmitCredential{Session: sid, Text: "Teacher123"}), ErrIncorrectCredential)
	assert.IsType(t, AwaitingCredential{}, h.expect(t, sid))

	// Surrounding whitespace from the keyboard is ignored.
	out := h.send(SubmitCredential{Session: sid, Text: " teacher123\n"})
	assert.Equal(t, PromptNewCredential, at[Prompt](t, out, 0).Kind)
}

func TestSecondLoginSkipsCompletedSteps(t *testing.T) {
	h := newHarness(t)
	at[MenuReady](t, h.firstLogin(t, "chat-1", "TCH1001", "teacher123"), 1)
	at[Notice](t, h.send(InvokeAction{Session: "chat-1", Action: authz.Logout}), 0)

	h.send(SelectLanguage{Session: "chat-2", Code: "en"})
	h.send(SubmitText{Session: "chat-2", Text: "tch1001"})
	requireRejected(t, h.send(SubmitText{Session: "chat-2", Text: "teacher123"}), ErrIncorrectCredential)

	out := h.send(SubmitText{Session: "chat-2", Text: "newpass1"})
	require.Len(t, out, 1)
	menu := at[MenuReady](t, out, 0)
	assert.Equal(t, directory.RoleTeacher, menu.Role)
	assert.Equal(t, "Mathematics", menu.Context.Subject)
}

func TestContactGate(t *testing.T) {
	h := newHarness(t)
	const sid = "chat-1"
	h.send(SelectLanguage{Session: sid, Code: "en"})
	h.send(SubmitIdentifier{Session: sid, Text: "ADM5001"})
	h.send(SubmitCredential{Session: sid, Text: "admin123"})
	h.send(SubmitNewCredential{Session: sid, Text: "newpass1"})

	// Nothing but a contact moves the session forward.
	assert.Equal(t, PromptContactMethod, at[Prompt](t, h.send(SubmitText{Session: sid, Text: "hello"}), 0).Kind)
	requireRejected(t, h.send(InvokeAction{Session: sid, Action: authz.Analytics}), ErrUnauthorized)
	requireRejected(t, h.send(InvokeAction{Session: sid, Action: authz.MainMenu}), ErrSessionExpiredOrMissing)
	at[Notice](t, h.send(SubmitManualContact{Session: sid, Phone: "0911"}), 0)

	s, _ := h.m.Session(sid)
	require.False(t, s.LoggedIn())
	_, pending := loginCandidate(s.Expect)
	require.True(t, pending)

	out := h.send(InvokeAction{Session: sid, Action: authz.EnterContact})
	assert.Equal(t, PromptManualContact, at[Prompt](t, out, 0).Kind)
	requireRejected(t, h.send(SubmitManualContact{Session: sid, Phone: "   "}), ErrEmptyContact)

	out = h.send(SubmitManualContact{Session: sid, Phone: "+251922000000"})
	menu := at[MenuReady](t, out, 1)
	assert.Equal(t, directory.RoleAdmin, menu.Role)

	acct, err := h.dir.Get(context.Background(), "ADM5001")
	require.NoError(t, err)
	require.NotNil(t, acct.Contact)
	assert.Equal(t, "Mr. Daniel G/Michael", acct.Contact.Name)
}

func TestShareContactWithoutCandidate(t *testing.T) {
	h := newHarness(t)
	requireRejected(t, h.send(ShareContact{Session: "chat-1", Phone: "+2519"}), ErrSessionExpiredOrMissing)

	// A contact cannot skip the credential steps; the login stays where it was.
	useStart := []Response{Notice{Kind: NoticeUseStart}}
	h.send(SelectLanguage{Session: "chat-1", Code: "en"})
	assert.Equal(t, useStart, h.send(ShareContact{Session: "chat-1", Phone: "+2519"}))
	assert.IsType(t, AwaitingIdentifier{}, h.expect(t, "chat-1"))

	h.send(SubmitIdentifier{Session: "chat-1", Text: "STS0002"})
	assert.Equal(t, useStart, h.send(ShareContact{Session: "chat-1", Phone: "+2519"}))
	assert.IsType(t, AwaitingCredential{}, h.expect(t, "chat-1"))

	h.send(SubmitCredential{Session: "chat-1", Text: "student123"})
	assert.Equal(t, useStart, h.send(ShareContact{Session: "chat-1", Phone: "+2519"}))
	assert.IsType(t, AwaitingNewCredential{}, h.expect(t, "chat-1"))

	acct, err := h.dir.Get(context.Background(), "STS0002")
	require.NoError(t, err)
	assert.Nil(t, acct.Contact)
}

func TestOutOfOrderEvents(t *testing.T) {
	h := newHarness(t)
	tests := []Event{
		SubmitIdentifier{Session: "chat-1", Text: "STS0001"},
		SubmitCredential{Session: "chat-1", Text: "student123"},
		SubmitNewCredential{Session: "chat-1", Text: "newpass1"},
		SubmitManualContact{Session: "chat-1", Phone: "0911"},
		SubmitText{Session: "chat-1", Text: "hi"},
	}
	for _, ev := range tests {
		t.Run(ev.Kind(), func(t *testing.T) {
			out := h.send(ev)
			assert.Equal(t, []Response{Notice{Kind: NoticeUseStart}}, out)
			assert.Equal(t, Idle{}, h.expect(t, "chat-1"))
		})
	}
}

func TestAuthorizationGate(t *testing.T) {
	h := newHarness(t)
	const sid = "chat-1"

	tests := []struct {
		action string
		want   error
	}{
		{authz.Analytics, ErrUnauthorized},
		{authz.Help, ErrUnauthorized},
		{"start_quiz:math", ErrUnauthorized},
		{authz.MainMenu, ErrSessionExpiredOrMissing},
		{"mark_attendance:present:STS0001", ErrSessionExpiredOrMissing},
		{"submit_answer:4", ErrNoQuizInProgress},
		{"fly_to_moon", ErrUnrecognizedAction},
		{"", ErrUnrecognizedAction},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			requireRejected(t, h.send(InvokeAction{Session: sid, Action: tt.action}), tt.want)
		})
	}

	at[MenuReady](t, h.firstLogin(t, sid, "ADM5001", "admin123"), 1)
	out := h.send(InvokeAction{Session: sid, Action: authz.Analytics})
	got := at[Info](t, out, 0)
	assert.Equal(t, authz.Analytics, got.Topic)
	assert.Contains(t, got.Lines, "Students: 4")
	assert.Contains(t, got.Lines, "Teachers: 2")
	assert.Contains(t, got.Lines, "Classes: 4")
}

func TestRestartClearsSession(t *testing.T) {
	h := newHarness(t)
	const sid = "chat-1"
	at[MenuReady](t, h.firstLogin(t, sid, "STS0001", "student123"), 1)
	at[QuestionReady](t, h.send(InvokeAction{Session: sid, Action: "start_quiz:bible"}), 0)
	require.Equal(t, 1, h.quizzes.Active())

	out := h.send(Restart{Session: sid})
	require.Len(t, out, 1)
	menu := at[LanguageMenu](t, out, 0)
	assert.Len(t, menu.Languages, 3)
	assert.Empty(t, menu.Back)

	s, ok := h.m.Session(sid)
	require.True(t, ok)
	assert.False(t, s.LoggedIn())
	assert.False(t, s.HasQuiz())
	assert.Equal(t, Idle{}, s.Expect)
	assert.Zero(t, h.quizzes.Active())

	// The language preference outlives the session state.
	assert.Equal(t, "en", h.langs.Get(sid).Code)
}

func TestLanguageSelection(t *testing.T) {
	h := newHarness(t)
	const sid = "chat-1"

	requireRejected(t, h.send(SelectLanguage{Session: sid, Code: "fr"}), ErrUnknownLanguage)
	assert.Equal(t, lang.Default, h.langs.Get(sid).Code)

	at[MenuReady](t, h.firstLogin(t, sid, "STS0002", "student123"), 1)
	out := h.send(InvokeAction{Session: sid, Action: authz.ChangeLang})
	assert.Equal(t, authz.Settings, at[LanguageMenu](t, out, 0).Back)

	out = h.send(InvokeAction{Session: sid, Action: "set_lang:or"})
	require.Len(t, out, 2)
	assert.Equal(t, Notice{Kind: NoticeLanguageSet, Detail: "Oromiffa 🇪🇹"}, out[0])
	assert.Equal(t, authz.Settings, at[Choices](t, out, 1).Topic)
	s, _ := h.m.Session(sid)
	assert.True(t, s.LoggedIn())
}

func TestChangeCredentialFromSettings(t *testing.T) {
	h := newHarness(t)
	const sid = "chat-1"
	at[MenuReady](t, h.firstLogin(t, sid, "STS0003", "student123"), 1)

	out := h.send(InvokeAction{Session: sid, Action: authz.ChangePass})
	assert.Equal(t, Prompt{Kind: PromptCredentialChange, MinLength: DefaultMinCredentialLength}, out[0])

	requireRejected(t, h.send(SubmitText{Session: sid, Text: "short"}), ErrCredentialTooShort)
	assert.IsType(t, AwaitingCredentialChange{}, h.expect(t, sid))

	out = h.send(SubmitText{Session: sid, Text: "better-secret"})
	require.Len(t, out, 2)
	assert.Equal(t, Notice{Kind: NoticeCredentialChanged}, out[0])
	at[MenuReady](t, out, 1)

	ok, err := h.dir.VerifyCredential(context.Background(), "STS0003", "better-secret")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateContactFromSettings(t *testing.T) {
	h := newHarness(t)
	const sid = "chat-1"
	at[MenuReady](t, h.firstLogin(t, sid, "TCH1002", "teacher123"), 1)

	out := h.send(InvokeAction{Session: sid, Action: authz.UpdateContact})
	assert.Equal(t, PromptContactMethod, at[Prompt](t, out, 0).Kind)

	out = h.send(ShareContact{Session: sid, Phone: "+251933000000"})
	require.Len(t, out, 2)
	at[MenuReady](t, out, 1)

	acct, err := h.dir.Get(context.Background(), "TCH1002")
	require.NoError(t, err)
	assert.Equal(t, "+251933000000", acct.Contact.Phone)
	assert.Equal(t, "Ms. Helen Brown", acct.Contact.Name)

	out = h.send(InvokeAction{Session: sid, Action: authz.ViewContacts})
	lines := at[Info](t, out, 0).Lines
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "+251933000000")
}

func TestQuizThroughActions(t *testing.T) {
	h := newHarness(t)
	const sid = "chat-1"
	at[MenuReady](t, h.firstLogin(t, sid, "STS0004", "student123"), 1)

	picker := at[Choices](t, h.send(InvokeAction{Session: sid, Action: authz.TakeQuiz}), 0)
	require.Len(t, picker.Rows, 3)
	assert.Equal(t, Choice{Label: "Bible", Action: "start_quiz:bible"}, picker.Rows[0][0])

	out := h.send(InvokeAction{Session: sid, Action: "start_quiz:Math"})
	q := at[QuestionReady](t, out, 0)
	assert.Equal(t, "math", q.Subject)
	assert.Equal(t, 1, q.Ordinal)
	assert.Equal(t, 3, q.Total)

	seen := map[string]bool{}
	var last []Response
	for i := range 3 {
		require.False(t, seen[q.Text], "question repeated: %s", q.Text)
		seen[q.Text] = true

		h.clock.Advance(4 * time.Second)
		answer := h.answers[q.Text]
		if i == 1 {
			answer = "wrong"
		}
		last = h.send(InvokeAction{Session: sid, Action: authz.With(authz.SubmitAnswer, answer)})
		graded := at[AnswerGraded](t, last, 0)
		assert.Equal(t, i != 1, graded.Correct)
		assert.Equal(t, h.answers[q.Text], graded.Expected)
		if i < 2 {
			q = at[QuestionReady](t, last, 1)
			assert.Equal(t, i+2, q.Ordinal)
		}
	}

	res := at[QuizResult](t, last, 1)
	assert.Equal(t, 2, res.Score)
	assert.Equal(t, 3, res.Total)
	assert.InDelta(t, 66.67, res.Percentage, 0.01)
	assert.Equal(t, 12, res.ElapsedSeconds())
	assert.Len(t, res.Answers, 3)

	s, _ := h.m.Session(sid)
	assert.False(t, s.HasQuiz())
	assert.Zero(t, h.quizzes.Active())
	requireRejected(t, h.send(InvokeAction{Session: sid, Action: "submit_answer:4"}), ErrNoQuizInProgress)

	stats, err := h.store.AttemptLog().Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Count)
	assert.Equal(t, 1, stats.BySubject["math"])
}

func TestSubmitAnswerMatchesOfferedOptionVerbatim(t *testing.T) {
	h := newHarness(t)
	const sid = "chat-1"
	_, err := h.quizzes.Bank().Add("geo", quiz.Question{
		Prompt:  "Capital of France?",
		Options: []string{"Paris ", " Rome", "Addis: Ababa"},
		Answer:  "Paris ",
	})
	require.NoError(t, err)
	at[MenuReady](t, h.firstLogin(t, sid, "STS0001", "student123"), 1)

	q := at[QuestionReady](t, h.send(InvokeAction{Session: sid, Action: "start_quiz:geo"}), 0)
	for _, opt := range q.Options {
		t.Run(opt, func(t *testing.T) {
			at[QuestionReady](t, h.send(InvokeAction{Session: sid, Action: "start_quiz:geo"}), 0)
			out := h.send(InvokeAction{Session: sid, Action: authz.With(authz.SubmitAnswer, opt)})
			graded := at[AnswerGraded](t, out, 0)
			assert.Equal(t, opt == "Paris ", graded.Correct)
			assert.Equal(t, "Paris ", graded.Expected)
			res := at[QuizResult](t, out, 1)
			assert.Equal(t, opt, res.Answers[0].Submitted)
		})
	}
}

func TestStartQuizKeepsActiveQuizOnError(t *testing.T) {
	h := newHarness(t)
	const sid = "chat-1"
	at[MenuReady](t, h.firstLogin(t, sid, "STS0001", "student123"), 1)
	at[QuestionReady](t, h.send(InvokeAction{Session: sid, Action: "start_quiz:english"}), 0)
	before, _ := h.m.Session(sid)

	requireRejected(t, h.send(InvokeAction{Session: sid, Action: "start_quiz:chemistry"}), ErrSubjectHasNoQuestions)
	after, _ := h.m.Session(sid)
	assert.Equal(t, before.ActiveQuiz, after.ActiveQuiz)

	// Starting another subject replaces the attempt.
	at[QuestionReady](t, h.send(InvokeAction{Session: sid, Action: "start_quiz:bible"}), 0)
	replaced, _ := h.m.Session(sid)
	assert.NotEqual(t, before.ActiveQuiz, replaced.ActiveQuiz)
	assert.Equal(t, 1, h.quizzes.Active())
}

func TestQuizzesAreIsolatedPerSession(t *testing.T) {
	h := newHarness(t)
	at[MenuReady](t, h.firstLogin(t, "a", "STS0001", "student123"), 1)
	at[MenuReady](t, h.firstLogin(t, "b", "STS0002", "student123"), 1)

	qa := at[QuestionReady](t, h.send(InvokeAction{Session: "a", Action: "start_quiz:math"}), 0)
	at[QuestionReady](t, h.send(InvokeAction{Session: "b", Action: "start_quiz:math"}), 0)

	out := h.send(InvokeAction{Session: "a", Action: authz.With(authz.SubmitAnswer, h.answers[qa.Text])})
	assert.True(t, at[AnswerGraded](t, out, 0).Correct)

	sa, _ := h.m.Session("a")
	sb, _ := h.m.Session("b")
	require.NotEqual(t, sa.ActiveQuiz, sb.ActiveQuiz)
	_, err := h.quizzes.Result("b", sa.ActiveQuiz)
	assert.ErrorIs(t, err, ErrNotQuizOwner)

	rb, err := h.quizzes.Result("b", sb.ActiveQuiz)
	require.NoError(t, err)
	assert.Zero(t, rb.Score)
	assert.Empty(t, rb.Answers)
}

type faultyDirectory struct {
	*directory.Memory
}

func (faultyDirectory) Get(context.Context, string) (directory.Account, error) {
	panic("directory unavailable")
}

func TestHandlerFaultLeavesSessionUnchanged(t *testing.T) {
	h := newHarness(t, func(cfg *Config) {
		cfg.Directory = faultyDirectory{Memory: directory.NewMemory(bcrypt.MinCost)}
	})
	const sid = "chat-1"
	h.send(SelectLanguage{Session: sid, Code: "en"})
	before, _ := h.m.Session(sid)

	require.NotPanics(t, func() {
		requireRejected(t, h.send(SubmitIdentifier{Session: sid, Text: "STS0001"}), ErrInternal)
	})
	after, _ := h.m.Session(sid)
	assert.Equal(t, before, after)

	// The session still accepts events afterwards.
	assert.Equal(t, []Response{Notice{Kind: NoticeUseStart}}, h.send(SubmitCredential{Session: sid, Text: "x"}))
}

func TestSweepDropsIdleSessions(t *testing.T) {
	h := newHarness(t)
	at[MenuReady](t, h.firstLogin(t, "idle", "STS0001", "student123"), 1)
	at[QuestionReady](t, h.send(InvokeAction{Session: "idle", Action: "start_quiz:bible"}), 0)

	h.clock.Advance(20 * time.Minute)
	h.send(Restart{Session: "busy"})
	h.send(SelectLanguage{Session: "busy", Code: "am"})
	h.clock.Advance(15 * time.Minute)
	require.Equal(t, 2, h.langs.Len())

	sessions, quizzes := h.m.Sweep(30 * time.Minute)
	assert.Equal(t, 1, sessions)
	assert.Equal(t, 1, quizzes)
	assert.Equal(t, 1, h.m.Sessions())
	assert.Zero(t, h.quizzes.Active())

	// The swept session's language preference goes with it.
	assert.Equal(t, 1, h.langs.Len())
	assert.Equal(t, "am", h.langs.Get("busy").Code)
	assert.Equal(t, lang.Default, h.langs.Get("idle").Code)

	_, ok := h.m.Session("idle")
	assert.False(t, ok)

	// A swept user starts over on the next event.
	requireRejected(t, h.send(InvokeAction{Session: "idle", Action: "submit_answer:x"}), ErrNoQuizInProgress)
	s, ok := h.m.Session("idle")
	require.True(t, ok)
	assert.False(t, s.LoggedIn())
}

func TestConcurrentSessions(t *testing.T) {
	dir := directory.NewMemory(bcrypt.MinCost)
	const n = 16
	for i := range n {
		require.NoError(t, dir.Add(directory.NewAccount{
			ID:                fmt.Sprintf("STS%04d", 100+i),
			Name:              fmt.Sprintf("Student %d", i),
			Role:              directory.RoleStudent,
			Credential:        "secret-pass",
			CredentialChanged: true,
			Contact:           &directory.Contact{Phone: "0911", Name: "x"},
			Student:           &directory.StudentProfile{Class: "ቀዳማይ"},
		}))
	}
	h := newHarness(t, func(cfg *Config) {
		cfg.Directory = dir
		cfg.Lister = nil
	})

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sid := fmt.Sprintf("chat-%d", i)
			h.send(SelectLanguage{Session: sid, Code: "en"})
			h.send(SubmitText{Session: sid, Text: fmt.Sprintf("sts%04d", 100+i)})
			out := h.send(SubmitText{Session: sid, Text: "secret-pass"})
			if _, ok := out[0].(MenuReady); !ok {
				t.Errorf("session %s: got %#v", sid, out)
				return
			}
			out = h.send(InvokeAction{Session: sid, Action: "start_quiz:english"})
			for {
				q, ok := out[len(out)-1].(QuestionReady)
				if !ok {
					break
				}
				out = h.send(InvokeAction{Session: sid, Action: authz.With(authz.SubmitAnswer, h.answers[q.Text])})
			}
			res, ok := out[len(out)-1].(QuizResult)
			if !ok || res.Score != res.Total {
				t.Errorf("session %s: result %#v", sid, out)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, n, h.m.Sessions())
	stats, err := h.store.AttemptLog().Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, n, stats.Count)
	assert.InDelta(t, 100, stats.MeanPercentage, 0.001)
}

func TestEventsOnOneSessionAreSerialised(t *testing.T) {
	h := newHarness(t)
	const sid = "chat-1"
	at[MenuReady](t, h.firstLogin(t, sid, "STS0001", "student123"), 1)
	at[QuestionReady](t, h.send(InvokeAction{Session: sid, Action: "start_quiz:bible"}), 0)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		graded int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := h.send(InvokeAction{Session: sid, Action: "submit_answer:nope"})
			if _, ok := out[0].(AnswerGraded); ok {
				mu.Lock()
				graded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Each answer issues the next question, so all three get graded and the
	// rest find no quiz.
	assert.Equal(t, 3, graded)
	s, _ := h.m.Session(sid)
	assert.False(t, s.HasQuiz())
}
