package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debreselam/schoolbot/internal/authz"
)

func TestStudentFeatures(t *testing.T) {
	h := newHarness(t)
	const sid = "chat-1"
	at[MenuReady](t, h.firstLogin(t, sid, "STS0001", "student123"), 1)

	tests := []struct {
		action string
		scope  string
		want   []string
	}{
		{authz.Materials, "ቀዳማይ", []string{"1. Bible Stories", "2. Basic Math"}},
		{authz.Grades, "", []string{"Bible: 85%", "Math: 90%"}},
		{authz.Attendance, "", []string{"2024-01: 95%"}},
		{authz.Library, "", []string{"1. Holy Bible (Multiple versions)"}},
		{authz.Profile, "", []string{"ID: STS0001", "Name: ሚካኤል አለማየሁ", "Class: ቀዳማይ", "Role: Student", "Status: Active"}},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			got := at[Info](t, h.send(InvokeAction{Session: sid, Action: tt.action}), 0)
			assert.Equal(t, tt.action, got.Topic)
			assert.Equal(t, tt.scope, got.Scope)
			assert.Equal(t, authz.MainMenu, got.Back)
			require.GreaterOrEqual(t, len(got.Lines), len(tt.want))
			assert.Equal(t, tt.want, got.Lines[:len(tt.want)])
		})
	}

	teachers := at[Info](t, h.send(InvokeAction{Session: sid, Action: authz.Teachers}), 0)
	assert.Equal(t, []string{"ወንድም ገብረመድህን - Mathematics", "Ms. Helen Brown - English"}, teachers.Lines)

	help := at[Info](t, h.send(InvokeAction{Session: sid, Action: authz.Help}), 0)
	assert.Equal(t, "/start - Start the bot and login", help.Lines[0])
	assert.Equal(t, authz.Settings, help.Back)
}

func TestSettingsMenu(t *testing.T) {
	h := newHarness(t)
	const sid = "chat-1"
	at[MenuReady](t, h.firstLogin(t, sid, "STS0002", "student123"), 1)

	got := at[Choices](t, h.send(InvokeAction{Session: sid, Action: authz.Settings}), 0)
	assert.Equal(t, authz.MainMenu, got.Back)
	assert.Equal(t, [][]Choice{
		{{Action: authz.ChangeLang}},
		{{Action: authz.ChangePass}},
		{{Action: authz.UpdateContact}},
		{{Action: authz.Help}},
	}, got.Rows)

	menu := at[MenuReady](t, h.send(InvokeAction{Session: sid, Action: authz.MainMenu}), 0)
	assert.Equal(t, "Sarah Johnson", menu.Name)
}

func TestTeacherFeatures(t *testing.T) {
	h := newHarness(t)
	const sid = "chat-1"
	at[MenuReady](t, h.firstLogin(t, sid, "TCH1001", "teacher123"), 1)

	roster := at[Info](t, h.send(InvokeAction{Session: sid, Action: authz.MyStudents}), 0)
	require.Len(t, roster.Lines, 4)
	assert.Equal(t, "ሚካኤል አለማየሁ (STS0001) - Class: ቀዳማይ, Avg Grade: 87%, Attendance: 95%", roster.Lines[0])

	classes := at[Choices](t, h.send(InvokeAction{Session: sid, Action: authz.AssignHomework}), 0)
	require.Len(t, classes.Rows, 4)
	assert.Equal(t, Choice{Label: "ቀዳማይ", Action: "assign_hw:ቀዳማይ"}, classes.Rows[0][0])

	out := h.send(InvokeAction{Session: sid, Action: "assign_hw:ካልኣይ"})
	assert.Equal(t, Notice{Kind: NoticeHomeworkClass, Detail: "ካልኣይ"}, out[0])
	at[MenuReady](t, out, 1)
	requireRejected(t, h.send(InvokeAction{Session: sid, Action: "assign_hw:Unknown"}), ErrUnrecognizedAction)

	grades := at[Choices](t, h.send(InvokeAction{Session: sid, Action: authz.RecordGrades}), 0)
	assert.Equal(t, "record_grades:STS0004", grades.Rows[3][0].Action)
	out = h.send(InvokeAction{Session: sid, Action: "record_grades:sts0004"})
	assert.Equal(t, Notice{Kind: NoticeGradeEntry, Detail: "David Smith (STS0004)"}, out[0])
	requireRejected(t, h.send(InvokeAction{Session: sid, Action: "record_grades:TCH1002"}), ErrUnrecognizedAction)

	sheet := at[Choices](t, h.send(InvokeAction{Session: sid, Action: authz.TakeAttendance}), 0)
	require.Len(t, sheet.Rows, 4)
	assert.Equal(t, "mark_attendance:present:STS0001", sheet.Rows[0][0].Action)
	assert.Equal(t, "mark_attendance:absent:STS0001", sheet.Rows[0][1].Action)

	out = h.send(InvokeAction{Session: sid, Action: sheet.Rows[0][1].Action})
	assert.Equal(t, Notice{Kind: NoticeAttendanceMarked, Detail: "STS0001 - absent"}, out[0])
	requireRejected(t, h.send(InvokeAction{Session: sid, Action: "mark_attendance:late:STS0001"}), ErrUnrecognizedAction)
	requireRejected(t, h.send(InvokeAction{Session: sid, Action: "mark_attendance:present"}), ErrUnrecognizedAction)
}

func TestAdminFeatures(t *testing.T) {
	h := newHarness(t)
	const sid = "chat-1"
	at[MenuReady](t, h.firstLogin(t, sid, "ADM5001", "admin123"), 1)

	curriculum := at[Info](t, h.send(InvokeAction{Session: sid, Action: authz.Curriculum}), 0)
	assert.Equal(t, []string{"Bible: 3 questions", "English: 2 questions", "Math: 3 questions"}, curriculum.Lines)

	classes := at[Info](t, h.send(InvokeAction{Session: sid, Action: authz.ManageClasses}), 0)
	assert.Equal(t, "ቀዳማይ: 1 students", classes.Lines[0])

	teachers := at[Info](t, h.send(InvokeAction{Session: sid, Action: authz.ManageTeachers}), 0)
	assert.Equal(t, "ወንድም ገብረመድህን (TCH1001) - Mathematics, default password, contact pending", teachers.Lines[0])

	update := at[Info](t, h.send(InvokeAction{Session: sid, Action: authz.UpdateDB}), 0)
	assert.Equal(t, "1. Add new student", update.Lines[0])

	contacts := at[Info](t, h.send(InvokeAction{Session: sid, Action: authz.ViewContacts}), 0)
	require.Len(t, contacts.Lines, 1)
	assert.Contains(t, contacts.Lines[0], "Mr. Daniel G/Michael | +251911000000")

	share := at[Choices](t, h.send(InvokeAction{Session: sid, Action: authz.ShareContact}), 0)
	assert.Equal(t, [][]Choice{{{Action: authz.RequestContact}}, {{Action: authz.EnterContact}}}, share.Rows)
}
