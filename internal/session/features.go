package session

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/debreselam/schoolbot/internal/authz"
	"github.com/debreselam/schoolbot/internal/directory"
	"github.com/debreselam/schoolbot/internal/lang"
	"github.com/debreselam/schoolbot/internal/seed"
)

// recentContactLimit is how many shared contacts view_contacts lists.
const recentContactLimit = 10

func (m *Machine) invoke(ctx context.Context, s *Session, raw string, log logrus.FieldLogger) []Response {
	a := authz.Parse(raw)
	if !authz.Known(a.Name) {
		return reject(ErrUnrecognizedAction)
	}
	if err := m.gate.Check(raw, s.LoggedIn()); err != nil {
		return reject(err)
	}
	log = log.WithField("action", a.Name)

	switch a.Name {
	case authz.SubmitAnswer:
		return m.submitAnswer(ctx, s, a.Arg, log)
	case authz.SetLang:
		return m.selectLanguage(s, a.Arg)
	case authz.Logout:
		return m.logout(s, log)
	case authz.EnterContact, authz.RequestContact:
		// The contact step of a login in progress offers both methods.
		if cand, ok := loginCandidate(s.Expect); ok {
			if a.Name == authz.EnterContact {
				s.Expect = AwaitingManualContact{Candidate: cand}
				return []Response{Prompt{Kind: PromptManualContact}}
			}
			s.Expect = AwaitingContactMethod{Candidate: cand}
			return []Response{Prompt{Kind: PromptContactMethod}}
		}
	}

	// Every remaining action acts for the logged-in account, gated or not.
	if !s.LoggedIn() {
		return reject(ErrSessionExpiredOrMissing)
	}

	switch a.Name {
	case authz.MainMenu:
		s.Expect = Idle{}
		return []Response{m.menu(s)}
	case authz.ShareContact:
		return []Response{Choices{
			Topic: a.Name,
			Rows:  [][]Choice{{{Action: authz.RequestContact}}, {{Action: authz.EnterContact}}},
			Back:  authz.MainMenu,
		}}
	case authz.RequestContact, authz.UpdateContact:
		s.Expect = AwaitingContactMethod{}
		return []Response{Prompt{Kind: PromptContactMethod}}
	case authz.EnterContact:
		s.Expect = AwaitingManualContact{}
		return []Response{Prompt{Kind: PromptManualContact}}
	case authz.ViewContacts:
		return m.viewContacts(ctx, log)
	case authz.Settings:
		s.Expect = Idle{}
		return []Response{settingsChoices()}
	case authz.ChangeLang:
		return []Response{LanguageMenu{Languages: lang.Supported(), Back: authz.Settings}}
	case authz.ChangePass:
		s.Expect = AwaitingCredentialChange{}
		return []Response{Prompt{Kind: PromptCredentialChange, MinLength: m.minCred}}
	case authz.Help:
		return info(a.Name, "", splitLines(m.catalog.Help), authz.Settings)

	case authz.Materials:
		return info(a.Name, s.Identity.Class, numbered(m.catalog.Materials[s.Identity.Class]), authz.MainMenu)
	case authz.Schedule:
		return info(a.Name, "", scheduleLines(m.catalog.Schedule), authz.MainMenu)
	case authz.Grades:
		return m.studentRecord(ctx, s, a.Name, log)
	case authz.Attendance:
		return m.studentRecord(ctx, s, a.Name, log)
	case authz.Homework:
		return info(a.Name, "", homeworkLines(m.catalog.Homework), authz.MainMenu)
	case authz.TakeQuiz:
		return m.quizPicker()
	case authz.Library:
		return info(a.Name, "", libraryLines(m.catalog.Library), authz.MainMenu)
	case authz.Teachers:
		return m.roster(ctx, a.Name, directory.RoleTeacher, teacherLine, log)
	case authz.Profile:
		return info(a.Name, "", profileLines(s.Identity), authz.MainMenu)

	case authz.MyStudents:
		return m.roster(ctx, a.Name, directory.RoleStudent, studentLine, log)
	case authz.AssignHomework:
		return m.assignHomework(s, a)
	case authz.RecordGrades:
		return m.recordGrades(ctx, s, a, log)
	case authz.TakeAttendance:
		return m.attendanceSheet(ctx, log)
	case authz.MarkAttendance:
		return m.markAttendance(ctx, s, a, log)
	case authz.TeachingMaterials:
		return info(a.Name, "", numbered(m.catalog.TeachingMaterials), authz.MainMenu)
	case authz.TeacherSchedule:
		return info(a.Name, "", scheduleLines(m.catalog.TeacherSchedule), authz.MainMenu)

	case authz.Analytics:
		return m.analytics(ctx, log)
	case authz.ManageStudents:
		return m.roster(ctx, a.Name, directory.RoleStudent, accountStatusLine, log)
	case authz.ManageTeachers:
		return m.roster(ctx, a.Name, directory.RoleTeacher, accountStatusLine, log)
	case authz.Curriculum:
		return m.curriculum()
	case authz.ManageClasses:
		return m.classes(ctx, log)
	case authz.UpdateDB:
		return info(a.Name, "", numbered(m.catalog.DatabaseActions), authz.MainMenu)

	case authz.StartQuiz:
		return m.startQuiz(ctx, s, a.Arg, log)
	}
	return reject(ErrUnrecognizedAction)
}

func info(topic, scope string, lines []string, back string) []Response {
	return []Response{Info{Topic: topic, Scope: scope, Lines: lines, Back: back}}
}

func settingsChoices() Choices {
	rows := lo.Map(authz.SettingsMenu()[:len(authz.SettingsMenu())-1], func(a string, _ int) []Choice {
		return []Choice{{Action: a}}
	})
	return Choices{Topic: authz.Settings, Rows: rows, Back: authz.MainMenu}
}

func (m *Machine) viewContacts(ctx context.Context, log logrus.FieldLogger) []Response {
	if m.contacts == nil {
		return info(authz.ViewContacts, "", nil, authz.MainMenu)
	}
	recent, err := m.contacts.RecentContacts(ctx, recentContactLimit)
	if err != nil {
		return internal(log, err, "read shared contacts")
	}
	lines := make([]string, 0, len(recent))
	for _, c := range recent {
		name := c.AccountID
		if acct, err := m.dir.Get(ctx, c.AccountID); err == nil {
			name = acct.Name
		}
		lines = append(lines, fmt.Sprintf("%s | %s | %s", name, c.Phone, c.SharedAt.Format("2006-01-02 15:04")))
	}
	return info(authz.ViewContacts, "", lines, authz.MainMenu)
}

// studentRecord shows the logged-in student's grades or attendance.
func (m *Machine) studentRecord(ctx context.Context, s *Session, topic string, log logrus.FieldLogger) []Response {
	acct, err := m.dir.Get(ctx, s.Identity.AccountID)
	if err != nil {
		return internal(log, err, "load student record")
	}
	var values map[string]int
	if acct.Student != nil {
		values = acct.Student.Grades
		if topic == authz.Attendance {
			values = acct.Student.Attendance
		}
	}
	keys := lo.Keys(values)
	sort.Strings(keys)
	lines := lo.Map(keys, func(k string, _ int) string {
		return fmt.Sprintf("%s: %d%%", k, values[k])
	})
	return info(topic, "", lines, authz.MainMenu)
}

func (m *Machine) quizPicker() []Response {
	subjects := m.quizzes.Bank().Subjects()
	rows := lo.Map(subjects, func(subj string, _ int) []Choice {
		return []Choice{{Label: titleCase(subj), Action: authz.With(authz.StartQuiz, subj)}}
	})
	return []Response{Choices{Topic: authz.TakeQuiz, Rows: rows, Back: authz.MainMenu}}
}

// accounts lists the directory's accounts of one role, ordered by id.
func (m *Machine) accounts(ctx context.Context, role directory.Role) ([]directory.Account, error) {
	if m.lister == nil {
		return nil, nil
	}
	all, err := m.lister.List(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(all, func(a directory.Account, _ int) bool { return a.Role == role }), nil
}

func (m *Machine) roster(ctx context.Context, topic string, role directory.Role, line func(directory.Account) string, log logrus.FieldLogger) []Response {
	accts, err := m.accounts(ctx, role)
	if err != nil {
		return internal(log, err, "list accounts")
	}
	return info(topic, "", lo.Map(accts, func(a directory.Account, _ int) string { return line(a) }), authz.MainMenu)
}

func (m *Machine) assignHomework(s *Session, a authz.Action) []Response {
	if a.Arg == "" {
		rows := lo.Map(m.catalog.Classes, func(class string, _ int) []Choice {
			return []Choice{{Label: class, Action: authz.With(authz.AssignHomework, class)}}
		})
		return []Response{Choices{Topic: authz.AssignHomework, Rows: rows, Back: authz.MainMenu}}
	}
	if !slices.Contains(m.catalog.Classes, a.Arg) {
		return reject(ErrUnrecognizedAction)
	}
	return []Response{Notice{Kind: NoticeHomeworkClass, Detail: a.Arg}, m.menu(s)}
}

func (m *Machine) recordGrades(ctx context.Context, s *Session, a authz.Action, log logrus.FieldLogger) []Response {
	if a.Arg == "" {
		students, err := m.accounts(ctx, directory.RoleStudent)
		if err != nil {
			return internal(log, err, "list students")
		}
		rows := lo.Map(students, func(st directory.Account, _ int) []Choice {
			return []Choice{{Label: fmt.Sprintf("%s (%s)", st.Name, st.ID), Action: authz.With(authz.RecordGrades, st.ID)}}
		})
		return []Response{Choices{Topic: authz.RecordGrades, Rows: rows, Back: authz.MainMenu}}
	}
	st, ok := m.student(ctx, a.Arg)
	if !ok {
		return reject(ErrUnrecognizedAction)
	}
	return []Response{Notice{Kind: NoticeGradeEntry, Detail: fmt.Sprintf("%s (%s)", st.Name, st.ID)}, m.menu(s)}
}

func (m *Machine) attendanceSheet(ctx context.Context, log logrus.FieldLogger) []Response {
	students, err := m.accounts(ctx, directory.RoleStudent)
	if err != nil {
		return internal(log, err, "list students")
	}
	rows := lo.Map(students, func(st directory.Account, _ int) []Choice {
		return []Choice{
			{Label: st.Name, Action: authz.With(authz.MarkAttendance, "present", st.ID)},
			{Action: authz.With(authz.MarkAttendance, "absent", st.ID)},
		}
	})
	return []Response{Choices{Topic: authz.TakeAttendance, Rows: rows, Back: authz.MainMenu}}
}

func (m *Machine) markAttendance(ctx context.Context, s *Session, a authz.Action, log logrus.FieldLogger) []Response {
	fields := a.Fields()
	if len(fields) != 2 || (fields[0] != "present" && fields[0] != "absent") {
		return reject(ErrUnrecognizedAction)
	}
	st, ok := m.student(ctx, fields[1])
	if !ok {
		return reject(ErrUnrecognizedAction)
	}
	log.WithFields(logrus.Fields{"student_id": st.ID, "status": fields[0]}).Info("attendance marked")
	return []Response{Notice{Kind: NoticeAttendanceMarked, Detail: st.ID + " - " + fields[0]}, m.menu(s)}
}

func (m *Machine) student(ctx context.Context, id string) (directory.Account, bool) {
	acct, err := m.dir.Get(ctx, id)
	if err != nil || acct.Role != directory.RoleStudent {
		return directory.Account{}, false
	}
	return acct, true
}

func (m *Machine) analytics(ctx context.Context, log logrus.FieldLogger) []Response {
	var all []directory.Account
	if m.lister != nil {
		var err error
		if all, err = m.lister.List(ctx); err != nil {
			return internal(log, err, "list accounts")
		}
	}
	count := func(r directory.Role) int {
		return lo.CountBy(all, func(a directory.Account) bool { return a.Role == r })
	}
	lines := []string{
		fmt.Sprintf("Students: %d", count(directory.RoleStudent)),
		fmt.Sprintf("Teachers: %d", count(directory.RoleTeacher)),
		fmt.Sprintf("Classes: %d", len(m.catalog.Classes)),
		fmt.Sprintf("Academic Year: %s", m.catalog.AcademicYear),
	}
	if m.attempts != nil {
		stats, err := m.attempts.Stats(ctx)
		if err != nil {
			return internal(log, err, "read quiz statistics")
		}
		lines = append(lines,
			fmt.Sprintf("Quiz attempts: %d", stats.Count),
			fmt.Sprintf("Average quiz score: %.1f%%", stats.MeanPercentage),
		)
		subjects := lo.Keys(stats.BySubject)
		sort.Strings(subjects)
		for _, subj := range subjects {
			lines = append(lines, fmt.Sprintf("  %s: %d", titleCase(subj), stats.BySubject[subj]))
		}
	}
	return info(authz.Analytics, "", lines, authz.MainMenu)
}

func (m *Machine) curriculum() []Response {
	bank := m.quizzes.Bank()
	lines := lo.Map(bank.Subjects(), func(subj string, _ int) string {
		return fmt.Sprintf("%s: %d questions", titleCase(subj), bank.Size(subj))
	})
	return info(authz.Curriculum, "", lines, authz.MainMenu)
}

func (m *Machine) classes(ctx context.Context, log logrus.FieldLogger) []Response {
	students, err := m.accounts(ctx, directory.RoleStudent)
	if err != nil {
		return internal(log, err, "list students")
	}
	byClass := lo.CountValuesBy(students, func(a directory.Account) string { return a.Class() })
	lines := lo.Map(m.catalog.Classes, func(class string, _ int) string {
		return fmt.Sprintf("%s: %d students", class, byClass[class])
	})
	return info(authz.ManageClasses, "", lines, authz.MainMenu)
}

func teacherLine(a directory.Account) string {
	return fmt.Sprintf("%s - %s", a.Name, a.Subject())
}

func studentLine(a directory.Account) string {
	var grade, attendance int
	if a.Student != nil {
		grade = average(a.Student.Grades)
		attendance = average(a.Student.Attendance)
	}
	return fmt.Sprintf("%s (%s) - Class: %s, Avg Grade: %d%%, Attendance: %d%%", a.Name, a.ID, a.Class(), grade, attendance)
}

func accountStatusLine(a directory.Account) string {
	detail := a.Class()
	if a.Role == directory.RoleTeacher {
		detail = a.Subject()
	}
	contact := "contact pending"
	if a.HasContact() {
		contact = "contact " + a.Contact.Phone
	}
	password := "default password"
	if a.CredentialChanged {
		password = "password set"
	}
	return fmt.Sprintf("%s (%s) - %s, %s, %s", a.Name, a.ID, detail, password, contact)
}

func average(m map[string]int) int {
	if len(m) == 0 {
		return 0
	}
	return lo.Sum(lo.Values(m)) / len(m)
}

func profileLines(id *Identity) []string {
	lines := []string{"ID: " + id.AccountID, "Name: " + id.Name}
	switch {
	case id.Class != "":
		lines = append(lines, "Class: "+id.Class)
	case id.Subject != "":
		lines = append(lines, "Subject: "+id.Subject)
	}
	return append(lines, "Role: "+titleCase(id.Role.String()), "Status: Active")
}

func numbered(items []string) []string {
	return lo.Map(items, func(s string, i int) string { return fmt.Sprintf("%d. %s", i+1, s) })
}

func scheduleLines(days []seed.Day) []string {
	var lines []string
	for _, d := range days {
		lines = append(lines, d.Day+":")
		for _, slot := range d.Slots {
			lines = append(lines, "  "+slot)
		}
	}
	return lines
}

func homeworkLines(hw []seed.Assignment) []string {
	var lines []string
	for _, a := range hw {
		lines = append(lines, a.Subject+":")
		for _, t := range a.Tasks {
			lines = append(lines, "  - "+t)
		}
		lines = append(lines, "  Due: "+a.Due)
	}
	return lines
}

func libraryLines(l seed.Library) []string {
	lines := numbered(l.Books)
	if len(l.Hours) > 0 {
		lines = append(lines, "Library Hours:")
		lines = append(lines, l.Hours...)
	}
	return lines
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
