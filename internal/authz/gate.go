package authz

import (
	"errors"
	"strings"
)

var ErrUnauthorized = errors.New("login required")

// Action names understood by the session machine. Parameterised actions
// carry their arguments after a colon, e.g. "start_quiz:math".
const (
	MainMenu       = "main_menu"
	Logout         = "logout"
	ShareContact   = "share_contact"
	RequestContact = "request_contact"
	EnterContact   = "enter_contact"
	ViewContacts   = "view_contacts"
	UpdateContact  = "update_contact"
	Settings       = "settings"
	ChangeLang     = "change_lang"
	SetLang        = "set_lang"
	ChangePass     = "change_pass"
	Help           = "help"

	Materials  = "materials"
	Schedule   = "schedule"
	Grades     = "grades"
	Attendance = "attendance"
	Homework   = "homework"
	TakeQuiz   = "take_quiz"
	Library    = "library"
	Teachers   = "teachers"
	Profile    = "profile"

	MyStudents        = "my_students"
	AssignHomework    = "assign_hw"
	RecordGrades      = "record_grades"
	TakeAttendance    = "take_attendance"
	MarkAttendance    = "mark_attendance"
	TeachingMaterials = "teaching_materials"
	TeacherSchedule   = "teacher_schedule"

	Analytics      = "analytics"
	ManageStudents = "manage_students"
	ManageTeachers = "manage_teachers"
	Curriculum     = "curriculum"
	ManageClasses  = "manage_classes"
	UpdateDB       = "update_db"

	StartQuiz    = "start_quiz"
	SubmitAnswer = "submit_answer"
)

// DefaultProtected lists the actions that require a completed login.
var DefaultProtected = []string{
	Materials, Schedule, Grades, Attendance, Homework,
	Library, Teachers, Profile, MyStudents, AssignHomework,
	RecordGrades, TakeAttendance, TeachingMaterials,
	TeacherSchedule, Analytics, ManageStudents, ManageTeachers,
	Curriculum, ManageClasses, UpdateDB, ShareContact,
	ViewContacts, Settings, TakeQuiz, Help,
	StartQuiz,
}

var known = map[string]bool{
	MainMenu: true, Logout: true, ShareContact: true, RequestContact: true,
	EnterContact: true, ViewContacts: true, UpdateContact: true, Settings: true,
	ChangeLang: true, SetLang: true, ChangePass: true, Help: true,
	Materials: true, Schedule: true, Grades: true, Attendance: true,
	Homework: true, TakeQuiz: true, Library: true, Teachers: true, Profile: true,
	MyStudents: true, AssignHomework: true, RecordGrades: true, TakeAttendance: true,
	MarkAttendance: true, TeachingMaterials: true, TeacherSchedule: true,
	Analytics: true, ManageStudents: true, ManageTeachers: true, Curriculum: true,
	ManageClasses: true, UpdateDB: true, StartQuiz: true, SubmitAnswer: true,
}

// Known reports whether name is a recognised action.
func Known(name string) bool { return known[name] }

// Action is a parsed action string.
type Action struct {
	Name string
	Arg  string
}

// Parse splits raw at the first colon. Only the name is trimmed: option
// text passed to submit_answer may contain colons or surrounding spaces,
// and Arg must match the offered option byte for byte.
func Parse(raw string) Action {
	name, arg, _ := strings.Cut(raw, ":")
	return Action{Name: strings.TrimSpace(name), Arg: arg}
}

// Fields splits Arg on colons, for multi-argument actions like
// mark_attendance:<status>:<id>.
func (a Action) Fields() []string {
	if a.Arg == "" {
		return nil
	}
	return strings.Split(a.Arg, ":")
}

func (a Action) String() string {
	if a.Arg == "" {
		return a.Name
	}
	return a.Name + ":" + a.Arg
}

// With builds a parameterised action string.
func With(name string, args ...string) string {
	return Action{Name: name, Arg: strings.Join(args, ":")}.String()
}

// Gate decides whether an action may run given the session's login state.
type Gate struct {
	protected map[string]bool
}

// NewGate builds a gate over the given protected names (DefaultProtected
// when nil).
func NewGate(protected []string) *Gate {
	if protected == nil {
		protected = DefaultProtected
	}
	g := &Gate{protected: make(map[string]bool, len(protected))}
	for _, p := range protected {
		g.protected[p] = true
	}
	return g
}

// IsProtected reports whether the action's base name needs a login.
func (g *Gate) IsProtected(action string) bool {
	return g.protected[Parse(action).Name]
}

// Check returns ErrUnauthorized iff action is protected and the session is
// not logged in.
func (g *Gate) Check(action string, loggedIn bool) error {
	if g.IsProtected(action) && !loggedIn {
		return ErrUnauthorized
	}
	return nil
}
