package render

import "github.com/debreselam/schoolbot/internal/authz"

var labels = map[string]string{
	authz.MainMenu:       "🏠 Main Menu",
	authz.Logout:         "🚪 Logout",
	authz.ShareContact:   "📞 Share Contact",
	authz.RequestContact: "📱 Share via Button",
	authz.EnterContact:   "⌨️ Enter Manually",
	authz.ViewContacts:   "📋 View Contacts",
	authz.UpdateContact:  "📱 Update Contact",
	authz.Settings:       "⚙️ Settings",
	authz.ChangeLang:     "🌐 Change Language",
	authz.ChangePass:     "🔐 Change Password",
	authz.Help:           "❓ Help",

	authz.Materials:  "📚 Study Materials",
	authz.Schedule:   "📅 Schedule",
	authz.Grades:     "📊 Grades",
	authz.Attendance: "📋 Attendance",
	authz.Homework:   "📝 Homework",
	authz.TakeQuiz:   "🎯 Take Quiz",
	authz.Library:    "📖 Library",
	authz.Teachers:   "👨‍🏫 Teachers",
	authz.Profile:    "👤 Profile",

	authz.MyStudents:        "👨‍🎓 My Students",
	authz.AssignHomework:    "📝 Assign HW",
	authz.RecordGrades:      "📊 Record Grades",
	authz.TakeAttendance:    "✅ Take Attendance",
	authz.TeachingMaterials: "📚 Teaching Materials",
	authz.TeacherSchedule:   "📅 My Schedule",

	authz.Analytics:      "📊 Analytics",
	authz.ManageStudents: "👨‍🎓 Students",
	authz.ManageTeachers: "👨‍🏫 Teachers",
	authz.Curriculum:     "📘 Curriculum",
	authz.ManageClasses:  "🏫 Classes",
	authz.UpdateDB:       "🗄 Update Database",
}

// Label returns the button label of an action. Parameterised actions fall
// back to their argument.
func Label(action string) string {
	a := authz.Parse(action)
	if a.Name == authz.MarkAttendance {
		if f := a.Fields(); len(f) > 0 {
			switch f[0] {
			case "present":
				return "✅ Present"
			case "absent":
				return "❌ Absent"
			}
		}
	}
	if a.Arg != "" {
		return a.Arg
	}
	if l, ok := labels[a.Name]; ok {
		return l
	}
	return a.Name
}

func button(action string) Button {
	return Button{Label: Label(action), Action: action}
}

func backButton(action string) []Button {
	return []Button{{Label: "⬅️ Back", Action: action}}
}
