package authz

import "github.com/debreselam/schoolbot/internal/directory"

type roleMenus struct{}

func (roleMenus) Student() []string {
	return []string{
		Materials, Schedule, Grades, Attendance, Homework,
		TakeQuiz, Library, Teachers, Settings, Profile, Logout,
	}
}

func (roleMenus) Teacher() []string {
	return []string{
		MyStudents, AssignHomework, RecordGrades, TakeAttendance,
		TeachingMaterials, TeacherSchedule, ShareContact, ViewContacts,
		Settings, Logout,
	}
}

func (roleMenus) Admin() []string {
	return []string{
		Analytics, ManageStudents, ManageTeachers, Curriculum, ManageClasses,
		ShareContact, ViewContacts, Settings, UpdateDB, Logout,
	}
}

// MenuFor returns the main-menu actions of a role, in display order.
func MenuFor(role directory.Role) []string {
	return directory.Dispatch[[]string](role, roleMenus{})
}

// SettingsMenu is shared by every role.
func SettingsMenu() []string {
	return []string{ChangeLang, ChangePass, UpdateContact, Help, MainMenu}
}
