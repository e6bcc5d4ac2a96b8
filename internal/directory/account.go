package directory

import (
	"fmt"
	"strings"
)

// Role is the closed set of account roles. The zero value is invalid.
type Role int

const (
	RoleStudent Role = iota + 1
	RoleTeacher
	RoleAdmin
)

// RoleSwitch is a total match over Role. Implementations must handle every
// role, so adding a role breaks every switch at compile time.
type RoleSwitch[T any] interface {
	Student() T
	Teacher() T
	Admin() T
}

// Dispatch calls the RoleSwitch method matching r.
func Dispatch[T any](r Role, s RoleSwitch[T]) T {
	switch r {
	case RoleStudent:
		return s.Student()
	case RoleTeacher:
		return s.Teacher()
	case RoleAdmin:
		return s.Admin()
	}
	panic(fmt.Sprintf("directory: dispatch on invalid role %d", int(r)))
}

func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "student"
	case RoleTeacher:
		return "teacher"
	case RoleAdmin:
		return "admin"
	}
	return "unknown"
}

// Prefix returns the identifier prefix that encodes the role.
func (r Role) Prefix() string {
	switch r {
	case RoleStudent:
		return "STS"
	case RoleTeacher:
		return "TCH"
	case RoleAdmin:
		return "ADM"
	}
	return ""
}

// ParseRole parses the lower-case role name used in seed data.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student":
		return RoleStudent, nil
	case "teacher":
		return RoleTeacher, nil
	case "admin":
		return RoleAdmin, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// Contact is the verified phone contact of an account.
type Contact struct {
	Phone string `json:"phone"`
	Name  string `json:"name"`
}

// StudentProfile is the role payload carried by student accounts.
type StudentProfile struct {
	Class string
	// Grades maps subject name to a percentage grade.
	Grades map[string]int
	// Attendance maps a period (e.g. "2024-01") to an attendance percentage.
	Attendance map[string]int
}

// TeacherProfile is the role payload carried by teacher accounts.
type TeacherProfile struct {
	Subject string
}

// Account is a snapshot of one directory record. Mutations go through
// Directory.SetCredential and Directory.SetContact, never through a snapshot.
type Account struct {
	ID                string
	Name              string
	Role              Role
	CredentialChanged bool
	Contact           *Contact
	Student           *StudentProfile
	Teacher           *TeacherProfile

	credentialHash []byte
}

// HasContact reports whether a contact has been verified for the account.
func (a Account) HasContact() bool {
	return a.Contact != nil && a.Contact.Phone != ""
}

// Class returns the student's class, or "" for other roles.
func (a Account) Class() string {
	if a.Student == nil {
		return ""
	}
	return a.Student.Class
}

// Subject returns the teacher's subject, or "" for other roles.
func (a Account) Subject() string {
	if a.Teacher == nil {
		return ""
	}
	return a.Teacher.Subject
}

// clone returns a deep copy so callers never alias directory state.
func (a Account) clone() Account {
	out := a
	if a.Contact != nil {
		c := *a.Contact
		out.Contact = &c
	}
	if a.Student != nil {
		sp := *a.Student
		sp.Grades = cloneMap(a.Student.Grades)
		sp.Attendance = cloneMap(a.Student.Attendance)
		out.Student = &sp
	}
	if a.Teacher != nil {
		tp := *a.Teacher
		out.Teacher = &tp
	}
	out.credentialHash = append([]byte(nil), a.credentialHash...)
	return out
}

func cloneMap(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Normalize canonicalises a user-typed identifier: surrounding whitespace is
// dropped and letters are upper-cased.
func Normalize(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
