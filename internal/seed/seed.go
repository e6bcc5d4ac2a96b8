// Package seed loads the static dataset supplied at process start:
// accounts, question banks and the school catalog.
package seed

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/debreselam/schoolbot/internal/directory"
	"github.com/debreselam/schoolbot/internal/quiz"
)

//go:embed seed.json
var defaultSeed []byte

// Dataset is the decoded seed file.
type Dataset struct {
	Accounts  []AccountRecord            `json:"accounts"`
	Questions map[string][]quiz.Question `json:"questions"`
	Catalog   Catalog                    `json:"catalog"`
}

// AccountRecord is the on-disk form of an account.
type AccountRecord struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Role              string             `json:"role"`
	Credential        string             `json:"credential"`
	CredentialChanged bool               `json:"credential_changed,omitempty"`
	Contact           *directory.Contact `json:"contact,omitempty"`
	Class             string             `json:"class,omitempty"`
	Grades            map[string]int     `json:"grades,omitempty"`
	Attendance        map[string]int     `json:"attendance,omitempty"`
	Subject           string             `json:"subject,omitempty"`
}

// Day is one day of a timetable.
type Day struct {
	Day   string   `json:"day"`
	Slots []string `json:"slots"`
}

// Assignment is one homework entry.
type Assignment struct {
	Subject string   `json:"subject"`
	Tasks   []string `json:"tasks"`
	Due     string   `json:"due"`
}

// Library describes the school library.
type Library struct {
	Books []string `json:"books"`
	Hours []string `json:"hours"`
}

// Catalog is the static school content shown by menu features.
type Catalog struct {
	AcademicYear      string              `json:"academic_year"`
	Classes           []string            `json:"classes"`
	Materials         map[string][]string `json:"materials"`
	Schedule          []Day               `json:"schedule"`
	Homework          []Assignment        `json:"homework"`
	Library           Library             `json:"library"`
	TeachingMaterials []string            `json:"teaching_materials"`
	TeacherSchedule   []Day               `json:"teacher_schedule"`
	DatabaseActions   []string            `json:"database_actions"`
	Help              string              `json:"help"`
}

// Default decodes the embedded dataset.
func Default() (*Dataset, error) {
	return Decode(bytes.NewReader(defaultSeed))
}

// LoadFile decodes a dataset from path, or the embedded one when path is
// empty.
func LoadFile(path string) (*Dataset, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a dataset. Unknown fields are rejected so typos in a
// hand-edited seed surface at startup.
func Decode(r io.Reader) (*Dataset, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var ds Dataset
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &ds, nil
}

// Populate loads the accounts into dir and the question banks into bank.
func (ds *Dataset) Populate(dir *directory.Memory, bank *quiz.Bank) error {
	for _, rec := range ds.Accounts {
		acct, err := rec.toAccount()
		if err != nil {
			return err
		}
		if err := dir.Add(acct); err != nil {
			return fmt.Errorf("seed account %s: %w", rec.ID, err)
		}
	}
	for subject, qs := range ds.Questions {
		if _, err := bank.Add(subject, qs...); err != nil {
			return fmt.Errorf("seed subject %s: %w", subject, err)
		}
	}
	return nil
}

func (rec AccountRecord) toAccount() (directory.NewAccount, error) {
	role, err := directory.ParseRole(rec.Role)
	if err != nil {
		return directory.NewAccount{}, fmt.Errorf("seed account %s: %w", rec.ID, err)
	}
	acct := directory.NewAccount{
		ID:                rec.ID,
		Name:              rec.Name,
		Role:              role,
		Credential:        rec.Credential,
		CredentialChanged: rec.CredentialChanged,
		Contact:           rec.Contact,
	}
	switch role {
	case directory.RoleStudent:
		if rec.Class != "" {
			acct.Student = &directory.StudentProfile{
				Class:      rec.Class,
				Grades:     rec.Grades,
				Attendance: rec.Attendance,
			}
		}
	case directory.RoleTeacher:
		if rec.Subject != "" {
			acct.Teacher = &directory.TeacherProfile{Subject: rec.Subject}
		}
	}
	return acct, nil
}

// EncodeQuestions writes questions in the seed's "questions" layout.
func EncodeQuestions(w io.Writer, subject string, qs []quiz.Question) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(map[string][]quiz.Question{quiz.SubjectKey(subject): qs})
}
