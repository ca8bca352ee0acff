// Package dummydb provides in-memory repositories for tests and local dev.
package dummydb

import (
	"sync"

	"github.com/torneros/elms/core/grade"
	"github.com/torneros/elms/core/student"
	"github.com/torneros/elms/core/token"
)

type (
	DB struct {
		students  *studentTable
		subjects  *subjectTable
		tokens    *tokenTable
		templates *templateTable
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student // keyed by student_id
		order []string                    // insertion order, mirrors created_at ordering
	}

	subjectTable struct {
		sync.RWMutex
		subjects []grade.SubjectGrade
		grades   map[string]*grade.GradeRecord // keyed by composite dedupe key
	}

	tokenTable struct {
		sync.RWMutex
		table map[string]*token.AccessToken // keyed by student_id
	}

	templateTable struct {
		sync.RWMutex
		table []token.MailTemplate
	}
)

func Open() (*DB, error) {
	db := &DB{
		students:  &studentTable{table: make(map[string]*student.Student)},
		subjects:  &subjectTable{grades: make(map[string]*grade.GradeRecord)},
		tokens:    &tokenTable{table: make(map[string]*token.AccessToken)},
		templates: &templateTable{},
	}
	return db, nil
}
