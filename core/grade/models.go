package grade

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// SubjectGrade is one subject-enrollment's scores for one student.
// StudentName is a free-text join key to Student.FullName, not the student
// id; two students sharing a name collide. Downstream consumers (the guest
// portal, email enrichment) expect name-based matching, so the key stays.
type SubjectGrade struct {
	ID          string       `db:"id" json:"id"`
	SubjectName string       `db:"subject_name" json:"subject_name"`
	StudentName null.String  `db:"student_name" json:"student_name"`
	Prelim      null.Float64 `db:"prelim" json:"prelim"`
	Midterm     null.Float64 `db:"midterm" json:"midterm"`
	Prefinal    null.Float64 `db:"prefinal" json:"prefinal"`
	Finals      null.Float64 `db:"finals" json:"finals"`
	Average     null.Float64 `db:"average" json:"average"`
	GPA         null.Float64 `db:"gpa" json:"gpa"`
	Remarks     null.String  `db:"remarks" json:"remarks"`
	YearLevel   null.String  `db:"year_level" json:"year_level"`
	Semester    null.String  `db:"semester" json:"semester"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"` // UTC
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"` // UTC
	DeletedAt   null.Time    `db:"deleted_at" json:"-"`
}

// GradeRecord is a row of the legacy grades table, keyed by
// (student_name, subject_name, school_year, semester).
type GradeRecord struct {
	ID          string       `db:"id" json:"id"`
	StudentName string       `db:"student_name" json:"student_name"`
	SubjectName string       `db:"subject_name" json:"subject_name"`
	Prelim      null.Float64 `db:"prelim" json:"prelim"`
	Midterm     null.Float64 `db:"midterm" json:"midterm"`
	Prefinal    null.Float64 `db:"prefinal" json:"prefinal"`
	Finals      null.Float64 `db:"finals" json:"finals"`
	Average     null.Float64 `db:"average" json:"average"`
	GPA         null.Float64 `db:"gpa" json:"gpa"`
	Remarks     null.String  `db:"remarks" json:"remarks"`
	SchoolYear  null.String  `db:"school_year" json:"school_year"`
	Semester    null.String  `db:"semester" json:"semester"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"` // UTC
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"` // UTC
}
