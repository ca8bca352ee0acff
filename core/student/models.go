package student

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Student is one masterlist row. StudentID is the human-assigned external
// identifier and the upsert key; ID is the surrogate row id.
type Student struct {
	ID            string      `db:"id" json:"id"`
	StudentID     string      `db:"student_id" json:"student_id"`
	FullName      string      `db:"full_name" json:"full_name"`
	Gender        null.String `db:"gender" json:"gender"`
	Birthdate     null.String `db:"birthdate" json:"birthdate"` // canonical YYYY-MM-DD where recognizable
	Age           null.String `db:"age" json:"age"`
	Course        null.String `db:"course" json:"course"`
	ContactNumber null.String `db:"contact_number" json:"contact_number"`
	Email         null.String `db:"email" json:"email"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"` // UTC
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"` // UTC
	DeletedAt     null.Time   `db:"deleted_at" json:"-"`
}

func (s Student) HasEmail() bool {
	return s.Email.Valid && s.Email.String != ""
}
