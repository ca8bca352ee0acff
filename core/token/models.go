package token

import "time"

// AccessToken grants read-only guest access to one student's own grades.
// StudentID is the primary key: a student holds at most one active token and
// a reissue overwrites in place. Token strings are not checked for global
// uniqueness at generation time (36^16 space; collisions are accepted risk).
type AccessToken struct {
	StudentID string    `db:"student_id" json:"student_id"`
	Token     string    `db:"token" json:"token"`
	CreatedAt time.Time `db:"created_at" json:"created_at"` // UTC
}

const (
	TemplateStatusDraft = "draft"
	TemplateStatusFinal = "final"
)

// MailTemplate is administrator-edited content for token-delivery email.
// Only the most recently updated row with status "final" is used.
type MailTemplate struct {
	ID        string    `db:"id" json:"id"`
	Status    string    `db:"status" json:"status"`
	Title     string    `db:"title" json:"title"`
	BodyHTML  string    `db:"body_html" json:"body_html"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"` // UTC
}
