package token

import (
	"regexp"
	"strings"
	"time"

	"github.com/torneros/elms/core/grade"
	"github.com/torneros/elms/core/student"
)

// Fallbacks when no final mail template exists.
const (
	DefaultSubject  = "Your ELMS Access Token"
	DefaultBodyHTML = "<p>Hello {Student_Name},</p>" +
		"<p>Your access token is: <strong>{Session_Token}</strong></p>" +
		"<p>Use this to view your grades.</p>"
)

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]+>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)

	nowFunc = time.Now // mockable
)

// RenderTemplate substitutes each placeholder by literal replace-all.
// This is deliberately not a templating engine: unknown placeholders must
// remain verbatim in the output.
func RenderTemplate(tmpl string, fields map[string]string) string {
	out := tmpl
	for key, value := range fields {
		out = strings.ReplaceAll(out, key, value)
	}
	return out
}

// StripHTML derives a text/plain rendition for clients that reject HTML.
func StripHTML(html string) string {
	text := htmlTagRegex.ReplaceAllString(html, " ")
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
}

// templateFields builds the substitution map for one recipient.
// {Date} and {Time} are computed at render time, not stored.
func templateFields(stu student.Student, tok, portalLink string, latest grade.SubjectGrade) map[string]string {
	now := nowFunc()
	name := stu.FullName
	if name == "" {
		name = "Student"
	}
	return map[string]string{
		"{Session_Token}": tok,
		"{Date}":          now.Format("January 2, 2006"),
		"{Time}":          now.Format("3:04 PM"),
		"{Student_Name}":  name,
		"{Course}":        stu.Course.String,
		"{Student_ID}":    stu.StudentID,
		"{Email}":         stu.Email.String,
		"{Year_Level}":    latest.YearLevel.String,
		"{Semester}":      latest.Semester.String,
		"{Portal_Link}":   portalLink,
	}
}
