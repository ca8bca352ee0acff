package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/torneros/elms/core/grade"
	"github.com/torneros/elms/core/student"
)

func fixedNow(t *testing.T) time.Time {
	t.Helper()
	prev := nowFunc
	t.Cleanup(func() { nowFunc = prev })

	now := time.Date(2024, time.January, 5, 15, 4, 0, 0, time.UTC)
	nowFunc = func() time.Time { return now }
	return now
}

func TestRenderTemplate_substitutionCompleteness(t *testing.T) {
	fixedNow(t)

	stu := student.Student{
		StudentID: "1001",
		FullName:  "Ana Reyes",
		Course:    null.StringFrom("BSIT"),
		Email:     null.StringFrom("ana@test.test"),
	}
	latest := grade.SubjectGrade{
		YearLevel: null.StringFrom("1st Year"),
		Semester:  null.StringFrom("1st"),
	}
	fields := templateFields(stu, "ABCD-EFGH-IJKL-MNOP", "https://portal.test", latest)

	tmpl := "{Session_Token} {Date} {Time} {Student_Name} {Course} {Student_ID} {Email} {Year_Level} {Semester} {Portal_Link}"
	out := RenderTemplate(tmpl, fields)

	for key := range fields {
		assert.NotContains(t, out, key)
	}
	assert.Equal(t,
		"ABCD-EFGH-IJKL-MNOP January 5, 2024 3:04 PM Ana Reyes BSIT 1001 ana@test.test 1st Year 1st https://portal.test",
		out,
	)
}

func TestRenderTemplate_unknownPlaceholderKeptVerbatim(t *testing.T) {
	fixedNow(t)

	fields := templateFields(student.Student{StudentID: "1001"}, "TOK", "", grade.SubjectGrade{})
	out := RenderTemplate("Hi {Student_Name}, {Not_A_Field} stays.", fields)

	assert.Contains(t, out, "{Not_A_Field}")
	assert.NotContains(t, out, "{Student_Name}")
}

func TestTemplateFields_nameFallback(t *testing.T) {
	fixedNow(t)

	fields := templateFields(student.Student{StudentID: "1001"}, "TOK", "", grade.SubjectGrade{})
	assert.Equal(t, "Student", fields["{Student_Name}"])
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "tags removed", in: "<p>Hello <strong>Ana</strong></p>", want: "Hello Ana"},
		{name: "whitespace collapsed", in: "<p>a</p>\n\n<p>b</p>", want: "a b"},
		{name: "plain text untouched", in: "no markup here", want: "no markup here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHTML(tt.in); got != tt.want {
				t.Errorf("StripHTML() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultBodyRendersWithDefaults(t *testing.T) {
	fixedNow(t)

	stu := student.Student{StudentID: "1001", FullName: "Ana Reyes"}
	fields := templateFields(stu, "ABCD-EFGH-IJKL-MNOP", "", grade.SubjectGrade{})
	out := RenderTemplate(DefaultBodyHTML, fields)

	assert.True(t, strings.Contains(out, "Ana Reyes"))
	assert.True(t, strings.Contains(out, "ABCD-EFGH-IJKL-MNOP"))
	assert.False(t, strings.Contains(out, "{"))
}
