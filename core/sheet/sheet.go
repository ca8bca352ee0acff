// Package sheet turns loosely structured tabular input (an uploaded workbook
// sheet or a pasted tab-separated block) into validated raw row records ready
// for import.
package sheet

import (
	"strings"
)

// Logical column names required on the Students sheet, in output order.
var StudentColumns = []string{
	"student_id", "fullname", "gender", "birthdate", "age", "course", "contactnumber", "email",
}

// Only subject_name is required on the Subjects sheet; the rest default to "".
var SubjectColumns = []string{
	"subject_name", "student_name", "prelim", "midterm", "prefinal", "finals",
	"average", "gpa", "remarks", "year_level", "semester",
}

type (
	// StudentRow is one unvalidated masterlist row; all cells raw strings.
	StudentRow struct {
		StudentID     string
		FullName      string
		Gender        string
		Birthdate     string
		Age           string
		Course        string
		ContactNumber string
		Email         string
	}

	// SubjectRow is one unvalidated subject-grade row.
	SubjectRow struct {
		SubjectName string
		StudentName string
		Prelim      string
		Midterm     string
		Prefinal    string
		Finals      string
		Average     string
		GPA         string
		Remarks     string
		YearLevel   string
		SchoolYear  string // legacy sheets carry an "s.y" column instead of year_level
		Semester    string
	}
)

// MissingColumnsError enumerates required header names absent from the sheet.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "Missing columns: " + strings.Join(e.Columns, ", ")
}

// NormalizeHeader lowercases and trims a header cell.
// "s.y" / "s.y." is a known alias for the school-year column.
func NormalizeHeader(text string) string {
	raw := strings.ToLower(strings.TrimSpace(text))
	if raw == "s.y" || raw == "s.y." {
		return "schoolyear"
	}
	return raw
}

// HeaderIndexMap maps each normalized header name to its column index.
// When a header repeats, the last occurrence wins.
func HeaderIndexMap(headers []string) map[string]int {
	m := make(map[string]int, len(headers))
	for idx, h := range headers {
		m[NormalizeHeader(h)] = idx
	}
	return m
}

func checkRequired(headers map[string]int, required []string) error {
	var missing []string
	for _, r := range required {
		if _, ok := headers[r]; !ok {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

// ExtractStudents validates the header row and converts the data rows of a
// Students sheet. Rows are kept in input order.
//
// An all-empty row (across the 8 mapped cells) is treated as an end-of-data
// marker: parsing stops there and later rows are never considered. A row
// missing both student_id and fullname is dropped but parsing continues, as
// is a row whose cells look like Subjects-sheet headers (wrong sheet pasted).
func ExtractStudents(rows [][]string) ([]StudentRow, error) {
	if len(rows) == 0 {
		return nil, &MissingColumnsError{Columns: StudentColumns}
	}
	headers := HeaderIndexMap(rows[0])
	if err := checkRequired(headers, StudentColumns); err != nil {
		return nil, err
	}

	var out []StudentRow
	for _, r := range rows[1:] {
		row := StudentRow{
			StudentID:     cell(r, headers["student_id"]),
			FullName:      cell(r, headers["fullname"]),
			Gender:        cell(r, headers["gender"]),
			Birthdate:     cell(r, headers["birthdate"]),
			Age:           cell(r, headers["age"]),
			Course:        cell(r, headers["course"]),
			ContactNumber: cell(r, headers["contactnumber"]),
			Email:         cell(r, headers["email"]),
		}

		if row.StudentID == "" && row.FullName == "" && row.Gender == "" && row.Birthdate == "" &&
			row.Age == "" && row.Course == "" && row.ContactNumber == "" && row.Email == "" {
			break // sentinel row: end of data
		}
		if row.StudentID == "" || row.FullName == "" {
			continue
		}
		if NormalizeHeader(row.FullName) == "subjectname" || NormalizeHeader(row.StudentID) == "subject_id" {
			continue // Subjects sheet pasted into the masterlist importer
		}
		out = append(out, row)
	}
	return out, nil
}

// ExtractSubjects validates the header row and converts the data rows of a
// Subjects sheet. Rows lacking subject_name are dropped per row; unlike
// ExtractStudents there is no sentinel-stop rule here.
func ExtractSubjects(rows [][]string) ([]SubjectRow, error) {
	if len(rows) == 0 {
		return nil, &MissingColumnsError{Columns: []string{"subject_name"}}
	}
	headers := HeaderIndexMap(rows[0])
	if err := checkRequired(headers, []string{"subject_name"}); err != nil {
		return nil, err
	}

	optional := func(r []string, name string) string {
		idx, ok := headers[name]
		if !ok {
			return ""
		}
		return cell(r, idx)
	}

	var out []SubjectRow
	for _, r := range rows[1:] {
		if cell(r, headers["subject_name"]) == "" {
			continue
		}
		out = append(out, SubjectRow{
			SubjectName: cell(r, headers["subject_name"]),
			StudentName: optional(r, "student_name"),
			Prelim:      optional(r, "prelim"),
			Midterm:     optional(r, "midterm"),
			Prefinal:    optional(r, "prefinal"),
			Finals:      optional(r, "finals"),
			Average:     optional(r, "average"),
			GPA:         optional(r, "gpa"),
			Remarks:     optional(r, "remarks"),
			YearLevel:   optional(r, "year_level"),
			SchoolYear:  optional(r, "schoolyear"),
			Semester:    optional(r, "semester"),
		})
	}
	return out, nil
}
