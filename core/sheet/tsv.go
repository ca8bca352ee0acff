package sheet

import "strings"

// SplitTSV splits a pasted block into a row grid. The pasted format tolerates
// ragged rows and bare quotes, so this is a literal split rather than a CSV
// parse with a tab delimiter.
func SplitTSV(text string) [][]string {
	lines := strings.Split(text, "\n")
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, strings.Split(line, "\t"))
	}
	return rows
}

// ParseStudentsTSV parses a headerless pasted masterlist block whose columns
// follow the StudentColumns order.
func ParseStudentsTSV(text string) []StudentRow {
	var out []StudentRow
	for _, r := range SplitTSV(text) {
		out = append(out, StudentRow{
			StudentID:     cell(r, 0),
			FullName:      cell(r, 1),
			Gender:        cell(r, 2),
			Birthdate:     cell(r, 3),
			Age:           cell(r, 4),
			Course:        cell(r, 5),
			ContactNumber: cell(r, 6),
			Email:         cell(r, 7),
		})
	}
	return out
}

// ParseSubjectsTSV parses a headerless pasted grading block whose columns
// follow the SubjectColumns order.
func ParseSubjectsTSV(text string) []SubjectRow {
	var out []SubjectRow
	for _, r := range SplitTSV(text) {
		out = append(out, SubjectRow{
			SubjectName: cell(r, 0),
			StudentName: cell(r, 1),
			Prelim:      cell(r, 2),
			Midterm:     cell(r, 3),
			Prefinal:    cell(r, 4),
			Finals:      cell(r, 5),
			Average:     cell(r, 6),
			GPA:         cell(r, 7),
			Remarks:     cell(r, 8),
			YearLevel:   cell(r, 9),
			Semester:    cell(r, 10),
		})
	}
	return out
}
