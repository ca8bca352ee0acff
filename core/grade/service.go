// Package grade implements subject-grade import and name-joined queries.
//
// The primary import path appends: re-importing the same sheet duplicates
// rows unless the caller resets first. Only the legacy grade-history variant
// dedupes, via a composite key upsert.
package grade

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/torneros/elms/core"
	"github.com/torneros/elms/core/sheet"
)

type (
	Repository interface {
		// InsertSubjects appends; duplicate suppression is the caller's concern.
		InsertSubjects(ctx context.Context, subjects []SubjectGrade) error
		QueryActiveSubjects(ctx context.Context, orderings ...core.DBOrdering) ([]SubjectGrade, error)
		// SubjectsForStudentName matches on the free-text student name.
		SubjectsForStudentName(ctx context.Context, name string) ([]SubjectGrade, error)
		// LatestSubjectsByStudentNames returns the most recently updated active
		// subject row per student name.
		LatestSubjectsByStudentNames(ctx context.Context, names []string) (map[string]SubjectGrade, error)
		SoftDeleteAllSubjects(ctx context.Context) (int64, error)
		// UpsertGradeRecords writes to the legacy grades table with conflict key
		// (student_name, subject_name, school_year, semester).
		UpsertGradeRecords(ctx context.Context, records []GradeRecord) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// score parses a numeric cell; empty or unparseable cells become null.
func score(s string) null.Float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return null.Float64{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return null.Float64{}
	}
	return null.Float64From(f)
}

func nullable(s string) null.String {
	s = strings.TrimSpace(s)
	return null.NewString(s, s != "")
}

// ImportSubjects appends raw subject rows, returning the committed count.
// Rows without a subject name are dropped.
func (svc *Service) ImportSubjects(ctx context.Context, rows []sheet.SubjectRow) (int, error) {
	now := time.Now().UTC()
	subjects := make([]SubjectGrade, 0, len(rows))
	for _, r := range rows {
		subjectName := core.CleanString(r.SubjectName)
		if subjectName == "" {
			continue
		}
		subjects = append(subjects, SubjectGrade{
			SubjectName: subjectName,
			StudentName: nullable(r.StudentName),
			Prelim:      score(r.Prelim),
			Midterm:     score(r.Midterm),
			Prefinal:    score(r.Prefinal),
			Finals:      score(r.Finals),
			Average:     score(r.Average),
			GPA:         score(r.GPA),
			Remarks:     nullable(r.Remarks),
			YearLevel:   nullable(r.YearLevel),
			Semester:    nullable(r.Semester),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	if len(subjects) == 0 {
		return 0, nil
	}
	if err := svc.repo.InsertSubjects(ctx, subjects); err != nil {
		return 0, err
	}
	return len(subjects), nil
}

// dedupeKey identifies a grade-history row within an import batch.
func dedupeKey(rec GradeRecord) string {
	return strings.Join([]string{
		strings.ToLower(strings.TrimSpace(rec.StudentName)),
		strings.ToLower(strings.TrimSpace(rec.SubjectName)),
		strings.ToLower(strings.TrimSpace(rec.SchoolYear.String)),
		strings.ToLower(strings.TrimSpace(rec.Semester.String)),
	}, "|")
}

// ImportGradeHistory is the legacy import variant: rows are deduplicated
// within the batch on (student, subject, school year, semester) and upserted
// against the same composite key, so re-imports are idempotent.
func (svc *Service) ImportGradeHistory(ctx context.Context, rows []sheet.SubjectRow) (int, error) {
	now := time.Now().UTC()
	seen := make(map[string]struct{}, len(rows))
	records := make([]GradeRecord, 0, len(rows))
	for _, r := range rows {
		schoolYear := r.SchoolYear
		if schoolYear == "" {
			schoolYear = r.YearLevel
		}
		rec := GradeRecord{
			StudentName: core.CleanString(r.StudentName),
			SubjectName: core.CleanString(r.SubjectName),
			Prelim:      score(r.Prelim),
			Midterm:     score(r.Midterm),
			Prefinal:    score(r.Prefinal),
			Finals:      score(r.Finals),
			Average:     score(r.Average),
			GPA:         score(r.GPA),
			Remarks:     nullable(r.Remarks),
			SchoolYear:  nullable(schoolYear),
			Semester:    nullable(r.Semester),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if rec.StudentName == "" || rec.SubjectName == "" {
			continue
		}
		key := dedupeKey(rec)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return 0, nil
	}
	if err := svc.repo.UpsertGradeRecords(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (svc *Service) QueryActive(ctx context.Context, orderings ...core.DBOrdering) ([]SubjectGrade, error) {
	return svc.repo.QueryActiveSubjects(ctx, orderings...)
}

func (svc *Service) ForStudentName(ctx context.Context, name string) ([]SubjectGrade, error) {
	return svc.repo.SubjectsForStudentName(ctx, core.CleanString(name))
}

func (svc *Service) LatestForStudentNames(ctx context.Context, names []string) (map[string]SubjectGrade, error) {
	return svc.repo.LatestSubjectsByStudentNames(ctx, names)
}

// ResetAll tombstones every active subject row ("overwrite" import mode).
func (svc *Service) ResetAll(ctx context.Context) (int64, error) {
	return svc.repo.SoftDeleteAllSubjects(ctx)
}
