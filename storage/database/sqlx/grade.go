package sqlxrepos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/torneros/elms/core"
	"github.com/torneros/elms/core/grade"
)

type gradeRepository struct {
	db *sqlx.DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *sqlx.DB) *gradeRepository {
	return &gradeRepository{db: db}
}

func (repo gradeRepository) InsertSubjects(ctx context.Context, subjects []grade.SubjectGrade) error {
	const query = `
		INSERT INTO subjects (subject_name, student_name, prelim, midterm, prefinal, finals, average, gpa, remarks, year_level, semester, created_at, updated_at)
		VALUES (:subject_name, :student_name, :prelim, :midterm, :prefinal, :finals, :average, :gpa, :remarks, :year_level, :semester, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, subjects); err != nil {
		return errors.Wrap(err, "inserting subjects")
	}
	return nil
}

// subjectOrderColumns whitelists client-suppliable ORDER BY columns.
var subjectOrderColumns = map[string]struct{}{
	"subject_name": {},
	"student_name": {},
	"year_level":   {},
	"semester":     {},
	"average":      {},
	"created_at":   {},
	"updated_at":   {},
}

func (repo gradeRepository) QueryActiveSubjects(ctx context.Context, orderings ...core.DBOrdering) ([]grade.SubjectGrade, error) {
	orderBy := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		if _, ok := subjectOrderColumns[ord.Field]; ok {
			orderBy = append(orderBy, ord.String())
		}
	}
	if len(orderBy) == 0 {
		orderBy = append(orderBy, "created_at ASC")
	}

	subjects := make([]grade.SubjectGrade, 0)
	query := `SELECT * FROM subjects WHERE deleted_at IS NULL ORDER BY ` + strings.Join(orderBy, ", ")
	if err := repo.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	return subjects, nil
}

func (repo gradeRepository) SubjectsForStudentName(ctx context.Context, name string) ([]grade.SubjectGrade, error) {
	subjects := make([]grade.SubjectGrade, 0)
	const query = `SELECT * FROM subjects WHERE student_name = $1 AND deleted_at IS NULL ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &subjects, query, name); err != nil {
		return nil, errors.Wrap(err, "querying subjects by student name")
	}
	return subjects, nil
}

func (repo gradeRepository) LatestSubjectsByStudentNames(ctx context.Context, names []string) (map[string]grade.SubjectGrade, error) {
	latest := make(map[string]grade.SubjectGrade, len(names))
	if len(names) == 0 {
		return latest, nil
	}

	query, args, err := sqlx.In(`
		SELECT DISTINCT ON (student_name) *
		FROM subjects
		WHERE student_name IN (?) AND deleted_at IS NULL
		ORDER BY student_name, updated_at DESC`, names)
	if err != nil {
		return nil, errors.Wrap(err, "building subject-info query")
	}

	subjects := make([]grade.SubjectGrade, 0, len(names))
	if err = repo.db.SelectContext(ctx, &subjects, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying subject info")
	}
	for _, s := range subjects {
		latest[s.StudentName.String] = s
	}
	return latest, nil
}

func (repo gradeRepository) SoftDeleteAllSubjects(ctx context.Context) (int64, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE subjects SET deleted_at = now() WHERE deleted_at IS NULL`)
	if err != nil {
		return 0, errors.Wrap(err, "soft-deleting subjects")
	}
	return res.RowsAffected()
}

func (repo gradeRepository) UpsertGradeRecords(ctx context.Context, records []grade.GradeRecord) error {
	const query = `
		INSERT INTO grades (student_name, subject_name, prelim, midterm, prefinal, finals, average, gpa, remarks, school_year, semester, created_at, updated_at)
		VALUES (:student_name, :subject_name, :prelim, :midterm, :prefinal, :finals, :average, :gpa, :remarks, COALESCE(:school_year, ''), COALESCE(:semester, ''), :created_at, :updated_at)
		ON CONFLICT (student_name, subject_name, school_year, semester) DO UPDATE SET
			prelim     = EXCLUDED.prelim,
			midterm    = EXCLUDED.midterm,
			prefinal   = EXCLUDED.prefinal,
			finals     = EXCLUDED.finals,
			average    = EXCLUDED.average,
			gpa        = EXCLUDED.gpa,
			remarks    = EXCLUDED.remarks,
			updated_at = EXCLUDED.updated_at`
	if _, err := repo.db.NamedExecContext(ctx, query, records); err != nil {
		return errors.Wrap(err, "upserting grade records")
	}
	return nil
}
