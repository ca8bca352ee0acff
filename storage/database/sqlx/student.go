package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/torneros/elms/core/student"
)

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo studentRepository) UpsertStudents(ctx context.Context, students []student.Student) error {
	const query = `
		INSERT INTO students (student_id, full_name, gender, birthdate, age, course, contact_number, email, created_at, updated_at)
		VALUES (:student_id, :full_name, :gender, :birthdate, :age, :course, :contact_number, :email, :created_at, :updated_at)
		ON CONFLICT (student_id) DO UPDATE SET
			full_name      = EXCLUDED.full_name,
			gender         = EXCLUDED.gender,
			birthdate      = EXCLUDED.birthdate,
			age            = EXCLUDED.age,
			course         = EXCLUDED.course,
			contact_number = EXCLUDED.contact_number,
			email          = EXCLUDED.email,
			updated_at     = EXCLUDED.updated_at`
	if _, err := repo.db.NamedExecContext(ctx, query, students); err != nil {
		return errors.Wrap(err, "upserting students")
	}
	return nil
}

func (repo studentRepository) QueryActiveStudents(ctx context.Context, studentIDs ...string) ([]student.Student, error) {
	students := make([]student.Student, 0)
	if len(studentIDs) > 0 {
		query, args, err := sqlx.In(
			`SELECT * FROM students WHERE deleted_at IS NULL AND student_id IN (?) ORDER BY created_at`, studentIDs)
		if err != nil {
			return nil, errors.Wrap(err, "building student query")
		}
		if err = repo.db.SelectContext(ctx, &students, repo.db.Rebind(query), args...); err != nil {
			return nil, errors.Wrap(err, "querying students")
		}
		return students, nil
	}

	const query = `SELECT * FROM students WHERE deleted_at IS NULL ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &students, query); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func (repo studentRepository) GetStudentByStudentID(ctx context.Context, studentID string) (student.Student, error) {
	const query = `SELECT * FROM students WHERE student_id = $1 AND deleted_at IS NULL`
	var stu student.Student
	if err := repo.db.GetContext(ctx, &stu, query, studentID); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "getting student")
	}
	return stu, nil
}

func (repo studentRepository) SoftDeleteAllStudents(ctx context.Context) (int64, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE students SET deleted_at = now() WHERE deleted_at IS NULL`)
	if err != nil {
		return 0, errors.Wrap(err, "soft-deleting students")
	}
	return res.RowsAffected()
}
