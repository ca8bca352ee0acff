package dummydb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/torneros/elms/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db.students}
}

func (repo *studentRepository) UpsertStudents(_ context.Context, students []student.Student) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, stu := range students {
		stu := stu
		if existing, ok := repo.db.table[stu.StudentID]; ok {
			stu.ID = existing.ID
			stu.CreatedAt = existing.CreatedAt
			stu.DeletedAt = existing.DeletedAt
			repo.db.table[stu.StudentID] = &stu
			continue
		}
		stu.ID = uuid.New().String()
		repo.db.table[stu.StudentID] = &stu
		repo.db.order = append(repo.db.order, stu.StudentID)
	}
	return nil
}

func (repo *studentRepository) QueryActiveStudents(_ context.Context, studentIDs ...string) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var wanted map[string]struct{}
	if len(studentIDs) > 0 {
		wanted = make(map[string]struct{}, len(studentIDs))
		for _, id := range studentIDs {
			wanted[id] = struct{}{}
		}
	}

	students := make([]student.Student, 0, len(repo.db.order))
	for _, id := range repo.db.order {
		stu := repo.db.table[id]
		if stu.DeletedAt.Valid {
			continue
		}
		if wanted != nil {
			if _, ok := wanted[id]; !ok {
				continue
			}
		}
		students = append(students, *stu)
	}
	return students, nil
}

func (repo *studentRepository) GetStudentByStudentID(_ context.Context, studentID string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if stu, ok := repo.db.table[studentID]; ok && !stu.DeletedAt.Valid {
		return *stu, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) SoftDeleteAllStudents(_ context.Context) (int64, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	now := null.TimeFrom(time.Now().UTC())
	var count int64
	for _, stu := range repo.db.table {
		if !stu.DeletedAt.Valid {
			stu.DeletedAt = now
			count++
		}
	}
	return count, nil
}
