package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/torneros/elms/core"
	"github.com/torneros/elms/core/grade"
)

type gradeRepository struct {
	db *subjectTable
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *DB) *gradeRepository {
	return &gradeRepository{db: db.subjects}
}

func (repo *gradeRepository) InsertSubjects(_ context.Context, subjects []grade.SubjectGrade) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, s := range subjects {
		s.ID = uuid.New().String()
		repo.db.subjects = append(repo.db.subjects, s)
	}
	return nil
}

func (repo *gradeRepository) QueryActiveSubjects(_ context.Context, orderings ...core.DBOrdering) ([]grade.SubjectGrade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subjects := make([]grade.SubjectGrade, 0, len(repo.db.subjects))
	for _, s := range repo.db.subjects {
		if !s.DeletedAt.Valid {
			subjects = append(subjects, s)
		}
	}
	for i := len(orderings) - 1; i >= 0; i-- {
		sortSubjects(subjects, orderings[i])
	}
	return subjects, nil
}

func sortSubjects(subjects []grade.SubjectGrade, ord core.DBOrdering) {
	less := func(a, b grade.SubjectGrade) bool {
		switch ord.Field {
		case "subject_name":
			return a.SubjectName < b.SubjectName
		case "student_name":
			return a.StudentName.String < b.StudentName.String
		case "year_level":
			return a.YearLevel.String < b.YearLevel.String
		case "semester":
			return a.Semester.String < b.Semester.String
		case "average":
			return a.Average.Float64 < b.Average.Float64
		case "updated_at":
			return a.UpdatedAt.Before(b.UpdatedAt)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(subjects, func(i, j int) bool {
		if ord.Ascending {
			return less(subjects[i], subjects[j])
		}
		return less(subjects[j], subjects[i])
	})
}

func (repo *gradeRepository) SubjectsForStudentName(_ context.Context, name string) ([]grade.SubjectGrade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var subjects []grade.SubjectGrade
	for _, s := range repo.db.subjects {
		if !s.DeletedAt.Valid && s.StudentName.String == name {
			subjects = append(subjects, s)
		}
	}
	return subjects, nil
}

func (repo *gradeRepository) LatestSubjectsByStudentNames(_ context.Context, names []string) (map[string]grade.SubjectGrade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}

	latest := make(map[string]grade.SubjectGrade, len(names))
	for _, s := range repo.db.subjects {
		if s.DeletedAt.Valid {
			continue
		}
		name := s.StudentName.String
		if _, ok := wanted[name]; !ok {
			continue
		}
		if prev, ok := latest[name]; !ok || s.UpdatedAt.After(prev.UpdatedAt) {
			latest[name] = s
		}
	}
	return latest, nil
}

func (repo *gradeRepository) SoftDeleteAllSubjects(_ context.Context) (int64, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	now := null.TimeFrom(time.Now().UTC())
	var count int64
	for i := range repo.db.subjects {
		if !repo.db.subjects[i].DeletedAt.Valid {
			repo.db.subjects[i].DeletedAt = now
			count++
		}
	}
	return count, nil
}

func (repo *gradeRepository) UpsertGradeRecords(_ context.Context, records []grade.GradeRecord) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, rec := range records {
		rec := rec
		key := strings.Join([]string{
			strings.ToLower(rec.StudentName),
			strings.ToLower(rec.SubjectName),
			strings.ToLower(rec.SchoolYear.String),
			strings.ToLower(rec.Semester.String),
		}, "|")
		if existing, ok := repo.db.grades[key]; ok {
			rec.ID = existing.ID
			rec.CreatedAt = existing.CreatedAt
		} else {
			rec.ID = uuid.New().String()
		}
		repo.db.grades[key] = &rec
	}
	return nil
}

// GradeRecordCount reports stored legacy grade rows (test helper).
func (repo *gradeRepository) GradeRecordCount() int {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.db.grades)
}
