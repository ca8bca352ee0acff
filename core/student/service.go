// Package student implements masterlist import and lookups.
//
// Import re-runs are idempotent per explicit student id (upsert). A row with
// a blank id is assigned a random 6-digit id instead, so re-importing such a
// row creates a new record each run; this mirrors how administrators use the
// masterlist sheet and is exercised in tests rather than hidden.
package student

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"time"

	"github.com/torneros/elms/core"
	"github.com/torneros/elms/core/sheet"
)

var (
	ErrNotFound = errors.New("student not found")

	// The global rand source is mutex-locked, so concurrent imports do not
	// race on fallback-id draws.
	randIntFunc = rand.Intn // mockable
)

func init() {
	rand.Seed(time.Now().UnixNano())
}

type (
	Repository interface {
		// UpsertStudents inserts or updates by student_id; last write wins.
		UpsertStudents(ctx context.Context, students []Student) error
		// QueryActiveStudents returns non-tombstoned students in creation order,
		// optionally restricted to the given student ids.
		QueryActiveStudents(ctx context.Context, studentIDs ...string) ([]Student, error)
		GetStudentByStudentID(ctx context.Context, studentID string) (Student, error)
		SoftDeleteAllStudents(ctx context.Context) (int64, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// fallbackStudentID covers rows imported without an explicit id.
func fallbackStudentID() string {
	return strconv.Itoa(100000 + randIntFunc(900000))
}

// Import normalizes raw masterlist rows and bulk-upserts them, returning the
// committed count. Rows without a full name are dropped; there is no
// per-row error channel beyond the final count.
func (svc *Service) Import(ctx context.Context, rows []sheet.StudentRow) (int, error) {
	now := time.Now().UTC()
	students := make([]Student, 0, len(rows))
	for _, r := range rows {
		fullName := core.CleanString(r.FullName)
		if fullName == "" {
			continue
		}
		studentID := core.CleanString(r.StudentID)
		if studentID == "" {
			studentID = fallbackStudentID()
		}
		students = append(students, Student{
			StudentID:     studentID,
			FullName:      fullName,
			Gender:        nullable(r.Gender),
			Birthdate:     sheet.NormalizeDate(r.Birthdate),
			Age:           nullable(r.Age),
			Course:        nullable(r.Course),
			ContactNumber: nullable(r.ContactNumber),
			Email:         nullable(r.Email),
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	if len(students) == 0 {
		return 0, nil
	}
	if err := svc.repo.UpsertStudents(ctx, students); err != nil {
		return 0, err
	}
	return len(students), nil
}

func (svc *Service) QueryActive(ctx context.Context, studentIDs ...string) ([]Student, error) {
	return svc.repo.QueryActiveStudents(ctx, studentIDs...)
}

func (svc *Service) GetByStudentID(ctx context.Context, studentID string) (Student, error) {
	return svc.repo.GetStudentByStudentID(ctx, core.CleanString(studentID))
}

// ResetAll tombstones every active student; records are never hard-deleted.
func (svc *Service) ResetAll(ctx context.Context) (int64, error) {
	return svc.repo.SoftDeleteAllStudents(ctx)
}
