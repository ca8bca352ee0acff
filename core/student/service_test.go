package student_test

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/torneros/elms/core/sheet"
	"github.com/torneros/elms/core/student"
	dummydb "github.com/torneros/elms/storage/database/dummy"
)

func setup(t *testing.T) (*student.Service, student.Repository) {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup(): %v", err)
	}
	repo := dummydb.NewStudentRepository(db)
	return student.NewService(repo), repo
}

func row(id, name, email string) sheet.StudentRow {
	return sheet.StudentRow{
		StudentID: id,
		FullName:  name,
		Gender:    "F",
		Birthdate: "1/5/2004",
		Age:       "20",
		Course:    "BSIT",
		Email:     email,
	}
}

func TestService_Import_upsertIdempotence(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	count, err := svc.Import(ctx, []sheet.StudentRow{row("1001", "Ana Reyes", "ana@test.test")})
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	// same id, updated fields
	count, err = svc.Import(ctx, []sheet.StudentRow{row("1001", "Ana R. Reyes", "ana2@test.test")})
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	students, err := svc.QueryActive(ctx)
	assert.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, "Ana R. Reyes", students[0].FullName)
	assert.Equal(t, "ana2@test.test", students[0].Email.String)
}

func TestService_Import_blankIDGetsRandomSixDigits(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	count, err := svc.Import(ctx, []sheet.StudentRow{row("", "No ID Kid", "")})
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	students, err := svc.QueryActive(ctx)
	assert.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Regexp(t, regexp.MustCompile(`^[1-9]\d{5}$`), students[0].StudentID)
}

func TestService_Import_blankIDNotIdempotent(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	// the same blank-id row imported twice gets two distinct random ids
	_, err := svc.Import(ctx, []sheet.StudentRow{row("", "No ID Kid", "")})
	assert.NoError(t, err)
	_, err = svc.Import(ctx, []sheet.StudentRow{row("", "No ID Kid", "")})
	assert.NoError(t, err)

	students, err := svc.QueryActive(ctx)
	assert.NoError(t, err)
	assert.Len(t, students, 2)
	assert.NotEqual(t, students[0].StudentID, students[1].StudentID)
}

func TestService_Import_concurrentFallbackIDs(t *testing.T) {
	// concurrent imports draw fallback ids from a shared source; exercised
	// under -race
	svc, _ := setup(t)
	ctx := context.Background()

	const goroutines = 8
	var wg sync.WaitGroup
	errs := make([]error, goroutines)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			_, errs[g] = svc.Import(ctx, []sheet.StudentRow{row("", fmt.Sprintf("Student %d", g), "")})
		}(g)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	students, err := svc.QueryActive(ctx)
	assert.NoError(t, err)
	assert.Len(t, students, goroutines)
	idRegex := regexp.MustCompile(`^[1-9]\d{5}$`)
	for _, s := range students {
		assert.Regexp(t, idRegex, s.StudentID)
	}
}

func TestService_Import_dropsRowsWithoutFullName(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	count, err := svc.Import(ctx, []sheet.StudentRow{
		row("1001", "Ana Reyes", ""),
		row("1002", "", ""),
		row("1003", "  ", ""),
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestService_Import_normalizesBirthdate(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Import(ctx, []sheet.StudentRow{row("1001", "Ana Reyes", "")})
	assert.NoError(t, err)

	stu, err := svc.GetByStudentID(ctx, "1001")
	assert.NoError(t, err)
	assert.Equal(t, "2004-01-05", stu.Birthdate.String)
}

func TestService_GetByStudentID_notFound(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.GetByStudentID(context.Background(), "nope")
	assert.ErrorIs(t, err, student.ErrNotFound)
}

func TestService_ResetAll(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Import(ctx, []sheet.StudentRow{
		row("1001", "Ana Reyes", ""),
		row("1002", "Ben Cruz", ""),
	})
	assert.NoError(t, err)

	removed, err := svc.ResetAll(ctx)
	assert.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	students, err := svc.QueryActive(ctx)
	assert.NoError(t, err)
	assert.Empty(t, students)

	_, err = svc.GetByStudentID(ctx, "1001")
	assert.ErrorIs(t, err, student.ErrNotFound)
}
