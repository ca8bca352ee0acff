package grade_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/torneros/elms/core"
	"github.com/torneros/elms/core/grade"
	"github.com/torneros/elms/core/sheet"
	dummydb "github.com/torneros/elms/storage/database/dummy"
)

func setup(t *testing.T) (*grade.Service, *dummydb.DB) {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup(): %v", err)
	}
	return grade.NewService(dummydb.NewGradeRepository(db)), db
}

func subjectRow(subject, name, prelim string) sheet.SubjectRow {
	return sheet.SubjectRow{
		SubjectName: subject,
		StudentName: name,
		Prelim:      prelim,
		Midterm:     "88",
		Finals:      "90",
		Average:     "89",
		YearLevel:   "1st Year",
		Semester:    "1st",
	}
}

func TestService_ImportSubjects_appends(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	count, err := svc.ImportSubjects(ctx, []sheet.SubjectRow{subjectRow("Math 101", "Ana Reyes", "85")})
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	// same sheet again: the primary path never dedupes
	count, err = svc.ImportSubjects(ctx, []sheet.SubjectRow{subjectRow("Math 101", "Ana Reyes", "85")})
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	subjects, err := svc.QueryActive(ctx)
	assert.NoError(t, err)
	assert.Len(t, subjects, 2)
}

func TestService_ImportSubjects_dropsBlankSubjectAndParsesScores(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	count, err := svc.ImportSubjects(ctx, []sheet.SubjectRow{
		subjectRow("Math 101", "Ana Reyes", "85.5"),
		subjectRow("", "Ben Cruz", "70"),
		subjectRow("Sci 102", "Carla Diaz", "not a number"),
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, count)

	subjects, err := svc.QueryActive(ctx)
	assert.NoError(t, err)
	assert.Len(t, subjects, 2)
	assert.Equal(t, 85.5, subjects[0].Prelim.Float64)
	assert.False(t, subjects[1].Prelim.Valid) // unparseable score stored as null
}

func TestService_QueryActive_ordering(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.ImportSubjects(ctx, []sheet.SubjectRow{
		subjectRow("Sci 102", "Ben Cruz", "70"),
		subjectRow("Math 101", "Ana Reyes", "85"),
	})
	assert.NoError(t, err)

	subjects, err := svc.QueryActive(ctx, core.DBOrdering{Field: "subject_name", Ascending: true})
	assert.NoError(t, err)
	assert.Len(t, subjects, 2)
	assert.Equal(t, "Math 101", subjects[0].SubjectName)
	assert.Equal(t, "Sci 102", subjects[1].SubjectName)
}

func TestService_ForStudentName(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.ImportSubjects(ctx, []sheet.SubjectRow{
		subjectRow("Math 101", "Ana Reyes", "85"),
		subjectRow("Sci 102", "Ana Reyes", "90"),
		subjectRow("Math 101", "Ben Cruz", "70"),
	})
	assert.NoError(t, err)

	subjects, err := svc.ForStudentName(ctx, "Ana Reyes")
	assert.NoError(t, err)
	assert.Len(t, subjects, 2)
}

func TestService_ImportGradeHistory_dedupes(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	repo := dummydb.NewGradeRepository(db)

	rows := []sheet.SubjectRow{
		{SubjectName: "Math 101", StudentName: "Ana Reyes", SchoolYear: "2023-2024", Semester: "1st", Prelim: "85"},
		// same composite key, different case and score: in-batch dup
		{SubjectName: "MATH 101", StudentName: "ana reyes", SchoolYear: "2023-2024", Semester: "1st", Prelim: "99"},
		{SubjectName: "Math 101", StudentName: "Ana Reyes", SchoolYear: "2023-2024", Semester: "2nd", Prelim: "80"},
	}
	count, err := svc.ImportGradeHistory(ctx, rows)
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, repo.GradeRecordCount())

	// re-import upserts rather than duplicating
	count, err = svc.ImportGradeHistory(ctx, rows)
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, repo.GradeRecordCount())
}

func TestService_ImportGradeHistory_schoolYearFallsBackToYearLevel(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	repo := dummydb.NewGradeRepository(db)

	count, err := svc.ImportGradeHistory(ctx, []sheet.SubjectRow{
		{SubjectName: "Math 101", StudentName: "Ana Reyes", YearLevel: "2022-2023", Semester: "1st"},
		{SubjectName: "Math 101", StudentName: "Ana Reyes", SchoolYear: "2023-2024", YearLevel: "ignored", Semester: "1st"},
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, count) // distinct school years
	assert.Equal(t, 2, repo.GradeRecordCount())
}

func TestService_LatestForStudentNames(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	repo := dummydb.NewGradeRepository(db)

	now := time.Now().UTC()
	err := repo.InsertSubjects(ctx, []grade.SubjectGrade{
		{
			SubjectName: "Math 101",
			StudentName: null.StringFrom("Ana Reyes"),
			YearLevel:   null.StringFrom("1st Year"),
			UpdatedAt:   now.Add(-time.Hour),
		},
		{
			SubjectName: "Sci 102",
			StudentName: null.StringFrom("Ana Reyes"),
			YearLevel:   null.StringFrom("2nd Year"),
			UpdatedAt:   now,
		},
	})
	assert.NoError(t, err)

	latest, err := svc.LatestForStudentNames(ctx, []string{"Ana Reyes", "Nobody"})
	assert.NoError(t, err)
	assert.Len(t, latest, 1)
	assert.Equal(t, "2nd Year", latest["Ana Reyes"].YearLevel.String)
}

func TestService_ResetAll(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.ImportSubjects(ctx, []sheet.SubjectRow{
		subjectRow("Math 101", "Ana Reyes", "85"),
		subjectRow("Sci 102", "Ben Cruz", "70"),
	})
	assert.NoError(t, err)

	removed, err := svc.ResetAll(ctx)
	assert.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	subjects, err := svc.QueryActive(ctx)
	assert.NoError(t, err)
	assert.Empty(t, subjects)
}
