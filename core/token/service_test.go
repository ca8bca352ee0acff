package token_test

import (
	"context"
	"io"
	"log"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/torneros/elms/core"
	"github.com/torneros/elms/core/grade"
	"github.com/torneros/elms/core/sheet"
	"github.com/torneros/elms/core/student"
	"github.com/torneros/elms/core/token"
	emailsvc "github.com/torneros/elms/services/email"
	logsvc "github.com/torneros/elms/services/logger"
	dummydb "github.com/torneros/elms/storage/database/dummy"
)

type testDeps struct {
	svc        *token.Service
	studentSvc *student.Service
	mailSvc    interface{ SentMessages() []core.EmailMessage }
	db         *dummydb.DB
}

func testConfig() *core.Config {
	return &core.Config{
		AppName:          "ELMS",
		DefaultFromEmail: mail.Address{Name: "ELMS", Address: "noreply@test.test"},
		PortalLink:       "https://portal.test",
		TokenMode:        token.ModeReuse,
	}
}

func setup(t *testing.T) testDeps {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup(): %v", err)
	}

	conf := testConfig()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	logger := logsvc.NewStdLogger(log.New(io.Discard, "", 0))

	studentSvc := student.NewService(dummydb.NewStudentRepository(db))
	gradeSvc := grade.NewService(dummydb.NewGradeRepository(db))
	svc := token.NewService(
		dummydb.NewTokenRepository(db),
		dummydb.NewTemplateRepository(db),
		studentSvc,
		gradeSvc,
		mailSvc,
		conf,
		logger,
	)
	return testDeps{svc: svc, studentSvc: studentSvc, mailSvc: mailSvc, db: db}
}

func importStudent(t *testing.T, deps testDeps, id, name, email string) {
	t.Helper()
	_, err := deps.studentSvc.Import(context.Background(), []sheet.StudentRow{
		{StudentID: id, FullName: name, Email: email},
	})
	if err != nil {
		t.Fatalf("importStudent(): %v", err)
	}
}

func TestService_NormalizeMode(t *testing.T) {
	deps := setup(t)

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: token.ModeReuse}, // config default
		{in: token.ModeReuse, want: token.ModeReuse},
		{in: token.ModeNew, want: token.ModeNew},
		{in: token.ModeSelected, want: token.ModeSelected},
		{in: token.ModeBoth, want: token.ModeReuse}, // legacy coercion
	}
	for _, tt := range tests {
		t.Run("mode="+tt.in, func(t *testing.T) {
			if got := deps.svc.NormalizeMode(tt.in); got != tt.want {
				t.Errorf("NormalizeMode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestService_Issue_reuseStability(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()
	importStudent(t, deps, "1001", "Ana Reyes", "ana@test.test")

	first, _, err := deps.svc.Issue(ctx, token.ModeReuse, nil)
	assert.NoError(t, err)
	assert.Len(t, first, 1)

	second, _, err := deps.svc.Issue(ctx, token.ModeReuse, nil)
	assert.NoError(t, err)
	assert.Equal(t, first[0].Token, second[0].Token)

	third, _, err := deps.svc.Issue(ctx, token.ModeNew, nil)
	assert.NoError(t, err)
	assert.NotEqual(t, first[0].Token, third[0].Token)
}

func TestService_Issue_bothBehavesLikeReuse(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()
	importStudent(t, deps, "1001", "Ana Reyes", "ana@test.test")

	first, _, err := deps.svc.Issue(ctx, token.ModeBoth, nil)
	assert.NoError(t, err)
	second, _, err := deps.svc.Issue(ctx, token.ModeBoth, nil)
	assert.NoError(t, err)
	assert.Equal(t, first[0].Token, second[0].Token)
}

func TestService_Issue_selectedFiltersTargets(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()
	importStudent(t, deps, "1001", "Ana Reyes", "ana@test.test")
	importStudent(t, deps, "1002", "Ben Cruz", "ben@test.test")

	tokens, students, err := deps.svc.Issue(ctx, token.ModeSelected, []string{"1002"})
	assert.NoError(t, err)
	assert.Len(t, tokens, 1)
	assert.Len(t, students, 1)
	assert.Equal(t, "1002", tokens[0].StudentID)
}

func TestService_Issue_noStudents(t *testing.T) {
	deps := setup(t)

	_, _, err := deps.svc.Issue(context.Background(), token.ModeReuse, nil)
	assert.ErrorIs(t, err, token.ErrNoStudents)
}

func TestService_SendTokenEmails(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()
	importStudent(t, deps, "1001", "Ana Reyes", "ana@test.test")
	importStudent(t, deps, "1002", "Ben Cruz", "") // no email: silently skipped

	sent, err := deps.svc.SendTokenEmails(ctx, token.ModeReuse, nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, sent)

	msgs := deps.mailSvc.SentMessages()
	assert.Len(t, msgs, 1)
	assert.Equal(t, "ana@test.test", msgs[0].To[0].Address)
	assert.Equal(t, token.DefaultSubject, msgs[0].Subject)
	assert.NotEmpty(t, msgs[0].HTMLContent)
	assert.NotEmpty(t, msgs[0].TextContent)

	// tokens are persisted for every target; only delivery is skipped
	repo := dummydb.NewTokenRepository(deps.db)
	tokens, err := repo.TokensByStudentIDs(ctx, []string{"1001", "1002"})
	assert.NoError(t, err)
	assert.Len(t, tokens, 2)
}

func TestService_SendTokenEmails_usesFinalTemplate(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()
	importStudent(t, deps, "1001", "Ana Reyes", "ana@test.test")

	tmplRepo := dummydb.NewTemplateRepository(deps.db)
	tmplRepo.SaveTemplate(token.MailTemplate{
		Status:    token.TemplateStatusDraft,
		Title:     "Draft title",
		BodyHTML:  "<p>draft</p>",
		UpdatedAt: time.Now().UTC(),
	})
	tmplRepo.SaveTemplate(token.MailTemplate{
		Status:    token.TemplateStatusFinal,
		Title:     "Hello {Student_Name}",
		BodyHTML:  "<p>Token: {Session_Token}</p><p>Visit {Portal_Link}</p>",
		UpdatedAt: time.Now().UTC().Add(-time.Hour),
	})

	sent, err := deps.svc.SendTokenEmails(ctx, token.ModeReuse, nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, sent)

	msgs := deps.mailSvc.SentMessages()
	assert.Len(t, msgs, 1)
	assert.Equal(t, "Hello Ana Reyes", msgs[0].Subject)
	assert.Contains(t, msgs[0].HTMLContent, "https://portal.test")
	assert.NotContains(t, msgs[0].HTMLContent, "{Session_Token}")
}

func TestService_Reroll(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()
	importStudent(t, deps, "1001", "Ana Reyes", "ana@test.test")

	first, _, err := deps.svc.Issue(ctx, token.ModeReuse, nil)
	assert.NoError(t, err)
	oldToken := first[0].Token

	newToken, err := deps.svc.Reroll(ctx, "1001")
	assert.NoError(t, err)
	assert.NotEqual(t, oldToken, newToken)

	// the old token is dead the instant the upsert lands
	_, err = deps.svc.ResolveGuest(ctx, oldToken)
	assert.ErrorIs(t, err, token.ErrInvalidToken)

	stu, err := deps.svc.ResolveGuest(ctx, newToken)
	assert.NoError(t, err)
	assert.Equal(t, "1001", stu.StudentID)

	// reroll also delivers the new token
	msgs := deps.mailSvc.SentMessages()
	assert.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].HTMLContent, newToken)
}

func TestService_Reroll_errors(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()
	importStudent(t, deps, "1002", "Ben Cruz", "") // no email on file

	_, err := deps.svc.Reroll(ctx, "nope")
	assert.ErrorIs(t, err, token.ErrStudentNotFound)

	_, err = deps.svc.Reroll(ctx, "1002")
	assert.ErrorIs(t, err, token.ErrEmailMissing)
}

func TestService_Revoke_finality(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()
	importStudent(t, deps, "1001", "Ana Reyes", "ana@test.test")

	issued, _, err := deps.svc.Issue(ctx, token.ModeReuse, nil)
	assert.NoError(t, err)
	oldToken := issued[0].Token

	deleted, err := deps.svc.Revoke(ctx, "1001")
	assert.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	// a revoked token and a never-issued one are indistinguishable
	_, errRevoked := deps.svc.ResolveGuest(ctx, oldToken)
	_, errUnknown := deps.svc.ResolveGuest(ctx, "AAAA-BBBB-CCCC-DDDD")
	assert.ErrorIs(t, errRevoked, token.ErrInvalidToken)
	assert.ErrorIs(t, errUnknown, token.ErrInvalidToken)

	// revoking again is a no-op
	deleted, err = deps.svc.Revoke(ctx, "1001")
	assert.NoError(t, err)
	assert.EqualValues(t, 0, deleted)
}

func TestService_ResolveGuest_uppercasesInput(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()
	importStudent(t, deps, "1001", "Ana Reyes", "ana@test.test")

	issued, _, err := deps.svc.Issue(ctx, token.ModeReuse, nil)
	assert.NoError(t, err)

	stu, err := deps.svc.ResolveGuest(ctx, "  "+strings.ToLower(issued[0].Token)+"  ")
	assert.NoError(t, err)
	assert.Equal(t, "1001", stu.StudentID)
}

func TestService_EqualTokensForTwoStudentsBothPersist(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()
	importStudent(t, deps, "1001", "Ana Reyes", "ana@test.test")
	importStudent(t, deps, "1002", "Ben Cruz", "ben@test.test")

	repo := dummydb.NewTokenRepository(deps.db)
	now := time.Now().UTC()
	// no global-uniqueness check: the same token value may be stored twice
	err := repo.UpsertTokens(ctx, []token.AccessToken{
		{StudentID: "1001", Token: "AAAA-AAAA-AAAA-AAAA", CreatedAt: now},
		{StudentID: "1002", Token: "AAAA-AAAA-AAAA-AAAA", CreatedAt: now},
	})
	assert.NoError(t, err)

	tokens, err := repo.TokensByStudentIDs(ctx, []string{"1001", "1002"})
	assert.NoError(t, err)
	assert.Len(t, tokens, 2)
}
