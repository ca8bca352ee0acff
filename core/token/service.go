// Package token issues, resolves, revokes and delivers the bearer tokens
// that gate the student grade portal.
package token

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/torneros/elms/core"
	"github.com/torneros/elms/core/grade"
	"github.com/torneros/elms/core/student"
)

// Issuance modes. "both" is a legacy client value coerced to reuse; the
// coercion is observable behavior and must stay.
const (
	ModeReuse    = "reuse"
	ModeNew      = "new"
	ModeSelected = "selected"
	ModeBoth     = "both"
)

var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrStudentNotFound = student.ErrNotFound
	ErrEmailMissing    = errors.New("Student email not found.")
	ErrNoStudents      = errors.New("No students found.")
	ErrNoTemplate      = errors.New("no final mail template")
)

type (
	Repository interface {
		// UpsertTokens writes by student_id; a reissue overwrites in place and
		// the previous token is invalid the instant this returns.
		UpsertTokens(ctx context.Context, tokens []AccessToken) error
		TokensByStudentIDs(ctx context.Context, studentIDs []string) ([]AccessToken, error)
		// GetTokenByValue does an exact match against stored token strings.
		GetTokenByValue(ctx context.Context, value string) (AccessToken, error)
		DeleteTokensByStudentID(ctx context.Context, studentIDs ...string) (int64, error)
	}

	TemplateRepository interface {
		// LatestFinalTemplate returns the most recently updated row with
		// status "final", or ErrNoTemplate.
		LatestFinalTemplate(ctx context.Context) (MailTemplate, error)
	}

	Service struct {
		repo       Repository
		tmplRepo   TemplateRepository
		studentSvc *student.Service
		gradeSvc   *grade.Service
		mailSvc    core.EmailService
		conf       *core.Config
		logger     core.Logger
	}
)

func NewService(
	repo Repository,
	tmplRepo TemplateRepository,
	studentSvc *student.Service,
	gradeSvc *grade.Service,
	mailSvc core.EmailService,
	conf *core.Config,
	logger core.Logger,
) *Service {
	return &Service{
		repo:       repo,
		tmplRepo:   tmplRepo,
		studentSvc: studentSvc,
		gradeSvc:   gradeSvc,
		mailSvc:    mailSvc,
		conf:       conf,
		logger:     logger,
	}
}

// NormalizeMode applies the configured default and the legacy "both" coercion.
func (svc *Service) NormalizeMode(mode string) string {
	if mode == "" {
		mode = svc.conf.TokenMode
	}
	if mode == ModeBoth {
		mode = ModeReuse
	}
	return mode
}

// Issue resolves the target student set and persists one token per student.
// In reuse mode an existing token is kept as-is; every other mode generates
// unconditionally. Selected mode restricts targets to the given ids.
// The upsert completes before the tokens are returned for delivery, so a
// failed send never leaves a student without a stored token.
func (svc *Service) Issue(ctx context.Context, mode string, studentIDs []string) ([]AccessToken, []student.Student, error) {
	mode = svc.NormalizeMode(mode)

	var filter []string
	if mode == ModeSelected && len(studentIDs) > 0 {
		filter = studentIDs
	}
	students, err := svc.studentSvc.QueryActive(ctx, filter...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying students")
	}
	if len(students) == 0 {
		return nil, nil, ErrNoStudents
	}

	ids := make([]string, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.StudentID)
	}
	existing, err := svc.repo.TokensByStudentIDs(ctx, ids)
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying existing tokens")
	}
	existingByID := make(map[string]string, len(existing))
	for _, t := range existing {
		existingByID[t.StudentID] = t.Token
	}

	now := time.Now().UTC()
	payload := make([]AccessToken, 0, len(students))
	for _, s := range students {
		var value string
		if mode == ModeReuse {
			value = existingByID[s.StudentID]
		}
		if value == "" {
			value = Generate()
		}
		payload = append(payload, AccessToken{StudentID: s.StudentID, Token: value, CreatedAt: now})
	}

	if err = svc.repo.UpsertTokens(ctx, payload); err != nil {
		return nil, nil, errors.Wrap(err, "upserting tokens")
	}
	return payload, students, nil
}

// SendTokenEmails issues tokens for the target set and delivers one message
// per student. Targets without an email address are silently skipped;
// a failed send is logged and the batch continues. Returns the sent count.
func (svc *Service) SendTokenEmails(ctx context.Context, mode string, studentIDs []string) (int, error) {
	payload, students, err := svc.Issue(ctx, mode, studentIDs)
	if err != nil {
		return 0, err
	}

	tokenByID := make(map[string]string, len(payload))
	for _, t := range payload {
		tokenByID[t.StudentID] = t.Token
	}

	subject, bodyHTML := svc.loadTemplate(ctx)

	names := make([]string, 0, len(students))
	for _, s := range students {
		if s.FullName != "" {
			names = append(names, s.FullName)
		}
	}
	latestByName, err := svc.gradeSvc.LatestForStudentNames(ctx, names)
	if err != nil {
		return 0, errors.Wrap(err, "querying subject info")
	}

	var sent int
	for _, s := range students {
		if !s.HasEmail() {
			continue
		}
		tok, ok := tokenByID[s.StudentID]
		if !ok {
			continue
		}
		fields := templateFields(s, tok, svc.conf.PortalLink, latestByName[s.FullName])
		msg := svc.buildMessage(s, subject, bodyHTML, fields)
		if err = svc.mailSvc.SendMessage(msg); err != nil {
			svc.logger.Error("sending token email to "+s.Email.String, err)
			continue
		}
		sent++
	}
	return sent, nil
}

// Reroll replaces one student's token and emails the new one. The old token
// is permanently invalid as soon as the upsert completes; there is no grace
// period.
func (svc *Service) Reroll(ctx context.Context, studentID string) (string, error) {
	stu, err := svc.studentSvc.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return "", ErrStudentNotFound
		}
		return "", errors.Wrap(err, "looking up student")
	}
	if !stu.HasEmail() {
		return "", ErrEmailMissing
	}

	newToken := Generate()
	upsert := []AccessToken{{StudentID: stu.StudentID, Token: newToken, CreatedAt: time.Now().UTC()}}
	if err = svc.repo.UpsertTokens(ctx, upsert); err != nil {
		return "", errors.Wrap(err, "upserting token")
	}

	subject, bodyHTML := svc.loadTemplate(ctx)
	var latest grade.SubjectGrade
	if stu.FullName != "" {
		latestByName, lerr := svc.gradeSvc.LatestForStudentNames(ctx, []string{stu.FullName})
		if lerr != nil {
			return "", errors.Wrap(lerr, "querying subject info")
		}
		latest = latestByName[stu.FullName]
	}
	fields := templateFields(stu, newToken, svc.conf.PortalLink, latest)
	if err = svc.mailSvc.SendMessage(svc.buildMessage(stu, subject, bodyHTML, fields)); err != nil {
		return "", errors.Wrap(err, "sending token email")
	}
	return newToken, nil
}

// Revoke hard-deletes the tokens of the given students; irreversible.
// The student records themselves are untouched.
func (svc *Service) Revoke(ctx context.Context, studentIDs ...string) (int64, error) {
	return svc.repo.DeleteTokensByStudentID(ctx, studentIDs...)
}

// ResolveGuest maps a presented token to its student. Input is uppercased
// before the exact match since tokens are generated uppercase-only. Failure
// is a single generic outcome: a revoked or rerolled token is
// indistinguishable from one that never existed.
func (svc *Service) ResolveGuest(ctx context.Context, presented string) (student.Student, error) {
	value := strings.ToUpper(core.CleanString(presented))
	tok, err := svc.repo.GetTokenByValue(ctx, value)
	if err != nil {
		return student.Student{}, ErrInvalidToken
	}
	stu, err := svc.studentSvc.GetByStudentID(ctx, tok.StudentID)
	if err != nil {
		return student.Student{}, ErrInvalidToken
	}
	return stu, nil
}

func (svc *Service) loadTemplate(ctx context.Context) (subject, bodyHTML string) {
	subject, bodyHTML = DefaultSubject, DefaultBodyHTML
	tmpl, err := svc.tmplRepo.LatestFinalTemplate(ctx)
	if err == nil {
		if tmpl.Title != "" {
			subject = tmpl.Title
		}
		if tmpl.BodyHTML != "" {
			bodyHTML = tmpl.BodyHTML
		}
	} else if errors.Cause(err) != ErrNoTemplate {
		svc.logger.Error("loading mail template", err)
	}
	return subject, bodyHTML
}

func (svc *Service) buildMessage(stu student.Student, subject, bodyHTML string, fields map[string]string) *core.EmailMessage {
	html := RenderTemplate(bodyHTML, fields)
	return &core.EmailMessage{
		To:          []mail.Address{{Name: stu.FullName, Address: stu.Email.String}},
		Subject:     RenderTemplate(subject, fields),
		TextContent: StripHTML(html),
		HTMLContent: html,
	}
}
