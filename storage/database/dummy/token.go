package dummydb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/torneros/elms/core/token"
)

type tokenRepository struct {
	db *tokenTable
}

var _ token.Repository = (*tokenRepository)(nil) // interface compliance check

func NewTokenRepository(db *DB) *tokenRepository {
	return &tokenRepository{db: db.tokens}
}

func (repo *tokenRepository) UpsertTokens(_ context.Context, tokens []token.AccessToken) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, tok := range tokens {
		tok := tok
		if tok.CreatedAt.IsZero() {
			tok.CreatedAt = time.Now().UTC()
		}
		repo.db.table[tok.StudentID] = &tok
	}
	return nil
}

func (repo *tokenRepository) TokensByStudentIDs(_ context.Context, studentIDs []string) ([]token.AccessToken, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	tokens := make([]token.AccessToken, 0, len(studentIDs))
	for _, id := range studentIDs {
		if tok, ok := repo.db.table[id]; ok {
			tokens = append(tokens, *tok)
		}
	}
	return tokens, nil
}

func (repo *tokenRepository) GetTokenByValue(_ context.Context, value string) (token.AccessToken, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, tok := range repo.db.table {
		if tok.Token == value {
			return *tok, nil
		}
	}
	return token.AccessToken{}, token.ErrInvalidToken
}

func (repo *tokenRepository) DeleteTokensByStudentID(_ context.Context, studentIDs ...string) (int64, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var count int64
	for _, id := range studentIDs {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			count++
		}
	}
	return count, nil
}

type templateRepository struct {
	db *templateTable
}

var _ token.TemplateRepository = (*templateRepository)(nil) // interface compliance check

func NewTemplateRepository(db *DB) *templateRepository {
	return &templateRepository{db: db.templates}
}

func (repo *templateRepository) LatestFinalTemplate(_ context.Context) (token.MailTemplate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var latest *token.MailTemplate
	for i := range repo.db.table {
		tmpl := &repo.db.table[i]
		if tmpl.Status != token.TemplateStatusFinal {
			continue
		}
		if latest == nil || tmpl.UpdatedAt.After(latest.UpdatedAt) {
			latest = tmpl
		}
	}
	if latest == nil {
		return token.MailTemplate{}, token.ErrNoTemplate
	}
	return *latest, nil
}

// SaveTemplate stores a template row (test helper).
func (repo *templateRepository) SaveTemplate(tmpl token.MailTemplate) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if tmpl.ID == "" {
		tmpl.ID = uuid.New().String()
	}
	repo.db.table = append(repo.db.table, tmpl)
}
