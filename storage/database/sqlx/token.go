package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/torneros/elms/core/token"
)

type tokenRepository struct {
	db *sqlx.DB
}

var _ token.Repository = (*tokenRepository)(nil) // interface compliance check

func NewTokenRepository(db *sqlx.DB) *tokenRepository {
	return &tokenRepository{db: db}
}

func (repo tokenRepository) UpsertTokens(ctx context.Context, tokens []token.AccessToken) error {
	const query = `
		INSERT INTO student_tokens (student_id, token, created_at)
		VALUES (:student_id, :token, :created_at)
		ON CONFLICT (student_id) DO UPDATE SET
			token      = EXCLUDED.token,
			created_at = EXCLUDED.created_at`
	if _, err := repo.db.NamedExecContext(ctx, query, tokens); err != nil {
		return errors.Wrap(err, "upserting tokens")
	}
	return nil
}

func (repo tokenRepository) TokensByStudentIDs(ctx context.Context, studentIDs []string) ([]token.AccessToken, error) {
	tokens := make([]token.AccessToken, 0, len(studentIDs))
	if len(studentIDs) == 0 {
		return tokens, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM student_tokens WHERE student_id IN (?)`, studentIDs)
	if err != nil {
		return nil, errors.Wrap(err, "building token query")
	}
	if err = repo.db.SelectContext(ctx, &tokens, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying tokens")
	}
	return tokens, nil
}

func (repo tokenRepository) GetTokenByValue(ctx context.Context, value string) (token.AccessToken, error) {
	const query = `SELECT * FROM student_tokens WHERE token = $1`
	var tok token.AccessToken
	if err := repo.db.GetContext(ctx, &tok, query, value); err != nil {
		return token.AccessToken{}, trapNoRowsErr(err, token.ErrInvalidToken, "getting token")
	}
	return tok, nil
}

func (repo tokenRepository) DeleteTokensByStudentID(ctx context.Context, studentIDs ...string) (int64, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`DELETE FROM student_tokens WHERE student_id IN (?)`, studentIDs)
	if err != nil {
		return 0, errors.Wrap(err, "building token delete")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting tokens")
	}
	return res.RowsAffected()
}
