package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/torneros/elms/core/token"
)

type templateRepository struct {
	db *sqlx.DB
}

var _ token.TemplateRepository = (*templateRepository)(nil) // interface compliance check

func NewTemplateRepository(db *sqlx.DB) *templateRepository {
	return &templateRepository{db: db}
}

func (repo templateRepository) LatestFinalTemplate(ctx context.Context) (token.MailTemplate, error) {
	const query = `SELECT * FROM mail_templates WHERE status = $1 ORDER BY updated_at DESC LIMIT 1`
	var tmpl token.MailTemplate
	if err := repo.db.GetContext(ctx, &tmpl, query, token.TemplateStatusFinal); err != nil {
		return token.MailTemplate{}, trapNoRowsErr(err, token.ErrNoTemplate, "getting mail template")
	}
	return tmpl, nil
}
