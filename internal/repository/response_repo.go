package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"prism-scoring/internal/domain"
)

// ResponseRepository lee las respuestas ya etiquetadas que deja el colector externo.
type ResponseRepository interface {
	ListBySession(ctx context.Context, sessionID string) ([]domain.Response, error)
}

type PgResponseRepository struct {
	pool *pgxpool.Pool
}

func NewPgResponseRepository(pool *pgxpool.Pool) *PgResponseRepository {
	return &PgResponseRepository{pool: pool}
}

func (r *PgResponseRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.Response, error) {
	const query = `
		SELECT r.question_id, q.tag, q.scale_type, r.answer_value, q.reverse_scored
		FROM assessment_responses r
		JOIN assessment_questions q ON q.id = r.question_id
		WHERE r.session_id = $1
		ORDER BY r.question_id
	`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResponses(rows)
}

func scanResponses(rows pgxRows) ([]domain.Response, error) {
	var out []domain.Response
	for rows.Next() {
		var resp domain.Response
		var scale string
		if err := rows.Scan(
			&resp.QuestionID,
			&resp.Tag,
			&scale,
			&resp.Value,
			&resp.ReverseScored,
		); err != nil {
			return nil, err
		}
		resp.Scale = domain.ScaleKind(scale)
		out = append(out, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
