package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ModelRepository guarda documentos YAML de modelos de scoring por version.
type ModelRepository interface {
	GetDocument(ctx context.Context, version string) ([]byte, error)
}

type PgModelRepository struct {
	pool *pgxpool.Pool
}

func NewPgModelRepository(pool *pgxpool.Pool) *PgModelRepository {
	return &PgModelRepository{pool: pool}
}

func (r *PgModelRepository) GetDocument(ctx context.Context, version string) ([]byte, error) {
	const query = `
		SELECT document
		FROM scoring_models
		WHERE version = $1
	`
	var doc []byte
	if err := r.pool.QueryRow(ctx, query, version).Scan(&doc); err != nil {
		return nil, mapNoRows(err)
	}
	return doc, nil
}
