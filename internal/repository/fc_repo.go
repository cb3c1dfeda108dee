package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"prism-scoring/internal/domain"
)

const FCKindFunctions = "functions"

// ForcedChoiceRepository expone bloques de eleccion forzada, respuestas y puntajes calculados.
type ForcedChoiceRepository interface {
	ListOptions(ctx context.Context, version string) ([]domain.ForcedChoiceOption, error)
	ListAnswers(ctx context.Context, sessionID string) ([]domain.ForcedChoiceAnswer, error)
	UpsertScores(ctx context.Context, sessionID, version string, scores map[domain.Function]float64, answered int) error
}

type PgForcedChoiceRepository struct {
	pool *pgxpool.Pool
}

func NewPgForcedChoiceRepository(pool *pgxpool.Pool) *PgForcedChoiceRepository {
	return &PgForcedChoiceRepository{pool: pool}
}

func (r *PgForcedChoiceRepository) ListOptions(ctx context.Context, version string) ([]domain.ForcedChoiceOption, error) {
	const query = `
		SELECT o.id, o.block_id, o.option_code, o.weights_json
		FROM fc_options o
		JOIN fc_blocks b ON b.id = o.block_id
		WHERE b.version = $1 AND b.is_active
		ORDER BY b.order_index, o.option_code
	`
	rows, err := r.pool.Query(ctx, query, version)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []domain.ForcedChoiceOption
	for rows.Next() {
		var o domain.ForcedChoiceOption
		var raw []byte
		if err := rows.Scan(&o.ID, &o.BlockID, &o.Code, &raw); err != nil {
			return nil, err
		}
		weights, err := decodeWeights(raw)
		if err != nil {
			return nil, fmt.Errorf("option %s: %w", o.ID, err)
		}
		o.Weights = weights
		options = append(options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return options, nil
}

func (r *PgForcedChoiceRepository) ListAnswers(ctx context.Context, sessionID string) ([]domain.ForcedChoiceAnswer, error) {
	const query = `
		SELECT block_id, option_id
		FROM fc_responses
		WHERE session_id = $1
	`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []domain.ForcedChoiceAnswer
	for rows.Next() {
		var a domain.ForcedChoiceAnswer
		if err := rows.Scan(&a.BlockID, &a.OptionID); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *PgForcedChoiceRepository) UpsertScores(ctx context.Context, sessionID, version string, scores map[domain.Function]float64, answered int) error {
	const query = `
		INSERT INTO fc_scores (session_id, version, fc_kind, scores_json, blocks_answered, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, version, fc_kind)
		DO UPDATE SET
			scores_json = EXCLUDED.scores_json,
			blocks_answered = EXCLUDED.blocks_answered,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		sessionID,
		version,
		FCKindFunctions,
		scores,
		answered,
		time.Now().UTC(),
	)
	return err
}

// decodeWeights ignora claves que no sean funciones canonicas.
func decodeWeights(raw []byte) (map[domain.Function]float64, error) {
	if len(raw) == 0 {
		return map[domain.Function]float64{}, nil
	}
	var generic map[string]float64
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	out := make(map[domain.Function]float64, len(generic))
	for k, v := range generic {
		f := domain.Function(k)
		if f.Valid() {
			out[f] = v
		}
	}
	return out, nil
}
