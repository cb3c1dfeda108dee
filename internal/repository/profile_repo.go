package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"prism-scoring/internal/domain"
)

// ProfileRepository persiste el perfil calculado, una fila por sesion.
type ProfileRepository interface {
	// Upsert inserta o reemplaza el perfil en una sola sentencia. submitted_at
	// se conserva del primer alta; recomputed_at se sella en cada reemplazo.
	Upsert(ctx context.Context, profile domain.Profile) (domain.Profile, error)
	GetBySession(ctx context.Context, sessionID string) (domain.Profile, error)
	Similar(ctx context.Context, sessionID string, k int) ([]domain.SimilarProfile, error)
}

type PgProfileRepository struct {
	pool *pgxpool.Pool
}

func NewPgProfileRepository(pool *pgxpool.Pool) *PgProfileRepository {
	return &PgProfileRepository{pool: pool}
}

const profileColumns = `
	id, session_id, type_code, base_func, creative_func, top_types, top_gap, close_call,
	score_fit_raw, score_fit_calibrated, fit_band, fit_parts, strengths, dimensions,
	blocks_norm, overlay, state_index, seat_coherence, coherent_dims, unique_dims,
	dims_highlights, validity, confidence, conf_raw, conf_calibrated, fc_answered_ct,
	version, submitted_at, recomputed_at, updated_at`

func (r *PgProfileRepository) Upsert(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	const query = `
		INSERT INTO profiles (
			id, session_id, type_code, base_func, creative_func, top_types, top_gap, close_call,
			score_fit_raw, score_fit_calibrated, fit_band, fit_parts, strengths, strength_vec, dimensions,
			blocks_norm, overlay, state_index, seat_coherence, coherent_dims, unique_dims,
			dims_highlights, validity, confidence, conf_raw, conf_calibrated, fc_answered_ct,
			version, submitted_at, recomputed_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21,
			$22, $23, $24, $25, $26, $27,
			$28, $29, NULL, $29
		)
		ON CONFLICT (session_id)
		DO UPDATE SET
			type_code = EXCLUDED.type_code,
			base_func = EXCLUDED.base_func,
			creative_func = EXCLUDED.creative_func,
			top_types = EXCLUDED.top_types,
			top_gap = EXCLUDED.top_gap,
			close_call = EXCLUDED.close_call,
			score_fit_raw = EXCLUDED.score_fit_raw,
			score_fit_calibrated = EXCLUDED.score_fit_calibrated,
			fit_band = EXCLUDED.fit_band,
			fit_parts = EXCLUDED.fit_parts,
			strengths = EXCLUDED.strengths,
			strength_vec = EXCLUDED.strength_vec,
			dimensions = EXCLUDED.dimensions,
			blocks_norm = EXCLUDED.blocks_norm,
			overlay = EXCLUDED.overlay,
			state_index = EXCLUDED.state_index,
			seat_coherence = EXCLUDED.seat_coherence,
			coherent_dims = EXCLUDED.coherent_dims,
			unique_dims = EXCLUDED.unique_dims,
			dims_highlights = EXCLUDED.dims_highlights,
			validity = EXCLUDED.validity,
			confidence = EXCLUDED.confidence,
			conf_raw = EXCLUDED.conf_raw,
			conf_calibrated = EXCLUDED.conf_calibrated,
			fc_answered_ct = EXCLUDED.fc_answered_ct,
			version = EXCLUDED.version,
			recomputed_at = EXCLUDED.updated_at,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + profileColumns

	row := r.pool.QueryRow(ctx, query,
		p.ID,
		p.SessionID,
		p.TypeCode,
		p.BaseFunc,
		p.CreativeFunc,
		p.TopTypes,
		p.TopGap,
		p.CloseCall,
		p.FitRaw,
		p.FitCalibrated,
		p.FitBand,
		p.FitParts,
		p.Strengths,
		strengthVector(p.Strengths),
		p.Dimensions,
		p.Blocks,
		p.Overlay,
		p.StateIndex,
		p.SeatCoherence,
		p.CoherentDims,
		p.UniqueDims,
		p.DimsHighlights,
		p.Validity,
		p.Confidence,
		p.ConfRaw,
		p.ConfCalibrated,
		p.FCAnsweredCount,
		p.Version,
		p.UpdatedAt,
	)
	return scanProfile(row)
}

func (r *PgProfileRepository) GetBySession(ctx context.Context, sessionID string) (domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE session_id = $1`
	return scanProfile(r.pool.QueryRow(ctx, query, sessionID))
}

// Similar devuelve los k perfiles mas cercanos por distancia L2 sobre el vector de fuerzas.
func (r *PgProfileRepository) Similar(ctx context.Context, sessionID string, k int) ([]domain.SimilarProfile, error) {
	if k <= 0 {
		k = 5
	}
	const query = `
		SELECT p.session_id, p.type_code, p.version, p.strength_vec <-> ref.strength_vec AS distance
		FROM profiles p, (SELECT strength_vec FROM profiles WHERE session_id = $1) ref
		WHERE p.session_id <> $1
		ORDER BY p.strength_vec <-> ref.strength_vec
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, sessionID, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SimilarProfile
	for rows.Next() {
		var s domain.SimilarProfile
		if err := rows.Scan(&s.SessionID, &s.TypeCode, &s.Version, &s.Distance); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(
		&p.ID,
		&p.SessionID,
		&p.TypeCode,
		&p.BaseFunc,
		&p.CreativeFunc,
		&p.TopTypes,
		&p.TopGap,
		&p.CloseCall,
		&p.FitRaw,
		&p.FitCalibrated,
		&p.FitBand,
		&p.FitParts,
		&p.Strengths,
		&p.Dimensions,
		&p.Blocks,
		&p.Overlay,
		&p.StateIndex,
		&p.SeatCoherence,
		&p.CoherentDims,
		&p.UniqueDims,
		&p.DimsHighlights,
		&p.Validity,
		&p.Confidence,
		&p.ConfRaw,
		&p.ConfCalibrated,
		&p.FCAnsweredCount,
		&p.Version,
		&p.SubmittedAt,
		&p.RecomputedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return domain.Profile{}, mapNoRows(err)
	}
	return p, nil
}

func strengthVector(m map[domain.Function]float64) pgvector.Vector {
	v := domain.StrengthVectorFromMap(m)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return pgvector.NewVector(out)
}
