package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// pgSchema son las tablas propias del motor. assessment_sessions,
// assessment_questions y assessment_responses pertenecen al colector y se
// asumen existentes.
const pgSchema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS profiles (
	id UUID PRIMARY KEY,
	session_id TEXT NOT NULL UNIQUE,
	type_code TEXT NOT NULL,
	base_func TEXT NOT NULL,
	creative_func TEXT NOT NULL,
	top_types JSONB NOT NULL,
	top_gap DOUBLE PRECISION NOT NULL,
	close_call BOOLEAN NOT NULL,
	score_fit_raw DOUBLE PRECISION NOT NULL,
	score_fit_calibrated DOUBLE PRECISION NOT NULL,
	fit_band TEXT NOT NULL,
	fit_parts JSONB NOT NULL,
	strengths JSONB NOT NULL,
	strength_vec vector(8) NOT NULL,
	dimensions JSONB NOT NULL,
	blocks_norm JSONB NOT NULL,
	overlay JSONB NOT NULL,
	state_index DOUBLE PRECISION NOT NULL DEFAULT 0,
	seat_coherence DOUBLE PRECISION NOT NULL,
	coherent_dims INTEGER NOT NULL,
	unique_dims INTEGER NOT NULL,
	dims_highlights JSONB NOT NULL,
	validity JSONB NOT NULL,
	confidence TEXT NOT NULL,
	conf_raw DOUBLE PRECISION NOT NULL,
	conf_calibrated DOUBLE PRECISION NOT NULL,
	fc_answered_ct INTEGER NOT NULL DEFAULT 0,
	version TEXT NOT NULL,
	submitted_at TIMESTAMPTZ NOT NULL,
	recomputed_at TIMESTAMPTZ,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS fc_scores (
	session_id TEXT NOT NULL,
	version TEXT NOT NULL,
	fc_kind TEXT NOT NULL,
	scores_json JSONB NOT NULL,
	blocks_answered INTEGER NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (session_id, version, fc_kind)
);

CREATE TABLE IF NOT EXISTS scoring_models (
	version TEXT PRIMARY KEY,
	document BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

ALTER TABLE assessment_sessions ADD COLUMN IF NOT EXISTS share_token_hash TEXT;
ALTER TABLE assessment_sessions ADD COLUMN IF NOT EXISTS share_token_expires_at TIMESTAMPTZ;
`

// EnsureSchema crea las tablas del motor si no existen.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, pgSchema)
	return err
}
