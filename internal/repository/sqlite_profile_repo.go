package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"prism-scoring/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS profiles (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL UNIQUE,
	type_code TEXT NOT NULL,
	version TEXT NOT NULL,
	payload TEXT NOT NULL,
	submitted_at TEXT NOT NULL,
	recomputed_at TEXT,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_profiles_type_code ON profiles(type_code);
`

// SQLiteProfileRepository cumple el mismo contrato que la version Postgres
// para uso offline desde la CLI. El perfil se guarda como JSON; las columnas
// de sello de tiempo viven fuera del payload para que el upsert las controle.
type SQLiteProfileRepository struct {
	db *sql.DB
}

// OpenSQLiteProfileRepository abre (o crea) la base en path y asegura el esquema.
func OpenSQLiteProfileRepository(ctx context.Context, path string) (*SQLiteProfileRepository, error) {
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &SQLiteProfileRepository{db: db}, nil
}

func (r *SQLiteProfileRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteProfileRepository) Upsert(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return domain.Profile{}, err
	}
	const query = `
		INSERT INTO profiles (id, session_id, type_code, version, payload, submitted_at, recomputed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, NULL, ?)
		ON CONFLICT (session_id)
		DO UPDATE SET
			type_code = excluded.type_code,
			version = excluded.version,
			payload = excluded.payload,
			recomputed_at = excluded.updated_at,
			updated_at = excluded.updated_at
		RETURNING id, payload, submitted_at, recomputed_at, updated_at
	`
	row := r.db.QueryRowContext(ctx, query,
		p.ID,
		p.SessionID,
		string(p.TypeCode),
		p.Version,
		string(payload),
		p.UpdatedAt.UTC().Format(time.RFC3339Nano),
		p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	return scanSQLiteProfile(row)
}

func (r *SQLiteProfileRepository) GetBySession(ctx context.Context, sessionID string) (domain.Profile, error) {
	const query = `
		SELECT id, payload, submitted_at, recomputed_at, updated_at
		FROM profiles
		WHERE session_id = ?
	`
	return scanSQLiteProfile(r.db.QueryRowContext(ctx, query, sessionID))
}

// Similar calcula la distancia L2 en memoria; la base offline es chica.
func (r *SQLiteProfileRepository) Similar(ctx context.Context, sessionID string, k int) ([]domain.SimilarProfile, error) {
	if k <= 0 {
		k = 5
	}
	ref, err := r.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	refVec := domain.StrengthVectorFromMap(ref.Strengths)

	rows, err := r.db.QueryContext(ctx, `SELECT id, payload, submitted_at, recomputed_at, updated_at FROM profiles WHERE session_id <> ?`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SimilarProfile
	for rows.Next() {
		p, err := scanSQLiteProfile(rows)
		if err != nil {
			return nil, err
		}
		vec := domain.StrengthVectorFromMap(p.Strengths)
		sum := 0.0
		for i := range vec {
			d := vec[i] - refVec[i]
			sum += d * d
		}
		out = append(out, domain.SimilarProfile{
			SessionID: p.SessionID,
			TypeCode:  p.TypeCode,
			Version:   p.Version,
			Distance:  math.Sqrt(sum),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func scanSQLiteProfile(row rowScanner) (domain.Profile, error) {
	var (
		id, payload        string
		submitted, updated string
		recomputed         sql.NullString
	)
	if err := row.Scan(&id, &payload, &submitted, &recomputed, &updated); err != nil {
		return domain.Profile{}, mapNoRows(err)
	}
	var p domain.Profile
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return domain.Profile{}, fmt.Errorf("decode profile payload: %w", err)
	}
	p.ID = id
	var err error
	if p.SubmittedAt, err = time.Parse(time.RFC3339Nano, submitted); err != nil {
		return domain.Profile{}, fmt.Errorf("decode submitted_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return domain.Profile{}, fmt.Errorf("decode updated_at: %w", err)
	}
	p.RecomputedAt = nil
	if recomputed.Valid {
		t, err := time.Parse(time.RFC3339Nano, recomputed.String)
		if err != nil {
			return domain.Profile{}, fmt.Errorf("decode recomputed_at: %w", err)
		}
		p.RecomputedAt = &t
	}
	return p, nil
}
