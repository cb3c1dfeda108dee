package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"prism-scoring/internal/domain"
)

type SessionRepository interface {
	GetByID(ctx context.Context, id string) (domain.Session, error)
	SetShareToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	ListForRecompute(ctx context.Context, limit int) ([]string, error)
}

type PgSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgSessionRepository(pool *pgxpool.Pool) *PgSessionRepository {
	return &PgSessionRepository{pool: pool}
}

func (r *PgSessionRepository) GetByID(ctx context.Context, id string) (domain.Session, error) {
	const query = `
		SELECT id, user_id, status, share_token_hash, share_token_expires_at, created_at
		FROM assessment_sessions
		WHERE id = $1
	`
	var session domain.Session
	var userID, tokenHash sql.NullString
	var expiresAt sql.NullTime
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&userID,
		&session.Status,
		&tokenHash,
		&expiresAt,
		&session.CreatedAt,
	)
	if err != nil {
		return domain.Session{}, mapNoRows(err)
	}
	session.UserID = userID.String
	session.ShareTokenHash = tokenHash.String
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		session.ShareTokenExpiresAt = &t
	}
	return session, nil
}

// SetShareToken reemplaza el hash del token y su vencimiento; el token anterior deja de valer.
func (r *PgSessionRepository) SetShareToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	const query = `
		UPDATE assessment_sessions
		SET share_token_hash = $2, share_token_expires_at = $3
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, tokenHash, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForRecompute devuelve sesiones completadas, las mas viejas primero.
func (r *PgSessionRepository) ListForRecompute(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT id
		FROM assessment_sessions
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, domain.SessionStatusCompleted, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
