package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"prism-scoring/internal/config"
)

// apiConns son las conexiones reservadas para los handlers HTTP, aparte de
// las que usa el recalculo por lotes.
const apiConns = 4

// NewPool arma el pool de Postgres. Cada conexion nueva registra el tipo
// vector para strength_vec; si la extension todavia no existe (antes de
// EnsureSchema) la conexion sigue con el formato de texto.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	poolCfg.MaxConns = maxConnsFor(cfg.RecomputeWorkers)
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.ConnConfig.ConnectTimeout = 5 * time.Second
	poolCfg.AfterConnect = registerVector

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

func registerVector(ctx context.Context, conn *pgx.Conn) error {
	if err := pgxvec.RegisterTypes(ctx, conn); err != nil && !isUndefinedObject(err) {
		return err
	}
	return nil
}

// maxConnsFor da una conexion por worker de recalculo mas las de la API.
func maxConnsFor(workers int) int32 {
	if workers < 1 {
		workers = 1
	}
	return int32(workers + apiConns)
}

// isUndefinedObject reconoce el 42704 que devuelve Postgres cuando el tipo vector no existe.
func isUndefinedObject(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42704"
}

// Ping verifica conectividad con la base de datos.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	return pool.Ping(ctx)
}
