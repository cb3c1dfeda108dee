package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"prism-scoring/internal/config"
	"prism-scoring/internal/db"
	"prism-scoring/internal/repository"
	"prism-scoring/internal/service"
)

func newRecomputeCmd(logger func() *zap.Logger) *cobra.Command {
	var (
		databaseURL string
		modelPath   string
		sessionIDs  []string
		limit       int
		workers     int
		callTimeout time.Duration
		maxRetries  int
	)
	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Rescore completed sessions in the database with the active model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if databaseURL == "" {
				databaseURL = os.Getenv("DATABASE_URL")
			}
			if databaseURL == "" {
				return fmt.Errorf("database url is required (--database-url or DATABASE_URL)")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			log := logger()
			defer log.Sync()

			pool, err := db.NewPool(ctx, &config.Config{DatabaseURL: databaseURL, RecomputeWorkers: workers})
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			defer pool.Close()

			svc, err := buildRecompute(pool, log, modelPath, workers, callTimeout, maxRetries)
			if err != nil {
				return err
			}
			report, err := svc.Recompute(ctx, service.RecomputeRequest{SessionIDs: sessionIDs, Limit: limit})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "postgres connection string")
	cmd.Flags().StringVar(&modelPath, "model", "", "scoring model YAML (default: built-in)")
	cmd.Flags().StringSliceVar(&sessionIDs, "session", nil, "session ids to rescore (default: completed sessions)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum sessions to process (0 = no limit)")
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent sessions")
	cmd.Flags().DurationVar(&callTimeout, "call-timeout", 5*time.Second, "timeout per storage call")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 3, "retries per storage call")
	return cmd
}

func buildRecompute(pool *pgxpool.Pool, log *zap.Logger, modelPath string, workers int, callTimeout time.Duration, maxRetries int) (*service.RecomputeService, error) {
	model, err := loadModel(modelPath)
	if err != nil {
		return nil, err
	}
	registry, err := service.NewModelRegistry(model, repository.NewPgModelRepository(pool), 0)
	if err != nil {
		return nil, err
	}
	metrics := service.MustNewMetrics(prometheus.NewRegistry())
	policy := service.NewCallPolicy(callTimeout, maxRetries, metrics, log)
	sessions := repository.NewPgSessionRepository(pool)
	scorer := service.NewScoringService(log, sessions,
		repository.NewPgResponseRepository(pool),
		repository.NewPgForcedChoiceRepository(pool),
		repository.NewPgProfileRepository(pool),
		registry, policy, metrics,
	)
	return service.NewRecomputeService(log, scorer, sessions,
		service.NewMemorySessionLocker(2*time.Minute),
		policy, metrics, workers,
	), nil
}
