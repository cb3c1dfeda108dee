package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"prism-scoring/internal/domain"
	"prism-scoring/internal/repository"
)

// SessionScorer es la parte de ScoringService que usa el recalculo por lotes.
type SessionScorer interface {
	ScoreSession(ctx context.Context, req ScoreRequest) (domain.Profile, error)
}

// RecomputeRequest recalcula las sesiones indicadas o, si no hay ninguna,
// hasta Limit sesiones completadas.
type RecomputeRequest struct {
	SessionIDs []string `json:"session_ids"`
	Limit      int      `json:"limit"`
}

// RecomputeReport es un resultado parcial valido: las fallas no abortan el lote.
type RecomputeReport struct {
	Scanned        int      `json:"scanned"`
	OK             int      `json:"ok"`
	Fail           int      `json:"fail"`
	Skipped        int      `json:"skipped"`
	FailedSessions []string `json:"failed_sessions"`
}

type RecomputeService struct {
	logger   *zap.Logger
	scorer   SessionScorer
	sessions repository.SessionRepository
	locker   SessionLocker
	policy   *CallPolicy
	metrics  *Metrics
	workers  int
}

func NewRecomputeService(
	logger *zap.Logger,
	scorer SessionScorer,
	sessions repository.SessionRepository,
	locker SessionLocker,
	policy *CallPolicy,
	metrics *Metrics,
	workers int,
) *RecomputeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 4
	}
	return &RecomputeService{
		logger:   logger,
		scorer:   scorer,
		sessions: sessions,
		locker:   locker,
		policy:   policy,
		metrics:  metrics,
		workers:  workers,
	}
}

// Recompute procesa las sesiones con un pool acotado. Solo falla si no se
// puede armar la lista de sesiones o si ctx se cancela.
func (s *RecomputeService) Recompute(ctx context.Context, req RecomputeRequest) (RecomputeReport, error) {
	ids, err := s.resolveSessions(ctx, req)
	if err != nil {
		return RecomputeReport{}, err
	}

	report := RecomputeReport{Scanned: len(ids), FailedSessions: []string{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, id := range ids {
		g.Go(func() error {
			outcome := s.recomputeOne(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case "ok":
				report.OK++
			case "skipped":
				report.Skipped++
			default:
				report.Fail++
				report.FailedSessions = append(report.FailedSessions, id)
			}
			s.metrics.IncRecompute(outcome)
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(report.FailedSessions)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	s.logger.Info("recompute finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("ok", report.OK),
		zap.Int("fail", report.Fail),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

func (s *RecomputeService) recomputeOne(ctx context.Context, sessionID string) string {
	if ctx.Err() != nil {
		return "fail"
	}
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, sessionID)
		switch {
		case errors.Is(err, ErrSessionLocked):
			s.logger.Info("session already being recomputed", zap.String("session_id", sessionID))
			return "skipped"
		case err != nil:
			s.logger.Warn("session lock unavailable, proceeding", zap.String("session_id", sessionID), zap.Error(err))
		default:
			defer release()
		}
	}

	if _, err := s.scorer.ScoreSession(ctx, ScoreRequest{SessionID: sessionID, ReuseInputs: true}); err != nil {
		s.logger.Warn("recompute failed", zap.String("session_id", sessionID), zap.Error(err))
		return "fail"
	}
	return "ok"
}

func (s *RecomputeService) resolveSessions(ctx context.Context, req RecomputeRequest) ([]string, error) {
	if len(req.SessionIDs) > 0 {
		seen := make(map[string]bool, len(req.SessionIDs))
		ids := make([]string, 0, len(req.SessionIDs))
		for _, id := range req.SessionIDs {
			id = strings.TrimSpace(id)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
		if req.Limit > 0 && len(ids) > req.Limit {
			ids = ids[:req.Limit]
		}
		return ids, nil
	}
	if s.sessions == nil {
		return nil, errors.New("recompute service not configured")
	}
	var ids []string
	err := s.policy.Do(ctx, "list_sessions", func(ctx context.Context) error {
		var err error
		ids, err = s.sessions.ListForRecompute(ctx, req.Limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions for recompute: %w", err)
	}
	return ids, nil
}
