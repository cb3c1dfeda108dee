package service

import (
	"context"
	"errors"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"prism-scoring/internal/repository"
	"prism-scoring/internal/scoring"
)

// CallPolicy envuelve cada llamada a un colaborador (storage, scorer FC) con
// un timeout por intento y reintentos con backoff exponencial.
type CallPolicy struct {
	Timeout      time.Duration
	MaxRetries   uint64
	buildBackoff func() backoff.BackOff
	metrics      *Metrics
	logger       *zap.Logger
}

// NewCallPolicy aplica defaults de 5s por intento y 3 reintentos.
func NewCallPolicy(timeout time.Duration, maxRetries int, metrics *Metrics, logger *zap.Logger) *CallPolicy {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CallPolicy{
		Timeout:    timeout,
		MaxRetries: uint64(maxRetries),
		buildBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Do ejecuta fn hasta MaxRetries+1 veces. Errores de entrada y "no encontrado"
// son permanentes y se devuelven sin reintentar.
func (p *CallPolicy) Do(ctx context.Context, call string, fn func(ctx context.Context) error) error {
	if p == nil {
		return fn(ctx)
	}
	attempt := 0
	op := func() error {
		if attempt > 0 {
			p.metrics.IncRetry(call)
		}
		attempt++

		callCtx, cancel := context.WithTimeout(ctx, p.Timeout)
		defer cancel()
		err := fn(callCtx)
		if err == nil {
			return nil
		}
		if isPermanent(err) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		p.logger.Warn("collaborator call failed", zap.String("call", call), zap.Int("attempt", attempt), zap.Error(err))
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(p.buildBackoff(), p.MaxRetries), ctx)
	return backoff.Retry(op, b)
}

func isPermanent(err error) bool {
	return errors.Is(err, scoring.ErrNoResponses) ||
		errors.Is(err, repository.ErrNotFound) ||
		errors.Is(err, context.Canceled)
}
