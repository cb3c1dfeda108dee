package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"prism-scoring/internal/domain"
	"prism-scoring/internal/repository"
)

var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrForbidden       = errors.New("forbidden")
	ErrRateLimited     = errors.New("rate limited")
	ErrProfileNotFound = errors.New("profile not found")
)

// FetchRequest es un pedido de lectura de resultados. CallerUserID viene de un
// JWT ya validado; vacio si el llamador no se autentico.
type FetchRequest struct {
	SessionID    string
	ShareToken   string
	CallerUserID string
	ClientKey    string
}

// ResultsService aplica el contrato de acceso: token compartible vigente o
// duenio autenticado. Cualquier otro pedido falla con un error explicito.
type ResultsService struct {
	logger   *zap.Logger
	sessions repository.SessionRepository
	profiles repository.ProfileRepository
	limiter  FetchRateLimiter
	metrics  *Metrics
	now      func() time.Time
}

func NewResultsService(
	logger *zap.Logger,
	sessions repository.SessionRepository,
	profiles repository.ProfileRepository,
	limiter FetchRateLimiter,
	metrics *Metrics,
) *ResultsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = NewMemoryFetchRateLimiter(time.Minute, 30)
	}
	return &ResultsService{
		logger:   logger,
		sessions: sessions,
		profiles: profiles,
		limiter:  limiter,
		metrics:  metrics,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Fetch devuelve el perfil persistido si el pedido pasa el control de acceso.
func (s *ResultsService) Fetch(ctx context.Context, req FetchRequest) (domain.Profile, error) {
	if err := s.authorize(ctx, req); err != nil {
		s.metrics.IncResultsFetch(outcomeOf(err))
		return domain.Profile{}, err
	}
	profile, err := s.profiles.GetBySession(ctx, strings.TrimSpace(req.SessionID))
	if errors.Is(err, repository.ErrNotFound) {
		s.metrics.IncResultsFetch("not_found")
		return domain.Profile{}, ErrProfileNotFound
	}
	if err != nil {
		s.metrics.IncResultsFetch("error")
		return domain.Profile{}, err
	}
	s.metrics.IncResultsFetch("ok")
	return profile, nil
}

// Similar aplica el mismo control que Fetch y devuelve los k perfiles mas cercanos.
func (s *ResultsService) Similar(ctx context.Context, req FetchRequest, k int) ([]domain.SimilarProfile, error) {
	if err := s.authorize(ctx, req); err != nil {
		return nil, err
	}
	out, err := s.profiles.Similar(ctx, strings.TrimSpace(req.SessionID), k)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	return out, err
}

func (s *ResultsService) authorize(ctx context.Context, req FetchRequest) error {
	if s.sessions == nil || s.profiles == nil {
		return errors.New("results service not configured")
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return ErrInvalidSession
	}
	if !s.limiter.Allow(sessionID + ":" + req.ClientKey) {
		return ErrRateLimited
	}
	token := strings.TrimSpace(req.ShareToken)
	if token == "" && req.CallerUserID == "" {
		return ErrForbidden
	}

	// Una sesion inexistente responde igual que una ajena.
	session, err := s.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		if token != "" {
			return ErrInvalidToken
		}
		return ErrForbidden
	}
	if err != nil {
		return err
	}

	if req.CallerUserID != "" && session.UserID != "" && req.CallerUserID == session.UserID {
		return nil
	}
	if token == "" {
		return ErrForbidden
	}
	if !s.shareTokenValid(session, token) {
		s.logger.Info("share token rejected", zap.String("session_id", sessionID))
		return ErrInvalidToken
	}
	return nil
}

// shareTokenValid revisa el vencimiento antes que el hash: un token vencido
// falla aunque coincida exactamente con uno que fue valido.
func (s *ResultsService) shareTokenValid(session domain.Session, token string) bool {
	if session.ShareTokenHash == "" || session.ShareTokenExpiresAt == nil {
		return false
	}
	if !s.now().Before(*session.ShareTokenExpiresAt) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(session.ShareTokenHash), []byte(token)) == nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrSessionNotFound):
		return "not_found"
	default:
		return "error"
	}
}
