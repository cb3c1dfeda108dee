package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"prism-scoring/internal/repository"
)

const defaultShareTokenTTL = 7 * 24 * time.Hour

// ShareToken es el token en claro; solo se devuelve una vez, al emitirlo.
type ShareToken struct {
	Token     string    `json:"share_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ShareTokenService emite tokens compartibles por sesion. Se guarda solo el
// hash bcrypt; emitir un token nuevo invalida el anterior.
type ShareTokenService struct {
	logger   *zap.Logger
	sessions repository.SessionRepository
	ttl      time.Duration
	now      func() time.Time
}

func NewShareTokenService(logger *zap.Logger, sessions repository.SessionRepository, ttl time.Duration) *ShareTokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultShareTokenTTL
	}
	return &ShareTokenService{
		logger:   logger,
		sessions: sessions,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Issue solo lo puede pedir el duenio de la sesion.
func (s *ShareTokenService) Issue(ctx context.Context, sessionID, callerUserID string) (ShareToken, error) {
	if s.sessions == nil {
		return ShareToken{}, errors.New("share token service not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ShareToken{}, ErrInvalidSession
	}
	session, err := s.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return ShareToken{}, ErrSessionNotFound
	}
	if err != nil {
		return ShareToken{}, err
	}
	if callerUserID == "" || session.UserID != callerUserID {
		return ShareToken{}, ErrForbidden
	}

	token := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return ShareToken{}, err
	}
	expiresAt := s.now().Add(s.ttl)
	if err := s.sessions.SetShareToken(ctx, sessionID, string(hash), expiresAt); err != nil {
		return ShareToken{}, err
	}
	s.logger.Info("share token issued", zap.String("session_id", sessionID), zap.Time("expires_at", expiresAt))
	return ShareToken{Token: token, ExpiresAt: expiresAt}, nil
}
