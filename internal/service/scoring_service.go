package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"prism-scoring/internal/domain"
	"prism-scoring/internal/repository"
	"prism-scoring/internal/scoring"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidSession  = errors.New("invalid session id")
)

// FCVersion es la version del banco de bloques de eleccion forzada que se puntua.
const FCVersion = "v1.2"

// Caller identifica a quien pide el calculo desde la API.
type Caller struct {
	UserID string
	Admin  bool
}

// ScoreRequest pide el calculo (o recalculo) de una sesion. Caller nil es un
// llamado interno y no pasa por el control de duenio. Con ReuseInputs, el
// contexto y el state index salen del perfil guardado si existe.
type ScoreRequest struct {
	SessionID   string
	Context     domain.Context
	StateIndex  float64
	Caller      *Caller
	ReuseInputs bool
}

// ScoringService coordina carga de respuestas, scoring FC, motor y persistencia.
type ScoringService struct {
	logger    *zap.Logger
	sessions  repository.SessionRepository
	responses repository.ResponseRepository
	fc        repository.ForcedChoiceRepository
	profiles  repository.ProfileRepository
	models    *ModelRegistry
	policy    *CallPolicy
	metrics   *Metrics
	now       func() time.Time
}

func NewScoringService(
	logger *zap.Logger,
	sessions repository.SessionRepository,
	responses repository.ResponseRepository,
	fc repository.ForcedChoiceRepository,
	profiles repository.ProfileRepository,
	models *ModelRegistry,
	policy *CallPolicy,
	metrics *Metrics,
) *ScoringService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoringService{
		logger:    logger,
		sessions:  sessions,
		responses: responses,
		fc:        fc,
		profiles:  profiles,
		models:    models,
		policy:    policy,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ScoreSession calcula y persiste el perfil. Sin respuestas devuelve
// scoring.ErrNoResponses y no escribe nada; un fallo de un colaborador
// aborta solo esta sesion. Un Caller que no es duenio ni admin recibe ErrForbidden.
func (s *ScoringService) ScoreSession(ctx context.Context, req ScoreRequest) (domain.Profile, error) {
	start := time.Now()
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return domain.Profile{}, ErrInvalidSession
	}
	if s.responses == nil || s.profiles == nil || s.models == nil {
		return domain.Profile{}, errors.New("scoring service not configured")
	}
	if err := s.authorize(ctx, sessionID, req.Caller); err != nil {
		return domain.Profile{}, err
	}

	engine, err := s.models.Active(ctx)
	if err != nil {
		return domain.Profile{}, err
	}
	version := engine.Model().Version

	profile, err := s.score(ctx, engine, sessionID, req)
	if err != nil {
		s.metrics.ObserveScore("error", version, time.Since(start))
		return domain.Profile{}, err
	}
	s.metrics.ObserveScore("ok", version, time.Since(start))
	if profile.CloseCall {
		s.metrics.IncCloseCall()
	}
	s.logger.Info("session scored",
		zap.String("session_id", sessionID),
		zap.String("type_code", string(profile.TypeCode)),
		zap.String("version", profile.Version),
		zap.Bool("close_call", profile.CloseCall),
	)
	return profile, nil
}

func (s *ScoringService) score(ctx context.Context, engine *scoring.Engine, sessionID string, req ScoreRequest) (domain.Profile, error) {
	var responses []domain.Response
	err := s.policy.Do(ctx, "list_responses", func(ctx context.Context) error {
		var err error
		responses, err = s.responses.ListBySession(ctx, sessionID)
		return err
	})
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load responses: %w", err)
	}
	if len(responses) == 0 {
		return domain.Profile{}, scoring.ErrNoResponses
	}

	if req.ReuseInputs {
		if req, err = s.storedInputs(ctx, sessionID, req); err != nil {
			return domain.Profile{}, err
		}
	}

	fc, err := s.scoreForcedChoice(ctx, sessionID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("forced choice: %w", err)
	}

	result, err := engine.Score(scoring.Input{
		Responses:    responses,
		ForcedChoice: fc.Scores,
		FCAnswered:   fc.BlocksAnswered,
		Context:      req.Context,
		StateIndex:   req.StateIndex,
	})
	if err != nil {
		return domain.Profile{}, err
	}

	profile := engine.BuildProfile(sessionID, result)
	profile.UpdatedAt = s.now()

	var stored domain.Profile
	err = s.policy.Do(ctx, "upsert_profile", func(ctx context.Context) error {
		var err error
		stored, err = s.profiles.Upsert(ctx, profile)
		return err
	})
	if err != nil {
		return domain.Profile{}, fmt.Errorf("persist profile: %w", err)
	}
	return stored, nil
}

func (s *ScoringService) authorize(ctx context.Context, sessionID string, caller *Caller) error {
	if caller == nil || caller.Admin {
		return nil
	}
	if caller.UserID == "" {
		return ErrForbidden
	}
	if s.sessions == nil {
		return errors.New("scoring service not configured")
	}
	var session domain.Session
	err := s.policy.Do(ctx, "get_session", func(ctx context.Context) error {
		var err error
		session, err = s.sessions.GetByID(ctx, sessionID)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrForbidden
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if session.UserID == "" || session.UserID != caller.UserID {
		s.logger.Info("score rejected for non-owner", zap.String("session_id", sessionID))
		return ErrForbidden
	}
	return nil
}

// storedInputs recupera contexto y state index del perfil previo; sin perfil
// previo se usan los del pedido.
func (s *ScoringService) storedInputs(ctx context.Context, sessionID string, req ScoreRequest) (ScoreRequest, error) {
	var prev domain.Profile
	err := s.policy.Do(ctx, "get_profile", func(ctx context.Context) error {
		var err error
		prev, err = s.profiles.GetBySession(ctx, sessionID)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		return req, nil
	}
	if err != nil {
		return req, fmt.Errorf("load stored profile: %w", err)
	}
	req.Context = prev.Blocks.Context
	req.StateIndex = prev.StateIndex
	return req, nil
}

// scoreForcedChoice puntua las respuestas FC de la sesion y guarda el
// resultado. Sin repositorio FC o sin respuestas, el perfil sigue solo con ratings.
func (s *ScoringService) scoreForcedChoice(ctx context.Context, sessionID string) (scoring.ForcedChoiceScores, error) {
	if s.fc == nil {
		return scoring.ForcedChoiceScores{}, nil
	}
	var answers []domain.ForcedChoiceAnswer
	err := s.policy.Do(ctx, "list_fc_answers", func(ctx context.Context) error {
		var err error
		answers, err = s.fc.ListAnswers(ctx, sessionID)
		return err
	})
	if err != nil {
		return scoring.ForcedChoiceScores{}, err
	}
	if len(answers) == 0 {
		return scoring.ForcedChoiceScores{}, nil
	}

	var options []domain.ForcedChoiceOption
	err = s.policy.Do(ctx, "list_fc_options", func(ctx context.Context) error {
		var err error
		options, err = s.fc.ListOptions(ctx, FCVersion)
		return err
	})
	if err != nil {
		return scoring.ForcedChoiceScores{}, err
	}

	scores := scoring.ScoreForcedChoice(options, answers)
	if scores.Scores == nil {
		s.logger.Warn("forced choice answers matched no option", zap.String("session_id", sessionID), zap.Int("answers", len(answers)))
		return scores, nil
	}
	err = s.policy.Do(ctx, "upsert_fc_scores", func(ctx context.Context) error {
		return s.fc.UpsertScores(ctx, sessionID, FCVersion, scores.Scores, scores.BlocksAnswered)
	})
	if err != nil {
		return scoring.ForcedChoiceScores{}, err
	}
	return scores, nil
}
