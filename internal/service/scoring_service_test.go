package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"prism-scoring/internal/domain"
	"prism-scoring/internal/repository"
	"prism-scoring/internal/scoring"
)

type mockResponseRepo struct {
	mu        sync.Mutex
	bySession map[string][]domain.Response
	err       error
	calls     int
}

func (m *mockResponseRepo) ListBySession(_ context.Context, sessionID string) ([]domain.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.bySession[sessionID], nil
}

type mockFCRepo struct {
	options  []domain.ForcedChoiceOption
	answers  map[string][]domain.ForcedChoiceAnswer
	upserted map[string]map[domain.Function]float64
	answered int
}

func (m *mockFCRepo) ListOptions(_ context.Context, _ string) ([]domain.ForcedChoiceOption, error) {
	return m.options, nil
}

func (m *mockFCRepo) ListAnswers(_ context.Context, sessionID string) ([]domain.ForcedChoiceAnswer, error) {
	return m.answers[sessionID], nil
}

func (m *mockFCRepo) UpsertScores(_ context.Context, sessionID, _ string, scores map[domain.Function]float64, answered int) error {
	if m.upserted == nil {
		m.upserted = make(map[string]map[domain.Function]float64)
	}
	m.upserted[sessionID] = scores
	m.answered = answered
	return nil
}

type mockProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]domain.Profile
	similar  []domain.SimilarProfile
	err      error
	upserts  int
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[string]domain.Profile)}
}

func (m *mockProfileRepo) Upsert(_ context.Context, p domain.Profile) (domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	if m.err != nil {
		return domain.Profile{}, m.err
	}
	if prev, ok := m.profiles[p.SessionID]; ok {
		p.ID = prev.ID
		p.SubmittedAt = prev.SubmittedAt
		at := p.UpdatedAt
		p.RecomputedAt = &at
	} else {
		p.ID = "p-" + p.SessionID
		p.SubmittedAt = p.UpdatedAt
	}
	m.profiles[p.SessionID] = p
	return p, nil
}

func (m *mockProfileRepo) GetBySession(_ context.Context, sessionID string) (domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[sessionID]
	if !ok {
		return domain.Profile{}, repository.ErrNotFound
	}
	return p, nil
}

func (m *mockProfileRepo) Similar(_ context.Context, sessionID string, _ int) ([]domain.SimilarProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[sessionID]; !ok {
		return nil, repository.ErrNotFound
	}
	return m.similar, nil
}

type mockSessionRepo struct {
	sessions map[string]domain.Session
	listed   []string
	listErr  error
	getErr   error
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (domain.Session, error) {
	if m.getErr != nil {
		return domain.Session{}, m.getErr
	}
	s, ok := m.sessions[id]
	if !ok {
		return domain.Session{}, repository.ErrNotFound
	}
	return s, nil
}

func (m *mockSessionRepo) SetShareToken(_ context.Context, id, tokenHash string, expiresAt time.Time) error {
	s, ok := m.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.ShareTokenHash = tokenHash
	s.ShareTokenExpiresAt = &expiresAt
	m.sessions[id] = s
	return nil
}

func (m *mockSessionRepo) ListForRecompute(_ context.Context, limit int) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := append([]string(nil), m.listed...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ratingResponses arma un item likert por funcion con el valor indicado.
func ratingResponses(values map[domain.Function]float64) []domain.Response {
	out := make([]domain.Response, 0, len(values))
	for _, f := range domain.Functions {
		v, ok := values[f]
		if !ok {
			continue
		}
		out = append(out, domain.Response{
			QuestionID: string(f) + "-q",
			Tag:        string(f) + "_S",
			Scale:      domain.ScaleLikert5,
			Value:      v,
		})
	}
	return out
}

func sampleResponses() []domain.Response {
	return ratingResponses(map[domain.Function]float64{
		domain.Ti: 5, domain.Ne: 4.5, domain.Si: 3, domain.Fe: 2,
		domain.Te: 2.5, domain.Ni: 2, domain.Fi: 1.5, domain.Se: 1,
	})
}

func newTestScoringService(t *testing.T, sessions repository.SessionRepository, responses *mockResponseRepo, fc repository.ForcedChoiceRepository, profiles *mockProfileRepo) *ScoringService {
	t.Helper()
	registry, err := NewModelRegistry(nil, nil, 2)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	policy := NewCallPolicy(time.Second, 0, nil, nil)
	svc := NewScoringService(nil, sessions, responses, fc, profiles, registry, policy, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestScoringService_NoResponsesWritesNothing(t *testing.T) {
	profiles := newMockProfileRepo()
	svc := newTestScoringService(t, nil, &mockResponseRepo{}, nil, profiles)

	_, err := svc.ScoreSession(context.Background(), ScoreRequest{SessionID: "s1"})
	if !errors.Is(err, scoring.ErrNoResponses) {
		t.Fatalf("expected ErrNoResponses, got %v", err)
	}
	if profiles.upserts != 0 {
		t.Fatalf("expected no upsert, got %d", profiles.upserts)
	}
}

func TestScoringService_RejectsBlankSession(t *testing.T) {
	svc := newTestScoringService(t, nil, &mockResponseRepo{}, nil, newMockProfileRepo())
	if _, err := svc.ScoreSession(context.Background(), ScoreRequest{SessionID: "  "}); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestScoringService_PersistsProfile(t *testing.T) {
	profiles := newMockProfileRepo()
	responses := &mockResponseRepo{bySession: map[string][]domain.Response{"s1": sampleResponses()}}
	svc := newTestScoringService(t, nil, responses, nil, profiles)

	got, err := svc.ScoreSession(context.Background(), ScoreRequest{SessionID: "s1"})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if got.ID == "" || got.SessionID != "s1" {
		t.Fatalf("expected stored profile for s1, got %+v", got)
	}
	if !got.TypeCode.Valid() {
		t.Fatalf("expected a valid type code, got %q", got.TypeCode)
	}
	if got.Version != scoring.DefaultModelVersion {
		t.Fatalf("expected version %s, got %s", scoring.DefaultModelVersion, got.Version)
	}
	if len(got.TopTypes) != 3 {
		t.Fatalf("expected 3 top types, got %d", len(got.TopTypes))
	}
	if got.RecomputedAt != nil {
		t.Fatalf("expected first submission without recomputed_at")
	}

	again, err := svc.ScoreSession(context.Background(), ScoreRequest{SessionID: "s1"})
	if err != nil {
		t.Fatalf("rescore: %v", err)
	}
	if again.TypeCode != got.TypeCode || again.FitRaw != got.FitRaw {
		t.Fatalf("expected identical rescore, got %s/%v vs %s/%v", again.TypeCode, again.FitRaw, got.TypeCode, got.FitRaw)
	}
	if again.RecomputedAt == nil || !again.SubmittedAt.Equal(got.SubmittedAt) {
		t.Fatalf("expected submitted_at kept and recomputed_at set, got %+v", again)
	}
}

func TestScoringService_ForcedChoiceScoredAndStored(t *testing.T) {
	profiles := newMockProfileRepo()
	responses := &mockResponseRepo{bySession: map[string][]domain.Response{"s1": sampleResponses()}}
	fc := &mockFCRepo{
		options: []domain.ForcedChoiceOption{
			{ID: "o1", BlockID: "b1", Weights: map[domain.Function]float64{domain.Ti: 1}},
			{ID: "o2", BlockID: "b1", Weights: map[domain.Function]float64{domain.Fe: 1}},
			{ID: "o3", BlockID: "b2", Weights: map[domain.Function]float64{domain.Ne: 1}},
		},
		answers: map[string][]domain.ForcedChoiceAnswer{
			"s1": {{BlockID: "b1", OptionID: "o1"}, {BlockID: "b2", OptionID: "o3"}},
		},
	}
	svc := newTestScoringService(t, nil, responses, fc, profiles)

	got, err := svc.ScoreSession(context.Background(), ScoreRequest{SessionID: "s1"})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if fc.upserted["s1"] == nil {
		t.Fatalf("expected fc scores to be stored")
	}
	if fc.answered != 2 || got.FCAnsweredCount != 2 {
		t.Fatalf("expected 2 answered blocks, got repo=%d profile=%d", fc.answered, got.FCAnsweredCount)
	}
}

func TestScoringService_CollaboratorFailureAborts(t *testing.T) {
	profiles := newMockProfileRepo()
	responses := &mockResponseRepo{err: errors.New("db down")}
	svc := newTestScoringService(t, nil, responses, nil, profiles)

	if _, err := svc.ScoreSession(context.Background(), ScoreRequest{SessionID: "s1"}); err == nil {
		t.Fatalf("expected error when responses cannot be loaded")
	}
	if responses.calls != 1 {
		t.Fatalf("expected a single attempt with zero retries, got %d", responses.calls)
	}
	if profiles.upserts != 0 {
		t.Fatalf("expected no upsert, got %d", profiles.upserts)
	}
}

// sortedKeys ayuda a comparar mapas de sesiones en los tests de recalculo.
func sortedKeys(m map[string]domain.Profile) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestScoringService_OnlyOwnerOrAdminMayScore(t *testing.T) {
	sessions := &mockSessionRepo{sessions: map[string]domain.Session{
		"victim": {ID: "victim", UserID: "owner", Status: domain.SessionStatusCompleted},
	}}
	profiles := newMockProfileRepo()
	responses := &mockResponseRepo{bySession: map[string][]domain.Response{"victim": sampleResponses()}}
	svc := newTestScoringService(t, sessions, responses, nil, profiles)
	ctx := context.Background()

	forbidden := []*Caller{{UserID: "stranger"}, {}}
	for _, caller := range forbidden {
		_, err := svc.ScoreSession(ctx, ScoreRequest{SessionID: "victim", Context: domain.ContextStress, Caller: caller})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden for %+v, got %v", caller, err)
		}
	}
	if _, err := svc.ScoreSession(ctx, ScoreRequest{SessionID: "ghost", Caller: &Caller{UserID: "owner"}}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for unknown session, got %v", err)
	}
	if profiles.upserts != 0 || responses.calls != 0 {
		t.Fatalf("expected nothing loaded or written, got upserts=%d loads=%d", profiles.upserts, responses.calls)
	}

	if _, err := svc.ScoreSession(ctx, ScoreRequest{SessionID: "victim", Caller: &Caller{UserID: "owner"}}); err != nil {
		t.Fatalf("owner score: %v", err)
	}
	if _, err := svc.ScoreSession(ctx, ScoreRequest{SessionID: "victim", Caller: &Caller{UserID: "ops", Admin: true}}); err != nil {
		t.Fatalf("admin score: %v", err)
	}
}

func TestScoringService_ReuseInputsKeepsBlocksAndOverlay(t *testing.T) {
	profiles := newMockProfileRepo()
	responses := &mockResponseRepo{bySession: map[string][]domain.Response{"s1": sampleResponses()}}
	svc := newTestScoringService(t, nil, responses, nil, profiles)
	ctx := context.Background()

	first, err := svc.ScoreSession(ctx, ScoreRequest{SessionID: "s1", Context: domain.ContextStress, StateIndex: 0.6})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if first.Blocks.Context != domain.ContextStress || first.StateIndex != 0.6 {
		t.Fatalf("expected stress inputs stored, got %+v / %v", first.Blocks, first.StateIndex)
	}

	again, err := svc.ScoreSession(ctx, ScoreRequest{SessionID: "s1", ReuseInputs: true})
	if err != nil {
		t.Fatalf("rescore: %v", err)
	}
	if again.Blocks != first.Blocks || again.Overlay != first.Overlay || again.StateIndex != first.StateIndex {
		t.Fatalf("expected blocks and overlay unchanged, got %+v %+v, want %+v %+v", again.Blocks, again.Overlay, first.Blocks, first.Overlay)
	}
}

func TestScoringService_ReuseInputsWithoutStoredProfile(t *testing.T) {
	profiles := newMockProfileRepo()
	responses := &mockResponseRepo{bySession: map[string][]domain.Response{"s1": sampleResponses()}}
	svc := newTestScoringService(t, nil, responses, nil, profiles)

	got, err := svc.ScoreSession(context.Background(), ScoreRequest{SessionID: "s1", ReuseInputs: true})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if got.Blocks.Context != domain.ContextCalm || got.StateIndex != 0 {
		t.Fatalf("expected calm defaults, got %+v / %v", got.Blocks, got.StateIndex)
	}
}
