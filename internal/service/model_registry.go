package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"prism-scoring/internal/repository"
	"prism-scoring/internal/scoring"
)

var ErrModelNotFound = errors.New("scoring model not found")

// ModelRegistry resuelve la version activa del modelo y cachea los motores ya
// construidos por version. El modelo por defecto siempre esta disponible.
type ModelRegistry struct {
	mu     sync.RWMutex
	active string
	cache  *lru.Cache[string, *scoring.Engine]
	source repository.ModelRepository
}

// NewModelRegistry arranca con active como version activa; si active es nil
// se usa scoring.DefaultModel. source puede ser nil (solo modelos en memoria).
func NewModelRegistry(active *scoring.Model, source repository.ModelRepository, size int) (*ModelRegistry, error) {
	if size <= 0 {
		size = 8
	}
	cache, err := lru.New[string, *scoring.Engine](size)
	if err != nil {
		return nil, err
	}
	if active == nil {
		active = scoring.DefaultModel()
	}
	if err := active.Validate(); err != nil {
		return nil, err
	}
	r := &ModelRegistry{active: active.Version, cache: cache, source: source}
	cache.Add(active.Version, scoring.NewEngine(active))
	return r, nil
}

// Active devuelve el motor de la version activa.
func (r *ModelRegistry) Active(ctx context.Context) (*scoring.Engine, error) {
	r.mu.RLock()
	version := r.active
	r.mu.RUnlock()
	return r.Get(ctx, version)
}

// ActiveVersion devuelve el identificador de la version activa.
func (r *ModelRegistry) ActiveVersion() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Get busca en cache y, si falta, carga el documento YAML desde el origen.
func (r *ModelRegistry) Get(ctx context.Context, version string) (*scoring.Engine, error) {
	if e, ok := r.cache.Get(version); ok {
		return e, nil
	}
	if version == scoring.DefaultModelVersion {
		e := scoring.NewEngine(scoring.DefaultModel())
		r.cache.Add(version, e)
		return e, nil
	}
	if r.source == nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, version)
	}
	doc, err := r.source.GetDocument(ctx, version)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, version)
	}
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", version, err)
	}
	m, err := scoring.LoadModelYAML(doc)
	if err != nil {
		return nil, err
	}
	if m.Version != version {
		return nil, fmt.Errorf("%w: document for %s declares version %s", scoring.ErrInvalidModel, version, m.Version)
	}
	e := scoring.NewEngine(m)
	r.cache.Add(version, e)
	return e, nil
}

// Activate cambia la version activa despues de comprobar que se puede cargar.
func (r *ModelRegistry) Activate(ctx context.Context, version string) error {
	if _, err := r.Get(ctx, version); err != nil {
		return err
	}
	r.mu.Lock()
	r.active = version
	r.mu.Unlock()
	return nil
}
