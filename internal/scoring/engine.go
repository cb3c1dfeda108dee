package scoring

import (
	"errors"

	"prism-scoring/internal/domain"
)

// ErrNoResponses means the session has nothing to score. It is an input
// error: callers must not retry it and no profile may be written.
var ErrNoResponses = errors.New("session has no responses")

// Input is everything the engine needs for one session.
type Input struct {
	Responses []domain.Response
	// ForcedChoice is the externally computed 0-5 score per function; nil when absent.
	ForcedChoice   map[domain.Function]float64
	FCAnswered     int
	Context        domain.Context
	StateIndex     float64
	ScenarioPicked map[domain.Context][]domain.Block
}

// Result is the full, unpersisted outcome of scoring one session.
type Result struct {
	Version        string
	Strengths      domain.StrengthVector
	Dimensions     domain.DimensionVector
	Blocks         domain.BlockWeights
	Overlay        domain.Overlay
	StateIndex     float64
	Classification Classification
	Coherence      Coherence
	Confidence     Confidence
	FitBand        string
	Validity       domain.Validity
	FCAnswered     int
}

// Engine runs the pipeline against one immutable model.
type Engine struct {
	model *Model
}

// NewEngine falls back to DefaultModel when m is nil.
func NewEngine(m *Model) *Engine {
	if m == nil {
		m = DefaultModel()
	}
	return &Engine{model: m}
}

// Model exposes the model the engine scores with.
func (e *Engine) Model() *Model {
	return e.model
}

// Score runs strengths and dimensionality, blocks and overlay, then the
// classifier and the coherence diagnostics. Soft signals that are missing
// fall back to neutral defaults; only an empty response set is an error.
func (e *Engine) Score(in Input) (Result, error) {
	if len(in.Responses) == 0 {
		return Result{}, ErrNoResponses
	}
	m := e.model
	g := GroupResponses(in.Responses)

	scenarios := g.Scenarios
	for ctx, picks := range in.ScenarioPicked {
		scenarios[ctx] = append(scenarios[ctx], picks...)
	}

	strengths := EstimateStrengths(m.Strength, StrengthInput{
		Ratings:      g.Ratings,
		ForcedChoice: in.ForcedChoice,
		Stress:       StressLevel(g.Stress),
	})
	dims := ClassifyDimensionality(m.Dimensionality, g.Facets)
	blocks := ComposeBlocks(m.Blocks, in.Context, scenarios)
	overlay := ComputeOverlay(m.Overlay, g.Overlay, in.StateIndex)

	cls := Classify(m, strengths, dims)
	top := cls.Top()

	return Result{
		Version:        m.Version,
		Strengths:      strengths,
		Dimensions:     dims,
		Blocks:         blocks,
		Overlay:        overlay,
		StateIndex:     in.StateIndex,
		Classification: cls,
		Coherence:      AnalyzeCoherence(m, top.Code, strengths, dims),
		Confidence:     ComputeConfidence(m.Confidence, cls),
		FitBand:        FitBand(m.Confidence, top.Fit),
		Validity:       AssessValidity(in.Responses),
		FCAnswered:     in.FCAnswered,
	}, nil
}

// BuildProfile shapes a result into the persisted aggregate. Timestamps and
// the row id are left to the repository.
func (e *Engine) BuildProfile(sessionID string, r Result) domain.Profile {
	top := r.Classification.Top()
	return domain.Profile{
		SessionID:       sessionID,
		TypeCode:        top.Code,
		BaseFunc:        e.model.FunctionAt(top.Code, domain.SeatBase),
		CreativeFunc:    e.model.FunctionAt(top.Code, domain.SeatCreative),
		TopTypes:        r.Classification.TopN(3),
		TopGap:          r.Classification.Gap,
		CloseCall:       r.Classification.CloseCall,
		FitRaw:          top.Fit,
		FitCalibrated:   top.Fit,
		FitBand:         r.FitBand,
		FitParts:        top.Parts,
		Strengths:       r.Strengths.Map(),
		Dimensions:      r.Dimensions.Map(),
		Blocks:          r.Blocks,
		Overlay:         r.Overlay,
		StateIndex:      r.StateIndex,
		SeatCoherence:   r.Coherence.SeatCoherence,
		CoherentDims:    r.Coherence.CoherentDims,
		UniqueDims:      r.Coherence.UniqueDims,
		DimsHighlights:  r.Coherence.Highlights,
		Validity:        r.Validity,
		Confidence:      r.Confidence.Band,
		ConfRaw:         r.Confidence.Raw,
		ConfCalibrated:  r.Confidence.Calibrated,
		FCAnsweredCount: r.FCAnswered,
		Version:         r.Version,
	}
}
