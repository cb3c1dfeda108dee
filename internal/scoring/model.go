// Package scoring turns grouped assessment answers into a typed profile.
// Every function here is pure: no I/O, no clocks, no shared state.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"prism-scoring/internal/domain"
)

// DefaultModelVersion must be bumped whenever a formula or default constant changes.
const DefaultModelVersion = "v1.3.0"

// ErrInvalidModel is returned by Validate and the loaders.
var ErrInvalidModel = errors.New("invalid scoring model")

// Model is the versioned configuration object passed into every component.
// Recalibration means shipping a new Model, not editing code.
type Model struct {
	Version          string                                              `yaml:"version"`
	Prototypes       map[domain.TypeCode]map[domain.Function]domain.Seat `yaml:"prototypes"`
	ExpectedStrength map[domain.Bucket]float64                           `yaml:"expected_strength"`
	Strength         StrengthParams                                      `yaml:"strength"`
	Dimensionality   DimensionalityParams                                `yaml:"dimensionality"`
	Blocks           BlockParams                                         `yaml:"blocks"`
	Overlay          OverlayParams                                       `yaml:"overlay"`
	Classifier       ClassifierParams                                    `yaml:"classifier"`
	Coherence        CoherenceParams                                     `yaml:"coherence"`
	Confidence       ConfidenceParams                                    `yaml:"confidence"`
}

type StrengthParams struct {
	RatingDefault     float64 `yaml:"rating_default"`
	RatingWeightBase  float64 `yaml:"rating_weight_base"`
	RatingWeightFloor float64 `yaml:"rating_weight_floor"`
	StressSlope       float64 `yaml:"stress_slope"`
}

// DimensionalityParams holds the calibrated population cut points on the
// normalised [0,1] facet sum. Current target split is roughly 40/21/8/2 %.
type DimensionalityParams struct {
	FacetDefault float64 `yaml:"facet_default"`
	ScaleMax     float64 `yaml:"scale_max"`
	TwoD         float64 `yaml:"two_d"`
	ThreeD       float64 `yaml:"three_d"`
	FourD        float64 `yaml:"four_d"`
}

type BlockShift struct {
	Core     float64 `yaml:"core"`
	Critic   float64 `yaml:"critic"`
	Hidden   float64 `yaml:"hidden"`
	Instinct float64 `yaml:"instinct"`
}

type BlockParams struct {
	Baseline     BlockShift `yaml:"baseline"`
	Stress       BlockShift `yaml:"stress"`
	Flow         BlockShift `yaml:"flow"`
	ScenarioStep float64    `yaml:"scenario_step"`
}

type OverlayParams struct {
	NeuroMean   float64 `yaml:"neuro_mean"`
	NeuroSD     float64 `yaml:"neuro_sd"`
	StateWeight float64 `yaml:"state_weight"`
	Cut         float64 `yaml:"cut"`
}

type ClassifierParams struct {
	DistanceScale   float64 `yaml:"distance_scale"`
	AdjustmentScale float64 `yaml:"adjustment_scale"`
	DimBonus        float64 `yaml:"dim_bonus"`
	DimPenalty      float64 `yaml:"dim_penalty"`
	DimCutoff       int     `yaml:"dim_cutoff"`
	Temperature     float64 `yaml:"temperature"`
	CloseCallGap    float64 `yaml:"close_call_gap"`
	// Placeholder decomposition terms; no signal feeds them yet.
	ForcedChoiceSupportStub float64 `yaml:"forced_choice_support_stub"`
	OppositePenaltyStub     float64 `yaml:"opposite_penalty_stub"`
}

type CoherenceParams struct {
	SeatWeights map[domain.Bucket]float64 `yaml:"seat_weights"`
	DimWeight   float64                   `yaml:"dim_weight"`
}

type ConfidenceParams struct {
	A           float64 `yaml:"a"`
	B           float64 `yaml:"b"`
	C           float64 `yaml:"c"`
	HighCut     float64 `yaml:"high_cut"`
	ModerateCut float64 `yaml:"moderate_cut"`
	HighFit     float64 `yaml:"high_fit"`
	ModerateFit float64 `yaml:"moderate_fit"`
}

// DefaultModel returns a fresh copy of the built-in model.
func DefaultModel() *Model {
	return &Model{
		Version:    DefaultModelVersion,
		Prototypes: defaultPrototypes(),
		ExpectedStrength: map[domain.Bucket]float64{
			domain.BucketBase:       1.5,
			domain.BucketCreative:   1.0,
			domain.BucketRole:       0.0,
			domain.BucketVulnerable: -0.5,
		},
		Strength: StrengthParams{
			RatingDefault:     3.0,
			RatingWeightBase:  0.7,
			RatingWeightFloor: 0.3,
			StressSlope:       0.4,
		},
		Dimensionality: DimensionalityParams{
			FacetDefault: 2.5,
			ScaleMax:     5,
			TwoD:         0.60,
			ThreeD:       0.79,
			FourD:        0.92,
		},
		Blocks: BlockParams{
			Baseline:     BlockShift{Core: 0.35, Critic: 0.25, Hidden: 0.25, Instinct: 0.15},
			Stress:       BlockShift{Core: -0.05, Critic: 0.10, Hidden: -0.05},
			Flow:         BlockShift{Core: 0.10, Critic: -0.10, Hidden: -0.05, Instinct: 0.05},
			ScenarioStep: 0.02,
		},
		Overlay: OverlayParams{
			NeuroMean:   3.0,
			NeuroSD:     1.0,
			StateWeight: 0.3,
			Cut:         0.5,
		},
		Classifier: ClassifierParams{
			DistanceScale:           15,
			AdjustmentScale:         5,
			DimBonus:                0.5,
			DimPenalty:              0.3,
			DimCutoff:               3,
			Temperature:             1.0,
			CloseCallGap:            5,
			ForcedChoiceSupportStub: 20,
			OppositePenaltyStub:     0,
		},
		Coherence: CoherenceParams{
			SeatWeights: map[domain.Bucket]float64{
				domain.BucketBase:       1.0,
				domain.BucketCreative:   0.8,
				domain.BucketRole:       0.4,
				domain.BucketVulnerable: 0.2,
			},
			DimWeight: 0.3,
		},
		Confidence: ConfidenceParams{
			A:           0.08,
			B:           0.05,
			C:           0.25,
			HighCut:     0.75,
			ModerateCut: 0.55,
			HighFit:     75,
			ModerateFit: 55,
		},
	}
}

// Model A seat order: base, creative, role, vulnerable, suggestive, mobilizing, ignoring, demonstrative.
var modelA = map[domain.TypeCode][8]domain.Function{
	domain.LIE: {domain.Te, domain.Ni, domain.Fe, domain.Si, domain.Fi, domain.Se, domain.Ti, domain.Ne},
	domain.ILI: {domain.Ni, domain.Te, domain.Si, domain.Fe, domain.Se, domain.Fi, domain.Ne, domain.Ti},
	domain.ESE: {domain.Fe, domain.Si, domain.Te, domain.Ni, domain.Ti, domain.Ne, domain.Fi, domain.Se},
	domain.SEI: {domain.Si, domain.Fe, domain.Ni, domain.Te, domain.Ne, domain.Ti, domain.Se, domain.Fi},
	domain.LII: {domain.Ti, domain.Ne, domain.Fi, domain.Se, domain.Fe, domain.Si, domain.Te, domain.Ni},
	domain.ILE: {domain.Ne, domain.Ti, domain.Se, domain.Fi, domain.Si, domain.Fe, domain.Ni, domain.Te},
	domain.ESI: {domain.Fi, domain.Se, domain.Ti, domain.Ne, domain.Te, domain.Ni, domain.Fe, domain.Si},
	domain.SEE: {domain.Se, domain.Fi, domain.Ne, domain.Ti, domain.Ni, domain.Te, domain.Si, domain.Fe},
	domain.LSE: {domain.Te, domain.Si, domain.Fe, domain.Ni, domain.Fi, domain.Ne, domain.Ti, domain.Se},
	domain.SLI: {domain.Si, domain.Te, domain.Ni, domain.Fe, domain.Ne, domain.Fi, domain.Se, domain.Ti},
	domain.EIE: {domain.Fe, domain.Ni, domain.Te, domain.Si, domain.Ti, domain.Se, domain.Fi, domain.Ne},
	domain.IEI: {domain.Ni, domain.Fe, domain.Si, domain.Te, domain.Se, domain.Ti, domain.Ne, domain.Fi},
	domain.LSI: {domain.Ti, domain.Se, domain.Fi, domain.Ne, domain.Fe, domain.Ni, domain.Te, domain.Si},
	domain.SLE: {domain.Se, domain.Ti, domain.Ne, domain.Fi, domain.Ni, domain.Fe, domain.Si, domain.Te},
	domain.EII: {domain.Fi, domain.Ne, domain.Ti, domain.Se, domain.Te, domain.Si, domain.Fe, domain.Ni},
	domain.IEE: {domain.Ne, domain.Fi, domain.Se, domain.Ti, domain.Si, domain.Te, domain.Ni, domain.Fe},
}

func defaultPrototypes() map[domain.TypeCode]map[domain.Function]domain.Seat {
	out := make(map[domain.TypeCode]map[domain.Function]domain.Seat, domain.NumTypes)
	for code, funcs := range modelA {
		seats := make(map[domain.Function]domain.Seat, domain.NumFunctions)
		for i, f := range funcs {
			seats[f] = domain.Seats[i]
		}
		out[code] = seats
	}
	return out
}

// LoadModelYAML parses a model document. Sections left out of the document
// keep the DefaultModel values.
func LoadModelYAML(data []byte) (*Model, error) {
	m := DefaultModel()
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %v", ErrInvalidModel, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadModelFile reads a YAML model from disk.
func LoadModelFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return LoadModelYAML(data)
}

// YAML encodes the model; the CLI uses it to dump the active configuration.
func (m *Model) YAML() ([]byte, error) {
	return yaml.Marshal(m)
}

// Validate checks the structural invariants: every archetype seats all 8
// canonical functions exactly once, one function per seat, and the numeric
// constants are usable.
func (m *Model) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil model", ErrInvalidModel)
	}
	if m.Version == "" {
		return fmt.Errorf("%w: empty version", ErrInvalidModel)
	}
	if len(m.Prototypes) != domain.NumTypes {
		return fmt.Errorf("%w: expected %d prototypes, got %d", ErrInvalidModel, domain.NumTypes, len(m.Prototypes))
	}
	for _, code := range domain.TypeCodes {
		seats, ok := m.Prototypes[code]
		if !ok {
			return fmt.Errorf("%w: missing prototype %s", ErrInvalidModel, code)
		}
		if err := validateSeatMap(code, seats); err != nil {
			return err
		}
	}
	for _, b := range domain.Buckets {
		if _, ok := m.ExpectedStrength[b]; !ok {
			return fmt.Errorf("%w: missing expected strength for %s", ErrInvalidModel, b)
		}
		if _, ok := m.Coherence.SeatWeights[b]; !ok {
			return fmt.Errorf("%w: missing seat weight for %s", ErrInvalidModel, b)
		}
	}
	d := m.Dimensionality
	if d.ScaleMax <= 0 || !(0 < d.TwoD && d.TwoD < d.ThreeD && d.ThreeD < d.FourD && d.FourD <= 1) {
		return fmt.Errorf("%w: dimensionality thresholds must be increasing within (0,1]", ErrInvalidModel)
	}
	if m.Classifier.Temperature <= 0 || math.IsNaN(m.Classifier.Temperature) {
		return fmt.Errorf("%w: temperature must be positive", ErrInvalidModel)
	}
	if m.Overlay.NeuroSD <= 0 {
		return fmt.Errorf("%w: neuro sd must be positive", ErrInvalidModel)
	}
	if m.Strength.RatingWeightFloor < 0 || m.Strength.RatingWeightBase > 1 || m.Strength.RatingWeightFloor > m.Strength.RatingWeightBase {
		return fmt.Errorf("%w: rating weights must satisfy 0 <= floor <= base <= 1", ErrInvalidModel)
	}
	if m.Blocks.ScenarioStep < 0 {
		return fmt.Errorf("%w: scenario step must be non-negative", ErrInvalidModel)
	}
	return nil
}

func validateSeatMap(code domain.TypeCode, seats map[domain.Function]domain.Seat) error {
	if len(seats) != domain.NumFunctions {
		return fmt.Errorf("%w: %s seats %d functions, want %d", ErrInvalidModel, code, len(seats), domain.NumFunctions)
	}
	used := make(map[domain.Seat]domain.Function, len(domain.Seats))
	for _, f := range domain.Functions {
		seat, ok := seats[f]
		if !ok {
			return fmt.Errorf("%w: %s does not seat %s", ErrInvalidModel, code, f)
		}
		if !seat.Valid() {
			return fmt.Errorf("%w: %s seats %s in unknown seat %q", ErrInvalidModel, code, f, seat)
		}
		if prev, dup := used[seat]; dup {
			return fmt.Errorf("%w: %s seats both %s and %s as %s", ErrInvalidModel, code, prev, f, seat)
		}
		used[seat] = f
	}
	return nil
}

// SeatOf returns the seat a function occupies in an archetype.
func (m *Model) SeatOf(code domain.TypeCode, f domain.Function) domain.Seat {
	return m.Prototypes[code][f]
}

// FunctionAt returns the function seated at seat for the archetype.
func (m *Model) FunctionAt(code domain.TypeCode, seat domain.Seat) domain.Function {
	for _, f := range domain.Functions {
		if m.Prototypes[code][f] == seat {
			return f
		}
	}
	return ""
}

// Buckets returns the folded 4-seat view of an archetype in canonical function order.
func (m *Model) Buckets(code domain.TypeCode) [domain.NumFunctions]domain.Bucket {
	var out [domain.NumFunctions]domain.Bucket
	for i, f := range domain.Functions {
		out[i] = m.Prototypes[code][f].Fold()
	}
	return out
}
