package domain

import "time"

const (
	FitBandLow      = "low"
	FitBandModerate = "moderate"
	FitBandHigh     = "high"

	ConfidenceHigh     = "High"
	ConfidenceModerate = "Moderate"
	ConfidenceLow      = "Low"

	ValidityPass = "pass"
)

// RankedType es una entrada del ranking de arquetipos.
type RankedType struct {
	Code  TypeCode `json:"code"`
	Fit   float64  `json:"fit"`
	Share float64  `json:"share"`
}

// BlockWeights son los pesos de los 4 bloques (suman ~1) bajo un contexto.
type BlockWeights struct {
	Core     float64 `json:"Core"`
	Critic   float64 `json:"Critic"`
	Hidden   float64 `json:"Hidden"`
	Instinct float64 `json:"Instinct"`
	Context  Context `json:"context"`
}

// Get devuelve el peso del bloque indicado.
func (b BlockWeights) Get(block Block) float64 {
	switch block {
	case BlockCore:
		return b.Core
	case BlockCritic:
		return b.Critic
	case BlockHidden:
		return b.Hidden
	default:
		return b.Instinct
	}
}

// Sum suma los 4 pesos.
func (b BlockWeights) Sum() float64 {
	return b.Core + b.Critic + b.Hidden + b.Instinct
}

// Overlay es la senal de estado/regulacion superpuesta al arquetipo.
type Overlay struct {
	Band  string  `json:"band"`
	Z     float64 `json:"z"`
	Label string  `json:"label"`
}

// FitParts descompone el fit para diagnostico. ForcedChoiceSupport y
// OppositePenalty son constantes del modelo, no senal medida; Stubbed lo indica.
type FitParts struct {
	StrengthAlign       float64 `json:"strength_align"`
	DimAlign            float64 `json:"dim_align"`
	ForcedChoiceSupport float64 `json:"forced_choice_support"`
	OppositePenalty     float64 `json:"opposite_penalty"`
	Stubbed             bool    `json:"stubbed"`
}

// Validity resume los indices de calidad de datos.
type Validity struct {
	Status        string  `json:"status"`
	Attention     float64 `json:"attention"`
	Inconsistency float64 `json:"inconsistency"`
	SDIndex       float64 `json:"sd_index"`
	Stubbed       bool    `json:"stubbed"`
}

// DimsHighlights lista las funciones 3D/4D dentro y fuera de Base/Creative.
type DimsHighlights struct {
	Coherent []Function `json:"coherent"`
	Unique   []Function `json:"unique"`
}

// Profile es el agregado persistido, una fila por sesion.
type Profile struct {
	ID              string               `json:"id"`
	SessionID       string               `json:"session_id"`
	TypeCode        TypeCode             `json:"type_code"`
	BaseFunc        Function             `json:"base_func"`
	CreativeFunc    Function             `json:"creative_func"`
	TopTypes        []RankedType         `json:"top_types"`
	TopGap          float64              `json:"top_gap"`
	CloseCall       bool                 `json:"close_call"`
	FitRaw          float64              `json:"score_fit_raw"`
	FitCalibrated   float64              `json:"score_fit_calibrated"`
	FitBand         string               `json:"fit_band"`
	FitParts        FitParts             `json:"fit_parts"`
	Strengths       map[Function]float64 `json:"strengths"`
	Dimensions      map[Function]int     `json:"dimensions"`
	Blocks          BlockWeights         `json:"blocks_norm"`
	Overlay         Overlay              `json:"overlay"`
	StateIndex      float64              `json:"state_index"`
	SeatCoherence   float64              `json:"seat_coherence"`
	CoherentDims    int                  `json:"coherent_dims"`
	UniqueDims      int                  `json:"unique_dims"`
	DimsHighlights  DimsHighlights       `json:"dims_highlights"`
	Validity        Validity             `json:"validity"`
	Confidence      string               `json:"confidence"`
	ConfRaw         float64              `json:"conf_raw"`
	ConfCalibrated  float64              `json:"conf_calibrated"`
	FCAnsweredCount int                  `json:"fc_answered_ct"`
	Version         string               `json:"version"`
	SubmittedAt     time.Time            `json:"submitted_at"`
	RecomputedAt    *time.Time           `json:"recomputed_at,omitempty"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// SimilarProfile es un vecino cercano por distancia entre vectores de fuerza.
// SessionID no se serializa: el endpoint de resultados no expone sesiones ajenas.
type SimilarProfile struct {
	SessionID string   `json:"-"`
	TypeCode  TypeCode `json:"type_code"`
	Version   string   `json:"version"`
	Distance  float64  `json:"distance"`
}
