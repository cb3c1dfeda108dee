package domain

import "strings"

// ScaleKind identifica la escala nativa de un item.
type ScaleKind string

const (
	ScaleLikert5     ScaleKind = "LIKERT_1_5"
	ScaleLikert7     ScaleKind = "LIKERT_1_7"
	ScaleState7      ScaleKind = "STATE_1_7"
	ScaleFrequency   ScaleKind = "FREQUENCY"
	ScaleCategorical ScaleKind = "CATEGORICAL_5"
)

// Response es una respuesta ya etiquetada por el colector externo.
type Response struct {
	QuestionID    string    `json:"question_id"`
	Tag           string    `json:"tag"`
	Scale         ScaleKind `json:"scale_type"`
	Value         float64   `json:"value"`
	ReverseScored bool      `json:"reverse_scored,omitempty"`
}

// Common5 devuelve el valor en la escala comun 1-5, aplicando la inversion
// sobre la escala nativa antes de convertir.
func (r Response) Common5() float64 {
	v := r.Value
	seven := r.Scale == ScaleLikert7 || r.Scale == ScaleState7
	if r.ReverseScored {
		if seven {
			v = 8 - v
		} else {
			v = 6 - v
		}
	}
	if seven {
		return 1 + (v-1)*(4.0/6.0)
	}
	return v
}

// IsRating indica si el item es de escala de calificacion (likert o afines).
func (r Response) IsRating() bool {
	s := strings.ToUpper(string(r.Scale))
	return s == "" || strings.HasPrefix(s, "LIKERT") || strings.HasPrefix(s, "CATEGORICAL") || s == string(ScaleFrequency)
}

// ForcedChoiceOption es una opcion de un bloque de eleccion forzada con sus pesos por funcion.
type ForcedChoiceOption struct {
	ID      string               `json:"id"`
	BlockID string               `json:"block_id"`
	Code    string               `json:"option_code"`
	Weights map[Function]float64 `json:"weights"`
}

// ForcedChoiceAnswer registra la opcion elegida en un bloque.
type ForcedChoiceAnswer struct {
	BlockID  string `json:"block_id"`
	OptionID string `json:"option_id"`
}
