package domain

// Function es uno de los 8 canales cognitivos canonicos.
type Function string

const (
	Ti Function = "Ti"
	Te Function = "Te"
	Fi Function = "Fi"
	Fe Function = "Fe"
	Ni Function = "Ni"
	Ne Function = "Ne"
	Si Function = "Si"
	Se Function = "Se"
)

// NumFunctions es la cantidad de funciones canonicas.
const NumFunctions = 8

// Functions fija el orden canonico; los vectores [8] se indexan con este orden.
var Functions = [NumFunctions]Function{Ti, Te, Fi, Fe, Ni, Ne, Si, Se}

// Index devuelve la posicion canonica de la funcion o -1 si no es valida.
func (f Function) Index() int {
	for i, fn := range Functions {
		if fn == f {
			return i
		}
	}
	return -1
}

// Valid indica si f es una de las 8 funciones canonicas.
func (f Function) Valid() bool {
	return f.Index() >= 0
}

// ParseFunction interpreta un prefijo de dos letras ("Ti", "Ne", ...).
func ParseFunction(s string) (Function, bool) {
	if len(s) < 2 {
		return "", false
	}
	f := Function(s[:2])
	return f, f.Valid()
}

// StrengthVector guarda la fuerza z-normalizada de cada funcion en orden canonico.
type StrengthVector [NumFunctions]float64

// DimensionVector guarda el nivel de dimensionalidad (1-4) de cada funcion.
type DimensionVector [NumFunctions]int

// Map convierte el vector a un mapa por funcion (formato de salida persistido).
func (v StrengthVector) Map() map[Function]float64 {
	out := make(map[Function]float64, NumFunctions)
	for i, f := range Functions {
		out[f] = v[i]
	}
	return out
}

// Map convierte el vector a un mapa por funcion.
func (v DimensionVector) Map() map[Function]int {
	out := make(map[Function]int, NumFunctions)
	for i, f := range Functions {
		out[f] = v[i]
	}
	return out
}

// StrengthVectorFromMap reconstruye un vector; las funciones ausentes quedan en 0.
func StrengthVectorFromMap(m map[Function]float64) StrengthVector {
	var v StrengthVector
	for i, f := range Functions {
		v[i] = m[f]
	}
	return v
}

// DimensionVectorFromMap reconstruye un vector; las funciones ausentes quedan en 1.
func DimensionVectorFromMap(m map[Function]int) DimensionVector {
	var v DimensionVector
	for i, f := range Functions {
		d, ok := m[f]
		if !ok {
			d = 1
		}
		v[i] = d
	}
	return v
}
