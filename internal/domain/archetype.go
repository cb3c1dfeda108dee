package domain

import "strings"

// TypeCode identifica uno de los 16 arquetipos fijos.
type TypeCode string

const (
	LIE TypeCode = "LIE"
	ILI TypeCode = "ILI"
	ESE TypeCode = "ESE"
	SEI TypeCode = "SEI"
	LII TypeCode = "LII"
	ILE TypeCode = "ILE"
	ESI TypeCode = "ESI"
	SEE TypeCode = "SEE"
	LSE TypeCode = "LSE"
	SLI TypeCode = "SLI"
	EIE TypeCode = "EIE"
	IEI TypeCode = "IEI"
	LSI TypeCode = "LSI"
	SLE TypeCode = "SLE"
	EII TypeCode = "EII"
	IEE TypeCode = "IEE"
)

// NumTypes es la cantidad de arquetipos.
const NumTypes = 16

// TypeCodes fija el orden canonico de enumeracion. Los empates se resuelven
// a favor del arquetipo que aparece primero en esta lista.
var TypeCodes = [NumTypes]TypeCode{
	LIE, ILI, ESE, SEI, LII, ILE, ESI, SEE,
	LSE, SLI, EIE, IEI, LSI, SLE, EII, IEE,
}

// Valid indica si el codigo pertenece a los 16 arquetipos.
func (t TypeCode) Valid() bool {
	for _, c := range TypeCodes {
		if c == t {
			return true
		}
	}
	return false
}

// Seat es el rol estructural de una funcion dentro del modelo de 8 asientos.
type Seat string

const (
	SeatBase          Seat = "base"
	SeatCreative      Seat = "creative"
	SeatRole          Seat = "role"
	SeatVulnerable    Seat = "vulnerable"
	SeatSuggestive    Seat = "suggestive"
	SeatMobilizing    Seat = "mobilizing"
	SeatIgnoring      Seat = "ignoring"
	SeatDemonstrative Seat = "demonstrative"
)

// Seats lista los 8 asientos en orden de modelo.
var Seats = [8]Seat{
	SeatBase, SeatCreative, SeatRole, SeatVulnerable,
	SeatSuggestive, SeatMobilizing, SeatIgnoring, SeatDemonstrative,
}

// Valid indica si el asiento es uno de los 8 conocidos.
func (s Seat) Valid() bool {
	for _, v := range Seats {
		if v == s {
			return true
		}
	}
	return false
}

// Bucket es la vista simplificada de 4 asientos que usa el clasificador por distancia.
type Bucket string

const (
	BucketBase       Bucket = "Base"
	BucketCreative   Bucket = "Creative"
	BucketRole       Bucket = "Role"
	BucketVulnerable Bucket = "Vulnerable"
)

// Buckets lista los 4 grupos.
var Buckets = [4]Bucket{BucketBase, BucketCreative, BucketRole, BucketVulnerable}

// Fold pliega el modelo de 8 asientos en la vista de 4:
// los asientos fuertes no valorados (ignoring, demonstrative) caen en Role y
// los debiles valorados (suggestive, mobilizing) en Vulnerable.
func (s Seat) Fold() Bucket {
	switch s {
	case SeatBase:
		return BucketBase
	case SeatCreative:
		return BucketCreative
	case SeatRole, SeatIgnoring, SeatDemonstrative:
		return BucketRole
	default:
		return BucketVulnerable
	}
}

// Block agrupa funciones segun su rol conductual bajo un contexto.
type Block string

const (
	BlockCore     Block = "Core"
	BlockCritic   Block = "Critic"
	BlockHidden   Block = "Hidden"
	BlockInstinct Block = "Instinct"
)

// Blocks lista los 4 bloques.
var Blocks = [4]Block{BlockCore, BlockCritic, BlockHidden, BlockInstinct}

// ParseBlock acepta el nombre del bloque sin distinguir mayusculas.
func ParseBlock(s string) (Block, bool) {
	for _, b := range Blocks {
		if strings.EqualFold(string(b), strings.TrimSpace(s)) {
			return b, true
		}
	}
	return "", false
}

// Context es el estado situacional bajo el cual se componen los bloques.
type Context string

const (
	ContextCalm   Context = "calm"
	ContextStress Context = "stress"
	ContextFlow   Context = "flow"
)

// ParseContext devuelve calm para valores vacios o desconocidos.
func ParseContext(s string) Context {
	switch Context(strings.ToLower(strings.TrimSpace(s))) {
	case ContextStress:
		return ContextStress
	case ContextFlow:
		return ContextFlow
	default:
		return ContextCalm
	}
}
