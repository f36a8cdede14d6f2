package model

// MathComponentKind classifies one token of a formula.
type MathComponentKind int

const (
	MathComponentVariable MathComponentKind = iota
	MathComponentConstant
	MathComponentOperator
	MathComponentFunction
	MathComponentDelimiter
)

func (k MathComponentKind) String() string {
	switch k {
	case MathComponentConstant:
		return "constant"
	case MathComponentOperator:
		return "operator"
	case MathComponentFunction:
		return "function"
	case MathComponentDelimiter:
		return "delimiter"
	default:
		return "variable"
	}
}

// MathComponent is one typed token of a formula, with any attached
// subscript or superscript.
type MathComponent struct {
	Value string            `json:"value"`
	Kind  MathComponentKind `json:"kind"`
	Sub   string            `json:"sub,omitempty"`
	Super string            `json:"super,omitempty"`
}

// FormulaStructure is the parsed shape of a formula element.
type FormulaStructure struct {
	// FormulaType is one of matrix, integral, summation, fraction,
	// equation, display, inline, expression.
	FormulaType string `json:"formula_type"`

	Components []MathComponent `json:"components,omitempty"`
	Variables  []string        `json:"variables,omitempty"`
	Operators  []string        `json:"operators,omitempty"`
	Functions  []string        `json:"functions,omitempty"`

	// ComplexityScore is a bounded heuristic in [0, 10].
	ComplexityScore float64 `json:"complexity_score"`

	// NestingLevel is the maximum delimiter nesting depth.
	NestingLevel int `json:"nesting_level"`

	HasFractions  bool `json:"has_fractions"`
	HasIntegrals  bool `json:"has_integrals"`
	HasSummations bool `json:"has_summations"`
	HasMatrices   bool `json:"has_matrices"`

	// LaTeX is the converted representation, when conversion succeeded.
	LaTeX string `json:"latex,omitempty"`
}
