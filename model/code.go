package model

// CodeFunction describes one function or method found in a code block.
type CodeFunction struct {
	Name       string   `json:"name"`
	Receiver   string   `json:"receiver,omitempty"`
	Parameters []string `json:"parameters,omitempty"`
	Line       int      `json:"line,omitempty"`
}

// CodeClass describes one class or type declaration.
type CodeClass struct {
	Name    string   `json:"name"`
	Methods []string `json:"methods,omitempty"`
	Line    int      `json:"line,omitempty"`
}

// CodeStructure is the parsed shape of a code block element.
type CodeStructure struct {
	Language  string         `json:"language"`
	Functions []CodeFunction `json:"functions,omitempty"`
	Classes   []CodeClass    `json:"classes,omitempty"`
	Imports   []string       `json:"imports,omitempty"`
	Variables []string       `json:"variables,omitempty"`

	// ComplexityScore is a bounded heuristic in [0, 10].
	ComplexityScore float64 `json:"complexity_score"`

	// SyntaxValid is true when a structural check found no syntax errors.
	SyntaxValid  bool     `json:"syntax_valid"`
	SyntaxErrors []string `json:"syntax_errors,omitempty"`

	// LineCount is the number of source lines analyzed.
	LineCount int `json:"line_count"`
}

// FunctionNames returns the names of all detected functions.
func (c *CodeStructure) FunctionNames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.Functions))
	for i, f := range c.Functions {
		names[i] = f.Name
	}
	return names
}
