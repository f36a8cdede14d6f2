package code

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"strings"

	"github.com/tsawler/docparse/model"
)

// StructureAnalyzer extracts functions, classes, imports and variables
// from source text.
type StructureAnalyzer struct{}

// NewStructureAnalyzer creates a structure analyzer.
func NewStructureAnalyzer() *StructureAnalyzer {
	return &StructureAnalyzer{}
}

// Analyze builds a CodeStructure for the given language. Go source gets
// an AST pass with regex fallback on syntax error; Python gets regex
// extraction plus an indentation consistency scan; everything else gets
// regex extraction with SyntaxValid left true (no checker available).
func (sa *StructureAnalyzer) Analyze(source, language string) *model.CodeStructure {
	cs := &model.CodeStructure{
		Language:    language,
		SyntaxValid: true,
		LineCount:   len(strings.Split(source, "\n")),
	}

	switch language {
	case "go":
		if err := sa.analyzeGoAST(source, cs); err != nil {
			cs.SyntaxValid = false
			cs.SyntaxErrors = append(cs.SyntaxErrors, err.Error())
			sa.analyzeRegex(source, language, cs)
		}
	case "python":
		sa.analyzeRegex(source, language, cs)
		if findings := pythonIndentScan(source); len(findings) > 0 {
			cs.SyntaxValid = false
			cs.SyntaxErrors = append(cs.SyntaxErrors, findings...)
		}
	default:
		sa.analyzeRegex(source, language, cs)
	}

	cs.ComplexityScore = complexityScore(source, cs)
	return cs
}

// analyzeGoAST parses Go source with go/parser. Snippets without a
// package clause are wrapped in one before parsing.
func (sa *StructureAnalyzer) analyzeGoAST(source string, cs *model.CodeStructure) error {
	src := source
	wrapped := false
	if !regexp.MustCompile(`(?m)^\s*package\s+\w+`).MatchString(src) {
		src = "package snippet\n" + src
		wrapped = true
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "block.go", src, parser.ParseComments)
	if err != nil {
		return fmt.Errorf("go syntax: %v", err)
	}

	lineOf := func(pos token.Pos) int {
		line := fset.Position(pos).Line
		if wrapped {
			line--
		}
		return line
	}

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			fn := model.CodeFunction{Name: d.Name.Name, Line: lineOf(d.Pos())}
			if d.Recv != nil && len(d.Recv.List) > 0 {
				fn.Receiver = exprText(d.Recv.List[0].Type)
			}
			if d.Type.Params != nil {
				for _, field := range d.Type.Params.List {
					for _, name := range field.Names {
						fn.Parameters = append(fn.Parameters, name.Name)
					}
				}
			}
			cs.Functions = append(cs.Functions, fn)
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.ImportSpec:
					cs.Imports = append(cs.Imports, strings.Trim(s.Path.Value, `"`))
				case *ast.TypeSpec:
					cls := model.CodeClass{Name: s.Name.Name, Line: lineOf(s.Pos())}
					cs.Classes = append(cs.Classes, cls)
				case *ast.ValueSpec:
					for _, name := range s.Names {
						cs.Variables = append(cs.Variables, name.Name)
					}
				}
			}
		}
	}

	// Attach methods to their receiver types.
	for i := range cs.Classes {
		for _, fn := range cs.Functions {
			if strings.TrimPrefix(fn.Receiver, "*") == cs.Classes[i].Name {
				cs.Classes[i].Methods = append(cs.Classes[i].Methods, fn.Name)
			}
		}
	}
	return nil
}

func exprText(e ast.Expr) string {
	switch t := e.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + exprText(t.X)
	default:
		return ""
	}
}

// familyPatterns holds regex extraction rules per language family.
type familyPatterns struct {
	function *regexp.Regexp
	class    *regexp.Regexp
	imports  *regexp.Regexp
	variable *regexp.Regexp
}

var regexFamilies = map[string]familyPatterns{
	"python": {
		function: regexp.MustCompile(`(?m)^\s*def\s+(\w+)\s*\(([^)]*)\)`),
		class:    regexp.MustCompile(`(?m)^\s*class\s+(\w+)`),
		imports:  regexp.MustCompile(`(?m)^\s*(?:from\s+([\w.]+)\s+import|import\s+([\w.]+))`),
		variable: regexp.MustCompile(`(?m)^(\w+)\s*=\s*\S`),
	},
	"javascript": {
		function: regexp.MustCompile(`(?m)(?:function\s+(\w+)\s*\(([^)]*)\)|(?:const|let)\s+(\w+)\s*=\s*(?:\([^)]*\)|\w+)\s*=>)`),
		class:    regexp.MustCompile(`(?m)class\s+(\w+)`),
		imports:  regexp.MustCompile(`(?m)(?:import\s+.*?from\s+['"]([^'"]+)['"]|require\(\s*['"]([^'"]+)['"]\s*\))`),
		variable: regexp.MustCompile(`(?m)^\s*(?:var|let|const)\s+(\w+)`),
	},
	"go": {
		function: regexp.MustCompile(`(?m)^\s*func\s+(?:\([^)\n]*\)\s+)?(\w+)\s*\(([^)\n]*)\)`),
		class:    regexp.MustCompile(`(?m)^\s*type\s+(\w+)\s+(?:struct|interface)\b`),
		imports:  regexp.MustCompile(`(?m)^\s*(?:import\s+)?"([\w./-]+)"`),
		variable: regexp.MustCompile(`(?m)^\s*(?:var\s+(\w+)|(\w+)\s*:=)`),
	},
	"generic": {
		function: regexp.MustCompile(`(?m)(?:function|func|def|fn|sub)\s+(\w+)\s*\(([^)\n]*)\)`),
		class:    regexp.MustCompile(`(?m)(?:class|struct|interface)\s+(\w+)`),
		imports:  regexp.MustCompile(`(?m)(?:import|require|include|use)\s+[<'"]?([\w./]+)`),
		variable: regexp.MustCompile(`(?m)^\s*(?:var|let|const|my)\s+(\w+)`),
	},
}

// analyzeRegex extracts structure with the language family's patterns.
func (sa *StructureAnalyzer) analyzeRegex(source, language string, cs *model.CodeStructure) {
	fam, ok := regexFamilies[language]
	if !ok {
		fam = regexFamilies["generic"]
	}

	if fam.function != nil {
		for _, m := range fam.function.FindAllStringSubmatchIndex(source, -1) {
			groups := fam.function.FindStringSubmatch(source[m[0]:m[1]])
			name, params := firstNonEmpty(groups[1:])
			if name == "" {
				continue
			}
			fn := model.CodeFunction{Name: name, Line: lineAt(source, m[0])}
			for _, p := range strings.Split(params, ",") {
				p = strings.TrimSpace(strings.Split(strings.TrimSpace(p), " ")[0])
				p = strings.Split(p, ":")[0]
				p = strings.Split(p, "=")[0]
				if p != "" {
					fn.Parameters = append(fn.Parameters, p)
				}
			}
			if !containsFunction(cs.Functions, name) {
				cs.Functions = append(cs.Functions, fn)
			}
		}
	}
	if fam.class != nil {
		for _, m := range fam.class.FindAllStringSubmatch(source, -1) {
			cs.Classes = append(cs.Classes, model.CodeClass{Name: m[1]})
		}
	}
	if fam.imports != nil {
		for _, m := range fam.imports.FindAllStringSubmatch(source, -1) {
			name, _ := firstNonEmpty(m[1:])
			if name != "" {
				cs.Imports = append(cs.Imports, name)
			}
		}
	}
	if fam.variable != nil {
		seen := make(map[string]bool)
		for _, m := range fam.variable.FindAllStringSubmatch(source, -1) {
			name, _ := firstNonEmpty(m[1:])
			if name != "" && !seen[name] {
				seen[name] = true
				cs.Variables = append(cs.Variables, name)
			}
		}
	}
}

// firstNonEmpty returns the first non-empty group and the one after it.
func firstNonEmpty(groups []string) (string, string) {
	for i, g := range groups {
		if g != "" {
			next := ""
			if i+1 < len(groups) {
				next = groups[i+1]
			}
			return g, next
		}
	}
	return "", ""
}

func containsFunction(fns []model.CodeFunction, name string) bool {
	for _, f := range fns {
		if f.Name == name {
			return true
		}
	}
	return false
}

func lineAt(source string, offset int) int {
	return strings.Count(source[:offset], "\n") + 1
}

// pythonIndentScan reports tab/space mixing and block openers with no
// indented body. It is a consistency scan, not a full parser.
func pythonIndentScan(source string) []string {
	var findings []string
	lines := strings.Split(source, "\n")

	usesTabs := false
	usesSpaces := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if strings.Contains(indent, "\t") {
			usesTabs = true
		}
		if strings.Contains(indent, " ") {
			usesSpaces = true
		}

		// A block opener on its own line must be followed by a deeper line.
		if strings.HasSuffix(trimmed, ":") && !strings.Contains(trimmed, "#") {
			next := nextContentLine(lines, i+1)
			if next == -1 {
				findings = append(findings, fmt.Sprintf("line %d: block opener with no body", i+1))
			} else if leadingWidth(lines[next]) <= leadingWidth(line) {
				findings = append(findings, fmt.Sprintf("line %d: block opener not followed by an indented body", i+1))
			}
		}
	}
	if usesTabs && usesSpaces {
		findings = append(findings, "mixed tab and space indentation")
	}
	return findings
}

func nextContentLine(lines []string, from int) int {
	for i := from; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			return i
		}
	}
	return -1
}

func leadingWidth(line string) int {
	w := 0
	for _, r := range line {
		switch r {
		case ' ':
			w++
		case '\t':
			w += 4
		default:
			return w
		}
	}
	return w
}

var decisionRe = regexp.MustCompile(`\b(if|for|while|case|when|elif|else if|catch|except)\b|&&|\|\|`)

// complexityScore combines decision-point density, function count and
// maximum indentation depth into a bounded [0, 10] heuristic.
func complexityScore(source string, cs *model.CodeStructure) float64 {
	decisions := len(decisionRe.FindAllString(source, -1))

	maxIndent := 0
	for _, line := range strings.Split(source, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if w := leadingWidth(line) / 4; w > maxIndent {
			maxIndent = w
		}
	}

	score := 0.5*float64(decisions) + 0.8*float64(len(cs.Functions)) +
		0.6*float64(len(cs.Classes)) + 0.4*float64(maxIndent)
	if score > 10 {
		score = 10
	}
	return score
}
