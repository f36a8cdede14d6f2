package parser

import (
	"github.com/tsawler/docparse/code"
	"github.com/tsawler/docparse/formula"
	"github.com/tsawler/docparse/imageparse"
	"github.com/tsawler/docparse/lists"
	"github.com/tsawler/docparse/tables"
)

// NewDefaultFactory creates a factory with the five built-in parsers
// registered under their canonical names, each with default
// configuration. Callers needing tuned parsers register their own
// instances on a NewFactory.
func NewDefaultFactory(exec ExecConfig) *Factory {
	f := NewFactory(exec)
	f.Register(tables.ParserName, tables.NewParser())
	f.Register(lists.ParserName, lists.NewParser())
	f.Register(code.ParserName, code.NewParser())
	f.Register(formula.ParserName, formula.NewParser())
	f.Register(imageparse.ParserName, imageparse.NewParser())
	return f
}
