package parser

import (
	"testing"

	"github.com/tsawler/docparse/model"
)

func TestNewDefaultFactory(t *testing.T) {
	f := NewDefaultFactory(DefaultExecConfig())

	want := []string{"table", "list", "code", "formula", "image"}
	names := f.Names()
	if len(names) != len(want) {
		t.Fatalf("registered = %v, want %v", names, want)
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("names[%d] = %q, want %q", i, names[i], name)
		}
	}

	mon, err := f.ParserFor(&model.Element{
		Type: model.ElementTypeTable,
		Text: "a | b\n1 | 2",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mon.Parser().Name(); got != "table" {
		t.Errorf("selected %q, want table", got)
	}
}
