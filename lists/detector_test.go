package lists

import (
	"errors"
	"strings"
	"testing"

	"github.com/tsawler/docparse/model"
)

func TestDetectOrderedList(t *testing.T) {
	d := NewDetector()
	det, err := d.Detect("1. First\n2. Second\n3. Third")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ls := det.Structure
	if ls.TotalItems != 3 {
		t.Errorf("TotalItems = %d, want 3", ls.TotalItems)
	}
	if ls.MaxDepth != 0 {
		t.Errorf("MaxDepth = %d, want 0", ls.MaxDepth)
	}
	if ls.ListType != "ordered" {
		t.Errorf("ListType = %q, want ordered", ls.ListType)
	}
	if ls.HasMixedContent {
		t.Error("homogeneous list flagged as mixed")
	}
	if det.MarkerCoverage != 1.0 {
		t.Errorf("MarkerCoverage = %f, want 1.0", det.MarkerCoverage)
	}
	if ls.Items[0].Content != "First" || ls.Items[0].Number != 1 {
		t.Errorf("first item = %+v", ls.Items[0])
	}
}

func TestDetectThreeLevelNesting(t *testing.T) {
	d := NewDetector()
	det, err := d.Detect("1. Top\n  a. Middle\n    i. Deep")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ls := det.Structure
	if ls.MaxDepth != 2 {
		t.Errorf("MaxDepth = %d, want 2", ls.MaxDepth)
	}
	if len(ls.Items) != 1 {
		t.Fatalf("top-level items = %d, want 1", len(ls.Items))
	}
	middle := ls.Items[0].Children
	if len(middle) != 1 || middle[0].Content != "Middle" {
		t.Fatalf("middle = %+v", middle)
	}
	deep := middle[0].Children
	if len(deep) != 1 || deep[0].Content != "Deep" || deep[0].Level != 2 {
		t.Errorf("deep = %+v", deep)
	}
}

func TestIndentRankNotWidth(t *testing.T) {
	// Indents 0 and 7 map to levels 0 and 1: levels are ranks among the
	// observed indents, not indent/step quotients.
	d := NewDetector()
	det, err := d.Detect("- a\n       - b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if det.Structure.MaxDepth != 1 {
		t.Errorf("MaxDepth = %d, want 1", det.Structure.MaxDepth)
	}
}

func TestDetectUnorderedList(t *testing.T) {
	d := NewDetector()
	det, err := d.Detect("- alpha\n- beta\n* gamma\n• delta")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if det.Structure.ListType != "unordered" {
		t.Errorf("ListType = %q, want unordered", det.Structure.ListType)
	}
}

func TestDetectDefinitionList(t *testing.T) {
	d := NewDetector()
	det, err := d.Detect("CPU: the processor\nRAM: working memory")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if det.Structure.ListType != "definition" {
		t.Errorf("ListType = %q, want definition", det.Structure.ListType)
	}
	if det.Structure.Items[0].Metadata["marker"] != "CPU" {
		t.Errorf("marker = %v, want CPU", det.Structure.Items[0].Metadata["marker"])
	}
}

func TestDetectMixedList(t *testing.T) {
	d := NewDetector()
	det, err := d.Detect("1. ordered\n- unordered")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if det.Structure.ListType != "mixed" {
		t.Errorf("ListType = %q, want mixed", det.Structure.ListType)
	}
	if !det.Structure.HasMixedContent {
		t.Error("HasMixedContent should be true")
	}
}

func TestLevelJumpReportedNotFixed(t *testing.T) {
	d := NewDetector()
	// The second item jumps two ranks deeper: indents 0, 2, 4 all occur,
	// but the jump from rank 0 to rank 2 skips rank 1.
	det, err := d.Detect("- a\n    - deep\n  - mid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, f := range det.Findings {
		if strings.Contains(f, "jumps") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a level-jump finding, got %v", det.Findings)
	}
	// The structure is still built: the deep item attaches to its nearest
	// ancestor rather than being dropped.
	if det.Structure.TotalItems != 3 {
		t.Errorf("TotalItems = %d, want 3", det.Structure.TotalItems)
	}
}

func TestRomanAndAlphaMarkers(t *testing.T) {
	d := NewDetector()
	det, err := d.Detect("ii. second\niv. fourth")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items := det.Structure.Items
	if items[0].Number != 2 {
		t.Errorf("ii -> %d, want 2", items[0].Number)
	}
	if items[1].Number != 4 {
		t.Errorf("iv -> %d, want 4", items[1].Number)
	}

	det, err = d.Detect("b. second\nC) third")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if det.Structure.Items[0].Number != 2 {
		t.Errorf("b -> %d, want 2", det.Structure.Items[0].Number)
	}
	if det.Structure.Items[1].Number != 3 {
		t.Errorf("C -> %d, want 3", det.Structure.Items[1].Number)
	}
}

func TestSingleLetterRomanInRun(t *testing.T) {
	d := NewDetector()

	// "i." alone is ambiguous with alpha item 9; inside a roman-consistent
	// run it must number as roman 1.
	det, err := d.Detect("i. first\nii. second\niii. third")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range []int{1, 2, 3} {
		if got := det.Structure.Items[i].Number; got != want {
			t.Errorf("item %d: Number = %d, want %d", i, got, want)
		}
	}

	// Upper-case runs disambiguate the same way.
	det, err = d.Detect("I. one\nII. two\nIV. four")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range []int{1, 2, 4} {
		if got := det.Structure.Items[i].Number; got != want {
			t.Errorf("item %d: Number = %d, want %d", i, got, want)
		}
	}

	// A plain alphabetic run containing "i" keeps alpha numbering.
	det, err = d.Detect("h. hotel\ni. india\nj. juliett")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range []int{8, 9, 10} {
		if got := det.Structure.Items[i].Number; got != want {
			t.Errorf("item %d: Number = %d, want %d", i, got, want)
		}
	}
}

func TestDetectEmptyTextErrors(t *testing.T) {
	d := NewDetector()
	_, err := d.Detect("  \n\n ")
	if err == nil {
		t.Fatal("expected an error for blank input")
	}
	var see *model.StructureExtractionError
	if !errors.As(err, &see) {
		t.Errorf("expected StructureExtractionError, got %T", err)
	}
}

func TestRomanToNumber(t *testing.T) {
	tests := []struct {
		in  string
		out int
	}{
		{"i", 1},
		{"iv", 4},
		{"ix", 9},
		{"XIV", 14},
		{"mcmxcix", 1999},
	}
	for _, tt := range tests {
		if got := romanToNumber(tt.in); got != tt.out {
			t.Errorf("romanToNumber(%q) = %d, want %d", tt.in, got, tt.out)
		}
	}
}
