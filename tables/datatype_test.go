package tables

import "testing"

func TestClassifyValue(t *testing.T) {
	dt := NewDataTyper()
	tests := []struct {
		value    string
		expected string
	}{
		{"42", "integer"},
		{"-17", "integer"},
		{"1,234", "integer"},
		{"3.14", "float"},
		{"-0.5", "float"},
		{"45%", "percentage"},
		{"$1,200.50", "currency"},
		{"€300", "currency"},
		{"2024-01-15", "date_iso"},
		{"1/15/2024", "date_us"},
		{"15 Jan 2024", "date_long"},
		{"14:30", "time"},
		{"2:30 PM", "time"},
		{"user@example.com", "email"},
		{"+47 22 33 44 55", "phone"},
		{"https://example.com/x", "url"},
		{"www.example.com", "url"},
		{"true", "boolean"},
		{"No", "boolean"},
		{"hello world", "text"},
		{"", "text"},
	}

	for _, tt := range tests {
		if got, _ := dt.ClassifyValue(tt.value); got != tt.expected {
			t.Errorf("ClassifyValue(%q) = %q, want %q", tt.value, got, tt.expected)
		}
	}
}

func TestClassifyColumnThreshold(t *testing.T) {
	dt := NewDataTyper()

	// 3 of 4 values are integers: 75% clears the 60% threshold.
	if got, _ := dt.ClassifyColumn([]string{"1", "2", "3", "x"}); got != "integer" {
		t.Errorf("ClassifyColumn = %q, want integer", got)
	}

	// Half integers does not clear the threshold.
	if got, _ := dt.ClassifyColumn([]string{"1", "2", "x", "y"}); got != "text" {
		t.Errorf("ClassifyColumn = %q, want text", got)
	}
}

func TestClassifyColumnFloatMinority(t *testing.T) {
	dt := NewDataTyper()

	// Mostly integers with a meaningful float minority: typed float.
	got, _ := dt.ClassifyColumn([]string{"1", "2", "3", "4.5"})
	if got != "float" {
		t.Errorf("ClassifyColumn = %q, want float", got)
	}

	// A tiny float share stays integer.
	got, _ = dt.ClassifyColumn([]string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10.5"})
	if got != "integer" {
		t.Errorf("ClassifyColumn = %q, want integer", got)
	}
}

func TestClassifyColumnEmpty(t *testing.T) {
	dt := NewDataTyper()
	got, conf := dt.ClassifyColumn([]string{"", "  ", ""})
	if got != "text" || conf != 0 {
		t.Errorf("ClassifyColumn on empties = (%q, %f), want (text, 0)", got, conf)
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"integer", "number"},
		{"float", "number"},
		{"date_iso", "date"},
		{"date_us", "date"},
		{"date_long", "date"},
		{"boolean", "boolean"},
		{"email", "email"},
		{"nonsense", "text"},
		{"text", "text"},
	}
	for _, tt := range tests {
		if got := Canonical(tt.raw); got != tt.expected {
			t.Errorf("Canonical(%q) = %q, want %q", tt.raw, got, tt.expected)
		}
	}
}

func TestTypeColumns(t *testing.T) {
	dt := NewDataTyper()
	rows := [][]string{
		{"John", "25", "2024-01-01"},
		{"Jane", "30", "2024-02-01"},
		{"Bob", "41", "2024-03-01"},
	}

	types, coverage := dt.TypeColumns(rows)
	want := []string{"text", "number", "date"}
	for i, w := range want {
		if types[i] != w {
			t.Errorf("types[%d] = %q, want %q", i, types[i], w)
		}
	}
	if coverage < 0.6 || coverage > 0.7 {
		t.Errorf("coverage = %f, want 2/3", coverage)
	}
}
