package sectionkey

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		key  string
		want Tuple
	}{
		{"M1", Tuple{Main: 1, Depth: 1}},
		{"M10", Tuple{Main: 10, Depth: 1}},
		{"M3_S2", Tuple{Main: 3, Sub: 2, Depth: 2}},
		{"M3_S10", Tuple{Main: 3, Sub: 10, Depth: 2}},
		{"M4_S4_SS3", Tuple{Main: 4, Sub: 4, SubSub: 3, Depth: 3}},
		{"M7_S2_SS1", Tuple{Main: 7, Sub: 2, SubSub: 1, Depth: 3}},
		{"", Tuple{}},
		{"garbage", Tuple{}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := Parse(tt.key); got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.key, got, tt.want)
			}
		})
	}
}

func TestSort_NumericNotLexicographic(t *testing.T) {
	in := []string{"M2", "M10", "M1", "M3_S2", "M3_S1"}
	want := []string{"M1", "M2", "M3_S1", "M3_S2", "M10"}

	got := Sort(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sort(%v) = %v, want %v", in, got, want)
	}
}

func TestSort_ParentBeforeChildren(t *testing.T) {
	in := []string{"M3_S7_SS1", "M3_S7", "M3", "M4"}
	want := []string{"M3", "M3_S7", "M3_S7_SS1", "M4"}

	got := Sort(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sort(%v) = %v, want %v", in, got, want)
	}
}

func TestSort_Deduplicates(t *testing.T) {
	in := []string{"M2", "M1", "M2", "M1", "M1"}
	want := []string{"M1", "M2"}

	got := Sort(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sort(%v) = %v, want %v", in, got, want)
	}
}

func TestLess_Total(t *testing.T) {
	// Equal keys must compare false both ways.
	if Less("M3_S1", "M3_S1") {
		t.Error("Less(x, x) should be false")
	}
	// Antisymmetry on a depth tie-break pair.
	if Less("M3_S1", "M3") {
		t.Error("child should not sort before its parent")
	}
	if !Less("M3", "M3_S1") {
		t.Error("parent should sort before its child")
	}
}
