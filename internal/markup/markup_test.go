package markup

import (
	"strings"
	"testing"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		unit string
		ok   bool
	}{
		{"376", 376, "", true},
		{"1,243.3mg", 1243.3, "mg", true},
		{"35 g", 35, "g", true},
		{"10%", 10, "%", true},
		{"0mcg", 0, "mcg", true},
		{".5g", 0.5, "g", true},
		{"Calories: 376", 376, "", true},
		{"-4g", 0, "", false},
		{"n/a", 0, "", false},
		{"", 0, "", false},
	}
	for _, tt := range tests {
		v, unit, ok := Number(tt.in)
		if ok != tt.ok {
			t.Errorf("Number(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && (v != tt.want || unit != tt.unit) {
			t.Errorf("Number(%q) = %v %q, want %v %q", tt.in, v, unit, tt.want, tt.unit)
		}
	}
}

func TestClean(t *testing.T) {
	if got := Clean("  Grilled \n\t Chicken Breast "); got != "Grilled Chicken Breast" {
		t.Errorf("unexpected clean result %q", got)
	}
}

func TestTrailingText(t *testing.T) {
	doc := Load(strings.NewReader(`<div><b>Protein</b> 7g<br><b>Sodium</b> <span>1,243.3</span>mg</div>`))
	labels := doc.Find("b")
	if got := TrailingText(labels.Eq(0)); got != "7g" {
		t.Errorf("expected 7g, got %q", got)
	}
	if got := TrailingText(labels.Eq(1)); got != "1,243.3mg" {
		t.Errorf("expected 1,243.3mg, got %q", got)
	}
}

func TestLoadGarbage(t *testing.T) {
	doc := Load(strings.NewReader("\x00\x01 not html"))
	if doc == nil {
		t.Fatal("expected a document")
	}
	if doc.Find("a").Length() != 0 {
		t.Error("expected no links")
	}
}
