package textclean_test

import (
	"math"
	"strings"
	"testing"

	"icokit/internal/textclean"
)

func TestEnglishStopwordsReturnsFreshSet(t *testing.T) {
	a := textclean.EnglishStopwords()
	b := textclean.EnglishStopwords()
	if len(a) != 179 {
		t.Fatalf("expected 179 English stopwords, got %d", len(a))
	}
	delete(a, "the")
	if !b.Contains("the") {
		t.Fatal("mutating one set must not affect another")
	}
}

func TestLoadStopwords(t *testing.T) {
	input := "# custom list\nico\n\n  token  \nsale\n"
	set, err := textclean.LoadStopwords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadStopwords returned error: %v", err)
	}
	if len(set) != 3 {
		t.Fatalf("expected 3 words, got %v", set.Words())
	}
	for _, w := range []string{"ico", "token", "sale"} {
		if !set.Contains(w) {
			t.Fatalf("expected %q in set", w)
		}
	}
	if set.Contains("# custom list") {
		t.Fatal("comments must be skipped")
	}
}

func TestToNumeric(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"$1,234.5", 1234.5},
		{"-0.42 %", -0.42},
		{"12,000,000 BTC", 12000000},
		{"0.00001", 0.00001},
	}
	for _, tt := range tests {
		if got := textclean.ToNumeric(tt.in); got != tt.want {
			t.Errorf("ToNumeric(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, in := range []string{"?", "", "Low Vol", "1.2.3", "-"} {
		if got := textclean.ToNumeric(in); !math.IsNaN(got) {
			t.Errorf("ToNumeric(%q) = %v, want NaN", in, got)
		}
	}
}
