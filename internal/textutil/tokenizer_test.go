package textutil

import (
	"errors"
	"reflect"
	"testing"

	"icokit/internal/services"
)

func TestWordTokenizer(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "simple words",
			input: "token sale starts",
			want:  []string{"token", "sale", "starts"},
		},
		{
			name:  "punctuation split off",
			input: "Hello, World! How are you?",
			want:  []string{"Hello", ",", "World", "!", "How", "are", "you", "?"},
		},
		{
			name:  "sentence points",
			input: "launch q . tokens sold.",
			want:  []string{"launch", "q", ".", "tokens", "sold", "."},
		},
		{
			name:  "contractions",
			input: "don't miss the team's roadmap",
			want:  []string{"don", "'t", "miss", "the", "team", "'s", "roadmap"},
		},
		{
			name:  "numbers and unicode",
			input: "café 2018",
			want:  []string{"café", "2018"},
		},
		{
			name:  "empty string",
			input: "",
			want:  []string{},
		},
		{
			name:  "only spaces",
			input: "   \t\n",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WordTokenizer{}.Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize returned error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWordTokenizerRejectsInvalidUTF8(t *testing.T) {
	_, err := WordTokenizer{}.Tokenize("bad \xff")
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"BTC_Bitcoin", "BTC_Bitcoin"},
		{"ETH_Ether/Classic", "ETH_Ether-Classic"},
		{"  X_What? <Now>  ", "X_What Now"},
		{"../etc", "-etc"},
		{"tab\tname", "tabname"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Upcoming", "upcoming"},
		{"Pre Sale", "pre_sale"},
		{"  ", "unknown"},
		{"***", "unknown"},
	}
	for _, tt := range tests {
		if got := SanitizeToken(tt.in); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
