package vocab

import "unicode/utf8"

// Defaults applied by FilterDefaults.
const (
	DefaultMinFreq   = 1
	DefaultMinLength = 3
)

// Frequencies maps a token to its total number of occurrences.
type Frequencies map[string]int

// CountFrequencies counts every token occurrence across all sequences.
func CountFrequencies(seqs [][]string) Frequencies {
	freq := make(Frequencies)
	for _, seq := range seqs {
		for _, token := range seq {
			freq[token]++
		}
	}
	return freq
}

// Filter keeps a token when it occurs at least minFreq times in the whole
// collection and is at least minLength characters long. Counting happens
// once before any token is removed. The result has one entry per input
// sequence, in the same order.
func Filter(seqs [][]string, minFreq, minLength int) [][]string {
	freq := CountFrequencies(seqs)
	out := make([][]string, len(seqs))
	for i, seq := range seqs {
		kept := make([]string, 0, len(seq))
		for _, token := range seq {
			if freq[token] >= minFreq && utf8.RuneCountInString(token) >= minLength {
				kept = append(kept, token)
			}
		}
		out[i] = kept
	}
	return out
}

// FilterDefaults runs Filter with DefaultMinFreq and DefaultMinLength.
func FilterDefaults(seqs [][]string) [][]string {
	return Filter(seqs, DefaultMinFreq, DefaultMinLength)
}
