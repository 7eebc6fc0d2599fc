package textutil

import (
	"regexp"
	"unicode/utf8"

	"icokit/internal/services"
)

// wordPattern matches a run of letters/digits, an apostrophe suffix such as
// "'s" or "'t", or any single other non-space character.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+|'[\p{L}]+|[^\s\p{L}\p{N}_]`)

// WordTokenizer splits text into word and punctuation tokens. Punctuation,
// including ".", becomes a token of its own and contraction suffixes stay
// attached to their apostrophe ("don't" yields "don", "'t").
type WordTokenizer struct{}

// Tokenize implements pipeline.Tokenizer.
func (WordTokenizer) Tokenize(text string) ([]string, error) {
	if !utf8.ValidString(text) {
		return nil, services.Wrap(services.ErrInvalidInput, "tokenize", "words", "text is not valid UTF-8", nil)
	}
	tokens := wordPattern.FindAllString(text, -1)
	if tokens == nil {
		tokens = []string{}
	}
	return tokens, nil
}
