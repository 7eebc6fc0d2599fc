package textclean

import (
	"fmt"

	"icokit/internal/services"
)

// Options controls which cleaning steps run and with which parameters.
// The zero value disables lowering and letter filtering; use DefaultOptions
// for the documented defaults.
type Options struct {
	// MinLength removes whole words shorter than this many characters.
	// Zero disables the filter.
	MinLength int
	// KeepPoints retains "." during letter filtering so text can later be
	// split into sentences.
	KeepPoints bool
	// KeepStopwords disables stopword removal.
	KeepStopwords bool
	// Stopwords overrides the removed word set. Nil or empty means English.
	Stopwords StopwordSet
	// Lower lowercases text before the remaining steps.
	Lower bool
	// RemoveHTML strips markup and keeps only visible text.
	RemoveHTML bool
	// OnlyLetters replaces every character that is not an English letter
	// with a space.
	OnlyLetters bool
}

// DefaultOptions returns the default cleaning configuration with the English
// stopword list injected.
func DefaultOptions() Options {
	return Options{
		Stopwords:   EnglishStopwords(),
		Lower:       true,
		OnlyLetters: true,
	}
}

func (o Options) validate() error {
	if o.MinLength < 0 {
		return services.Wrap(services.ErrInvalidInput, "clean", "options", fmt.Sprintf("min length %d is negative", o.MinLength), nil)
	}
	return nil
}

func (o Options) stopwords() StopwordSet {
	if len(o.Stopwords) == 0 {
		return EnglishStopwords()
	}
	return o.Stopwords
}
