package textclean

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"icokit/internal/services"
)

var (
	urlPattern       = regexp.MustCompile(`https?://[-\w.]*[-\w](:\d+)?(/\S*)?`)
	hexPattern       = regexp.MustCompile(`\\[a-z][0-9a-f]+`)
	nonLetters       = regexp.MustCompile(`[^a-zA-Z]`)
	nonLettersPoints = regexp.MustCompile(`[^a-zA-Z.]`)
)

// Cleaner applies a fixed Options value to any number of texts. It is safe
// for concurrent use.
type Cleaner struct {
	opts      Options
	stopwords StopwordSet
}

// New validates opts and resolves the active stopword set once.
func New(opts Options) (*Cleaner, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	c := &Cleaner{opts: opts}
	if !opts.KeepStopwords {
		c.stopwords = opts.stopwords()
	}
	return c, nil
}

// Options returns the configuration the cleaner was built with.
func (c *Cleaner) Options() Options {
	return c.opts
}

// Clean is a convenience wrapper around New and Cleaner.Clean.
func Clean(text string, opts Options) (string, error) {
	c, err := New(opts)
	if err != nil {
		return "", err
	}
	return c.Clean(text)
}

// Clean runs the cleaning steps over text in their fixed order.
func (c *Cleaner) Clean(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", services.Wrap(services.ErrInvalidInput, "clean", "", "text is not valid utf-8", nil)
	}

	out := RemoveURLs(text)
	out = RemoveHex(out)
	if c.opts.Lower {
		out = strings.ToLower(out)
	}
	if c.opts.MinLength > 0 {
		out = RemoveShortWords(out, c.opts.MinLength)
	}
	if !c.opts.KeepStopwords {
		out = RemoveStopwords(out, c.stopwords)
	}
	if c.opts.RemoveHTML {
		stripped, err := RemoveHTML(out)
		if err != nil {
			return "", err
		}
		out = stripped
	}
	if c.opts.OnlyLetters {
		out = RemoveNonLetters(out, c.opts.KeepPoints)
	}
	return OnlyOneSpace(out), nil
}

// RemoveURLs drops every whitespace-delimited token containing an http(s) URL.
func RemoveURLs(text string) string {
	words := strings.Fields(text)
	kept := words[:0]
	for _, word := range words {
		if urlPattern.MatchString(word) {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}

// RemoveHex deletes escaped hex artifacts left by PDF extraction (a
// backslash, a lowercase letter and hex digits, e.g. \xe2) and literal "\n"
// sequences.
func RemoveHex(text string) string {
	return strings.ReplaceAll(hexPattern.ReplaceAllString(text, ""), `\n`, "")
}

// RemoveShortWords keeps only words with at least minLength characters.
func RemoveShortWords(text string, minLength int) string {
	words := strings.Fields(text)
	kept := words[:0]
	for _, word := range words {
		if utf8.RuneCountInString(word) >= minLength {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

// RemoveStopwords drops words that exactly match an entry of stops.
func RemoveStopwords(text string, stops StopwordSet) string {
	words := strings.Fields(text)
	kept := words[:0]
	for _, word := range words {
		if stops.Contains(word) {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}

// RemoveHTML parses text as an HTML fragment and returns its text content.
func RemoveHTML(text string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return "", services.Wrap(services.ErrInvalidInput, "clean", "html", "parse markup", err)
	}
	return doc.Text(), nil
}

// RemoveNonLetters replaces each character outside a-z and A-Z with a space,
// keeping "." as well when keepPoints is set.
func RemoveNonLetters(text string, keepPoints bool) string {
	if keepPoints {
		return nonLettersPoints.ReplaceAllString(text, " ")
	}
	return nonLetters.ReplaceAllString(text, " ")
}

// OnlyOneSpace collapses whitespace runs into single spaces and trims the ends.
func OnlyOneSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
