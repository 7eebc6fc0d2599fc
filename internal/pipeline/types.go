package pipeline

import (
	"time"

	"icokit/internal/vocab"
)

// Stage names how far a document has progressed.
type Stage string

const (
	StageRaw       Stage = "raw"
	StageCleaned   Stage = "cleaned"
	StageTokenized Stage = "tokenized"
	StageFiltered  Stage = "filtered"
	StageEncoded   Stage = "encoded"
	StageFailed    Stage = "failed"
)

// Item is one raw text input.
type Item struct {
	ID   string
	Text string
}

// Document carries an item through the stages. A failed document has
// Stage == StageFailed and a non-nil Err; its other fields hold whatever
// was produced before the failure.
type Document struct {
	ID      string
	Stage   Stage
	Cleaned string
	Tokens  []string
	BOW     []vocab.BowEntry
	Err     error
}

// Failed reports whether the document carries a failure.
func (d Document) Failed() bool {
	return d.Stage == StageFailed
}

// Tokenizer splits cleaned text into tokens. Implementations must be safe
// for concurrent use.
type Tokenizer interface {
	Tokenize(text string) ([]string, error)
}

// TokenizerFunc adapts a function to Tokenizer.
type TokenizerFunc func(text string) ([]string, error)

// Tokenize calls f.
func (f TokenizerFunc) Tokenize(text string) ([]string, error) {
	return f(text)
}

// Summary describes a finished run.
type Summary struct {
	Items      int
	Failed     int
	Tokens     int
	Vocabulary int
	Duration   time.Duration
}

// Result is the output of Run. Documents are in input order.
type Result struct {
	Documents  []Document
	Dictionary *vocab.Dictionary
	Summary    Summary
}

// Failures returns the failed documents in input order.
func (r *Result) Failures() []Document {
	if r == nil {
		return nil
	}
	var out []Document
	for _, doc := range r.Documents {
		if doc.Failed() {
			out = append(out, doc)
		}
	}
	return out
}
