package pipeline_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	"icokit/internal/logging"
	"icokit/internal/pipeline"
	"icokit/internal/services"
	"icokit/internal/textclean"
	"icokit/internal/vocab"
)

func newProcessor(t *testing.T, opts pipeline.Options) *pipeline.Processor {
	t.Helper()
	if opts.Cleaning.Stopwords == nil {
		opts.Cleaning = textclean.DefaultOptions()
	}
	p, err := pipeline.New(opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return p
}

func jsonLogger(t *testing.T) (*bytes.Buffer, *sync.Mutex, pipeline.Options) {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &lockedWriter{mu: &mu, w: &buf}})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	return &buf, &mu, pipeline.Options{Logger: logger}
}

type lockedWriter struct {
	mu *sync.Mutex
	w  *bytes.Buffer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func TestRunEndToEnd(t *testing.T) {
	p := newProcessor(t, pipeline.Options{
		Workers:   4,
		MinFreq:   pipeline.DefaultMinFreq,
		MinLength: pipeline.DefaultMinLength,
	})
	items := []pipeline.Item{
		{ID: "btc", Text: "The token sale opens with a bonus. Visit https://example.com/sale now!"},
		{ID: "eth", Text: "Token holders receive a bonus after the token sale."},
		{ID: "xrp", Text: "Ledger escrow for the token."},
	}

	result, err := p.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.Documents) != len(items) {
		t.Fatalf("expected %d documents, got %d", len(items), len(result.Documents))
	}
	for i, doc := range result.Documents {
		if doc.ID != items[i].ID {
			t.Fatalf("document %d id = %q, want %q", i, doc.ID, items[i].ID)
		}
		if doc.Stage != pipeline.StageEncoded {
			t.Fatalf("document %s stage = %s", doc.ID, doc.Stage)
		}
	}

	// "token" appears 4 times, "sale" and "bonus" twice; everything else once.
	want := [][]string{
		{"token", "sale", "bonus"},
		{"token", "bonus", "token", "sale"},
		{"token"},
	}
	for i, doc := range result.Documents {
		if !reflect.DeepEqual(doc.Tokens, want[i]) {
			t.Errorf("document %s tokens = %v, want %v", doc.ID, doc.Tokens, want[i])
		}
	}
	if result.Dictionary.Len() != 3 {
		t.Fatalf("dictionary size = %d, want 3", result.Dictionary.Len())
	}
	tokenID, _ := result.Dictionary.ID("token")
	bowHasToken := func(bow []vocab.BowEntry, count int) bool {
		for _, e := range bow {
			if e.ID == tokenID {
				return e.Count == count
			}
		}
		return false
	}
	if !bowHasToken(result.Documents[1].BOW, 2) {
		t.Errorf("expected token count 2 in %v", result.Documents[1].BOW)
	}
	if result.Summary.Items != 3 || result.Summary.Failed != 0 || result.Summary.Tokens != 8 || result.Summary.Vocabulary != 3 {
		t.Errorf("unexpected summary %+v", result.Summary)
	}
}

func TestRunPartialTokenizerFailure(t *testing.T) {
	buf, mu, opts := jsonLogger(t)
	opts.Workers = 3
	opts.MinFreq = 1
	opts.Tokenizer = pipeline.TokenizerFunc(func(text string) ([]string, error) {
		if strings.Contains(text, "three") {
			return nil, errors.New("tokenizer exploded")
		}
		return strings.Fields(text), nil
	})
	p := newProcessor(t, opts)

	words := []string{"one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten"}
	items := make([]pipeline.Item, len(words))
	for i, w := range words {
		items[i] = pipeline.Item{ID: fmt.Sprintf("item-%02d", i+1), Text: "ledger " + w}
	}

	result, err := p.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.Documents) != 10 {
		t.Fatalf("expected 10 documents, got %d", len(result.Documents))
	}
	for i, doc := range result.Documents {
		if i == 2 {
			if !doc.Failed() || doc.Err == nil {
				t.Fatalf("item 3 should be failed, got %+v", doc)
			}
			if !errors.Is(doc.Err, services.ErrItemProcessing) {
				t.Fatalf("expected ErrItemProcessing marker, got %v", doc.Err)
			}
			if doc.Tokens != nil || doc.BOW != nil {
				t.Fatalf("failed document must not carry tokens: %+v", doc)
			}
			continue
		}
		if doc.Failed() || doc.Stage != pipeline.StageEncoded {
			t.Fatalf("item %d unexpectedly in stage %s (%v)", i+1, doc.Stage, doc.Err)
		}
		if doc.ID != items[i].ID {
			t.Fatalf("order broken at %d: %s", i, doc.ID)
		}
	}
	if result.Summary.Failed != 1 {
		t.Fatalf("summary failed = %d, want 1", result.Summary.Failed)
	}
	if _, ok := result.Dictionary.ID("three"); ok {
		t.Fatal("failed document must not contribute to the dictionary")
	}
	if got := result.Dictionary.DocFreq(mustID(t, result.Dictionary, "ledger")); got != 9 {
		t.Fatalf("ledger doc freq = %d, want 9", got)
	}
	if failures := result.Failures(); len(failures) != 1 || failures[0].ID != "item-03" {
		t.Fatalf("unexpected failures %+v", failures)
	}

	mu.Lock()
	defer mu.Unlock()
	found := false
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var record map[string]any
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		if record["msg"] == "item failed" {
			found = true
			if record["item_id"] != "item-03" || record["stage"] != "tokenized" || record["level"] != "warn" {
				t.Fatalf("unexpected failure log %v", record)
			}
		}
	}
	if !found {
		t.Fatalf("expected an item failure log line, got %s", buf.String())
	}
}

func mustID(t *testing.T, d *vocab.Dictionary, token string) int {
	t.Helper()
	id, ok := d.ID(token)
	if !ok {
		t.Fatalf("token %q missing from dictionary", token)
	}
	return id
}

func TestZeroThresholdsDisableFiltering(t *testing.T) {
	p := newProcessor(t, pipeline.Options{MinFreq: 1, MinLength: 0})
	result, err := p.Run(context.Background(), []pipeline.Item{{ID: "a", Text: "ox ox ledger"}})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := result.Documents[0].Tokens; !reflect.DeepEqual(got, []string{"ox", "ox", "ledger"}) {
		t.Fatalf("tokens = %v, want [ox ox ledger]", got)
	}

	p = newProcessor(t, pipeline.Options{MinFreq: 0, MinLength: 0})
	result, err = p.Run(context.Background(), []pipeline.Item{{ID: "a", Text: "ox ledger"}, {ID: "b", Text: "wallet"}})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Dictionary.Len() != 3 {
		t.Fatalf("dictionary size = %d, want 3", result.Dictionary.Len())
	}
}

func TestRunCleanerFailureIsIsolated(t *testing.T) {
	p := newProcessor(t, pipeline.Options{MinFreq: 1})
	items := []pipeline.Item{
		{ID: "good", Text: "escrow wallet"},
		{ID: "bad", Text: "broken \xff bytes"},
	}
	result, err := p.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	bad := result.Documents[1]
	if !bad.Failed() || !errors.Is(bad.Err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid input failure, got %+v", bad)
	}
	if result.Documents[0].Stage != pipeline.StageEncoded {
		t.Fatalf("good document stage = %s", result.Documents[0].Stage)
	}
}

func TestRunRecoversTokenizerPanic(t *testing.T) {
	p := newProcessor(t, pipeline.Options{
		MinFreq: 1,
		Tokenizer: pipeline.TokenizerFunc(func(text string) ([]string, error) {
			if text == "panic" {
				panic("tokenizer bug")
			}
			return strings.Fields(text), nil
		}),
	})
	result, err := p.Run(context.Background(), []pipeline.Item{{ID: "a", Text: "panic"}, {ID: "b", Text: "ledger"}})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.Documents[0].Failed() || result.Documents[1].Failed() {
		t.Fatalf("unexpected stages: %s, %s", result.Documents[0].Stage, result.Documents[1].Stage)
	}
}

func TestRunPreservesOrderForLargeBatches(t *testing.T) {
	p := newProcessor(t, pipeline.Options{Workers: 8, MinFreq: 1, MinLength: 1})
	items := make([]pipeline.Item, 3000)
	for i := range items {
		items[i] = pipeline.Item{ID: fmt.Sprintf("doc-%04d", i), Text: strings.Repeat("x", i%7+1) + " wallet"}
	}
	result, err := p.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	for i, doc := range result.Documents {
		if doc.ID != items[i].ID {
			t.Fatalf("position %d holds %s", i, doc.ID)
		}
		if doc.Tokens[0] != strings.Repeat("x", i%7+1) {
			t.Fatalf("document %s tokens %v", doc.ID, doc.Tokens)
		}
	}
}

func TestRunAbortsOnInterrupt(t *testing.T) {
	p := newProcessor(t, pipeline.Options{
		Workers: 2,
		Tokenizer: pipeline.TokenizerFunc(func(text string) ([]string, error) {
			if text == "stop" {
				return nil, services.Wrap(services.ErrInterrupted, "tokenize", "remote", "caller stopped", nil)
			}
			return strings.Fields(text), nil
		}),
	})
	items := []pipeline.Item{{ID: "1", Text: "ledger"}, {ID: "2", Text: "stop"}, {ID: "3", Text: "wallet"}}
	result, err := p.Run(context.Background(), items)
	if !errors.Is(err, services.ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if result != nil {
		t.Fatalf("expected no result on interrupt, got %+v", result)
	}
}

func TestRunAbortsOnCancelledContext(t *testing.T) {
	p := newProcessor(t, pipeline.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Run(ctx, []pipeline.Item{{ID: "1", Text: "ledger"}})
	if !errors.Is(err, services.ErrInterrupted) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected interrupt wrapping context.Canceled, got %v", err)
	}
}

func TestRunEmptyBatch(t *testing.T) {
	p := newProcessor(t, pipeline.Options{})
	result, err := p.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.Documents) != 0 || result.Dictionary.Len() != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestStagesCanRunIndividually(t *testing.T) {
	p := newProcessor(t, pipeline.Options{MinFreq: 1, MinLength: 4})
	docs, err := p.Clean(context.Background(), []pipeline.Item{{ID: "a", Text: "The big ICO roadmap"}})
	if err != nil {
		t.Fatalf("Clean returned error: %v", err)
	}
	if docs[0].Stage != pipeline.StageCleaned || docs[0].Cleaned != "big ico roadmap" {
		t.Fatalf("unexpected cleaned doc %+v", docs[0])
	}
	if err := p.Tokenize(context.Background(), docs); err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}
	if docs[0].Stage != pipeline.StageTokenized || len(docs[0].Tokens) != 3 {
		t.Fatalf("unexpected tokenized doc %+v", docs[0])
	}
	p.FilterTokens(docs)
	if docs[0].Stage != pipeline.StageFiltered || !reflect.DeepEqual(docs[0].Tokens, []string{"roadmap"}) {
		t.Fatalf("unexpected filtered doc %+v", docs[0])
	}
	dict := p.Encode(docs)
	if docs[0].Stage != pipeline.StageEncoded || dict.Len() != 1 {
		t.Fatalf("unexpected encoded doc %+v", docs[0])
	}
}

func TestProgressCallback(t *testing.T) {
	var mu sync.Mutex
	seen := map[pipeline.Stage]int{}
	p := newProcessor(t, pipeline.Options{
		Workers: 4,
		OnProgress: func(stage pipeline.Stage, done, total int) {
			mu.Lock()
			defer mu.Unlock()
			if done > seen[stage] {
				seen[stage] = done
			}
		},
	})
	items := make([]pipeline.Item, 20)
	for i := range items {
		items[i] = pipeline.Item{ID: fmt.Sprint(i), Text: "ledger wallet"}
	}
	if _, err := p.Run(context.Background(), items); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if seen[pipeline.StageCleaned] != 20 || seen[pipeline.StageTokenized] != 20 {
		t.Fatalf("unexpected progress %v", seen)
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	for name, opts := range map[string]pipeline.Options{
		"negative workers":    {Workers: -1},
		"negative min length": {MinLength: -1},
		"bad cleaning":        {Cleaning: textclean.Options{MinLength: -1}},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := pipeline.New(opts); !errors.Is(err, services.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
