package testsupport

import (
	"context"
	"testing"

	"icokit/internal/config"
	"icokit/internal/corpus"
)

// MustOpenStore opens a corpus.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *corpus.Store {
	t.Helper()

	store, err := corpus.Open(cfg)
	if err != nil {
		t.Fatalf("corpus.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// PutRaw stores raw documents built from id/text pairs under status.
func PutRaw(t testing.TB, store *corpus.Store, status string, pairs ...string) {
	t.Helper()

	if len(pairs)%2 != 0 {
		t.Fatalf("PutRaw needs id/text pairs, got %d values", len(pairs))
	}
	docs := make([]corpus.RawDocument, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		docs = append(docs, corpus.RawDocument{ID: pairs[i], Status: status, Text: pairs[i+1]})
	}
	if err := store.PutRaw(context.Background(), docs); err != nil {
		t.Fatalf("store.PutRaw: %v", err)
	}
}
