package vocab

import (
	"reflect"
	"testing"
)

func TestDictionaryAssignsIDsPerDocumentInSortedOrder(t *testing.T) {
	d := NewDictionary([][]string{
		{"token", "sale", "token"},
		{"wallet", "sale", "audit"},
	})

	wantTokens := []string{"sale", "token", "audit", "wallet"}
	if d.Len() != len(wantTokens) {
		t.Fatalf("Len() = %d, want %d", d.Len(), len(wantTokens))
	}
	for id, want := range wantTokens {
		got, ok := d.Token(id)
		if !ok || got != want {
			t.Errorf("Token(%d) = %q, %v; want %q", id, got, ok, want)
		}
		back, ok := d.ID(want)
		if !ok || back != id {
			t.Errorf("ID(%q) = %d, %v; want %d", want, back, ok, id)
		}
	}

	if d.NumDocs() != 2 {
		t.Errorf("NumDocs() = %d, want 2", d.NumDocs())
	}
	if got := d.DocFreq(0); got != 2 {
		t.Errorf("DocFreq(sale) = %d, want 2", got)
	}
	if got := d.DocFreq(1); got != 1 {
		t.Errorf("DocFreq(token) = %d, want 1", got)
	}
	if got := d.DocFreq(99); got != 0 {
		t.Errorf("DocFreq(out of range) = %d, want 0", got)
	}
	if _, ok := d.Token(-1); ok {
		t.Error("Token(-1) should not be found")
	}
}

func TestDictionaryEmptyDocumentCounts(t *testing.T) {
	d := NewDictionary([][]string{{}, {"ledger"}})
	if d.NumDocs() != 2 {
		t.Fatalf("NumDocs() = %d, want 2", d.NumDocs())
	}
	if d.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", d.Len())
	}
}

func TestDoc2Bow(t *testing.T) {
	d := NewDictionary([][]string{{"token", "sale"}, {"wallet"}})
	got := d.Doc2Bow([]string{"wallet", "token", "unknown", "token"})
	want := []BowEntry{{ID: 1, Count: 2}, {ID: 2, Count: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Doc2Bow() = %v, want %v", got, want)
	}

	if empty := d.Doc2Bow(nil); len(empty) != 0 {
		t.Errorf("Doc2Bow(nil) = %v, want empty", empty)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	d := NewDictionary([][]string{{"alpha", "beta"}, {"beta", "gamma"}})
	restored, err := Restore(d.Entries(), d.NumDocs())
	if err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if !reflect.DeepEqual(restored.Entries(), d.Entries()) {
		t.Errorf("restored entries = %v, want %v", restored.Entries(), d.Entries())
	}
	if restored.NumDocs() != 2 {
		t.Errorf("NumDocs() = %d, want 2", restored.NumDocs())
	}
	doc := []string{"gamma", "alpha"}
	if !reflect.DeepEqual(restored.Doc2Bow(doc), d.Doc2Bow(doc)) {
		t.Error("restored dictionary encodes differently")
	}
}

func TestRestoreRejectsGaps(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{"id out of range", []Entry{{ID: 3, Token: "a"}}},
		{"duplicate token", []Entry{{ID: 0, Token: "a"}, {ID: 1, Token: "a"}}},
		{"duplicate id", []Entry{{ID: 0, Token: "a"}, {ID: 0, Token: "b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Restore(tt.entries, 1); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
