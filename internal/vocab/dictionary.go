package vocab

import (
	"fmt"
	"sort"
)

// BowEntry is one non-zero component of a bag-of-words vector.
type BowEntry struct {
	ID    int `json:"id"`
	Count int `json:"count"`
}

// Dictionary maps tokens to integer ids and tracks document frequencies.
// It is not safe for concurrent mutation.
type Dictionary struct {
	token2id map[string]int
	id2token []string
	docFreq  []int
	numDocs  int
}

// NewDictionary builds a dictionary from the given documents.
func NewDictionary(docs [][]string) *Dictionary {
	d := &Dictionary{token2id: make(map[string]int)}
	d.AddDocuments(docs)
	return d
}

// AddDocuments registers each document's tokens. Tokens first seen in a
// document receive consecutive ids in sorted order.
func (d *Dictionary) AddDocuments(docs [][]string) {
	for _, doc := range docs {
		d.numDocs++
		seen := make(map[string]struct{}, len(doc))
		var fresh []string
		for _, token := range doc {
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			if _, known := d.token2id[token]; !known {
				fresh = append(fresh, token)
			}
		}
		sort.Strings(fresh)
		for _, token := range fresh {
			d.token2id[token] = len(d.id2token)
			d.id2token = append(d.id2token, token)
			d.docFreq = append(d.docFreq, 0)
		}
		for token := range seen {
			d.docFreq[d.token2id[token]]++
		}
	}
}

// ID returns the id of token.
func (d *Dictionary) ID(token string) (int, bool) {
	id, ok := d.token2id[token]
	return id, ok
}

// Token returns the token for id.
func (d *Dictionary) Token(id int) (string, bool) {
	if id < 0 || id >= len(d.id2token) {
		return "", false
	}
	return d.id2token[id], true
}

// Len returns the number of distinct tokens.
func (d *Dictionary) Len() int {
	return len(d.id2token)
}

// NumDocs returns the number of documents added so far.
func (d *Dictionary) NumDocs() int {
	return d.numDocs
}

// DocFreq returns how many documents contain the token with the given id.
func (d *Dictionary) DocFreq(id int) int {
	if id < 0 || id >= len(d.docFreq) {
		return 0
	}
	return d.docFreq[id]
}

// Doc2Bow counts the known tokens of doc and returns them sorted by id.
// Unknown tokens are ignored.
func (d *Dictionary) Doc2Bow(doc []string) []BowEntry {
	counts := make(map[int]int)
	for _, token := range doc {
		if id, ok := d.token2id[token]; ok {
			counts[id]++
		}
	}
	out := make([]BowEntry, 0, len(counts))
	for id, count := range counts {
		out = append(out, BowEntry{ID: id, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Entry describes one dictionary row.
type Entry struct {
	ID      int
	Token   string
	DocFreq int
}

// Entries returns all rows ordered by id.
func (d *Dictionary) Entries() []Entry {
	out := make([]Entry, len(d.id2token))
	for id, token := range d.id2token {
		out[id] = Entry{ID: id, Token: token, DocFreq: d.docFreq[id]}
	}
	return out
}

// Restore rebuilds a dictionary from persisted rows. Ids must be dense and
// start at zero.
func Restore(entries []Entry, numDocs int) (*Dictionary, error) {
	d := &Dictionary{
		token2id: make(map[string]int, len(entries)),
		id2token: make([]string, len(entries)),
		docFreq:  make([]int, len(entries)),
		numDocs:  numDocs,
	}
	for _, e := range entries {
		if e.ID < 0 || e.ID >= len(entries) {
			return nil, fmt.Errorf("restore dictionary: id %d out of range", e.ID)
		}
		if _, dup := d.token2id[e.Token]; dup {
			return nil, fmt.Errorf("restore dictionary: duplicate token %q", e.Token)
		}
		d.token2id[e.Token] = e.ID
		d.id2token[e.ID] = e.Token
		d.docFreq[e.ID] = e.DocFreq
	}
	for id, token := range d.id2token {
		if mapped, ok := d.token2id[token]; !ok || mapped != id {
			return nil, fmt.Errorf("restore dictionary: missing id %d", id)
		}
	}
	return d, nil
}
