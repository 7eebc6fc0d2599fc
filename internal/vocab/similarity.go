package vocab

import (
	"math"
	"sort"
)

// IDF returns log((N+1)/(1+df)) for every token id. Tokens present in every
// document get a weight close to zero and barely influence similarity.
func (d *Dictionary) IDF() []float64 {
	weights := make([]float64, len(d.docFreq))
	n := float64(d.numDocs)
	for id, df := range d.docFreq {
		weights[id] = math.Log((n + 1) / (1 + float64(df)))
	}
	return weights
}

// Vector is a bag of words with per-token weights.
type Vector struct {
	weights map[int]float64
	norm    float64
}

// NewVector weights each count of bow by idf. Ids outside idf keep their
// raw count; a nil idf leaves every count unweighted. Returns nil when no
// component has a non-zero weight.
func NewVector(bow []BowEntry, idf []float64) *Vector {
	weights := make(map[int]float64, len(bow))
	var sum float64
	for _, e := range bow {
		w := float64(e.Count)
		if e.ID >= 0 && e.ID < len(idf) {
			w *= idf[e.ID]
		}
		if w == 0 {
			continue
		}
		weights[e.ID] += w
	}
	if len(weights) == 0 {
		return nil
	}
	for _, w := range weights {
		sum += w * w
	}
	return &Vector{weights: weights, norm: math.Sqrt(sum)}
}

// Len returns the number of weighted components.
func (v *Vector) Len() int {
	if v == nil {
		return 0
	}
	return len(v.weights)
}

// Cosine returns the cosine similarity of a and b, 0 when either is empty.
func Cosine(a, b *Vector) float64 {
	if a.Len() == 0 || b.Len() == 0 || a.norm == 0 || b.norm == 0 {
		return 0
	}
	if len(b.weights) < len(a.weights) {
		a, b = b, a
	}
	var dot float64
	for id, w := range a.weights {
		dot += w * b.weights[id]
	}
	return dot / (a.norm * b.norm)
}

// Pair is the similarity score of two documents.
type Pair struct {
	Left  string
	Right string
	Score float64
}

// SimilarPairs compares every pair of bags of words weighted by idf and
// returns those scoring at least threshold, highest first. Ties keep input
// order. A limit of zero or less returns every pair.
func SimilarPairs(ids []string, bows [][]BowEntry, idf []float64, threshold float64, limit int) []Pair {
	vectors := make([]*Vector, len(bows))
	for i, bow := range bows {
		vectors[i] = NewVector(bow, idf)
	}

	var pairs []Pair
	for i := range vectors {
		for j := i + 1; j < len(vectors); j++ {
			score := Cosine(vectors[i], vectors[j])
			if score == 0 || score < threshold {
				continue
			}
			pairs = append(pairs, Pair{Left: ids[i], Right: ids[j], Score: score})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Score > pairs[j].Score })
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}
