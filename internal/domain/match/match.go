// Package match implements identity matching of face embeddings against
// enrolled people using top-k mean cosine similarity.
package match

import (
	"math"
	"sort"

	"github.com/okian/presence/internal/domain/model"
)

// Default matching configuration constants.
const (
	// DefaultThreshold is the minimum top-k mean similarity for a match.
	DefaultThreshold = 0.75
	// DefaultTopK is the number of best per-person similarities averaged.
	// Averaging across several enrollment images keeps one noisy or
	// occluded image from dominating the score.
	DefaultTopK = 5
)

// Candidate is one enrolled person with their stored embeddings. Candidates
// are evaluated in slice order; on an exact score tie the earlier candidate
// wins, so callers should supply insertion order for determinism.
type Candidate struct {
	Name       string
	Embeddings []model.Embedding
}

// Cosine computes cosine similarity between two vectors, clamped to [-1, 1].
// Mismatched or zero-length vectors score -1, the worst possible similarity.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return -1
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return -1
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to handle floating point drift.
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return sim
}

// Score computes the top-k mean cosine similarity between a query and a set
// of stored embeddings. k is capped at len(embeddings). An empty set scores
// math.Inf(-1).
func Score(query model.Embedding, embeddings []model.Embedding, k int) float64 {
	if len(embeddings) == 0 || k < 1 {
		return math.Inf(-1)
	}
	if k > len(embeddings) {
		k = len(embeddings)
	}

	sims := make([]float64, 0, len(embeddings))
	for _, e := range embeddings {
		sims = append(sims, Cosine(query, e))
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sims)))

	var sum float64
	for _, s := range sims[:k] {
		sum += s
	}
	return sum / float64(k)
}

// Match returns the best-scoring candidate name, or model.Unknown when the
// best top-k mean similarity falls strictly below threshold. Pure function;
// safe for concurrent use against an immutable candidate snapshot.
func Match(query model.Embedding, candidates []Candidate, threshold float64, k int) string {
	best := math.Inf(-1)
	name := model.Unknown

	for _, c := range candidates {
		if len(c.Embeddings) == 0 {
			continue
		}
		// Strictly-greater keeps the first candidate on exact ties.
		if s := Score(query, c.Embeddings, k); s > best {
			best = s
			name = c.Name
		}
	}

	if best < threshold {
		return model.Unknown
	}
	return name
}
