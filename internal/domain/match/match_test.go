package match_test

import (
	"math"
	"testing"

	"github.com/okian/presence/internal/domain/match"
	"github.com/okian/presence/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// withSimilarity builds a unit vector whose cosine similarity to (1, 0) is s.
func withSimilarity(s float64) model.Embedding {
	return model.Embedding{float32(s), float32(math.Sqrt(1 - s*s))}
}

var query = model.Embedding{1, 0}

func TestCosine(t *testing.T) {
	Convey("Given the cosine similarity function", t, func() {
		Convey("Then identical vectors should score 1", func() {
			So(match.Cosine([]float32{0.3, 0.4}, []float32{0.3, 0.4}), ShouldAlmostEqual, 1, 1e-6)
		})

		Convey("Then opposite vectors should score -1", func() {
			So(match.Cosine([]float32{1, 0}, []float32{-1, 0}), ShouldAlmostEqual, -1, 1e-6)
		})

		Convey("Then orthogonal vectors should score 0", func() {
			So(match.Cosine([]float32{1, 0}, []float32{0, 1}), ShouldAlmostEqual, 0, 1e-6)
		})

		Convey("Then mismatched lengths should score -1", func() {
			So(match.Cosine([]float32{1, 0}, []float32{1}), ShouldEqual, -1)
		})

		Convey("Then zero vectors should score -1", func() {
			So(match.Cosine([]float32{0, 0}, []float32{1, 0}), ShouldEqual, -1)
		})

		Convey("Then magnitude should not matter", func() {
			So(match.Cosine([]float32{2, 0}, []float32{5, 0}), ShouldAlmostEqual, 1, 1e-6)
		})
	})
}

func TestScore(t *testing.T) {
	Convey("Given a query and stored embeddings with known similarities", t, func() {
		stored := []model.Embedding{
			withSimilarity(0.9),
			withSimilarity(0.8),
			withSimilarity(0.3),
		}

		Convey("Then top-2 mean should average the two best", func() {
			So(match.Score(query, stored, 2), ShouldAlmostEqual, 0.85, 1e-4)
		})

		Convey("Then k larger than the set should be capped", func() {
			So(match.Score(query, stored, 10), ShouldAlmostEqual, (0.9+0.8+0.3)/3, 1e-4)
		})

		Convey("Then an empty set should score negative infinity", func() {
			So(math.IsInf(match.Score(query, nil, 2), -1), ShouldBeTrue)
		})
	})
}

func TestMatch(t *testing.T) {
	Convey("Given a store with alice enrolled", t, func() {
		candidates := []match.Candidate{
			{Name: "alice", Embeddings: []model.Embedding{
				withSimilarity(0.9),
				withSimilarity(0.8),
				withSimilarity(0.3),
			}},
		}

		Convey("When the top-2 mean clears the threshold", func() {
			name := match.Match(query, candidates, 0.75, 2)

			Convey("Then alice should be returned", func() {
				So(name, ShouldEqual, "alice")
			})
		})

		Convey("When every similarity is low", func() {
			weak := []match.Candidate{
				{Name: "alice", Embeddings: []model.Embedding{
					withSimilarity(0.5),
					withSimilarity(0.4),
					withSimilarity(0.3),
				}},
			}
			name := match.Match(query, weak, 0.75, 2)

			Convey("Then unknown should be returned", func() {
				So(name, ShouldEqual, model.Unknown)
			})
		})
	})

	Convey("Given multiple candidates", t, func() {
		candidates := []match.Candidate{
			{Name: "alice", Embeddings: []model.Embedding{withSimilarity(0.8)}},
			{Name: "bob", Embeddings: []model.Embedding{withSimilarity(0.95)}},
			{Name: "carol", Embeddings: nil},
		}

		Convey("Then the best-scoring candidate wins", func() {
			So(match.Match(query, candidates, 0.75, 5), ShouldEqual, "bob")
		})

		Convey("Then a result is always a stored name or unknown", func() {
			name := match.Match(query, candidates, 0.99, 5)
			So(name, ShouldBeIn, "alice", "bob", model.Unknown)
		})

		Convey("And on an exact tie the first candidate in order wins", func() {
			tied := []match.Candidate{
				{Name: "first", Embeddings: []model.Embedding{withSimilarity(0.9)}},
				{Name: "second", Embeddings: []model.Embedding{withSimilarity(0.9)}},
			}
			So(match.Match(query, tied, 0.5, 1), ShouldEqual, "first")
		})

		Convey("And candidates with no embeddings are skipped", func() {
			empty := []match.Candidate{{Name: "carol", Embeddings: nil}}
			So(match.Match(query, empty, 0.1, 1), ShouldEqual, model.Unknown)
		})
	})
}
