package escomatch

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/escomatch/metric"
	"github.com/hupe1980/escomatch/taxonomy"
)

// matchDocument scores one document's sentence embeddings against every
// reference entity and returns the IDs whose best sentence similarity is
// strictly greater than the threshold.
//
// A document's score for an entity is the maximum over its sentences, never
// an average: one strong sentence is a match even in an otherwise unrelated
// document. Output order is taxonomy source order.
func matchDocument(sentVecs [][]float32, snapshot *taxonomy.Snapshot, refs map[string][]float32, threshold float32) ([]string, error) {
	matched := roaring.New()

	for ordinal, entity := range snapshot.Entities() {
		ref, ok := refs[entity.ID]
		if !ok {
			continue
		}

		best := float32(math.Inf(-1))
		for _, vec := range sentVecs {
			score, err := metric.CosineSimilarity(vec, ref)
			if err != nil {
				return nil, err
			}
			if score > best {
				best = score
			}
		}

		if best > threshold {
			matched.Add(uint32(ordinal))
		}
	}

	// Ascending ordinal iteration yields source order.
	ids := make([]string, 0, matched.GetCardinality())
	it := matched.Iterator()
	for it.HasNext() {
		ids = append(ids, snapshot.Entities()[it.Next()].ID)
	}
	return ids, nil
}
