//go:build !integration

package abtest

import (
	"aspectInsight/domain"
	"math"
	"math/rand"
	"testing"
)

// scenario params
const (
	stressNumListings = 20000
	stressMaxID       = 50_000_000
)

func TestAssignmentSplit_Uniform(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := NewAssigner()

	seen := make(map[int64]struct{}, stressNumListings)
	for len(seen) < stressNumListings {
		id := rng.Int63n(stressMaxID)
		seen[id] = struct{}{}
		a.Assign(id)
	}

	counts := a.Counts()
	share := float64(counts[domain.VariantA]) / float64(stressNumListings)

	// 5 sigma for a fair coin over n draws
	tolerance := 5 * 0.5 / math.Sqrt(stressNumListings)
	if math.Abs(share-0.5) > tolerance {
		t.Fatalf("variant A share %.4f outside 0.5±%.4f", share, tolerance)
	}

	t.Logf("[RANDOM IDS] A=%d B=%d share=%.4f", counts[domain.VariantA], counts[domain.VariantB], share)
}

func TestAssignmentSplit_SequentialIDs(t *testing.T) {
	// sequential ids are exactly the case where id%2 would be perfectly
	// alternating; the digest must still split roughly evenly in every block
	const block = 2000

	for start := int64(0); start < 10*block; start += block {
		a := 0
		for id := start; id < start+block; id++ {
			if VariantFor(id) == domain.VariantA {
				a++
			}
		}

		share := float64(a) / block
		tolerance := 5 * 0.5 / math.Sqrt(block)
		if math.Abs(share-0.5) > tolerance {
			t.Fatalf("block %d: share %.4f outside 0.5±%.4f", start, share, tolerance)
		}
	}
}
