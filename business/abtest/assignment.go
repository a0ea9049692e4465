package abtest

import (
	"aspectInsight/domain"
	"crypto/md5"
	"strconv"
	"sync"
)

// VariantFor maps a listing id to its variant: MD5 of the decimal id read as a
// big-endian integer, even -> A, odd -> B. Parity of a big-endian integer is
// the low bit of its last byte.
func VariantFor(listingID int64) domain.Variant {
	digest := md5.Sum([]byte(strconv.FormatInt(listingID, 10)))
	if digest[len(digest)-1]&1 == 0 {
		return domain.VariantA
	}
	return domain.VariantB
}

// Assigner memoizes VariantFor per listing for the process lifetime.
type Assigner struct {
	mu          sync.Mutex
	assignments map[int64]domain.Variant
	counts      map[domain.Variant]int
}

func NewAssigner() *Assigner {
	return &Assigner{
		assignments: make(map[int64]domain.Variant),
		counts:      make(map[domain.Variant]int),
	}
}

// Assign returns the listing's variant, computing and caching it on first use.
func (a *Assigner) Assign(listingID int64) domain.Variant {
	a.mu.Lock()
	defer a.mu.Unlock()

	if v, ok := a.assignments[listingID]; ok {
		return v
	}

	v := VariantFor(listingID)
	a.assignments[listingID] = v
	a.counts[v]++
	AssignmentsTotal.WithLabelValues(v.String()).Inc()

	return v
}

// Lookup returns the cached variant without assigning.
func (a *Assigner) Lookup(listingID int64) (domain.Variant, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	v, ok := a.assignments[listingID]
	return v, ok
}

// Counts returns how many listings were first assigned to each variant.
// Diagnostics only; experiment statistics come from the log.
func (a *Assigner) Counts() map[domain.Variant]int {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[domain.Variant]int, len(a.counts))
	for v, n := range a.counts {
		out[v] = n
	}
	return out
}
