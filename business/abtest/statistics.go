package abtest

import "aspectInsight/domain"

// computeStats partitions the log into interactions and feedback. A variant
// with no feedback keeps AvgRating/FeedbackCount nil.
func computeStats(entries []domain.LogEntry) domain.ExperimentStats {
	var stats domain.ExperimentStats

	unique := map[domain.Variant]map[int64]struct{}{
		domain.VariantA: {},
		domain.VariantB: {},
	}
	ratingSum := map[domain.Variant]float64{}
	ratingCount := map[domain.Variant]int{}

	for _, e := range entries {
		if e.Feedback {
			if stats.ForVariant(e.Variant) == nil {
				stats.UnattributedFeedback++
				continue
			}
			if e.Rating != nil {
				ratingSum[e.Variant] += *e.Rating
				ratingCount[e.Variant]++
			}
			continue
		}

		stats.TotalInteractions++
		vs := stats.ForVariant(e.Variant)
		if vs == nil {
			continue
		}
		vs.Count++
		unique[e.Variant][e.ListingID] = struct{}{}
	}

	for _, v := range []domain.Variant{domain.VariantA, domain.VariantB} {
		vs := stats.ForVariant(v)
		vs.UniqueListings = len(unique[v])

		n := ratingCount[v]
		if n == 0 {
			continue
		}
		avg := ratingSum[v] / float64(n)
		vs.AvgRating = &avg
		vs.FeedbackCount = &n
	}

	return stats
}
