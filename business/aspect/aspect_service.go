package aspect

import (
	"aspectInsight/domain"
	"aspectInsight/pkg/logger"
	"aspectInsight/pkg/trace"
	"context"
	"fmt"
	"sort"
)

const DefaultTopK = 3

// DatasetRepository is the read-only view over the two scoring datasets.
type DatasetRepository interface {
	RecordsFor(listingID int64, variant domain.Variant) []domain.AspectRecord
	HasDates(variant domain.Variant) bool
	ListingIDs(variant domain.Variant) []int64
	IsLoaded() bool
}

type AspectService struct {
	repo        DatasetRepository
	defaultTopK int
}

func NewAspectService(repo DatasetRepository, defaultTopK int) *AspectService {
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	return &AspectService{
		repo:        repo,
		defaultTopK: defaultTopK,
	}
}

// Summarize ranks a listing's aspects for one variant. topK <= 0 uses the
// service default. Returns domain.ErrNotFound when the variant holds no
// records for the listing.
func (s *AspectService) Summarize(
	ctx context.Context,
	listingID int64,
	variant domain.Variant,
	topK int,
) (domain.AspectRanking, error) {
	if err := ctx.Err(); err != nil {
		return domain.AspectRanking{}, fmt.Errorf("context error: %w", err)
	}
	if topK <= 0 {
		topK = s.defaultTopK
	}

	records := s.repo.RecordsFor(listingID, variant)
	if len(records) == 0 {
		return domain.AspectRanking{}, fmt.Errorf("listing %d variant %s: %w", listingID, variant, domain.ErrNotFound)
	}

	groups := aggregateByAspect(records)

	logger.Debug("aspect_summarize",
		"trace_id", trace.TraceIDFromContext(ctx),
		"listing_id", listingID,
		"variant", variant,
		"records", len(records),
		"aspects", len(groups),
		"top_k", topK,
	)

	return rankAspects(groups, topK), nil
}

// Timeline builds per-date series for both variants. A variant without a
// date column or without rows for the listing yields an empty series.
func (s *AspectService) Timeline(ctx context.Context, listingID int64) (domain.Timeline, error) {
	if err := ctx.Err(); err != nil {
		return domain.Timeline{}, fmt.Errorf("context error: %w", err)
	}

	return domain.Timeline{
		Baseline: s.series(listingID, domain.VariantA),
		Advanced: s.series(listingID, domain.VariantB),
	}, nil
}

func (s *AspectService) ListingIDs(variant domain.Variant) []int64 {
	return s.repo.ListingIDs(variant)
}

func (s *AspectService) IsLoaded() bool {
	return s.repo.IsLoaded()
}

func (s *AspectService) series(listingID int64, variant domain.Variant) domain.TimelineSeries {
	if !s.repo.HasDates(variant) {
		return domain.EmptyTimelineSeries()
	}
	return buildSeries(s.repo.RecordsFor(listingID, variant))
}

// ---- Aggregation ----

// aggregateByAspect sums records per aspect, keeping groups in order of
// first appearance.
func aggregateByAspect(records []domain.AspectRecord) []domain.AspectSummary {
	index := make(map[string]int)
	groups := make([]domain.AspectSummary, 0)

	for _, r := range records {
		i, ok := index[r.Aspect]
		if !ok {
			i = len(groups)
			index[r.Aspect] = i
			groups = append(groups, domain.AspectSummary{Aspect: r.Aspect})
		}

		g := &groups[i]
		g.Score += r.Score
		g.Positive += r.Positive
		g.Neutral += r.Neutral
		g.Negative += r.Negative
		g.TotalMentions += r.TotalMentions
	}

	return groups
}

// rankAspects sorts stable on score so equal scores keep first-appearance
// order in both lists.
func rankAspects(groups []domain.AspectSummary, topK int) domain.AspectRanking {
	top := make([]domain.AspectSummary, len(groups))
	copy(top, groups)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Score > top[j].Score
	})

	bottom := make([]domain.AspectSummary, len(groups))
	copy(bottom, groups)
	sort.SliceStable(bottom, func(i, j int) bool {
		return bottom[i].Score < bottom[j].Score
	})

	if topK < len(groups) {
		top = top[:topK]
		bottom = bottom[:topK]
	}

	return domain.AspectRanking{Top: top, Bottom: bottom}
}

// buildSeries groups dated records by calendar day; count is the number of
// records on that day, score the sum of their scores.
func buildSeries(records []domain.AspectRecord) domain.TimelineSeries {
	counts := make(map[string]int)
	scores := make(map[string]float64)

	for _, r := range records {
		if r.Date == nil {
			continue
		}
		day := r.Date.Format(domain.DateLayout)
		counts[day]++
		scores[day] += r.Score
	}

	out := domain.EmptyTimelineSeries()
	if len(counts) == 0 {
		return out
	}

	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)

	for _, d := range days {
		out.Dates = append(out.Dates, d)
		out.Counts = append(out.Counts, counts[d])
		out.Scores = append(out.Scores, scores[d])
	}

	return out
}
