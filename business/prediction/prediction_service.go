package prediction

import (
	"aspectInsight/domain"
	"aspectInsight/pkg/logger"
	"aspectInsight/pkg/trace"
	"context"
	"errors"
	"fmt"
)

// ---- Collaborator interfaces ----

type VariantAssigner interface {
	Assign(listingID int64) domain.Variant
}

type AspectSummarizer interface {
	Summarize(ctx context.Context, listingID int64, variant domain.Variant, topK int) (domain.AspectRanking, error)
}

type InteractionRecorder interface {
	RecordInteraction(ctx context.Context, listingID int64, variant domain.Variant, top, bottom []domain.AspectSummary) (domain.LogEntry, error)
	RecordFeedback(ctx context.Context, listingID int64, rating float64, comment string) (domain.LogEntry, error)
}

type PredictionService struct {
	assigner    VariantAssigner
	summarizer  AspectSummarizer
	recorder    InteractionRecorder
	defaultTopK int
}

func NewPredictionService(
	assigner VariantAssigner,
	summarizer AspectSummarizer,
	recorder InteractionRecorder,
	defaultTopK int,
) *PredictionService {
	return &PredictionService{
		assigner:    assigner,
		summarizer:  summarizer,
		recorder:    recorder,
		defaultTopK: defaultTopK,
	}
}

// Predict resolves the listing's variant, ranks its aspects under that variant
// and logs the interaction. Nothing is logged when the listing has no records.
func (s *PredictionService) Predict(ctx context.Context, listingID int64, topK int) (domain.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return domain.Prediction{}, fmt.Errorf("context error: %w", err)
	}
	if topK <= 0 {
		topK = s.defaultTopK
	}

	variant := s.assigner.Assign(listingID)

	ranking, err := s.summarizer.Summarize(ctx, listingID, variant, topK)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Error("Failed to summarize aspects", "listing_id", listingID, "error", err)
		}
		return domain.Prediction{}, err
	}

	if _, err := s.recorder.RecordInteraction(ctx, listingID, variant, ranking.Top, ranking.Bottom); err != nil {
		return domain.Prediction{}, fmt.Errorf("record interaction: %w", err)
	}

	logger.Info("Prediction",
		"trace_id", trace.TraceIDFromContext(ctx),
		"listing_id", listingID,
		"variant", variant,
	)

	return domain.Prediction{
		ListingID: listingID,
		TopK:      topK,
		Variant:   variant,
		Ranking:   ranking,
	}, nil
}

func (s *PredictionService) Feedback(ctx context.Context, listingID int64, rating float64, comment string) error {
	entry, err := s.recorder.RecordFeedback(ctx, listingID, rating, comment)
	if err != nil {
		return err
	}

	logger.Info("Feedback",
		"trace_id", trace.TraceIDFromContext(ctx),
		"listing_id", listingID,
		"variant", entry.Variant,
	)

	return nil
}
