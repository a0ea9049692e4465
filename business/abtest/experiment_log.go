package abtest

import (
	"aspectInsight/domain"
	"aspectInsight/pkg/logger"
	"aspectInsight/pkg/trace"
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// ---- Repository interfaces ----

// LogRepository is the durable append target of the experiment log.
type LogRepository interface {
	Append(ctx context.Context, entry domain.LogEntry) error
	LoadAll(ctx context.Context) ([]domain.LogEntry, error)
}

type VariantLookup interface {
	Lookup(listingID int64) (domain.Variant, bool)
}

// ExperimentLog is the append-only interaction/feedback log. The in-memory copy
// is authoritative for statistics; every append is written through to repo
// under the same lock so durable writes never interleave.
type ExperimentLog struct {
	mu          sync.RWMutex
	repo        LogRepository
	lookup      VariantLookup
	entries     []domain.LogEntry
	unpersisted int
	now         func() time.Time
}

// NewExperimentLog reads back whatever repo already holds. A repo that cannot
// be read leaves the log empty rather than failing start-up.
func NewExperimentLog(ctx context.Context, repo LogRepository, lookup VariantLookup) *ExperimentLog {
	l := &ExperimentLog{
		repo:   repo,
		lookup: lookup,
		now:    time.Now,
	}

	entries, err := repo.LoadAll(ctx)
	if err != nil {
		logger.Warn("Could not load experiment log, starting empty", "error", err)
		return l
	}

	l.entries = entries
	logger.Info("Loaded experiment log", "records", len(entries))

	return l
}

func (l *ExperimentLog) RecordInteraction(
	ctx context.Context,
	listingID int64,
	variant domain.Variant,
	top []domain.AspectSummary,
	bottom []domain.AspectSummary,
) (domain.LogEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.LogEntry{}, fmt.Errorf("context error: %w", err)
	}

	topNames, topScores := splitSummaries(top)
	bottomNames, bottomScores := splitSummaries(bottom)

	entry := domain.LogEntry{
		ListingID:     listingID,
		Variant:       variant,
		TopAspects:    topNames,
		BottomAspects: bottomNames,
		TopScores:     topScores,
		BottomScores:  bottomScores,
	}

	return l.append(ctx, entry), nil
}

// RecordFeedback attributes feedback to the variant the listing was served
// under in this process, or VariantUnknown if it never was.
func (l *ExperimentLog) RecordFeedback(
	ctx context.Context,
	listingID int64,
	rating float64,
	comment string,
) (domain.LogEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.LogEntry{}, fmt.Errorf("context error: %w", err)
	}
	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		return domain.LogEntry{}, fmt.Errorf("%w: rating must be a finite number", domain.ErrInvalidInput)
	}

	variant := domain.VariantUnknown
	if l.lookup != nil {
		if v, ok := l.lookup.Lookup(listingID); ok {
			variant = v
		}
	}

	r := rating
	entry := domain.LogEntry{
		ListingID: listingID,
		Variant:   variant,
		Feedback:  true,
		Rating:    &r,
		Comment:   comment,
	}

	return l.append(ctx, entry), nil
}

func (l *ExperimentLog) append(ctx context.Context, entry domain.LogEntry) domain.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	// timestamps never go backwards so insertion order stays timestamp order
	entry.Timestamp = l.now()
	if n := len(l.entries); n > 0 && entry.Timestamp.Before(l.entries[n-1].Timestamp) {
		entry.Timestamp = l.entries[n-1].Timestamp
	}

	l.entries = append(l.entries, entry)

	kind := string(entry.Kind())
	LogEntriesTotal.WithLabelValues(kind, entry.Variant.String()).Inc()

	// the write outlives the request; trace values still flow
	if err := l.repo.Append(context.WithoutCancel(ctx), entry); err != nil {
		perr := &domain.PersistenceError{Op: kind, Err: err}
		l.unpersisted++
		LogPersistFailuresTotal.WithLabelValues(kind).Inc()
		logger.Error("Failed to persist experiment log entry",
			"trace_id", trace.TraceIDFromContext(ctx),
			"listing_id", entry.ListingID,
			"variant", entry.Variant,
			"error", perr,
		)
	}

	return entry
}

// Statistics rescans the whole log on every call.
func (l *ExperimentLog) Statistics() domain.ExperimentStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return computeStats(l.entries)
}

// Query returns entries in chronological order, optionally filtered by
// variant ("" for all) and cut to the most recent limit entries (limit <= 0
// means no limit).
func (l *ExperimentLog) Query(variant domain.Variant, limit int) []domain.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.LogEntry, 0, len(l.entries))
	for _, e := range l.entries {
		if variant != "" && e.Variant != variant {
			continue
		}
		out = append(out, e)
	}

	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}

	return out
}

func (l *ExperimentLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Unpersisted is the number of entries held in memory whose durable write
// failed since start-up.
func (l *ExperimentLog) Unpersisted() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.unpersisted
}

func splitSummaries(in []domain.AspectSummary) ([]string, []float64) {
	names := make([]string, 0, len(in))
	scores := make([]float64, 0, len(in))
	for _, a := range in {
		names = append(names, a.Aspect)
		scores = append(scores, a.Score)
	}
	return names, scores
}
