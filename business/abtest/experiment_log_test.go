package abtest

import (
	"aspectInsight/domain"
	"aspectInsight/pkg/trace"
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLogRepo struct {
	mu        sync.Mutex
	existing  []domain.LogEntry
	loadErr   error
	appendErr error
	appended  []domain.LogEntry
}

func (r *fakeLogRepo) Append(_ context.Context, entry domain.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	r.appended = append(r.appended, entry)
	return nil
}

func (r *fakeLogRepo) LoadAll(context.Context) ([]domain.LogEntry, error) {
	return r.existing, r.loadErr
}

func summaries(pairs ...any) []domain.AspectSummary {
	out := []domain.AspectSummary{}
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, domain.AspectSummary{Aspect: pairs[i].(string), Score: pairs[i+1].(float64)})
	}
	return out
}

func TestInteractionThenFeedback_Statistics(t *testing.T) {
	ctx := context.Background()
	assigner := NewAssigner()
	repo := &fakeLogRepo{}
	log := NewExperimentLog(ctx, repo, assigner)

	variant := assigner.Assign(101)
	_, err := log.RecordInteraction(ctx, 101, variant, summaries("clean", 5.0), summaries("noise", -3.0))
	require.NoError(t, err)

	fb, err := log.RecordFeedback(ctx, 101, 4, "useful")
	require.NoError(t, err)
	assert.Equal(t, variant, fb.Variant)
	assert.True(t, fb.Feedback)

	stats := log.Statistics()
	assert.Equal(t, 1, stats.TotalInteractions)

	vs := stats.ForVariant(variant)
	require.NotNil(t, vs)
	assert.Equal(t, 1, vs.Count)
	assert.Equal(t, 1, vs.UniqueListings)
	require.NotNil(t, vs.FeedbackCount)
	require.NotNil(t, vs.AvgRating)
	assert.Equal(t, 1, *vs.FeedbackCount)
	assert.Equal(t, 4.0, *vs.AvgRating)

	other := domain.VariantA
	if variant == domain.VariantA {
		other = domain.VariantB
	}
	otherStats := stats.ForVariant(other)
	assert.Nil(t, otherStats.AvgRating)
	assert.Nil(t, otherStats.FeedbackCount)

	assert.Len(t, repo.appended, 2)
}

func TestRecordInteraction_EncodesAspects(t *testing.T) {
	ctx := context.Background()
	log := NewExperimentLog(ctx, &fakeLogRepo{}, NewAssigner())

	entry, err := log.RecordInteraction(ctx, 7, domain.VariantB,
		summaries("x", 5.0, "z", 1.0),
		summaries("y", -3.0, "z", 1.0),
	)
	require.NoError(t, err)

	assert.Equal(t, domain.KindInteraction, entry.Kind())
	assert.Equal(t, []string{"x", "z"}, entry.TopAspects)
	assert.Equal(t, []float64{5, 1}, entry.TopScores)
	assert.Equal(t, []string{"y", "z"}, entry.BottomAspects)
	assert.Equal(t, []float64{-3, 1}, entry.BottomScores)
	assert.False(t, entry.Timestamp.IsZero())
}

func TestRecordFeedback_UnknownVariant(t *testing.T) {
	ctx := context.Background()
	log := NewExperimentLog(ctx, &fakeLogRepo{}, NewAssigner())

	entry, err := log.RecordFeedback(ctx, 555, 2, "")
	require.NoError(t, err)
	assert.Equal(t, domain.VariantUnknown, entry.Variant)

	stats := log.Statistics()
	assert.Equal(t, 0, stats.TotalInteractions)
	assert.Equal(t, 1, stats.UnattributedFeedback)
	assert.Nil(t, stats.VariantA.FeedbackCount)
	assert.Nil(t, stats.VariantB.FeedbackCount)
}

func TestRecordFeedback_RejectsNonFiniteRating(t *testing.T) {
	ctx := context.Background()
	log := NewExperimentLog(ctx, &fakeLogRepo{}, NewAssigner())

	for _, r := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := log.RecordFeedback(ctx, 1, r, "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
	assert.Equal(t, 0, log.Len())
}

func TestAppend_PersistenceFailureKeepsMemoryCopy(t *testing.T) {
	ctx := context.Background()
	repo := &fakeLogRepo{appendErr: errors.New("disk full")}
	log := NewExperimentLog(ctx, repo, NewAssigner())

	_, err := log.RecordInteraction(ctx, 1, domain.VariantA, nil, nil)
	require.NoError(t, err)
	_, err = log.RecordFeedback(ctx, 1, 5, "")
	require.NoError(t, err)

	assert.Equal(t, 2, log.Len())
	assert.Equal(t, 2, log.Unpersisted())
	assert.Equal(t, 1, log.Statistics().TotalInteractions)
}

func TestNewExperimentLog_LoadsExisting(t *testing.T) {
	ctx := context.Background()
	rating := 3.0
	repo := &fakeLogRepo{existing: []domain.LogEntry{
		{Timestamp: time.Unix(100, 0), ListingID: 1, Variant: domain.VariantA},
		{Timestamp: time.Unix(101, 0), ListingID: 1, Variant: domain.VariantA},
		{Timestamp: time.Unix(102, 0), ListingID: 2, Variant: domain.VariantB},
		{Timestamp: time.Unix(103, 0), ListingID: 1, Variant: domain.VariantA, Feedback: true, Rating: &rating},
	}}

	log := NewExperimentLog(ctx, repo, NewAssigner())
	stats := log.Statistics()

	assert.Equal(t, 3, stats.TotalInteractions)
	assert.Equal(t, 2, stats.VariantA.Count)
	assert.Equal(t, 1, stats.VariantA.UniqueListings)
	assert.Equal(t, 1, stats.VariantB.Count)
	require.NotNil(t, stats.VariantA.AvgRating)
	assert.Equal(t, 3.0, *stats.VariantA.AvgRating)
}

func TestNewExperimentLog_LoadFailureStartsEmpty(t *testing.T) {
	log := NewExperimentLog(context.Background(), &fakeLogRepo{loadErr: errors.New("corrupt")}, NewAssigner())
	assert.Equal(t, 0, log.Len())
}

func TestQuery_FilterAndTail(t *testing.T) {
	ctx := context.Background()
	log := NewExperimentLog(ctx, &fakeLogRepo{}, NewAssigner())

	for id := int64(1); id <= 6; id++ {
		v := domain.VariantA
		if id%2 == 0 {
			v = domain.VariantB
		}
		_, err := log.RecordInteraction(ctx, id, v, nil, nil)
		require.NoError(t, err)
	}

	all := log.Query("", 0)
	require.Len(t, all, 6)

	onlyB := log.Query(domain.VariantB, 0)
	require.Len(t, onlyB, 3)
	for _, e := range onlyB {
		assert.Equal(t, domain.VariantB, e.Variant)
	}

	tail := log.Query(domain.VariantA, 2)
	require.Len(t, tail, 2)
	assert.Equal(t, int64(3), tail[0].ListingID)
	assert.Equal(t, int64(5), tail[1].ListingID)

	assert.Len(t, log.Query("", 100), 6)
}

func TestAppend_TimestampsNeverGoBackwards(t *testing.T) {
	ctx := context.Background()
	log := NewExperimentLog(ctx, &fakeLogRepo{}, NewAssigner())

	clock := []time.Time{time.Unix(200, 0), time.Unix(100, 0), time.Unix(300, 0)}
	i := 0
	log.now = func() time.Time {
		ts := clock[i]
		i++
		return ts
	}

	for id := int64(1); id <= 3; id++ {
		_, err := log.RecordInteraction(ctx, id, domain.VariantA, nil, nil)
		require.NoError(t, err)
	}

	entries := log.Query("", 0)
	assert.Equal(t, time.Unix(200, 0), entries[0].Timestamp)
	assert.Equal(t, time.Unix(200, 0), entries[1].Timestamp)
	assert.Equal(t, time.Unix(300, 0), entries[2].Timestamp)
}

func TestAppend_Concurrent(t *testing.T) {
	ctx := context.Background()
	repo := &fakeLogRepo{}
	assigner := NewAssigner()
	log := NewExperimentLog(ctx, repo, assigner)

	const workers = 32
	const perWorker = 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := int64(w*perWorker + i)
				_, _ = log.RecordInteraction(ctx, id, assigner.Assign(id), nil, nil)
				_ = log.Statistics()
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker, log.Len())
	assert.Len(t, repo.appended, workers*perWorker)

	stats := log.Statistics()
	assert.Equal(t, workers*perWorker, stats.TotalInteractions)
	assert.Equal(t, stats.TotalInteractions, stats.VariantA.Count+stats.VariantB.Count)
}

func TestContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	log := NewExperimentLog(context.Background(), &fakeLogRepo{}, NewAssigner())
	cancel()

	_, err := log.RecordInteraction(ctx, 1, domain.VariantA, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = log.RecordFeedback(ctx, 1, 1, "")
	assert.ErrorIs(t, err, context.Canceled)
}

type ctxRecordingRepo struct {
	fakeLogRepo
	ctxErr  error
	traceID string
}

func (r *ctxRecordingRepo) Append(ctx context.Context, entry domain.LogEntry) error {
	r.ctxErr = ctx.Err()
	r.traceID = trace.TraceIDFromContext(ctx)
	if r.ctxErr != nil {
		return r.ctxErr
	}
	return r.fakeLogRepo.Append(ctx, entry)
}

// cancellingLookup cancels the request context while feedback is recorded,
// as a disconnecting client would.
type cancellingLookup struct {
	cancel context.CancelFunc
}

func (l cancellingLookup) Lookup(int64) (domain.Variant, bool) {
	l.cancel()
	return domain.VariantA, true
}

func TestRecordFeedback_RequestCancellationDoesNotSkipPersistence(t *testing.T) {
	ctx, cancel := context.WithCancel(trace.WithTraceID(context.Background(), "trace-1"))
	defer cancel()

	repo := &ctxRecordingRepo{}
	log := NewExperimentLog(context.Background(), repo, cancellingLookup{cancel: cancel})

	_, err := log.RecordFeedback(ctx, 7, 3, "")
	require.NoError(t, err)
	require.Error(t, ctx.Err())

	assert.NoError(t, repo.ctxErr)
	assert.Equal(t, "trace-1", repo.traceID)
	assert.Len(t, repo.appended, 1)
	assert.Equal(t, 0, log.Unpersisted())
}
