package domain

import (
	"fmt"
	"time"
)

type Variant string

const (
	VariantA       Variant = "A" // baseline
	VariantB       Variant = "B" // advanced
	VariantUnknown Variant = "unknown"
)

func (v Variant) String() string { return string(v) }

// ParseVariant accepts the labels used on the wire and in the durable log.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantA, VariantB, VariantUnknown:
		return Variant(s), nil
	default:
		return "", fmt.Errorf("%w: unknown variant %q", ErrInvalidInput, s)
	}
}

type LogEntryKind string

const (
	KindInteraction LogEntryKind = "interaction"
	KindFeedback    LogEntryKind = "feedback"
)

// CREATE TABLE public.ab_log (
//     id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     timestamp       TIMESTAMPTZ NOT NULL,
//     listing_id      BIGINT NOT NULL,
//     variant         TEXT NOT NULL,
//     feedback        BOOLEAN NOT NULL DEFAULT FALSE,
//     top_aspects     JSONB,
//     bottom_aspects  JSONB,
//     top_scores      JSONB,
//     bottom_scores   JSONB,
//     rating          NUMERIC,
//     comment         TEXT
// );

// LogEntry is either an interaction or a feedback event. Feedback rows carry
// Feedback=true with Rating/Comment; interaction rows carry the served aspects.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	ListingID int64     `json:"listing_id"`
	Variant   Variant   `json:"variant"`
	Feedback  bool      `json:"feedback"`

	TopAspects    []string  `json:"top_aspects,omitempty"`
	BottomAspects []string  `json:"bottom_aspects,omitempty"`
	TopScores     []float64 `json:"top_scores,omitempty"`
	BottomScores  []float64 `json:"bottom_scores,omitempty"`

	Rating  *float64 `json:"rating,omitempty"`
	Comment string   `json:"comment,omitempty"`
}

func (e LogEntry) Kind() LogEntryKind {
	if e.Feedback {
		return KindFeedback
	}
	return KindInteraction
}

// VariantStats: AvgRating and FeedbackCount are nil when the variant has
// no feedback yet.
type VariantStats struct {
	Count          int      `json:"count"`
	UniqueListings int      `json:"unique_listings"`
	AvgRating      *float64 `json:"avg_rating,omitempty"`
	FeedbackCount  *int     `json:"feedback_count,omitempty"`
}

type ExperimentStats struct {
	TotalInteractions int          `json:"total_interactions"`
	VariantA          VariantStats `json:"variant_A"`
	VariantB          VariantStats `json:"variant_B"`

	// feedback received for listings never assigned in this process
	UnattributedFeedback int `json:"unattributed_feedback,omitempty"`
}

// ForVariant returns the stats bucket for A or B, nil otherwise.
func (s *ExperimentStats) ForVariant(v Variant) *VariantStats {
	switch v {
	case VariantA:
		return &s.VariantA
	case VariantB:
		return &s.VariantB
	default:
		return nil
	}
}
