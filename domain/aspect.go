package domain

import "time"

// AspectRecord is one precomputed row of a scoring dataset:
// (listing, aspect, optional date) with its sentiment breakdown.
type AspectRecord struct {
	ListingID     int64      `json:"listing_id"`
	Aspect        string     `json:"aspect"`
	Date          *time.Time `json:"date,omitempty"`
	Score         float64    `json:"score"`
	Positive      int        `json:"positive"`
	Neutral       int        `json:"neutral"`
	Negative      int        `json:"negative"`
	TotalMentions int        `json:"total_mentions"`
}

type AspectSummary struct {
	Aspect        string  `json:"aspect"`
	Score         float64 `json:"score"`
	Positive      int     `json:"positive"`
	Neutral       int     `json:"neutral"`
	Negative      int     `json:"negative"`
	TotalMentions int     `json:"total_mentions"`
}

// AspectRanking holds the independently computed top and bottom aspects
// of one listing. The two lists may overlap.
type AspectRanking struct {
	Top    []AspectSummary `json:"top_aspects"`
	Bottom []AspectSummary `json:"bottom_aspects"`
}

// TimelineSeries is three parallel slices sorted ascending by date.
type TimelineSeries struct {
	Dates  []string  `json:"dates"`
	Counts []int     `json:"counts"`
	Scores []float64 `json:"scores"`
}

type Timeline struct {
	Baseline TimelineSeries `json:"baseline"`
	Advanced TimelineSeries `json:"advanced"`
}

// EmptyTimelineSeries returns a series with non-nil empty slices so it
// serializes as [] rather than null.
func EmptyTimelineSeries() TimelineSeries {
	return TimelineSeries{
		Dates:  []string{},
		Counts: []int{},
		Scores: []float64{},
	}
}

const DateLayout = "2006-01-02"
