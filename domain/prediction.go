package domain

// Prediction is the result of serving one listing. Variant is kept out of the
// wire format so callers stay blind to the experiment arm.
type Prediction struct {
	ListingID int64         `json:"listing_id"`
	TopK      int           `json:"top_k"`
	Variant   Variant       `json:"-"`
	Ranking   AspectRanking `json:"-"`
}
