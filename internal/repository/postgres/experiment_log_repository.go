package postgres

import (
	"aspectInsight/domain"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ExperimentLogRepository struct {
	DB *gorm.DB
}

func NewExperimentLogRepository(db *gorm.DB) *ExperimentLogRepository {
	return &ExperimentLogRepository{DB: db}
}

type abLogRow struct {
	ID            uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	Timestamp     time.Time      `gorm:"column:timestamp;not null"`
	ListingID     int64          `gorm:"column:listing_id;not null;index"`
	Variant       string         `gorm:"column:variant;not null"`
	Feedback      bool           `gorm:"column:feedback;not null;default:false"`
	TopAspects    datatypes.JSON `gorm:"column:top_aspects;type:jsonb"`
	BottomAspects datatypes.JSON `gorm:"column:bottom_aspects;type:jsonb"`
	TopScores     datatypes.JSON `gorm:"column:top_scores;type:jsonb"`
	BottomScores  datatypes.JSON `gorm:"column:bottom_scores;type:jsonb"`
	Rating        *float64       `gorm:"column:rating"`
	Comment       string         `gorm:"column:comment"`
}

func (abLogRow) TableName() string {
	return "ab_log"
}

// Migrate creates or updates the ab_log table.
func (r *ExperimentLogRepository) Migrate(ctx context.Context) error {
	if err := r.DB.WithContext(ctx).AutoMigrate(&abLogRow{}); err != nil {
		return fmt.Errorf("failed to migrate ab_log: %w", err)
	}
	return nil
}

func (r *ExperimentLogRepository) Append(ctx context.Context, entry domain.LogEntry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	row, err := toLogRow(entry)
	if err != nil {
		return err
	}

	if err := r.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert ab_log row: %w", err)
	}

	return nil
}

// LoadAll returns every entry in insertion order.
func (r *ExperimentLogRepository) LoadAll(ctx context.Context) ([]domain.LogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []abLogRow
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query ab_log: %w", err)
	}

	entries := make([]domain.LogEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := fromLogRow(row)
		if err != nil {
			return nil, fmt.Errorf("ab_log row %d: %w", row.ID, err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// ---- row mapping ----

func toLogRow(e domain.LogEntry) (abLogRow, error) {
	row := abLogRow{
		Timestamp: e.Timestamp,
		ListingID: e.ListingID,
		Variant:   e.Variant.String(),
		Feedback:  e.Feedback,
		Rating:    e.Rating,
		Comment:   e.Comment,
	}
	if e.Feedback {
		return row, nil
	}

	var err error
	if row.TopAspects, err = marshalList(e.TopAspects); err != nil {
		return row, err
	}
	if row.BottomAspects, err = marshalList(e.BottomAspects); err != nil {
		return row, err
	}
	if row.TopScores, err = marshalList(e.TopScores); err != nil {
		return row, err
	}
	if row.BottomScores, err = marshalList(e.BottomScores); err != nil {
		return row, err
	}

	return row, nil
}

func fromLogRow(row abLogRow) (domain.LogEntry, error) {
	e := domain.LogEntry{
		Timestamp: row.Timestamp,
		ListingID: row.ListingID,
		Variant:   domain.Variant(row.Variant),
		Feedback:  row.Feedback,
		Rating:    row.Rating,
		Comment:   row.Comment,
	}
	if e.Feedback {
		return e, nil
	}

	if err := unmarshalList(row.TopAspects, &e.TopAspects); err != nil {
		return e, err
	}
	if err := unmarshalList(row.BottomAspects, &e.BottomAspects); err != nil {
		return e, err
	}
	if err := unmarshalList(row.TopScores, &e.TopScores); err != nil {
		return e, err
	}
	if err := unmarshalList(row.BottomScores, &e.BottomScores); err != nil {
		return e, err
	}

	return e, nil
}

func marshalList[T any](v []T) (datatypes.JSON, error) {
	if v == nil {
		v = []T{}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal list: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func unmarshalList[T any](raw datatypes.JSON, dst *[]T) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to unmarshal list: %w", err)
	}
	return nil
}
