package csvstore

import (
	"aspectInsight/domain"
	"aspectInsight/pkg/logger"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

var requiredDatasetColumns = []string{"aspect", "score", "positive", "neutral", "negative", "total_mentions"}

// listing id column; older exports call it entity_id
var listingIDColumns = []string{"listing_id", "entity_id"}

var dateLayouts = []string{
	domain.DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
}

type dataset struct {
	path      string
	records   []domain.AspectRecord
	byListing map[int64][]int
	ids       []int64
	hasDates  bool
}

// DatasetRepository holds the baseline (A) and advanced (B) datasets. It is
// immutable after LoadDatasets and safe for concurrent reads.
type DatasetRepository struct {
	datasets map[domain.Variant]*dataset
}

// LoadDatasets reads both sources. A missing file leaves its variant absent
// without error. A malformed file also leaves its variant absent and is
// reported as a *domain.LoadError; the returned repository is always usable.
func LoadDatasets(baselinePath, advancedPath string) (*DatasetRepository, error) {
	repo := &DatasetRepository{datasets: make(map[domain.Variant]*dataset)}

	var errs []error
	for _, src := range []struct {
		variant domain.Variant
		path    string
	}{
		{variant: domain.VariantA, path: baselinePath},
		{variant: domain.VariantB, path: advancedPath},
	} {
		ds, err := loadDataset(src.path)
		if errors.Is(err, os.ErrNotExist) {
			logger.Error("Model dataset not found", "variant", src.variant, "path", src.path)
			continue
		}
		if err != nil {
			errs = append(errs, &domain.LoadError{Variant: src.variant, Path: src.path, Err: err})
			continue
		}

		repo.datasets[src.variant] = ds
		logger.Info("Model dataset loaded",
			"variant", src.variant,
			"records", len(ds.records),
			"listings", len(ds.ids),
		)
	}

	return repo, errors.Join(errs...)
}

func loadDataset(path string) (*dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ds, err := readDataset(f)
	if err != nil {
		return nil, err
	}
	ds.path = path

	return ds, nil
}

func readDataset(r io.Reader) (*dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := indexHeader(header)

	idCol := -1
	for _, name := range listingIDColumns {
		if i, ok := cols[name]; ok {
			idCol = i
			break
		}
	}
	if idCol < 0 {
		return nil, errors.New("missing column listing_id")
	}
	for _, name := range requiredDatasetColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %s", name)
		}
	}
	dateCol, hasDates := cols["date"]

	ds := &dataset{
		byListing: make(map[int64][]int),
		hasDates:  hasDates,
	}

	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		id, err := parseInteger(rec[idCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: listing_id %q is not an integer", line, rec[idCol])
		}

		row := domain.AspectRecord{
			ListingID: id,
			Aspect:    rec[cols["aspect"]],
		}
		if row.Score, err = parseOptionalFloat(rec[cols["score"]]); err != nil {
			return nil, fmt.Errorf("line %d: score: %w", line, err)
		}
		for _, c := range []struct {
			name string
			dst  *int
		}{
			{"positive", &row.Positive},
			{"neutral", &row.Neutral},
			{"negative", &row.Negative},
			{"total_mentions", &row.TotalMentions},
		} {
			n, err := parseOptionalInteger(rec[cols[c.name]])
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, c.name, err)
			}
			*c.dst = int(n)
		}
		if hasDates {
			if row.Date, err = parseDate(rec[dateCol]); err != nil {
				return nil, fmt.Errorf("line %d: date: %w", line, err)
			}
		}

		ds.byListing[id] = append(ds.byListing[id], len(ds.records))
		ds.records = append(ds.records, row)
	}

	ds.ids = make([]int64, 0, len(ds.byListing))
	for id := range ds.byListing {
		ds.ids = append(ds.ids, id)
	}
	sort.Slice(ds.ids, func(i, j int) bool { return ds.ids[i] < ds.ids[j] })

	return ds, nil
}

// RecordsFor returns a copy of the listing's rows in file order.
func (r *DatasetRepository) RecordsFor(listingID int64, variant domain.Variant) []domain.AspectRecord {
	ds, ok := r.datasets[variant]
	if !ok {
		return nil
	}

	idx := ds.byListing[listingID]
	out := make([]domain.AspectRecord, 0, len(idx))
	for _, i := range idx {
		out = append(out, ds.records[i])
	}
	return out
}

func (r *DatasetRepository) HasDates(variant domain.Variant) bool {
	ds, ok := r.datasets[variant]
	return ok && ds.hasDates
}

// ListingIDs is ascending and deduplicated; empty when the variant is absent.
func (r *DatasetRepository) ListingIDs(variant domain.Variant) []int64 {
	ds, ok := r.datasets[variant]
	if !ok {
		return []int64{}
	}

	out := make([]int64, len(ds.ids))
	copy(out, ds.ids)
	return out
}

func (r *DatasetRepository) IsLoaded() bool {
	_, a := r.datasets[domain.VariantA]
	_, b := r.datasets[domain.VariantB]
	return a && b
}

func (r *DatasetRepository) Has(variant domain.Variant) bool {
	_, ok := r.datasets[variant]
	return ok
}

// ---- parsing helpers ----

func indexHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}

// parseInteger accepts "42" and integral floats like "42.0".
func parseInteger(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("%q is not integral", s)
	}
	return int64(f), nil
}

// missing-value markers written by the training exports; read as an empty cell
var naTokens = map[string]struct{}{
	"":        {},
	"na":      {},
	"n/a":     {},
	"nan":     {},
	"-nan":    {},
	"null":    {},
	"none":    {},
	"<na>":    {},
	"#n/a":    {},
	"-1.#ind": {},
	"1.#qnan": {},
}

func isMissing(s string) bool {
	_, ok := naTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

func parseOptionalInteger(s string) (int64, error) {
	if isMissing(s) {
		return 0, nil
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return 0, nil
	}
	return parseInteger(s)
}

// parseOptionalFloat never returns NaN or Inf; both count as missing.
func parseOptionalFloat(s string) (float64, error) {
	if isMissing(s) {
		return 0, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, nil
	}
	return f, nil
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d, nil
		}
	}
	return nil, fmt.Errorf("unrecognised date %q", s)
}
