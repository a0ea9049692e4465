package csvstore

import (
	"aspectInsight/domain"
	"aspectInsight/pkg/logger"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// LogHeader is the union of interaction and feedback columns.
var LogHeader = []string{
	"timestamp",
	"listing_id",
	"variant",
	"top_aspects",
	"bottom_aspects",
	"top_scores",
	"bottom_scores",
	"rating",
	"comment",
	"feedback",
}

// timestamps written without a zone are read as local time
var logTimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ExperimentLogRepository appends log entries to a CSV file, one row per entry.
type ExperimentLogRepository struct {
	mu       sync.Mutex
	path     string
	headerOK bool
}

func NewExperimentLogRepository(path string) *ExperimentLogRepository {
	return &ExperimentLogRepository{path: path}
}

// LoadAll reads every well-formed row. Rows with an unparsable timestamp,
// listing_id or feedback rating are skipped with a warning.
func (r *ExperimentLogRepository) LoadAll(ctx context.Context) ([]domain.LogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	header, rows, err := r.readRaw()
	if err != nil {
		return nil, err
	}
	if header == nil {
		return []domain.LogEntry{}, nil
	}

	cols := indexHeader(header)
	entries := make([]domain.LogEntry, 0, len(rows))
	for i, rec := range rows {
		entry, err := decodeLogRow(cols, rec)
		if err != nil {
			logger.Warn("Skipping malformed experiment log row", "path", r.path, "line", i+2, "error", err)
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Append writes one row and fsyncs before returning. A file written with an
// older column set is rewritten once under LogHeader first.
func (r *ExperimentLogRepository) Append(ctx context.Context, entry domain.LogEntry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	row, err := encodeLogRow(entry)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.headerOK {
		if err := r.ensureHeader(); err != nil {
			return err
		}
		r.headerOK = true
	}

	f, err := os.OpenFile(r.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("write log row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush log row: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync log: %w", err)
	}

	return nil
}

func (r *ExperimentLogRepository) readRaw() ([]string, [][]string, error) {
	f, err := os.Open(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read log header: %w", err)
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read log rows: %w", err)
	}

	return header, rows, nil
}

// ensureHeader creates the file with LogHeader, or migrates an existing file
// whose header differs by remapping every row column-by-column.
func (r *ExperimentLogRepository) ensureHeader() error {
	header, rows, err := r.readRaw()
	if err != nil {
		return err
	}
	if header != nil && slices.Equal(header, LogHeader) {
		return nil
	}

	migrated := make([][]string, 0, len(rows))
	if header != nil {
		cols := indexHeader(header)
		for _, rec := range rows {
			out := make([]string, len(LogHeader))
			for i, name := range LogHeader {
				if j, ok := cols[name]; ok && j < len(rec) {
					out[i] = rec[j]
				}
			}
			migrated = append(migrated, out)
		}
		logger.Info("Migrating experiment log header", "path", r.path, "rows", len(rows))
	}

	return r.rewrite(migrated)
}

func (r *ExperimentLogRepository) rewrite(rows [][]string) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(LogHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("write log header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write log rows: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp log: %w", err)
	}

	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace log: %w", err)
	}

	return nil
}

// ---- row codec ----

func encodeLogRow(e domain.LogEntry) ([]string, error) {
	row := make([]string, len(LogHeader))
	row[0] = e.Timestamp.Format(time.RFC3339Nano)
	row[1] = strconv.FormatInt(e.ListingID, 10)
	row[2] = e.Variant.String()

	if e.Feedback {
		if e.Rating != nil {
			row[7] = strconv.FormatFloat(*e.Rating, 'g', -1, 64)
		}
		row[8] = e.Comment
		row[9] = "True"
		return row, nil
	}

	var err error
	if row[3], err = jsonList(e.TopAspects); err != nil {
		return nil, err
	}
	if row[4], err = jsonList(e.BottomAspects); err != nil {
		return nil, err
	}
	if row[5], err = jsonList(e.TopScores); err != nil {
		return nil, err
	}
	if row[6], err = jsonList(e.BottomScores); err != nil {
		return nil, err
	}

	return row, nil
}

func jsonList[T any](v []T) (string, error) {
	if v == nil {
		v = []T{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(b), nil
}

func decodeLogRow(cols map[string]int, rec []string) (domain.LogEntry, error) {
	get := func(name string) string {
		if i, ok := cols[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	var e domain.LogEntry

	ts, err := parseLogTimestamp(get("timestamp"))
	if err != nil {
		return e, err
	}
	e.Timestamp = ts

	if e.ListingID, err = parseInteger(get("listing_id")); err != nil {
		return e, fmt.Errorf("listing_id %q: %w", get("listing_id"), err)
	}

	e.Variant = domain.Variant(get("variant"))
	e.Feedback = parseFlag(get("feedback"))

	if e.Feedback {
		rating, err := strconv.ParseFloat(get("rating"), 64)
		if err != nil {
			return e, fmt.Errorf("rating %q: %w", get("rating"), err)
		}
		e.Rating = &rating
		e.Comment = get("comment")
		return e, nil
	}

	// aspect lists are informational; a bad cell leaves the field empty
	_ = decodeList(get("top_aspects"), &e.TopAspects)
	_ = decodeList(get("bottom_aspects"), &e.BottomAspects)
	_ = decodeList(get("top_scores"), &e.TopScores)
	_ = decodeList(get("bottom_scores"), &e.BottomScores)

	return e, nil
}

func decodeList[T any](cell string, dst *[]T) error {
	if cell == "" {
		return nil
	}
	return json.Unmarshal([]byte(cell), dst)
}

func parseLogTimestamp(s string) (time.Time, error) {
	for _, layout := range logTimestampLayouts {
		if layout == time.RFC3339Nano {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func parseFlag(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "1.0":
		return true
	default:
		return false
	}
}
