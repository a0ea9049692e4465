package csvstore

import (
	"aspectInsight/business/aspect"
	"aspectInsight/domain"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baselineCSV = `listing_id,aspect,date,score,positive,neutral,negative,total_mentions
10,cleanliness,2024-01-03,2.5,3,1,0,4
10,location,2024-01-01,1,1,0,0,1
7,noise,2024-01-02,-2,0,0,2,2
10,cleanliness,2024-01-01,0.5,1,0,0,1
`

const advancedCSV = `entity_id,aspect,score,positive,neutral,negative,total_mentions
12.0,host,4,4,0,0,4
10,host,1,1,0,0,1
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDatasets_Both(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "model_baseline.csv", baselineCSV)
	b := writeFile(t, dir, "model_advanced2.csv", advancedCSV)

	repo, err := LoadDatasets(a, b)
	require.NoError(t, err)

	assert.True(t, repo.IsLoaded())
	assert.True(t, repo.HasDates(domain.VariantA))
	assert.False(t, repo.HasDates(domain.VariantB))

	assert.Equal(t, []int64{7, 10}, repo.ListingIDs(domain.VariantA))
	assert.Equal(t, []int64{10, 12}, repo.ListingIDs(domain.VariantB))

	recs := repo.RecordsFor(10, domain.VariantA)
	require.Len(t, recs, 3)
	assert.Equal(t, "cleanliness", recs[0].Aspect)
	assert.Equal(t, 2.5, recs[0].Score)
	assert.Equal(t, 4, recs[0].TotalMentions)
	require.NotNil(t, recs[0].Date)
	assert.Equal(t, "2024-01-03", recs[0].Date.Format(domain.DateLayout))
	assert.Equal(t, "location", recs[1].Aspect)

	assert.Empty(t, repo.RecordsFor(999, domain.VariantA))
	assert.Len(t, repo.RecordsFor(12, domain.VariantB), 1)
}

func TestLoadDatasets_MissingFileLeavesVariantAbsent(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "model_baseline.csv", baselineCSV)

	repo, err := LoadDatasets(a, filepath.Join(dir, "nope.csv"))
	require.NoError(t, err)

	assert.False(t, repo.IsLoaded())
	assert.True(t, repo.Has(domain.VariantA))
	assert.False(t, repo.Has(domain.VariantB))
	assert.Empty(t, repo.RecordsFor(10, domain.VariantB))
	assert.Equal(t, []int64{}, repo.ListingIDs(domain.VariantB))
}

func TestLoadDatasets_BadListingIDIsLoadError(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", baselineCSV)
	b := writeFile(t, dir, "b.csv", advancedCSV+"abc,host,1,1,0,0,1\n")

	repo, err := LoadDatasets(a, b)
	require.Error(t, err)

	var loadErr *domain.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, domain.VariantB, loadErr.Variant)
	assert.Contains(t, loadErr.Error(), "line 4")

	// the healthy variant still serves
	require.NotNil(t, repo)
	assert.True(t, repo.Has(domain.VariantA))
	assert.False(t, repo.Has(domain.VariantB))
}

func TestReadDataset_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "empty", content: "", wantErr: "empty file"},
		{name: "no id column", content: "aspect,score,positive,neutral,negative,total_mentions\n", wantErr: "listing_id"},
		{name: "no score column", content: "listing_id,aspect,positive,neutral,negative,total_mentions\n", wantErr: "score"},
		{name: "fractional id", content: "listing_id,aspect,score,positive,neutral,negative,total_mentions\n1.5,a,1,1,0,0,1\n", wantErr: "not an integer"},
		{name: "bad score", content: "listing_id,aspect,score,positive,neutral,negative,total_mentions\n1,a,high,1,0,0,1\n", wantErr: "score"},
		{name: "bad date", content: "listing_id,aspect,date,score,positive,neutral,negative,total_mentions\n1,a,yesterday,1,1,0,0,1\n", wantErr: "date"},
		{name: "ragged row", content: "listing_id,aspect,score,positive,neutral,negative,total_mentions\n1,a,1\n", wantErr: "line 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readDataset(strings.NewReader(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadDataset_EmptyCellsAndDates(t *testing.T) {
	content := "listing_id,aspect,date,score,positive,neutral,negative,total_mentions\n" +
		"1,a,,,,,,\n" +
		"1,b,2024-02-01 13:45:00,1,1,0,0,1\n"

	ds, err := readDataset(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, ds.records, 2)

	assert.Nil(t, ds.records[0].Date)
	assert.Equal(t, 0.0, ds.records[0].Score)
	require.NotNil(t, ds.records[1].Date)
	assert.Equal(t, "2024-02-01", ds.records[1].Date.Format(domain.DateLayout))
}

func TestRecordsFor_ReturnsCopy(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", baselineCSV)

	repo, err := LoadDatasets(a, filepath.Join(dir, "missing.csv"))
	require.NoError(t, err)

	recs := repo.RecordsFor(7, domain.VariantA)
	recs[0].Score = 1000

	assert.Equal(t, -2.0, repo.RecordsFor(7, domain.VariantA)[0].Score)
}

func TestReadDataset_MissingValueTokens(t *testing.T) {
	content := "listing_id,aspect,score,positive,neutral,negative,total_mentions\n" +
		"1,a,NaN,1,0,0,1\n" +
		"1,b,NA,N/A,null,nan,2\n" +
		"1,c,inf,1,0,0,NaN\n" +
		"1,d,1.5,<NA>,None,,3\n"

	ds, err := readDataset(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, ds.records, 4)

	for _, rec := range ds.records {
		assert.False(t, math.IsNaN(rec.Score), rec.Aspect)
		assert.False(t, math.IsInf(rec.Score, 0), rec.Aspect)
	}
	assert.Equal(t, 0.0, ds.records[0].Score)
	assert.Equal(t, 0.0, ds.records[1].Score)
	assert.Equal(t, 0, ds.records[1].Positive)
	assert.Equal(t, 2, ds.records[1].TotalMentions)
	assert.Equal(t, 0.0, ds.records[2].Score)
	assert.Equal(t, 0, ds.records[2].TotalMentions)
	assert.Equal(t, 1.5, ds.records[3].Score)
}

func TestLoadDatasets_MissingScoresKeepVariantAndRanking(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", "listing_id,aspect,score,positive,neutral,negative,total_mentions\n"+
		"1,x,NaN,0,0,0,1\n"+
		"1,y,2,2,0,0,2\n"+
		"1,z,-1,0,0,1,1\n"+
		"1,w,5,5,0,0,5\n")
	b := writeFile(t, dir, "b.csv", "listing_id,aspect,score,positive,neutral,negative,total_mentions\n"+
		"1,x,NA,0,0,0,1\n")

	repo, err := LoadDatasets(a, b)
	require.NoError(t, err)
	assert.True(t, repo.Has(domain.VariantA))
	assert.True(t, repo.Has(domain.VariantB))

	svc := aspect.NewAspectService(repo, 3)
	ranking, err := svc.Summarize(context.Background(), 1, domain.VariantA, 2)
	require.NoError(t, err)

	names := func(in []domain.AspectSummary) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			out = append(out, s.Aspect)
		}
		return out
	}
	assert.Equal(t, []string{"w", "y"}, names(ranking.Top))
	assert.Equal(t, []string{"z", "x"}, names(ranking.Bottom))
	assert.Equal(t, 0.0, ranking.Bottom[1].Score)
}
