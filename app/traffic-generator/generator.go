package main

import (
	"aspectInsight/domain"
	"aspectInsight/internal/repository/csvstore"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

type generator struct {
	out     io.Writer
	client  *http.Client
	baseURL string
	topK    int
	delay   time.Duration
}

// loadListings prints per-variant listing counts and returns the sorted union.
func (g *generator) loadListings(baselinePath, advancedPath string) ([]int64, error) {
	repo, err := csvstore.LoadDatasets(baselinePath, advancedPath)
	if err != nil {
		fmt.Fprintf(g.out, "warning: %v\n", err)
	}

	a := repo.ListingIDs(domain.VariantA)
	b := repo.ListingIDs(domain.VariantB)
	ids := union(a, b)

	fmt.Fprintf(g.out, "Model A (baseline): %d unique listings\n", len(a))
	fmt.Fprintf(g.out, "Model B (advanced): %d unique listings\n", len(b))
	fmt.Fprintf(g.out, "Union: %d unique listings\n", len(ids))

	if len(ids) == 0 {
		return nil, errors.New("no listings available in either dataset")
	}
	return ids, nil
}

func (g *generator) run(ctx context.Context, ids []int64) {
	fmt.Fprintf(g.out, "\nSending %d requests to %s\n", len(ids), g.baseURL)

	// one request per delay; a zero delay means no pacing
	limiter := rate.NewLimiter(rate.Every(g.delay), 1)

	ok := 0
	for i, id := range ids {
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		status, err := g.predict(ctx, id)
		switch {
		case err != nil:
			fmt.Fprintf(g.out, "%d/%d: %d ERROR (%v)\n", i+1, len(ids), id, err)
		case status == http.StatusOK:
			ok++
			fmt.Fprintf(g.out, "%d/%d: %d OK\n", i+1, len(ids), id)
		default:
			fmt.Fprintf(g.out, "%d/%d: %d HTTP %d\n", i+1, len(ids), id, status)
		}
	}

	fmt.Fprintf(g.out, "\nDone: %d/%d succeeded\n", ok, len(ids))
}

func (g *generator) predict(ctx context.Context, id int64) (int, error) {
	body, err := json.Marshal(map[string]any{"listing_id": id, "top_k": g.topK})
	if err != nil {
		return 0, err
	}

	url := strings.TrimRight(g.baseURL, "/") + "/api/v1/predict"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func union(a, b []int64) []int64 {
	seen := make(map[int64]struct{}, len(a)+len(b))
	for _, id := range a {
		seen[id] = struct{}{}
	}
	for _, id := range b {
		seen[id] = struct{}{}
	}

	out := make([]int64, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// sample picks min(n, len(ids)) distinct ids. A nil rng uses the global source.
func sample(ids []int64, n int, rng *rand.Rand) []int64 {
	n = min(n, len(ids))
	if n <= 0 {
		return []int64{}
	}

	perm := rand.Perm
	if rng != nil {
		perm = rng.Perm
	}

	out := make([]int64, 0, n)
	for _, i := range perm(len(ids))[:n] {
		out = append(out, ids[i])
	}
	return out
}
