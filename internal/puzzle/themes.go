package puzzle

import (
	"context"
	"fmt"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ThemeIndex derives sorted theme tag sets from the dataset.
type ThemeIndex struct {
	rows  RowSource
	bands Bands

	mu      sync.Mutex
	all     []string
	hasAll  bool
	perBand *lru.Cache[Band, []string]
}

// NewThemeIndex builds an index over rows using bands for the banded view.
func NewThemeIndex(rows RowSource, bands Bands) *ThemeIndex {
	cache, err := lru.New[Band, []string](len(AllBands))
	if err != nil {
		panic(err)
	}
	return &ThemeIndex{rows: rows, bands: bands, perBand: cache}
}

// AllThemes returns every distinct tag in the dataset, sorted ascending.
// Rows are counted whether or not their rating parses.
func (ix *ThemeIndex) AllThemes(ctx context.Context) ([]string, error) {
	ix.mu.Lock()
	if ix.hasAll {
		out := slices.Clone(ix.all)
		ix.mu.Unlock()
		return out, nil
	}
	ix.mu.Unlock()

	rows, err := ix.rows.Rows(ctx)
	if err != nil {
		return nil, err
	}
	all := collectThemes(rows, func(Row) bool { return true })

	ix.mu.Lock()
	ix.all, ix.hasAll = all, true
	ix.mu.Unlock()
	return slices.Clone(all), nil
}

// ThemesForBand returns the tags of rows rated inside band, sorted ascending.
func (ix *ThemeIndex) ThemesForBand(ctx context.Context, band Band) ([]string, error) {
	r, ok := ix.bands.Range(band)
	if !ok {
		return nil, fmt.Errorf("%w: unknown band %q", ErrNotFound, band)
	}
	if cached, ok := ix.perBand.Get(band); ok {
		return slices.Clone(cached), nil
	}
	rows, err := ix.rows.Rows(ctx)
	if err != nil {
		return nil, err
	}
	tags := collectThemes(rows, func(row Row) bool {
		return row.HasRating && r.Contains(row.Rating)
	})
	ix.perBand.Add(band, tags)
	return slices.Clone(tags), nil
}

// Reset forgets every memoised set.
func (ix *ThemeIndex) Reset() {
	ix.mu.Lock()
	ix.all, ix.hasAll = nil, false
	ix.mu.Unlock()
	ix.perBand.Purge()
}

func collectThemes(rows []Row, keep func(Row) bool) []string {
	set := make(map[string]struct{})
	for _, row := range rows {
		if !keep(row) {
			continue
		}
		for _, tag := range row.Themes {
			set[tag] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for tag := range set {
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}
