package puzzle

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
)

// Rand is the randomness the engine needs. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Filter selects candidate rows. Zero fields match everything.
type Filter struct {
	Band  Band
	Theme string
}

// Engine answers randomised queries over the dataset and reports failures as
// errors. Rows without a usable rating or position are never candidates.
type Engine struct {
	rows  RowSource
	bands Bands

	mu  sync.Mutex
	rnd Rand
}

// NewEngine builds an engine. A nil rnd uses the process-wide generator.
func NewEngine(rows RowSource, bands Bands, rnd Rand) *Engine {
	if rnd == nil {
		rnd = globalRand{}
	}
	return &Engine{rows: rows, bands: bands, rnd: rnd}
}

// Bands returns the configured bands.
func (e *Engine) Bands() Bands { return e.bands }

// RandomPuzzle picks a band uniformly and delegates to RandomByBand.
func (e *Engine) RandomPuzzle(ctx context.Context) (Record, error) {
	band := AllBands[e.intN(len(AllBands))]
	return e.RandomByBand(ctx, band)
}

// RandomByBand picks uniformly among rows rated inside band.
func (e *Engine) RandomByBand(ctx context.Context, band Band) (Record, error) {
	if band == AnyBand {
		return Record{}, fmt.Errorf("%w: band required", ErrNotFound)
	}
	return e.pick(ctx, Filter{Band: band})
}

// RandomByTheme picks uniformly among rows tagged theme, optionally limited to
// band (AnyBand for none). A blank theme matches nothing.
func (e *Engine) RandomByTheme(ctx context.Context, theme string, band Band) (Record, error) {
	if strings.TrimSpace(theme) == "" {
		return Record{}, fmt.Errorf("%w: theme required", ErrNotFound)
	}
	return e.pick(ctx, Filter{Band: band, Theme: theme})
}

// Matching returns every record passing f in dataset order.
func (e *Engine) Matching(ctx context.Context, f Filter) ([]Record, error) {
	candidates, err := e.candidates(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(candidates))
	for _, row := range candidates {
		rec, err := row.Record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (e *Engine) pick(ctx context.Context, f Filter) (Record, error) {
	candidates, err := e.candidates(ctx, f)
	if err != nil {
		return Record{}, err
	}
	if len(candidates) == 0 {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, f)
	}
	return candidates[e.intN(len(candidates))].Record()
}

func (e *Engine) candidates(ctx context.Context, f Filter) ([]Row, error) {
	var r Range
	if f.Band != AnyBand {
		var ok bool
		if r, ok = e.bands.Range(f.Band); !ok {
			return nil, fmt.Errorf("%w: unknown band %q", ErrNotFound, f.Band)
		}
	}
	rows, err := e.rows.Rows(ctx)
	if err != nil {
		return nil, err
	}
	var out []Row
	for _, row := range rows {
		if !row.Valid() {
			continue
		}
		if f.Theme != "" && !row.hasTheme(f.Theme) {
			continue
		}
		if f.Band != AnyBand && !r.Contains(row.Rating) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (e *Engine) intN(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rnd.IntN(n)
}

func (f Filter) String() string {
	switch {
	case f.Theme != "" && f.Band != AnyBand:
		return fmt.Sprintf("theme %s, band %s", f.Theme, f.Band)
	case f.Theme != "":
		return "theme " + f.Theme
	default:
		return "band " + string(f.Band)
	}
}

// Stats summarises the dataset.
type Stats struct {
	Rows      int
	Malformed int
	PerBand   map[Band]int
	Themes    int
}

// Stats counts valid rows per band and distinct theme tags.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	rows, err := e.rows.Rows(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Rows: len(rows), PerBand: make(map[Band]int, len(AllBands))}
	for _, row := range rows {
		if !row.Valid() {
			st.Malformed++
			continue
		}
		for _, band := range AllBands {
			if r, _ := e.bands.Range(band); r.Contains(row.Rating) {
				st.PerBand[band]++
			}
		}
	}
	st.Themes = len(collectThemes(rows, func(Row) bool { return true }))
	return st, nil
}
