package puzzle

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrDataUnavailable marks a dataset that could not be fetched or decoded.
	ErrDataUnavailable = errors.New("puzzle: dataset unavailable")
	// ErrNotFound marks a filter with no candidates.
	ErrNotFound = errors.New("puzzle: no matching puzzles")
	// ErrMalformed marks a row missing its rating or position.
	ErrMalformed = errors.New("puzzle: malformed row")
)

// Dataset column positions.
const (
	colID     = 0
	colRating = 1
	colFEN    = 2
	colThemes = 7
)

// MaxRating is the largest rating a row may carry. Ratings are stored as
// 32-bit integers in exports.
const MaxRating = math.MaxInt32

// Record is one decoded puzzle.
type Record struct {
	ID     string   `json:"puzzle_id"`
	FEN    string   `json:"fen"`
	Rating int      `json:"rating"`
	Themes []string `json:"themes"`
}

// HasTheme reports an exact tag match.
func (r Record) HasTheme(theme string) bool {
	return slices.Contains(r.Themes, theme)
}

// Row is one dataset line split on commas. Fields are positional and unquoted.
type Row struct {
	Line      string
	Columns   int
	ID        string
	FEN       string
	Rating    int
	HasRating bool
	Themes    []string
}

// ParseRow splits line without validating it. A row with fewer than eight
// columns has no themes; a rating that is not an integer in [0, MaxRating]
// leaves HasRating false.
func ParseRow(line string) Row {
	cols := strings.Split(line, ",")
	row := Row{Line: line, Columns: len(cols), ID: cols[colID]}
	if len(cols) > colRating {
		if n, err := strconv.Atoi(strings.TrimSpace(cols[colRating])); err == nil && n >= 0 && n <= MaxRating {
			row.Rating = n
			row.HasRating = true
		}
	}
	if len(cols) > colFEN {
		row.FEN = cols[colFEN]
	}
	if len(cols) > colThemes {
		row.Themes = splitThemes(cols[colThemes])
	}
	return row
}

func splitThemes(s string) []string {
	var out []string
	for _, tok := range strings.Split(s, " ") {
		if strings.TrimSpace(tok) != "" {
			out = append(out, tok)
		}
	}
	return out
}

// Valid reports whether the row can become a Record.
func (r Row) Valid() bool {
	return r.HasRating && r.Columns > colFEN
}

// Record decodes the row. The returned Themes slice is never nil and never
// aliases the row.
func (r Row) Record() (Record, error) {
	if !r.Valid() {
		return Record{}, fmt.Errorf("%w: %q", ErrMalformed, r.Line)
	}
	themes := make([]string, len(r.Themes))
	copy(themes, r.Themes)
	return Record{ID: r.ID, FEN: r.FEN, Rating: r.Rating, Themes: themes}, nil
}

// hasTheme matches the raw theme column.
func (r Row) hasTheme(theme string) bool {
	return slices.Contains(r.Themes, theme)
}

// FallbackRecord is served whenever a query cannot produce a puzzle.
func FallbackRecord() Record {
	return Record{
		ID:     "00008",
		FEN:    "r6k/pp2r2p/4Rp1Q/3p4/8/1N1P2R1/PqP2bPP/7K b - - 0 24",
		Rating: 1900,
		Themes: []string{"mate", "mateIn1"},
	}
}
