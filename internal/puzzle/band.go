package puzzle

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Band names a difficulty bucket.
type Band string

const (
	Easy   Band = "easy"
	Medium Band = "medium"
	Hard   Band = "hard"

	// AnyBand disables band filtering where a band is optional.
	AnyBand Band = ""
)

// AllBands lists the bands in ascending difficulty.
var AllBands = []Band{Easy, Medium, Hard}

// ParseBand accepts a band name case-insensitively. The empty string maps to
// AnyBand.
func ParseBand(s string) (Band, error) {
	switch b := Band(strings.ToLower(strings.TrimSpace(s))); b {
	case Easy, Medium, Hard, AnyBand:
		return b, nil
	default:
		return "", fmt.Errorf("unknown band %q (want easy, medium or hard)", s)
	}
}

// Unbounded is the Max of a Range with no upper limit.
const Unbounded = math.MaxInt

// Range is a half-open rating interval [Min, Max).
type Range struct {
	Min int
	Max int
}

// Contains reports whether rating falls inside r.
func (r Range) Contains(rating int) bool {
	if rating < r.Min {
		return false
	}
	return r.Max == Unbounded || rating < r.Max
}

func (r Range) String() string {
	if r.Max == Unbounded {
		return fmt.Sprintf("[%d, ∞)", r.Min)
	}
	return fmt.Sprintf("[%d, %d)", r.Min, r.Max)
}

// Bands holds the configured interval of each band. Overlaps and gaps are
// accepted; call Validate to require a clean tiling.
type Bands struct {
	Easy   Range
	Medium Range
	Hard   Range
}

// DefaultBands returns easy [0,600), medium [600,1600), hard [1600,∞).
func DefaultBands() Bands {
	return Bands{
		Easy:   Range{Min: 0, Max: 600},
		Medium: Range{Min: 600, Max: 1600},
		Hard:   Range{Min: 1600, Max: Unbounded},
	}
}

// Range looks up the interval for band.
func (b Bands) Range(band Band) (Range, bool) {
	switch band {
	case Easy:
		return b.Easy, true
	case Medium:
		return b.Medium, true
	case Hard:
		return b.Hard, true
	default:
		return Range{}, false
	}
}

// Validate checks that every band is non-empty and that easy, medium and hard
// tile the rating axis without gaps or overlaps.
func (b Bands) Validate() error {
	var errs []error
	for _, band := range AllBands {
		r, _ := b.Range(band)
		if r.Min < 0 {
			errs = append(errs, fmt.Errorf("%s: negative minimum %d", band, r.Min))
		}
		if r.Max <= r.Min {
			errs = append(errs, fmt.Errorf("%s: empty range %s", band, r))
		}
	}
	if b.Easy.Max != b.Medium.Min {
		errs = append(errs, fmt.Errorf("easy max %d does not meet medium min %d", b.Easy.Max, b.Medium.Min))
	}
	if b.Medium.Max != b.Hard.Min {
		errs = append(errs, fmt.Errorf("medium max %d does not meet hard min %d", b.Medium.Max, b.Hard.Min))
	}
	return errors.Join(errs...)
}
