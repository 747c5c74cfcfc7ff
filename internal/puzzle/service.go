package puzzle

import (
	"context"
	"time"

	"github.com/EvalVis/chesscorner/internal/observability"
)

// Service is the caller-facing query surface. It never returns an error:
// puzzle queries degrade to FallbackRecord and theme queries to an empty
// list, with the cause logged and counted.
type Service struct {
	engine *Engine
	themes *ThemeIndex
	log    observability.Logger
	rec    observability.Recorder
}

// NewService wraps engine and themes. Nil logger or recorder disable that
// concern.
func NewService(engine *Engine, themes *ThemeIndex, log observability.Logger, rec observability.Recorder) *Service {
	if log == nil {
		log = observability.NopLogger{}
	}
	if rec == nil {
		rec = observability.NopRecorder{}
	}
	return &Service{engine: engine, themes: themes, log: log, rec: rec}
}

// Engine exposes the error-returning layer.
func (s *Service) Engine() *Engine { return s.engine }

// RandomPuzzle returns a puzzle from a random band.
func (s *Service) RandomPuzzle(ctx context.Context) Record {
	return s.record(ctx, "puzzle.random", func() (Record, error) {
		return s.engine.RandomPuzzle(ctx)
	}, "band", "random")
}

// RandomPuzzleByBand returns a puzzle rated inside band.
func (s *Service) RandomPuzzleByBand(ctx context.Context, band Band) Record {
	return s.record(ctx, "puzzle.by_band", func() (Record, error) {
		return s.engine.RandomByBand(ctx, band)
	}, "band", band)
}

// RandomPuzzleByTheme returns a puzzle tagged theme, optionally inside band.
func (s *Service) RandomPuzzleByTheme(ctx context.Context, theme string, band Band) Record {
	return s.record(ctx, "puzzle.by_theme", func() (Record, error) {
		return s.engine.RandomByTheme(ctx, theme, band)
	}, "theme", theme, "band", band)
}

// AllThemes lists every tag, or nothing when the dataset is unavailable.
func (s *Service) AllThemes(ctx context.Context) []string {
	return s.list(ctx, "themes.all", func() ([]string, error) {
		return s.themes.AllThemes(ctx)
	})
}

// ThemesForBand lists the tags seen inside band.
func (s *Service) ThemesForBand(ctx context.Context, band Band) []string {
	return s.list(ctx, "themes.band", func() ([]string, error) {
		return s.themes.ThemesForBand(ctx, band)
	}, "band", band)
}

func (s *Service) record(ctx context.Context, op string, fn func() (Record, error), args ...any) Record {
	start := time.Now()
	rec, err := fn()
	s.rec.Observe(ctx, op, err == nil, time.Since(start))
	if err != nil {
		s.rec.Fallback(ctx, op)
		s.log.Warn("serving fallback puzzle", append([]any{"op", op, "error", err}, args...)...)
		return FallbackRecord()
	}
	return rec
}

func (s *Service) list(ctx context.Context, op string, fn func() ([]string, error), args ...any) []string {
	start := time.Now()
	out, err := fn()
	s.rec.Observe(ctx, op, err == nil, time.Since(start))
	if err != nil {
		s.rec.Fallback(ctx, op)
		s.log.Warn("theme lookup failed", append([]any{"op", op, "error", err}, args...)...)
		return []string{}
	}
	return out
}
