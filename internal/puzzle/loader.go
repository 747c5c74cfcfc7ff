package puzzle

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/singleflight"

	"github.com/EvalVis/chesscorner/internal/blob"
	"github.com/EvalVis/chesscorner/internal/observability"
)

// DefaultDatasetKey is where the dataset lives inside the resource store.
const DefaultDatasetKey = "puzzles/lichess_db_puzzle.csv"

const maxLineBytes = 1 << 20

// Source fetches resources by key. blob.Store satisfies it.
type Source interface {
	Get(ctx context.Context, key string) (blob.Info, io.ReadCloser, error)
}

// RowSource yields the loaded dataset.
type RowSource interface {
	Rows(ctx context.Context) ([]Row, error)
}

// LoaderOptions carries the optional collaborators of a Loader.
type LoaderOptions struct {
	Logger   observability.Logger
	Recorder observability.Recorder
}

// Loader fetches the dataset once and keeps the parsed rows until Reset.
// Concurrent first calls share one fetch; failures are not cached.
type Loader struct {
	src Source
	key string
	log observability.Logger
	rec observability.Recorder

	group singleflight.Group

	mu     sync.RWMutex
	gen    uint64
	rows   []Row
	loaded bool
}

// NewLoader reads the dataset stored at key (DefaultDatasetKey when empty).
// Keys ending in .zst are zstd-decoded.
func NewLoader(src Source, key string, opts LoaderOptions) *Loader {
	if key == "" {
		key = DefaultDatasetKey
	}
	l := &Loader{src: src, key: key, log: opts.Logger, rec: opts.Recorder}
	if l.log == nil {
		l.log = observability.NopLogger{}
	}
	if l.rec == nil {
		l.rec = observability.NopRecorder{}
	}
	return l
}

// Key returns the dataset key.
func (l *Loader) Key() string { return l.key }

// Rows returns the cached rows, loading them on first use. The returned slice
// is shared and must not be modified. The shared fetch ignores the
// cancellation of whichever caller started it.
func (l *Loader) Rows(ctx context.Context) ([]Row, error) {
	rows, ok, gen := l.cached()
	if ok {
		return rows, nil
	}
	v, err, _ := l.group.Do(l.flightKey(gen), func() (any, error) {
		if rows, ok, _ := l.cached(); ok {
			return rows, nil
		}
		fetchCtx := context.WithoutCancel(ctx)
		start := time.Now()
		rows, skipped, err := l.fetch(fetchCtx)
		l.rec.Observe(fetchCtx, "dataset.load", err == nil, time.Since(start))
		if err != nil {
			return nil, err
		}
		if skipped > 0 {
			l.log.Warn("skipped over-long dataset lines", "key", l.key, "lines", skipped, "limit", maxLineBytes)
		}
		l.mu.Lock()
		if l.gen == gen {
			l.rows, l.loaded = rows, true
		}
		l.mu.Unlock()
		l.log.Info("dataset loaded", "key", l.key, "rows", len(rows), "elapsed", time.Since(start))
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Row), nil
}

func (l *Loader) cached() ([]Row, bool, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rows, l.loaded, l.gen
}

func (l *Loader) flightKey(gen uint64) string {
	return l.key + "#" + strconv.FormatUint(gen, 10)
}

// Reset drops the cache so the next call fetches again. A fetch still in
// flight finishes for its own callers but no longer fills the cache.
func (l *Loader) Reset() {
	l.mu.Lock()
	gen := l.gen
	l.gen++
	l.rows, l.loaded = nil, false
	l.mu.Unlock()
	l.group.Forget(l.flightKey(gen))
}

func (l *Loader) fetch(ctx context.Context) ([]Row, int, error) {
	_, rc, err := l.src.Get(ctx, l.key)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: get %s: %w", ErrDataUnavailable, l.key, err)
	}
	defer func() { _ = rc.Close() }()

	var r io.Reader = rc
	if strings.HasSuffix(l.key, ".zst") {
		dec, err := zstd.NewReader(rc)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: zstd %s: %w", ErrDataUnavailable, l.key, err)
		}
		defer dec.Close()
		r = dec
	}
	rows, skipped, err := readRows(r)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read %s: %w", ErrDataUnavailable, l.key, err)
	}
	return rows, skipped, nil
}

// readRows skips the header line and blank lines. Lines longer than
// maxLineBytes are dropped and counted.
func readRows(r io.Reader) ([]Row, int, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	var (
		rows    []Row
		buf     []byte
		tooLong bool
		skipped int
	)
	header := true
	for {
		chunk, more, err := br.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		if !tooLong {
			if len(buf)+len(chunk) > maxLineBytes {
				tooLong, buf = true, buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}
		if more {
			continue
		}
		line, long := strings.TrimSuffix(string(buf), "\r"), tooLong
		buf, tooLong = buf[:0], false
		if header {
			header = false
			continue
		}
		if long {
			skipped++
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, ParseRow(line))
	}
	return rows, skipped, nil
}
