package puzzle

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/EvalVis/chesscorner/internal/blob"
)

func TestLoaderSkipsHeaderAndBlankLines(t *testing.T) {
	body := header + "\r\n\r\n" + tenRows[0] + "\r\n   \n" + tenRows[1] + "\n\n"
	src := newSource(t, DefaultDatasetKey, body)
	rows, err := NewLoader(src, "", LoaderOptions{}).Rows(context.Background())
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if strings.HasSuffix(rows[0].Line, "\r") {
		t.Fatalf("carriage return not stripped: %q", rows[0].Line)
	}
	if rows[0].Themes[1] != "short" {
		t.Fatalf("unexpected themes %v", rows[0].Themes)
	}
}

func TestLoaderCachesAfterFirstFetch(t *testing.T) {
	src := newSource(t, DefaultDatasetKey, dataset(tenRows...))
	loader := NewLoader(src, DefaultDatasetKey, LoaderOptions{})
	engine := NewEngine(loader, DefaultBands(), seeded())
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := engine.RandomPuzzle(ctx); err != nil {
			t.Fatalf("query %d: %v", i, err)
		}
	}
	if got := src.gets.Load(); got != 1 {
		t.Fatalf("expected one fetch, got %d", got)
	}
}

func TestLoaderCoalescesConcurrentFirstLoads(t *testing.T) {
	src := newSource(t, DefaultDatasetKey, dataset(tenRows...))
	src.gate = make(chan struct{})
	loader := NewLoader(src, DefaultDatasetKey, LoaderOptions{})

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rows, err := loader.Rows(context.Background())
			if err == nil && len(rows) != len(tenRows) {
				err = errors.New("short read")
			}
			errs <- err
		}()
	}
	// Let the goroutines pile up on the in-flight load before releasing it.
	deadline := time.Now().Add(2 * time.Second)
	for src.gets.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("rows: %v", err)
		}
	}
	if got := src.gets.Load(); got != 1 {
		t.Fatalf("expected one shared fetch, got %d", got)
	}
}

func TestLoaderDoesNotCacheFailure(t *testing.T) {
	store := blob.NewMemory()
	src := &countingSource{store: store}
	loader := NewLoader(src, DefaultDatasetKey, LoaderOptions{})
	ctx := context.Background()

	_, err := loader.Rows(ctx)
	if !errors.Is(err, ErrDataUnavailable) || !errors.Is(err, blob.ErrNotExist) {
		t.Fatalf("expected ErrDataUnavailable wrapping ErrNotExist, got %v", err)
	}
	if _, err := store.Put(ctx, DefaultDatasetKey, strings.NewReader(dataset(tenRows...)), blob.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	rows, err := loader.Rows(ctx)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(rows) != len(tenRows) || src.gets.Load() != 2 {
		t.Fatalf("expected retry to fetch again: rows=%d gets=%d", len(rows), src.gets.Load())
	}
}

func TestLoaderReset(t *testing.T) {
	src := newSource(t, DefaultDatasetKey, dataset(tenRows...))
	loader := NewLoader(src, DefaultDatasetKey, LoaderOptions{})
	ctx := context.Background()
	if _, err := loader.Rows(ctx); err != nil {
		t.Fatalf("rows: %v", err)
	}
	loader.Reset()
	if _, err := loader.Rows(ctx); err != nil {
		t.Fatalf("rows: %v", err)
	}
	if got := src.gets.Load(); got != 2 {
		t.Fatalf("expected refetch after reset, got %d fetches", got)
	}
}

func TestLoaderZstd(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	compressed := enc.EncodeAll([]byte(dataset(tenRows...)), nil)
	_ = enc.Close()

	key := "puzzles/lichess_db_puzzle.csv.zst"
	store := blob.NewMemory()
	if _, err := store.Put(context.Background(), key, strings.NewReader(string(compressed)), blob.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	rows, err := NewLoader(store, key, LoaderOptions{}).Rows(context.Background())
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != len(tenRows) || rows[9].ID != "h4" {
		t.Fatalf("unexpected rows %d", len(rows))
	}

	garbage := blob.NewMemory()
	if _, err := garbage.Put(context.Background(), key, strings.NewReader("not zstd"), blob.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := NewLoader(garbage, key, LoaderOptions{}).Rows(context.Background()); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable for corrupt stream, got %v", err)
	}
}

type readErrSource struct{}

func (readErrSource) Get(context.Context, string) (blob.Info, io.ReadCloser, error) {
	return blob.Info{}, io.NopCloser(errReader{}), nil
}

func TestLoaderReadError(t *testing.T) {
	_, err := NewLoader(readErrSource{}, "", LoaderOptions{}).Rows(context.Background())
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestLoaderSharedFetchOutlivesCallerCancel(t *testing.T) {
	src := newSource(t, DefaultDatasetKey, dataset(tenRows...))
	src.gate = make(chan struct{})
	loader := NewLoader(src, DefaultDatasetKey, LoaderOptions{})

	first, cancel := context.WithCancel(context.Background())
	results := make(chan error, 2)
	go func() {
		_, err := loader.Rows(first)
		results <- err
	}()
	waitForGets(t, src, 1)
	go func() {
		rows, err := loader.Rows(context.Background())
		if err == nil && len(rows) != len(tenRows) {
			err = errors.New("short read")
		}
		results <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)
	close(src.gate)

	for i := 0; i < 2; i++ {
		if err := <-results; err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
	}
	if got := src.gets.Load(); got != 1 {
		t.Fatalf("expected one shared fetch, got %d", got)
	}
}

func TestLoaderResetDuringFetch(t *testing.T) {
	src := newSource(t, DefaultDatasetKey, dataset(tenRows...))
	src.gate = make(chan struct{})
	loader := NewLoader(src, DefaultDatasetKey, LoaderOptions{})

	done := make(chan error, 1)
	go func() {
		_, err := loader.Rows(context.Background())
		done <- err
	}()
	waitForGets(t, src, 1)
	loader.Reset()
	close(src.gate)
	if err := <-done; err != nil {
		t.Fatalf("rows: %v", err)
	}
	if _, ok, _ := loader.cached(); ok {
		t.Fatalf("fetch started before reset must not refill the cache")
	}
	if _, err := loader.Rows(context.Background()); err != nil {
		t.Fatalf("rows: %v", err)
	}
	if got := src.gets.Load(); got != 2 {
		t.Fatalf("expected refetch after reset, got %d fetches", got)
	}
}

func TestLoaderSkipsOverLongLines(t *testing.T) {
	long := "x," + strings.Repeat("9", maxLineBytes) + ",fen"
	src := newSource(t, DefaultDatasetKey, dataset(tenRows[0], long, tenRows[1]))
	log := &captureLogger{}
	rows, err := NewLoader(src, "", LoaderOptions{Logger: log}).Rows(context.Background())
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != "e1" || rows[1].ID != "e2" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if len(log.warns) != 1 {
		t.Fatalf("expected one warning, got %v", log.warns)
	}
}
