package puzzle

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/EvalVis/chesscorner/internal/blob"
)

const header = "PuzzleId,Rating,FEN,Moves,RatingDeviation,Popularity,NbPlays,Themes,GameUrl,OpeningTags"

// tenRows covers every default band and both edges of each interval.
var tenRows = []string{
	"e1,0,8/8/8/8/8/8/8/K6k w - - 0 1,a1a2,75,90,10,fork short,url,",
	"e2,300,8/8/8/8/8/8/8/K6k w - - 0 1,a1a2,75,90,10,mate mateIn1,url,",
	"e3,599,8/8/8/8/8/8/8/K6k w - - 0 1,a1a2,75,90,10,endgame,url,",
	"m1,600,8/8/8/8/8/8/8/K6k w - - 0 1,a1a2,75,90,10,fork middlegame,url,",
	"m2,1000,8/8/8/8/8/8/8/K6k w - - 0 1,a1a2,75,90,10,pin,url,",
	"m3,1599,8/8/8/8/8/8/8/K6k w - - 0 1,a1a2,75,90,10,,url,",
	"h1,1600,8/8/8/8/8/8/8/K6k w - - 0 1,a1a2,75,90,10,fork,url,",
	"h2,2200,8/8/8/8/8/8/8/K6k w - - 0 1,a1a2,75,90,10,mate mateIn2,url,",
	"h3,3100,8/8/8/8/8/8/8/K6k w - - 0 1,a1a2,75,90,10,sacrifice,url,",
	"h4,9999,8/8/8/8/8/8/8/K6k w - - 0 1,a1a2,75,90,10,forkful,url,",
}

func dataset(rows ...string) string {
	return header + "\n" + strings.Join(rows, "\n") + "\n"
}

// countingSource wraps a blob store and counts Get calls.
type countingSource struct {
	store blob.Store
	gets  atomic.Int32
	gate  chan struct{}
}

func (c *countingSource) Get(ctx context.Context, key string) (blob.Info, io.ReadCloser, error) {
	c.gets.Add(1)
	if c.gate != nil {
		select {
		case <-c.gate:
		case <-ctx.Done():
			return blob.Info{}, nil, ctx.Err()
		}
	}
	return c.store.Get(ctx, key)
}

func newSource(t *testing.T, key, body string) *countingSource {
	t.Helper()
	store := blob.NewMemory()
	if body != "" || key != "" {
		if _, err := store.Put(context.Background(), key, strings.NewReader(body), blob.PutOptions{ContentType: "text/csv"}); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	return &countingSource{store: store}
}

// failingSource always fails.
type failingSource struct{ gets atomic.Int32 }

func (f *failingSource) Get(context.Context, string) (blob.Info, io.ReadCloser, error) {
	f.gets.Add(1)
	return blob.Info{}, nil, errors.New("connection refused")
}

func seeded() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) }

type captureLogger struct {
	mu    sync.Mutex
	warns []string
}

func (c *captureLogger) Debug(string, ...any) {}
func (c *captureLogger) Info(string, ...any)  {}
func (c *captureLogger) Error(string, ...any) {}
func (c *captureLogger) Warn(msg string, _ ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warns = append(c.warns, msg)
}

// waitForGets polls until src has seen n fetches.
func waitForGets(t *testing.T, src *countingSource, n int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for src.gets.Load() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d fetches, saw %d", n, src.gets.Load())
		}
		time.Sleep(time.Millisecond)
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("boom") }
