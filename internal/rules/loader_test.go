package rules

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/EvalVis/chesscorner/internal/blob"
)

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

func newSource(t *testing.T, files map[string]string) *countingSource {
	t.Helper()
	store := blob.NewMemory()
	for key, body := range files {
		if _, err := store.Put(context.Background(), key, strings.NewReader(body), blob.PutOptions{ContentType: "text/plain"}); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	return &countingSource{store: store}
}

type captureLogger struct{ warns []string }

func (c *captureLogger) Debug(string, ...any)      {}
func (c *captureLogger) Info(string, ...any)       {}
func (c *captureLogger) Error(string, ...any)      {}
func (c *captureLogger) Warn(msg string, _ ...any) { c.warns = append(c.warns, msg) }

func TestParseDenseIDs(t *testing.T) {
	rules, err := Parse(strings.NewReader("\n  Knights move twice  \n\n\r\nPawns may retreat\r\n\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []Rule{{ID: 1, Text: "Knights move twice"}, {ID: 2, Text: "Pawns may retreat"}}
	if len(rules) != len(want) {
		t.Fatalf("got %v", rules)
	}
	for i := range want {
		if rules[i] != want[i] {
			t.Fatalf("rule %d: got %+v, want %+v", i, rules[i], want[i])
		}
	}
}

func TestParseStripsBOM(t *testing.T) {
	rules, err := Parse(strings.NewReader("\ufeffŽirgai šokinėja du kartus\nBokštai"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rules) != 2 || rules[0].Text != "Žirgai šokinėja du kartus" {
		t.Fatalf("unexpected rules %+v", rules)
	}
	utf16 := []byte{0xFF, 0xFE, 'A', 0, '\n', 0, 'B', 0}
	rules, err = Parse(strings.NewReader(string(utf16)))
	if err != nil {
		t.Fatalf("parse utf16: %v", err)
	}
	if len(rules) != 2 || rules[0].Text != "A" || rules[1].Text != "B" {
		t.Fatalf("unexpected utf16 rules %+v", rules)
	}
}

func TestLanguage(t *testing.T) {
	for in, want := range map[string]string{"en": "en", "EN": "en", "en-US": "en", "lt-LT": "lt"} {
		got, err := Language(in)
		if err != nil || got != want {
			t.Fatalf("Language(%q) = %q, %v", in, got, err)
		}
	}
	for _, bad := range []string{"", "   ", "not a tag!", "und"} {
		if _, err := Language(bad); !errors.Is(err, ErrBadLanguage) {
			t.Fatalf("Language(%q): expected ErrBadLanguage, got %v", bad, err)
		}
	}
}

func TestLoadCachesPerLanguage(t *testing.T) {
	src := newSource(t, map[string]string{
		"custom_rules/en.txt": "One\nTwo\nThree\n",
		"custom_rules/lt.txt": "Vienas\n",
	})
	l := NewLoader(src, "", LoaderOptions{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if got := l.Load(ctx, "en-GB"); len(got) != 3 {
			t.Fatalf("expected 3 english rules, got %v", got)
		}
	}
	if got := l.Load(ctx, "lt"); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("unexpected lithuanian rules %v", got)
	}
	if got := src.gets.Load(); got != 2 {
		t.Fatalf("expected one fetch per language, got %d", got)
	}

	rules := l.Load(ctx, "en")
	rules[0].Text = "mutated"
	if l.Load(ctx, "en")[0].Text != "One" {
		t.Fatalf("cached rules must not be shared with callers")
	}
}

func TestLoadFailureIsEmptyAndRetried(t *testing.T) {
	src := newSource(t, nil)
	log := &captureLogger{}
	l := NewLoader(src, "rules", LoaderOptions{Logger: log})
	ctx := context.Background()

	got := l.Load(ctx, "en")
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
	if _, err := l.Fetch(ctx, "en"); !errors.Is(err, ErrDataUnavailable) || !errors.Is(err, blob.ErrNotExist) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
	if len(log.warns) != 1 {
		t.Fatalf("expected one warning, got %v", log.warns)
	}
	if got := l.Load(ctx, "??"); len(got) != 0 || len(log.warns) != 2 {
		t.Fatalf("invalid tag should log and yield nothing")
	}

	if _, err := src.store.Put(ctx, "rules/en.txt", strings.NewReader("Late rule"), blob.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if got := l.Load(ctx, "en"); len(got) != 1 {
		t.Fatalf("expected retry to succeed, got %v", got)
	}
}

func TestEmptyFileNotCached(t *testing.T) {
	src := newSource(t, map[string]string{"custom_rules/en.txt": "\n\n"})
	l := NewLoader(src, "", LoaderOptions{})
	ctx := context.Background()
	if got := l.Load(ctx, "en"); len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
	l.Load(ctx, "en")
	if got := src.gets.Load(); got != 2 {
		t.Fatalf("empty list should not be cached, got %d fetches", got)
	}
	l.Reset()
}

func TestKey(t *testing.T) {
	l := NewLoader(nil, "custom_rules", LoaderOptions{})
	key, err := l.Key("LT")
	if err != nil || key != "custom_rules/lt.txt" {
		t.Fatalf("Key = %q, %v", key, err)
	}
}

func TestParseLongLine(t *testing.T) {
	long := strings.Repeat("a", 200*1024)
	rules, err := Parse(strings.NewReader("first\n" + long + "\nlast"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rules) != 3 || rules[1].Text != long || rules[2].Text != "last" {
		t.Fatalf("unexpected rules: %d", len(rules))
	}
}

func TestSharedReadOutlivesCallerCancel(t *testing.T) {
	src := newSource(t, map[string]string{"custom_rules/en.txt": "One\nTwo\n"})
	src.gate = make(chan struct{})
	l := NewLoader(src, "", LoaderOptions{})

	first, cancel := context.WithCancel(context.Background())
	results := make(chan int, 2)
	go func() { results <- len(l.Load(first, "en")) }()
	waitForGets(t, src, 1)
	go func() { results <- len(l.Load(context.Background(), "en")) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)
	close(src.gate)

	for i := 0; i < 2; i++ {
		if got := <-results; got != 2 {
			t.Fatalf("caller %d: expected 2 rules, got %d", i, got)
		}
	}
	if got := src.gets.Load(); got != 1 {
		t.Fatalf("expected one shared read, got %d", got)
	}
}

func TestResetDuringRead(t *testing.T) {
	src := newSource(t, map[string]string{"custom_rules/en.txt": "One\n"})
	src.gate = make(chan struct{})
	l := NewLoader(src, "", LoaderOptions{})

	done := make(chan int, 1)
	go func() { done <- len(l.Load(context.Background(), "en")) }()
	waitForGets(t, src, 1)
	l.Reset()
	close(src.gate)
	if got := <-done; got != 1 {
		t.Fatalf("expected 1 rule, got %d", got)
	}
	if _, ok, _ := l.cached("en"); ok {
		t.Fatalf("read started before reset must not refill the cache")
	}
	l.Load(context.Background(), "en")
	if got := src.gets.Load(); got != 2 {
		t.Fatalf("expected a fresh read after reset, got %d", got)
	}
}
