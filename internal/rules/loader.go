// Package rules loads localized custom-rule lists and tracks which rules of a
// list have been revealed.
package rules

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"

	"github.com/EvalVis/chesscorner/internal/blob"
	"github.com/EvalVis/chesscorner/internal/observability"
)

// DefaultPrefix is the key prefix of rule files.
const DefaultPrefix = "custom_rules"

var (
	// ErrDataUnavailable marks a rule file that could not be read.
	ErrDataUnavailable = errors.New("rules: resource unavailable")
	// ErrBadLanguage marks a language tag that does not parse.
	ErrBadLanguage = errors.New("rules: invalid language tag")
)

// Rule is one line of a rule file. IDs are dense, 1-based and only stable
// within one language.
type Rule struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Source fetches resources by key. blob.Store satisfies it.
type Source interface {
	Get(ctx context.Context, key string) (blob.Info, io.ReadCloser, error)
}

// LoaderOptions carries the optional collaborators of a Loader.
type LoaderOptions struct {
	Logger   observability.Logger
	Recorder observability.Recorder
}

// Loader reads <prefix>/<lang>.txt and caches each non-empty list per
// language for its lifetime.
type Loader struct {
	src    Source
	prefix string
	log    observability.Logger
	rec    observability.Recorder

	group singleflight.Group

	mu    sync.RWMutex
	gen   uint64
	cache map[string][]Rule
}

// NewLoader builds a loader over src. An empty prefix means DefaultPrefix.
func NewLoader(src Source, prefix string, opts LoaderOptions) *Loader {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	l := &Loader{src: src, prefix: prefix, log: opts.Logger, rec: opts.Recorder, cache: make(map[string][]Rule)}
	if l.log == nil {
		l.log = observability.NopLogger{}
	}
	if l.rec == nil {
		l.rec = observability.NopRecorder{}
	}
	return l
}

// Language canonicalises tag to its base language ("en-US" becomes "en").
// Tags whose base is only guessed, such as "und", are rejected.
func Language(tag string) (string, error) {
	if strings.TrimSpace(tag) == "" {
		return "", fmt.Errorf("%w: empty", ErrBadLanguage)
	}
	t, err := language.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrBadLanguage, tag, err)
	}
	base, conf := t.Base()
	if conf < language.High {
		return "", fmt.Errorf("%w: %q", ErrBadLanguage, tag)
	}
	return base.String(), nil
}

// Key returns the resource key of the rule file for tag.
func (l *Loader) Key(tag string) (string, error) {
	lang, err := Language(tag)
	if err != nil {
		return "", err
	}
	return path.Join(l.prefix, lang+".txt"), nil
}

// Load returns the rules for tag. Failures are logged and yield an empty list.
func (l *Loader) Load(ctx context.Context, tag string) []Rule {
	rules, err := l.Fetch(ctx, tag)
	if err != nil {
		l.rec.Fallback(ctx, "rules.load")
		l.log.Warn("rules unavailable", "lang", tag, "error", err)
		return []Rule{}
	}
	return rules
}

// Fetch is Load with errors. Empty lists are returned but not cached. The
// shared read ignores the cancellation of whichever caller started it.
func (l *Loader) Fetch(ctx context.Context, tag string) ([]Rule, error) {
	lang, err := Language(tag)
	if err != nil {
		return nil, err
	}
	rules, ok, gen := l.cached(lang)
	if ok {
		return clone(rules), nil
	}
	v, err, _ := l.group.Do(flightKey(lang, gen), func() (any, error) {
		if rules, ok, _ := l.cached(lang); ok {
			return rules, nil
		}
		readCtx := context.WithoutCancel(ctx)
		start := time.Now()
		rules, err := l.read(readCtx, path.Join(l.prefix, lang+".txt"))
		l.rec.Observe(readCtx, "rules.load", err == nil, time.Since(start))
		if err != nil {
			return nil, err
		}
		if len(rules) > 0 {
			l.mu.Lock()
			if l.gen == gen {
				l.cache[lang] = rules
			}
			l.mu.Unlock()
		}
		return rules, nil
	})
	if err != nil {
		return nil, err
	}
	return clone(v.([]Rule)), nil
}

// Reset clears every cached language. Reads still in flight finish for their
// own callers but no longer fill the cache, and later calls start new reads.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.cache = make(map[string][]Rule)
}

func (l *Loader) cached(lang string) ([]Rule, bool, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rules, ok := l.cache[lang]
	return rules, ok, l.gen
}

func flightKey(lang string, gen uint64) string {
	return lang + "#" + strconv.FormatUint(gen, 10)
}

func (l *Loader) read(ctx context.Context, key string) ([]Rule, error) {
	_, rc, err := l.src.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", ErrDataUnavailable, key, err)
	}
	defer func() { _ = rc.Close() }()
	rules, err := Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrDataUnavailable, key, err)
	}
	return rules, nil
}

// Parse reads one rule per line. A leading byte order mark selects UTF-8 or
// UTF-16; lines are trimmed and blank lines dropped before numbering.
func Parse(r io.Reader) ([]Rule, error) {
	br := bufio.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	rules := []Rule{}
	for {
		line, err := br.ReadString('\n')
		if text := strings.TrimSpace(line); text != "" {
			rules = append(rules, Rule{ID: len(rules) + 1, Text: text})
		}
		if err == io.EOF {
			return rules, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func clone(in []Rule) []Rule {
	out := make([]Rule, len(in))
	copy(out, in)
	return out
}
