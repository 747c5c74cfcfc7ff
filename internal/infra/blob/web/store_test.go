package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/EvalVis/chesscorner/internal/blob/core"
)

func newOrigin(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/app/custom_rules/en.txt", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("ETag", `"abc"`)
		_, _ = io.WriteString(w, "Knights move twice\n")
	})
	mux.HandleFunc("/app/puzzles/broken.csv", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestStore_GetHead(t *testing.T) {
	srv := newOrigin(t)
	s, err := New(srv.URL+"/app", srv.Client())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	info, rc, err := s.Get(context.Background(), "custom_rules/en.txt")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "Knights move twice\n" || info.ETag != "abc" || !strings.HasPrefix(info.ContentType, "text/plain") {
		t.Fatalf("unexpected get %q %+v", b, info)
	}
	if _, err := s.Head(context.Background(), "/custom_rules/en.txt"); err != nil {
		t.Fatalf("head: %v", err)
	}
}

func TestStore_ErrorStatuses(t *testing.T) {
	srv := newOrigin(t)
	s, err := New(srv.URL+"/app/", nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, _, err := s.Get(context.Background(), "custom_rules/xx.txt"); !errors.Is(err, core.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
	if _, _, err := s.Get(context.Background(), "puzzles/broken.csv"); err == nil || errors.Is(err, core.ErrNotExist) {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestStore_ReadOnly(t *testing.T) {
	s, err := New("https://example.org", nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Driver() != core.DriverHTTP {
		t.Fatalf("expected http driver")
	}
	if _, err := s.Put(context.Background(), "k", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected unsupported put")
	}
	if _, err := s.Delete(context.Background(), "k"); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected unsupported delete")
	}
	if _, err := s.List(context.Background(), ""); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected unsupported list")
	}
	if _, err := New("ftp://example.org", nil); err == nil {
		t.Fatalf("expected scheme error")
	}
}
