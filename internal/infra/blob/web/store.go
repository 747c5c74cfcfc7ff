// Package web fetches resources from a static web origin, the way the browser
// app pulled /puzzles/*.csv and /custom_rules/*.txt from its own host.
// The store is read-only.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/EvalVis/chesscorner/internal/blob/core"
)

// Store implements core.Store over HTTP GET/HEAD.
type Store struct {
	base   *url.URL
	client *http.Client
}

// New returns a store resolving keys against base. A nil client uses a
// client with a 30s timeout.
func New(base string, client *http.Client) (*Store, error) {
	u, err := url.Parse(strings.TrimSuffix(base, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base url scheme %q", u.Scheme)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Store{base: u, client: client}, nil
}

// Driver returns the blob driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverHTTP }

func (s *Store) do(ctx context.Context, method, key string) (*http.Response, error) {
	ref, err := url.Parse(strings.TrimPrefix(key, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse key: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.base.ResolveReference(ref).String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("blob %s: %w", key, core.ErrNotExist)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%s %s: unexpected status %s", method, key, resp.Status)
	}
	return resp, nil
}

// Get issues a GET for key.
func (s *Store) Get(ctx context.Context, key string) (core.Info, io.ReadCloser, error) {
	resp, err := s.do(ctx, http.MethodGet, key)
	if err != nil {
		return core.Info{}, nil, err
	}
	return infoFrom(key, resp), resp.Body, nil
}

// Head issues a HEAD for key.
func (s *Store) Head(ctx context.Context, key string) (core.Info, error) {
	resp, err := s.do(ctx, http.MethodHead, key)
	if err != nil {
		return core.Info{}, err
	}
	_ = resp.Body.Close()
	return infoFrom(key, resp), nil
}

// Put is not supported by a static origin.
func (s *Store) Put(context.Context, string, io.Reader, core.PutOptions) (core.Info, error) {
	return core.Info{}, core.ErrUnsupported
}

// Delete is not supported by a static origin.
func (s *Store) Delete(context.Context, string) (bool, error) {
	return false, core.ErrUnsupported
}

// List is not supported by a static origin.
func (s *Store) List(context.Context, string) ([]core.Info, error) {
	return nil, core.ErrUnsupported
}

func infoFrom(key string, resp *http.Response) core.Info {
	info := core.Info{
		Key:         key,
		Size:        resp.ContentLength,
		ContentType: resp.Header.Get("Content-Type"),
		ETag:        strings.Trim(resp.Header.Get("ETag"), "\""),
	}
	if lm, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		info.LastModified = lm.UTC()
	}
	return info
}
