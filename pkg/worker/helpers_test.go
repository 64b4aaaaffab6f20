package worker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"

	"github.com/darkweak/offline/errors"
	"github.com/darkweak/offline/pkg/cachestorage"
	"github.com/darkweak/offline/pkg/rules"
	"github.com/darkweak/offline/pkg/storage"
	"github.com/darkweak/offline/tests"
	"go.uber.org/zap"
)

var errOffline = &net.OpError{Op: "dial", Net: "tcp", Err: fmt.Errorf("network is unreachable")}

type fakeNetwork struct {
	mu       sync.Mutex
	offline  bool
	failing  map[string]bool
	statuses map[string]int
	bodies   map[string]string
	calls    []string
	last     *http.Response
	gate     chan struct{}
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{
		failing:  map[string]bool{},
		statuses: map[string]int{},
		bodies:   map[string]string{},
	}
}

func (f *fakeNetwork) RoundTrip(rq *http.Request) (*http.Response, error) {
	f.mu.Lock()
	path := rq.URL.RequestURI()
	f.calls = append(f.calls, rq.Method+" "+path)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.offline || f.failing[path] {
		return nil, errOffline
	}

	status := http.StatusOK
	if s, ok := f.statuses[path]; ok {
		status = s
	}
	body, ok := f.bodies[path]
	if !ok {
		body = "body of " + path
	}

	f.last = &http.Response{
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode: status,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{"Content-Type": []string{"text/plain"}},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Request:    rq,
	}

	return f.last, nil
}

func (f *fakeNetwork) setOffline(offline bool) {
	f.mu.Lock()
	f.offline = offline
	f.mu.Unlock()
}

func (f *fakeNetwork) setBody(path, body string) {
	f.mu.Lock()
	f.bodies[path] = body
	f.mu.Unlock()
}

func (f *fakeNetwork) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.calls)
}

type preloadingNetwork struct {
	*fakeNetwork
	enabled bool
	err     error
}

func (p *preloadingNetwork) EnableNavigationPreload(_ context.Context) error {
	if p.err != nil {
		return p.err
	}
	p.enabled = true

	return nil
}

func (p *preloadingNetwork) NavigationPreloadEnabled() bool {
	return p.enabled
}

type fakeClients struct {
	mu      sync.Mutex
	claimed []*Worker
}

func (f *fakeClients) Claim(_ context.Context, w *Worker) error {
	f.mu.Lock()
	f.claimed = append(f.claimed, w)
	f.mu.Unlock()

	return nil
}

func response(b string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{},
		Body:       io.NopCloser(bytes.NewBufferString(b)),
	}
}

func newCacheStorage(t *testing.T) *cachestorage.CacheStorage {
	s, _ := storage.Factory(nil)
	if err := s.Init(); err != nil {
		errors.GenerateError(t, fmt.Sprintf("Impossible to init the storer: %v", err))
	}

	return cachestorage.New(s, zap.NewNop())
}

func baseConfig(version string) Config {
	return Config{
		Version:     version,
		Origin:      tests.ORIGIN,
		Precache:    []string{"/", "/manifest.json", "/offline.html"},
		OfflinePage: "/offline.html",
		Rules:       rules.Default(),
	}
}

func newWorker(t *testing.T, config Config, caches *cachestorage.CacheStorage, fetcher http.RoundTripper, clients Clients) *Worker {
	w, err := New(config, caches, fetcher, clients, zap.NewNop())
	if err != nil {
		errors.GenerateError(t, fmt.Sprintf("Impossible to create the worker: %v", err))
	}

	return w
}

func activatedWorker(t *testing.T, config Config, caches *cachestorage.CacheStorage, fetcher http.RoundTripper) *Worker {
	w := newWorker(t, config, caches, fetcher, nil)
	if err := w.Install(context.Background()); err != nil {
		errors.GenerateError(t, fmt.Sprintf("The install must succeed: %v", err))
	}
	if err := w.Activate(context.Background()); err != nil {
		errors.GenerateError(t, fmt.Sprintf("The activation must succeed: %v", err))
	}

	return w
}

func get(u string) *http.Request {
	rq, _ := http.NewRequest(http.MethodGet, tests.ORIGIN+u, nil)
	return rq
}

func body(t *testing.T, res *http.Response) string {
	if res == nil {
		errors.GenerateError(t, "The response must not be nil")
		return ""
	}
	b, err := io.ReadAll(res.Body)
	if err != nil {
		errors.GenerateError(t, fmt.Sprintf("Impossible to read the body: %v", err))
	}

	return string(b)
}

func drain(t *testing.T, w *Worker) {
	if err := w.Drain(context.Background()); err != nil {
		errors.GenerateError(t, fmt.Sprintf("The pending work must drain: %v", err))
	}
}
