package worker

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/darkweak/offline/errors"
	"github.com/darkweak/offline/pkg/cachestorage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Clients is the set of pages a worker takes control of on activation
type Clients interface {
	Claim(ctx context.Context, w *Worker) error
}

// Worker is the offline cache manager of a single version
type Worker struct {
	id      string
	config  Config
	origin  *url.URL
	caches  *cachestorage.CacheStorage
	fetcher http.RoundTripper
	clients Clients
	logger  *zap.Logger

	mu            sync.RWMutex
	state         State
	skipWaiting   bool
	cache         *cachestorage.Cache
	onStateChange func(*Worker, State)

	pending    pendingWork
	retryGroup singleflight.Group
}

// New creates a worker in the parsed state
func New(config Config, caches *cachestorage.CacheStorage, fetcher http.RoundTripper, clients Clients, logger *zap.Logger) (*Worker, error) {
	origin, err := url.Parse(config.Origin)
	if err != nil {
		return nil, err
	}
	if config.RetryTag == "" {
		config.RetryTag = DefaultRetryTag
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if fetcher == nil {
		fetcher = http.DefaultTransport
	}

	id := uuid.NewString()

	return &Worker{
		id:      id,
		config:  config,
		origin:  origin,
		caches:  caches,
		fetcher: fetcher,
		clients: clients,
		logger:  logger.With(zap.String("worker", id), zap.String("version", config.Version)),
		state:   Parsed,
	}, nil
}

// ID returns the worker unique identifier
func (w *Worker) ID() string {
	return w.id
}

// Version returns the generation name the worker owns
func (w *Worker) Version() string {
	return w.config.Version
}

// Config returns the worker configuration
func (w *Worker) Config() Config {
	return w.config
}

// Caches returns the shared cache storage
func (w *Worker) Caches() *cachestorage.CacheStorage {
	return w.caches
}

// State returns the current lifecycle state
func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.state
}

// OnStateChange registers the function called after each transition
func (w *Worker) OnStateChange(fn func(*Worker, State)) {
	w.mu.Lock()
	w.onStateChange = fn
	w.mu.Unlock()
}

// SkipWaiting marks the worker to activate without waiting for the controlled clients to go away
func (w *Worker) SkipWaiting() {
	w.mu.Lock()
	w.skipWaiting = true
	w.mu.Unlock()
}

// SkipsWaiting reports if SkipWaiting was called
func (w *Worker) SkipsWaiting() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.skipWaiting
}

// Keys returns the request keys stored in the current generation
func (w *Worker) Keys() []string {
	cache := w.currentCache()
	if cache == nil {
		return []string{}
	}

	keys := []string{}
	for _, rq := range cache.Keys() {
		keys = append(keys, cachestorage.RequestKey(rq))
	}

	return keys
}

func (w *Worker) currentCache() *cachestorage.Cache {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.cache
}

// transition moves to the next state when the current one is allowed
func (w *Worker) transition(operation string, next State, allowed ...State) error {
	w.mu.Lock()
	current := w.state
	valid := false
	for _, s := range allowed {
		if s == current {
			valid = true
			break
		}
	}
	if !valid {
		w.mu.Unlock()
		return &errors.InvalidStateError{Operation: operation, State: current.String()}
	}
	w.state = next
	fn := w.onStateChange
	w.mu.Unlock()

	w.logger.Debug("Worker state changed", zap.Stringer("from", current), zap.Stringer("to", next))
	if fn != nil {
		fn(w, next)
	}

	return nil
}

func (w *Worker) expect(operation string, s State) error {
	if current := w.State(); current != s {
		return &errors.InvalidStateError{Operation: operation, State: current.String()}
	}

	return nil
}

// Drain waits for the detached cache writes and retries.
// The writes and retries started while it waits are dropped.
func (w *Worker) Drain(ctx context.Context) error {
	return w.pending.wait(ctx)
}

// MarkRedundant retires the worker and waits for its pending work
func (w *Worker) MarkRedundant(ctx context.Context) error {
	if err := w.transition("retire", Redundant, Parsed, Installing, Installed, Activating, Activated); err != nil {
		return err
	}

	return w.Drain(ctx)
}

// detach runs fn in a goroutine tracked by Drain, fn is dropped while draining
func (w *Worker) detach(fn func()) bool {
	if !w.pending.begin() {
		return false
	}
	go func() {
		defer w.pending.end()
		fn()
	}()

	return true
}

func (w *Worker) resolve(ref string) (*url.URL, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}

	return w.origin.ResolveReference(u), nil
}

// absolute returns the request with an URL resolved against the origin
func (w *Worker) absolute(rq *http.Request) *http.Request {
	if rq.URL.IsAbs() {
		return rq
	}

	abs := rq.Clone(rq.Context())
	abs.URL = w.origin.ResolveReference(rq.URL)

	return abs
}
