package registration

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/darkweak/offline/errors"
	"github.com/darkweak/offline/pkg/cachestorage"
	"github.com/darkweak/offline/pkg/worker"
	"go.uber.org/zap"
)

// Registration holds the worker controlling the clients and installs the new versions
type Registration struct {
	caches  *cachestorage.CacheStorage
	fetcher http.RoundTripper
	logger  *zap.Logger

	registerMu sync.Mutex
	mu         sync.RWMutex
	controller *worker.Worker

	subsMu         sync.Mutex
	subscribers    map[int]chan Event
	nextSubscriber int
}

// New creates an empty registration
func New(caches *cachestorage.CacheStorage, fetcher http.RoundTripper, logger *zap.Logger) *Registration {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fetcher == nil {
		fetcher = http.DefaultTransport
	}

	return &Registration{
		caches:      caches,
		fetcher:     fetcher,
		logger:      logger,
		subscribers: make(map[int]chan Event),
	}
}

// Controller returns the worker controlling the clients, nil before the first activation
func (r *Registration) Controller() *worker.Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.controller
}

// Caches returns the shared cache storage
func (r *Registration) Caches() *cachestorage.CacheStorage {
	return r.caches
}

// Register installs and activates the worker of the configured version.
// Registering the version already in control is a no-op. When the install fails
// the current controller keeps the clients and the error is returned.
func (r *Registration) Register(ctx context.Context, config worker.Config) (*worker.Worker, error) {
	r.registerMu.Lock()
	defer r.registerMu.Unlock()

	previous := r.Controller()
	if previous != nil && previous.Version() == config.Version {
		r.logger.Debug("The version is already in control", zap.String("version", config.Version))
		return previous, nil
	}

	w, err := worker.New(config, r.caches, r.fetcher, r, r.logger)
	if err != nil {
		return nil, err
	}
	w.OnStateChange(func(current *worker.Worker, _ worker.State) {
		r.publish(eventFor(StateChange, current))
	})
	r.publish(eventFor(UpdateFound, w))

	if err = w.Install(ctx); err != nil {
		return nil, err
	}

	if previous != nil {
		_ = previous.Drain(ctx)
	}
	if err = w.Activate(ctx); err != nil {
		return nil, err
	}

	if previous != nil {
		if err = previous.MarkRedundant(ctx); err != nil {
			r.logger.Warn("Impossible to retire the previous worker", zap.String("version", previous.Version()), zap.Error(err))
		}
	}
	r.logger.Info("The worker controls the clients", zap.String("version", w.Version()), zap.String("worker", w.ID()))

	return w, nil
}

// Claim implements worker.Clients
func (r *Registration) Claim(_ context.Context, w *worker.Worker) error {
	r.mu.Lock()
	r.controller = w
	r.mu.Unlock()

	r.publish(eventFor(ControllerChange, w))

	return nil
}

// Serve routes the client request through the controller, straight to the network without one
func (r *Registration) Serve(rq *http.Request) (worker.Result, error) {
	for attempt := 0; attempt < 2; attempt++ {
		controller := r.Controller()
		if controller == nil {
			break
		}

		result, err := controller.Serve(rq)
		if _, retired := err.(*errors.InvalidStateError); retired {
			continue
		}

		return result, err
	}

	res, err := r.fetcher.RoundTrip(rq)

	return worker.Result{Response: res, Source: worker.SourceNetwork}, err
}

// RoundTrip implements http.RoundTripper
func (r *Registration) RoundTrip(rq *http.Request) (*http.Response, error) {
	result, err := r.Serve(rq)
	if err != nil {
		return nil, err
	}
	if result.Response == nil {
		return nil, &errors.NoFallbackError{URL: rq.URL.String()}
	}

	return result.Response, nil
}

// PostMessage delivers the tagged signal to the controller
func (r *Registration) PostMessage(ctx context.Context, tag string) (worker.RetryReport, error) {
	controller := r.Controller()
	if controller == nil {
		return worker.RetryReport{}, nil
	}

	report, err := controller.Retry(ctx, tag)
	if err != nil || tag != controller.Config().RetryTag {
		return report, err
	}

	e := eventFor(Message, controller)
	e.Data = fmt.Sprintf("%s: refreshed=%d failed=%d", tag, report.Refreshed, report.Failed)
	r.publish(e)

	return report, nil
}

// Close retires the controller once its pending work is done
func (r *Registration) Close(ctx context.Context) error {
	r.registerMu.Lock()
	defer r.registerMu.Unlock()

	r.mu.Lock()
	controller := r.controller
	r.controller = nil
	r.mu.Unlock()

	if controller == nil {
		return nil
	}

	return controller.MarkRedundant(ctx)
}

var (
	_ worker.Clients    = (*Registration)(nil)
	_ http.RoundTripper = (*Registration)(nil)
)
