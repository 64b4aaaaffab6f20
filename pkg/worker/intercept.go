package worker

import (
	"net/http"
	"time"

	"github.com/darkweak/offline/pkg/api/prometheus"
	"github.com/darkweak/offline/pkg/cachestorage"
	"github.com/darkweak/offline/pkg/rfc"
	"go.uber.org/zap"
)

// Result is an intercepted response with its origin
type Result struct {
	Response *http.Response
	Source   Source
}

// Intercept applies the offline policy to the request.
// A nil response with a nil error means the network failed and neither the request
// nor the offline page is cached.
func (w *Worker) Intercept(rq *http.Request) (*http.Response, error) {
	result, err := w.Serve(rq)

	return result.Response, err
}

// Serve is Intercept reporting where the response comes from
func (w *Worker) Serve(rq *http.Request) (Result, error) {
	if err := w.expect("intercept", Activated); err != nil {
		return Result{Source: SourceNone}, err
	}

	rq = w.absolute(rq)
	prometheus.Increment(prometheus.RequestCounter)

	if w.config.Rules.ShouldBypass(rq) {
		prometheus.Increment(prometheus.BypassCounter)
		res, err := w.fetcher.RoundTrip(rq)

		return Result{Response: res, Source: SourceBypass}, err
	}

	start := time.Now()
	res, err := w.fetcher.RoundTrip(rq)
	if err == nil {
		prometheus.Add(prometheus.AvgResponseTime, float64(time.Since(start).Milliseconds()))
		if !rfc.IsStorable(res, w.config.RespectNoStore) {
			prometheus.Increment(prometheus.NetworkResponseCounter)
			return Result{Response: res, Source: SourceNetwork}, nil
		}

		key := cachestorage.RequestKey(rq)
		cachestorage.Tee(res, func(snapshot func() ([]byte, error)) {
			w.writeThrough(key, snapshot)
		})
		prometheus.Increment(prometheus.NetworkResponseCounter)

		return Result{Response: res, Source: SourceNetwork}, nil
	}

	w.logger.Debug("Network failure, lookup the cache", zap.String("url", rq.URL.String()), zap.Error(err))

	return w.fallback(rq), nil
}

// writeThrough stores the snapshot in a detached task once the client read the whole body
func (w *Worker) writeThrough(key string, snapshot func() ([]byte, error)) {
	cache := w.currentCache()
	if cache == nil {
		return
	}

	stored := w.detach(func() {
		b, err := snapshot()
		if err == nil {
			var exists bool
			exists, err = cache.PutIfExists(key, b)
			if err == nil && !exists {
				w.logger.Debug("The generation was evicted, drop the write", zap.String("key", key))
				return
			}
		}
		if err != nil {
			prometheus.Increment(prometheus.WriteFailureCounter)
			w.logger.Warn("Impossible to store the response", zap.String("key", key), zap.Error(err))
			return
		}
		w.logger.Debug("Stored the response", zap.String("key", key))
	})
	if !stored {
		w.logger.Debug("The worker is draining, drop the write", zap.String("key", key))
	}
}

func (w *Worker) fallback(rq *http.Request) Result {
	if res := w.caches.Match(rq); res != nil {
		prometheus.Increment(prometheus.CachedResponseCounter)
		return Result{Response: res, Source: SourceCache}
	}

	if w.config.OfflinePage != "" {
		if u, err := w.resolve(w.config.OfflinePage); err == nil {
			offline, _ := http.NewRequestWithContext(rq.Context(), http.MethodGet, u.String(), nil)
			if res := w.caches.Match(offline); res != nil {
				prometheus.Increment(prometheus.FallbackResponseCounter)
				return Result{Response: res, Source: SourceOfflinePage}
			}
		}
	}

	prometheus.Increment(prometheus.NoFallbackCounter)
	w.logger.Warn("Neither the request nor the offline page are cached", zap.String("url", rq.URL.String()))

	return Result{Source: SourceNone}
}
