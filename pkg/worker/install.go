package worker

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/darkweak/offline/errors"
	"github.com/darkweak/offline/pkg/api/prometheus"
	"github.com/darkweak/offline/pkg/cachestorage"
	"github.com/darkweak/offline/pkg/rfc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Install precaches the manifest in the generation named by the version.
// Every URL is fetched before anything is written, a single failure makes the worker redundant
// and removes the generation when this install created it.
func (w *Worker) Install(ctx context.Context) error {
	if err := w.transition("install", Installing, Parsed); err != nil {
		return err
	}

	cache, created, err := w.caches.Open(w.config.Version)
	if err != nil {
		return w.failInstall(false, &errors.InstallError{Version: w.config.Version, Cause: err})
	}

	entries := make([]cachestorage.Entry, len(w.config.Precache))
	g, gctx := errgroup.WithContext(ctx)
	for i, raw := range w.config.Precache {
		i, raw := i, raw
		g.Go(func() error {
			entry, e := w.precache(gctx, raw)
			if e != nil {
				return &errors.InstallError{Version: w.config.Version, URL: raw, Cause: e}
			}
			entries[i] = entry

			return nil
		})
	}

	if err = g.Wait(); err != nil {
		return w.failInstall(created, err)
	}

	if err = cache.PutAll(entries); err != nil {
		return w.failInstall(created, &errors.InstallError{Version: w.config.Version, Cause: err})
	}

	w.mu.Lock()
	w.cache = cache
	w.mu.Unlock()
	w.SkipWaiting()

	w.logger.Info("Worker installed", zap.Int("precached", len(entries)))

	return w.transition("install", Installed, Installing)
}

// precache fetches the manifest URL and buffers the body before the group context is canceled
func (w *Worker) precache(ctx context.Context, raw string) (cachestorage.Entry, error) {
	u, err := w.resolve(raw)
	if err != nil {
		return cachestorage.Entry{}, err
	}

	rq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return cachestorage.Entry{}, err
	}

	res, err := w.fetcher.RoundTrip(rq)
	if err != nil {
		return cachestorage.Entry{}, err
	}
	defer res.Body.Close()

	if !rfc.IsOK(res.StatusCode) {
		return cachestorage.Entry{}, &errors.UnsuccessfulResponseError{StatusCode: res.StatusCode}
	}

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return cachestorage.Entry{}, err
	}
	res.Body = io.NopCloser(bytes.NewReader(b))
	w.logger.Debug("Precached", zap.String("url", u.String()))

	return cachestorage.Entry{Request: rq, Response: res}, nil
}

func (w *Worker) failInstall(created bool, cause error) error {
	prometheus.Increment(prometheus.InstallFailureCounter)
	w.logger.Error("Worker install failed", zap.Error(cause))

	if created {
		if _, err := w.caches.Delete(w.config.Version); err != nil {
			w.logger.Warn("Impossible to remove the generation created by the failed install", zap.Error(err))
		}
	}
	_ = w.transition("install", Redundant, Installing)

	return cause
}
