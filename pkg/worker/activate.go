package worker

import (
	"context"

	"github.com/darkweak/offline/pkg/api/prometheus"
	"github.com/darkweak/offline/pkg/network"
	"go.uber.org/zap"
)

// Activate evicts the stale generations, claims the clients and enables the navigation preload.
// Eviction, claim and preload failures are logged and never abort the activation.
func (w *Worker) Activate(ctx context.Context) error {
	if err := w.transition("activate", Activating, Installed); err != nil {
		return err
	}

	for _, name := range w.caches.Keys() {
		if name == w.config.Version {
			continue
		}
		if _, err := w.caches.Delete(name); err != nil {
			w.logger.Warn("Impossible to evict the stale generation", zap.String("generation", name), zap.Error(err))
			continue
		}
		prometheus.Increment(prometheus.EvictionCounter)
		w.logger.Info("Evicted the stale generation", zap.String("generation", name))
	}

	if w.clients != nil {
		if err := w.clients.Claim(ctx, w); err != nil {
			w.logger.Warn("Impossible to claim the clients", zap.Error(err))
		}
	}

	if w.config.NavigationPreload {
		if preloader, ok := w.fetcher.(network.NavigationPreloader); ok {
			if err := preloader.EnableNavigationPreload(ctx); err != nil {
				w.logger.Debug("Navigation preload not enabled", zap.Error(err))
			}
		}
	}

	return w.transition("activate", Activated, Activating)
}
