package worker

import (
	"context"
	"fmt"
	"testing"

	"github.com/darkweak/offline/errors"
)

func TestActivate_EvictsStaleGenerations(t *testing.T) {
	caches := newCacheStorage(t)
	for _, name := range []string{"v1", "v2"} {
		cache, _, _ := caches.Open(name)
		_ = cache.Put(get("/old"), response("old "+name))
	}

	clients := &fakeClients{}
	w := newWorker(t, baseConfig("v3"), caches, newFakeNetwork(), clients)
	_ = w.Install(context.Background())

	if generations := caches.Keys(); len(generations) != 3 {
		errors.GenerateError(t, fmt.Sprintf("The storage must hold v1, v2 and v3 before the activation, %v given", generations))
	}
	if err := w.Activate(context.Background()); err != nil {
		errors.GenerateError(t, fmt.Sprintf("The activation must succeed: %v", err))
	}

	if generations := caches.Keys(); len(generations) != 1 || generations[0] != "v3" {
		errors.GenerateError(t, fmt.Sprintf("The storage must hold exactly v3, %v given", generations))
	}
	if caches.Match(get("/old")) != nil {
		errors.GenerateError(t, "The entries of the stale generations must be evicted")
	}
	if w.State() != Activated {
		errors.GenerateError(t, fmt.Sprintf("The worker must be activated, %s given", w.State()))
	}
	if len(clients.claimed) != 1 || clients.claimed[0] != w {
		errors.GenerateError(t, "The worker must claim the clients once")
	}
}

func TestActivate_NavigationPreload(t *testing.T) {
	network := &preloadingNetwork{fakeNetwork: newFakeNetwork()}
	config := baseConfig("v3")
	config.NavigationPreload = true
	activatedWorker(t, config, newCacheStorage(t), network)
	if !network.enabled {
		errors.GenerateError(t, "The navigation preload must be enabled when supported")
	}

	network = &preloadingNetwork{fakeNetwork: newFakeNetwork()}
	activatedWorker(t, baseConfig("v3"), newCacheStorage(t), network)
	if network.enabled {
		errors.GenerateError(t, "The navigation preload must stay disabled when not configured")
	}

	network = &preloadingNetwork{fakeNetwork: newFakeNetwork(), err: fmt.Errorf("unsupported")}
	w := activatedWorker(t, config, newCacheStorage(t), network)
	if w.State() != Activated {
		errors.GenerateError(t, "A navigation preload failure must not prevent the activation")
	}
}

func TestActivate_InvalidState(t *testing.T) {
	w := newWorker(t, baseConfig("v3"), newCacheStorage(t), newFakeNetwork(), nil)
	if _, ok := w.Activate(context.Background()).(*errors.InvalidStateError); !ok {
		errors.GenerateError(t, "A parsed worker must not be activated")
	}
}
