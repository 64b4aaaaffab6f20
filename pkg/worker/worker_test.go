package worker

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/darkweak/offline/errors"
	"github.com/darkweak/offline/tests"
)

func TestNew(t *testing.T) {
	w := newWorker(t, baseConfig("v3"), newCacheStorage(t), nil, nil)
	if w.ID() == "" || w.Version() != "v3" {
		errors.GenerateError(t, fmt.Sprintf("The worker must have an id and the v3 version, %s %s given", w.ID(), w.Version()))
	}
	if w.Config().RetryTag != DefaultRetryTag {
		errors.GenerateError(t, fmt.Sprintf("The retry tag must default to %s, %s given", DefaultRetryTag, w.Config().RetryTag))
	}
	if other := newWorker(t, baseConfig("v3"), newCacheStorage(t), nil, nil); other.ID() == w.ID() {
		errors.GenerateError(t, "Two workers must not share the same id")
	}

	if _, err := New(Config{Origin: "://invalid"}, newCacheStorage(t), nil, nil, nil); err == nil {
		errors.GenerateError(t, "An invalid origin must return an error")
	}
}

func TestStateChanges(t *testing.T) {
	w := newWorker(t, baseConfig("v3"), newCacheStorage(t), newFakeNetwork(), nil)
	states := []State{}
	w.OnStateChange(func(_ *Worker, s State) {
		states = append(states, s)
	})

	_ = w.Install(context.Background())
	_ = w.Activate(context.Background())
	_ = w.MarkRedundant(context.Background())

	expected := []State{Installing, Installed, Activating, Activated, Redundant}
	if fmt.Sprint(states) != fmt.Sprint(expected) {
		errors.GenerateError(t, fmt.Sprintf("The transitions must be %v, %v given", expected, states))
	}
	if err := w.MarkRedundant(context.Background()); err == nil {
		errors.GenerateError(t, "A redundant worker must not be retired twice")
	}
}

func TestMarkRedundant_DrainsThePendingWrites(t *testing.T) {
	caches := newCacheStorage(t)
	w := activatedWorker(t, baseConfig("v3"), caches, newFakeNetwork())

	res, _ := w.Intercept(get("/dashboard"))
	_ = body(t, res)
	if err := w.MarkRedundant(context.Background()); err != nil {
		errors.GenerateError(t, fmt.Sprintf("The worker must be retired: %v", err))
	}
	if caches.Match(get("/dashboard")) == nil {
		errors.GenerateError(t, "The pending write-through must complete before the worker is retired")
	}
	if _, err := w.Intercept(get("/dashboard")); err == nil {
		errors.GenerateError(t, "A redundant worker must not intercept")
	}
}

func TestState_String(t *testing.T) {
	for state, name := range map[State]string{Parsed: "parsed", Installing: "installing", Installed: "installed", Activating: "activating", Activated: "activated", Redundant: "redundant", State(42): "unknown"} {
		if state.String() != name {
			errors.GenerateError(t, fmt.Sprintf("The state must be named %s, %s given", name, state))
		}
	}
}

func TestConfigFromConfiguration(t *testing.T) {
	config, err := ConfigFromConfiguration(tests.MockConfiguration(tests.BaseConfiguration))
	if err != nil {
		errors.GenerateError(t, fmt.Sprintf("The configuration must be converted: %v", err))
	}
	if config.Version != tests.VERSION || config.Origin != tests.ORIGIN || config.OfflinePage != "/offline.html" {
		errors.GenerateError(t, fmt.Sprintf("The configuration must carry the version, origin and offline page, %+v given", config))
	}
	if len(config.Precache) != 3 || config.RetryTag != DefaultRetryTag || !config.NavigationPreload {
		errors.GenerateError(t, fmt.Sprintf("The configuration must carry the defaults, %+v given", config))
	}
	if len(config.Rules) != 4 {
		errors.GenerateError(t, fmt.Sprintf("The default bypass rules must be loaded, %d given", len(config.Rules)))
	}
}

func TestConfigFromConfiguration_CustomPatterns(t *testing.T) {
	config, err := ConfigFromConfiguration(tests.MockConfiguration(func() string {
		return `
origin: ` + tests.ORIGIN + `
offline:
  version: ` + tests.VERSION + `
  bypass:
    patterns:
      - ^/private
storage:
  provider: default
`
	}))
	if err != nil {
		errors.GenerateError(t, fmt.Sprintf("The configuration must be converted: %v", err))
	}

	if !config.Rules.ShouldBypass(get("/app.js?v=3")) {
		errors.GenerateError(t, fmt.Sprintf("The versioned assets must stay bypassed with custom patterns, %v given", config.Rules))
	}
	if !config.Rules.ShouldBypass(get("/private/profile")) {
		errors.GenerateError(t, "The configured pattern must be bypassed")
	}
	if config.Rules.ShouldBypass(get("/dashboard")) {
		errors.GenerateError(t, "The GET /dashboard request must not be bypassed")
	}
}

func TestDrain_ConcurrentIntercepts(t *testing.T) {
	caches := newCacheStorage(t)
	w := activatedWorker(t, baseConfig("v3"), caches, newFakeNetwork())

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if res, err := w.Intercept(get("/dashboard")); err == nil && res != nil {
					_, _ = io.Copy(io.Discard, res.Body)
					_ = res.Body.Close()
				}
			}
		}()
	}

	for i := 0; i < 2000; i++ {
		if err := w.Drain(context.Background()); err != nil {
			errors.GenerateError(t, fmt.Sprintf("The drain must not fail: %v", err))
		}
	}
	close(stop)
	wg.Wait()

	res, _ := w.Intercept(get("/dashboard"))
	_ = body(t, res)
	drain(t, w)
	if caches.Match(get("/dashboard")) == nil {
		errors.GenerateError(t, "The writes started outside the drains must be stored")
	}
}

func TestDrain_RefusesNewWork(t *testing.T) {
	w := activatedWorker(t, baseConfig("v3"), newCacheStorage(t), newFakeNetwork())

	release := make(chan struct{})
	if !w.detach(func() { <-release }) {
		errors.GenerateError(t, "The work must be accepted outside a drain")
	}

	drained := make(chan error, 1)
	go func() {
		drained <- w.Drain(context.Background())
	}()
	for !w.pending.draining() {
		time.Sleep(time.Millisecond)
	}

	if w.detach(func() {}) {
		errors.GenerateError(t, "The work must be refused while draining")
	}
	if _, err := w.Retry(context.Background(), DefaultRetryTag); err == nil {
		errors.GenerateError(t, "A retry must be refused while draining")
	}

	close(release)
	if err := <-drained; err != nil {
		errors.GenerateError(t, fmt.Sprintf("The drain must complete once the work is done: %v", err))
	}
	if !w.detach(func() {}) {
		errors.GenerateError(t, "The work must be accepted again after the drain")
	}
	drain(t, w)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = w.detach(func() { time.Sleep(50 * time.Millisecond) })
	if err := w.Drain(ctx); err != context.Canceled {
		errors.GenerateError(t, fmt.Sprintf("The drain must stop with its context, %v given", err))
	}
	drain(t, w)
}
