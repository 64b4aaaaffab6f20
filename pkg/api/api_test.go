package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/darkweak/offline/configuration"
	"github.com/darkweak/offline/errors"
	"github.com/darkweak/offline/pkg/cachestorage"
	"github.com/darkweak/offline/pkg/network"
	"github.com/darkweak/offline/pkg/registration"
	"github.com/darkweak/offline/pkg/storage"
	"github.com/darkweak/offline/pkg/worker"
	"github.com/darkweak/offline/tests"
	"go.uber.org/zap"
)

func newOrigin() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("origin " + r.URL.Path))
	}))
}

func setup(t *testing.T, configurationToLoad func() string) (*configuration.Configuration, *registration.Registration, *httptest.Server) {
	o := newOrigin()
	config := tests.MockConfiguration(configurationToLoad)
	config.Origin = o.URL

	s, err := storage.NewStorage(config)
	if err != nil {
		errors.GenerateError(t, fmt.Sprintf("Impossible to create the storage: %v", err))
	}
	upstream, _ := network.NewUpstream(o.URL, nil, zap.NewNop())

	return config, registration.New(cachestorage.New(s, zap.NewNop()), upstream, zap.NewNop()), o
}

func register(t *testing.T, config *configuration.Configuration, r *registration.Registration) *worker.Worker {
	wc, _ := worker.ConfigFromConfiguration(config)
	w, err := r.Register(context.Background(), wc)
	if err != nil {
		errors.GenerateError(t, fmt.Sprintf("Impossible to register the worker: %v", err))
	}

	return w
}

func unsecured() string {
	return strings.Replace(tests.BaseConfiguration(), "enable: true\n    users", "enable: false\n    users", 1)
}

func TestGenerateHandlerMap(t *testing.T) {
	config, r, o := setup(t, tests.BaseConfiguration)
	defer o.Close()

	hm := GenerateHandlerMap(config, r)
	if hm == nil {
		errors.GenerateError(t, "The handler map must be generated when an endpoint is enabled")
		return
	}
	for _, path := range []string{"/offline-api/worker", "/offline-api/metrics", "/offline-api/authentication"} {
		if _, ok := (*hm.Handlers)[path]; !ok {
			errors.GenerateError(t, fmt.Sprintf("The %s handler must be registered", path))
		}
	}
	if _, ok := (*hm.Handlers)["/offline-api/debug/"]; ok {
		errors.GenerateError(t, "The disabled debug handler must not be registered")
	}

	config, r, o2 := setup(t, func() string { return "storage:\n  provider: default\n" })
	defer o2.Close()
	if GenerateHandlerMap(config, r) != nil {
		errors.GenerateError(t, "The handler map must be nil when nothing is enabled")
	}
}

func TestWorkerAPI_Status(t *testing.T) {
	config, r, o := setup(t, unsecured)
	defer o.Close()
	api := initializeWorker(config, r, DefaultBasePath)

	rec := httptest.NewRecorder()
	api.HandleRequest(rec, httptest.NewRequest(http.MethodGet, "/offline-api/worker", nil))
	var status workerStatus
	_ = json.NewDecoder(rec.Body).Decode(&status)
	if rec.Code != http.StatusOK || status.Controlling {
		errors.GenerateError(t, "The status must report no controller before the registration")
	}

	w := register(t, config, r)
	rec = httptest.NewRecorder()
	api.HandleRequest(rec, httptest.NewRequest(http.MethodGet, "/offline-api/worker", nil))
	_ = json.NewDecoder(rec.Body).Decode(&status)
	if !status.Controlling || status.ID != w.ID() || status.Version != tests.VERSION || status.State != worker.Activated {
		errors.GenerateError(t, fmt.Sprintf("The status must describe the controller, %+v given", status))
	}
	if len(status.Generations) != 1 || status.Generations[0] != tests.VERSION {
		errors.GenerateError(t, fmt.Sprintf("The status must list the generations, %v given", status.Generations))
	}

	rec = httptest.NewRecorder()
	api.HandleRequest(rec, httptest.NewRequest(http.MethodGet, "/offline-api/worker/keys", nil))
	var keys []string
	_ = json.NewDecoder(rec.Body).Decode(&keys)
	if len(keys) != 3 {
		errors.GenerateError(t, fmt.Sprintf("The keys of the precached entries must be listed, %v given", keys))
	}
}

func TestWorkerAPI_Sync(t *testing.T) {
	config, r, o := setup(t, unsecured)
	defer o.Close()
	api := initializeWorker(config, r, DefaultBasePath)
	register(t, config, r)

	rec := httptest.NewRecorder()
	api.HandleRequest(rec, httptest.NewRequest(http.MethodPost, "/offline-api/worker/sync", strings.NewReader(`{"tag":"retry-failed"}`)))
	var report worker.RetryReport
	_ = json.NewDecoder(rec.Body).Decode(&report)
	if rec.Code != http.StatusOK || report.Refreshed != 3 {
		errors.GenerateError(t, fmt.Sprintf("The sync must refresh the 3 entries, %d %+v given", rec.Code, report))
	}

	rec = httptest.NewRecorder()
	api.HandleRequest(rec, httptest.NewRequest(http.MethodPost, "/offline-api/worker/sync", nil))
	_ = json.NewDecoder(rec.Body).Decode(&report)
	if rec.Code != http.StatusOK || report.Refreshed != 3 {
		errors.GenerateError(t, "An empty sync body must use the configured retry tag")
	}

	rec = httptest.NewRecorder()
	api.HandleRequest(rec, httptest.NewRequest(http.MethodPost, "/offline-api/worker/sync", strings.NewReader(`{`)))
	if rec.Code != http.StatusBadRequest {
		errors.GenerateError(t, "A malformed sync body must be a bad request")
	}
}

func TestWorkerAPI_UpdateAndDelete(t *testing.T) {
	config, r, o := setup(t, unsecured)
	defer o.Close()
	api := initializeWorker(config, r, DefaultBasePath)

	rec := httptest.NewRecorder()
	api.HandleRequest(rec, httptest.NewRequest(http.MethodPost, "/offline-api/worker/update", nil))
	if rec.Code != http.StatusOK || r.Controller() == nil {
		errors.GenerateError(t, fmt.Sprintf("The update must register the configured version, %d given", rec.Code))
	}

	rec = httptest.NewRecorder()
	api.HandleRequest(rec, httptest.NewRequest(http.MethodDelete, "/offline-api/worker/generations/"+tests.VERSION, nil))
	if rec.Code != http.StatusConflict {
		errors.GenerateError(t, fmt.Sprintf("The current generation must not be deleted, %d given", rec.Code))
	}

	_, _, _ = r.Caches().Open("v1")
	rec = httptest.NewRecorder()
	api.HandleRequest(rec, httptest.NewRequest(http.MethodDelete, "/offline-api/worker/generations/v1", nil))
	if rec.Code != http.StatusNoContent || r.Caches().Has("v1") {
		errors.GenerateError(t, fmt.Sprintf("The stale generation must be deleted, %d given", rec.Code))
	}

	rec = httptest.NewRecorder()
	api.HandleRequest(rec, httptest.NewRequest(http.MethodDelete, "/offline-api/worker/generations/v1", nil))
	if rec.Code != http.StatusNotFound {
		errors.GenerateError(t, "A missing generation must be not found")
	}

	rec = httptest.NewRecorder()
	api.HandleRequest(rec, httptest.NewRequest(http.MethodPut, "/offline-api/worker", nil))
	if rec.Code != http.StatusNotFound {
		errors.GenerateError(t, "An unknown action must be not found")
	}
}

func TestWorkerAPI_Secured(t *testing.T) {
	config, r, o := setup(t, func() string {
		return strings.Replace(tests.BaseConfiguration(), "  worker:\n    enable: true", "  worker:\n    enable: true\n    security: true", 1)
	})
	defer o.Close()
	hm := GenerateHandlerMap(config, r)

	rec := httptest.NewRecorder()
	(*hm.Handlers)["/offline-api/worker"](rec, httptest.NewRequest(http.MethodGet, "/offline-api/worker", nil))
	if rec.Code != http.StatusUnauthorized {
		errors.GenerateError(t, fmt.Sprintf("The secured worker endpoint must require a token, %d given", rec.Code))
	}

	rec = httptest.NewRecorder()
	(*hm.Handlers)["/offline-api/authentication"](rec, httptest.NewRequest(http.MethodPost, "/offline-api/authentication/login", strings.NewReader(`{"username":"user1","password":"test"}`)))
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		errors.GenerateError(t, "The login must return the token cookie")
		return
	}

	rq := httptest.NewRequest(http.MethodGet, "/offline-api/worker", nil)
	rq.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	(*hm.Handlers)["/offline-api/worker"](rec, rq)
	if rec.Code != http.StatusOK {
		errors.GenerateError(t, fmt.Sprintf("The token must give access to the worker endpoint, %d given", rec.Code))
	}
}
