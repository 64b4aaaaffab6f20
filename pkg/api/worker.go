package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/darkweak/offline/configurationtypes"
	"github.com/darkweak/offline/pkg/registration"
	"github.com/darkweak/offline/pkg/worker"
	"go.uber.org/zap"
)

// WorkerAPI object contains informations related to the endpoints
type WorkerAPI struct {
	basePath      string
	fullPath      string
	enabled       bool
	secured       bool
	configuration configurationtypes.AbstractConfigurationInterface
	registration  *registration.Registration
}

type workerStatus struct {
	ID          string       `json:"id,omitempty"`
	Version     string       `json:"version,omitempty"`
	State       worker.State `json:"state"`
	Controlling bool         `json:"controlling"`
	Generations []string     `json:"generations"`
}

type syncPayload struct {
	Tag string `json:"tag"`
}

type apiError struct {
	Error string `json:"error"`
}

func initializeWorker(
	configuration configurationtypes.AbstractConfigurationInterface,
	r *registration.Registration,
	basePathAPIS string,
) *WorkerAPI {
	basePath := configuration.GetAPI().Worker.BasePath
	if basePath == "" {
		basePath = "/worker"
	}

	return &WorkerAPI{
		basePath:      basePath,
		fullPath:      basePathAPIS + basePath,
		enabled:       configuration.GetAPI().Worker.Enable,
		secured:       configuration.GetAPI().Worker.Security,
		configuration: configuration,
		registration:  r,
	}
}

// GetBasePath will return the basepath for this resource
func (s *WorkerAPI) GetBasePath() string {
	return s.basePath
}

// IsEnabled will return enabled status
func (s *WorkerAPI) IsEnabled() bool {
	return s.enabled
}

func (s *WorkerAPI) status() workerStatus {
	status := workerStatus{
		State:       worker.Parsed,
		Generations: s.registration.Caches().Keys(),
	}
	if controller := s.registration.Controller(); controller != nil {
		status.ID = controller.ID()
		status.Version = controller.Version()
		status.State = controller.State()
		status.Controlling = true
	}

	return status
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// detached keeps the values of the request context without its cancellation,
// a client going away must not interrupt a retry batch or an install
type detached struct {
	ctx context.Context
}

func (*detached) Deadline() (time.Time, bool) { return time.Time{}, false }
func (*detached) Done() <-chan struct{}       { return nil }
func (*detached) Err() error                  { return nil }

func (d *detached) Value(key interface{}) interface{} {
	return d.ctx.Value(key)
}

// HandleRequest will handle the request
func (s *WorkerAPI) HandleRequest(w http.ResponseWriter, r *http.Request) {
	action := strings.Trim(strings.TrimPrefix(r.URL.Path, s.fullPath), "/")
	logger := s.configuration.GetLogger()

	switch {
	case r.Method == http.MethodGet && action == "":
		writeJSON(w, http.StatusOK, s.status())
	case r.Method == http.MethodGet && action == "keys":
		keys := []string{}
		if controller := s.registration.Controller(); controller != nil {
			keys = controller.Keys()
		}
		writeJSON(w, http.StatusOK, keys)
	case r.Method == http.MethodPost && action == "sync":
		payload := syncPayload{Tag: s.configuration.GetOffline().GetRetryTag()}
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
				return
			}
		}
		report, err := s.registration.PostMessage(&detached{ctx: r.Context()}, payload.Tag)
		if err != nil {
			writeJSON(w, http.StatusConflict, apiError{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, report)
	case r.Method == http.MethodPost && action == "update":
		config, err := worker.ConfigFromConfiguration(s.configuration)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, apiError{Error: err.Error()})
			return
		}
		if _, err = s.registration.Register(&detached{ctx: r.Context()}, config); err != nil {
			logger.Error("The update failed", zap.Error(err))
			writeJSON(w, http.StatusBadGateway, apiError{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, s.status())
	case r.Method == http.MethodDelete && strings.HasPrefix(action, "generations/"):
		name := strings.TrimPrefix(action, "generations/")
		if controller := s.registration.Controller(); controller != nil && controller.Version() == name {
			writeJSON(w, http.StatusConflict, apiError{Error: "the generation " + name + " is in use"})
			return
		}
		deleted, err := s.registration.Caches().Delete(name)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, apiError{Error: err.Error()})
			return
		}
		if !deleted {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		logger.Info("Deleted the generation through the API", zap.String("generation", name))
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
