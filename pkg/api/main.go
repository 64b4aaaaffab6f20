package api

import (
	"net/http"

	"github.com/darkweak/offline/configurationtypes"
	"github.com/darkweak/offline/pkg/api/auth"
	"github.com/darkweak/offline/pkg/api/debug"
	"github.com/darkweak/offline/pkg/api/prometheus"
	"github.com/darkweak/offline/pkg/registration"
)

// DefaultBasePath is the internal endpoints prefix when none is configured
const DefaultBasePath = "/offline-api"

// MapHandler is a map to store the available http Handlers
type MapHandler struct {
	Handlers *map[string]http.HandlerFunc
}

// GenerateHandlerMap generate the MapHandler
func GenerateHandlerMap(
	configuration configurationtypes.AbstractConfigurationInterface,
	r *registration.Registration,
) *MapHandler {
	hm := make(map[string]http.HandlerFunc)
	shouldEnable := false

	basePathAPIS := configuration.GetAPI().BasePath
	if basePathAPIS == "" {
		basePathAPIS = DefaultBasePath
	}

	security := auth.InitializeSecurity(configuration)
	for _, endpoint := range Initialize(configuration, r, basePathAPIS) {
		if !endpoint.IsEnabled() {
			continue
		}
		shouldEnable = true

		handler := endpoint.HandleRequest
		switch e := endpoint.(type) {
		case *WorkerAPI:
			if e.secured {
				handler = security.Protect(handler)
			}
		case *prometheus.PrometheusAPI:
			if configuration.GetAPI().Prometheus.Security {
				handler = security.Protect(handler)
			}
		case *debug.DebugAPI:
			if configuration.GetAPI().Debug.Security {
				handler = security.Protect(handler)
			}
		}
		hm[basePathAPIS+endpoint.GetBasePath()] = handler
	}

	if security.IsEnabled() {
		hm[basePathAPIS+security.GetBasePath()] = security.HandleRequest
	}

	if shouldEnable {
		return &MapHandler{Handlers: &hm}
	}

	return nil
}

// Initialize contains all apis that should be enabled
func Initialize(c configurationtypes.AbstractConfigurationInterface, r *registration.Registration, basePathAPIS string) []EndpointInterface {
	return []EndpointInterface{
		initializeWorker(c, r, basePathAPIS),
		prometheus.InitializePrometheus(c),
		debug.InitializeDebug(c),
	}
}
