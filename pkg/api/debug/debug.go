package debug

import (
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/darkweak/offline/configurationtypes"
)

var profiles = []string{"allocs", "block", "cmdline", "goroutine", "heap", "mutex", "profile", "symbol", "threadcreate", "trace"}

// DebugAPI object contains informations related to the endpoints
type DebugAPI struct {
	basePath string
	enabled  bool
}

// InitializeDebug initialize the debug endpoints
func InitializeDebug(configuration configurationtypes.AbstractConfigurationInterface) *DebugAPI {
	basePath := configuration.GetAPI().Debug.BasePath
	enabled := configuration.GetAPI().Debug.Enable
	if basePath == "" {
		basePath = "/debug/"
	}

	return &DebugAPI{
		basePath,
		enabled,
	}
}

// GetBasePath will return the basepath for this resource
func (p *DebugAPI) GetBasePath() string {
	return p.basePath
}

// IsEnabled will return enabled status
func (p *DebugAPI) IsEnabled() bool {
	return p.enabled
}

// HandleRequest will handle the request
func (p *DebugAPI) HandleRequest(w http.ResponseWriter, r *http.Request) {
	for _, profile := range profiles {
		if strings.HasSuffix(strings.TrimSuffix(r.URL.Path, "/"), "/"+profile) {
			switch profile {
			case "cmdline":
				pprof.Cmdline(w, r)
			case "profile":
				pprof.Profile(w, r)
			case "symbol":
				pprof.Symbol(w, r)
			case "trace":
				pprof.Trace(w, r)
			default:
				pprof.Handler(profile).ServeHTTP(w, r)
			}

			return
		}
	}

	pprof.Index(w, r)
}
