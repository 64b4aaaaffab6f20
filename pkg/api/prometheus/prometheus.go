package prometheus

import (
	"net/http"
	"sync"

	"github.com/darkweak/offline/configurationtypes"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	counter = "counter"
	average = "average"

	RequestCounter          = "offline_request_counter"
	BypassCounter           = "offline_bypass_counter"
	NetworkResponseCounter  = "offline_network_response_counter"
	CachedResponseCounter   = "offline_cached_response_counter"
	FallbackResponseCounter = "offline_fallback_response_counter"
	NoFallbackCounter       = "offline_no_fallback_counter"
	WriteFailureCounter     = "offline_write_failure_counter"
	RetryRefreshedCounter   = "offline_retry_refreshed_counter"
	RetryFailureCounter     = "offline_retry_failure_counter"
	EvictionCounter         = "offline_eviction_counter"
	InstallFailureCounter   = "offline_install_failure_counter"
	AvgResponseTime         = "offline_avg_response_time"
)

// PrometheusAPI object contains informations related to the endpoints
type PrometheusAPI struct {
	basePath string
	enabled  bool
}

// InitializePrometheus initialize the prometheus endpoints
func InitializePrometheus(configuration configurationtypes.AbstractConfigurationInterface) *PrometheusAPI {
	basePath := configuration.GetAPI().Prometheus.BasePath
	enabled := configuration.GetAPI().Prometheus.Enable
	if basePath == "" {
		basePath = "/metrics"
	}

	Run()
	return &PrometheusAPI{
		basePath,
		enabled,
	}
}

// GetBasePath will return the basepath for this resource
func (p *PrometheusAPI) GetBasePath() string {
	return p.basePath
}

// IsEnabled will return enabled status
func (p *PrometheusAPI) IsEnabled() bool {
	return p.enabled
}

// HandleRequest will handle the request
func (p *PrometheusAPI) HandleRequest(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

var (
	registered map[string]interface{}
	once       sync.Once
)

// Increment will increment the counter.
func Increment(name string) {
	Run()
	if c, ok := registered[name].(prometheus.Counter); ok {
		c.Inc()
	}
}

// Add will add the referred value the counter or observe it in the histogram.
func Add(name string, value float64) {
	Run()
	if c, ok := registered[name].(prometheus.Counter); ok {
		c.Add(value)
	}
	if g, ok := registered[name].(prometheus.Histogram); ok {
		g.Observe(value)
	}
}

func push(promType, name, help string) {
	switch promType {
	case counter:
		registered[name] = promauto.NewCounter(prometheus.CounterOpts{
			Name: name,
			Help: help,
		})

		return
	case average:
		avg := prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: name,
			Help: help,
		})
		prometheus.MustRegister(avg)
		registered[name] = avg
	}
}

// Run registers the metrics once.
func Run() {
	once.Do(run)
}

func run() {
	registered = make(map[string]interface{})
	push(counter, RequestCounter, "Total intercepted request counter")
	push(counter, BypassCounter, "Bypassed request counter")
	push(counter, NetworkResponseCounter, "Network response counter")
	push(counter, CachedResponseCounter, "Cached response served while offline counter")
	push(counter, FallbackResponseCounter, "Offline page served counter")
	push(counter, NoFallbackCounter, "Offline without any fallback counter")
	push(counter, WriteFailureCounter, "Cache write failure counter")
	push(counter, RetryRefreshedCounter, "Entries refreshed by the retry counter")
	push(counter, RetryFailureCounter, "Entries the retry failed to refresh counter")
	push(counter, EvictionCounter, "Evicted generation counter")
	push(counter, InstallFailureCounter, "Failed install counter")
	push(average, AvgResponseTime, "Average network response time")
}
