package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/darkweak/offline/configurationtypes"
	"github.com/darkweak/offline/pkg/api"
	"github.com/darkweak/offline/pkg/registration"
	"github.com/darkweak/offline/pkg/rfc"
	"github.com/darkweak/offline/pkg/worker"
	"go.uber.org/zap"
)

// hop-by-hop headers are consumed by each connection and never forwarded
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// OfflineHandler exposes the registration to plain HTTP clients
type OfflineHandler struct {
	Configuration            configurationtypes.AbstractConfigurationInterface
	Registration             *registration.Registration
	InternalEndpointHandlers *api.MapHandler
	bufPool                  *sync.Pool
}

// NewOfflineHandler returns the handler serving the client requests through the controller
func NewOfflineHandler(c configurationtypes.AbstractConfigurationInterface, r *registration.Registration) *OfflineHandler {
	c.GetLogger().Debug("Offline handler initialized.")

	return &OfflineHandler{
		Configuration:            c,
		Registration:             r,
		InternalEndpointHandlers: api.GenerateHandlerMap(c, r),
		bufPool: &sync.Pool{
			New: func() interface{} {
				return new(bytes.Buffer)
			},
		},
	}
}

// HandleInternally returns the internal endpoint handler matching the request path
func (s *OfflineHandler) HandleInternally(r *http.Request) (bool, http.HandlerFunc) {
	if s.InternalEndpointHandlers != nil {
		for k, handler := range *s.InternalEndpointHandlers.Handlers {
			if strings.HasPrefix(r.URL.Path, k) {
				return true, handler
			}
		}
	}

	return false, nil
}

func (s *OfflineHandler) upstreamRequest(rq *http.Request) (*http.Request, error) {
	origin := strings.TrimSuffix(s.Configuration.GetOrigin(), "/")
	req, err := http.NewRequestWithContext(rq.Context(), rq.Method, origin+rq.URL.RequestURI(), rq.Body)
	if err != nil {
		return nil, err
	}

	req.Header = rq.Header.Clone()
	for _, h := range hopHeaders {
		req.Header.Del(h)
	}
	for _, h := range strings.Split(rq.Header.Get("Connection"), ",") {
		if h = strings.TrimSpace(h); h != "" {
			req.Header.Del(h)
		}
	}
	req.ContentLength = rq.ContentLength
	req.Host = req.URL.Host

	return req, nil
}

func setCacheStatus(h http.Header, source worker.Source) {
	switch source {
	case worker.SourceBypass:
		rfc.SetForwardCacheStatus(h, rfc.ForwardBypass)
	case worker.SourceCache:
		rfc.SetHitCacheStatus(h, rfc.DetailNetworkFailure)
	case worker.SourceOfflinePage:
		rfc.SetHitCacheStatus(h, rfc.DetailOfflineFallback)
	default:
		rfc.SetForwardCacheStatus(h, rfc.ForwardNetwork)
	}
}

func (s *OfflineHandler) ServeHTTP(rw http.ResponseWriter, rq *http.Request) {
	logger := s.Configuration.GetLogger()
	logger.Debug("Incoming request", zap.String("method", rq.Method), zap.String("uri", rq.RequestURI))
	if b, handler := s.HandleInternally(rq); b {
		handler(rw, rq)
		return
	}

	req, err := s.upstreamRequest(rq)
	if err != nil {
		rw.WriteHeader(http.StatusBadRequest)
		return
	}

	result, err := s.Registration.Serve(req)
	if err != nil {
		logger.Warn("The upstream request failed", zap.String("uri", rq.RequestURI), zap.Error(err))
		reason := rfc.ForwardNetwork
		if result.Source == worker.SourceBypass {
			reason = rfc.ForwardBypass
		}
		rfc.SetForwardCacheStatusDetail(rw.Header(), reason, rfc.DetailUpstreamError)
		rw.WriteHeader(http.StatusBadGateway)
		return
	}

	res := result.Response
	if res == nil {
		rfc.SetForwardCacheStatusDetail(rw.Header(), rfc.ForwardNetwork, rfc.DetailNoFallback)
		rw.WriteHeader(http.StatusServiceUnavailable)
		_, _ = rw.Write([]byte("Service unavailable"))
		return
	}
	defer res.Body.Close()

	buf := s.bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer s.bufPool.Put(buf)
	if _, err = io.Copy(buf, res.Body); err != nil {
		logger.Warn("Impossible to read the response body", zap.String("uri", rq.RequestURI), zap.Error(err))
		rfc.SetForwardCacheStatusDetail(rw.Header(), rfc.ForwardNetwork, rfc.DetailUpstreamError)
		rw.WriteHeader(http.StatusBadGateway)
		return
	}

	for h, v := range res.Header {
		rw.Header()[h] = v
	}
	for _, h := range hopHeaders {
		rw.Header().Del(h)
	}
	rw.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	setCacheStatus(rw.Header(), result.Source)
	rw.WriteHeader(res.StatusCode)
	_, _ = rw.Write(buf.Bytes())
}
