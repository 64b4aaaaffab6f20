package network

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

// NavigationPreloadHeader is sent on navigation requests once the preload is enabled
const NavigationPreloadHeader = "Service-Worker-Navigation-Preload"

// NavigationPreloader is implemented by the fetchers able to start navigation requests early
type NavigationPreloader interface {
	EnableNavigationPreload(ctx context.Context) error
	NavigationPreloadEnabled() bool
}

// Upstream sends the requests to the origin
type Upstream struct {
	origin    *url.URL
	transport http.RoundTripper
	logger    *zap.Logger
	preload   atomic.Bool
}

// NewUpstream creates the upstream fetcher, the default transport is used when transport is nil
func NewUpstream(origin string, transport http.RoundTripper, logger *zap.Logger) (*Upstream, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, err
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Upstream{
		origin:    u,
		transport: transport,
		logger:    logger,
	}, nil
}

// Origin returns the origin the relative requests are resolved against
func (u *Upstream) Origin() *url.URL {
	return u.origin
}

// Resolve returns the absolute form of the reference
func (u *Upstream) Resolve(ref string) (*url.URL, error) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}

	return u.origin.ResolveReference(parsed), nil
}

// RoundTrip implements http.RoundTripper
func (u *Upstream) RoundTrip(rq *http.Request) (*http.Response, error) {
	if !rq.URL.IsAbs() || u.NavigationPreloadEnabled() && IsNavigation(rq) {
		rq = rq.Clone(rq.Context())
		if !rq.URL.IsAbs() {
			rq.URL = u.origin.ResolveReference(rq.URL)
			rq.Host = ""
		}
		if u.NavigationPreloadEnabled() && IsNavigation(rq) {
			rq.Header.Set(NavigationPreloadHeader, "true")
		}
	}

	u.logger.Sugar().Debugf("Request the upstream %s %s", rq.Method, rq.URL)

	return u.transport.RoundTrip(rq)
}

// EnableNavigationPreload implements NavigationPreloader
func (u *Upstream) EnableNavigationPreload(_ context.Context) error {
	u.preload.Store(true)

	return nil
}

// NavigationPreloadEnabled implements NavigationPreloader
func (u *Upstream) NavigationPreloadEnabled() bool {
	return u.preload.Load()
}

// IsNavigation reports if the request loads a document
func IsNavigation(rq *http.Request) bool {
	if rq.Method != http.MethodGet {
		return false
	}
	if mode := rq.Header.Get("Sec-Fetch-Mode"); mode != "" {
		return mode == "navigate"
	}

	return strings.Contains(rq.Header.Get("Accept"), "text/html")
}

var (
	_ http.RoundTripper   = (*Upstream)(nil)
	_ NavigationPreloader = (*Upstream)(nil)
)
