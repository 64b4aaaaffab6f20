package rfc

import (
	"math"
	"net/http"
	"strconv"
	"time"
)

const (
	// CacheName is the cache identifier written in the Cache-Status header
	CacheName = "OFFLINE"

	ForwardNetwork = "network"
	ForwardBypass  = "bypass"

	DetailNetworkFailure  = "NETWORK-FAILURE"
	DetailOfflineFallback = "OFFLINE-FALLBACK"
	DetailNoFallback      = "NO-FALLBACK"
	DetailUpstreamError   = "UPSTREAM-ERROR"
)

// SetForwardCacheStatus set the Cache-Status fwd=<reason>
func SetForwardCacheStatus(h http.Header, reason string) {
	h.Set("Cache-Status", CacheName+"; fwd="+reason)
}

// SetForwardCacheStatusDetail set the Cache-Status fwd=<reason> with the detail
func SetForwardCacheStatusDetail(h http.Header, reason, detail string) {
	h.Set("Cache-Status", CacheName+"; fwd="+reason+"; detail="+detail)
}

// SetHitCacheStatus set the Cache-Status hit with the detail and computes the Age from the stored Date
func SetHitCacheStatus(h http.Header, detail string) {
	manageAge(h, time.Now().UTC())
	h.Set("Cache-Status", CacheName+"; hit; detail="+detail)
}

func manageAge(h http.Header, now time.Time) {
	dh := h.Get("Date")
	if dh == "" {
		return
	}

	stored, err := http.ParseTime(dh)
	if err != nil {
		return
	}

	apparentAge := now.Sub(stored)
	if apparentAge < 0 {
		apparentAge = 0
	}

	oldAge, err := strconv.Atoi(h.Get("Age"))
	if err != nil {
		oldAge = 0
	}

	h.Set("Age", strconv.Itoa(oldAge+int(math.Ceil(apparentAge.Seconds()))))
}
