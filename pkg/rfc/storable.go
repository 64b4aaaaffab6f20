package rfc

import (
	"net/http"

	"github.com/pquerna/cachecontrol/cacheobject"
)

// IsOK reports if the status is in the 2xx range
func IsOK(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

// IsStorable reports if the response may be written to the offline cache.
// Only ok responses are storable, the no-store directive is honored when respectNoStore is set.
func IsStorable(res *http.Response, respectNoStore bool) bool {
	if res == nil || !IsOK(res.StatusCode) {
		return false
	}
	if !respectNoStore {
		return true
	}

	cc, err := cacheobject.ParseResponseCacheControl(HeaderAllCommaSepValuesString(res.Header, "Cache-Control"))
	if err != nil {
		return true
	}

	return !cc.NoStore
}
