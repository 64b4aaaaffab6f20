package auth

import (
	"net/http"
	"strings"

	"github.com/darkweak/offline/configurationtypes"
)

// SecurityAPI object contains informations related to the endpoints
type SecurityAPI struct {
	basePath string
	enabled  bool
	secret   []byte
	users    map[string]string
}

// InitializeSecurity initialize the authentication endpoints
func InitializeSecurity(configuration configurationtypes.AbstractConfigurationInterface) *SecurityAPI {
	basePath := configuration.GetAPI().Security.BasePath
	enabled := configuration.GetAPI().Security.Enable
	secret := []byte(configuration.GetAPI().Security.Secret)
	users := make(map[string]string)
	for _, user := range configuration.GetAPI().Security.Users {
		users[user.Username] = user.Password
	}
	if basePath == "" {
		basePath = "/authentication"
	}

	return &SecurityAPI{
		basePath,
		enabled,
		secret,
		users,
	}
}

// GetBasePath will return the basepath for this resource
func (s *SecurityAPI) GetBasePath() string {
	return s.basePath
}

// IsEnabled will return enabled status
func (s *SecurityAPI) IsEnabled() bool {
	return s.enabled
}

// Protect returns the handler that only serves the requests carrying a valid token.
// The handler is returned untouched when the security is disabled.
func (s *SecurityAPI) Protect(next http.HandlerFunc) http.HandlerFunc {
	if s == nil || !s.enabled {
		return next
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := CheckToken(s, w, r); err != nil {
			return
		}
		next(w, r)
	}
}

// HandleRequest will handle the request
func (s *SecurityAPI) HandleRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	switch {
	case strings.HasSuffix(r.URL.Path, "/login"):
		signJWT(s, w, r)
	case strings.HasSuffix(r.URL.Path, "/refresh"):
		refresh(s, w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
