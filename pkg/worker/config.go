package worker

import (
	"github.com/darkweak/offline/configurationtypes"
	"github.com/darkweak/offline/pkg/rules"
)

const DefaultRetryTag = "retry-failed"

// Config is the immutable worker configuration
type Config struct {
	Version           string
	Origin            string
	Precache          []string
	OfflinePage       string
	Rules             rules.Set
	RetryTag          string
	NavigationPreload bool
	RespectNoStore    bool
}

// ConfigFromConfiguration builds the worker configuration from the parsed file
func ConfigFromConfiguration(c configurationtypes.AbstractConfigurationInterface) (Config, error) {
	offline := c.GetOffline()
	set, err := rules.New(offline.GetBypass())
	if err != nil {
		return Config{}, err
	}

	return Config{
		Version:           offline.GetVersion(),
		Origin:            c.GetOrigin(),
		Precache:          append([]string{}, offline.GetPrecache()...),
		OfflinePage:       offline.GetOfflinePage(),
		Rules:             set,
		RetryTag:          offline.GetRetryTag(),
		NavigationPreload: offline.GetNavigationPreload(),
		RespectNoStore:    offline.GetRespectNoStore(),
	}, nil
}
