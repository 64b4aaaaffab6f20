package rules

import (
	"net/url"
	"strings"
)

func schemeOf(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		if idx := strings.Index(u, ":"); idx > 0 {
			return u[:idx]
		}
		return ""
	}

	return parsed.Scheme
}

func pathOf(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return u
	}
	if parsed.Opaque != "" {
		return parsed.Opaque
	}
	if parsed.Path == "" {
		return "/"
	}

	return parsed.Path
}

func requestURIOf(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return u
	}

	return parsed.RequestURI()
}
