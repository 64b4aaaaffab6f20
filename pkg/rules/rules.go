package rules

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/darkweak/offline/configurationtypes"
)

// VersionedAssetPattern matches the json, js and css assets cache-busted with a trailing ?v=<number>
const VersionedAssetPattern = `\.(json|js|css)\?v=\d+$`

var versionedAsset = regexp.MustCompile(VersionedAssetPattern)

// VersionedAssetRule returns the rule matching the cache-busted assets
func VersionedAssetRule() RegexRule {
	return RegexRule{versionedAsset}
}

// Rule decides if a request must skip the cache entirely.
// A rule must only depend on the request method and URL.
type Rule interface {
	Match(method string, u string) bool
	String() string
}

// PrefixRule matches the requests whose path starts with the prefix
type PrefixRule struct {
	Prefix string
}

// Match implements Rule
func (p PrefixRule) Match(_ string, u string) bool {
	return strings.HasPrefix(pathOf(u), p.Prefix)
}

func (p PrefixRule) String() string {
	return "prefix:" + p.Prefix
}

// RegexRule matches the requests whose path and query match the expression
type RegexRule struct {
	*regexp.Regexp
}

// Match implements Rule
func (r RegexRule) Match(_ string, u string) bool {
	return r.MatchString(requestURIOf(u))
}

func (r RegexRule) String() string {
	return "regex:" + r.Regexp.String()
}

// SchemeRule matches every request whose scheme is not allowed
type SchemeRule struct {
	Allowed []string
}

// Match implements Rule
func (s SchemeRule) Match(_ string, u string) bool {
	scheme := schemeOf(u)
	if scheme == "" {
		return false
	}
	for _, allowed := range s.Allowed {
		if strings.EqualFold(scheme, allowed) {
			return false
		}
	}

	return true
}

func (s SchemeRule) String() string {
	return "scheme-not-in:" + strings.Join(s.Allowed, ",")
}

// Set is the ordered bypass rule set
type Set []Rule

// Bypass returns the first rule matching the request, nil if the request may go through the cache
func (s Set) Bypass(method, u string) Rule {
	for _, rule := range s {
		if rule.Match(method, u) {
			return rule
		}
	}

	return nil
}

// ShouldBypass reports if the request must be forwarded without any caching involvement.
// Every non-GET request is bypassed.
func (s Set) ShouldBypass(rq *http.Request) bool {
	if rq.Method != http.MethodGet {
		return true
	}

	return s.Bypass(rq.Method, rq.URL.String()) != nil
}

// DefaultSchemes are the schemes served through the cache when none is configured
var DefaultSchemes = []string{"http", "https"}

// New builds the rule set from the configuration, the order is prefixes, patterns then schemes.
// The versioned asset rule and the scheme rule are always part of the set, the configuration only adds rules.
func New(bypass configurationtypes.Bypass) (Set, error) {
	set := Set{}
	for _, prefix := range bypass.Prefixes {
		set = append(set, PrefixRule{Prefix: prefix})
	}
	hasVersionedAsset := false
	for _, pattern := range bypass.Patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		if pattern == VersionedAssetPattern {
			hasVersionedAsset = true
		}
		set = append(set, RegexRule{re})
	}
	if !hasVersionedAsset {
		set = append(set, VersionedAssetRule())
	}

	schemes := bypass.Schemes
	if len(schemes) == 0 {
		schemes = DefaultSchemes
	}
	set = append(set, SchemeRule{Allowed: schemes})

	return set, nil
}

// Default returns the auth, api, versioned assets and non-http(s) scheme rules
func Default() Set {
	return Set{
		PrefixRule{Prefix: "/auth/"},
		PrefixRule{Prefix: "/api/"},
		VersionedAssetRule(),
		SchemeRule{Allowed: DefaultSchemes},
	}
}
