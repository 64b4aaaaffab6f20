package configurationtypes

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Duration is the super object to wrap the duration and be able to parse it from the configuration
type Duration struct {
	time.Duration
}

// MarshalYAML transform the Duration into a time.duration object
func (d Duration) MarshalYAML() (interface{}, error) {
	return yaml.Marshal(d.String())
}

// UnmarshalYAML parse the time.duration into a Duration object
func (d *Duration) UnmarshalYAML(b *yaml.Node) error {
	var e error
	d.Duration, e = time.ParseDuration(b.Value)

	return e
}

// MarshalJSON transform the Duration into a time.duration object
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON parse the time.duration into a Duration object
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	var e error
	d.Duration, e = time.ParseDuration(s)

	return e
}

// Bypass config lists the requests that never go through the cache
type Bypass struct {
	Prefixes []string `yaml:"prefixes" json:"prefixes"`
	Patterns []string `yaml:"patterns" json:"patterns"`
	Schemes  []string `yaml:"schemes" json:"schemes"`
}

// Offline config
type Offline struct {
	Version           string   `yaml:"version" json:"version"`
	OfflinePage       string   `yaml:"offline_page" json:"offline_page"`
	RetryTag          string   `yaml:"retry_tag" json:"retry_tag"`
	NavigationPreload *bool    `yaml:"navigation_preload" json:"navigation_preload"`
	Precache          []string `yaml:"precache" json:"precache"`
	Bypass            Bypass   `yaml:"bypass" json:"bypass"`
	RespectNoStore    bool     `yaml:"respect_no_store" json:"respect_no_store"`
}

// GetVersion returns the cache generation tag
func (o *Offline) GetVersion() string {
	return o.Version
}

// GetOfflinePage returns the fallback page path
func (o *Offline) GetOfflinePage() string {
	return o.OfflinePage
}

// GetRetryTag returns the tag that triggers the deferred retry
func (o *Offline) GetRetryTag() string {
	return o.RetryTag
}

// GetNavigationPreload returns if the navigation preload should be enabled on activation, true when unset
func (o *Offline) GetNavigationPreload() bool {
	return o.NavigationPreload == nil || *o.NavigationPreload
}

// GetPrecache returns the precache manifest
func (o *Offline) GetPrecache() []string {
	return o.Precache
}

// GetBypass returns the bypass rules configuration
func (o *Offline) GetBypass() Bypass {
	return o.Bypass
}

// GetRespectNoStore returns if the no-store directive prevents the write-through
func (o *Offline) GetRespectNoStore() bool {
	return o.RespectNoStore
}

// OfflineInterface interface
type OfflineInterface interface {
	GetVersion() string
	GetOfflinePage() string
	GetRetryTag() string
	GetNavigationPreload() bool
	GetPrecache() []string
	GetBypass() Bypass
	GetRespectNoStore() bool
}

// CacheProvider config
type CacheProvider struct {
	URL           string      `yaml:"url" json:"url"`
	Path          string      `yaml:"path" json:"path"`
	Configuration interface{} `yaml:"configuration" json:"configuration"`
}

// Storage config
type Storage struct {
	Provider string        `yaml:"provider" json:"provider"`
	Badger   CacheProvider `yaml:"badger" json:"badger"`
	Etcd     CacheProvider `yaml:"etcd" json:"etcd"`
	Nuts     CacheProvider `yaml:"nuts" json:"nuts"`
	Olric    CacheProvider `yaml:"olric" json:"olric"`
	Redis    CacheProvider `yaml:"redis" json:"redis"`
	Timeout  Duration      `yaml:"timeout" json:"timeout"`
}

// GetProvider returns the storer name
func (s *Storage) GetProvider() string {
	return s.Provider
}

// GetBadger returns the Badger configuration
func (s *Storage) GetBadger() CacheProvider {
	return s.Badger
}

// GetEtcd returns the Etcd configuration
func (s *Storage) GetEtcd() CacheProvider {
	return s.Etcd
}

// GetNuts returns the Nuts configuration
func (s *Storage) GetNuts() CacheProvider {
	return s.Nuts
}

// GetOlric returns the Olric configuration
func (s *Storage) GetOlric() CacheProvider {
	return s.Olric
}

// GetRedis returns the Redis configuration
func (s *Storage) GetRedis() CacheProvider {
	return s.Redis
}

// GetTimeout returns the storage dial timeout
func (s *Storage) GetTimeout() time.Duration {
	return s.Timeout.Duration
}

// StorageInterface interface
type StorageInterface interface {
	GetProvider() string
	GetBadger() CacheProvider
	GetEtcd() CacheProvider
	GetNuts() CacheProvider
	GetOlric() CacheProvider
	GetRedis() CacheProvider
	GetTimeout() time.Duration
}

// APIEndpoint is the minimal structure to define an endpoint
type APIEndpoint struct {
	BasePath string `yaml:"basepath" json:"basepath"`
	Enable   bool   `yaml:"enable" json:"enable"`
	Security bool   `yaml:"security" json:"security"`
}

// User is the minimal structure to define a user
type User struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// SecurityAPI object contains informations related to the endpoints
type SecurityAPI struct {
	BasePath string `yaml:"basepath" json:"basepath"`
	Enable   bool   `yaml:"enable" json:"enable"`
	Secret   string `yaml:"secret" json:"secret"`
	Users    []User `yaml:"users" json:"users"`
}

// API structure contains all additional endpoints
type API struct {
	BasePath   string      `yaml:"basepath" json:"basepath"`
	Worker     APIEndpoint `yaml:"worker" json:"worker"`
	Prometheus APIEndpoint `yaml:"prometheus" json:"prometheus"`
	Debug      APIEndpoint `yaml:"debug" json:"debug"`
	Security   SecurityAPI `yaml:"security" json:"security"`
}

// AbstractConfigurationInterface interface
type AbstractConfigurationInterface interface {
	GetOrigin() string
	GetListen() string
	GetOffline() OfflineInterface
	GetStorage() StorageInterface
	GetAPI() API
	GetLogLevel() string
	GetLogger() *zap.Logger
	SetLogger(*zap.Logger)
}
