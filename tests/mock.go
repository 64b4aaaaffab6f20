package tests

import (
	"fmt"
	"log"
	"os"

	"github.com/darkweak/offline/configuration"
	"go.uber.org/zap"
)

// ORIGIN is the origin constant
const ORIGIN = "http://domain.com"

// VERSION is the version constant
const VERSION = "v3"

// MockConfiguration is an helper to mock the configuration
func MockConfiguration(configurationToLoad func() string) *configuration.Configuration {
	var config configuration.Configuration
	if err := config.Parse([]byte(configurationToLoad())); err != nil {
		log.Fatal(err)
	}
	config.SetLogger(zap.NewNop())

	return &config
}

// BaseConfiguration is the in-memory configuration
func BaseConfiguration() string {
	return `
origin: ` + ORIGIN + `
log_level: debug
api:
  basepath: /offline-api
  security:
    secret: your_secret_key
    enable: true
    users:
      - username: user1
        password: test
  worker:
    enable: true
  prometheus:
    enable: true
offline:
  version: ` + VERSION + `
  offline_page: /offline.html
  precache:
    - /
    - /manifest.json
    - /offline.html
storage:
  provider: default
`
}

// BadgerConfiguration simulate the configuration for the Badger storage
func BadgerConfiguration() string {
	return `
origin: ` + ORIGIN + `
offline:
  version: ` + VERSION + `
storage:
  provider: badger
  badger:
    configuration:
      SyncWrites: false
      InMemory: true
`
}

// NutsConfiguration simulate the configuration for the Nuts storage
func NutsConfiguration() string {
	return fmt.Sprintf(`
origin: %s
offline:
  version: %s
storage:
  provider: nuts
  nuts:
    path: %s
`, ORIGIN, VERSION, tempDir("offline-nuts"))
}

// RistrettoConfiguration simulate the configuration for the Ristretto storage
func RistrettoConfiguration() string {
	return `
origin: ` + ORIGIN + `
offline:
  version: ` + VERSION + `
storage:
  provider: ristretto
`
}

// RedisConfiguration simulate the configuration for the Redis storage
func RedisConfiguration() string {
	return `
origin: ` + ORIGIN + `
offline:
  version: ` + VERSION + `
storage:
  provider: redis
  redis:
    url: ` + os.Getenv("REDIS_URL") + `
`
}

// EtcdConfiguration simulate the configuration for the Etcd storage
func EtcdConfiguration() string {
	return `
origin: ` + ORIGIN + `
offline:
  version: ` + VERSION + `
storage:
  provider: etcd
  etcd:
    configuration:
      endpoints:
        - ` + os.Getenv("ETCD_URL") + `
`
}

func tempDir(prefix string) string {
	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		log.Fatal(err)
	}

	return dir
}

func getenv(name string) string {
	return os.Getenv(name)
}
