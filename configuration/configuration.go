package configuration

import (
	"os"

	"github.com/darkweak/offline/configurationtypes"
	"github.com/imdario/mergo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Configuration holder
type Configuration struct {
	Origin   string                      `yaml:"origin"`
	Listen   string                      `yaml:"listen"`
	Offline  *configurationtypes.Offline `yaml:"offline"`
	Storage  *configurationtypes.Storage `yaml:"storage"`
	API      configurationtypes.API      `yaml:"api"`
	LogLevel string                      `yaml:"log_level"`
	logger   *zap.Logger
}

// Default returns the configuration every parsed file is merged onto
func Default() Configuration {
	return Configuration{
		Listen: ":8080",
		Offline: &configurationtypes.Offline{
			OfflinePage: "/offline.html",
			RetryTag:    "retry-failed",
			Bypass: configurationtypes.Bypass{
				Prefixes: []string{"/auth/", "/api/"},
				Patterns: []string{`\.(json|js|css)\?v=\d+$`},
				Schemes:  []string{"http", "https"},
			},
		},
		Storage: &configurationtypes.Storage{
			Provider: "badger",
		},
		API: configurationtypes.API{
			BasePath: "/offline-api",
		},
		LogLevel: "info",
	}
}

// Parse configuration
func (c *Configuration) Parse(data []byte) error {
	var parsed Configuration
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return err
	}

	defaults := Default()
	if err := mergo.Merge(&parsed, defaults); err != nil {
		return err
	}
	if parsed.Offline != nil {
		if err := mergo.Merge(parsed.Offline, *defaults.Offline); err != nil {
			return err
		}
	}
	if parsed.Storage != nil {
		if err := mergo.Merge(parsed.Storage, *defaults.Storage); err != nil {
			return err
		}
	}

	parsed.logger = c.logger
	*c = parsed

	return nil
}

// GetOrigin get the upstream origin the worker is scoped to
func (c *Configuration) GetOrigin() string {
	return c.Origin
}

// GetListen get the listen address
func (c *Configuration) GetListen() string {
	return c.Listen
}

// GetOffline get the offline worker configuration
func (c *Configuration) GetOffline() configurationtypes.OfflineInterface {
	return c.Offline
}

// GetStorage get the storage configuration
func (c *Configuration) GetStorage() configurationtypes.StorageInterface {
	return c.Storage
}

// GetAPI get the api configuration
func (c *Configuration) GetAPI() configurationtypes.API {
	return c.API
}

// GetLogLevel get the log level
func (c *Configuration) GetLogLevel() string {
	return c.LogLevel
}

// GetLogger get the logger
func (c *Configuration) GetLogger() *zap.Logger {
	return c.logger
}

// SetLogger set the logger
func (c *Configuration) SetLogger(l *zap.Logger) {
	c.logger = l
}

// NewLogger builds the JSON logger at the configured level
func NewLogger(level string) *zap.Logger {
	var logLevel zapcore.Level
	if level == "" {
		logLevel = zapcore.InfoLevel
	} else if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel = zapcore.InfoLevel
	}
	cfg := zap.Config{
		Encoding:         "json",
		Level:            zap.NewAtomicLevelAt(logLevel),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "message",

			LevelKey:    "level",
			EncodeLevel: zapcore.CapitalLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.ISO8601TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}

	return logger
}

// GetConfiguration allow to retrieve the configuration through yaml file
func GetConfiguration(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Configuration
	if err = config.Parse(data); err != nil {
		return nil, err
	}
	config.SetLogger(NewLogger(config.GetLogLevel()))

	return &config, nil
}

var _ configurationtypes.AbstractConfigurationInterface = (*Configuration)(nil)
