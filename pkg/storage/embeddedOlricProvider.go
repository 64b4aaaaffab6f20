package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"

	"github.com/buraksezer/olric"
	"github.com/buraksezer/olric/config"
	t "github.com/darkweak/offline/configurationtypes"
	"github.com/darkweak/offline/pkg/storage/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"
)

// EmbeddedOlric provider type
type EmbeddedOlric struct {
	dm     olric.DMap
	db     *olric.Olric
	logger *zap.Logger
	ct     context.Context
}

func tryToLoadConfiguration(olricInstance *config.Config, olricConfiguration t.CacheProvider, logger *zap.Logger) (*config.Config, bool) {
	var e error
	isAlreadyLoaded := false
	if olricConfiguration.Configuration == nil && olricConfiguration.Path != "" {
		if olricInstance, e = config.Load(olricConfiguration.Path); e == nil {
			isAlreadyLoaded = true
		}
	} else if olricConfiguration.Configuration != nil {
		tmpFile := filepath.Join(os.TempDir(), uuid.NewString()+".yml")
		yamlConfig, e := yaml.Marshal(olricConfiguration.Configuration)
		defer func() {
			if e = os.RemoveAll(tmpFile); e != nil {
				logger.Error("Impossible to remove the temporary file")
			}
		}()
		if e = os.WriteFile(
			tmpFile,
			yamlConfig,
			0600,
		); e != nil {
			logger.Error("Impossible to create the embedded Olric config from the given one")
		}

		if olricInstance, e = config.Load(tmpFile); e == nil {
			isAlreadyLoaded = true
		} else {
			logger.Error("Impossible to create the embedded Olric config from the given one")
		}
	}

	return olricInstance, isAlreadyLoaded
}

// EmbeddedOlricConnectionFactory function create new EmbeddedOlric instance
func EmbeddedOlricConnectionFactory(configuration t.AbstractConfigurationInterface) (types.Storer, error) {
	var olricInstance *config.Config
	loaded := false

	if olricInstance, loaded = tryToLoadConfiguration(olricInstance, configuration.GetStorage().GetOlric(), configuration.GetLogger()); !loaded {
		olricInstance = config.New("local")
		olricInstance.DMaps.MaxInuse = 512 << 20
	}

	started, cancel := context.WithCancel(context.Background())
	olricInstance.Started = func() {
		configuration.GetLogger().Sugar().Debug("Embedded Olric is ready")
		defer cancel()
	}

	db, err := olric.New(olricInstance)
	if err != nil {
		return nil, err
	}

	ch := make(chan error, 1)
	go func(cdb *olric.Olric) {
		if e := cdb.Start(); e != nil {
			ch <- e
		}
	}(db)

	select {
	case err = <-ch:
		return nil, err
	case <-started.Done():
	}

	dm, e := db.NewEmbeddedClient().NewDMap("offline-map")
	if e != nil {
		return nil, e
	}
	configuration.GetLogger().Sugar().Info("Embedded Olric is ready for this node.")

	return &EmbeddedOlric{
		dm:     dm,
		db:     db,
		logger: configuration.GetLogger(),
		ct:     context.Background(),
	}, nil
}

// Name returns the storer name
func (provider *EmbeddedOlric) Name() string {
	return "EMBEDDED_OLRIC"
}

// ListKeys method returns the list of existing keys starting with prefix
func (provider *EmbeddedOlric) ListKeys(prefix string) []string {
	records, err := provider.dm.Scan(provider.ct, olric.Match("^"+regexp.QuoteMeta(prefix)))
	if err != nil {
		provider.logger.Sugar().Errorf("An error occurred while trying to list keys in Olric: %s\n", err)
		return []string{}
	}

	keys := []string{}
	for records.Next() {
		keys = append(keys, records.Key())
	}
	records.Close()

	return keys
}

// Get method returns the stored value if exists, nil then
func (provider *EmbeddedOlric) Get(key string) []byte {
	res, err := provider.dm.Get(provider.ct, key)
	if err != nil {
		if !errors.Is(err, olric.ErrKeyNotFound) {
			provider.logger.Sugar().Errorf("Impossible to get the key %s in EmbeddedOlric, %v", key, err)
		}
		return nil
	}

	val, _ := res.Byte()
	return val
}

// Set method will store the value in EmbeddedOlric provider
func (provider *EmbeddedOlric) Set(key string, value []byte) error {
	if err := provider.dm.Put(provider.ct, key, value); err != nil {
		provider.logger.Sugar().Errorf("Impossible to set value into EmbeddedOlric, %v", err)
		return err
	}

	return nil
}

// Delete method will delete the value in EmbeddedOlric provider if exists corresponding to key param
func (provider *EmbeddedOlric) Delete(key string) {
	_, err := provider.dm.Delete(provider.ct, key)
	if err != nil {
		provider.logger.Sugar().Errorf("Impossible to delete value into Olric, %v", err)
	}
}

// DeletePrefix method will delete every value whose key starts with prefix
func (provider *EmbeddedOlric) DeletePrefix(prefix string) error {
	keys := provider.ListKeys(prefix)
	if len(keys) == 0 {
		return nil
	}

	_, err := provider.dm.Delete(provider.ct, keys...)

	return err
}

// Init method will initialize EmbeddedOlric provider if needed
func (provider *EmbeddedOlric) Init() error {
	return nil
}

// Reset method will reset or close provider
func (provider *EmbeddedOlric) Reset() error {
	return provider.DeletePrefix("")
}

// Destruct method will shutdown the embedded node
func (provider *EmbeddedOlric) Destruct() error {
	provider.logger.Sugar().Debug("Destruct current embedded olric...")
	return provider.db.Shutdown(provider.ct)
}
