package storage

import (
	"encoding/json"
	"strings"
	"sync"

	t "github.com/darkweak/offline/configurationtypes"
	"github.com/darkweak/offline/pkg/storage/types"
	"github.com/imdario/mergo"
	"github.com/xujiajun/nutsdb"
	"go.uber.org/zap"
)

var (
	nutsInstanceMap   = map[string]*nutsdb.DB{}
	nutsInstanceMutex sync.Mutex
)

// Nuts provider type
type Nuts struct {
	*nutsdb.DB
	logger *zap.Logger
}

const (
	bucket    = "offline-bucket"
	nutsLimit = 1 << 16
)

// NutsConnectionFactory function create new Nuts instance
func NutsConnectionFactory(c t.AbstractConfigurationInterface) (types.Storer, error) {
	nutsConfiguration := c.GetStorage().GetNuts()
	nutsOptions := nutsdb.DefaultOptions
	nutsOptions.Dir = "/tmp/offline-nuts"
	if nutsConfiguration.Configuration != nil {
		var parsedNuts nutsdb.Options
		if b, e := json.Marshal(nutsConfiguration.Configuration); e == nil {
			if e = json.Unmarshal(b, &parsedNuts); e != nil {
				c.GetLogger().Sugar().Error("Impossible to parse the configuration for the Nuts provider", e)
			}
		}

		if err := mergo.Merge(&nutsOptions, parsedNuts, mergo.WithOverride); err != nil {
			c.GetLogger().Sugar().Error("An error occurred during the nutsOptions merge from the default options with your configuration.")
		}
	} else {
		nutsOptions.RWMode = nutsdb.MMap
		if nutsConfiguration.Path != "" {
			nutsOptions.Dir = nutsConfiguration.Path
		}
	}

	nutsInstanceMutex.Lock()
	defer nutsInstanceMutex.Unlock()
	if instance, ok := nutsInstanceMap[nutsOptions.Dir]; ok && instance != nil {
		return &Nuts{
			DB:     instance,
			logger: c.GetLogger(),
		}, nil
	}

	db, e := nutsdb.Open(nutsOptions)
	if e != nil {
		c.GetLogger().Sugar().Error("Impossible to open the Nuts DB.", e)
		return nil, e
	}

	nutsInstanceMap[nutsOptions.Dir] = db

	return &Nuts{
		DB:     db,
		logger: c.GetLogger(),
	}, nil
}

// Name returns the storer name
func (provider *Nuts) Name() string {
	return "NUTS"
}

// ListKeys method returns the list of existing keys starting with prefix
func (provider *Nuts) ListKeys(prefix string) []string {
	keys := []string{}

	_ = provider.DB.View(func(tx *nutsdb.Tx) error {
		if prefix == "" {
			entries, err := tx.GetAll(bucket)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				keys = append(keys, string(entry.Key))
			}

			return nil
		}

		entries, _, err := tx.PrefixScan(bucket, []byte(prefix), 0, nutsLimit)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			keys = append(keys, string(entry.Key))
		}

		return nil
	})

	return keys
}

// Get method returns the stored value if exists, nil then
func (provider *Nuts) Get(key string) (item []byte) {
	_ = provider.DB.View(func(tx *nutsdb.Tx) error {
		i, e := tx.Get(bucket, []byte(key))
		if i != nil {
			item = i.Value
		}
		return e
	})

	return
}

// Set method will store the value in Nuts provider
func (provider *Nuts) Set(key string, value []byte) error {
	err := provider.DB.Update(func(tx *nutsdb.Tx) error {
		return tx.Put(bucket, []byte(key), value, nutsdb.Persistent)
	})

	if err != nil {
		provider.logger.Sugar().Errorf("Impossible to set value into Nuts, %v", err)
	}

	return err
}

// Delete method will delete the value in Nuts provider if exists corresponding to key param
func (provider *Nuts) Delete(key string) {
	_ = provider.DB.Update(func(tx *nutsdb.Tx) error {
		return tx.Delete(bucket, []byte(key))
	})
}

// DeletePrefix method will delete every value whose key starts with prefix
func (provider *Nuts) DeletePrefix(prefix string) error {
	keys := provider.ListKeys(prefix)
	if len(keys) == 0 {
		return nil
	}

	return provider.DB.Update(func(tx *nutsdb.Tx) error {
		for _, key := range keys {
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			if err := tx.Delete(bucket, []byte(key)); err != nil {
				return err
			}
		}

		return nil
	})
}

// Init method will
func (provider *Nuts) Init() error {
	return nil
}

// Reset method will reset or close provider
func (provider *Nuts) Reset() error {
	return provider.DeletePrefix("")
}
