package storage

import (
	"encoding/json"
	"sync"

	t "github.com/darkweak/offline/configurationtypes"
	"github.com/darkweak/offline/pkg/storage/types"
	badger "github.com/dgraph-io/badger/v3"
	"github.com/imdario/mergo"
	"go.uber.org/zap"
)

// Badger provider type
type Badger struct {
	*badger.DB
	logger *zap.Logger
}

var (
	enabledBadgerInstances               = make(map[string]*Badger)
	badgerInstancesMutex                 sync.Mutex
	_                      badger.Logger = (*badgerLogger)(nil)
)

type badgerLogger struct {
	*zap.SugaredLogger
}

func (b *badgerLogger) Warningf(msg string, params ...interface{}) {
	b.SugaredLogger.Warnf(msg, params...)
}

// BadgerConnectionFactory function create new Badger instance
func BadgerConnectionFactory(c t.AbstractConfigurationInterface) (types.Storer, error) {
	badgerConfiguration := c.GetStorage().GetBadger()
	badgerOptions := badger.DefaultOptions(badgerConfiguration.Path)
	badgerOptions.SyncWrites = true
	if badgerConfiguration.Configuration != nil {
		var parsedBadger badger.Options
		if b, e := json.Marshal(badgerConfiguration.Configuration); e == nil {
			if e = json.Unmarshal(b, &parsedBadger); e != nil {
				c.GetLogger().Sugar().Error("Impossible to parse the configuration for the Badger provider", e)
			}
		}

		if err := mergo.Merge(&badgerOptions, parsedBadger, mergo.WithOverride); err != nil {
			c.GetLogger().Sugar().Error("An error occurred during the badgerOptions merge from the default options with your configuration.")
		}
		if badgerOptions.Dir == "" && !badgerOptions.InMemory {
			badgerOptions.Dir = "offline_dir"
			badgerOptions.ValueDir = badgerOptions.Dir
		}
	} else if badgerConfiguration.Path == "" {
		badgerOptions = badgerOptions.WithInMemory(true)
	}

	badgerOptions.Logger = &badgerLogger{SugaredLogger: c.GetLogger().Sugar()}

	// In-memory databases are never shared, each factory call gets its own.
	uid := badgerOptions.Dir + badgerOptions.ValueDir
	if !badgerOptions.InMemory {
		badgerInstancesMutex.Lock()
		defer badgerInstancesMutex.Unlock()
		if i, ok := enabledBadgerInstances[uid]; ok {
			return i, nil
		}
	}

	db, e := badger.Open(badgerOptions)
	if e != nil {
		c.GetLogger().Sugar().Error("Impossible to open the Badger DB.", e)
		return nil, e
	}

	i := &Badger{DB: db, logger: c.GetLogger()}
	if !badgerOptions.InMemory {
		enabledBadgerInstances[uid] = i
	}

	return i, nil
}

// Name returns the storer name
func (provider *Badger) Name() string {
	return "BADGER"
}

// ListKeys method returns the list of existing keys starting with prefix
func (provider *Badger) ListKeys(prefix string) []string {
	keys := []string{}

	e := provider.DB.View(func(txn *badger.Txn) error {
		p := []byte(prefix)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = p
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})

	if e != nil {
		return []string{}
	}

	return keys
}

// Get method returns the stored value if exists, nil then
func (provider *Badger) Get(key string) []byte {
	var result []byte

	e := provider.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		result, err = item.ValueCopy(nil)
		return err
	})

	if e != nil {
		if e != badger.ErrKeyNotFound {
			provider.logger.Sugar().Errorf("Impossible to get the key %s in Badger, %v", key, e)
		}
		return nil
	}

	return result
}

// Set method will store the value in Badger provider
func (provider *Badger) Set(key string, value []byte) error {
	err := provider.DB.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), value))
	})

	if err != nil {
		provider.logger.Sugar().Errorf("Impossible to set value into Badger, %v", err)
	}

	return err
}

// Delete method will delete the value in Badger provider if exists corresponding to key param
func (provider *Badger) Delete(key string) {
	_ = provider.DB.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// DeletePrefix method will delete every value whose key starts with prefix
func (provider *Badger) DeletePrefix(prefix string) error {
	return provider.DB.DropPrefix([]byte(prefix))
}

// Init method will
func (provider *Badger) Init() error {
	return nil
}

// Reset method will reset or close provider
func (provider *Badger) Reset() error {
	return provider.DB.DropAll()
}
