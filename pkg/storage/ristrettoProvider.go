package storage

import (
	"fmt"
	"strings"
	"sync"

	t "github.com/darkweak/offline/configurationtypes"
	"github.com/darkweak/offline/pkg/storage/types"
	"github.com/dgraph-io/ristretto"
)

// Ristretto provider type.
// Ristretto can't iterate over its keys, the index keeps the names of the stored keys.
type Ristretto struct {
	*ristretto.Cache
	index *sync.Map
}

// RistrettoConnectionFactory function create new Ristretto instance
func RistrettoConnectionFactory(_ t.AbstractConfigurationInterface) (types.Storer, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e7,     // number of keys to track frequency of (10M).
		MaxCost:     1 << 30, // maximum cost of cache (1GB).
		BufferItems: 64,      // number of keys per Get buffer.
	})
	if err != nil {
		return nil, err
	}

	return &Ristretto{Cache: cache, index: &sync.Map{}}, nil
}

// Name returns the storer name
func (provider *Ristretto) Name() string {
	return "RISTRETTO"
}

// ListKeys method returns the list of existing keys starting with prefix
func (provider *Ristretto) ListKeys(prefix string) []string {
	keys := []string{}

	provider.index.Range(func(key, _ any) bool {
		k := key.(string)
		if !strings.HasPrefix(k, prefix) {
			return true
		}
		if _, found := provider.Cache.Get(k); !found {
			provider.index.Delete(k)
			return true
		}
		keys = append(keys, k)

		return true
	})

	return keys
}

// Get method returns the stored value if exists, nil then
func (provider *Ristretto) Get(key string) []byte {
	val, found := provider.Cache.Get(key)
	if !found {
		provider.index.Delete(key)
		return nil
	}

	return val.([]byte)
}

// Set method will store the value in Ristretto provider
func (provider *Ristretto) Set(key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	if !provider.Cache.Set(key, stored, int64(len(stored))+1) {
		return fmt.Errorf("Impossible to set the key %s into Ristretto", key)
	}
	provider.Cache.Wait()
	provider.index.Store(key, struct{}{})

	return nil
}

// Delete method will delete the value in Ristretto provider if exists corresponding to key param
func (provider *Ristretto) Delete(key string) {
	provider.Cache.Del(key)
	provider.index.Delete(key)
}

// DeletePrefix method will delete every value whose key starts with prefix
func (provider *Ristretto) DeletePrefix(prefix string) error {
	for _, key := range provider.ListKeys(prefix) {
		provider.Delete(key)
	}

	return nil
}

// Init method will
func (provider *Ristretto) Init() error {
	return nil
}

// Reset method will reset or close provider
func (provider *Ristretto) Reset() error {
	provider.Cache.Clear()
	provider.index = &sync.Map{}

	return nil
}
