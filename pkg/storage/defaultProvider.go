package storage

import (
	"strings"
	"sync"

	"github.com/darkweak/offline/configurationtypes"
	"github.com/darkweak/offline/pkg/storage/types"
)

// Default provider type
type Default struct {
	m *sync.Map
}

// Factory function create new Default instance
func Factory(_ configurationtypes.AbstractConfigurationInterface) (types.Storer, error) {
	return &Default{m: &sync.Map{}}, nil
}

// Name returns the storer name
func (provider *Default) Name() string {
	return types.DefaultStorageName
}

// ListKeys method returns the list of existing keys starting with prefix
func (provider *Default) ListKeys(prefix string) []string {
	keys := []string{}

	provider.m.Range(func(key, _ any) bool {
		if strings.HasPrefix(key.(string), prefix) {
			keys = append(keys, key.(string))
		}

		return true
	})

	return keys
}

// Get method returns the stored value if exists, nil then
func (provider *Default) Get(key string) []byte {
	result, ok := provider.m.Load(key)
	if !ok || result == nil {
		return nil
	}

	return result.([]byte)
}

// Set method will store the value in the Default provider
func (provider *Default) Set(key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	provider.m.Store(key, stored)

	return nil
}

// Delete method will delete the value in the Default provider if exists corresponding to key param
func (provider *Default) Delete(key string) {
	provider.m.Delete(key)
}

// DeletePrefix method will delete every value whose key starts with prefix
func (provider *Default) DeletePrefix(prefix string) error {
	provider.m.Range(func(key, _ any) bool {
		if strings.HasPrefix(key.(string), prefix) {
			provider.m.Delete(key)
		}

		return true
	})

	return nil
}

// Init method will
func (provider *Default) Init() error {
	return nil
}

// Reset method will reset or close provider
func (provider *Default) Reset() error {
	provider.m = &sync.Map{}
	return nil
}
