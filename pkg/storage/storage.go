package storage

import (
	"github.com/darkweak/offline/configurationtypes"
	"github.com/darkweak/offline/errors"
	"github.com/darkweak/offline/pkg/storage/types"
)

// StorerInstanciator builds a storer from the configuration
type StorerInstanciator func(configurationtypes.AbstractConfigurationInterface) (types.Storer, error)

var storageMap = map[string]StorerInstanciator{
	"default":   Factory,
	"badger":    BadgerConnectionFactory,
	"etcd":      EtcdConnectionFactory,
	"nuts":      NutsConnectionFactory,
	"olric":     EmbeddedOlricConnectionFactory,
	"redis":     RedisConnectionFactory,
	"ristretto": RistrettoConnectionFactory,
}

func getStorageNameFromConfiguration(configuration configurationtypes.AbstractConfigurationInterface) string {
	if configuration.GetStorage() == nil || configuration.GetStorage().GetProvider() == "" {
		return "badger"
	}

	return configuration.GetStorage().GetProvider()
}

// NewStorage instanciates and initializes the configured storer
func NewStorage(configuration configurationtypes.AbstractConfigurationInterface) (types.Storer, error) {
	storerName := getStorageNameFromConfiguration(configuration)
	newStorage, found := storageMap[storerName]
	if !found {
		return nil, &errors.UnknownStorerError{Name: storerName}
	}

	instance, err := newStorage(configuration)
	if err != nil {
		return nil, err
	}

	if err = instance.Init(); err != nil {
		return nil, err
	}
	configuration.GetLogger().Sugar().Debugf("Run with the %s storer", instance.Name())

	return instance, nil
}
