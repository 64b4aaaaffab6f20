package storage

import (
	"context"
	"encoding/json"
	"time"

	t "github.com/darkweak/offline/configurationtypes"
	"github.com/darkweak/offline/pkg/storage/types"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

// Etcd provider type
type Etcd struct {
	*clientv3.Client
	ctx    context.Context
	logger *zap.Logger
}

// EtcdConnectionFactory function create new Etcd instance
func EtcdConnectionFactory(c t.AbstractConfigurationInterface) (types.Storer, error) {
	etcdConfiguration := clientv3.Config{
		DialTimeout:      5 * time.Second,
		AutoSyncInterval: 1 * time.Second,
		Logger:           c.GetLogger(),
	}
	if configuration := c.GetStorage().GetEtcd().Configuration; configuration != nil {
		bc, _ := json.Marshal(configuration)
		_ = json.Unmarshal(bc, &etcdConfiguration)
	}
	if url := c.GetStorage().GetEtcd().URL; url != "" && len(etcdConfiguration.Endpoints) == 0 {
		etcdConfiguration.Endpoints = []string{url}
	}

	cli, err := clientv3.New(etcdConfiguration)
	if err != nil {
		c.GetLogger().Sugar().Error("Impossible to initialize the Etcd DB.", err)
		return nil, err
	}

	return &Etcd{
		Client: cli,
		ctx:    context.Background(),
		logger: c.GetLogger(),
	}, nil
}

// Name returns the storer name
func (provider *Etcd) Name() string {
	return "ETCD"
}

// ListKeys method returns the list of existing keys starting with prefix
func (provider *Etcd) ListKeys(prefix string) []string {
	keys := []string{}

	r, e := provider.Client.Get(provider.ctx, prefix, clientv3.WithPrefix(), clientv3.WithKeysOnly())
	if e != nil {
		provider.logger.Sugar().Errorf("Impossible to list the keys in Etcd, %v", e)
		return []string{}
	}
	for _, k := range r.Kvs {
		keys = append(keys, string(k.Key))
	}

	return keys
}

// Get method returns the stored value if exists, nil then
func (provider *Etcd) Get(key string) (item []byte) {
	r, e := provider.Client.Get(provider.ctx, key)

	if e == nil && r != nil && len(r.Kvs) > 0 {
		item = r.Kvs[0].Value
	}

	return
}

// Set method will store the value in Etcd provider
func (provider *Etcd) Set(key string, value []byte) error {
	_, err := provider.Client.Put(provider.ctx, key, string(value))
	if err != nil {
		provider.logger.Sugar().Errorf("Impossible to set value into Etcd, %v", err)
	}

	return err
}

// Delete method will delete the value in Etcd provider if exists corresponding to key param
func (provider *Etcd) Delete(key string) {
	_, _ = provider.Client.Delete(provider.ctx, key)
}

// DeletePrefix method will delete every value whose key starts with prefix
func (provider *Etcd) DeletePrefix(prefix string) error {
	_, err := provider.Client.Delete(provider.ctx, prefix, clientv3.WithPrefix())

	return err
}

// Init method will
func (provider *Etcd) Init() error {
	return nil
}

// Reset method will reset or close provider
func (provider *Etcd) Reset() error {
	return provider.DeletePrefix("")
}
