package storage

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	t "github.com/darkweak/offline/configurationtypes"
	"github.com/darkweak/offline/pkg/storage/types"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis provider type
type Redis struct {
	inClient *redis.Client
	ctx      context.Context
	logger   *zap.Logger
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// RedisConnectionFactory function create new Redis instance
func RedisConnectionFactory(c t.AbstractConfigurationInterface) (types.Storer, error) {
	redisConfiguration := c.GetStorage().GetRedis()

	options := redis.Options{
		Addr:       redisConfiguration.URL,
		DB:         0,
		ClientName: "offline-redis",
	}
	if redisConfiguration.Configuration != nil {
		if bc, e := json.Marshal(redisConfiguration.Configuration); e == nil {
			if e = json.Unmarshal(bc, &options); e != nil {
				c.GetLogger().Sugar().Infof("Cannot parse your redis configuration: %+v", e)
			}
		}
	}

	if options.DialTimeout == 0 {
		options.DialTimeout = c.GetStorage().GetTimeout()
		if options.DialTimeout == 0 {
			options.DialTimeout = time.Second
		}
	}

	cli := redis.NewClient(&options)
	ctx := context.Background()
	if err := cli.Ping(ctx).Err(); err != nil {
		c.GetLogger().Sugar().Errorf("Impossible to reach the Redis server %s, %v", options.Addr, err)
		_ = cli.Close()
		return nil, err
	}

	return &Redis{
		inClient: cli,
		ctx:      ctx,
		logger:   c.GetLogger(),
	}, nil
}

// Name returns the storer name
func (provider *Redis) Name() string {
	return "REDIS"
}

// ListKeys method returns the list of existing keys starting with prefix
func (provider *Redis) ListKeys(prefix string) []string {
	keys := []string{}

	iter := provider.inClient.Scan(provider.ctx, 0, globReplacer.Replace(prefix)+"*", 0).Iterator()
	for iter.Next(provider.ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		provider.logger.Sugar().Errorf("Impossible to list the keys in Redis, %v", err)
		return []string{}
	}

	return keys
}

// Get method returns the stored value if exists, nil then
func (provider *Redis) Get(key string) []byte {
	r, e := provider.inClient.Get(provider.ctx, key).Bytes()
	if e != nil {
		if e != redis.Nil {
			provider.logger.Sugar().Errorf("Impossible to get the key %s in Redis, %v", key, e)
		}
		return nil
	}

	return r
}

// Set method will store the value in Redis provider
func (provider *Redis) Set(key string, value []byte) error {
	err := provider.inClient.Set(provider.ctx, key, value, 0).Err()
	if err != nil {
		provider.logger.Sugar().Errorf("Impossible to set value into Redis, %v", err)
	}

	return err
}

// Delete method will delete the value in Redis provider if exists corresponding to key param
func (provider *Redis) Delete(key string) {
	_ = provider.inClient.Del(provider.ctx, key).Err()
}

// DeletePrefix method will delete every value whose key starts with prefix
func (provider *Redis) DeletePrefix(prefix string) error {
	keys := provider.ListKeys(prefix)
	if len(keys) == 0 {
		return nil
	}

	return provider.inClient.Del(provider.ctx, keys...).Err()
}

// Init method will
func (provider *Redis) Init() error {
	return nil
}

// Reset method will reset or close provider
func (provider *Redis) Reset() error {
	return provider.DeletePrefix("")
}
