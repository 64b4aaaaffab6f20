package cachestorage

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/darkweak/offline/pkg/storage/types"
	"go.uber.org/zap"
)

const (
	GenerationPrefix = "GENERATION_"
	EntryPrefix      = "ENTRY_"
	KeySeparator     = "\x1f"
)

// RequestKey returns the request identity, the method followed by the absolute URL
func RequestKey(req *http.Request) string {
	return req.Method + " " + req.URL.String()
}

func generationKey(name string) string {
	return GenerationPrefix + name
}

func entriesPrefix(name string) string {
	return EntryPrefix + name + KeySeparator
}

// CacheStorage groups the named caches (generations) stored in a single storer
type CacheStorage struct {
	storer types.Storer
	logger *zap.Logger
	mu     sync.Mutex
}

// New creates the cache storage over the storer
func New(storer types.Storer, logger *zap.Logger) *CacheStorage {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CacheStorage{
		storer: storer,
		logger: logger,
	}
}

// Storer returns the underlying storer
func (cs *CacheStorage) Storer() types.Storer {
	return cs.storer
}

// Open returns the named cache, creating it when it doesn't exist yet.
// The created flag reports if this call created it.
func (cs *CacheStorage) Open(name string) (cache *Cache, created bool, err error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.storer.Get(generationKey(name)) == nil {
		if err = cs.storer.Set(generationKey(name), []byte(time.Now().UTC().Format(time.RFC3339Nano))); err != nil {
			return nil, false, err
		}
		created = true
		cs.logger.Sugar().Debugf("Created the cache generation %s", name)
	}

	return &Cache{name: name, storage: cs}, created, nil
}

// Has reports if the named cache exists
func (cs *CacheStorage) Has(name string) bool {
	return cs.storer.Get(generationKey(name)) != nil
}

// Delete removes the named cache with all its entries
func (cs *CacheStorage) Delete(name string) (bool, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.storer.Get(generationKey(name)) == nil {
		return false, nil
	}
	if err := cs.storer.DeletePrefix(entriesPrefix(name)); err != nil {
		return false, err
	}
	cs.storer.Delete(generationKey(name))
	cs.logger.Sugar().Debugf("Deleted the cache generation %s", name)

	return true, nil
}

type generation struct {
	name      string
	createdAt time.Time
}

// Keys returns the cache names ordered by creation
func (cs *CacheStorage) Keys() []string {
	generations := []generation{}
	for _, key := range cs.storer.ListKeys(GenerationPrefix) {
		name := strings.TrimPrefix(key, GenerationPrefix)
		createdAt, _ := time.Parse(time.RFC3339Nano, string(cs.storer.Get(key)))
		generations = append(generations, generation{name: name, createdAt: createdAt})
	}

	sort.SliceStable(generations, func(i, j int) bool {
		if generations[i].createdAt.Equal(generations[j].createdAt) {
			return generations[i].name < generations[j].name
		}
		return generations[i].createdAt.Before(generations[j].createdAt)
	})

	names := make([]string, 0, len(generations))
	for _, g := range generations {
		names = append(names, g.name)
	}

	return names
}

// Match looks the request up in every cache in creation order, nil on miss
func (cs *CacheStorage) Match(req *http.Request) *http.Response {
	for _, name := range cs.Keys() {
		c := &Cache{name: name, storage: cs}
		if res := c.Match(req); res != nil {
			return res
		}
	}

	return nil
}
