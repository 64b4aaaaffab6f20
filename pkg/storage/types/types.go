package types

// DefaultStorageName is the name of the in-memory storer
const DefaultStorageName = "DEFAULT"

// Storer is the key/value backend the cache generations are persisted in.
// Every single operation must be atomic, there is no cross-operation transaction.
type Storer interface {
	ListKeys(prefix string) []string
	Get(key string) []byte
	Set(key string, value []byte) error
	Delete(key string)
	DeletePrefix(prefix string) error
	Init() error
	Name() string
	Reset() error
}
