package storage

import (
	"fmt"
	"sort"
	"testing"

	"github.com/darkweak/offline/configurationtypes"
	"github.com/darkweak/offline/errors"
	"github.com/darkweak/offline/pkg/storage/types"
	"github.com/darkweak/offline/tests"
)

const BYTEKEY = "MyByteKey"
const NONEXISTENTKEY = "NonexistentKey"
const BASE_VALUE = "My first data"

func verifyNewValueAfterSet(client types.Storer, key string, value []byte, t *testing.T) {
	newValue := client.Get(key)

	if string(newValue) != string(value) {
		errors.GenerateError(t, fmt.Sprintf("Key %s should be equals to %s, %s provided", key, value, newValue))
	}
}

func setValueThenVerify(client types.Storer, key string, value []byte, t *testing.T) {
	if err := client.Set(key, value); err != nil {
		errors.GenerateError(t, fmt.Sprintf("Impossible to set the key %s: %v", key, err))
	}
	verifyNewValueAfterSet(client, key, value, t)
}

// runStorerSuite checks the behavior every storer must share
func runStorerSuite(t *testing.T, client types.Storer) {
	t.Helper()
	_ = client.Reset()

	if res := client.Get(NONEXISTENTKEY); len(res) > 0 {
		errors.GenerateError(t, fmt.Sprintf("Key %s should not exist", NONEXISTENTKEY))
	}

	setValueThenVerify(client, BYTEKEY, []byte("A"), t)
	setValueThenVerify(client, BYTEKEY, []byte(BASE_VALUE), t)

	setValueThenVerify(client, "ENTRY_v1\x1fGET http://domain.com/", []byte("root"), t)
	setValueThenVerify(client, "ENTRY_v1\x1fGET http://domain.com/a.jpg", []byte("image"), t)
	setValueThenVerify(client, "ENTRY_v10\x1fGET http://domain.com/", []byte("other"), t)

	keys := client.ListKeys("ENTRY_v1\x1f")
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "ENTRY_v1\x1fGET http://domain.com/" || keys[1] != "ENTRY_v1\x1fGET http://domain.com/a.jpg" {
		errors.GenerateError(t, fmt.Sprintf("The prefix listing must only return the v1 keys, %q given", keys))
	}

	if err := client.DeletePrefix("ENTRY_v1\x1f"); err != nil {
		errors.GenerateError(t, fmt.Sprintf("Impossible to delete the prefix: %v", err))
	}
	if len(client.ListKeys("ENTRY_v1\x1f")) != 0 {
		errors.GenerateError(t, "The v1 keys must have been deleted")
	}
	if len(client.Get("ENTRY_v10\x1fGET http://domain.com/")) == 0 {
		errors.GenerateError(t, "The v10 key must survive the v1 prefix deletion")
	}

	client.Delete(BYTEKEY)
	if len(client.Get(BYTEKEY)) > 0 {
		errors.GenerateError(t, fmt.Sprintf("Key %s should not exist", BYTEKEY))
	}

	if err := client.Reset(); err != nil {
		errors.GenerateError(t, fmt.Sprintf("Impossible to reset the storer: %v", err))
	}
	if len(client.ListKeys("")) != 0 {
		errors.GenerateError(t, "The storer must be empty after a reset")
	}
}

func TestInitializeProvider(t *testing.T) {
	c := tests.MockConfiguration(tests.BaseConfiguration)
	storer, err := NewStorage(c)
	if nil != err {
		errors.GenerateError(t, "NewStorage should return a new storer")
	}
	if storer.Name() != types.DefaultStorageName {
		errors.GenerateError(t, fmt.Sprintf("The storer must be the default one, %s given", storer.Name()))
	}
}

func TestNewStorageUnknownProvider(t *testing.T) {
	c := tests.MockConfiguration(tests.BaseConfiguration)
	c.Storage = &configurationtypes.Storage{Provider: "unknown"}

	_, err := NewStorage(c)
	if err == nil {
		errors.GenerateError(t, "NewStorage should fail with an unknown provider")
	}
	if _, ok := err.(*errors.UnknownStorerError); !ok {
		errors.GenerateError(t, fmt.Sprintf("The error must be an UnknownStorerError, %T given", err))
	}
}

func TestDefault(t *testing.T) {
	client, _ := Factory(tests.MockConfiguration(tests.BaseConfiguration))
	runStorerSuite(t, client)
}

func TestDefault_SetCopiesTheValue(t *testing.T) {
	client, _ := Factory(tests.MockConfiguration(tests.BaseConfiguration))
	value := []byte("mutable")
	_ = client.Set(BYTEKEY, value)
	value[0] = 'M'

	verifyNewValueAfterSet(client, BYTEKEY, []byte("mutable"), t)
}
