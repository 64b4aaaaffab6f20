package cachestorage

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Cache is a single named generation
type Cache struct {
	name    string
	storage *CacheStorage
}

// Entry is a request and its response
type Entry struct {
	Request  *http.Request
	Response *http.Response
}

// Name returns the generation name
func (c *Cache) Name() string {
	return c.name
}

func (c *Cache) entryKey(req *http.Request) string {
	return entriesPrefix(c.name) + RequestKey(req)
}

// Put stores the response snapshot under the request identity, overwriting any previous entry.
// The response body stays readable.
func (c *Cache) Put(req *http.Request, res *http.Response) error {
	snapshot, err := Snapshot(res)
	if err != nil {
		return err
	}

	return c.storage.storer.Set(c.entryKey(req), snapshot)
}

// PutIfExists stores the snapshot only while the generation exists, false when it was deleted
func (c *Cache) PutIfExists(key string, snapshot []byte) (bool, error) {
	c.storage.mu.Lock()
	defer c.storage.mu.Unlock()

	if c.storage.storer.Get(generationKey(c.name)) == nil {
		return false, nil
	}

	return true, c.storage.storer.Set(entriesPrefix(c.name)+key, snapshot)
}

// PutAll snapshots every response before writing any of them
func (c *Cache) PutAll(entries []Entry) error {
	snapshots := make(map[string][]byte, len(entries))
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		snapshot, err := Snapshot(entry.Response)
		if err != nil {
			return err
		}
		key := c.entryKey(entry.Request)
		if _, ok := snapshots[key]; !ok {
			keys = append(keys, key)
		}
		snapshots[key] = snapshot
	}

	for _, key := range keys {
		if err := c.storage.storer.Set(key, snapshots[key]); err != nil {
			return err
		}
	}

	return nil
}

// Match returns the stored response for the request identity, nil on miss
func (c *Cache) Match(req *http.Request) *http.Response {
	snapshot := c.storage.storer.Get(c.entryKey(req))
	if snapshot == nil {
		return nil
	}

	res, err := Restore(snapshot, req)
	if err != nil {
		c.storage.logger.Sugar().Warnf("Impossible to restore the entry %s from %s: %v", RequestKey(req), c.name, err)
		return nil
	}

	return res
}

// Delete removes the entry stored for the request identity
func (c *Cache) Delete(req *http.Request) bool {
	key := c.entryKey(req)
	if c.storage.storer.Get(key) == nil {
		return false
	}
	c.storage.storer.Delete(key)

	return true
}

// Keys returns the requests stored in the generation
func (c *Cache) Keys() []*http.Request {
	prefix := entriesPrefix(c.name)
	keys := c.storage.storer.ListKeys(prefix)
	sort.Strings(keys)
	requests := []*http.Request{}
	for _, key := range keys {
		method, rawURL, found := strings.Cut(strings.TrimPrefix(key, prefix), " ")
		if !found {
			continue
		}
		u, err := url.Parse(rawURL)
		if err != nil {
			continue
		}
		requests = append(requests, &http.Request{
			Method:     method,
			URL:        u,
			Host:       u.Host,
			Proto:      "HTTP/1.1",
			ProtoMajor: 1,
			ProtoMinor: 1,
			Header:     http.Header{},
		})
	}

	return requests
}
