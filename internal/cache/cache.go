package cache

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Cache is an embedded write-through cache keyed by namespace and entity
// id. It is advisory: every value in it originates from a successful
// store write or store read, never from anywhere else.
type Cache struct {
	db *badger.DB
}

// Open opens an on-disk cache at dir.
func Open(dir string) (*Cache, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// OpenInMemory opens a cache with no backing files.
func OpenInMemory() (*Cache, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func key(namespace, id string) []byte {
	return []byte(namespace + ":" + id)
}

// Get unmarshals the cached value for namespace/id into out. The second
// return is false on a cache miss.
func (c *Cache) Get(namespace, id string, out any) (bool, error) {
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(namespace, id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s:%s: %w", namespace, id, err)
	}
	return true, nil
}

// Set overwrites the cached value for namespace/id.
func (c *Cache) Set(namespace, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache marshal %s:%s: %w", namespace, id, err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(namespace, id), data)
	})
	if err != nil {
		return fmt.Errorf("cache set %s:%s: %w", namespace, id, err)
	}
	return nil
}
