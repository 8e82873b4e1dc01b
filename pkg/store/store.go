// Package store persists user aliases in a bbolt database.
package store

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"src.gsh.sh/pkg/logutil"
)

var logger = logutil.GetLogger("[store] ")

// Functions run inside one transaction when a database is opened, keyed by
// what they do.
var initDB = map[string]func(*bolt.Tx) error{}

// Store is a database of aliases. It is safe for concurrent use.
type Store struct {
	db *bolt.DB
}

// Open opens the database at path, creating it if needed. It gives up if
// another process holds the database for more than a second.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for name, fn := range initDB {
			if err := fn(tx); err != nil {
				return fmt.Errorf("failed to %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug().Str("path", path).Msg("opened database")
	return &Store{db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
