package store

import (
	"errors"

	bolt "go.etcd.io/bbolt"

	"src.gsh.sh/pkg/registry"
)

const bucketAlias = "alias"

// ErrNoAlias is returned by (*Store).Alias when there is no such alias.
var ErrNoAlias = errors.New("no such alias")

func init() {
	initDB["initialize alias table"] = func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketAlias))
		return err
	}
}

// Alias gets the value of an alias.
func (s *Store) Alias(name string) (string, error) {
	var value string
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketAlias)).Get([]byte(name))
		if v == nil {
			return ErrNoAlias
		}
		value = string(v)
		return nil
	})
	return value, err
}

// PutAlias sets the value of an alias.
func (s *Store) PutAlias(name, value string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketAlias)).Put([]byte(name), []byte(value))
	})
}

// DelAlias deletes an alias. Deleting an alias that does not exist is not an
// error.
func (s *Store) DelAlias(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketAlias)).Delete([]byte(name))
	})
}

// Aliases returns all aliases, ordered by name.
func (s *Store) Aliases() ([]registry.Alias, error) {
	var aliases []registry.Alias
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketAlias)).ForEach(func(k, v []byte) error {
			aliases = append(aliases, registry.Alias{Name: string(k), Value: string(v)})
			return nil
		})
	})
	return aliases, err
}

// LoadInto defines the stored aliases in reg and returns how many were
// defined. Aliases that reg refuses, such as those that would shadow a
// command, are skipped and logged.
func (s *Store) LoadInto(reg *registry.Registry) (int, error) {
	aliases, err := s.Aliases()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, a := range aliases {
		if err := reg.AddAlias(a.Name, a.Value); err != nil {
			logger.Warn().Err(err).Str("alias", a.Name).Msg("skipping stored alias")
			continue
		}
		n++
	}
	return n, nil
}
