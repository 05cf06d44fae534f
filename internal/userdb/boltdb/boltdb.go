// Package boltdb implements the credential store with a boltdb backend, for
// deployments that outgrow the plain text file.
package boltdb

import (
	"crypto/subtle"
	"fmt"
	"strings"

	bolt "go.etcd.io/bbolt"

	"goparley/internal/userdb"
)

const usersBucket = "users"

type boltUserDB struct {
	db *bolt.DB
}

// New opens or creates the database at path.
func New(path string) (userdb.UserDB, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltdb: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(usersBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltdb: init %s: %w", path, err)
	}
	return &boltUserDB{db: db}, nil
}

func (d *boltUserDB) Authenticate(nickname, password string) error {
	var stored []byte
	if err := d.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(usersBucket)).Get([]byte(nickname))
		if raw != nil {
			stored = append([]byte(nil), raw...)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("boltdb: read: %w", err)
	}
	if stored == nil {
		return userdb.ErrNoSuchUser
	}
	if subtle.ConstantTimeCompare(stored, []byte(password)) != 1 {
		return userdb.ErrWrongPassword
	}
	return nil
}

func (d *boltUserDB) Add(nickname, password string) error {
	if nickname == "" || strings.Contains(nickname, ":") {
		return fmt.Errorf("boltdb: invalid nickname: %q", nickname)
	}
	return d.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(usersBucket))
		if bkt.Get([]byte(nickname)) != nil {
			return fmt.Errorf("boltdb: user already exists: %q", nickname)
		}
		return bkt.Put([]byte(nickname), []byte(password))
	})
}

func (d *boltUserDB) Close() {
	d.db.Close()
}
