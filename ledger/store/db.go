// Package store persists the vault account ledger in bbolt. Every protocol
// request is applied inside a single bolt update transaction, which gives
// the atomic-unit guarantee the vault core requires of its host.
package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"qvault.dev/node/vault"
)

var (
	bucketAccounts = []byte("accounts_by_address")
	bucketMeta     = []byte("meta")
)

var keySchemaVersion = []byte("schema_version")

const SchemaVersionV1 uint32 = 1

type DB struct {
	dir string
	db  *bolt.DB
}

func Open(datadir string) (*DB, error) {
	if datadir == "" {
		return nil, fmt.Errorf("store: datadir required")
	}
	if err := os.MkdirAll(datadir, 0o750); err != nil {
		return nil, fmt.Errorf("store: ensure datadir: %w", err)
	}

	path := filepath.Join(datadir, "ledger.db")
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("store: open bbolt: %w", err)
	}

	d := &DB{dir: datadir, db: bdb}

	if err := d.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketAccounts, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		meta := tx.Bucket(bucketMeta)
		raw := meta.Get(keySchemaVersion)
		if raw == nil {
			var v [4]byte
			binary.LittleEndian.PutUint32(v[:], SchemaVersionV1)
			return meta.Put(keySchemaVersion, v[:])
		}
		if len(raw) != 4 {
			return fmt.Errorf("corrupt schema_version")
		}
		if got := binary.LittleEndian.Uint32(raw); got > SchemaVersionV1 {
			return fmt.Errorf("schema_version %d > supported %d", got, SchemaVersionV1)
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *DB) Dir() string { return d.dir }

// Apply runs fn against a transactional ledger view. If fn returns an
// error the whole update rolls back, so a rejected request leaves no
// observable mutation even if fn failed mid-way.
func (d *DB) Apply(fn func(l vault.Ledger) error) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		return fn(&txLedger{accounts: tx.Bucket(bucketAccounts)})
	})
}

// Balance reads an account outside any request. The second return reports
// whether the account exists.
func (d *DB) Balance(addr [32]byte) (uint64, bool, error) {
	var bal uint64
	var ok bool
	err := d.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketAccounts).Get(addr[:])
		if raw == nil {
			return nil
		}
		v, err := decodeBalance(raw)
		if err != nil {
			return err
		}
		bal, ok = v, true
		return nil
	})
	return bal, ok, err
}

// Airdrop credits amount to addr from thin air. Devnet plumbing only.
func (d *DB) Airdrop(addr [32]byte, amount uint64) error {
	return d.Apply(func(l vault.Ledger) error {
		return l.Credit(addr, amount)
	})
}

// Transfer moves amount between accounts, the host analogue of funding an
// open record.
func (d *DB) Transfer(from, to [32]byte, amount uint64) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		l := &txLedger{accounts: tx.Bucket(bucketAccounts)}
		if err := l.debit(from, amount); err != nil {
			return err
		}
		return l.Credit(to, amount)
	})
}
