package store

import (
	"encoding/binary"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"qvault.dev/node/vault"
)

// Account values are a fixed 8-byte little-endian balance keyed by the
// 32-byte address. Absence of the key means the account is not allocated.

func encodeBalance(bal uint64) []byte {
	var v [8]byte
	binary.LittleEndian.PutUint64(v[:], bal)
	return v[:]
}

func decodeBalance(raw []byte) (uint64, error) {
	if len(raw) != 8 {
		return 0, fmt.Errorf("store: corrupt account value length %d", len(raw))
	}
	return binary.LittleEndian.Uint64(raw), nil
}

// txLedger implements vault.Ledger over the accounts bucket of one open
// bolt transaction.
type txLedger struct {
	accounts *bolt.Bucket
}

func (l *txLedger) get(addr [32]byte) (uint64, bool, error) {
	raw := l.accounts.Get(addr[:])
	if raw == nil {
		return 0, false, nil
	}
	bal, err := decodeBalance(raw)
	return bal, err == nil, err
}

func (l *txLedger) put(addr [32]byte, bal uint64) error {
	return l.accounts.Put(addr[:], encodeBalance(bal))
}

func (l *txLedger) debit(addr [32]byte, amount uint64) error {
	bal, ok, err := l.get(addr)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("store: account does not exist")
	}
	if amount > bal {
		return fmt.Errorf("store: insufficient balance")
	}
	return l.put(addr, bal-amount)
}

func (l *txLedger) Allocate(payer, record [32]byte) error {
	if _, ok, err := l.get(record); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("store: record already exists")
	}
	if err := l.debit(payer, vault.RECORD_RESERVE); err != nil {
		return err
	}
	return l.put(record, vault.RECORD_RESERVE)
}

func (l *txLedger) Balance(addr [32]byte) (uint64, error) {
	bal, ok, err := l.get(addr)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("store: account does not exist")
	}
	return bal, nil
}

func (l *txLedger) Credit(addr [32]byte, amount uint64) error {
	bal, _, err := l.get(addr)
	if err != nil {
		return err
	}
	if amount > ^uint64(0)-bal {
		return fmt.Errorf("store: credit overflows balance")
	}
	return l.put(addr, bal+amount)
}

func (l *txLedger) Destroy(record [32]byte) error {
	if _, ok, err := l.get(record); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("store: record does not exist")
	}
	return l.accounts.Delete(record[:])
}
