// Package ledger provides the host account table vault transitions run
// against: an in-memory implementation here, and a bbolt-backed persistent
// one in ledger/store.
package ledger

import (
	"fmt"

	"qvault.dev/node/vault"
)

// Mem is a single-invocation, non-concurrent account table keyed by
// address. It implements vault.Ledger plus the host-side operations the
// runtime and tests need (airdrop, plain transfer). Callers are expected
// to serialize requests touching the same record; Mem does no locking.
type Mem struct {
	accounts map[[32]byte]uint64
}

func NewMem() *Mem {
	return &Mem{accounts: make(map[[32]byte]uint64)}
}

// Airdrop credits amount to addr from thin air, creating the account if
// needed. Test and devnet plumbing only.
func (m *Mem) Airdrop(addr [32]byte, amount uint64) {
	m.accounts[addr] += amount
}

// Transfer moves amount between two existing-or-new accounts, the host
// analogue of a plain funding payment into an open record.
func (m *Mem) Transfer(from, to [32]byte, amount uint64) error {
	if err := m.debit(from, amount); err != nil {
		return err
	}
	return m.Credit(to, amount)
}

func (m *Mem) debit(addr [32]byte, amount uint64) error {
	bal, ok := m.accounts[addr]
	if !ok {
		return fmt.Errorf("ledger: account does not exist")
	}
	if amount > bal {
		return fmt.Errorf("ledger: insufficient balance")
	}
	m.accounts[addr] = bal - amount
	return nil
}

func (m *Mem) Allocate(payer, record [32]byte) error {
	if _, exists := m.accounts[record]; exists {
		return fmt.Errorf("ledger: record already exists")
	}
	if err := m.debit(payer, vault.RECORD_RESERVE); err != nil {
		return err
	}
	m.accounts[record] = vault.RECORD_RESERVE
	return nil
}

func (m *Mem) Balance(addr [32]byte) (uint64, error) {
	bal, ok := m.accounts[addr]
	if !ok {
		return 0, fmt.Errorf("ledger: account does not exist")
	}
	return bal, nil
}

func (m *Mem) Credit(addr [32]byte, amount uint64) error {
	bal := m.accounts[addr]
	if amount > ^uint64(0)-bal {
		return fmt.Errorf("ledger: credit overflows balance")
	}
	m.accounts[addr] = bal + amount
	return nil
}

func (m *Mem) Destroy(record [32]byte) error {
	if _, ok := m.accounts[record]; !ok {
		return fmt.Errorf("ledger: record does not exist")
	}
	delete(m.accounts, record)
	return nil
}

// Exists reports whether an account is currently allocated.
func (m *Mem) Exists(addr [32]byte) bool {
	_, ok := m.accounts[addr]
	return ok
}
