package vault

// RECORD_RESERVE is the minimum viable funding drawn from the payer when a
// record is allocated. Matches the host runtime's reserve for a zero-data
// record.
const RECORD_RESERVE uint64 = 890_880

// Ledger is the host account table a transition mutates. Implementations
// must present all reads and mutations made during a single invocation as
// one atomic unit to any concurrent invocation touching the same record;
// the vault core performs no locking of its own and relies on its own
// verify-before-mutate ordering for abort safety.
type Ledger interface {
	// Allocate creates the record funded with RECORD_RESERVE drawn from
	// payer. It fails if the record already exists or the payer cannot
	// cover the reserve.
	Allocate(payer, record [32]byte) error

	// Balance returns the current balance of addr, failing if the account
	// does not exist.
	Balance(addr [32]byte) (uint64, error)

	// Credit adds amount to addr, creating the account if needed.
	Credit(addr [32]byte, amount uint64) error

	// Destroy irreversibly deallocates the record and zeroes its balance.
	// Subsequent Balance or Destroy calls for the same address must fail.
	Destroy(record [32]byte) error
}
