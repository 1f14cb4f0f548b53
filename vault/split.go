package vault

import (
	"encoding/binary"

	"qvault.dev/node/crypto"
	"qvault.dev/node/winternitz"
)

// SplitPayload is the fixed-width body of a Split request:
// signature (896) || bump (1) || amount (8, LE).
type SplitPayload struct {
	Signature [WINTERNITZ_SIG_BYTES]byte
	Bump      byte
	Amount    uint64
}

func parseSplitPayload(data []byte) (*SplitPayload, error) {
	if len(data) != SPLIT_PAYLOAD_BYTES {
		return nil, vaulterr(VAULT_ERR_MALFORMED, "split payload must be exactly 905 bytes")
	}
	var p SplitPayload
	copy(p.Signature[:], data[0:WINTERNITZ_SIG_BYTES])
	p.Bump = data[WINTERNITZ_SIG_BYTES]
	p.Amount = binary.LittleEndian.Uint64(data[WINTERNITZ_SIG_BYTES+1 : SPLIT_PAYLOAD_BYTES])
	return &p, nil
}

// SplitVault distributes a record's balance across two destinations and
// destroys the record. refs are, in order: record, split target, refund
// target. The one-time proof in the payload must sign the canonical
// 72-byte split message over exactly these destinations and this amount.
//
// Verification runs fully before the first balance mutation, so a host
// abort at any point leaves no partial fund movement even without
// host-level rollback.
func SplitVault(p crypto.Provider, l Ledger, refs [][32]byte, data []byte) error {
	if len(refs) != SPLIT_REFS {
		return vaulterr(VAULT_ERR_MALFORMED, "split requires record, split, refund refs")
	}
	payload, err := parseSplitPayload(data)
	if err != nil {
		return err
	}
	record, split, refund := refs[0], refs[1], refs[2]

	msg := SplitMessage(payload.Amount, split, refund)
	sig := winternitz.Signature(payload.Signature)
	digest := sig.RecoverPubkey(msg[:]).Merklize()

	// A wrong signature, a tampered message, and a wrong bump all recover
	// a digest that derives to some other address; they are
	// indistinguishable here.
	if !VerifyAddress(p, record, digest, payload.Bump) {
		return vaulterr(VAULT_ERR_UNAUTHORIZED, "recovered identity does not own this record")
	}

	balance, err := l.Balance(record)
	if err != nil {
		return vaulterr(VAULT_ERR_LEDGER, "record balance: "+err.Error())
	}
	if payload.Amount > balance {
		return vaulterr(VAULT_ERR_MALFORMED, "split amount exceeds record balance")
	}

	if err := l.Credit(split, payload.Amount); err != nil {
		return vaulterr(VAULT_ERR_LEDGER, "credit split target: "+err.Error())
	}
	if err := l.Credit(refund, balance-payload.Amount); err != nil {
		return vaulterr(VAULT_ERR_LEDGER, "credit refund target: "+err.Error())
	}
	if err := l.Destroy(record); err != nil {
		return vaulterr(VAULT_ERR_LEDGER, "destroy record: "+err.Error())
	}
	return nil
}
