package vault

import (
	"qvault.dev/node/crypto"
	"qvault.dev/node/winternitz"
)

// ClosePayload is the fixed-width body of a Close request:
// signature (896) || bump (1).
type ClosePayload struct {
	Signature [WINTERNITZ_SIG_BYTES]byte
	Bump      byte
}

func parseClosePayload(data []byte) (*ClosePayload, error) {
	if len(data) != CLOSE_PAYLOAD_BYTES {
		return nil, vaulterr(VAULT_ERR_MALFORMED, "close payload must be exactly 897 bytes")
	}
	var p ClosePayload
	copy(p.Signature[:], data[0:WINTERNITZ_SIG_BYTES])
	p.Bump = data[WINTERNITZ_SIG_BYTES]
	return &p, nil
}

// CloseVault sweeps a record's full balance to one destination and destroys
// the record. refs are, in order: record, refund target. The proof signs
// the 32-byte close message: the refund address alone. No partial
// distribution is possible in this transition.
func CloseVault(p crypto.Provider, l Ledger, refs [][32]byte, data []byte) error {
	if len(refs) != CLOSE_REFS {
		return vaulterr(VAULT_ERR_MALFORMED, "close requires record, refund refs")
	}
	payload, err := parseClosePayload(data)
	if err != nil {
		return err
	}
	record, refund := refs[0], refs[1]

	msg := CloseMessage(refund)
	sig := winternitz.Signature(payload.Signature)
	digest := sig.RecoverPubkey(msg[:]).Merklize()

	if !VerifyAddress(p, record, digest, payload.Bump) {
		return vaulterr(VAULT_ERR_UNAUTHORIZED, "recovered identity does not own this record")
	}

	balance, err := l.Balance(record)
	if err != nil {
		return vaulterr(VAULT_ERR_LEDGER, "record balance: "+err.Error())
	}
	if err := l.Credit(refund, balance); err != nil {
		return vaulterr(VAULT_ERR_LEDGER, "credit refund target: "+err.Error())
	}
	if err := l.Destroy(record); err != nil {
		return vaulterr(VAULT_ERR_LEDGER, "destroy record: "+err.Error())
	}
	return nil
}
