package vault

import "qvault.dev/node/crypto"

// OpenPayload is the fixed-width body of an Open request:
// identity digest (32) || bump (1).
type OpenPayload struct {
	Digest [DIGEST_BYTES]byte
	Bump   byte
}

func parseOpenPayload(data []byte) (*OpenPayload, error) {
	if len(data) != OPEN_PAYLOAD_BYTES {
		return nil, vaulterr(VAULT_ERR_MALFORMED, "open payload must be exactly 33 bytes")
	}
	var p OpenPayload
	copy(p.Digest[:], data[0:32])
	p.Bump = data[32]
	return &p, nil
}

// OpenVault creates a new custody record. refs are, in order: payer,
// record, allocator. The record address must derive from the supplied
// identity digest and bump; otherwise anyone could claim an address for an
// identity they do not control. No signature proof is required here:
// ownership is established by choosing the identity whose digest derives
// the address, and the derivation is one-way.
func OpenVault(p crypto.Provider, l Ledger, refs [][32]byte, data []byte) error {
	if len(refs) != OPEN_REFS {
		return vaulterr(VAULT_ERR_MALFORMED, "open requires payer, record, allocator refs")
	}
	payload, err := parseOpenPayload(data)
	if err != nil {
		return err
	}

	payer, record := refs[0], refs[1]
	if !VerifyAddress(p, record, payload.Digest, payload.Bump) {
		return vaulterr(VAULT_ERR_UNAUTHORIZED, "record address does not derive from identity digest")
	}

	if err := l.Allocate(payer, record); err != nil {
		return vaulterr(VAULT_ERR_LEDGER, "allocate record: "+err.Error())
	}
	return nil
}
