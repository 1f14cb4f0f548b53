package vault

import "qvault.dev/node/crypto"

// Dispatch routes a raw protocol request (leading tag byte plus
// fixed-width payload) to the matching transition, together with the
// order-significant destination-reference set. It is the sole entry point;
// the three transitions are otherwise independent of each other.
func Dispatch(p crypto.Provider, l Ledger, refs [][32]byte, request []byte) error {
	if len(request) < 1 {
		return vaulterr(VAULT_ERR_MALFORMED, "request too short for tag byte")
	}
	tag, data := request[0], request[1:]
	switch tag {
	case VAULT_TAG_OPEN:
		return OpenVault(p, l, refs, data)
	case VAULT_TAG_SPLIT:
		return SplitVault(p, l, refs, data)
	case VAULT_TAG_CLOSE:
		return CloseVault(p, l, refs, data)
	default:
		return vaulterr(VAULT_ERR_MALFORMED, "unknown request tag")
	}
}
