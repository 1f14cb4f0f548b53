package vault

import (
	"crypto/subtle"

	"qvault.dev/node/crypto"
)

// PROGRAM_ID is the fixed protocol identifier mixed into every address
// derivation. It must match between Open-time derivation and the
// re-verification done by Split and Close; changing it invalidates every
// existing record address.
var PROGRAM_ID = [32]byte{
	0x0f, 0x1e, 0x6b, 0x14, 0x21, 0xc0, 0x4a, 0x07, 0x04, 0x31, 0x26, 0x5c, 0x19, 0xc5, 0xbb, 0xee,
	0x19, 0x92, 0xba, 0xe8, 0xaf, 0xd1, 0xcd, 0x07, 0x8e, 0xf8, 0xaf, 0x70, 0x47, 0xdc, 0x11, 0xf7,
}

// DERIVE_DOMAIN_TAG separates record-address derivation from any other use
// of the same hash in the surrounding system.
const DERIVE_DOMAIN_TAG = "ProgramDerivedAddress"

// DeriveAddress computes the record address owned by the identity behind
// digest: SHA256(digest || bump || PROGRAM_ID || DERIVE_DOMAIN_TAG).
// The derivation is one-way; the address reveals nothing about the identity.
func DeriveAddress(p crypto.Provider, digest [32]byte, bump byte) [32]byte {
	preimage := make([]byte, 0, 32+1+32+len(DERIVE_DOMAIN_TAG))
	preimage = append(preimage, digest[:]...)
	preimage = append(preimage, bump)
	preimage = append(preimage, PROGRAM_ID[:]...)
	preimage = append(preimage, DERIVE_DOMAIN_TAG...)
	return p.SHA256(preimage)
}

// VerifyAddress reports whether candidate is the address derived from
// (digest, bump). This equivalence check is the sole authorization gate for
// every transition; there is no separate signature-validity channel.
func VerifyAddress(p crypto.Provider, candidate [32]byte, digest [32]byte, bump byte) bool {
	derived := DeriveAddress(p, digest, bump)
	return subtle.ConstantTimeCompare(derived[:], candidate[:]) == 1
}
