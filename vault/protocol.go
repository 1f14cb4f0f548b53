package vault

import "encoding/binary"

const (
	VAULT_TAG_OPEN  byte = 0
	VAULT_TAG_SPLIT byte = 1
	VAULT_TAG_CLOSE byte = 2

	ADDRESS_BYTES = 32
	DIGEST_BYTES  = 32

	// WINTERNITZ_SIG_BYTES is the exact encoded size of a one-time
	// signature proof as carried in Split and Close payloads.
	WINTERNITZ_SIG_BYTES = 896

	// Payload sizes after the leading tag byte.
	OPEN_PAYLOAD_BYTES  = DIGEST_BYTES + 1
	SPLIT_PAYLOAD_BYTES = WINTERNITZ_SIG_BYTES + 1 + 8
	CLOSE_PAYLOAD_BYTES = WINTERNITZ_SIG_BYTES + 1

	// Canonical message sizes. The shapes are deliberately distinct per
	// transition so a proof for one transition cannot be replayed as a
	// proof for another.
	SPLIT_MESSAGE_BYTES = 8 + ADDRESS_BYTES + ADDRESS_BYTES
	CLOSE_MESSAGE_BYTES = ADDRESS_BYTES

	// Destination-reference counts, order-significant.
	OPEN_REFS  = 3 // payer, record, allocator
	SPLIT_REFS = 3 // record, split target, refund target
	CLOSE_REFS = 2 // record, refund target
)

// ALLOCATOR_ID is the host allocator collaborator's well-known reference,
// passed as the third Open ref.
var ALLOCATOR_ID = [32]byte{}

// SplitMessage assembles the canonical bytes a Split proof must sign:
// amount (8, LE) || split address || refund address. Field order is part of
// the protocol; verification compares byte-for-byte.
func SplitMessage(amount uint64, split, refund [32]byte) [SPLIT_MESSAGE_BYTES]byte {
	var msg [SPLIT_MESSAGE_BYTES]byte
	binary.LittleEndian.PutUint64(msg[0:8], amount)
	copy(msg[8:40], split[:])
	copy(msg[40:72], refund[:])
	return msg
}

// CloseMessage assembles the canonical bytes a Close proof must sign: the
// refund destination address alone.
func CloseMessage(refund [32]byte) [CLOSE_MESSAGE_BYTES]byte {
	var msg [CLOSE_MESSAGE_BYTES]byte
	copy(msg[:], refund[:])
	return msg
}
