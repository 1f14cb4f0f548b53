// Package winternitz implements the hash-chain one-time signature scheme
// the vault protocol authenticates with.
//
// A key signs exactly one message. Producing a signature reveals
// intermediate chain values, so an observer of one signature can forge
// signatures over related messages; callers must treat a key as burned on
// first use. The vault protocol compensates by destroying the custody
// record in the same invocation that consumes the proof.
//
// Parameters: w = 256 over a SHA-256 message digest truncated to 26 bytes,
// plus a 2-byte checksum of the inverted digits, for 28 chains of 32-byte
// values. Keys and signatures are 28 * 32 = 896 bytes.
package winternitz

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	HashBytes = 32

	MessageDigits  = 26
	ChecksumDigits = 2
	Chains         = MessageDigits + ChecksumDigits

	// ChainDepth is the maximum number of hash applications per chain
	// (digit values run 0..255).
	ChainDepth = 255

	PrivkeyBytes   = Chains * HashBytes
	PubkeyBytes    = Chains * HashBytes
	SignatureBytes = Chains * HashBytes
)

type Privkey [PrivkeyBytes]byte

type Pubkey [PubkeyBytes]byte

type Signature [SignatureBytes]byte

// GeneratePrivkey draws a fresh one-time private key from r. Ownership of
// the corresponding record lasts only until the key's single signature is
// spent.
func GeneratePrivkey(r io.Reader) (*Privkey, error) {
	var sk Privkey
	if _, err := io.ReadFull(r, sk[:]); err != nil {
		return nil, fmt.Errorf("winternitz: generate privkey: %w", err)
	}
	return &sk, nil
}

// digits maps a message to its 28 chain digits: the first 26 bytes of
// SHA-256(msg), then a 2-byte big-endian checksum of the inverted message
// digits. The checksum makes every digit increase in some chain impossible
// without decreasing another, which hash chains cannot express, so a
// signature cannot be bumped to a different message.
func digits(msg []byte) [Chains]byte {
	h := sha256.Sum256(msg)

	var d [Chains]byte
	copy(d[:MessageDigits], h[:MessageDigits])

	var sum uint16
	for i := 0; i < MessageDigits; i++ {
		sum += uint16(ChainDepth - d[i])
	}
	binary.BigEndian.PutUint16(d[MessageDigits:], sum)
	return d
}

// chain applies SHA-256 to a 32-byte chain value n times.
func chain(v [HashBytes]byte, n int) [HashBytes]byte {
	for i := 0; i < n; i++ {
		v = sha256.Sum256(v[:])
	}
	return v
}

func (sk *Privkey) chunk(i int) [HashBytes]byte {
	var c [HashBytes]byte
	copy(c[:], sk[i*HashBytes:(i+1)*HashBytes])
	return c
}

// Pubkey derives the public key: every chain walked to its full depth.
func (sk *Privkey) Pubkey() Pubkey {
	var pk Pubkey
	for i := 0; i < Chains; i++ {
		end := chain(sk.chunk(i), ChainDepth)
		copy(pk[i*HashBytes:], end[:])
	}
	return pk
}

// Sign produces the one-time signature of msg: chain i walked d_i steps
// from the private chunk. Calling Sign more than once per key, on
// different messages, forfeits the scheme's security.
func (sk *Privkey) Sign(msg []byte) Signature {
	d := digits(msg)
	var sig Signature
	for i := 0; i < Chains; i++ {
		step := chain(sk.chunk(i), int(d[i]))
		copy(sig[i*HashBytes:], step[:])
	}
	return sig
}

// RecoverPubkey walks each signature chunk the remaining ChainDepth - d_i
// steps. For the signed message this reproduces the signer's public key;
// for any other message or a tampered signature it yields a different key.
// Recovery is the verification primitive: callers compare a digest of the
// result against an expected identity.
func (sig Signature) RecoverPubkey(msg []byte) Pubkey {
	d := digits(msg)
	var pk Pubkey
	for i := 0; i < Chains; i++ {
		var c [HashBytes]byte
		copy(c[:], sig[i*HashBytes:(i+1)*HashBytes])
		end := chain(c, ChainDepth-int(d[i]))
		copy(pk[i*HashBytes:], end[:])
	}
	return pk
}

// Merklize compresses the public key's 28 chain ends to a 32-byte identity
// digest by pairwise hash folding. An odd node is promoted to the next
// level unchanged.
func (pk Pubkey) Merklize() [HashBytes]byte {
	level := make([][HashBytes]byte, Chains)
	for i := 0; i < Chains; i++ {
		copy(level[i][:], pk[i*HashBytes:(i+1)*HashBytes])
	}
	for len(level) > 1 {
		next := make([][HashBytes]byte, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			var pair [2 * HashBytes]byte
			copy(pair[:HashBytes], level[i][:])
			copy(pair[HashBytes:], level[i+1][:])
			next = append(next, sha256.Sum256(pair[:]))
		}
		if len(level)%2 == 1 {
			next = append(next, level[len(level)-1])
		}
		level = next
	}
	return level[0]
}
