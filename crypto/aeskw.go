package crypto

import (
	"crypto/aes"
	"errors"
)

// AES-256 Key Wrap (RFC 3394 / NIST SP 800-38F), used by the keystore to
// wrap one-time private keys at rest.

var kwIV = [8]byte{0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6}

// KeyWrap wraps key material under kek using AES-KW. kek must be 32 bytes.
// keyIn must be 16..4096 bytes and a multiple of 8.
func KeyWrap(kek, keyIn []byte) ([]byte, error) {
	if len(kek) != 32 {
		return nil, errors.New("aeskw: kek must be 32 bytes (AES-256)")
	}
	if len(keyIn) < 16 || len(keyIn) > 4096 || len(keyIn)%8 != 0 {
		return nil, errors.New("aeskw: keyIn must be 16..4096 bytes and multiple of 8")
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	n := len(keyIn) / 8
	r := make([][8]byte, n)
	for i := 0; i < n; i++ {
		copy(r[i][:], keyIn[i*8:(i+1)*8])
	}
	a := kwIV

	var b [16]byte
	for j := 0; j < 6; j++ {
		for i := 0; i < n; i++ {
			copy(b[0:8], a[:])
			copy(b[8:16], r[i][:])
			block.Encrypt(b[:], b[:])
			t := uint64(n*j + (i + 1))
			for k := 0; k < 8; k++ {
				a[k] = b[k] ^ byte(t>>(56-8*k))
			}
			copy(r[i][:], b[8:16])
		}
	}

	out := make([]byte, 0, 8+len(keyIn))
	out = append(out, a[:]...)
	for i := 0; i < n; i++ {
		out = append(out, r[i][:]...)
	}
	return out, nil
}

// KeyUnwrap reverses KeyWrap and verifies the RFC 3394 integrity value.
// wrapped must be 24..4104 bytes and a multiple of 8.
func KeyUnwrap(kek, wrapped []byte) ([]byte, error) {
	if len(kek) != 32 {
		return nil, errors.New("aeskw: kek must be 32 bytes (AES-256)")
	}
	if len(wrapped) < 24 || len(wrapped) > 4104 || len(wrapped)%8 != 0 {
		return nil, errors.New("aeskw: wrapped must be 24..4104 bytes and multiple of 8")
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	n := (len(wrapped) / 8) - 1
	var a [8]byte
	copy(a[:], wrapped[0:8])
	r := make([][8]byte, n)
	for i := 0; i < n; i++ {
		copy(r[i][:], wrapped[(i+1)*8:(i+2)*8])
	}

	var b [16]byte
	for j := 5; j >= 0; j-- {
		for i := n - 1; i >= 0; i-- {
			t := uint64(n*j + (i + 1))
			var aXor [8]byte
			copy(aXor[:], a[:])
			for k := 0; k < 8; k++ {
				aXor[k] ^= byte(t >> (56 - 8*k))
			}
			copy(b[0:8], aXor[:])
			copy(b[8:16], r[i][:])
			block.Decrypt(b[:], b[:])
			copy(a[:], b[0:8])
			copy(r[i][:], b[8:16])
		}
	}

	if a != kwIV {
		return nil, errors.New("aeskw: integrity check failed")
	}

	out := make([]byte, 0, n*8)
	for i := 0; i < n; i++ {
		out = append(out, r[i][:]...)
	}
	return out, nil
}
