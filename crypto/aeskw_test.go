package crypto

import (
	"bytes"
	"testing"
)

func TestKeyWrapRoundtrip(t *testing.T) {
	kek := bytes.Repeat([]byte{0x11}, 32)
	for _, n := range []int{16, 32, 896} {
		keyIn := bytes.Repeat([]byte{0x5a}, n)
		wrapped, err := KeyWrap(kek, keyIn)
		if err != nil {
			t.Fatalf("KeyWrap(%d): %v", n, err)
		}
		if len(wrapped) != n+8 {
			t.Fatalf("wrapped length %d, want %d", len(wrapped), n+8)
		}
		out, err := KeyUnwrap(kek, wrapped)
		if err != nil {
			t.Fatalf("KeyUnwrap(%d): %v", n, err)
		}
		if !bytes.Equal(out, keyIn) {
			t.Fatalf("roundtrip mismatch at %d bytes", n)
		}
	}
}

func TestKeyUnwrapDetectsTamper(t *testing.T) {
	kek := bytes.Repeat([]byte{0x22}, 32)
	wrapped, err := KeyWrap(kek, bytes.Repeat([]byte{0x33}, 32))
	if err != nil {
		t.Fatalf("KeyWrap: %v", err)
	}
	wrapped[9] ^= 0x01
	if _, err := KeyUnwrap(kek, wrapped); err == nil {
		t.Fatalf("tampered blob unwrapped without error")
	}
}

func TestKeyWrapRejectsBadInputs(t *testing.T) {
	kek := bytes.Repeat([]byte{0x44}, 32)
	if _, err := KeyWrap(kek[:16], bytes.Repeat([]byte{0}, 32)); err == nil {
		t.Fatalf("short kek accepted")
	}
	if _, err := KeyWrap(kek, bytes.Repeat([]byte{0}, 12)); err == nil {
		t.Fatalf("non-multiple-of-8 keyIn accepted")
	}
	if _, err := KeyUnwrap(kek, bytes.Repeat([]byte{0}, 16)); err == nil {
		t.Fatalf("too-short wrapped accepted")
	}
}

func TestStdProviderHashes(t *testing.T) {
	p := StdProvider{}
	a := p.SHA256([]byte("abc"))
	b := p.SHA256([]byte("abc"))
	if a != b {
		t.Fatalf("SHA256 not deterministic")
	}
	if p.SHA3_256([]byte("abc")) == a {
		t.Fatalf("SHA3-256 equals SHA-256 output")
	}
}
