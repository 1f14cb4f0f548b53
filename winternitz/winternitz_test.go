package winternitz

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func genKey(t *testing.T) *Privkey {
	t.Helper()
	sk, err := GeneratePrivkey(rand.Reader)
	if err != nil {
		t.Fatalf("GeneratePrivkey: %v", err)
	}
	return sk
}

func TestSignRecoverRoundtrip(t *testing.T) {
	sk := genKey(t)
	pk := sk.Pubkey()
	msg := []byte("the canonical bytes under proof")

	sig := sk.Sign(msg)
	recovered := sig.RecoverPubkey(msg)
	if recovered != pk {
		t.Fatalf("recovered pubkey differs from signer's")
	}
	if recovered.Merklize() != pk.Merklize() {
		t.Fatalf("digest differs after recovery")
	}
}

func TestRecoverWrongMessageDiverges(t *testing.T) {
	sk := genKey(t)
	pk := sk.Pubkey()

	sig := sk.Sign([]byte("message one"))
	recovered := sig.RecoverPubkey([]byte("message two"))
	if recovered == pk {
		t.Fatalf("wrong message recovered the signer's pubkey")
	}
	if recovered.Merklize() == pk.Merklize() {
		t.Fatalf("wrong message produced the signer's digest")
	}
}

func TestRecoverTamperedSignatureDiverges(t *testing.T) {
	sk := genKey(t)
	pk := sk.Pubkey()
	msg := []byte("payload")

	sig := sk.Sign(msg)
	for _, off := range []int{0, 31, 32, 500, SignatureBytes - 1} {
		tampered := sig
		tampered[off] ^= 0x80
		if tampered.RecoverPubkey(msg) == pk {
			t.Fatalf("tampered byte %d still recovers pubkey", off)
		}
	}
}

func TestDigitsChecksumCouplesChains(t *testing.T) {
	// Messages with different digests must differ in at least one digit,
	// and the checksum digits must reflect the message digits.
	d1 := digits([]byte("a"))
	d2 := digits([]byte("b"))
	if d1 == d2 {
		t.Fatalf("distinct messages produced identical digit vectors")
	}

	var sum uint16
	for i := 0; i < MessageDigits; i++ {
		sum += uint16(ChainDepth - d1[i])
	}
	got := uint16(d1[MessageDigits])<<8 | uint16(d1[MessageDigits+1])
	if got != sum {
		t.Fatalf("checksum digits %d != computed %d", got, sum)
	}
}

func TestSizes(t *testing.T) {
	if Chains != 28 || SignatureBytes != 896 {
		t.Fatalf("parameter drift: chains=%d sig=%d", Chains, SignatureBytes)
	}
	sk := genKey(t)
	sig := sk.Sign([]byte("x"))
	if len(sig) != 896 {
		t.Fatalf("signature length %d", len(sig))
	}
}

func TestMerklizeSensitiveToEveryChain(t *testing.T) {
	sk := genKey(t)
	pk := sk.Pubkey()
	base := pk.Merklize()

	for chainIdx := 0; chainIdx < Chains; chainIdx++ {
		mutated := pk
		mutated[chainIdx*HashBytes] ^= 0x01
		if mutated.Merklize() == base {
			t.Fatalf("digest insensitive to chain %d", chainIdx)
		}
	}
}

func TestGenerateDrawsFromReader(t *testing.T) {
	sk1 := genKey(t)
	sk2 := genKey(t)
	if bytes.Equal(sk1[:], sk2[:]) {
		t.Fatalf("two generated keys are identical")
	}
}
