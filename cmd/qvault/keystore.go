package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/scrypt"

	"qvault.dev/node/crypto"
	"qvault.dev/node/winternitz"
)

// Keystore for one-time private keys: scrypt passphrase KDF over a random
// salt, AES-256-KW around the 896-byte key. The spent marker is local
// hygiene: once a key has signed anything it must never sign again, even
// if the signed request was rejected.

const keystoreVersion = "QVKSv1"

type KeyStoreV1 struct {
	Version      string `json:"version"`
	IdentityHex  string `json:"identity_digest_hex"`
	WrapAlg      string `json:"wrap_alg"` // "AES-256-KW"
	KDF          string `json:"kdf"`      // "scrypt"
	SaltHex      string `json:"salt_hex"`
	ScryptN      int    `json:"scrypt_n"`
	ScryptR      int    `json:"scrypt_r"`
	ScryptP      int    `json:"scrypt_p"`
	WrappedSKHex string `json:"wrapped_sk_hex"`
	Spent        bool   `json:"spent"`
}

func passphrase() ([]byte, error) {
	p := os.Getenv("QVAULT_PASSPHRASE")
	if p == "" {
		return nil, fmt.Errorf("QVAULT_PASSPHRASE not set")
	}
	return []byte(p), nil
}

func kekFromPassphrase(pass []byte, ks *KeyStoreV1) ([]byte, error) {
	salt, err := hex.DecodeString(ks.SaltHex)
	if err != nil {
		return nil, fmt.Errorf("salt_hex: %w", err)
	}
	return scrypt.Key(pass, salt, ks.ScryptN, ks.ScryptR, ks.ScryptP, 32)
}

func newKeystore(sk *winternitz.Privkey, pass []byte) (*KeyStoreV1, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	ks := &KeyStoreV1{
		Version: keystoreVersion,
		WrapAlg: "AES-256-KW",
		KDF:     "scrypt",
		SaltHex: hex.EncodeToString(salt),
		ScryptN: 1 << 15,
		ScryptR: 8,
		ScryptP: 1,
	}
	kek, err := kekFromPassphrase(pass, ks)
	if err != nil {
		return nil, err
	}
	wrapped, err := crypto.KeyWrap(kek, sk[:])
	if err != nil {
		return nil, err
	}
	ks.WrappedSKHex = hex.EncodeToString(wrapped)

	digest := sk.Pubkey().Merklize()
	ks.IdentityHex = hex.EncodeToString(digest[:])
	return ks, nil
}

func readKeystore(path string) (*KeyStoreV1, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- operator-provided
	if err != nil {
		return nil, err
	}
	var ks KeyStoreV1
	if err := json.Unmarshal(raw, &ks); err != nil {
		return nil, err
	}
	if ks.Version != keystoreVersion {
		return nil, fmt.Errorf("unsupported keystore version: %q", ks.Version)
	}
	if strings.ToUpper(ks.WrapAlg) != "AES-256-KW" {
		return nil, fmt.Errorf("unsupported wrap_alg: %q", ks.WrapAlg)
	}
	if ks.KDF != "scrypt" {
		return nil, fmt.Errorf("unsupported kdf: %q", ks.KDF)
	}
	return &ks, nil
}

func writeKeystore(path string, ks *KeyStoreV1) error {
	b, err := json.Marshal(ks)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o600)
}

func unwrapPrivkey(ks *KeyStoreV1, pass []byte) (*winternitz.Privkey, error) {
	kek, err := kekFromPassphrase(pass, ks)
	if err != nil {
		return nil, err
	}
	wrapped, err := hex.DecodeString(ks.WrappedSKHex)
	if err != nil {
		return nil, fmt.Errorf("wrapped_sk_hex: %w", err)
	}
	raw, err := crypto.KeyUnwrap(kek, wrapped)
	if err != nil {
		return nil, err
	}
	if len(raw) != winternitz.PrivkeyBytes {
		return nil, fmt.Errorf("unwrapped key has wrong length %d", len(raw))
	}
	var sk winternitz.Privkey
	copy(sk[:], raw)
	return &sk, nil
}

func identityDigest(ks *KeyStoreV1) ([32]byte, error) {
	var digest [32]byte
	raw, err := hex.DecodeString(ks.IdentityHex)
	if err != nil || len(raw) != 32 {
		return digest, fmt.Errorf("keystore identity_digest_hex invalid")
	}
	copy(digest[:], raw)
	return digest, nil
}
