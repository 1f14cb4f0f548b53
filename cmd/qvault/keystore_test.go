package main

import (
	"crypto/rand"
	"path/filepath"
	"testing"

	"qvault.dev/node/winternitz"
)

func TestKeystoreRoundtrip(t *testing.T) {
	sk, err := winternitz.GeneratePrivkey(rand.Reader)
	if err != nil {
		t.Fatalf("GeneratePrivkey: %v", err)
	}
	pass := []byte("correct horse battery staple")

	ks, err := newKeystore(sk, pass)
	if err != nil {
		t.Fatalf("newKeystore: %v", err)
	}
	path := filepath.Join(t.TempDir(), "ks.json")
	if err := writeKeystore(path, ks); err != nil {
		t.Fatalf("writeKeystore: %v", err)
	}

	loaded, err := readKeystore(path)
	if err != nil {
		t.Fatalf("readKeystore: %v", err)
	}
	got, err := unwrapPrivkey(loaded, pass)
	if err != nil {
		t.Fatalf("unwrapPrivkey: %v", err)
	}
	if *got != *sk {
		t.Fatalf("unwrapped key differs")
	}

	digest, err := identityDigest(loaded)
	if err != nil {
		t.Fatalf("identityDigest: %v", err)
	}
	if digest != sk.Pubkey().Merklize() {
		t.Fatalf("stored identity digest mismatch")
	}
}

func TestKeystoreWrongPassphraseFails(t *testing.T) {
	sk, err := winternitz.GeneratePrivkey(rand.Reader)
	if err != nil {
		t.Fatalf("GeneratePrivkey: %v", err)
	}
	ks, err := newKeystore(sk, []byte("right"))
	if err != nil {
		t.Fatalf("newKeystore: %v", err)
	}
	if _, err := unwrapPrivkey(ks, []byte("wrong")); err == nil {
		t.Fatalf("wrong passphrase unwrapped the key")
	}
}

func TestLoadSigningKeyMarksSpent(t *testing.T) {
	t.Setenv("QVAULT_PASSPHRASE", "pp")

	sk, err := winternitz.GeneratePrivkey(rand.Reader)
	if err != nil {
		t.Fatalf("GeneratePrivkey: %v", err)
	}
	ks, err := newKeystore(sk, []byte("pp"))
	if err != nil {
		t.Fatalf("newKeystore: %v", err)
	}
	path := filepath.Join(t.TempDir(), "ks.json")
	if err := writeKeystore(path, ks); err != nil {
		t.Fatalf("writeKeystore: %v", err)
	}

	if _, _, err := loadSigningKey(path, false); err != nil {
		t.Fatalf("first loadSigningKey: %v", err)
	}
	if _, _, err := loadSigningKey(path, false); err == nil {
		t.Fatalf("spent keystore signed again without --force")
	}
	if _, _, err := loadSigningKey(path, true); err != nil {
		t.Fatalf("forced loadSigningKey: %v", err)
	}
}
