package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/sha3"
)

// StdProvider is the software hash provider. It makes no FIPS claims.
type StdProvider struct{}

func (StdProvider) SHA256(input []byte) [32]byte {
	return sha256.Sum256(input)
}

func (StdProvider) SHA3_256(input []byte) [32]byte {
	h := sha3.New256()
	_, _ = h.Write(input)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
