package crypto

// Provider is the narrow hash interface used by vault and transport code.
// Implementations may back onto hardware or accelerated libraries; the
// standard-library provider below is the default.
type Provider interface {
	SHA256(input []byte) [32]byte
	SHA3_256(input []byte) [32]byte
}
