package vault

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	// VAULT_ERR_MALFORMED covers wrong payload lengths, unknown request
	// tags, and short destination-reference sets.
	VAULT_ERR_MALFORMED ErrorCode = "VAULT_ERR_MALFORMED"

	// VAULT_ERR_UNAUTHORIZED is the single authorization failure: the
	// address derived from the recovered identity does not match the
	// record. Wrong signature, wrong message, and wrong bump all land here.
	VAULT_ERR_UNAUTHORIZED ErrorCode = "VAULT_ERR_UNAUTHORIZED"

	// VAULT_ERR_LEDGER reports a rejection by the host ledger collaborator
	// (allocation, funding, credit, or destruction).
	VAULT_ERR_LEDGER ErrorCode = "VAULT_ERR_LEDGER"
)

type VaultError struct {
	Code ErrorCode
	Msg  string
}

func (e *VaultError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func vaulterr(code ErrorCode, msg string) error {
	return &VaultError{Code: code, Msg: msg}
}

// CodeOf extracts the vault error code from err, or "" if err is not a
// VaultError.
func CodeOf(err error) ErrorCode {
	var ve *VaultError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}
