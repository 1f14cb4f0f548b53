package node

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"unicode"

	"qvault.dev/node/crypto"
	"qvault.dev/node/vault"
)

const (
	// TransportPrefixBytes is the fixed header length for every transport
	// message: magic (4, BE) || command (12, NUL-padded ASCII) ||
	// payload_length (4, LE) || checksum (4).
	TransportPrefixBytes = 24
	CommandBytes         = 12

	// MaxMsgBytes caps payload length. The largest protocol request (a
	// Split with three refs) is just over 1 KiB.
	MaxMsgBytes = 4096

	CmdVaultReq  = "vaultreq"
	CmdVaultResp = "vaultresp"

	// CmdAirdrop is a host-side funding faucet, honored only on devnet.
	CmdAirdrop = "airdrop"
)

type Message struct {
	Magic   uint32
	Command string
	Payload []byte
}

// ReadError conveys how the caller should treat a malformed transport
// message: drop it, or drop the connection.
type ReadError struct {
	Err        error
	Disconnect bool
}

func (e *ReadError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func checksum4(p crypto.Provider, payload []byte) [4]byte {
	d := p.SHA3_256(payload)
	var out [4]byte
	copy(out[:], d[:4])
	return out
}

func encodeCommand(cmd string) ([CommandBytes]byte, error) {
	var out [CommandBytes]byte
	if cmd == "" {
		return out, fmt.Errorf("wire: empty command")
	}
	if len(cmd) > CommandBytes {
		return out, fmt.Errorf("wire: command too long")
	}
	for i := 0; i < len(cmd); i++ {
		c := cmd[i]
		// Command is ASCII; reject control chars and non-ASCII.
		if c >= 0x80 || c == 0x00 || !unicode.IsPrint(rune(c)) {
			return out, fmt.Errorf("wire: command contains non-printable ASCII")
		}
		out[i] = c
	}
	return out, nil
}

func decodeCommand(b [CommandBytes]byte) (string, error) {
	n := CommandBytes
	for i := 0; i < CommandBytes; i++ {
		if b[i] == 0x00 {
			n = i
			break
		}
	}
	for i := n; i < CommandBytes; i++ {
		if b[i] != 0x00 {
			return "", fmt.Errorf("wire: command not NUL-right-padded")
		}
	}
	cmd := string(b[:n])
	if cmd == "" {
		return "", fmt.Errorf("wire: empty command")
	}
	for i := 0; i < len(cmd); i++ {
		c := cmd[i]
		if c >= 0x80 || !unicode.IsPrint(rune(c)) {
			return "", fmt.Errorf("wire: command contains non-printable ASCII")
		}
	}
	return cmd, nil
}

// WriteMessage writes a single transport message to w.
func WriteMessage(w io.Writer, p crypto.Provider, magic uint32, command string, payload []byte) error {
	if p == nil {
		return fmt.Errorf("wire: nil crypto provider")
	}
	cmd12, err := encodeCommand(command)
	if err != nil {
		return err
	}
	if uint64(len(payload)) > MaxMsgBytes {
		return fmt.Errorf("wire: payload too large")
	}
	c4 := checksum4(p, payload)

	var hdr [TransportPrefixBytes]byte
	binary.BigEndian.PutUint32(hdr[0:4], magic)
	copy(hdr[4:16], cmd12[:])
	binary.LittleEndian.PutUint32(hdr[16:20], uint32(len(payload)))
	copy(hdr[20:24], c4[:])

	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err = w.Write(payload)
	return err
}

// ReadMessage reads exactly one transport message from r, handling partial
// reads. Magic mismatch, oversize length, and truncation disconnect;
// checksum mismatch drops the message only.
func ReadMessage(r io.Reader, p crypto.Provider, expectedMagic uint32) (*Message, *ReadError) {
	if p == nil {
		return nil, &ReadError{Err: fmt.Errorf("wire: nil crypto provider"), Disconnect: true}
	}

	var hdr [TransportPrefixBytes]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		// EOF while reading prefix: connection died.
		return nil, &ReadError{Err: err, Disconnect: true}
	}

	magic := binary.BigEndian.Uint32(hdr[0:4])
	if magic != expectedMagic {
		return nil, &ReadError{Err: fmt.Errorf("wire: magic mismatch"), Disconnect: true}
	}

	var cmdBytes [CommandBytes]byte
	copy(cmdBytes[:], hdr[4:16])
	cmd, err := decodeCommand(cmdBytes)
	if err != nil {
		return nil, &ReadError{Err: err, Disconnect: false}
	}

	payloadLen := binary.LittleEndian.Uint32(hdr[16:20])
	if payloadLen > MaxMsgBytes {
		// Do not attempt to read attacker-controlled payload length.
		return nil, &ReadError{Err: fmt.Errorf("wire: payload_length exceeds MaxMsgBytes"), Disconnect: true}
	}

	var expectedC4 [4]byte
	copy(expectedC4[:], hdr[20:24])

	payload := make([]byte, int(payloadLen))
	if payloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, &ReadError{Err: err, Disconnect: true}
		}
	}

	computedC4 := checksum4(p, payload)
	if !bytes.Equal(expectedC4[:], computedC4[:]) {
		return nil, &ReadError{Err: fmt.Errorf("wire: checksum mismatch"), Disconnect: false}
	}

	return &Message{Magic: magic, Command: cmd, Payload: payload}, nil
}

// EncodeRequest packs a vault request for the vaultreq payload:
// ref_count (1) || refs (32 each) || protocol request (tag || body).
func EncodeRequest(refs [][32]byte, request []byte) ([]byte, error) {
	if len(refs) > 0xff {
		return nil, fmt.Errorf("wire: too many refs")
	}
	out := make([]byte, 0, 1+len(refs)*32+len(request))
	out = append(out, byte(len(refs)))
	for _, ref := range refs {
		out = append(out, ref[:]...)
	}
	out = append(out, request...)
	return out, nil
}

// DecodeRequest unpacks a vaultreq payload into the destination-reference
// set and the raw protocol request.
func DecodeRequest(payload []byte) ([][32]byte, []byte, error) {
	if len(payload) < 1 {
		return nil, nil, fmt.Errorf("wire: request payload too short")
	}
	n := int(payload[0])
	if len(payload) < 1+n*32 {
		return nil, nil, fmt.Errorf("wire: request payload truncated refs")
	}
	refs := make([][32]byte, n)
	for i := 0; i < n; i++ {
		copy(refs[i][:], payload[1+i*32:1+(i+1)*32])
	}
	return refs, payload[1+n*32:], nil
}

// EncodeAirdrop packs an airdrop payload: address (32) || amount (8, LE).
func EncodeAirdrop(addr [32]byte, amount uint64) []byte {
	out := make([]byte, 40)
	copy(out[:32], addr[:])
	binary.LittleEndian.PutUint64(out[32:], amount)
	return out
}

// DecodeAirdrop unpacks an airdrop payload.
func DecodeAirdrop(payload []byte) ([32]byte, uint64, error) {
	if len(payload) != 40 {
		return [32]byte{}, 0, fmt.Errorf("wire: airdrop payload must be 40 bytes")
	}
	var addr [32]byte
	copy(addr[:], payload[:32])
	return addr, binary.LittleEndian.Uint64(payload[32:]), nil
}

// Response payload: status (1) || error code (ASCII, empty on success).
const (
	RespStatusOK  byte = 0
	RespStatusErr byte = 1
)

func EncodeResponse(err error) []byte {
	if err == nil {
		return []byte{RespStatusOK}
	}
	code := vault.CodeOf(err)
	if code == "" {
		code = vault.VAULT_ERR_LEDGER
	}
	out := make([]byte, 0, 1+len(code))
	out = append(out, RespStatusErr)
	out = append(out, code...)
	return out
}

// DecodeResponse returns nil for a success response and the error code
// string otherwise.
func DecodeResponse(payload []byte) (vault.ErrorCode, error) {
	if len(payload) < 1 {
		return "", fmt.Errorf("wire: empty response payload")
	}
	switch payload[0] {
	case RespStatusOK:
		return "", nil
	case RespStatusErr:
		return vault.ErrorCode(payload[1:]), nil
	default:
		return "", fmt.Errorf("wire: unknown response status %d", payload[0])
	}
}
