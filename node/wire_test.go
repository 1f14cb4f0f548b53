package node

import (
	"bytes"
	"encoding/binary"
	"testing"

	"qvault.dev/node/crypto"
	"qvault.dev/node/vault"
)

const testMagic uint32 = 0x51564431

func TestMessageRoundtrip(t *testing.T) {
	p := crypto.StdProvider{}
	payload := bytes.Repeat([]byte{0xab}, 905)

	var buf bytes.Buffer
	if err := WriteMessage(&buf, p, testMagic, CmdVaultReq, payload); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	msg, rerr := ReadMessage(&buf, p, testMagic)
	if rerr != nil {
		t.Fatalf("ReadMessage: %v", rerr)
	}
	if msg.Command != CmdVaultReq || !bytes.Equal(msg.Payload, payload) {
		t.Fatalf("roundtrip mismatch: cmd=%q len=%d", msg.Command, len(msg.Payload))
	}
}

func TestReadMessageMagicMismatchDisconnects(t *testing.T) {
	p := crypto.StdProvider{}
	var buf bytes.Buffer
	if err := WriteMessage(&buf, p, testMagic, CmdVaultReq, nil); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	_, rerr := ReadMessage(&buf, p, testMagic+1)
	if rerr == nil || !rerr.Disconnect {
		t.Fatalf("magic mismatch: %+v", rerr)
	}
}

func TestReadMessageChecksumMismatchDrops(t *testing.T) {
	p := crypto.StdProvider{}
	var buf bytes.Buffer
	if err := WriteMessage(&buf, p, testMagic, CmdVaultReq, []byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	raw := buf.Bytes()
	raw[len(raw)-1] ^= 0xff // flip a payload byte, checksum now stale
	_, rerr := ReadMessage(bytes.NewReader(raw), p, testMagic)
	if rerr == nil || rerr.Disconnect {
		t.Fatalf("checksum mismatch should drop, not disconnect: %+v", rerr)
	}
}

func TestReadMessageOversizeDisconnects(t *testing.T) {
	p := crypto.StdProvider{}
	var hdr [TransportPrefixBytes]byte
	binary.BigEndian.PutUint32(hdr[0:4], testMagic)
	copy(hdr[4:16], []byte(CmdVaultReq))
	binary.LittleEndian.PutUint32(hdr[16:20], MaxMsgBytes+1)
	_, rerr := ReadMessage(bytes.NewReader(hdr[:]), p, testMagic)
	if rerr == nil || !rerr.Disconnect {
		t.Fatalf("oversize length: %+v", rerr)
	}
}

func TestReadMessageTruncationDisconnects(t *testing.T) {
	p := crypto.StdProvider{}
	var buf bytes.Buffer
	if err := WriteMessage(&buf, p, testMagic, CmdVaultReq, bytes.Repeat([]byte{7}, 64)); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	raw := buf.Bytes()[:buf.Len()-10]
	_, rerr := ReadMessage(bytes.NewReader(raw), p, testMagic)
	if rerr == nil || !rerr.Disconnect {
		t.Fatalf("truncation: %+v", rerr)
	}
}

func TestRequestEncodeDecode(t *testing.T) {
	refs := make([][32]byte, 3)
	refs[0][0], refs[1][0], refs[2][0] = 1, 2, 3
	request := []byte{vault.VAULT_TAG_CLOSE, 0xaa, 0xbb}

	payload, err := EncodeRequest(refs, request)
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	gotRefs, gotReq, err := DecodeRequest(payload)
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if len(gotRefs) != 3 || gotRefs[2] != refs[2] || !bytes.Equal(gotReq, request) {
		t.Fatalf("request roundtrip mismatch")
	}

	if _, _, err := DecodeRequest(nil); err == nil {
		t.Fatalf("empty payload accepted")
	}
	if _, _, err := DecodeRequest([]byte{5, 0x01}); err == nil {
		t.Fatalf("truncated refs accepted")
	}
}

func TestResponseEncodeDecode(t *testing.T) {
	code, err := DecodeResponse(EncodeResponse(nil))
	if err != nil || code != "" {
		t.Fatalf("success response: code=%q err=%v", code, err)
	}

	verr := &vault.VaultError{Code: vault.VAULT_ERR_UNAUTHORIZED, Msg: "nope"}
	code, err = DecodeResponse(EncodeResponse(verr))
	if err != nil || code != vault.VAULT_ERR_UNAUTHORIZED {
		t.Fatalf("error response: code=%q err=%v", code, err)
	}

	if _, err := DecodeResponse(nil); err == nil {
		t.Fatalf("empty response accepted")
	}
	if _, err := DecodeResponse([]byte{9}); err == nil {
		t.Fatalf("unknown status accepted")
	}
}

func TestAirdropEncodeDecode(t *testing.T) {
	var a [32]byte
	a[7] = 0x77
	addr, amount, err := DecodeAirdrop(EncodeAirdrop(a, 5_000_000_000))
	if err != nil || addr != a || amount != 5_000_000_000 {
		t.Fatalf("airdrop roundtrip: %v", err)
	}
	if _, _, err := DecodeAirdrop([]byte{1, 2}); err == nil {
		t.Fatalf("short airdrop payload accepted")
	}
}
