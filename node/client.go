package node

import (
	"fmt"
	"net"
	"time"

	"qvault.dev/node/crypto"
	"qvault.dev/node/vault"
)

// Client submits vault requests over the framed transport. Used by the CLI
// and tests; one Client per connection, not safe for concurrent use.
type Client struct {
	conn    net.Conn
	crypto  crypto.Provider
	magic   uint32
	timeout time.Duration
}

func Dial(addr string, p crypto.Provider, magic uint32, timeout time.Duration) (*Client, error) {
	if p == nil {
		return nil, fmt.Errorf("client: nil crypto provider")
	}
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	return &Client{conn: conn, crypto: p, magic: magic, timeout: timeout}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Airdrop requests devnet funding for addr. The server drops the command
// silently outside devnet, which surfaces here as a read timeout.
func (c *Client) Airdrop(addr [32]byte, amount uint64) (vault.ErrorCode, error) {
	if c.timeout > 0 {
		_ = c.conn.SetDeadline(time.Now().Add(c.timeout))
	}
	if err := WriteMessage(c.conn, c.crypto, c.magic, CmdAirdrop, EncodeAirdrop(addr, amount)); err != nil {
		return "", fmt.Errorf("client: write: %w", err)
	}
	msg, rerr := ReadMessage(c.conn, c.crypto, c.magic)
	if rerr != nil {
		return "", fmt.Errorf("client: read: %w", rerr.Err)
	}
	if msg.Command != CmdVaultResp {
		return "", fmt.Errorf("client: unexpected command %q", msg.Command)
	}
	return DecodeResponse(msg.Payload)
}

// Submit sends one protocol request and waits for the response. A non-""
// returned code is the server-side vault rejection.
func (c *Client) Submit(refs [][32]byte, request []byte) (vault.ErrorCode, error) {
	payload, err := EncodeRequest(refs, request)
	if err != nil {
		return "", err
	}
	if c.timeout > 0 {
		_ = c.conn.SetDeadline(time.Now().Add(c.timeout))
	}
	if err := WriteMessage(c.conn, c.crypto, c.magic, CmdVaultReq, payload); err != nil {
		return "", fmt.Errorf("client: write: %w", err)
	}
	msg, rerr := ReadMessage(c.conn, c.crypto, c.magic)
	if rerr != nil {
		return "", fmt.Errorf("client: read: %w", rerr.Err)
	}
	if msg.Command != CmdVaultResp {
		return "", fmt.Errorf("client: unexpected command %q", msg.Command)
	}
	return DecodeResponse(msg.Payload)
}
