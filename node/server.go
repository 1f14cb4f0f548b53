package node

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"qvault.dev/node/crypto"
	"qvault.dev/node/ledger/store"
	"qvault.dev/node/vault"
)

type ServerConfig struct {
	Magic  uint32
	Crypto crypto.Provider

	// IdleTimeout, if non-zero, sets a read deadline per message to avoid
	// stuck connections.
	IdleTimeout time.Duration

	MaxConns int

	// AllowAirdrop enables the devnet funding faucet command.
	AllowAirdrop bool
}

// Server accepts transport connections and applies each vaultreq against
// the persistent ledger, one store transaction per request. Requests on a
// single connection are processed in order; cross-connection requests that
// touch the same record are serialized by the store's update transaction.
type Server struct {
	cfg ServerConfig
	db  *store.DB

	mu     sync.Mutex
	ln     net.Listener
	closed bool
}

func NewServer(cfg ServerConfig, db *store.DB) (*Server, error) {
	if cfg.Crypto == nil {
		return nil, fmt.Errorf("server: nil crypto provider")
	}
	if db == nil {
		return nil, fmt.Errorf("server: nil ledger store")
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 64
	}
	return &Server{cfg: cfg, db: db}, nil
}

// Serve accepts on ln until Close. It returns nil after a clean Close.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("server: already closed")
	}
	s.ln = ln
	s.mu.Unlock()

	sem := make(chan struct{}, s.cfg.MaxConns)
	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			return err
		}
		sem <- struct{}{}
		go func() {
			defer func() { <-sem }()
			s.handleConn(conn)
		}()
	}
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.ln != nil {
		return s.ln.Close()
	}
	return nil
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	for {
		if s.cfg.IdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		}
		msg, rerr := ReadMessage(conn, s.cfg.Crypto, s.cfg.Magic)
		if rerr != nil {
			if rerr.Disconnect {
				return
			}
			continue
		}
		switch msg.Command {
		case CmdVaultReq:
		case CmdAirdrop:
			if !s.cfg.AllowAirdrop {
				continue
			}
			addr, amount, aerr := DecodeAirdrop(msg.Payload)
			if aerr == nil {
				aerr = s.db.Airdrop(addr, amount)
			}
			if werr := WriteMessage(conn, s.cfg.Crypto, s.cfg.Magic, CmdVaultResp, EncodeResponse(aerr)); werr != nil {
				return
			}
			continue
		default:
			// Unknown commands are dropped, not fatal.
			continue
		}

		refs, request, derr := DecodeRequest(msg.Payload)
		var err error
		if derr != nil {
			err = &vault.VaultError{Code: vault.VAULT_ERR_MALFORMED, Msg: derr.Error()}
		} else {
			err = s.db.Apply(func(l vault.Ledger) error {
				return vault.Dispatch(s.cfg.Crypto, l, refs, request)
			})
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "request rejected: %v\n", err)
		}
		if werr := WriteMessage(conn, s.cfg.Crypto, s.cfg.Magic, CmdVaultResp, EncodeResponse(err)); werr != nil {
			return
		}
	}
}
