package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"qvault.dev/node/crypto"
	"qvault.dev/node/ledger/store"
	"qvault.dev/node/node"
)

func main() {
	defaults := node.DefaultConfig()

	configPath := flag.String("config", "", "path to JSON config file")
	network := flag.String("network", defaults.Network, "network name (devnet/testnet/mainnet)")
	dataDir := flag.String("datadir", defaults.DataDir, "node data directory")
	bindAddr := flag.String("bind", defaults.BindAddr, "bind address host:port")
	logLevel := flag.String("log-level", defaults.LogLevel, "log level: debug|info|warn|error")
	maxConns := flag.Int("max-conns", defaults.MaxConns, "max concurrent connections")
	dryRun := flag.Bool("dry-run", false, "print effective config and exit")
	flag.Parse()

	cfg, err := node.LoadConfigFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(2)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "network":
			cfg.Network = *network
		case "datadir":
			cfg.DataDir = *dataDir
		case "bind":
			cfg.BindAddr = *bindAddr
		case "log-level":
			cfg.LogLevel = strings.ToLower(strings.TrimSpace(*logLevel))
		case "max-conns":
			cfg.MaxConns = *maxConns
		}
	})
	if err := node.ValidateConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(2)
	}
	if *dryRun {
		fmt.Printf("network=%s datadir=%s bind=%s log_level=%s max_conns=%d\n",
			cfg.Network, cfg.DataDir, cfg.BindAddr, cfg.LogLevel, cfg.MaxConns)
		return
	}

	db, err := store.Open(cfg.DataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ledger store open failed: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = db.Close() }()

	srv, err := node.NewServer(node.ServerConfig{
		Magic:        node.NetworkMagic(cfg.Network),
		Crypto:       crypto.StdProvider{},
		IdleTimeout:  5 * time.Minute,
		MaxConns:     cfg.MaxConns,
		AllowAirdrop: cfg.Network == "devnet",
	}, db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "server init failed: %v\n", err)
		os.Exit(2)
	}

	ln, err := net.Listen("tcp", cfg.BindAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "listen failed: %v\n", err)
		os.Exit(2)
	}
	fmt.Fprintf(os.Stderr, "qvault-node listening on %s (network=%s)\n", cfg.BindAddr, cfg.Network)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "shutting down")
		_ = srv.Close()
	}()

	if err := srv.Serve(ln); err != nil {
		fmt.Fprintf(os.Stderr, "serve failed: %v\n", err)
		os.Exit(1)
	}
}
