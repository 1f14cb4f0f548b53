package main

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"time"

	"qvault.dev/node/crypto"
	"qvault.dev/node/node"
	"qvault.dev/node/vault"
	"qvault.dev/node/winternitz"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: qvault <command> [flags]

commands:
  keygen    generate a one-time keypair and write a keystore
  address   print the record address for a keystore and bump
  open      submit an Open request for a keystore's record
  fund      devnet airdrop to an address
  split     sign and submit a Split request
  close     sign and submit a Close request

QVAULT_PASSPHRASE must be set for keygen, split, and close.`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "keygen":
		err = cmdKeygen(os.Args[2:])
	case "address":
		err = cmdAddress(os.Args[2:])
	case "open":
		err = cmdOpen(os.Args[2:])
	case "fund":
		err = cmdFund(os.Args[2:])
	case "split":
		err = cmdSplit(os.Args[2:])
	case "close":
		err = cmdClose(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "qvault %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func decodeAddr32(s, name string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 32 {
		return out, fmt.Errorf("%s must be 32 bytes of hex", name)
	}
	copy(out[:], raw)
	return out, nil
}

func dial(addr, network string) (*node.Client, error) {
	return node.Dial(addr, crypto.StdProvider{}, node.NetworkMagic(network), 30*time.Second)
}

func submit(addr, network string, refs [][32]byte, request []byte) error {
	if addr == "" {
		// No node given: print the wire payload for offline submission.
		payload, err := node.EncodeRequest(refs, request)
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(payload))
		return nil
	}
	c, err := dial(addr, network)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()
	code, err := c.Submit(refs, request)
	if err != nil {
		return err
	}
	if code != "" {
		return fmt.Errorf("rejected: %s", code)
	}
	fmt.Println("ok")
	return nil
}

func cmdKeygen(argv []string) error {
	fs := flag.NewFlagSet("qvault keygen", flag.ExitOnError)
	out := fs.String("out", "", "output keystore json path")
	_ = fs.Parse(argv)
	if *out == "" {
		return fmt.Errorf("missing required flag: --out")
	}
	pass, err := passphrase()
	if err != nil {
		return err
	}

	sk, err := winternitz.GeneratePrivkey(rand.Reader)
	if err != nil {
		return err
	}
	ks, err := newKeystore(sk, pass)
	if err != nil {
		return err
	}
	if err := writeKeystore(*out, ks); err != nil {
		return err
	}
	fmt.Printf("identity_digest=%s\n", ks.IdentityHex)
	return nil
}

func cmdAddress(argv []string) error {
	fs := flag.NewFlagSet("qvault address", flag.ExitOnError)
	ksPath := fs.String("keystore", "", "keystore json path")
	bump := fs.Uint("bump", 255, "derivation bump (0..255)")
	_ = fs.Parse(argv)
	if *ksPath == "" {
		return fmt.Errorf("missing required flag: --keystore")
	}
	if *bump > 255 {
		return fmt.Errorf("bump must be 0..255")
	}
	ks, err := readKeystore(*ksPath)
	if err != nil {
		return err
	}
	digest, err := identityDigest(ks)
	if err != nil {
		return err
	}
	record := vault.DeriveAddress(crypto.StdProvider{}, digest, byte(*bump))
	fmt.Println(hex.EncodeToString(record[:]))
	return nil
}

func cmdOpen(argv []string) error {
	fs := flag.NewFlagSet("qvault open", flag.ExitOnError)
	ksPath := fs.String("keystore", "", "keystore json path")
	bump := fs.Uint("bump", 255, "derivation bump (0..255)")
	payerHex := fs.String("payer", "", "payer address (32 bytes hex)")
	nodeAddr := fs.String("node", "", "node address host:port (omit to print the request)")
	network := fs.String("network", "devnet", "network name")
	_ = fs.Parse(argv)
	if *ksPath == "" || *payerHex == "" {
		return fmt.Errorf("missing required flags: --keystore --payer")
	}
	if *bump > 255 {
		return fmt.Errorf("bump must be 0..255")
	}
	ks, err := readKeystore(*ksPath)
	if err != nil {
		return err
	}
	digest, err := identityDigest(ks)
	if err != nil {
		return err
	}
	payer, err := decodeAddr32(*payerHex, "payer")
	if err != nil {
		return err
	}

	record := vault.DeriveAddress(crypto.StdProvider{}, digest, byte(*bump))
	request := make([]byte, 0, 1+vault.OPEN_PAYLOAD_BYTES)
	request = append(request, vault.VAULT_TAG_OPEN)
	request = append(request, digest[:]...)
	request = append(request, byte(*bump))

	refs := [][32]byte{payer, record, vault.ALLOCATOR_ID}
	if err := submit(*nodeAddr, *network, refs, request); err != nil {
		return err
	}
	fmt.Printf("record=%s\n", hex.EncodeToString(record[:]))
	return nil
}

func cmdFund(argv []string) error {
	fs := flag.NewFlagSet("qvault fund", flag.ExitOnError)
	toHex := fs.String("to", "", "destination address (32 bytes hex)")
	amount := fs.Uint64("amount", 0, "amount in base units")
	nodeAddr := fs.String("node", "", "node address host:port")
	network := fs.String("network", "devnet", "network name")
	_ = fs.Parse(argv)
	if *toHex == "" || *nodeAddr == "" || *amount == 0 {
		return fmt.Errorf("missing required flags: --to --node --amount")
	}
	to, err := decodeAddr32(*toHex, "to")
	if err != nil {
		return err
	}
	c, err := dial(*nodeAddr, *network)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()
	code, err := c.Airdrop(to, *amount)
	if err != nil {
		return err
	}
	if code != "" {
		return fmt.Errorf("rejected: %s", code)
	}
	fmt.Println("ok")
	return nil
}

// loadSigningKey unwraps the one-time private key and marks the keystore
// spent before any signature bytes leave this process. A rejected request
// still burns the key: the witness material may already be public.
func loadSigningKey(ksPath string, force bool) (*winternitz.Privkey, *KeyStoreV1, error) {
	ks, err := readKeystore(ksPath)
	if err != nil {
		return nil, nil, err
	}
	if ks.Spent && !force {
		return nil, nil, fmt.Errorf("keystore is marked spent; a one-time key must not sign twice (--force overrides)")
	}
	pass, err := passphrase()
	if err != nil {
		return nil, nil, err
	}
	sk, err := unwrapPrivkey(ks, pass)
	if err != nil {
		return nil, nil, err
	}
	ks.Spent = true
	if err := writeKeystore(ksPath, ks); err != nil {
		return nil, nil, fmt.Errorf("mark keystore spent: %w", err)
	}
	return sk, ks, nil
}

func cmdSplit(argv []string) error {
	fs := flag.NewFlagSet("qvault split", flag.ExitOnError)
	ksPath := fs.String("keystore", "", "keystore json path")
	bump := fs.Uint("bump", 255, "derivation bump (0..255)")
	splitHex := fs.String("split", "", "split destination address (32 bytes hex)")
	refundHex := fs.String("refund", "", "refund destination address (32 bytes hex)")
	amount := fs.Uint64("amount", 0, "amount for the split destination")
	nodeAddr := fs.String("node", "", "node address host:port (omit to print the request)")
	network := fs.String("network", "devnet", "network name")
	force := fs.Bool("force", false, "sign even if the keystore is marked spent")
	_ = fs.Parse(argv)
	if *ksPath == "" || *splitHex == "" || *refundHex == "" {
		return fmt.Errorf("missing required flags: --keystore --split --refund")
	}
	if *bump > 255 {
		return fmt.Errorf("bump must be 0..255")
	}
	split, err := decodeAddr32(*splitHex, "split")
	if err != nil {
		return err
	}
	refund, err := decodeAddr32(*refundHex, "refund")
	if err != nil {
		return err
	}

	sk, ks, err := loadSigningKey(*ksPath, *force)
	if err != nil {
		return err
	}
	digest, err := identityDigest(ks)
	if err != nil {
		return err
	}
	record := vault.DeriveAddress(crypto.StdProvider{}, digest, byte(*bump))

	msg := vault.SplitMessage(*amount, split, refund)
	sig := sk.Sign(msg[:])

	request := make([]byte, 0, 1+vault.SPLIT_PAYLOAD_BYTES)
	request = append(request, vault.VAULT_TAG_SPLIT)
	request = append(request, sig[:]...)
	request = append(request, byte(*bump))
	request = binary.LittleEndian.AppendUint64(request, *amount)

	refs := [][32]byte{record, split, refund}
	return submit(*nodeAddr, *network, refs, request)
}

func cmdClose(argv []string) error {
	fs := flag.NewFlagSet("qvault close", flag.ExitOnError)
	ksPath := fs.String("keystore", "", "keystore json path")
	bump := fs.Uint("bump", 255, "derivation bump (0..255)")
	refundHex := fs.String("refund", "", "refund destination address (32 bytes hex)")
	nodeAddr := fs.String("node", "", "node address host:port (omit to print the request)")
	network := fs.String("network", "devnet", "network name")
	force := fs.Bool("force", false, "sign even if the keystore is marked spent")
	_ = fs.Parse(argv)
	if *ksPath == "" || *refundHex == "" {
		return fmt.Errorf("missing required flags: --keystore --refund")
	}
	if *bump > 255 {
		return fmt.Errorf("bump must be 0..255")
	}
	refund, err := decodeAddr32(*refundHex, "refund")
	if err != nil {
		return err
	}

	sk, ks, err := loadSigningKey(*ksPath, *force)
	if err != nil {
		return err
	}
	digest, err := identityDigest(ks)
	if err != nil {
		return err
	}
	record := vault.DeriveAddress(crypto.StdProvider{}, digest, byte(*bump))

	msg := vault.CloseMessage(refund)
	sig := sk.Sign(msg[:])

	request := make([]byte, 0, 1+vault.CLOSE_PAYLOAD_BYTES)
	request = append(request, vault.VAULT_TAG_CLOSE)
	request = append(request, sig[:]...)
	request = append(request, byte(*bump))

	refs := [][32]byte{record, refund}
	return submit(*nodeAddr, *network, refs, request)
}
