// Package config holds the process-wide parameters that should be
// injected rather than hard-coded: the co-signing server endpoint, the
// Paillier ZKP domain-separation salt, and the on-disk paths for wallet,
// backup, and escrow state.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// SaltString is the fixed domain-separation salt the Paillier range and
// zero-knowledge proofs use; both the client and server must agree on it.
// Changing it invalidates every existing key share.
const SaltString = "lindell-2017-2pecdsa-zkp-salt-v1"

// Config holds all configurable parameters for the wallet client.
type Config struct {
	// Endpoint is the co-signing server's base URL (e.g. https://cosigner.example.com).
	Endpoint string
	// AuthToken is the bearer token sent with every co-signing server request.
	AuthToken string
	// UserID is sent alongside AuthToken as the user_id header.
	UserID string
	// RequestTimeout is read from COSIGNER_TIMEOUT. The transport client
	// does not use it; it bounds each round trip with transport.DefaultTimeout.
	RequestTimeout time.Duration

	// BTCMainnet selects mainnet parameters; defaults configure only
	// testnet, so this should stay false outside of explicit operator choice.
	BTCMainnet bool
	// BTCExplorerHost is the BlockCypher-shaped UTXO/broadcast endpoint.
	BTCExplorerHost string

	// ETHChainID is read from ETH_CHAIN_ID. Transaction signing does not use
	// it; v is encoded with the chain id the co-signing server returns in its
	// tx params.
	ETHChainID int64
	// ETHWebsocketURL is the single websocket endpoint balance queries fan out over.
	ETHWebsocketURL string

	// WalletFile, BackupFile, and EscrowFile are the on-disk paths for the
	// persisted wallet, backup blob, and escrow keypair.
	WalletFile string
	BackupFile string
	EscrowFile string
}

// Default returns a Config populated with default, mostly-testnet values.
func Default() Config {
	return Config{
		Endpoint:        "http://localhost:8000",
		RequestTimeout:  30 * time.Second,
		BTCMainnet:      false,
		BTCExplorerHost: "https://api.blockcypher.com/v1/btc/test3",
		ETHChainID:      1,
		ETHWebsocketURL: "wss://localhost:8546",
		WalletFile:      "wallet/wallet.json",
		BackupFile:      "wallet/backup.data",
		EscrowFile:      "escrow/escrow-sk.json",
	}
}

// FromEnv returns a Config populated from environment variables, falling
// back to Default for unset values.
func FromEnv() Config {
	_ = godotenv.Load() // no-op if .env absent; operators may still export real env vars

	cfg := Default()

	if v := os.Getenv("COSIGNER_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("COSIGNER_AUTH_TOKEN"); v != "" {
		cfg.AuthToken = v
	}
	if v := os.Getenv("COSIGNER_USER_ID"); v != "" {
		cfg.UserID = v
	}
	if v := os.Getenv("COSIGNER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
	if v := os.Getenv("BTC_MAINNET"); v == "true" {
		cfg.BTCMainnet = true
	}
	if v := os.Getenv("BTC_EXPLORER_HOST"); v != "" {
		cfg.BTCExplorerHost = v
	}
	if v := os.Getenv("ETH_CHAIN_ID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.ETHChainID = n
		}
	}
	if v := os.Getenv("ETH_WEBSOCKET_URL"); v != "" {
		cfg.ETHWebsocketURL = v
	}
	if v := os.Getenv("WALLET_FILE"); v != "" {
		cfg.WalletFile = v
	}
	if v := os.Getenv("BACKUP_FILE"); v != "" {
		cfg.BackupFile = v
	}
	if v := os.Getenv("ESCROW_FILE"); v != "" {
		cfg.EscrowFile = v
	}

	return cfg
}
