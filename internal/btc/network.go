package btc

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
)

// Network resolves a network name to its chaincfg.Params. Only testnet is
// configured by default; mainnet is accepted for completeness but never
// exercised by this wallet's own defaults.
func Network(name string) (*chaincfg.Params, error) {
	switch name {
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	default:
		return nil, fmt.Errorf("btc: unknown network %q", name)
	}
}
