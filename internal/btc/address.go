// Package btc assembles and signs Bitcoin SegWit (P2WPKH) transactions
// against a 2P-ECDSA MasterKey2, grounded on
// original_source/src/btc/{utils,raw_tx}.rs.
package btc

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // RIPEMD-160 is required by Hash160

	"github.com/lindellwallet/client/internal/curve"
)

// Hash160 is SHA-256 followed by RIPEMD-160, the public-key hash used in
// both legacy and SegWit Bitcoin addresses.
func Hash160(data []byte) []byte {
	sha := sha256.Sum256(data)
	r := ripemd160.New()
	r.Write(sha[:])
	return r.Sum(nil)
}

// Address derives the native SegWit (bech32, P2WPKH) address for the
// public point q under network params, the sole address format this wallet
// produces — mirrors original_source/src/btc/utils.rs's to_bitcoin_address.
func Address(q *curve.Point, params *chaincfg.Params) (*btcutil.AddressWitnessPubKeyHash, error) {
	hash := Hash160(q.CompressedBytes())
	addr, err := btcutil.NewAddressWitnessPubKeyHash(hash, params)
	if err != nil {
		return nil, fmt.Errorf("btc: derive p2wpkh address: %w", err)
	}
	return addr, nil
}
