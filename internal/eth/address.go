// Package eth assembles and signs Ethereum EIP-1559 transactions against a
// 2P-ECDSA MasterKey2: keccak256-based address derivation plus the
// transaction-params and v-encoding shape the co-signing server expects.
package eth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/lindellwallet/client/internal/curve"
)

// Address derives the 20-byte, 0x-prefixed hex Ethereum address for the
// joint public key q: keccak256(uncompressed_pubkey[1:])[12:].
func Address(q *curve.Point) string {
	uncompressed := q.UncompressedBytes()
	hash := keccak256(uncompressed[1:])
	return fmt.Sprintf("0x%x", hash[12:])
}

// keccak256 is Ethereum's hash function, distinct from NIST SHA3.
func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// NormalizeAddress lower-cases addr for comparison; this wallet does not
// implement EIP-55 checksum casing.
func NormalizeAddress(addr string) string {
	return strings.ToLower(addr)
}
