// Package keyshare defines the 2P-ECDSA key material split between the
// wallet client and the co-signing server, and the BIP32-style child-key
// derivation that updates it. The split mirrors the original system's
// MasterKey2 DTO: a multiplicative share of the joint public key, plus the
// Paillier ciphertext ("handle") of the server's share, which the client
// uses homomorphically during signing without ever learning that share.
package keyshare

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/lindellwallet/client/internal/curve"
	"github.com/lindellwallet/client/internal/primitives"
)

// PublicKeyShare holds the public-side data of a 2P-ECDSA key: the joint
// public key Q = x1*x2*G, the server's public point P1 = x1*G, and the
// client's public point P2 = x2*G.
type PublicKeyShare struct {
	Q  *curve.Point
	P1 *curve.Point
	P2 *curve.Point
}

// PrivateKeyShare holds the client's private share x2 and the server's
// Paillier-encrypted share handle c_key = Enc_server(x1). The client never
// learns x1 and never needs to: c_key lets the server prove statements
// about x1 during signing without revealing it.
type PrivateKeyShare struct {
	X2          *curve.Scalar
	PaillierPub *primitives.PaillierPublicKey
	CKey        *primitives.Ciphertext
}

// MasterKey2 is the client-held representation of a 2P-ECDSA keypair:
// public shares plus the client's half of the private material.
type MasterKey2 struct {
	Public  *PublicKeyShare
	Private *PrivateKeyShare
}

// NewMasterKey2 assembles a MasterKey2 from the client's keygen output and
// the server's public contribution, establishing the multiplicative
// relationship Q = x1*x2*G used throughout signing and derivation.
func NewMasterKey2(x2 *curve.Scalar, p1 *curve.Point, paillierPub *primitives.PaillierPublicKey, cKey *primitives.Ciphertext) *MasterKey2 {
	p2 := curve.ScalarBaseMult(x2)
	q := p1.ScalarMult(x2)
	return &MasterKey2{
		Public: &PublicKeyShare{
			Q:  q,
			P1: p1,
			P2: p2,
		},
		Private: &PrivateKeyShare{
			X2:          x2,
			PaillierPub: paillierPub,
			CKey:        cKey,
		},
	}
}

// ErrInvalidChildIndex is returned for hardened or out-of-range indices;
// this system only derives depth-one, non-hardened children, matching the
// BIP32 subset the wallet facade exposes via the [0, n] address map.
var ErrInvalidChildIndex = errors.New("keyshare: child index must be non-hardened")

const hardenedKeyStart = 0x80000000

// DeriveChildKey computes the BIP32-style non-hardened tweak for child
// index i against the joint public key and chain code, and returns the
// updated MasterKey2: the server's share x1 (and therefore its Paillier
// handle c_key) is unaffected by derivation, so only the client-visible
// fields change — x2' = x2+f, p2' = p2+f*G, Q' = Q+f*P1. This is what lets
// the server validate signing requests against a derived key without
// re-running keygen.
func (mk *MasterKey2) DeriveChildKey(index uint32, chainCode [32]byte) (*MasterKey2, [32]byte, error) {
	if index >= hardenedKeyStart {
		return nil, [32]byte{}, ErrInvalidChildIndex
	}

	f, childChainCode, err := tweak(chainCode, mk.Public.Q, index)
	if err != nil {
		return nil, [32]byte{}, fmt.Errorf("keyshare: derive child %d: %w", index, err)
	}

	x2Prime := mk.Private.X2.Add(f)
	p2Prime := mk.Public.P2.Add(curve.ScalarBaseMult(f))
	qPrime := mk.Public.Q.Add(mk.Public.P1.ScalarMult(f))

	child := &MasterKey2{
		Public: &PublicKeyShare{
			Q:  qPrime,
			P1: mk.Public.P1,
			P2: p2Prime,
		},
		Private: &PrivateKeyShare{
			X2:          x2Prime,
			PaillierPub: mk.Private.PaillierPub,
			CKey:        mk.Private.CKey,
		},
	}
	return child, childChainCode, nil
}

// tweak computes IL = HMAC-SHA512(chainCode, compressed(Q) || be32(index))[:32]
// reduced mod the curve order, and returns the derived child chain code
// (the second half of the HMAC output), grounded on bnb-chain/tss-lib's
// DeriveChildKey.
func tweak(chainCode [32]byte, q *curve.Point, index uint32) (*curve.Scalar, [32]byte, error) {
	data := make([]byte, 33+4)
	copy(data, q.CompressedBytes())
	binary.BigEndian.PutUint32(data[33:], index)

	mac := hmac.New(sha512.New, chainCode[:])
	mac.Write(data)
	digest := mac.Sum(nil)

	il := digest[:32]
	var childChainCode [32]byte
	copy(childChainCode[:], digest[32:])

	f, err := curve.ScalarFromBigEndian(il)
	if err != nil {
		return nil, [32]byte{}, fmt.Errorf("invalid tweak (retry with next index): %w", err)
	}
	return f, childChainCode, nil
}
