// Package curve wraps secp256k1 scalar and point arithmetic in the shape
// the 2P-ECDSA protocol needs: scalar add/mul, point add/scalar-mult, and
// deterministic compressed serialization, mirroring the helpers
// bnb-chain/tss-lib's crypto/ckd package builds around the same curve.
package curve

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Order is the secp256k1 group order N.
var Order = func() *big.Int {
	n, ok := new(big.Int).SetString("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)
	if !ok {
		panic("curve: invalid secp256k1 order constant")
	}
	return n
}()

// Scalar is an element of Z_N.
type Scalar struct {
	k secp256k1.ModNScalar
}

// RandomScalar returns a cryptographically random non-zero scalar.
func RandomScalar() (*Scalar, error) {
	for {
		var buf [32]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return nil, fmt.Errorf("read random bytes: %w", err)
		}
		s := new(Scalar)
		overflow := s.k.SetBytes(&buf)
		if overflow == 0 && !s.k.IsZero() {
			return s, nil
		}
	}
}

// ScalarFromBigEndian reduces a 32-byte big-endian buffer mod N.
// Returns an error if the reduced value is zero.
func ScalarFromBigEndian(buf []byte) (*Scalar, error) {
	if len(buf) != 32 {
		return nil, errors.New("curve: scalar input must be 32 bytes")
	}
	s := new(Scalar)
	s.k.SetByteSlice(buf)
	if s.k.IsZero() {
		return nil, errors.New("curve: reduced scalar is zero")
	}
	return s, nil
}

// ScalarFromBigInt reduces a big.Int mod N. Returns an error if the result is zero.
func ScalarFromBigInt(v *big.Int) (*Scalar, error) {
	buf := make([]byte, 32)
	new(big.Int).Mod(v, Order).FillBytes(buf)
	return ScalarFromBigEndian(buf)
}

// ScalarFromByte represents a small segment value in [0, 256) as a scalar.
// Unlike ScalarFromBigInt, it permits zero: escrow segment plaintexts are
// individual bytes of a key share and a zero byte is unremarkable.
func ScalarFromByte(v uint8) *Scalar {
	s := new(Scalar)
	s.k.SetInt(uint32(v))
	return s
}

// BigInt returns the scalar's value as a big.Int in [0, N).
func (s *Scalar) BigInt() *big.Int {
	b := s.k.Bytes()
	return new(big.Int).SetBytes(b[:])
}

// Bytes returns the scalar as 32 big-endian bytes.
func (s *Scalar) Bytes() []byte {
	b := s.k.Bytes()
	out := make([]byte, 32)
	copy(out, b[:])
	return out
}

// Add returns s + other mod N.
func (s *Scalar) Add(other *Scalar) *Scalar {
	out := new(Scalar)
	out.k = s.k
	out.k.Add(&other.k)
	return out
}

// Mul returns s * other mod N.
func (s *Scalar) Mul(other *Scalar) *Scalar {
	out := new(Scalar)
	out.k = s.k
	out.k.Mul(&other.k)
	return out
}

// Inverse returns the modular inverse of s mod N.
func (s *Scalar) Inverse() *Scalar {
	out := new(Scalar)
	out.k = s.k
	out.k.InverseNonConst()
	return out
}

// IsZero reports whether s is the additive identity.
func (s *Scalar) IsZero() bool { return s.k.IsZero() }

// ModNScalar exposes the underlying decred scalar for interop with
// signature-construction code in internal/btc and internal/eth.
func (s *Scalar) ModNScalar() *secp256k1.ModNScalar { return &s.k }

// Point is a secp256k1 curve point, always kept in affine form.
type Point struct {
	p secp256k1.JacobianPoint
}

func scalarOne() secp256k1.ModNScalar {
	var one secp256k1.ModNScalar
	one.SetInt(1)
	return one
}

// BasePoint returns the secp256k1 generator G.
func BasePoint() *Point {
	one := scalarOne()
	var result secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&one, &result)
	result.ToAffine()
	return &Point{p: result}
}

// ScalarBaseMult returns s*G.
func ScalarBaseMult(s *Scalar) *Point {
	var result secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&s.k, &result)
	result.ToAffine()
	return &Point{p: result}
}

// ScalarMult returns s*p.
func (p *Point) ScalarMult(s *Scalar) *Point {
	a := p.p
	a.ToAffine()
	var result secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&s.k, &a, &result)
	result.ToAffine()
	return &Point{p: result}
}

// Add returns p + other.
func (p *Point) Add(other *Point) *Point {
	a, b := p.p, other.p
	a.ToAffine()
	b.ToAffine()
	var result secp256k1.JacobianPoint
	secp256k1.AddNonConst(&a, &b, &result)
	result.ToAffine()
	return &Point{p: result}
}

// IsInfinity reports whether p is the point at infinity.
func (p *Point) IsInfinity() bool {
	a := p.p
	a.ToAffine()
	return a.X.IsZero() && a.Y.IsZero()
}

// CompressedBytes returns the 33-byte SEC1-compressed encoding of p.
func (p *Point) CompressedBytes() []byte {
	a := p.p
	a.ToAffine()
	pk := secp256k1.NewPublicKey(&a.X, &a.Y)
	return pk.SerializeCompressed()
}

// UncompressedBytes returns the 65-byte SEC1-uncompressed encoding of p.
func (p *Point) UncompressedBytes() []byte {
	a := p.p
	a.ToAffine()
	pk := secp256k1.NewPublicKey(&a.X, &a.Y)
	return pk.SerializeUncompressed()
}

// PointFromCompressed parses a 33-byte SEC1-compressed point.
func PointFromCompressed(b []byte) (*Point, error) {
	pk, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("curve: parse compressed point: %w", err)
	}
	var jp secp256k1.JacobianPoint
	pk.AsJacobian(&jp)
	jp.ToAffine()
	return &Point{p: jp}, nil
}

// PublicKey returns p as a *secp256k1.PublicKey for interop with btcec/wire.
func (p *Point) PublicKey() *secp256k1.PublicKey {
	a := p.p
	a.ToAffine()
	return secp256k1.NewPublicKey(&a.X, &a.Y)
}
