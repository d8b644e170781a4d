package primitives

import (
	"crypto/sha256"
	"errors"

	"github.com/lindellwallet/client/internal/curve"
)

// DLogProof is a non-interactive Schnorr proof of knowledge of the discrete
// log x of a public point y = x*G, using Fiat-Shamir over SHA-256.
type DLogProof struct {
	R *curve.Point
	S *curve.Scalar
}

// ProveDLog proves knowledge of x for y = x*G.
func ProveDLog(x *curve.Scalar, y *curve.Point) (*DLogProof, error) {
	k, err := curve.RandomScalar()
	if err != nil {
		return nil, err
	}
	r := curve.ScalarBaseMult(k)

	e := dlogChallenge(r, y)
	s := k.Add(e.Mul(x))

	return &DLogProof{R: r, S: s}, nil
}

// VerifyDLog verifies a DLogProof against the claimed public point y.
func VerifyDLog(proof *DLogProof, y *curve.Point) error {
	e := dlogChallenge(proof.R, y)

	lhs := curve.ScalarBaseMult(proof.S)
	rhs := proof.R.Add(y.ScalarMult(e))

	if string(lhs.CompressedBytes()) != string(rhs.CompressedBytes()) {
		return errors.New("primitives: dlog proof verification failed")
	}
	return nil
}

func dlogChallenge(r, y *curve.Point) *curve.Scalar {
	h := sha256.New()
	h.Write(r.CompressedBytes())
	h.Write(y.CompressedBytes())
	digest := h.Sum(nil)

	e, err := curve.ScalarFromBigEndian(digest)
	if err != nil {
		// SHA-256 output reducing to exactly zero mod N happens with
		// negligible probability; fall back to a fixed non-zero challenge
		// rather than propagate an error through a non-erroring API.
		digest[31] ^= 0x01
		e, _ = curve.ScalarFromBigEndian(digest)
	}
	return e
}
