package primitives

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	"github.com/lindellwallet/client/internal/curve"
)

// curveOrderBits is the bit length of the secp256k1 group order, used to
// size the statistical-hiding nonce in ProvePaillierKey.
const curveOrderBits = 256

// paillierProofSlackBits is the extra bit width added on top of
// curveOrderBits when sampling the proof's nonce, giving the PDL-with-slack
// technique enough room to statistically hide the witness while still
// bounding the response tightly enough to reject an out-of-range plaintext.
const paillierProofSlackBits = 128

// PaillierKeyProof proves, without revealing x or the Paillier randomness r,
// that ciphertext = Enc_pk(x; r) and p1 = x*G for the same x — the
// PDL-with-slack technique from Lindell's two-party ECDSA protocol, binding
// a Paillier ciphertext to a committed EC discrete log via a single
// unreduced integer response that satisfies both group equations at once.
type PaillierKeyProof struct {
	A *curve.Point
	B *big.Int
	Z *big.Int
	W *big.Int
}

// ProvePaillierKey builds a PaillierKeyProof that ciphertext (encrypted
// with randomness r) encrypts the discrete log x of p1. salt domain-
// separates the Fiat-Shamir challenge so a proof produced for one protocol
// step can't be replayed against another.
func ProvePaillierKey(pk *PaillierPublicKey, ciphertext *Ciphertext, r *big.Int, x *curve.Scalar, p1 *curve.Point, salt string) (*PaillierKeyProof, error) {
	kBound := new(big.Int).Lsh(big.NewInt(1), curveOrderBits+paillierProofSlackBits)
	k, err := rand.Int(rand.Reader, kBound)
	if err != nil {
		return nil, fmt.Errorf("primitives: sample paillier proof nonce: %w", err)
	}
	kScalar, err := curve.ScalarFromBigInt(k)
	if err != nil {
		return nil, fmt.Errorf("primitives: paillier proof nonce reduced to zero: %w", err)
	}
	a := curve.ScalarBaseMult(kScalar)

	rho, err := rand.Int(rand.Reader, pk.N)
	if err != nil {
		return nil, fmt.Errorf("primitives: sample paillier proof randomness: %w", err)
	}
	bCt, err := EncryptWithRandomness(pk, k, rho)
	if err != nil {
		return nil, fmt.Errorf("primitives: encrypt paillier proof nonce: %w", err)
	}

	e := paillierProofChallenge(salt, pk, ciphertext.C, p1, a, bCt.C)
	eBig := e.BigInt()

	z := new(big.Int).Add(k, new(big.Int).Mul(eBig, x.BigInt()))

	w := new(big.Int).Exp(r, eBig, pk.N)
	w.Mul(w, rho)
	w.Mod(w, pk.N)

	return &PaillierKeyProof{A: a, B: bCt.C, Z: z, W: w}, nil
}

// VerifyPaillierKey checks proof against ciphertext and p1, rejecting
// either a mismatched EC/Paillier pair or a response outside the range a
// genuine x < curve order could have produced. salt must match whatever
// salt ProvePaillierKey used.
func VerifyPaillierKey(pk *PaillierPublicKey, ciphertext *Ciphertext, p1 *curve.Point, proof *PaillierKeyProof, salt string) error {
	e := paillierProofChallenge(salt, pk, ciphertext.C, p1, proof.A, proof.B)
	bound := new(big.Int).Lsh(big.NewInt(1), 2*curveOrderBits+paillierProofSlackBits+1)
	if proof.Z.Sign() < 0 || proof.Z.Cmp(bound) >= 0 {
		return errors.New("primitives: paillier key proof response out of range")
	}

	zScalar, err := curve.ScalarFromBigInt(proof.Z)
	if err != nil {
		return fmt.Errorf("primitives: reduce paillier proof response: %w", err)
	}
	lhsEC := curve.ScalarBaseMult(zScalar)
	rhsEC := proof.A.Add(p1.ScalarMult(e))
	if string(lhsEC.CompressedBytes()) != string(rhsEC.CompressedBytes()) {
		return errors.New("primitives: paillier key proof EC-side check failed")
	}

	candidate, err := EncryptWithRandomness(pk, proof.Z, proof.W)
	if err != nil {
		return fmt.Errorf("primitives: recompute paillier proof ciphertext: %w", err)
	}
	eBig := e.BigInt()
	expected := new(big.Int).Exp(ciphertext.C, eBig, pk.NSq)
	expected.Mul(expected, proof.B)
	expected.Mod(expected, pk.NSq)

	if candidate.C.Cmp(expected) != 0 {
		return errors.New("primitives: paillier key proof ciphertext-side check failed")
	}
	return nil
}

func paillierProofChallenge(salt string, pk *PaillierPublicKey, ciphertext *big.Int, p1, a *curve.Point, b *big.Int) *curve.Scalar {
	h := sha256.New()
	h.Write([]byte(salt))
	h.Write(pk.N.Bytes())
	h.Write(ciphertext.Bytes())
	h.Write(p1.CompressedBytes())
	h.Write(a.CompressedBytes())
	h.Write(b.Bytes())
	digest := h.Sum(nil)

	e, err := curve.ScalarFromBigEndian(digest)
	if err != nil {
		digest[31] ^= 0x01
		e, _ = curve.ScalarFromBigEndian(digest)
	}
	return e
}
