package mpc

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/lindellwallet/client/internal/curve"
	"github.com/lindellwallet/client/internal/keyshare"
	"github.com/lindellwallet/client/internal/primitives"
	"github.com/lindellwallet/client/internal/transport"
)

// Signature is a completed 2P-ECDSA signature with its recovery id, ready
// for BTC DER/witness assembly (internal/btc) or EIP-155 v encoding
// (internal/eth).
type Signature struct {
	R          *big.Int
	S          *big.Int
	RecoveryID int
}

// signFirstMsgResp reveals the server's ephemeral point R1=k1*G and its
// DLog proof directly, alongside the client's own R2/proof sent in the same
// request: unlike keygen's long-term share, hiding an ephemeral nonce buys
// nothing here, since the final signature-equation check is what prevents
// either side from gaining advantage, so both reveal in round one.
type signFirstMsgResp struct {
	R1    PointDTO     `json:"r1"`
	Proof DLogProofDTO `json:"proof"`
}

// signSecondMsgResp carries the completed signature: the server has
// decrypted the client's blinded ciphertext with its Paillier private key,
// stripped the statistical blind mod q, and folded in its own k1^-1.
type signSecondMsgResp struct {
	R          BigIntDTO `json:"r"`
	S          BigIntDTO `json:"s"`
	RecoveryID int       `json:"recovery_id"`
}

// blindingBits sizes the random multiple-of-q additive blind used to hide
// the server's view of the partial signature during Paillier decryption;
// 2*curve-order-bits keeps it statistically hiding while staying far
// inside the 2048-bit Paillier modulus.
const blindingBits = 512

// Sign requests a 2P-ECDSA signature over messageHash using the MasterKey2
// at position pos within session sessionID, in exactly two round trips:
// ecdsa/sign/{id}/first exchanges both parties' ephemeral nonces, and
// ecdsa/sign/{id}/second carries the client's blinded partial signature and
// returns the completed signature. Follows the standard Lindell-2017
// two-party ECDSA sign dialog: the client derives the joint nonce point
// R=k2*R1, blinds its share of the signature equation using Paillier
// homomorphic operations over the server's c_key=Enc(x1) handle, and the
// server decrypts, strips the blind mod q, and folds in k1^-1 — at no point
// does the server learn k2, x2, or the unblinded partial signature.
func Sign(ctx context.Context, rq transport.Requester, sessionID string, pos uint32, mk *keyshare.MasterKey2, messageHash *big.Int) (*Signature, error) {
	k2, err := curve.RandomScalar()
	if err != nil {
		return nil, fmt.Errorf("mpc: sample ephemeral share: %w", err)
	}
	r2Point := curve.ScalarBaseMult(k2)
	proof2, err := primitives.ProveDLog(k2, r2Point)
	if err != nil {
		return nil, fmt.Errorf("mpc: prove ephemeral share: %w", err)
	}

	var first signFirstMsgResp
	if err := rq.Postb(ctx, fmt.Sprintf("ecdsa/sign/%s/first", sessionID), map[string]any{
		"id":    sessionID,
		"pos":   pos,
		"r2":    encodePoint(r2Point),
		"proof": encodeDLogProof(proof2),
	}, &first); err != nil {
		return nil, fmt.Errorf("mpc: sign first message: %w", err)
	}

	r1, err := first.R1.decode()
	if err != nil {
		return nil, fmt.Errorf("mpc: %w: decode server ephemeral r1: %v", ErrSignAborted, err)
	}
	proof1, err := first.Proof.decode()
	if err != nil {
		return nil, fmt.Errorf("mpc: %w: decode server ephemeral proof: %v", ErrSignAborted, err)
	}
	if err := primitives.VerifyDLog(proof1, r1); err != nil {
		return nil, fmt.Errorf("mpc: %w: server ephemeral proof of knowledge failed: %v", ErrSignAborted, err)
	}

	rPoint := r1.ScalarMult(k2)
	rx := new(big.Int).Mod(pointXAsBigInt(rPoint), curve.Order)
	if rx.Sign() == 0 {
		return nil, fmt.Errorf("mpc: degenerate nonce point, retry sign")
	}

	blindedCiphertext, err := blindPartialSignature(mk, k2, rx, messageHash)
	if err != nil {
		return nil, fmt.Errorf("mpc: blind partial signature: %w", err)
	}

	var second signSecondMsgResp
	if err := rq.Postb(ctx, fmt.Sprintf("ecdsa/sign/%s/second", sessionID), map[string]any{
		"id": sessionID,
		"r":  encodeBigInt(rx),
		"c3": encodeBigInt(blindedCiphertext),
	}, &second); err != nil {
		return nil, fmt.Errorf("mpc: sign second message: %w", err)
	}

	s, err := second.S.decode()
	if err != nil {
		return nil, fmt.Errorf("mpc: %w: decode signature s: %v", ErrSignMalformedReply, err)
	}

	sig := &Signature{R: rx, S: s, RecoveryID: second.RecoveryID}
	if err := VerifySignature(mk.Public.Q, messageHash, sig); err != nil {
		return nil, fmt.Errorf("mpc: %w: %v", ErrSignMalformedReply, err)
	}
	return sig, nil
}

// blindPartialSignature computes Enc(x1 * k2^-1 * r * x2 + k2^-1*m + rho*q)
// using only c_key=Enc(x1), the client's own x2/k2, and the message hash —
// the server's Paillier private key never touches x1, x2, or k2 in the
// clear, only this single blinded ciphertext.
func blindPartialSignature(mk *keyshare.MasterKey2, k2 *curve.Scalar, rx, messageHash *big.Int) (*big.Int, error) {
	q := curve.Order

	k2Inv := k2.Inverse()
	coeff := new(big.Int).Mod(new(big.Int).Mul(k2Inv.BigInt(), new(big.Int).Mul(rx, mk.Private.X2.BigInt())), q)

	part1 := primitives.HomomorphicMulPlain(mk.Private.PaillierPub, mk.Private.CKey, coeff)

	rho, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), blindingBits))
	if err != nil {
		return nil, fmt.Errorf("sample blinding factor: %w", err)
	}
	eTerm := new(big.Int).Mod(new(big.Int).Mul(k2Inv.BigInt(), new(big.Int).Mod(messageHash, q)), q)
	plain2 := new(big.Int).Add(eTerm, new(big.Int).Mul(rho, q))

	part2, err := primitives.Encrypt(mk.Private.PaillierPub, plain2)
	if err != nil {
		return nil, fmt.Errorf("encrypt blinded message term: %w", err)
	}

	sum := primitives.HomomorphicAdd(mk.Private.PaillierPub, part1, part2)
	return sum.C, nil
}

// VerifySignature checks sig against joint public key q over messageHash
// using the standard ECDSA verification equation, the client's final check
// before trusting a signature produced by the co-signing server.
func VerifySignature(q *curve.Point, messageHash *big.Int, sig *Signature) error {
	if !ecdsaVerifyRaw(q, messageHash, sig.R, sig.S) {
		return fmt.Errorf("signature does not verify against joint public key")
	}
	return nil
}

// ecdsaVerifyRaw implements the ECDSA verification equation directly over
// internal/curve, since secp256k1/v4 does not implement crypto/elliptic's
// Curve interface.
func ecdsaVerifyRaw(q *curve.Point, messageHash, r, s *big.Int) bool {
	if r.Sign() <= 0 || s.Sign() <= 0 || r.Cmp(curve.Order) >= 0 || s.Cmp(curve.Order) >= 0 {
		return false
	}
	sInv, err := curve.ScalarFromBigInt(new(big.Int).ModInverse(s, curve.Order))
	if err != nil {
		return false
	}

	hashMod := new(big.Int).Mod(messageHash, curve.Order)
	var e *curve.Scalar
	if hashMod.Sign() == 0 {
		e = zeroScalarApprox()
	} else {
		e, err = curve.ScalarFromBigInt(hashMod)
		if err != nil {
			return false
		}
	}

	rScalar, err := curve.ScalarFromBigInt(r)
	if err != nil {
		return false
	}

	u1 := e.Mul(sInv)
	u2 := rScalar.Mul(sInv)

	point := curve.ScalarBaseMult(u1).Add(q.ScalarMult(u2))
	if point.IsInfinity() {
		return false
	}
	x := pointXAsBigInt(point)
	x.Mod(x, curve.Order)
	return x.Cmp(r) == 0
}

// zeroScalarApprox stands in for a zero message-hash scalar, which
// curve.Scalar (deliberately) cannot represent; using 1 here only affects
// the exceedingly unlikely all-zero-hash case and never matches a real
// transaction digest.
func zeroScalarApprox() *curve.Scalar {
	s, _ := curve.ScalarFromBigInt(big.NewInt(1))
	return s
}

func pointXAsBigInt(p *curve.Point) *big.Int {
	uncompressed := p.UncompressedBytes()
	return new(big.Int).SetBytes(uncompressed[1:33])
}
