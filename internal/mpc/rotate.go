package mpc

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/lindellwallet/client/internal/config"
	"github.com/lindellwallet/client/internal/curve"
	"github.com/lindellwallet/client/internal/keyshare"
	"github.com/lindellwallet/client/internal/primitives"
	"github.com/lindellwallet/client/internal/transport"
)

// rotateFirstMsgResp carries the server's commitment to its half of the
// joint rotation-factor coin flip (coin_flip_p1_first), not yet revealed.
type rotateFirstMsgResp struct {
	Commitment CommitmentDTO `json:"commitment"`
}

// rotateSecondMsgResp reveals the server's seed (coin_flip_p1_second) and
// carries RotationParty1Message1: the server's new Paillier-encrypted share
// handle for x1' = x1*r1, plus a PaillierKeyProof binding it to the rotated
// public point p1' = r1*p1.
type rotateSecondMsgResp struct {
	Seed          string              `json:"seed"`
	CKey          BigIntDTO           `json:"c_key_new"`
	PaillierProof PaillierKeyProofDTO `json:"paillier_key_proof"`
}

// RotatePrivateShare re-randomizes both parties' shares while preserving
// the joint public key Q, in exactly two round trips: ecdsa/rotate/{id}/first
// (server commits to its coin-flip seed) and ecdsa/rotate/{id}/second (the
// client reveals its own seed in the clear as the request body, and the
// server's reply both reveals its seed and delivers the re-encrypted
// share), grounded on original_source/src/ecdsa/rotate.rs. The joint
// rotation factor r1 is the XOR-combined coin flip, reduced to a scalar;
// x1' = x1*r1, x2' = x2*r1^-1, so Q is invariant: x1'*x2' = x1*x2.
func RotatePrivateShare(ctx context.Context, rq transport.Requester, sessionID string, mk *keyshare.MasterKey2) (*keyshare.MasterKey2, error) {
	var first rotateFirstMsgResp
	if err := rq.Postb(ctx, fmt.Sprintf("ecdsa/rotate/%s/first", sessionID), map[string]string{"id": sessionID}, &first); err != nil {
		return nil, fmt.Errorf("mpc: rotate first message: %w", err)
	}
	peerCommitment, err := first.Commitment.decode()
	if err != nil {
		return nil, fmt.Errorf("mpc: %w: decode server rotation commitment: %v", ErrRotationAborted, err)
	}

	_, local, err := primitives.CoinFlipFirstRound()
	if err != nil {
		return nil, fmt.Errorf("mpc: start rotation coin flip: %w", err)
	}
	reveal := primitives.CoinFlipReveal(local)

	var second rotateSecondMsgResp
	if err := rq.Postb(ctx, fmt.Sprintf("ecdsa/rotate/%s/second", sessionID), map[string]any{
		"id":   sessionID,
		"seed": hex.EncodeToString(reveal.Seed[:]),
	}, &second); err != nil {
		return nil, fmt.Errorf("mpc: rotate second message: %w", err)
	}

	seedBytes, err := hex.DecodeString(second.Seed)
	if err != nil || len(seedBytes) != 32 {
		return nil, fmt.Errorf("mpc: %w: decode server rotation seed", ErrRotationAborted)
	}
	var peerSeed [32]byte
	copy(peerSeed[:], seedBytes)

	peerCommitFirst := &primitives.CoinFlipFirstMessage{Commitment: peerCommitment.Hash}
	joint, err := primitives.CoinFlipFinalize(local, peerCommitFirst, &primitives.CoinFlipSecondMessage{Seed: peerSeed})
	if err != nil {
		return nil, fmt.Errorf("mpc: %w: rotation seed reveal does not match commitment: %v", ErrRotationInvalidProof, err)
	}
	r1, err := curve.ScalarFromBigEndian(joint[:])
	if err != nil {
		return nil, fmt.Errorf("mpc: %w: joint rotation factor reduced to zero: %v", ErrRotationAborted, err)
	}

	cKeyVal, err := second.CKey.decode()
	if err != nil {
		return nil, fmt.Errorf("mpc: %w: decode rotated c_key: %v", ErrRotationAborted, err)
	}
	cKeyNew := &primitives.Ciphertext{C: cKeyVal}

	r2 := r1.Inverse()
	x2Prime := mk.Private.X2.Mul(r2)
	p1Prime := mk.Public.P1.ScalarMult(r1)
	p2Prime := curve.ScalarBaseMult(x2Prime)

	keyProof, err := second.PaillierProof.decode()
	if err != nil {
		return nil, fmt.Errorf("mpc: %w: decode rotation paillier key proof: %v", ErrRotationAborted, err)
	}
	if err := primitives.VerifyPaillierKey(mk.Private.PaillierPub, cKeyNew, p1Prime, keyProof, config.SaltString); err != nil {
		return nil, fmt.Errorf("mpc: %w: rotated c_key range proof failed: %v", ErrRotationInvalidProof, err)
	}

	rotated := &keyshare.MasterKey2{
		Public: &keyshare.PublicKeyShare{
			Q:  mk.Public.Q, // invariant under rotation by construction
			P1: p1Prime,
			P2: p2Prime,
		},
		Private: &keyshare.PrivateKeyShare{
			X2:          x2Prime,
			PaillierPub: mk.Private.PaillierPub,
			CKey:        cKeyNew,
		},
	}
	return rotated, nil
}
