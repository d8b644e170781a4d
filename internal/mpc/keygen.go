package mpc

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/lindellwallet/client/internal/config"
	"github.com/lindellwallet/client/internal/curve"
	"github.com/lindellwallet/client/internal/keyshare"
	"github.com/lindellwallet/client/internal/primitives"
	"github.com/lindellwallet/client/internal/transport"
)

// keyGenFirstMsgResp is the server's first keygen message: a session id and
// a commitment to its public share P1, not yet revealed.
type keyGenFirstMsgResp struct {
	ID           string        `json:"id"`
	PkCommitment CommitmentDTO `json:"pk_commitment"`
}

// keyGenSecondMsgResp reveals P1 (opening the round-one commitment), its
// DLog proof, the server's Paillier public key and encrypted share c_key,
// and a PaillierKeyProof binding c_key to the same discrete log as P1 — all
// delivered in this single second round trip, per the external interface.
type keyGenSecondMsgResp struct {
	Decommit      DecommitDTO         `json:"decommit"`
	P1            PointDTO            `json:"p1"`
	Proof         DLogProofDTO        `json:"d_log_proof"`
	PaillierN     BigIntDTO           `json:"paillier_n"`
	CKey          BigIntDTO           `json:"c_key"`
	PaillierProof PaillierKeyProofDTO `json:"paillier_key_proof"`
}

// chainCodeFirstResp is the server's commitment to its half of the
// chain-code coin flip.
type chainCodeFirstResp struct {
	Commitment CommitmentDTO `json:"commitment"`
}

// chainCodeSecondResp reveals the server's seed, after the client has sent
// its own seed in the clear.
type chainCodeSecondResp struct {
	Seed string `json:"seed"`
}

// GenerateKey runs the keygen ceremony against the co-signing server in
// exactly two round trips for the key material (ecdsa/keygen/first,
// ecdsa/keygen/{id}/second) followed by two more for the chain-code
// agreement (ecdsa/keygen/{id}/chaincode/first, .../chaincode/second),
// grounded on original_source/src/ecdsa/keygen.rs's phase split. The client
// contributes its own share x2 locally; the server's share x1 is never
// disclosed, only its commitment, proof, and Paillier-encrypted handle —
// all verified before being trusted, the handle's proof salted with
// config.SaltString.
func GenerateKey(ctx context.Context, rq transport.Requester) (*PrivateShare, error) {
	var first keyGenFirstMsgResp
	if err := rq.Post(ctx, "ecdsa/keygen/first", &first); err != nil {
		return nil, fmt.Errorf("mpc: keygen first message: %w", err)
	}

	var second keyGenSecondMsgResp
	if err := rq.Postb(ctx, fmt.Sprintf("ecdsa/keygen/%s/second", first.ID), map[string]string{"id": first.ID}, &second); err != nil {
		return nil, fmt.Errorf("mpc: keygen second message: %w", err)
	}

	commitment, err := first.PkCommitment.decode()
	if err != nil {
		return nil, fmt.Errorf("mpc: %w: decode p1 commitment: %v", ErrKeygenAborted, err)
	}
	witness, err := second.Decommit.decode()
	if err != nil {
		return nil, fmt.Errorf("mpc: %w: decode p1 decommit: %v", ErrKeygenAborted, err)
	}
	if err := primitives.Open(commitment, witness); err != nil {
		return nil, fmt.Errorf("mpc: %w: p1 commitment does not open: %v", ErrKeygenInvalidProof, err)
	}

	p1, err := second.P1.decode()
	if err != nil {
		return nil, fmt.Errorf("mpc: %w: decode server p1: %v", ErrKeygenAborted, err)
	}
	if string(p1.CompressedBytes()) != string(witness.Point.CompressedBytes()) {
		return nil, fmt.Errorf("mpc: %w: revealed p1 does not match committed point", ErrKeygenInvalidProof)
	}

	proof, err := second.Proof.decode()
	if err != nil {
		return nil, fmt.Errorf("mpc: %w: decode server dlog proof: %v", ErrKeygenAborted, err)
	}
	if err := primitives.VerifyDLog(proof, p1); err != nil {
		return nil, fmt.Errorf("mpc: %w: server p1 proof of knowledge failed: %v", ErrKeygenInvalidProof, err)
	}

	paillierN, err := second.PaillierN.decode()
	if err != nil {
		return nil, fmt.Errorf("mpc: %w: decode paillier modulus: %v", ErrKeygenAborted, err)
	}
	paillierPub := &primitives.PaillierPublicKey{N: paillierN, NSq: new(big.Int).Mul(paillierN, paillierN)}

	cKeyVal, err := second.CKey.decode()
	if err != nil {
		return nil, fmt.Errorf("mpc: %w: decode c_key: %v", ErrKeygenAborted, err)
	}
	cKey := &primitives.Ciphertext{C: cKeyVal}

	keyProof, err := second.PaillierProof.decode()
	if err != nil {
		return nil, fmt.Errorf("mpc: %w: decode paillier key proof: %v", ErrKeygenAborted, err)
	}
	if err := primitives.VerifyPaillierKey(paillierPub, cKey, p1, keyProof, config.SaltString); err != nil {
		return nil, fmt.Errorf("mpc: %w: c_key range proof failed: %v", ErrKeygenInvalidProof, err)
	}

	x2, err := curve.RandomScalar()
	if err != nil {
		return nil, fmt.Errorf("mpc: sample client share: %w", err)
	}
	masterKey := keyshare.NewMasterKey2(x2, p1, paillierPub, cKey)

	chainCode, err := agreeChainCode(ctx, rq, first.ID)
	if err != nil {
		return nil, err
	}

	return &PrivateShare{
		ID:        first.ID,
		MasterKey: toWireMasterKey(masterKey),
		ChainCode: chainCode,
	}, nil
}

// agreeChainCode runs the two-round coin-flip sub-protocol with the server
// so neither party alone determines the chain code used for child-key
// derivation: the server commits in chaincode/first, the client reveals its
// own seed in the clear as the chaincode/second request, and the server
// reveals its seed in that same reply.
func agreeChainCode(ctx context.Context, rq transport.Requester, sessionID string) ([32]byte, error) {
	var firstResp chainCodeFirstResp
	if err := rq.Postb(ctx, fmt.Sprintf("ecdsa/keygen/%s/chaincode/first", sessionID), map[string]string{"id": sessionID}, &firstResp); err != nil {
		return [32]byte{}, fmt.Errorf("mpc: chain-code first message: %w", err)
	}
	peerCommitment, err := firstResp.Commitment.decode()
	if err != nil {
		return [32]byte{}, fmt.Errorf("mpc: %w: decode server chain-code commitment: %v", ErrKeygenAborted, err)
	}

	_, local, err := primitives.ChainCodeFirstRound()
	if err != nil {
		return [32]byte{}, fmt.Errorf("mpc: start chain-code agreement: %w", err)
	}
	// The client's own commitment never needs sending: only the server's
	// half must be hidden-then-revealed, so the client reveals directly.
	reveal := primitives.ChainCodeReveal(local)

	var secondResp chainCodeSecondResp
	if err := rq.Postb(ctx, fmt.Sprintf("ecdsa/keygen/%s/chaincode/second", sessionID), map[string]any{
		"id":   sessionID,
		"seed": hex.EncodeToString(reveal.Seed[:]),
	}, &secondResp); err != nil {
		return [32]byte{}, fmt.Errorf("mpc: chain-code second message: %w", err)
	}

	seedBytes, err := hex.DecodeString(secondResp.Seed)
	if err != nil || len(seedBytes) != 32 {
		return [32]byte{}, fmt.Errorf("mpc: %w: decode server chain-code seed", ErrKeygenAborted)
	}
	var peerSeed [32]byte
	copy(peerSeed[:], seedBytes)

	peerCommitFirst := &primitives.ChainCodeFirstMessage{Commitment: peerCommitment.Hash}
	chainCode, err := primitives.ChainCodeFinalize(local, peerCommitFirst, &primitives.ChainCodeSecondMessage{Seed: peerSeed})
	if err != nil {
		return [32]byte{}, fmt.Errorf("mpc: %w: chain-code reveal does not match commitment: %v", ErrKeygenInvalidProof, err)
	}
	return chainCode, nil
}
