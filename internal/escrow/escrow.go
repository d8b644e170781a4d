// Package escrow implements the segmented-ElGamal ("Centipede") backup
// scheme that lets the client prove its private share was encrypted
// correctly under a long-lived escrow public key without revealing it, and
// lets the escrow key holder reconstruct the share from the backup alone.
// Grounded on original_source/src/escrow/mod.rs's segment split and
// bnb-chain-tss-lib's Schnorr-proof conventions (internal/primitives.DLogProof)
// generalized to a batched sigma protocol over all segments at once.
package escrow

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	"github.com/lindellwallet/client/internal/curve"
	"github.com/lindellwallet/client/internal/keyshare"
	"github.com/lindellwallet/client/internal/primitives"
)

// SegmentSize is the bit width of each encrypted segment. NumSegments *
// SegmentSize must cover the full 256-bit scalar range.
const (
	SegmentSize = 8
	NumSegments = 32
)

// Escrow holds the long-lived escrow keypair: a scalar secret and its
// public point, generated exactly once per installation and persisted
// read-only thereafter.
type Escrow struct {
	Secret *curve.Scalar
	Public *curve.Point
}

// NewEscrow generates a fresh escrow keypair. Callers must persist the
// result and never regenerate it once backups exist against it.
func NewEscrow() (*Escrow, error) {
	secret, err := curve.RandomScalar()
	if err != nil {
		return nil, fmt.Errorf("escrow: generate secret: %w", err)
	}
	return &Escrow{Secret: secret, Public: curve.ScalarBaseMult(secret)}, nil
}

// SegmentCiphertext is one ElGamal-encrypted segment: A = r*G, B = s*G + r*Y
// for escrow public key Y and segment value s in [0, 2^SegmentSize).
type SegmentCiphertext struct {
	A *curve.Point
	B *curve.Point
}

// SegmentOpening is the prover's private knowledge of one segment: its
// plaintext value and the randomness used to encrypt it. Never serialized.
type SegmentOpening struct {
	value      uint8
	randomness *curve.Scalar
}

// Proof is the non-interactive sum-consistency proof binding a set of
// segment ciphertexts to a public commitment p2 = x2*G: a batched Schnorr
// proof of knowledge of (r_i, s_i) for every segment such that each
// ciphertext opens correctly and the MSB-first weighted sum of openings
// equals x2.
type Proof struct {
	ACommit   []*curve.Point
	BCommit   []*curve.Point
	SumCommit *curve.Point
	ZR        []*curve.Scalar
	ZS        []*curve.Scalar
}

// PublicShare is the full non-secret bundle needed to reconstitute a usable
// keyshare.MasterKey2 once the client's scalar share has been recovered
// from the backup's segments: the joint public key, both parties' public
// points, and the server's Paillier public key and encrypted share handle.
// Carrying all of it inside the backup blob (rather than just p2) is what
// lets recovery complete without any server round trip disclosing key
// material, per original_source/src/wallet/mod.rs's recover_and_save_share,
// which builds MasterKey2::recover_master_key from the backup's embedded
// Party2Public alone.
type PublicShare struct {
	Q           *curve.Point
	P1          *curve.Point
	P2          *curve.Point
	PaillierPub *primitives.PaillierPublicKey
	CKey        *primitives.Ciphertext
}

// Backup is the full persisted backup blob: the segmented encryptions, the
// proof binding them to the public share, the client's full public share
// bundle, the chain code needed to re-derive children, and the originating
// session id. Backup's JSON form is produced by MarshalJSON/UnmarshalJSON in
// dto.go, since curve.Point/curve.Scalar have no exported fields for
// encoding/json to walk directly.
type Backup struct {
	Encryptions []SegmentCiphertext
	Proof       *Proof
	PublicShare *PublicShare
	ChainCode   [32]byte
	ID          string
}

// segmentWeight returns 256^(NumSegments-1-i), the place value of segment i
// in the MSB-first reconstruction of the full scalar.
func segmentWeight(i int) *big.Int {
	exp := NumSegments - 1 - i
	return new(big.Int).Lsh(big.NewInt(1), uint(SegmentSize*exp))
}

// Encrypt splits x2 into NumSegments MSB-first bytes and ElGamal-encrypts
// each under escrowPublic, returning both the ciphertexts and the openings
// the prover needs for Prove.
func Encrypt(escrowPublic *curve.Point, x2 *curve.Scalar) ([]SegmentCiphertext, []SegmentOpening, error) {
	segments := x2.Bytes() // 32 big-endian bytes == 32 MSB-first 8-bit segments
	if len(segments) != NumSegments {
		return nil, nil, fmt.Errorf("escrow: expected %d segments, got %d", NumSegments, len(segments))
	}

	cts := make([]SegmentCiphertext, NumSegments)
	openings := make([]SegmentOpening, NumSegments)
	for i, v := range segments {
		r, err := curve.RandomScalar()
		if err != nil {
			return nil, nil, fmt.Errorf("escrow: sample segment randomness: %w", err)
		}
		a := curve.ScalarBaseMult(r)
		b := curve.ScalarBaseMult(curve.ScalarFromByte(v)).Add(escrowPublic.ScalarMult(r))
		cts[i] = SegmentCiphertext{A: a, B: b}
		openings[i] = SegmentOpening{value: v, randomness: r}
	}
	return cts, openings, nil
}

// Prove builds the sum-consistency proof for a set of segment ciphertexts
// against the claimed public commitment p2 = x2*G.
func Prove(escrowPublic, p2 *curve.Point, cts []SegmentCiphertext, openings []SegmentOpening) (*Proof, error) {
	if len(cts) != NumSegments || len(openings) != NumSegments {
		return nil, fmt.Errorf("escrow: proof requires exactly %d segments", NumSegments)
	}

	kr := make([]*curve.Scalar, NumSegments)
	ks := make([]*curve.Scalar, NumSegments)
	aCommit := make([]*curve.Point, NumSegments)
	bCommit := make([]*curve.Point, NumSegments)

	var sumKS *curve.Scalar
	for i := range cts {
		krI, err := curve.RandomScalar()
		if err != nil {
			return nil, fmt.Errorf("escrow: sample proof nonce: %w", err)
		}
		ksI, err := curve.RandomScalar()
		if err != nil {
			return nil, fmt.Errorf("escrow: sample proof nonce: %w", err)
		}
		kr[i], ks[i] = krI, ksI
		aCommit[i] = curve.ScalarBaseMult(krI)
		bCommit[i] = curve.ScalarBaseMult(ksI).Add(escrowPublic.ScalarMult(krI))

		weight, err := curve.ScalarFromBigInt(segmentWeight(i))
		if err != nil {
			return nil, fmt.Errorf("escrow: segment weight: %w", err)
		}
		weighted := ksI.Mul(weight)
		if sumKS == nil {
			sumKS = weighted
		} else {
			sumKS = sumKS.Add(weighted)
		}
	}
	sumCommit := curve.ScalarBaseMult(sumKS)

	e := proofChallenge(escrowPublic, p2, cts, aCommit, bCommit, sumCommit)

	zr := make([]*curve.Scalar, NumSegments)
	zs := make([]*curve.Scalar, NumSegments)
	for i := range cts {
		rScalar := openings[i].randomness
		sScalar := curve.ScalarFromByte(openings[i].value)
		zr[i] = kr[i].Add(e.Mul(rScalar))
		zs[i] = ks[i].Add(e.Mul(sScalar))
	}

	return &Proof{ACommit: aCommit, BCommit: bCommit, SumCommit: sumCommit, ZR: zr, ZS: zs}, nil
}

// Verify checks proof against cts and the claimed public commitment p2.
func Verify(escrowPublic, p2 *curve.Point, cts []SegmentCiphertext, proof *Proof) error {
	if len(cts) != NumSegments {
		return fmt.Errorf("escrow: expected %d segments, got %d", NumSegments, len(cts))
	}
	if len(proof.ACommit) != NumSegments || len(proof.BCommit) != NumSegments ||
		len(proof.ZR) != NumSegments || len(proof.ZS) != NumSegments {
		return errors.New("escrow: malformed proof shape")
	}

	e := proofChallenge(escrowPublic, p2, cts, proof.ACommit, proof.BCommit, proof.SumCommit)

	var sumZS *curve.Scalar
	for i, ct := range cts {
		lhsA := curve.ScalarBaseMult(proof.ZR[i])
		rhsA := proof.ACommit[i].Add(ct.A.ScalarMult(e))
		if string(lhsA.CompressedBytes()) != string(rhsA.CompressedBytes()) {
			return fmt.Errorf("escrow: segment %d ciphertext-A check failed", i)
		}

		lhsB := curve.ScalarBaseMult(proof.ZS[i]).Add(escrowPublic.ScalarMult(proof.ZR[i]))
		rhsB := proof.BCommit[i].Add(ct.B.ScalarMult(e))
		if string(lhsB.CompressedBytes()) != string(rhsB.CompressedBytes()) {
			return fmt.Errorf("escrow: segment %d ciphertext-B check failed", i)
		}

		weight, err := curve.ScalarFromBigInt(segmentWeight(i))
		if err != nil {
			return fmt.Errorf("escrow: segment weight: %w", err)
		}
		weighted := proof.ZS[i].Mul(weight)
		if sumZS == nil {
			sumZS = weighted
		} else {
			sumZS = sumZS.Add(weighted)
		}
	}

	lhsSum := curve.ScalarBaseMult(sumZS)
	rhsSum := proof.SumCommit.Add(p2.ScalarMult(e))
	if string(lhsSum.CompressedBytes()) != string(rhsSum.CompressedBytes()) {
		return errors.New("escrow: sum-consistency check failed")
	}
	return nil
}

// proofChallenge derives the Fiat-Shamir challenge binding every public
// input the proof ranges over, so the prover cannot reuse nonces across a
// different escrow key, commitment, or ciphertext set.
func proofChallenge(escrowPublic, p2 *curve.Point, cts []SegmentCiphertext, aCommit, bCommit []*curve.Point, sumCommit *curve.Point) *curve.Scalar {
	h := sha256.New()
	h.Write(escrowPublic.CompressedBytes())
	h.Write(p2.CompressedBytes())
	for _, ct := range cts {
		h.Write(ct.A.CompressedBytes())
		h.Write(ct.B.CompressedBytes())
	}
	for i := range aCommit {
		h.Write(aCommit[i].CompressedBytes())
		h.Write(bCommit[i].CompressedBytes())
	}
	h.Write(sumCommit.CompressedBytes())
	digest := h.Sum(nil)

	e, err := curve.ScalarFromBigEndian(digest)
	if err != nil {
		digest[31] ^= 0x01
		e, _ = curve.ScalarFromBigEndian(digest)
	}
	return e
}

// Decrypt recovers x2 from its segment ciphertexts using the escrow secret,
// solving one small discrete log per segment via baby-step/giant-step and
// reassembling MSB-first.
func Decrypt(escrowSecret *curve.Scalar, cts []SegmentCiphertext) (*curve.Scalar, error) {
	if len(cts) != NumSegments {
		return nil, fmt.Errorf("escrow: expected %d segments, got %d", NumSegments, len(cts))
	}

	total := new(big.Int)
	for i, ct := range cts {
		rY := ct.A.ScalarMult(escrowSecret)
		sG := ct.B.Add(negatePoint(rY))

		v, err := primitives.SolveSmallDLog(sG, 1<<SegmentSize)
		if err != nil {
			return nil, fmt.Errorf("escrow: recover segment %d: %w", i, err)
		}
		weighted := new(big.Int).Mul(new(big.Int).SetUint64(v), segmentWeight(i))
		total.Add(total, weighted)
	}
	total.Mod(total, curve.Order)

	x2, err := curve.ScalarFromBigInt(total)
	if err != nil {
		return nil, fmt.Errorf("escrow: reassembled scalar is zero, refusing to return a degenerate share: %w", err)
	}
	return x2, nil
}

func negatePoint(p *curve.Point) *curve.Point {
	nMinus1 := new(big.Int).Sub(curve.Order, big.NewInt(1))
	s, err := curve.ScalarFromBigInt(nMinus1)
	if err != nil {
		panic("escrow: N-1 must be a valid non-zero scalar")
	}
	return p.ScalarMult(s)
}

// BackupClientMK encrypts mk's client share under escrowPublic and proves
// the encryption matches mk's public commitment p2, producing the blob
// persisted to wallet/backup.data.
func BackupClientMK(escrowPublic *curve.Point, mk *keyshare.MasterKey2, chainCode [32]byte, id string) (*Backup, error) {
	cts, openings, err := Encrypt(escrowPublic, mk.Private.X2)
	if err != nil {
		return nil, fmt.Errorf("escrow: encrypt client share: %w", err)
	}
	proof, err := Prove(escrowPublic, mk.Public.P2, cts, openings)
	if err != nil {
		return nil, fmt.Errorf("escrow: prove client share: %w", err)
	}
	return &Backup{
		Encryptions: cts,
		Proof:       proof,
		PublicShare: &PublicShare{
			Q:           mk.Public.Q,
			P1:          mk.Public.P1,
			P2:          mk.Public.P2,
			PaillierPub: mk.Private.PaillierPub,
			CKey:        mk.Private.CKey,
		},
		ChainCode: chainCode,
		ID:        id,
	}, nil
}

// VerifyClientBackup checks that backup's proof verifies under escrowPublic
// and its own embedded PublicShare.P2, without needing the escrow secret.
func VerifyClientBackup(escrowPublic *curve.Point, backup *Backup) error {
	if err := Verify(escrowPublic, backup.PublicShare.P2, backup.Encryptions, backup.Proof); err != nil {
		return fmt.Errorf("escrow: backup failed verification: %w", err)
	}
	return nil
}

// RecoverClientShare decrypts backup's segments with the escrow secret,
// reassembles the client's scalar share x2, and combines it with the
// backup's own embedded PublicShare to reconstitute a complete MasterKey2 —
// entirely locally, with no server round trip ever disclosing key material,
// grounded on original_source/src/wallet/mod.rs's recover_and_save_share.
func RecoverClientShare(escrowSecret *curve.Scalar, backup *Backup) (*keyshare.MasterKey2, error) {
	x2, err := Decrypt(escrowSecret, backup.Encryptions)
	if err != nil {
		return nil, fmt.Errorf("escrow: recover client share: %w", err)
	}
	if got := curve.ScalarBaseMult(x2); string(got.CompressedBytes()) != string(backup.PublicShare.P2.CompressedBytes()) {
		return nil, errors.New("escrow: recovered scalar does not match backed-up public share")
	}

	mk := keyshare.NewMasterKey2(x2, backup.PublicShare.P1, backup.PublicShare.PaillierPub, backup.PublicShare.CKey)
	if string(mk.Public.Q.CompressedBytes()) != string(backup.PublicShare.Q.CompressedBytes()) {
		return nil, errors.New("escrow: recovered master key does not match backed-up joint public key")
	}
	return mk, nil
}
