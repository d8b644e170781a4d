// Package mpc drives the 2P-ECDSA protocol's four sub-protocols — keygen,
// sign, rotate and recover — against the co-signing server, composing
// internal/keyshare and internal/primitives over internal/transport.
// Control flow is grounded 1:1 on original_source/src/ecdsa/{keygen,sign,
// rotate,recover}.rs.
package mpc

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/lindellwallet/client/internal/curve"
	"github.com/lindellwallet/client/internal/keyshare"
	"github.com/lindellwallet/client/internal/primitives"
)

// PointDTO is the hex-encoded SEC1-compressed wire form of a curve point.
type PointDTO string

func encodePoint(p *curve.Point) PointDTO {
	return PointDTO(hex.EncodeToString(p.CompressedBytes()))
}

func (d PointDTO) decode() (*curve.Point, error) {
	b, err := hex.DecodeString(string(d))
	if err != nil {
		return nil, fmt.Errorf("mpc: decode point hex: %w", err)
	}
	return curve.PointFromCompressed(b)
}

// ScalarDTO is the hex-encoded big-endian wire form of a scalar.
type ScalarDTO string

func encodeScalar(s *curve.Scalar) ScalarDTO {
	return ScalarDTO(hex.EncodeToString(s.Bytes()))
}

func (d ScalarDTO) decode() (*curve.Scalar, error) {
	b, err := hex.DecodeString(string(d))
	if err != nil {
		return nil, fmt.Errorf("mpc: decode scalar hex: %w", err)
	}
	return curve.ScalarFromBigEndian(b)
}

// BigIntDTO is the hex-encoded wire form of an arbitrary-precision integer.
type BigIntDTO string

func encodeBigInt(v *big.Int) BigIntDTO {
	return BigIntDTO(hex.EncodeToString(v.Bytes()))
}

func (d BigIntDTO) decode() (*big.Int, error) {
	b, err := hex.DecodeString(string(d))
	if err != nil {
		return nil, fmt.Errorf("mpc: decode bigint hex: %w", err)
	}
	return new(big.Int).SetBytes(b), nil
}

// CommitmentDTO is the hex-encoded wire form of a primitives.Commitment.
type CommitmentDTO string

func encodeCommitment(c *primitives.Commitment) CommitmentDTO {
	return CommitmentDTO(hex.EncodeToString(c.Hash[:]))
}

func (d CommitmentDTO) decode() (*primitives.Commitment, error) {
	b, err := hex.DecodeString(string(d))
	if err != nil {
		return nil, fmt.Errorf("mpc: decode commitment hex: %w", err)
	}
	var c primitives.Commitment
	copy(c.Hash[:], b)
	return &c, nil
}

// DLogProofDTO is the wire form of a primitives.DLogProof.
type DLogProofDTO struct {
	R PointDTO  `json:"r"`
	S ScalarDTO `json:"s"`
}

func encodeDLogProof(p *primitives.DLogProof) DLogProofDTO {
	return DLogProofDTO{R: encodePoint(p.R), S: encodeScalar(p.S)}
}

func (d DLogProofDTO) decode() (*primitives.DLogProof, error) {
	r, err := d.R.decode()
	if err != nil {
		return nil, err
	}
	s, err := d.S.decode()
	if err != nil {
		return nil, err
	}
	return &primitives.DLogProof{R: r, S: s}, nil
}

// DecommitDTO is the wire form of a primitives.Witness: the opening of a
// round-one commitment, revealing the committed point and its blind.
type DecommitDTO struct {
	Point PointDTO `json:"point"`
	Blind string   `json:"blind"`
}

func encodeDecommit(w *primitives.Witness) DecommitDTO {
	return DecommitDTO{Point: encodePoint(w.Point), Blind: hex.EncodeToString(w.Blind[:])}
}

func (d DecommitDTO) decode() (*primitives.Witness, error) {
	p, err := d.Point.decode()
	if err != nil {
		return nil, fmt.Errorf("mpc: decode decommit point: %w", err)
	}
	b, err := hex.DecodeString(d.Blind)
	if err != nil || len(b) != 32 {
		return nil, fmt.Errorf("mpc: decode decommit blind: %w", err)
	}
	var blind [32]byte
	copy(blind[:], b)
	return &primitives.Witness{Point: p, Blind: blind}, nil
}

// PaillierKeyProofDTO is the wire form of a primitives.PaillierKeyProof.
type PaillierKeyProofDTO struct {
	A PointDTO  `json:"a"`
	B BigIntDTO `json:"b"`
	Z BigIntDTO `json:"z"`
	W BigIntDTO `json:"w"`
}

func encodePaillierKeyProof(p *primitives.PaillierKeyProof) PaillierKeyProofDTO {
	return PaillierKeyProofDTO{A: encodePoint(p.A), B: encodeBigInt(p.B), Z: encodeBigInt(p.Z), W: encodeBigInt(p.W)}
}

func (d PaillierKeyProofDTO) decode() (*primitives.PaillierKeyProof, error) {
	a, err := d.A.decode()
	if err != nil {
		return nil, err
	}
	b, err := d.B.decode()
	if err != nil {
		return nil, err
	}
	z, err := d.Z.decode()
	if err != nil {
		return nil, err
	}
	w, err := d.W.decode()
	if err != nil {
		return nil, err
	}
	return &primitives.PaillierKeyProof{A: a, B: b, Z: z, W: w}, nil
}

// PrivateShare is the client-persisted handle identifying a keygen session:
// the server-assigned session ID plus the resulting MasterKey2.
type PrivateShare struct {
	ID        string         `json:"id"`
	MasterKey *wireMasterKey `json:"master_key"`
	ChainCode [32]byte       `json:"chain_code"`
}

// NewPrivateShare wraps mk and chainCode as the wire form persisted under
// session id, the shape internal/wallet needs after keygen or recovery.
func NewPrivateShare(id string, mk *keyshare.MasterKey2, chainCode [32]byte) *PrivateShare {
	return &PrivateShare{ID: id, MasterKey: toWireMasterKey(mk), ChainCode: chainCode}
}

// MasterKey2 decodes the wire master key back into a usable keyshare.MasterKey2.
func (p *PrivateShare) MasterKey2() (*keyshare.MasterKey2, error) {
	return fromWireMasterKey(p.MasterKey)
}

// MKPos pairs a derived MasterKey2 with its position in the address
// derivation sequence.
type MKPos struct {
	Pos uint32         `json:"pos"`
	MK  *wireMasterKey `json:"mk"`
}

// NewMKPos wraps a derived child mk at position pos for storage in a
// wallet's address derivation map.
func NewMKPos(pos uint32, mk *keyshare.MasterKey2) MKPos {
	return MKPos{Pos: pos, MK: toWireMasterKey(mk)}
}

// MasterKey2 decodes the wire child key back into a usable keyshare.MasterKey2.
func (p MKPos) MasterKey2() (*keyshare.MasterKey2, error) {
	return fromWireMasterKey(p.MK)
}

// MKPosAddress pairs an MKPos with the address it was used to generate.
type MKPosAddress struct {
	Address string `json:"address"`
	MKPos
}

// wireMasterKey is the JSON wire form of keyshare.MasterKey2.
type wireMasterKey struct {
	Q    PointDTO  `json:"q"`
	P1   PointDTO  `json:"p1"`
	P2   PointDTO  `json:"p2"`
	X2   ScalarDTO `json:"x2"`
	N    BigIntDTO `json:"paillier_n"`
	CKey BigIntDTO `json:"c_key"`
}

func toWireMasterKey(mk *keyshare.MasterKey2) *wireMasterKey {
	return &wireMasterKey{
		Q:    encodePoint(mk.Public.Q),
		P1:   encodePoint(mk.Public.P1),
		P2:   encodePoint(mk.Public.P2),
		X2:   encodeScalar(mk.Private.X2),
		N:    encodeBigInt(mk.Private.PaillierPub.N),
		CKey: encodeBigInt(mk.Private.CKey.C),
	}
}

func fromWireMasterKey(w *wireMasterKey) (*keyshare.MasterKey2, error) {
	q, err := w.Q.decode()
	if err != nil {
		return nil, err
	}
	p1, err := w.P1.decode()
	if err != nil {
		return nil, err
	}
	p2, err := w.P2.decode()
	if err != nil {
		return nil, err
	}
	x2, err := w.X2.decode()
	if err != nil {
		return nil, err
	}
	n, err := w.N.decode()
	if err != nil {
		return nil, err
	}
	cKeyVal, err := w.CKey.decode()
	if err != nil {
		return nil, err
	}

	return &keyshare.MasterKey2{
		Public: &keyshare.PublicKeyShare{Q: q, P1: p1, P2: p2},
		Private: &keyshare.PrivateKeyShare{
			X2:          x2,
			PaillierPub: &primitives.PaillierPublicKey{N: n, NSq: new(big.Int).Mul(n, n)},
			CKey:        &primitives.Ciphertext{C: cKeyVal},
		},
	}, nil
}
