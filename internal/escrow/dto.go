package escrow

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/lindellwallet/client/internal/curve"
	"github.com/lindellwallet/client/internal/primitives"
)

// pointHex/scalarHex give Backup a stable, human-inspectable JSON form —
// curve.Point and curve.Scalar have no exported fields of their own, so
// Backup implements json.Marshaler/Unmarshaler directly rather than
// relying on struct-tag reflection over unexported internals.

func pointHex(p *curve.Point) string { return hex.EncodeToString(p.CompressedBytes()) }

func decodePointHex(s string) (*curve.Point, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("escrow: decode point hex: %w", err)
	}
	return curve.PointFromCompressed(b)
}

func scalarHex(s *curve.Scalar) string { return hex.EncodeToString(s.Bytes()) }

func decodeScalarHex(s string) (*curve.Scalar, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("escrow: decode scalar hex: %w", err)
	}
	return curve.ScalarFromBigEndian(b)
}

type wireSegmentCiphertext struct {
	A string `json:"a"`
	B string `json:"b"`
}

type wireProof struct {
	ACommit   []string `json:"a_commit"`
	BCommit   []string `json:"b_commit"`
	SumCommit string   `json:"sum_commit"`
	ZR        []string `json:"z_r"`
	ZS        []string `json:"z_s"`
}

type wirePublicShare struct {
	Q         string `json:"q"`
	P1        string `json:"p1"`
	P2        string `json:"p2"`
	PaillierN string `json:"paillier_n"`
	CKey      string `json:"c_key"`
}

type wireBackup struct {
	Encryptions []wireSegmentCiphertext `json:"encryptions"`
	Proof       wireProof               `json:"proof"`
	PublicShare wirePublicShare         `json:"public_share"`
	ChainCode   string                  `json:"chain_code"`
	ID          string                  `json:"id"`
}

// MarshalJSON renders b as the hex-encoded blob persisted to
// wallet/backup.data.
func (b *Backup) MarshalJSON() ([]byte, error) {
	w := wireBackup{
		PublicShare: wirePublicShare{
			Q:         pointHex(b.PublicShare.Q),
			P1:        pointHex(b.PublicShare.P1),
			P2:        pointHex(b.PublicShare.P2),
			PaillierN: hex.EncodeToString(b.PublicShare.PaillierPub.N.Bytes()),
			CKey:      hex.EncodeToString(b.PublicShare.CKey.C.Bytes()),
		},
		ChainCode: hex.EncodeToString(b.ChainCode[:]),
		ID:        b.ID,
	}
	for _, ct := range b.Encryptions {
		w.Encryptions = append(w.Encryptions, wireSegmentCiphertext{A: pointHex(ct.A), B: pointHex(ct.B)})
	}
	for _, p := range b.Proof.ACommit {
		w.Proof.ACommit = append(w.Proof.ACommit, pointHex(p))
	}
	for _, p := range b.Proof.BCommit {
		w.Proof.BCommit = append(w.Proof.BCommit, pointHex(p))
	}
	w.Proof.SumCommit = pointHex(b.Proof.SumCommit)
	for _, s := range b.Proof.ZR {
		w.Proof.ZR = append(w.Proof.ZR, scalarHex(s))
	}
	for _, s := range b.Proof.ZS {
		w.Proof.ZS = append(w.Proof.ZS, scalarHex(s))
	}
	return json.Marshal(w)
}

// UnmarshalJSON parses a wallet/backup.data blob back into b.
func (b *Backup) UnmarshalJSON(data []byte) error {
	var w wireBackup
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("escrow: decode backup blob: %w", err)
	}

	cts := make([]SegmentCiphertext, len(w.Encryptions))
	for i, ct := range w.Encryptions {
		a, err := decodePointHex(ct.A)
		if err != nil {
			return err
		}
		bPt, err := decodePointHex(ct.B)
		if err != nil {
			return err
		}
		cts[i] = SegmentCiphertext{A: a, B: bPt}
	}

	proof, err := decodeWireProof(w.Proof)
	if err != nil {
		return err
	}

	publicShare, err := decodeWirePublicShare(w.PublicShare)
	if err != nil {
		return err
	}

	chainCodeBytes, err := hex.DecodeString(w.ChainCode)
	if err != nil || len(chainCodeBytes) != 32 {
		return fmt.Errorf("escrow: decode backup chain code: %w", err)
	}
	var chainCode [32]byte
	copy(chainCode[:], chainCodeBytes)

	b.Encryptions = cts
	b.Proof = proof
	b.PublicShare = publicShare
	b.ChainCode = chainCode
	b.ID = w.ID
	return nil
}

func decodeWirePublicShare(w wirePublicShare) (*PublicShare, error) {
	q, err := decodePointHex(w.Q)
	if err != nil {
		return nil, err
	}
	p1, err := decodePointHex(w.P1)
	if err != nil {
		return nil, err
	}
	p2, err := decodePointHex(w.P2)
	if err != nil {
		return nil, err
	}
	nBytes, err := hex.DecodeString(w.PaillierN)
	if err != nil {
		return nil, fmt.Errorf("escrow: decode backup paillier modulus: %w", err)
	}
	n := new(big.Int).SetBytes(nBytes)
	cKeyBytes, err := hex.DecodeString(w.CKey)
	if err != nil {
		return nil, fmt.Errorf("escrow: decode backup c_key: %w", err)
	}
	cKeyVal := new(big.Int).SetBytes(cKeyBytes)

	return &PublicShare{
		Q:           q,
		P1:          p1,
		P2:          p2,
		PaillierPub: &primitives.PaillierPublicKey{N: n, NSq: new(big.Int).Mul(n, n)},
		CKey:        &primitives.Ciphertext{C: cKeyVal},
	}, nil
}

func decodeWireProof(w wireProof) (*Proof, error) {
	decodePoints := func(in []string) ([]*curve.Point, error) {
		out := make([]*curve.Point, len(in))
		for i, s := range in {
			p, err := decodePointHex(s)
			if err != nil {
				return nil, err
			}
			out[i] = p
		}
		return out, nil
	}
	decodeScalars := func(in []string) ([]*curve.Scalar, error) {
		out := make([]*curve.Scalar, len(in))
		for i, s := range in {
			v, err := decodeScalarHex(s)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	aCommit, err := decodePoints(w.ACommit)
	if err != nil {
		return nil, err
	}
	bCommit, err := decodePoints(w.BCommit)
	if err != nil {
		return nil, err
	}
	sumCommit, err := decodePointHex(w.SumCommit)
	if err != nil {
		return nil, err
	}
	zr, err := decodeScalars(w.ZR)
	if err != nil {
		return nil, err
	}
	zs, err := decodeScalars(w.ZS)
	if err != nil {
		return nil, err
	}

	return &Proof{ACommit: aCommit, BCommit: bCommit, SumCommit: sumCommit, ZR: zr, ZS: zs}, nil
}
