package btc

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/lindellwallet/client/internal/curve"
	"github.com/lindellwallet/client/internal/keyshare"
	"github.com/lindellwallet/client/internal/mpc"
	"github.com/lindellwallet/client/internal/primitives"
)

// fakeSigner plays the co-signing server's role for the sign sub-protocol
// only, enough to drive mpc.Sign end to end without a real server: two
// round trips, ecdsa/sign/{id}/first (both ephemeral nonces revealed
// directly) and ecdsa/sign/{id}/second (the completed signature).
type fakeSigner struct {
	x1          *curve.Scalar
	paillierKey *primitives.PaillierPrivateKey
	k1          *curve.Scalar
	r1          *curve.Point
}

func newFakeSigner(t *testing.T) (*fakeSigner, *keyshare.MasterKey2) {
	t.Helper()
	x1, err := curve.RandomScalar()
	require.NoError(t, err)
	paillierKey, err := primitives.GeneratePaillierKeypair()
	require.NoError(t, err)
	cKey, err := primitives.Encrypt(paillierKey.Public, x1.BigInt())
	require.NoError(t, err)

	x2, err := curve.RandomScalar()
	require.NoError(t, err)
	p1 := curve.ScalarBaseMult(x1)
	mk := keyshare.NewMasterKey2(x2, p1, paillierKey.Public, cKey)

	return &fakeSigner{x1: x1, paillierKey: paillierKey}, mk
}

func (s *fakeSigner) Post(ctx context.Context, path string, out any) error {
	return s.handle(path, nil, out)
}

func (s *fakeSigner) Postb(ctx context.Context, path string, body any, out any) error {
	return s.handle(path, body, out)
}

func (s *fakeSigner) handle(path string, body any, out any) error {
	switch {
	case strings.HasPrefix(path, "ecdsa/sign/") && strings.HasSuffix(path, "/first"):
		k1, err := curve.RandomScalar()
		if err != nil {
			return err
		}
		s.k1 = k1
		s.r1 = curve.ScalarBaseMult(k1)
		proof, err := primitives.ProveDLog(k1, s.r1)
		if err != nil {
			return err
		}
		return reply(out, map[string]any{
			"r1":    hexPoint(s.r1),
			"proof": mpc.DLogProofDTO{R: hexPoint(proof.R), S: hexScalar(proof.S)},
		})

	case strings.HasPrefix(path, "ecdsa/sign/") && strings.HasSuffix(path, "/second"):
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		var payload struct {
			R  mpc.BigIntDTO `json:"r"`
			C3 mpc.BigIntDTO `json:"c3"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return err
		}
		c3Bytes, err := hex.DecodeString(string(payload.C3))
		if err != nil {
			return err
		}
		sTag := primitives.Decrypt(s.paillierKey, &primitives.Ciphertext{C: new(big.Int).SetBytes(c3Bytes)})
		sTag.Mod(sTag, curve.Order)
		sTagScalar, err := curve.ScalarFromBigInt(sTag)
		if err != nil {
			return err
		}
		finalS := sTagScalar.Mul(s.k1.Inverse())
		return reply(out, map[string]any{
			"r":           payload.R,
			"s":           hexBigInt(finalS.BigInt()),
			"recovery_id": 0,
		})

	default:
		return nil
	}
}

func hexPoint(p *curve.Point) mpc.PointDTO    { return mpc.PointDTO(hex.EncodeToString(p.CompressedBytes())) }
func hexScalar(s *curve.Scalar) mpc.ScalarDTO { return mpc.ScalarDTO(hex.EncodeToString(s.Bytes())) }
func hexBigInt(v *big.Int) mpc.BigIntDTO      { return mpc.BigIntDTO(hex.EncodeToString(v.Bytes())) }

func reply(out any, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func testUtxo(addr string, value int64, pos uint32) Utxo {
	return Utxo{Address: addr, TxHash: strings.Repeat("ab", 32), TxPos: pos, Value: value}
}

func TestCreateRawTxConservesFunds(t *testing.T) {
	signer, mk := newFakeSigner(t)
	params := &chaincfg.TestNet3Params

	addr, err := Address(mk.Public.Q, params)
	require.NoError(t, err)
	changeAddr, err := Address(mk.Public.Q, params)
	require.NoError(t, err)

	utxos := []Utxo{testUtxo(addr.EncodeAddress(), 50_000, 0)}
	inputChildren := map[string]SigningChild{addr.EncodeAddress(): {MK: mk, Pos: 1}}

	rawTxHex, err := CreateRawTx(context.Background(), signer, "session-1", params, utxos, inputChildren,
		addr.EncodeAddress(), 20_000, changeAddr.EncodeAddress(), SigningChild{MK: mk, Pos: 2})
	require.NoError(t, err)

	rawBytes, err := hex.DecodeString(rawTxHex)
	require.NoError(t, err)
	var tx wire.MsgTx
	require.NoError(t, tx.Deserialize(bytes.NewReader(rawBytes)))

	var totalOut int64
	for _, out := range tx.TxOut {
		totalOut += out.Value
	}
	require.Equal(t, int64(50_000), totalOut+RelayFee)
	require.Len(t, tx.TxOut, 2)
	require.Equal(t, int64(20_000), tx.TxOut[0].Value)
	require.Equal(t, int64(50_000-20_000-RelayFee), tx.TxOut[1].Value)

	require.Len(t, tx.TxIn[0].Witness, 2)
	sigWithHashType := tx.TxIn[0].Witness[0]
	require.Equal(t, byte(txscript.SigHashAll), sigWithHashType[len(sigWithHashType)-1])
}

func TestCreateRawTxInsufficientFunds(t *testing.T) {
	signer, mk := newFakeSigner(t)
	params := &chaincfg.TestNet3Params

	addr, err := Address(mk.Public.Q, params)
	require.NoError(t, err)

	utxos := []Utxo{testUtxo(addr.EncodeAddress(), 1_000, 0)}
	inputChildren := map[string]SigningChild{addr.EncodeAddress(): {MK: mk, Pos: 1}}

	_, err = CreateRawTx(context.Background(), signer, "session-1", params, utxos, inputChildren,
		addr.EncodeAddress(), 20_000, addr.EncodeAddress(), SigningChild{MK: mk, Pos: 2})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Not enough fund")
}

func TestSelectAllReturnsEveryUtxo(t *testing.T) {
	utxos := []Utxo{testUtxo("addr1", 1, 0), testUtxo("addr2", 2, 1), testUtxo("addr3", 3, 2)}
	selected := SelectAll(utxos)
	require.Equal(t, utxos, selected)

	selected[0].Value = 999
	require.Equal(t, int64(1), utxos[0].Value)
}
