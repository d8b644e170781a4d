package eth

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/lindellwallet/client/internal/curve"
	"github.com/lindellwallet/client/internal/keyshare"
	"github.com/lindellwallet/client/internal/mpc"
	"github.com/lindellwallet/client/internal/primitives"
)

// fakeSigner plays the co-signing server's role for the sign sub-protocol
// and for the /eth/tx/params and /eth/tx/send endpoints exercised by
// CreateAndSignTx and SendRawTx.
type fakeSigner struct {
	x1          *curve.Scalar
	paillierKey *primitives.PaillierPrivateKey
	k1          *curve.Scalar
	r1          *curve.Point
	params      *TxParams
}

func newFakeSigner(t *testing.T, params *TxParams) (*fakeSigner, *keyshare.MasterKey2) {
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

	return &fakeSigner{x1: x1, paillierKey: paillierKey, params: params}, mk
}

func (s *fakeSigner) Post(ctx context.Context, path string, out any) error {
	return s.handle(path, nil, out)
}

func (s *fakeSigner) Postb(ctx context.Context, path string, body any, out any) error {
	return s.handle(path, body, out)
}

func (s *fakeSigner) handle(path string, body any, out any) error {
	switch {
	case path == "eth/tx/params":
		return reply(out, s.params)

	case path == "eth/tx/send":
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		var payload struct {
			RawTx string `json:"raw_tx"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return err
		}
		return reply(out, map[string]any{"tx_hash": "0x" + payload.RawTx[:8]})

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
			"r1": mpc.PointDTO(hex.EncodeToString(s.r1.CompressedBytes())),
			"proof": mpc.DLogProofDTO{
				R: mpc.PointDTO(hex.EncodeToString(proof.R.CompressedBytes())),
				S: mpc.ScalarDTO(hex.EncodeToString(proof.S.Bytes())),
			},
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
			"s":           mpc.BigIntDTO(hex.EncodeToString(finalS.BigInt().Bytes())),
			"recovery_id": 0,
		})

	default:
		return nil
	}
}

func reply(out any, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func TestAddressIsDeterministicAndWellFormed(t *testing.T) {
	x, err := curve.RandomScalar()
	require.NoError(t, err)
	q := curve.ScalarBaseMult(x)

	addr1 := Address(q)
	addr2 := Address(q)
	require.Equal(t, addr1, addr2)
	require.Len(t, addr1, 42)
	require.Equal(t, "0x", addr1[:2])

	other, err := curve.RandomScalar()
	require.NoError(t, err)
	require.NotEqual(t, addr1, Address(curve.ScalarBaseMult(other)))
}

func TestWeiToEthExactValues(t *testing.T) {
	oneEth := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	require.Equal(t, "1.0", WeiToEth(oneEth))
	require.Equal(t, "0.0", WeiToEth(big.NewInt(0)))

	halfEth := new(big.Int).Div(oneEth, big.NewInt(2))
	require.Equal(t, "0.5", WeiToEth(halfEth))

	oneWei := big.NewInt(1)
	require.Equal(t, "0."+repeatZeros(17)+"1", WeiToEth(oneWei))
}

func repeatZeros(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '0'
	}
	return string(b)
}

func TestCreateAndSignTxProducesValidSignature(t *testing.T) {
	params := &TxParams{
		From:                 "0xfrom",
		To:                   "0x000000000000000000000000000000000000aa",
		ValueWei:             big.NewInt(1_000_000_000_000_000),
		Nonce:                3,
		Gas:                  21_000,
		MaxPriorityFeePerGas: big.NewInt(1_000_000_000),
		MaxFeePerGas:         big.NewInt(5_000_000_000),
		ChainID:              11_155_111,
	}
	signer, mk := newFakeSigner(t, params)

	rawTxHex, err := CreateAndSignTx(context.Background(), signer, "session-1", 1, mk, params)
	require.NoError(t, err)

	rawBytes, err := hex.DecodeString(rawTxHex)
	require.NoError(t, err)

	var tx types.Transaction
	require.NoError(t, tx.UnmarshalBinary(rawBytes))
	require.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())
	require.Equal(t, params.Nonce, tx.Nonce())
	require.Equal(t, params.ValueWei, tx.Value())

	v, _, _ := tx.RawSignatureValues()
	expectedChainTerm := new(big.Int).Mul(big.NewInt(2), big.NewInt(params.ChainID))
	expectedV := new(big.Int).Add(expectedChainTerm, big.NewInt(35)) // the fake signer replies with recid 0
	require.True(t, v.Cmp(expectedV) == 0, "v must encode recid+35+2*chainID, got %s", v)
}

func TestSendRawTxReturnsHash(t *testing.T) {
	signer, _ := newFakeSigner(t, &TxParams{})
	hash, err := SendRawTx(context.Background(), signer, "deadbeef")
	require.NoError(t, err)
	require.Equal(t, "0xdeadbeef", hash)
}
