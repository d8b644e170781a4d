package eth

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/lindellwallet/client/internal/keyshare"
	"github.com/lindellwallet/client/internal/mpc"
	"github.com/lindellwallet/client/internal/transport"
)

// TxParams is the co-signing server's view of a pending send: gas pricing,
// nonce, and value, fetched from /eth/tx/params rather than computed
// locally.
type TxParams struct {
	From                 string       `json:"from"`
	To                   string       `json:"to"`
	ValueWei             *big.Int     `json:"value"`
	Nonce                uint64       `json:"nonce"`
	Gas                  uint64       `json:"gas"`
	GasPrice             *big.Int     `json:"gas_price,omitempty"`
	MaxPriorityFeePerGas *big.Int     `json:"max_priority_fee_per_gas"`
	MaxFeePerGas         *big.Int     `json:"max_fee_per_gas"`
	AccessList           types.AccessList `json:"access_list,omitempty"`
	ChainID              int64        `json:"chain_id"`
	Data                 []byte       `json:"data,omitempty"`
}

// FetchTxParams requests the parameters for a from->to transfer of
// ethValueWei from the co-signing server.
func FetchTxParams(ctx context.Context, rq transport.Requester, from, to string, ethValueWei *big.Int) (*TxParams, error) {
	var params TxParams
	if err := rq.Postb(ctx, "eth/tx/params", map[string]any{
		"from":      from,
		"to":        to,
		"eth_value": ethValueWei.String(),
	}, &params); err != nil {
		return nil, fmt.Errorf("eth: fetch tx params: %w", err)
	}
	return &params, nil
}

// eip155StyleSigner wraps a go-ethereum London (EIP-1559) signer but
// overrides SignatureValues to encode v as recid+35+2*chainID, the
// co-signing server's recid convention — not the newer y-parity-only
// encoding a stock London signer would use.
type eip155StyleSigner struct {
	types.Signer
	chainID *big.Int
}

func (s eip155StyleSigner) SignatureValues(tx *types.Transaction, sig []byte) (r, sOut, v *big.Int, err error) {
	if len(sig) != 65 {
		return nil, nil, nil, fmt.Errorf("eth: signature must be 65 bytes, got %d", len(sig))
	}
	r = new(big.Int).SetBytes(sig[:32])
	sOut = new(big.Int).SetBytes(sig[32:64])
	recid := int64(sig[64])
	v = new(big.Int).Add(big.NewInt(35+recid), new(big.Int).Mul(big.NewInt(2), s.chainID))
	return r, sOut, v, nil
}

// CreateAndSignTx builds the EIP-1559 transaction described by params,
// computes its type-aware signing hash, drives the 2P-ECDSA signing
// dialog for that hash, and assembles the signed, RLP/EIP-2718 serialized
// raw transaction.
func CreateAndSignTx(ctx context.Context, rq transport.Requester, sessionID string, pos uint32, mk *keyshare.MasterKey2, params *TxParams) (rawTxHex string, err error) {
	chainID := big.NewInt(params.ChainID)
	to := common.HexToAddress(params.To)

	unsigned := types.NewTx(&types.DynamicFeeTx{
		ChainID:    chainID,
		Nonce:      params.Nonce,
		GasTipCap:  params.MaxPriorityFeePerGas,
		GasFeeCap:  params.MaxFeePerGas,
		Gas:        params.Gas,
		To:         &to,
		Value:      params.ValueWei,
		Data:       params.Data,
		AccessList: params.AccessList,
	})

	signer := eip155StyleSigner{Signer: types.NewLondonSigner(chainID), chainID: chainID}
	signingHash := signer.Hash(unsigned)

	sig, err := mpc.Sign(ctx, rq, sessionID, pos, mk, new(big.Int).SetBytes(signingHash.Bytes()))
	if err != nil {
		return "", fmt.Errorf("eth: sign transaction: %w", err)
	}
	if sig.RecoveryID != 0 && sig.RecoveryID != 1 {
		return "", fmt.Errorf("eth: unexpected recovery id %d, want 0 or 1", sig.RecoveryID)
	}

	sigBytes := make([]byte, 65)
	sig.R.FillBytes(sigBytes[:32])
	sig.S.FillBytes(sigBytes[32:64])
	sigBytes[64] = byte(sig.RecoveryID)

	signedTx, err := unsigned.WithSignature(signer, sigBytes)
	if err != nil {
		return "", fmt.Errorf("eth: assemble signed transaction: %w", err)
	}

	raw, err := signedTx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("eth: serialize signed transaction: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// SendRawTx posts the raw signed transaction bytes to the co-signing
// server's broadcast endpoint and returns the resulting transaction hash.
func SendRawTx(ctx context.Context, rq transport.Requester, rawTxHex string) (string, error) {
	var resp struct {
		TxHash string `json:"tx_hash"`
	}
	if err := rq.Postb(ctx, "eth/tx/send", map[string]string{"raw_tx": rawTxHex}, &resp); err != nil {
		return "", fmt.Errorf("eth: broadcast transaction: %w", err)
	}
	return resp.TxHash, nil
}

// WeiToEth converts a wei amount to its decimal ether string, preserving
// full precision rather than a lossy float cast.
func WeiToEth(wei *big.Int) string {
	const decimals = 18
	base := new(big.Int).Exp(big.NewInt(10), big.NewInt(decimals), nil)
	whole := new(big.Int)
	frac := new(big.Int)
	whole.DivMod(wei, base, frac)

	fracStr := frac.String()
	for len(fracStr) < decimals {
		fracStr = "0" + fracStr
	}
	for len(fracStr) > 0 && fracStr[len(fracStr)-1] == '0' {
		fracStr = fracStr[:len(fracStr)-1]
	}
	if fracStr == "" {
		return whole.String() + ".0"
	}
	return whole.String() + "." + fracStr
}
