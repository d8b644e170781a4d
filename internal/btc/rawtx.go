// Raw transaction assembly and BIP-143 signing, grounded on
// original_source/src/btc/raw_tx.rs's select-all UTXO strategy and
// other_examples' vadimzhukck-privy-sdk-go bitcoin chain helper for the
// concrete txscript/wire wiring (CalcWitnessSigHash, scriptCode
// construction, witness assembly).
package btc

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	btcec "github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/lindellwallet/client/internal/keyshare"
	"github.com/lindellwallet/client/internal/mpc"
	"github.com/lindellwallet/client/internal/transport"
)

// RelayFee is the fixed relay fee this wallet pays on every send — no
// dynamic fee estimation.
const RelayFee = int64(10_000)

// SigningChild is one derived child the raw-tx builder needs to sign an
// input: its MasterKey2 and the derivation position recorded in the
// address map, needed to reconstruct x2 server-side during signing.
type SigningChild struct {
	MK  *keyshare.MasterKey2
	Pos uint32
}

// ErrInsufficientFunds is returned by CreateRawTx when the selected UTXOs
// cannot cover amount+RelayFee. Its message must contain "Not enough fund".
var ErrInsufficientFunds = fmt.Errorf("btc: Not enough fund: insufficient utxo value for amount plus relay fee")

// SelectAll is the trivial "take all" UTXO selection strategy: no
// per-output or total-fee-aware selection, just every unspent output the
// caller has discovered across its address set.
func SelectAll(utxos []Utxo) []Utxo {
	out := make([]Utxo, len(utxos))
	copy(out, utxos)
	return out
}

// CreateRawTx builds, signs (via the 2P-ECDSA protocol driver), and
// serializes a single P2WPKH transaction spending utxos to to for amount
// satoshis, sending change back to changeAddress/changeChild. Funds
// conservation: sum(outputs) + RelayFee = sum(selected inputs) always holds;
// the change output is added even when its value is dust or zero.
func CreateRawTx(
	ctx context.Context,
	rq transport.Requester,
	sessionID string,
	params *chaincfg.Params,
	utxos []Utxo,
	inputChildren map[string]SigningChild, // keyed by utxo.Address
	to string,
	amount int64,
	changeAddress string,
	changeChild SigningChild,
) (string, error) {
	selected := SelectAll(utxos)

	var totalIn int64
	for _, u := range selected {
		totalIn += u.Value
	}
	if totalIn < amount+RelayFee {
		return "", ErrInsufficientFunds
	}
	change := totalIn - amount - RelayFee

	tx := wire.NewMsgTx(2)
	tx.LockTime = 0

	for _, u := range selected {
		hash, err := chainhash.NewHashFromStr(u.TxHash)
		if err != nil {
			return "", fmt.Errorf("btc: invalid utxo txid %s: %w", u.TxHash, err)
		}
		in := wire.NewTxIn(wire.NewOutPoint(hash, u.TxPos), nil, nil)
		in.Sequence = 0xFFFFFFFF
		tx.AddTxIn(in)
	}

	toAddr, err := btcutil.DecodeAddress(to, params)
	if err != nil {
		return "", fmt.Errorf("btc: decode destination address: %w", err)
	}
	toScript, err := txscript.PayToAddrScript(toAddr)
	if err != nil {
		return "", fmt.Errorf("btc: destination script: %w", err)
	}
	tx.AddTxOut(wire.NewTxOut(amount, toScript))

	changeAddr, err := btcutil.DecodeAddress(changeAddress, params)
	if err != nil {
		return "", fmt.Errorf("btc: decode change address: %w", err)
	}
	changeScript, err := txscript.PayToAddrScript(changeAddr)
	if err != nil {
		return "", fmt.Errorf("btc: change script: %w", err)
	}
	tx.AddTxOut(wire.NewTxOut(change, changeScript))

	prevOuts := make(map[wire.OutPoint]*wire.TxOut, len(selected))
	pubKeys := make([][]byte, len(selected))
	for i, u := range selected {
		child, ok := inputChildren[u.Address]
		if !ok {
			return "", fmt.Errorf("btc: no signing child registered for address %s", u.Address)
		}
		pk := child.MK.Public.Q.CompressedBytes()
		pubKeys[i] = pk
		script, err := txscript.NewScriptBuilder().AddOp(txscript.OP_0).AddData(Hash160(pk)).Script()
		if err != nil {
			return "", fmt.Errorf("btc: build p2wpkh prevout script: %w", err)
		}
		prevOuts[tx.TxIn[i].PreviousOutPoint] = wire.NewTxOut(u.Value, script)
	}
	fetcher := txscript.NewMultiPrevOutFetcher(prevOuts)
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)

	for i, u := range selected {
		child := inputChildren[u.Address]
		sigHash, err := calcWitnessSigHash(tx, sigHashes, i, u.Value, pubKeys[i])
		if err != nil {
			return "", fmt.Errorf("btc: compute bip-143 sighash for input %d: %w", i, err)
		}

		sig, err := mpc.Sign(ctx, rq, sessionID, child.Pos, child.MK, new(big.Int).SetBytes(sigHash))
		if err != nil {
			return "", fmt.Errorf("btc: sign input %d: %w", i, err)
		}

		derSig := derEncodeSignature(sig)
		derSig = append(derSig, byte(txscript.SigHashAll))
		tx.TxIn[i].Witness = wire.TxWitness{derSig, pubKeys[i]}
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", fmt.Errorf("btc: serialize signed transaction: %w", err)
	}
	return fmt.Sprintf("%x", buf.Bytes()), nil
}

// calcWitnessSigHash computes the BIP-143 sighash for a P2WPKH input. The
// scriptCode is deliberately the P2PKH script_pubkey for pk: it is exactly
// the BIP-143 "scriptCode" a P2WPKH input requires, not a bug.
func calcWitnessSigHash(tx *wire.MsgTx, sigHashes *txscript.TxSigHashes, idx int, inputAmount int64, pk []byte) ([]byte, error) {
	scriptCode, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(Hash160(pk)).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
	if err != nil {
		return nil, err
	}
	return txscript.CalcWitnessSigHash(scriptCode, sigHashes, txscript.SigHashAll, tx, idx, inputAmount)
}

// derEncodeSignature DER-encodes sig's (r, s); the 2P-ECDSA signing dialog
// already returns s in its low-s canonical form.
func derEncodeSignature(sig *mpc.Signature) []byte {
	derSig := ecdsa.NewSignature(modNScalarFromBigInt(sig.R), modNScalarFromBigInt(sig.S))
	return derSig.Serialize()
}

func modNScalarFromBigInt(v *big.Int) *btcec.ModNScalar {
	buf := make([]byte, 32)
	v.FillBytes(buf)
	var s btcec.ModNScalar
	s.SetByteSlice(buf)
	return &s
}
