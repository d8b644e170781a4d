package wallet

import (
	"context"
	"fmt"

	"github.com/lindellwallet/client/internal/btc"
	"github.com/lindellwallet/client/internal/keyshare"
	"github.com/lindellwallet/client/internal/mpc"
	"github.com/lindellwallet/client/internal/storage"
	"github.com/lindellwallet/client/internal/transport"
)

func (w *Wallet) btcAddressString(child *keyshare.MasterKey2) (string, error) {
	return AddressFor(w.CoinType, w.Network, child)
}

// GetNewBTCAddress derives the next child key, records it in the address
// derivation map, and returns its P2WPKH address.
func (w *Wallet) GetNewBTCAddress() (string, error) {
	pos, child, err := w.DeriveNewKey(w.LastDerivedPos)
	if err != nil {
		return "", fmt.Errorf("wallet: derive new btc address: %w", err)
	}
	addr, err := w.btcAddressString(child)
	if err != nil {
		return "", fmt.Errorf("wallet: encode btc address: %w", err)
	}
	w.AddressesDerivationMap[addr] = mpc.NewMKPos(pos, child)
	w.LastDerivedPos = pos
	return addr, w.Save()
}

// GetBTCBalance sums the unspent output values across every address this
// wallet has ever derived.
func (w *Wallet) GetBTCBalance(ctx context.Context, explorer btc.Explorer) (int64, error) {
	var total int64
	for addr := range w.AddressesDerivationMap {
		utxos, err := explorer.ListUnspent(ctx, addr)
		if err != nil {
			return 0, fmt.Errorf("wallet: list unspent for %s: %w", addr, err)
		}
		for _, u := range utxos {
			total += u.Value
		}
	}
	return total, nil
}

// SendBTC builds, signs, and broadcasts a P2WPKH transaction moving amount
// satoshis from every derived address's UTXOs to "to", sending change to a
// freshly derived child at last_derived_pos+1, then records the change
// address in the derivation map.
func (w *Wallet) SendBTC(ctx context.Context, rq transport.Requester, explorer btc.Explorer, txStore storage.TxStore, idempotencyKey, to string, amount int64) (string, error) {
	if existing, err := txStore.Get(idempotencyKey); err == nil && existing != nil {
		return existing.TxHash, nil
	}

	params, err := btc.Network(w.Network)
	if err != nil {
		return "", err
	}

	var utxos []btc.Utxo
	inputChildren := make(map[string]btc.SigningChild)
	for addr, mkPos := range w.AddressesDerivationMap {
		addrUtxos, err := explorer.ListUnspent(ctx, addr)
		if err != nil {
			return "", fmt.Errorf("wallet: list unspent for %s: %w", addr, err)
		}
		if len(addrUtxos) == 0 {
			continue
		}
		mk, err := mkPos.MasterKey2()
		if err != nil {
			return "", fmt.Errorf("wallet: decode child key for %s: %w", addr, err)
		}
		inputChildren[addr] = btc.SigningChild{MK: mk, Pos: mkPos.Pos}
		utxos = append(utxos, addrUtxos...)
	}

	changePos, changeMK, err := w.DeriveNewKey(w.LastDerivedPos)
	if err != nil {
		return "", fmt.Errorf("wallet: derive change address: %w", err)
	}
	changeAddr, err := w.btcAddressString(changeMK)
	if err != nil {
		return "", fmt.Errorf("wallet: encode change address: %w", err)
	}

	rawTxHex, err := btc.CreateRawTx(ctx, rq, w.ID, params, utxos, inputChildren, to, amount, changeAddr,
		btc.SigningChild{MK: changeMK, Pos: changePos})
	if err != nil {
		return "", fmt.Errorf("wallet: create raw tx: %w", err)
	}

	txHash, err := explorer.Broadcast(ctx, rawTxHex)
	if err != nil {
		return "", fmt.Errorf("wallet: broadcast: %w", err)
	}

	w.AddressesDerivationMap[changeAddr] = mpc.NewMKPos(changePos, changeMK)
	w.LastDerivedPos = changePos
	if err := w.Save(); err != nil {
		return "", fmt.Errorf("wallet: persist after send: %w", err)
	}
	if err := txStore.Put(idempotencyKey, &storage.Record{TxHash: txHash}); err != nil {
		return "", fmt.Errorf("wallet: record idempotency: %w", err)
	}
	return txHash, nil
}
