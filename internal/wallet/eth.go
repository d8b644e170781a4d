package wallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/lindellwallet/client/internal/eth"
	"github.com/lindellwallet/client/internal/keyshare"
	"github.com/lindellwallet/client/internal/mpc"
	"github.com/lindellwallet/client/internal/storage"
	"github.com/lindellwallet/client/internal/transport"
)

func (w *Wallet) ethAddressString(child *keyshare.MasterKey2) (string, error) {
	return AddressFor(w.CoinType, w.Network, child)
}

// GetNewETHAddress derives the next child key, records it in the address
// derivation map, and returns its address.
func (w *Wallet) GetNewETHAddress() (string, error) {
	pos, child, err := w.DeriveNewKey(w.LastDerivedPos)
	if err != nil {
		return "", fmt.Errorf("wallet: derive new eth address: %w", err)
	}
	addr := eth.Address(child.Public.Q)
	w.AddressesDerivationMap[addr] = mpc.NewMKPos(pos, child)
	w.LastDerivedPos = pos
	return addr, w.Save()
}

// GetETHBalanceWei sums the on-chain balance of every derived address over
// fetcher's websocket connection.
func (w *Wallet) GetETHBalanceWei(ctx context.Context, fetcher *eth.BalanceFetcher) (*big.Int, error) {
	addrs := make([]string, 0, len(w.AddressesDerivationMap))
	for addr := range w.AddressesDerivationMap {
		addrs = append(addrs, addr)
	}
	return fetcher.SumBalances(ctx, addrs)
}

// SendETH fetches transaction parameters from the co-signing server for a
// from->to transfer, signs the resulting EIP-1559 transaction via the
// 2P-ECDSA protocol driver, and broadcasts it.
func (w *Wallet) SendETH(ctx context.Context, rq transport.Requester, txStore storage.TxStore, idempotencyKey, from, to string, amountWei *big.Int) (string, error) {
	if existing, err := txStore.Get(idempotencyKey); err == nil && existing != nil {
		return existing.TxHash, nil
	}

	mkPos, ok := w.AddressesDerivationMap[from]
	if !ok {
		return "", fmt.Errorf("wallet: unknown from-address %s", from)
	}
	mk, err := mkPos.MasterKey2()
	if err != nil {
		return "", fmt.Errorf("wallet: decode child key for %s: %w", from, err)
	}

	params, err := eth.FetchTxParams(ctx, rq, from, to, amountWei)
	if err != nil {
		return "", fmt.Errorf("wallet: fetch tx params: %w", err)
	}

	rawTxHex, err := eth.CreateAndSignTx(ctx, rq, w.ID, mkPos.Pos, mk, params)
	if err != nil {
		return "", fmt.Errorf("wallet: create and sign tx: %w", err)
	}

	txHash, err := eth.SendRawTx(ctx, rq, rawTxHex)
	if err != nil {
		return "", fmt.Errorf("wallet: broadcast: %w", err)
	}

	if err := txStore.Put(idempotencyKey, &storage.Record{TxHash: txHash}); err != nil {
		return "", fmt.Errorf("wallet: record idempotency: %w", err)
	}
	return txHash, nil
}

// GetBalanceDisplay is a deliberately lossy CLI display unit: (eth * 1000)
// truncated to an integer, kept for parity with older CLI output, alongside
// WeiToEth for callers that want the full-precision decimal string instead.
func GetBalanceDisplay(balanceWei *big.Int) int64 {
	scaled := new(big.Int).Mul(balanceWei, big.NewInt(1000))
	weiPerEth := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	scaled.Div(scaled, weiPerEth)
	return scaled.Int64()
}
