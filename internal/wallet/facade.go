package wallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/lindellwallet/client/internal/btc"
	"github.com/lindellwallet/client/internal/eth"
	"github.com/lindellwallet/client/internal/storage"
	"github.com/lindellwallet/client/internal/transport"
	"github.com/lindellwallet/client/pkg/models"
)

// Deps bundles the collaborators the facade needs to reach through but never
// persists on the Wallet itself: the co-signing server transport, per-chain
// block explorer / RPC access, and local idempotency storage. Callers build
// a fresh Deps per call so the wallet stays a pure on-disk value.
type Deps struct {
	Requester   transport.Requester
	BTCExplorer btc.Explorer
	ETHFetcher  *eth.BalanceFetcher
	TxStore     storage.TxStore
}

// GetCryptoAddress derives and records the wallet's next address, the
// chain-agnostic entry point the CLI's "new-address" subcommand calls.
func (w *Wallet) GetCryptoAddress() (string, error) {
	switch w.CoinType {
	case models.CoinBTC:
		return w.GetNewBTCAddress()
	case models.CoinETH:
		return w.GetNewETHAddress()
	default:
		return "", fmt.Errorf("wallet: unknown coin type %q", w.CoinType)
	}
}

// GetBalance returns the wallet's total balance: summed UTXO satoshis for
// btc, or wei for eth (use eth.WeiToEth or GetBalanceDisplay to format it
// for the CLI).
func (w *Wallet) GetBalance(ctx context.Context, deps Deps) (*big.Int, error) {
	switch w.CoinType {
	case models.CoinBTC:
		sats, err := w.GetBTCBalance(ctx, deps.BTCExplorer)
		if err != nil {
			return nil, err
		}
		return big.NewInt(sats), nil
	case models.CoinETH:
		return w.GetETHBalanceWei(ctx, deps.ETHFetcher)
	default:
		return nil, fmt.Errorf("wallet: unknown coin type %q", w.CoinType)
	}
}

// Send builds, signs, and broadcasts a transaction moving amount from the
// wallet's holdings to "to", strictly sequencing params/UTXO discovery, the
// 2P-ECDSA signature request, and broadcast. idempotencyKey makes repeated
// calls with the same key return the original broadcast result instead of
// double-spending.
func (w *Wallet) Send(ctx context.Context, deps Deps, idempotencyKey, from, to string, amount *big.Int) (models.SendResult, error) {
	switch w.CoinType {
	case models.CoinBTC:
		txHash, err := w.SendBTC(ctx, deps.Requester, deps.BTCExplorer, deps.TxStore, idempotencyKey, to, amount.Int64())
		if err != nil {
			return models.SendResult{}, err
		}
		return models.SendResult{TxHash: txHash}, nil
	case models.CoinETH:
		txHash, err := w.SendETH(ctx, deps.Requester, deps.TxStore, idempotencyKey, from, to, amount)
		if err != nil {
			return models.SendResult{}, err
		}
		return models.SendResult{TxHash: txHash}, nil
	default:
		return models.SendResult{}, fmt.Errorf("wallet: unknown coin type %q", w.CoinType)
	}
}
