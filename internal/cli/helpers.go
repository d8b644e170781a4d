package cli

import (
	"context"
	"fmt"

	"github.com/lindellwallet/client/internal/btc"
	"github.com/lindellwallet/client/internal/eth"
	"github.com/lindellwallet/client/internal/storage"
	"github.com/lindellwallet/client/internal/transport"
	"github.com/lindellwallet/client/internal/wallet"
)

func requester() transport.Requester {
	return transport.NewClient(cfg.Endpoint, cfg.AuthToken, cfg.UserID)
}

func networkName() string {
	if cfg.BTCMainnet {
		return "mainnet"
	}
	return "testnet"
}

// loadWallet reads the wallet persisted at cfg.WalletFile, the precondition
// every subcommand but create-wallet shares.
func loadWallet() (*wallet.Wallet, error) {
	w, err := wallet.Load(cfg.WalletFile)
	if err != nil {
		return nil, fmt.Errorf("walletctl: no wallet at %s (run create-wallet first): %w", cfg.WalletFile, err)
	}
	return w, nil
}

// buildDeps assembles the collaborators a wallet operation needs beyond the
// co-signing server, dialing the Ethereum websocket endpoint only when the
// wallet is actually an eth wallet (btc has no analog to it).
func buildDeps(ctx context.Context, w *wallet.Wallet) (wallet.Deps, func(), error) {
	deps := wallet.Deps{
		Requester: requester(),
		TxStore:   storage.NewMemoryTxStore(),
	}
	closeFn := func() {}

	switch w.CoinType {
	case "btc":
		deps.BTCExplorer = btc.NewBlockCypherExplorer(cfg.BTCExplorerHost)
	case "eth":
		fetcher, err := eth.DialBalanceFetcher(ctx, cfg.ETHWebsocketURL)
		if err != nil {
			return wallet.Deps{}, nil, fmt.Errorf("walletctl: dial eth websocket: %w", err)
		}
		deps.ETHFetcher = fetcher
		closeFn = fetcher.Close
	}
	return deps, closeFn, nil
}
