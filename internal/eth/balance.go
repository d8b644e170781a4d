package eth

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// balanceFanoutLimit bounds how many eth_getBalance calls run concurrently
// over the shared connection; go-ethereum's rpc.Client multiplexes every
// concurrent call over the single websocket ethclient.DialContext opens,
// so this only limits in-flight requests, not connection count.
const balanceFanoutLimit = 8

// BalanceFetcher queries per-address ETH balances over a websocket JSON-RPC
// connection. Fan-out runs concurrently internally, but every exported
// method here blocks until the whole fan-out completes.
type BalanceFetcher struct {
	client *ethclient.Client
}

// DialBalanceFetcher opens a single websocket connection to wsURL (an
// ethereum JSON-RPC endpoint with scheme ws:// or wss://).
func DialBalanceFetcher(ctx context.Context, wsURL string) (*BalanceFetcher, error) {
	client, err := ethclient.DialContext(ctx, wsURL)
	if err != nil {
		return nil, fmt.Errorf("eth: dial websocket %s: %w", wsURL, err)
	}
	return &BalanceFetcher{client: client}, nil
}

// Close releases the underlying websocket connection.
func (f *BalanceFetcher) Close() {
	f.client.Close()
}

// SumBalances fetches the latest balance of every address in addrs and
// returns their sum in wei. A single failed lookup fails the whole call;
// the wallet facade has no partial-balance concept.
func (f *BalanceFetcher) SumBalances(ctx context.Context, addrs []string) (*big.Int, error) {
	if len(addrs) == 0 {
		return big.NewInt(0), nil
	}

	type result struct {
		balance *big.Int
		err     error
	}

	results := make([]result, len(addrs))
	sem := make(chan struct{}, balanceFanoutLimit)
	var wg sync.WaitGroup

	for i, addr := range addrs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, addr string) {
			defer wg.Done()
			defer func() { <-sem }()
			bal, err := f.client.BalanceAt(ctx, common.HexToAddress(addr), nil)
			results[i] = result{balance: bal, err: err}
		}(i, addr)
	}
	wg.Wait()

	total := new(big.Int)
	for i, r := range results {
		if r.err != nil {
			return nil, fmt.Errorf("eth: fetch balance for %s: %w", addrs[i], r.err)
		}
		total.Add(total, r.balance)
	}
	return total, nil
}
