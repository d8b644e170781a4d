package btc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// BlockCypherHost is the default BlockCypher API root this wallet queries
// for UTXOs, grounded on original_source/src/btc/utils.rs's
// BLOCK_CYPHER_HOST. The CLI passes config's BTCExplorerHost instead.
const BlockCypherHost = "https://api.blockcypher.com/v1/btc/test3"

// Utxo is one unspent transaction output belonging to a wallet address,
// mirroring original_source/src/dto/btc.rs's UtxoAggregator.
type Utxo struct {
	Address string
	TxHash  string
	TxPos   uint32
	Value   int64 // satoshis
	Height  int64
}

// Explorer looks up unspent outputs for an address and broadcasts signed
// transactions. Implemented against BlockCypher here; any block explorer
// with an equivalent UTXO listing endpoint can satisfy it.
type Explorer interface {
	ListUnspent(ctx context.Context, address string) ([]Utxo, error)
	Broadcast(ctx context.Context, rawTxHex string) (string, error)
}

// BlockCypherExplorer implements Explorer against the BlockCypher REST API.
type BlockCypherExplorer struct {
	HTTPClient *http.Client
	Host       string
}

// NewBlockCypherExplorer returns an Explorer against host (BlockCypherHost
// for the default network).
func NewBlockCypherExplorer(host string) *BlockCypherExplorer {
	return &BlockCypherExplorer{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Host:       host,
	}
}

type blockCypherTxRef struct {
	TxHash      string `json:"tx_hash"`
	TxOutputN   int    `json:"tx_output_n"`
	Value       int64  `json:"value"`
	BlockHeight int64  `json:"block_height"`
}

type blockCypherAddress struct {
	TxRefs []blockCypherTxRef `json:"txrefs"`
}

// ListUnspent fetches the unspent outputs currently held by address.
func (e *BlockCypherExplorer) ListUnspent(ctx context.Context, address string) ([]Utxo, error) {
	url := fmt.Sprintf("%s/addrs/%s?unspentOnly=true", e.Host, address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("btc: build unspent request: %w", err)
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("btc: fetch unspent outputs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("btc: explorer returned status %d for %s", resp.StatusCode, address)
	}

	var parsed blockCypherAddress
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("btc: decode unspent response: %w", err)
	}

	utxos := make([]Utxo, 0, len(parsed.TxRefs))
	for _, ref := range parsed.TxRefs {
		if ref.TxOutputN < 0 {
			continue // BlockCypher marks unconfirmed spends with a negative output index
		}
		utxos = append(utxos, Utxo{
			Address: address,
			TxHash:  ref.TxHash,
			TxPos:   uint32(ref.TxOutputN),
			Value:   ref.Value,
			Height:  ref.BlockHeight,
		})
	}
	return utxos, nil
}

// Broadcast submits a raw signed transaction and returns the resulting
// transaction hash.
func (e *BlockCypherExplorer) Broadcast(ctx context.Context, rawTxHex string) (string, error) {
	url := fmt.Sprintf("%s/txs/push", e.Host)
	body, err := json.Marshal(map[string]string{"tx": rawTxHex})
	if err != nil {
		return "", fmt.Errorf("btc: encode broadcast payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("btc: build broadcast request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("btc: broadcast transaction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("btc: explorer rejected broadcast with status %d", resp.StatusCode)
	}

	var parsed struct {
		Tx struct {
			Hash string `json:"hash"`
		} `json:"tx"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("btc: decode broadcast response: %w", err)
	}
	return parsed.Tx.Hash, nil
}
