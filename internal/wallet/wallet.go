// Package wallet is the stateful facade tying a 2P-ECDSA private share,
// its derived-address map, and a coin type together, orchestrating keygen,
// address derivation, send, rotate, backup, and recovery. Its send path
// follows an idempotency-check -> build -> sign -> broadcast control flow;
// Rotate logs its outcome with log/slog.
package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lindellwallet/client/internal/btc"
	"github.com/lindellwallet/client/internal/curve"
	"github.com/lindellwallet/client/internal/escrow"
	"github.com/lindellwallet/client/internal/eth"
	"github.com/lindellwallet/client/internal/keyshare"
	"github.com/lindellwallet/client/internal/mpc"
	"github.com/lindellwallet/client/internal/transport"
	"github.com/lindellwallet/client/internal/walleterr"
	"github.com/lindellwallet/client/pkg/models"
)

// Wallet is the persisted, single-owner state: a private share, the coin
// type and network it derives addresses for, the high-water mark of
// derived positions, and the map from every address ever produced back to
// the child key that can spend it.
type Wallet struct {
	ID                     string               `json:"id"`
	CoinType               models.CoinType      `json:"coin_type"`
	Network                string               `json:"network"`
	PrivateShare           *mpc.PrivateShare    `json:"private_share"`
	LastDerivedPos         uint32               `json:"last_derived_pos"`
	AddressesDerivationMap map[string]mpc.MKPos `json:"addresses_derivation_map"`

	path   string
	logger *slog.Logger
}

// New runs the full keygen ceremony against rq and returns a freshly
// persisted Wallet shell with no derived addresses yet.
func New(ctx context.Context, rq transport.Requester, coinType models.CoinType, network, walletFile string) (*Wallet, error) {
	share, err := mpc.GenerateKey(ctx, rq)
	if err != nil {
		return nil, walleterr.New(walleterr.Protocol, "wallet.New", err)
	}

	w := &Wallet{
		ID:                     share.ID,
		CoinType:               coinType,
		Network:                network,
		PrivateShare:           share,
		LastDerivedPos:         0,
		AddressesDerivationMap: make(map[string]mpc.MKPos),
		path:                   walletFile,
		logger:                 slog.Default().With("component", "wallet", "id", share.ID),
	}
	if err := w.Save(); err != nil {
		return nil, fmt.Errorf("wallet: persist new wallet: %w", err)
	}
	return w, nil
}

// Load reads a previously persisted Wallet from path.
func Load(path string) (*Wallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wallet: read %s: %w", path, err)
	}
	var w Wallet
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, walleterr.New(walleterr.Deserialize, "wallet.Load", fmt.Errorf("decode %s: %w", path, err))
	}
	w.path = path
	w.logger = slog.Default().With("component", "wallet", "id", w.ID)
	if w.AddressesDerivationMap == nil {
		w.AddressesDerivationMap = make(map[string]mpc.MKPos)
	}
	return &w, nil
}

// Save atomically persists the wallet: write to a temp file in the same
// directory, then rename over the destination, so a crash mid-write never
// leaves a truncated wallet.json.
func (w *Wallet) Save() error {
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return walleterr.New(walleterr.Serialize, "wallet.Save", err)
	}

	dir := filepath.Dir(w.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("wallet: create %s: %w", dir, err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".wallet-*.tmp")
	if err != nil {
		return fmt.Errorf("wallet: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("wallet: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("wallet: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("wallet: rename into place: %w", err)
	}
	return nil
}

// masterKey2 returns the wallet's current share decoded into a usable MasterKey2.
func (w *Wallet) masterKey2() (*keyshare.MasterKey2, error) {
	return w.PrivateShare.MasterKey2()
}

// DeriveNewKey is the pure child-key derivation: given the current share
// and a position, it returns (pos+1, child), always the master's child at
// index pos+1 — the same child for the same (share, pos) pair, never
// reused across a rotation.
func (w *Wallet) DeriveNewKey(pos uint32) (uint32, *keyshare.MasterKey2, error) {
	mk, err := w.masterKey2()
	if err != nil {
		return 0, nil, fmt.Errorf("wallet: decode master key: %w", err)
	}
	nextPos := pos + 1
	child, _, err := mk.DeriveChildKey(nextPos, w.PrivateShare.ChainCode)
	if err != nil {
		return 0, nil, fmt.Errorf("wallet: derive child %d: %w", nextPos, err)
	}
	return nextPos, child, nil
}

// Derived returns the child key and position bound to address, or false if
// address was never derived by this wallet.
func (w *Wallet) Derived(address string) (mpc.MKPos, bool) {
	mkPos, ok := w.AddressesDerivationMap[address]
	return mkPos, ok
}

// Rotate runs the proactive key-rotation protocol, replaces the wallet's
// share only once rotation succeeds, then clears and rebuilds the address
// derivation map by re-deriving every index 0..last_derived_pos under the
// new master, preserving the joint public key throughout.
func (w *Wallet) Rotate(ctx context.Context, rq transport.Requester) error {
	mk, err := w.masterKey2()
	if err != nil {
		return fmt.Errorf("wallet: decode master key: %w", err)
	}

	rotated, err := mpc.RotatePrivateShare(ctx, rq, w.ID, mk)
	if err != nil {
		return walleterr.New(walleterr.Protocol, "wallet.Rotate", err)
	}

	newShare := mpc.NewPrivateShare(w.ID, rotated, w.PrivateShare.ChainCode)
	rebuilt := make(map[string]mpc.MKPos, len(w.AddressesDerivationMap))

	for pos := uint32(0); pos <= w.LastDerivedPos; pos++ {
		child, _, err := rotated.DeriveChildKey(pos, newShare.ChainCode)
		if err != nil {
			return fmt.Errorf("wallet: re-derive index %d after rotation: %w", pos, err)
		}
		addr, err := w.addressFor(child)
		if err != nil {
			return fmt.Errorf("wallet: re-derive address for index %d: %w", pos, err)
		}
		rebuilt[addr] = mpc.NewMKPos(pos, child)
	}

	w.PrivateShare = newShare
	w.AddressesDerivationMap = rebuilt
	if w.logger != nil {
		w.logger.Info("rotation complete", "addresses_rederived", len(rebuilt))
	}
	return w.Save()
}

// Backup encrypts the wallet's client share under escrowPublic and proves
// the encryption matches the share's public commitment, returning the JSON
// blob persisted to wallet/backup.data.
func (w *Wallet) Backup(escrowPublic *curve.Point) ([]byte, error) {
	mk, err := w.masterKey2()
	if err != nil {
		return nil, fmt.Errorf("wallet: decode master key: %w", err)
	}
	backup, err := escrow.BackupClientMK(escrowPublic, mk, w.PrivateShare.ChainCode, w.ID)
	if err != nil {
		return nil, walleterr.New(walleterr.Protocol, "wallet.Backup", err)
	}
	data, err := json.Marshal(backup)
	if err != nil {
		return nil, walleterr.New(walleterr.Serialize, "wallet.Backup", err)
	}
	return data, nil
}

// VerifyBackup checks that a previously produced backup blob still proves
// correctly against escrowPublic, without needing the escrow secret.
func VerifyBackup(escrowPublic *curve.Point, backupJSON []byte) error {
	var backup escrow.Backup
	if err := json.Unmarshal(backupJSON, &backup); err != nil {
		return walleterr.New(walleterr.Deserialize, "wallet.VerifyBackup", err)
	}
	if err := escrow.VerifyClientBackup(escrowPublic, &backup); err != nil {
		return walleterr.New(walleterr.Protocol, "wallet.VerifyBackup", err)
	}
	return nil
}

// RecoverAndSaveShare reconstructs a PrivateShare from an escrow-decrypted
// backup blob alone, asks the server only for its last-known derivation
// position, re-derives the address map up through that position, and persists
// the result as a fresh Wallet at walletFile.
func RecoverAndSaveShare(ctx context.Context, rq transport.Requester, esc *escrow.Escrow, backupJSON []byte, coinType models.CoinType, network, walletFile string, addressFor func(*keyshare.MasterKey2) (string, error)) (*Wallet, error) {
	var backup escrow.Backup
	if err := json.Unmarshal(backupJSON, &backup); err != nil {
		return nil, walleterr.New(walleterr.Deserialize, "wallet.RecoverAndSaveShare", err)
	}

	mk, err := escrow.RecoverClientShare(esc.Secret, &backup)
	if err != nil {
		return nil, walleterr.New(walleterr.Protocol, "wallet.RecoverAndSaveShare", err)
	}

	posOld, err := mpc.RecoverShare(ctx, rq, backup.ID)
	if err != nil {
		return nil, walleterr.New(walleterr.Protocol, "wallet.RecoverAndSaveShare", err)
	}

	newShare := mpc.NewPrivateShare(backup.ID, mk, backup.ChainCode)

	w := &Wallet{
		ID:                     backup.ID,
		CoinType:               coinType,
		Network:                network,
		PrivateShare:           newShare,
		LastDerivedPos:         posOld,
		AddressesDerivationMap: make(map[string]mpc.MKPos, posOld+1),
		path:                   walletFile,
		logger:                 slog.Default().With("component", "wallet", "id", backup.ID),
	}

	for pos := uint32(0); pos <= posOld; pos++ {
		child, _, err := mk.DeriveChildKey(pos, backup.ChainCode)
		if err != nil {
			return nil, fmt.Errorf("wallet: re-derive index %d during recovery: %w", pos, err)
		}
		addr, err := addressFor(child)
		if err != nil {
			return nil, fmt.Errorf("wallet: derive address for index %d during recovery: %w", pos, err)
		}
		w.AddressesDerivationMap[addr] = mpc.NewMKPos(pos, child)
	}

	if err := w.Save(); err != nil {
		return nil, fmt.Errorf("wallet: persist recovered wallet: %w", err)
	}
	return w, nil
}

// addressFor derives the chain-appropriate address string for child,
// dispatching on the wallet's coin type.
func (w *Wallet) addressFor(child *keyshare.MasterKey2) (string, error) {
	return AddressFor(w.CoinType, w.Network, child)
}

// AddressFor derives the chain-appropriate address string for child under
// coinType/network, usable before a Wallet exists (e.g. while rebuilding
// the address map during RecoverAndSaveShare).
func AddressFor(coinType models.CoinType, network string, child *keyshare.MasterKey2) (string, error) {
	switch coinType {
	case models.CoinBTC:
		params, err := btc.Network(network)
		if err != nil {
			return "", err
		}
		addr, err := btc.Address(child.Public.Q, params)
		if err != nil {
			return "", err
		}
		return addr.EncodeAddress(), nil
	case models.CoinETH:
		return eth.Address(child.Public.Q), nil
	default:
		return "", fmt.Errorf("wallet: unknown coin type %q", coinType)
	}
}
