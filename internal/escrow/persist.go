package escrow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type wireEscrow struct {
	Secret string `json:"secret"`
	Public string `json:"public"`
}

// Save writes e's keypair to path as hex-encoded JSON, creating parent
// directories as needed. Overwriting an existing escrow file orphans every
// backup produced against the old keypair, so callers should only call this
// once per installation.
func (e *Escrow) Save(path string) error {
	w := wireEscrow{Secret: scalarHex(e.Secret), Public: pointHex(e.Public)}
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("escrow: marshal keypair: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("escrow: create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("escrow: write %s: %w", path, err)
	}
	return nil
}

// Load reads a previously Saved escrow keypair from path.
func Load(path string) (*Escrow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("escrow: read %s: %w", path, err)
	}
	var w wireEscrow
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("escrow: decode %s: %w", path, err)
	}
	secret, err := decodeScalarHex(w.Secret)
	if err != nil {
		return nil, err
	}
	public, err := decodePointHex(w.Public)
	if err != nil {
		return nil, err
	}
	return &Escrow{Secret: secret, Public: public}, nil
}

// LoadOrCreate loads the escrow keypair at path, generating and persisting
// a fresh one on first use — the escrow keypair is generated once per
// installation and reused across every backup.
func LoadOrCreate(path string) (*Escrow, error) {
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("escrow: stat %s: %w", path, err)
	}

	e, err := NewEscrow()
	if err != nil {
		return nil, err
	}
	if err := e.Save(path); err != nil {
		return nil, err
	}
	return e, nil
}
