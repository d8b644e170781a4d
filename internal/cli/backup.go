package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lindellwallet/client/internal/escrow"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Encrypt the wallet's client share under the escrow key and write backup.data",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWallet()
		if err != nil {
			return err
		}
		esc, err := escrow.LoadOrCreate(cfg.EscrowFile)
		if err != nil {
			return fmt.Errorf("walletctl: load escrow: %w", err)
		}
		data, err := w.Backup(esc.Public)
		if err != nil {
			return err
		}
		if err := os.WriteFile(cfg.BackupFile, data, 0o600); err != nil {
			return fmt.Errorf("walletctl: write %s: %w", cfg.BackupFile, err)
		}
		fmt.Printf("backup written to %s\n", cfg.BackupFile)
		return nil
	},
}

func init() {
	walletCmd.AddCommand(backupCmd)
}
