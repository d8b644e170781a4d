package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lindellwallet/client/internal/escrow"
	"github.com/lindellwallet/client/internal/wallet"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that backup.data still proves correctly against the escrow public key",
	RunE: func(cmd *cobra.Command, args []string) error {
		esc, err := escrow.Load(cfg.EscrowFile)
		if err != nil {
			return fmt.Errorf("walletctl: load escrow: %w", err)
		}
		data, err := os.ReadFile(cfg.BackupFile)
		if err != nil {
			return fmt.Errorf("walletctl: read %s: %w", cfg.BackupFile, err)
		}
		if err := wallet.VerifyBackup(esc.Public, data); err != nil {
			return err
		}
		fmt.Println("backup verified")
		return nil
	},
}

func init() {
	walletCmd.AddCommand(verifyCmd)
}
