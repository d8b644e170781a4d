package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lindellwallet/client/internal/escrow"
	"github.com/lindellwallet/client/internal/keyshare"
	"github.com/lindellwallet/client/internal/wallet"
	"github.com/lindellwallet/client/pkg/models"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Reconstruct a wallet's private share from backup.data and the co-signing server",
	RunE: func(cmd *cobra.Command, args []string) error {
		coinType, _ := cmd.Flags().GetString("coin-type")
		if coinType != "btc" && coinType != "eth" {
			return fmt.Errorf("--coin-type must be btc or eth, got %q", coinType)
		}

		esc, err := escrow.Load(cfg.EscrowFile)
		if err != nil {
			return fmt.Errorf("walletctl: load escrow: %w", err)
		}
		data, err := os.ReadFile(cfg.BackupFile)
		if err != nil {
			return fmt.Errorf("walletctl: read %s: %w", cfg.BackupFile, err)
		}

		network := networkName()
		w, err := wallet.RecoverAndSaveShare(cmd.Context(), requester(), esc, data, models.CoinType(coinType), network, cfg.WalletFile,
			func(child *keyshare.MasterKey2) (string, error) {
				return wallet.AddressFor(models.CoinType(coinType), network, child)
			})
		if err != nil {
			return err
		}
		fmt.Printf("restored wallet %s to %s (last derived position %d)\n", w.ID, cfg.WalletFile, w.LastDerivedPos)
		return nil
	},
}

func init() {
	restoreCmd.Flags().String("coin-type", "", "btc or eth (required)")
	restoreCmd.MarkFlagRequired("coin-type")
	walletCmd.AddCommand(restoreCmd)
}
