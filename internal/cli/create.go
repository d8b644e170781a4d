package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lindellwallet/client/internal/wallet"
	"github.com/lindellwallet/client/pkg/models"
)

var createWalletCmd = &cobra.Command{
	Use:   "create-wallet",
	Short: "Run keygen against the co-signing server and persist a new wallet",
	RunE: func(cmd *cobra.Command, args []string) error {
		coinType, _ := cmd.Flags().GetString("coin-type")
		token, _ := cmd.Flags().GetString("token")
		if coinType != "btc" && coinType != "eth" {
			return fmt.Errorf("--coin-type must be btc or eth, got %q", coinType)
		}
		if token != "" {
			cfg.AuthToken = token
		}

		w, err := wallet.New(cmd.Context(), requester(), models.CoinType(coinType), networkName(), cfg.WalletFile)
		if err != nil {
			return err
		}
		fmt.Printf("created %s wallet %s at %s\n", coinType, w.ID, cfg.WalletFile)
		return nil
	},
}

func init() {
	createWalletCmd.Flags().String("coin-type", "", "btc or eth (required)")
	createWalletCmd.Flags().String("token", "", "bearer token for the co-signing server")
	createWalletCmd.MarkFlagRequired("coin-type")
	rootCmd.AddCommand(createWalletCmd)
}
