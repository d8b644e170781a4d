package cli

import (
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lindellwallet/client/internal/walleterr"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Build, sign, and broadcast a transaction moving amount from this wallet to --to",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		amountStr, _ := cmd.Flags().GetString("amount")
		token, _ := cmd.Flags().GetString("token")
		if to == "" {
			return fmt.Errorf("--to is required")
		}
		amount, ok := new(big.Int).SetString(amountStr, 10)
		if !ok {
			return walleterr.New(walleterr.DecodeInput, "cli.send",
				fmt.Errorf("--amount must be an integer in the chain's smallest unit (satoshis or wei), got %q", amountStr))
		}
		if token != "" {
			cfg.AuthToken = token
		}

		w, err := loadWallet()
		if err != nil {
			return err
		}
		deps, closeFn, err := buildDeps(cmd.Context(), w)
		if err != nil {
			return err
		}
		defer closeFn()

		idempotencyKey := uuid.New().String()
		result, err := w.Send(cmd.Context(), deps, idempotencyKey, from, to, amount)
		if err != nil {
			return err
		}
		fmt.Printf("broadcast %s tx %s\n", w.CoinType, result.TxHash)
		return nil
	},
}

func init() {
	sendCmd.Flags().String("from", "", "source address (required for eth)")
	sendCmd.Flags().String("to", "", "destination address (required)")
	sendCmd.Flags().String("amount", "", "amount in the chain's smallest unit (satoshis or wei, required)")
	sendCmd.Flags().String("token", "", "bearer token for the co-signing server")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("amount")
	walletCmd.AddCommand(sendCmd)
}
