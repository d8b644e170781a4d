package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lindellwallet/client/internal/eth"
	"github.com/lindellwallet/client/pkg/models"
)

var getBalanceCmd = &cobra.Command{
	Use:   "get-balance",
	Short: "Sum the on-chain balance across every address this wallet has derived",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWallet()
		if err != nil {
			return err
		}
		deps, closeFn, err := buildDeps(cmd.Context(), w)
		if err != nil {
			return err
		}
		defer closeFn()

		balance, err := w.GetBalance(cmd.Context(), deps)
		if err != nil {
			return err
		}

		if w.CoinType == models.CoinETH {
			fmt.Printf("%s wei (%s ETH)\n", balance.String(), eth.WeiToEth(balance))
		} else {
			fmt.Printf("%s satoshis\n", balance.String())
		}
		return nil
	},
}

func init() {
	walletCmd.AddCommand(getBalanceCmd)
}
