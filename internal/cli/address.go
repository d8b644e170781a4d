package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var newAddressCmd = &cobra.Command{
	Use:   "new-address",
	Short: "Derive and print the wallet's next address",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWallet()
		if err != nil {
			return err
		}
		addr, err := w.GetCryptoAddress()
		if err != nil {
			return err
		}
		fmt.Println(addr)
		return nil
	},
}

func init() {
	walletCmd.AddCommand(newAddressCmd)
}
