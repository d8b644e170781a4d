package cli

import (
	"github.com/spf13/cobra"
)

// walletCmd groups the operations available on an existing wallet: new
// address, get-balance, backup, verify, restore, rotate, and send.
var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Operate on an existing wallet",
}

func init() {
	rootCmd.AddCommand(walletCmd)
}
