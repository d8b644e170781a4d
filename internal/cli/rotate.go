package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Run proactive key rotation, re-deriving every address under the new share",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWallet()
		if err != nil {
			return err
		}
		if err := w.Rotate(cmd.Context(), requester()); err != nil {
			return err
		}
		fmt.Println("rotation complete, joint public key unchanged")
		return nil
	},
}

func init() {
	walletCmd.AddCommand(rotateCmd)
}
