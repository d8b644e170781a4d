// Command walletctl is the operator-facing CLI front end for the 2P-ECDSA
// client wallet: create-wallet, new-address, get-balance, backup, verify,
// restore, rotate, and send.
package main

import (
	"fmt"
	"os"

	"github.com/lindellwallet/client/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "walletctl:", err)
		os.Exit(1)
	}
}
