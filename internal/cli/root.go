// Package cli implements the walletctl command-line surface: a thin
// spf13/cobra front end over the internal/wallet facade, with
// configuration resolved by spf13/viper (flags > environment > config
// file > defaults).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lindellwallet/client/internal/config"
)

var (
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "walletctl",
	Short: "2P-ECDSA client wallet control",
	Long: `walletctl drives the client half of a two-party ECDSA wallet: it talks
to a remote co-signing server to generate and use a key share that by itself
can never produce a signature, derives per-chain addresses, and assembles
Bitcoin and Ethereum transactions for the distributed signing protocol to
sign.`,
}

// Execute runs the root command; main's sole responsibility is to call this
// and translate a non-nil error into a process exit code.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default none; falls back to environment)")
	rootCmd.PersistentFlags().String("endpoint", "", "co-signing server base URL")
	rootCmd.PersistentFlags().String("wallet-file", "", "path to the persisted wallet.json")
	rootCmd.PersistentFlags().String("network", "testnet", "bitcoin network (testnet or mainnet)")

	viper.BindPFlag("endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
	viper.BindPFlag("wallet_file", rootCmd.PersistentFlags().Lookup("wallet-file"))
	viper.BindPFlag("network", rootCmd.PersistentFlags().Lookup("network"))
}

func initConfig() {
	cfg = config.FromEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err == nil {
			fmt.Fprintln(os.Stderr, "walletctl: using config file", viper.ConfigFileUsed())
		}
	}

	viper.AutomaticEnv()

	if v := viper.GetString("endpoint"); v != "" {
		cfg.Endpoint = v
	}
	if v := viper.GetString("wallet_file"); v != "" {
		cfg.WalletFile = v
	}
	if v := viper.GetString("network"); v != "" && v != "testnet" {
		cfg.BTCMainnet = v == "mainnet"
	}
}
