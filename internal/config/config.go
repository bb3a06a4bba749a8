// Package config binds the chain parameters spec §6 enumerates
// (accountStartNonce, EIP158ForkBlock) to cobra flags through viper,
// grounded on the combination the retrieval pack's ricky-setyawan-
// Avalanche-go and ethereum-go-ethereum repos both depend on for
// node-configuration surfaces, in place of the teacher's own bare
// package-level consts.
package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qtumcore/statebridge/internal/chainparams"
)

const (
	flagAccountStartNonce = "account-start-nonce"
	flagEIP158ForkBlock   = "eip158-fork-block"
)

// BindFlags registers the chain-parameter flags on cmd and binds them into
// v, so either a flag or an environment variable can supply a value with
// the usual viper precedence. No config file is read.
func BindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.PersistentFlags().Uint64(flagAccountStartNonce, 0, "starting nonce for newly created accounts")
	cmd.PersistentFlags().Uint64(flagEIP158ForkBlock, 0, "block number at which empty-account sweeping begins")

	_ = v.BindPFlag(flagAccountStartNonce, cmd.PersistentFlags().Lookup(flagAccountStartNonce))
	_ = v.BindPFlag(flagEIP158ForkBlock, cmd.PersistentFlags().Lookup(flagEIP158ForkBlock))

	v.SetEnvPrefix("STATEBRIDGE")
	v.AutomaticEnv()
}

// Load reads the bound values into a chainparams.Params.
func Load(v *viper.Viper) chainparams.Params {
	return chainparams.Params{
		AccountStartNonce: v.GetUint64(flagAccountStartNonce),
		EIP158ForkBlock:   v.GetUint64(flagEIP158ForkBlock),
	}
}
