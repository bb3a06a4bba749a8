// Package cli wires the bridge's components into a small cobra-driven
// demo binary, in the teacher's direct-construction style
// (cmd/empower1d/cli/cli.go builds one *cobra.Command tree by hand around
// a concrete *core.Blockchain rather than a DI container).
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qtumcore/statebridge/internal/accounts"
	"github.com/qtumcore/statebridge/internal/chainparams"
	"github.com/qtumcore/statebridge/internal/config"
	"github.com/qtumcore/statebridge/internal/executivetest"
	"github.com/qtumcore/statebridge/internal/executor"
	"github.com/qtumcore/statebridge/internal/triestore"
	"github.com/qtumcore/statebridge/internal/types"
	"github.com/qtumcore/statebridge/internal/vinstore"
)

// New builds the root command: `statebridged demo` and `statebridged
// inspect` both stand up an in-memory bridge instance, since there is no
// enclosing node here to persist a real chain (spec §1 places that out of
// scope).
func New() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "statebridged",
		Short: "demonstrates the account/UTXO state bridge core in isolation",
	}
	config.BindFlags(root, v)

	root.AddCommand(newDemoCmd(v))
	root.AddCommand(newInspectCmd(v))
	return root
}

func newBridge(params chainparams.Params) (*vinstore.Store, *accounts.Trie, error) {
	kv := triestore.OpenMemory()
	vinTrie := triestore.Open(kv, "vin/")
	acctTrie := triestore.Open(kv, "acct/")

	vins, err := vinstore.New(vinTrie)
	if err != nil {
		return nil, nil, fmt.Errorf("new vinstore: %w", err)
	}
	return vins, accounts.New(acctTrie), nil
}

func newDemoCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "runs one scripted transaction through the full bridge pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := config.Load(v)
			vins, accts, err := newBridge(params)
			if err != nil {
				return err
			}

			sender := types.Address{0x01}
			receiver := types.Address{0x02}
			author := types.Address{0xaa}

			factory := executivetest.NewFactory(
				[]executivetest.Transfer{{From: sender, To: receiver, Value: types.NewU256(100)}},
				21000, nil, accts,
			)

			ex := executor.New(accts, vins, factory, params)
			tx := &types.Transaction{
				From:          sender,
				To:            receiver,
				TxValue:       types.NewU256(100),
				GasLimit:      21000,
				GasPriceValue: types.NewU256(1),
			}

			res, receipt, err := ex.Execute(executor.Env{BlockNumber: 1, Author: author}, tx, types.Committed, nil)
			if err != nil {
				return fmt.Errorf("execute: %w", err)
			}
			fmt.Printf("excepted=%s newAddress=%s gasUsed=%d rootHash=%s\n",
				res.Excepted, res.NewAddress.Hex(), receipt.GasUsed, receipt.RootHash.Hex())

			vin, found, err := vins.Get(receiver)
			if err != nil {
				return err
			}
			fmt.Printf("receiver vin: found=%v value=%v alive=%d\n", found, vin.Value, vin.Alive)
			return nil
		},
	}
}

func newInspectCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "prints the live Vin snapshot for a freshly built, empty bridge instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := config.Load(v)
			vins, _, err := newBridge(params)
			if err != nil {
				return err
			}
			live, err := vins.SnapshotLive(nil)
			if err != nil {
				return err
			}
			fmt.Printf("live vins: %d\n", len(live))
			root, err := vins.Underlying().Hash()
			if err != nil {
				return err
			}
			fmt.Printf("vin trie root: %s\n", root.Hex())
			return nil
		},
	}
}
