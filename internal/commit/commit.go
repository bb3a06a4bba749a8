// Package commit implements CommitCoordinator (spec §4.6): the two-trie
// commit sequence on a successful execution. VinStore commits first, then
// the account trie, with empty-account sweeping gated by EIP158ForkBlock.
// Both tries share the same underlying overlay database (internal/
// triestore); this package fixes the order of the two commits. Each trie's
// Commit writes straight to that database, so the two commits are not
// grouped into one database transaction: an error in the account-trie
// commit leaves the Vin trie commit in place.
package commit

import (
	"fmt"

	"github.com/qtumcore/statebridge/internal/accounts"
	"github.com/qtumcore/statebridge/internal/chainparams"
	"github.com/qtumcore/statebridge/internal/logging"
	"github.com/qtumcore/statebridge/internal/types"
	"github.com/qtumcore/statebridge/internal/vinstore"
)

// Coordinator sequences the VinStore and account-trie commits.
type Coordinator struct {
	vins     *vinstore.Store
	accounts *accounts.Trie
	params   chainparams.Params
}

func New(vins *vinstore.Store, accountTrie *accounts.Trie, params chainparams.Params) *Coordinator {
	return &Coordinator{vins: vins, accounts: accountTrie, params: params}
}

// Commit runs VinStore.Commit() first, then the account trie's Commit with
// empty-account sweeping iff blockNumber >= EIP158ForkBlock (spec §4.6),
// and returns the resulting account-trie root.
func (c *Coordinator) Commit(blockNumber uint64) (types.Hash256, error) {
	log := logging.New("commit")

	if _, err := c.vins.Commit(); err != nil {
		return types.Hash256{}, fmt.Errorf("commit: vin store: %w", err)
	}

	sweep := blockNumber >= c.params.EIP158ForkBlock
	root, err := c.accounts.Commit(sweep, c.params.AccountStartNonce)
	if err != nil {
		return types.Hash256{}, fmt.Errorf("commit: account trie: %w", err)
	}

	log.Debugw("committed both tries", "blockNumber", blockNumber, "sweepEmpty", sweep, "root", root.Hex())
	return root, nil
}
