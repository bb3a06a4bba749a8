// Package executivetest provides a scripted Executive implementation
// standing in for the real account-model VM (spec §1 places the executive
// itself out of scope). It is used both by internal/executor's tests and
// by cmd/statebridged's demo command to drive the bridge end to end
// without a real VM. Grounded on the teacher's mock-heavy consensus tests
// (internal/consensus/pos_test.go builds small scripted Validator/POS
// fixtures rather than a full network), this applies the same "scripted
// fixture, not a fake framework" style to the executive contract.
package executivetest

import (
	"github.com/qtumcore/statebridge/internal/accounts"
	"github.com/qtumcore/statebridge/internal/executive"
	"github.com/qtumcore/statebridge/internal/types"
)

// Transfer is one balance movement the scripted executive performs when
// run, applying subBalance/addBalance to accounts and then invoking the
// transfer hook, exactly as spec §4.2 describes the real executive doing.
type Transfer struct {
	From  types.Address
	To    types.Address
	Value *types.U256
}

// Scripted is a fixed sequence of transfers plus an optional exception,
// applied in order when Execute runs.
type Scripted struct {
	transfers []Transfer
	exception *executive.Exception
	gasUsed   uint64
	accounts  *accounts.Trie

	hook   executive.TransferHook
	credit executive.AccountCreditor
	res    *executive.Result
}

// NewFactory builds an executive.Factory that produces a fresh *Scripted
// bound to hook and credit on each call, replaying the same transfers every
// time (matching spec §4.4 step 3's "build an executive over the current
// state and env" once per Execute call).
func NewFactory(transfers []Transfer, gasUsed uint64, exception *executive.Exception, accountTrie *accounts.Trie) executive.Factory {
	return func(hook executive.TransferHook, credit executive.AccountCreditor) executive.Executive {
		return &Scripted{
			transfers: transfers,
			exception: exception,
			gasUsed:   gasUsed,
			accounts:  accountTrie,
			hook:      hook,
			credit:    credit,
		}
	}
}

func (s *Scripted) Initialize(_ *types.Transaction) error {
	return nil
}

// Execute applies every scripted transfer's balance mutation and appends
// it to the transfer log via the hook, then returns the configured
// exception, if any. It always finishes synchronously: this fixture has no
// notion of a suspended VM step, so Go is never invoked.
//
// Crediting the destination goes through the injected AccountCreditor
// rather than straight to accounts.Trie, so a CREATE transaction's
// reserved address (spec §4.4's addBalance override) is exercised exactly
// as a real executive would.
func (s *Scripted) Execute() (bool, error) {
	for _, t := range s.transfers {
		if err := s.accounts.SubBalance(t.From, t.Value); err != nil {
			return true, err
		}
		actualTo, err := s.credit(t.To, t.Value)
		if err != nil {
			return true, err
		}
		s.hook(t.From, actualTo, t.Value)
	}
	if s.exception != nil {
		return true, s.exception
	}
	return true, nil
}

func (s *Scripted) Go(_ executive.OnOp) error {
	return nil
}

func (s *Scripted) Finalize() error {
	return nil
}

func (s *Scripted) GasUsed() uint64 {
	return s.gasUsed
}

func (s *Scripted) Logs() []executive.Log {
	return nil
}

func (s *Scripted) SetResultRecipient(res *executive.Result) {
	s.res = res
}
