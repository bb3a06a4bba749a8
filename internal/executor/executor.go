// Package executor implements StateExecutor (spec §4.4): the six-step
// protocol that drives one transaction through the executive, observes its
// transfers, and on success hands them to CondensingBuilder and commits
// both tries via CommitCoordinator. It is the orchestration layer spec §2
// calls the largest single component (~40% of the budget), grounded on the
// teacher's top-level service-orchestration methods (e.g.
// internal/consensus's block-processing loop) for its step-by-step,
// heavily logged structure.
package executor

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/qtumcore/statebridge/internal/accounts"
	"github.com/qtumcore/statebridge/internal/addrderive"
	"github.com/qtumcore/statebridge/internal/bridgeerrors"
	"github.com/qtumcore/statebridge/internal/chainparams"
	"github.com/qtumcore/statebridge/internal/commit"
	"github.com/qtumcore/statebridge/internal/condense"
	"github.com/qtumcore/statebridge/internal/executive"
	"github.com/qtumcore/statebridge/internal/logging"
	"github.com/qtumcore/statebridge/internal/types"
	"github.com/qtumcore/statebridge/internal/vinstore"
)

// Env is the minimal block environment the executor reads: the current gas
// meter and the block number CommitCoordinator's fork-height gate compares
// against (spec §4.4 step 3, §4.6).
type Env struct {
	BlockNumber uint64
	GasUsed     uint64
	// Author is the block's beneficiary address. On a successful
	// (non-Reverted) execution it is deleted alongside the sender (spec
	// §4.4 step 5; confirmed against the original's
	// `deleteAddresses = {_t.sender(), _envInfo.author()}`), since both are
	// ephemeral balance holders the condensing transaction replaces with
	// UTXO outputs.
	Author types.Address
}

// Receipt is the core's own output record (spec §4.4 step 6): the
// post-execution state root, cumulative gas used, and the executive's
// logs.
type Receipt struct {
	RootHash types.Hash256
	GasUsed  uint64
	Logs     []executive.Log
}

// Executor ties together the account trie, the Vin store, and a factory
// for building a fresh executive per transaction.
type Executor struct {
	accounts *accounts.Trie
	vins     *vinstore.Store
	newExec  executive.Factory
	params   chainparams.Params
	log      *zap.SugaredLogger
}

func New(accountTrie *accounts.Trie, vinStore *vinstore.Store, newExec executive.Factory, params chainparams.Params) *Executor {
	return &Executor{
		accounts: accountTrie,
		vins:     vinStore,
		newExec:  newExec,
		params:   params,
		log:      logging.New("executor"),
	}
}

// transactionScope carries spec §9's "these are transaction-scoped values"
// re-architecture: transfers and the reserved create-address, created
// fresh per Execute call and never aliased as mutable fields on Executor
// itself. The Vin staging map is not part of it: it lives in the shared
// vinstore.Store.
type transactionScope struct {
	transfers  types.TransferLog
	newAddress *types.Address
}

func (s *transactionScope) hook(from, to types.Address, value *types.U256) {
	s.transfers = s.transfers.Append(from, to, value)
}

// Execute runs the six-step protocol of spec §4.4 for tx under env and
// permanence, calling onOp once per VM step if the executive does not run
// to completion synchronously.
func (e *Executor) Execute(env Env, tx *types.Transaction, permanence types.Permanence, onOp executive.OnOp) (*executive.Result, *Receipt, error) {
	scope := &transactionScope{}

	// Step 1: pre-credit the sender with value + gas*gasPrice.
	gasFee := new(types.U256).Mul(types.NewU256(tx.Gas()), tx.GasPrice())
	precredit, overflow := types.AddChecked(tx.Value(), gasFee)
	if overflow {
		return nil, nil, fmt.Errorf("executor: pre-credit overflow for %s", tx.Sender().Hex())
	}
	if _, err := e.accounts.AddBalance(tx.Sender(), precredit, e.params.AccountStartNonce, nil); err != nil {
		return nil, nil, fmt.Errorf("executor: pre-credit: %w", err)
	}

	// Step 2: reserve a create-address for a creation transaction.
	reservation := accounts.NewReservation(types.Address{})
	if tx.IsCreation() {
		addr, err := addrderive.CreateAddress(tx.GetHashWith(), tx.GetNVout())
		if err != nil {
			return nil, nil, fmt.Errorf("executor: reserve create address: %w", err)
		}
		scope.newAddress = &addr
		reservation = accounts.NewReservation(addr)
	}

	// Step 3: run the executive. Crediting any destination account goes
	// through AccountCreditor so the addBalance override (spec §4.4) can
	// transparently retarget to the reserved create-address the first time
	// it credits a brand-new account.
	credit := func(addr types.Address, amount *types.U256) (types.Address, error) {
		return e.accounts.AddBalance(addr, amount, e.params.AccountStartNonce, reservation)
	}
	exec := e.newExec(scope.hook, credit)
	res := &executive.Result{}
	exec.SetResultRecipient(res)

	startGasUsed := env.GasUsed

	excErr := e.runExecutive(exec, tx, onOp)

	// Step 4/5: permanence and exception branches.
	if excErr != nil {
		var exc *executive.Exception
		if errors.As(excErr, &exc) {
			res.Excepted = exc.Kind
		} else {
			res.Excepted = bridgeerrors.ExceptionUnknown
		}
		e.log.Errorw("executive exception", "exception", excErr.Error(), "sender", tx.Sender().Hex())

		if permanence != types.Reverted {
			e.accounts.Kill(tx.Sender())
			if _, err := e.accounts.Commit(env.BlockNumber >= e.params.EIP158ForkBlock, e.params.AccountStartNonce); err != nil {
				return nil, nil, fmt.Errorf("executor: commit after exception: %w", err)
			}
		} else {
			e.accounts.Discard()
		}

		root, err := e.accounts.RootHash()
		if err != nil {
			return nil, nil, fmt.Errorf("executor: root hash after exception: %w", err)
		}
		e.finishResult(res, tx)
		scope.transfers = nil
		return res, &Receipt{RootHash: root, GasUsed: startGasUsed + exec.GasUsed(), Logs: exec.Logs()}, nil
	}

	if permanence == types.Reverted {
		e.accounts.Discard()
		root, err := e.accounts.RootHash()
		if err != nil {
			return nil, nil, fmt.Errorf("executor: root hash after revert: %w", err)
		}
		e.finishResult(res, tx)
		scope.transfers = nil
		return res, &Receipt{RootHash: root, GasUsed: startGasUsed + exec.GasUsed(), Logs: exec.Logs()}, nil
	}

	// Success path: delete ephemeral balance holders (sender and block
	// author, per spec §4.4 step 5 and the original's
	// `deleteAddresses = {_t.sender(), _envInfo.author()}`), condense, commit.
	e.accounts.Kill(tx.Sender())
	e.accounts.Kill(env.Author)

	root, err := e.condenseAndCommit(env, scope, tx)
	if err != nil {
		if errors.Is(err, bridgeerrors.ErrValueConservation) {
			e.log.Warnw("value conservation failure, treating as revert", "sender", tx.Sender().Hex())
			e.accounts.Discard()
			res.Excepted = bridgeerrors.ExceptionUnknown
			rootAfterDiscard, rerr := e.accounts.RootHash()
			if rerr != nil {
				return nil, nil, fmt.Errorf("executor: root hash after conservation failure: %w", rerr)
			}
			e.finishResult(res, tx)
			scope.transfers = nil
			return res, &Receipt{RootHash: rootAfterDiscard, GasUsed: startGasUsed + exec.GasUsed(), Logs: exec.Logs()}, nil
		}
		return nil, nil, err
	}

	e.finishResult(res, tx)
	scope.transfers = nil
	return res, &Receipt{RootHash: root, GasUsed: startGasUsed + exec.GasUsed(), Logs: exec.Logs()}, nil
}

func (e *Executor) runExecutive(exec executive.Executive, tx *types.Transaction, onOp executive.OnOp) error {
	if err := exec.Initialize(tx); err != nil {
		return err
	}
	finished, err := exec.Execute()
	if err != nil {
		return err
	}
	if !finished {
		if err := exec.Go(onOp); err != nil {
			return err
		}
	}
	return exec.Finalize()
}

// condenseAndCommit implements the rest of step 4's non-Reverted half,
// after Execute has killed the sender and author accounts: run
// CondensingBuilder if there were any transfers,
// apply newVins via updateUTXO, and commit both tries through
// CommitCoordinator.
func (e *Executor) condenseAndCommit(env Env, scope *transactionScope, tx *types.Transaction) (types.Hash256, error) {
	if len(scope.transfers) > 0 {
		result, err := condense.Build(scope.transfers, e.vins, e.accounts, tx)
		if err != nil {
			return types.Hash256{}, err
		}
		e.updateUTXO(result.NewVins)
	}

	coordinator := commit.New(e.vins, e.accounts, e.params)
	return coordinator.Commit(env.BlockNumber)
}

// updateUTXO applies newVins to VinStore (spec §4.4): overwrite an
// existing Vin in place, or stage a brand-new live one.
func (e *Executor) updateUTXO(newVins map[types.Address]types.Vin) {
	for addr, v := range newVins {
		existing, found, err := e.vins.Get(addr)
		if err != nil {
			e.log.Errorw("updateUTXO lookup failed, staging anyway", "address", addr.Hex(), "error", err)
			existing, found = types.Vin{}, false
		}
		if found {
			existing.Hash, existing.NVout, existing.Value, existing.Alive = v.Hash, v.NVout, v.Value, v.Alive
			e.vins.Stage(addr, existing)
			continue
		}
		if v.Alive > 0 {
			e.vins.Stage(addr, v)
		}
	}
}

// finishResult implements step 6's non-creation branch: a non-creation
// call's result always names the receiving address. Clearing the
// transfer log is left to each of Execute's return paths.
func (e *Executor) finishResult(res *executive.Result, tx *types.Transaction) {
	if !tx.IsCreation() {
		res.NewAddress = tx.ReceiveAddress()
	}
}
