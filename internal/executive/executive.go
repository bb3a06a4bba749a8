// Package executive defines the account-model VM driver contract spec §6
// names as an external collaborator: initialize/execute/go/finalize plus
// gas accounting and logs. The core only ever calls through this
// interface; a concrete VM (WASM, EVM, or otherwise) is out of scope (spec
// §1's "the account-model virtual machine and its executive").
//
// The balance-transfer hook is modeled as a function value injected at
// construction time (spec §9's design note: "model as a capability
// parameter... rather than a base-class method override"), not as a method
// an implementation overrides.
package executive

import (
	"fmt"

	"github.com/qtumcore/statebridge/internal/bridgeerrors"
	"github.com/qtumcore/statebridge/internal/types"
)

// TransferHook observes one intra-VM balance transfer (spec §4.2): every
// successful transfer of value from `from` to `to` calls this exactly
// once, in order, after the executive has already applied subBalance/
// addBalance to its own account view.
type TransferHook func(from, to types.Address, value *types.U256)

// AccountCreditor is the executive's capability to credit a destination
// account (spec §4.4's "addBalance override"): if addr does not yet exist
// and a create-address was reserved for this transaction, the credit is
// transparently retargeted there instead, consuming the reservation. It
// returns the address actually credited, which may differ from addr.
type AccountCreditor func(addr types.Address, amount *types.U256) (types.Address, error)

// Log is an opaque VM log entry; the core only ever carries these through
// to the receipt (spec §6's `logs()`), never inspects them.
type Log struct {
	Address types.Address
	Topics  []types.Hash256
	Data    []byte
}

// Result is the executive's own result record, distinct from the
// StateExecutor's receipt: gas used, the exception kind (None on success),
// and any VM logs. StateExecutor's SetResultRecipient wires one of these in
// before running the executive so the executive can fill it in as it goes,
// mirroring spec §6's `setResultRecipient(&res)`.
type Result struct {
	GasUsed  uint64
	Excepted bridgeerrors.TransactionExceptionKind
	NewAddress types.Address
	Logs     []Log
}

// Exception is the typed error an Executive's Execute/Go/Finalize may
// return; StateExecutor's exception branch (spec §4.4 step 5) reads Kind
// into res.excepted.
type Exception struct {
	Kind bridgeerrors.TransactionExceptionKind
	Err  error
}

func (e *Exception) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Exception) Unwrap() error { return e.Err }

// OnOp is called once per VM step when Go drives execution to completion;
// the core passes it through unexamined (spec §4.4 step 3).
type OnOp func()

// Executive is the account-model VM driver contract (spec §6).
type Executive interface {
	// Initialize prepares the executive to run tx.
	Initialize(tx *types.Transaction) error
	// Execute begins execution, returning true if it already ran to
	// completion (no further Go call needed), or an *Exception on failure.
	Execute() (finished bool, err error)
	// Go drives execution to completion, invoking onOp once per VM step.
	Go(onOp OnOp) error
	// Finalize completes bookkeeping after Execute/Go return successfully.
	Finalize() error
	// GasUsed reports gas consumed so far.
	GasUsed() uint64
	// Logs returns the VM logs accumulated during execution.
	Logs() []Log
	// SetResultRecipient wires res so Initialize/Execute/Finalize can
	// populate it as they run.
	SetResultRecipient(res *Result)
}

// Factory builds a fresh Executive bound to hook and credit for one
// transaction's execution. StateExecutor calls this once per Execute
// invocation (spec §4.4 step 3's "build an executive over the current
// state and env").
type Factory func(hook TransferHook, credit AccountCreditor) Executive
