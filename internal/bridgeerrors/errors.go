// Package bridgeerrors collects the sentinel error values the bridge
// returns, in the style of the teacher's per-package "--- Custom Errors
// for X ---" var blocks (e.g. internal/state/contract_state.go,
// internal/vm/vm.go): one errors.New per failure mode, wrapped with
// fmt.Errorf("%w: ...") at the call site for context.
package bridgeerrors

import "errors"

var (
	// ErrStateIntegrity corresponds to spec §7.3: a malformed persistent
	// Vin record. Unrecoverable at the transaction level.
	ErrStateIntegrity = errors.New("state integrity error: corrupt persistent record")

	// ErrValueConservation corresponds to spec §7.2: a participant's
	// incoming credits plus existing Vin value are less than its outgoing
	// debits. The condensing builder aborts and returns no transaction.
	ErrValueConservation = errors.New("value conservation failure")

	// ErrUnknownAccount names the unknown-account case of spec §7.4's
	// logic-precondition violations. No function in this module returns
	// it: accounts.Trie.Kill ignores an unknown account, and
	// accounts.Trie.SubBalance reports one with its own error message.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrTrieClosed names use of a trie store after it is closed. No
	// function in this module returns it; triestore.Trie has no Close step.
	ErrTrieClosed = errors.New("trie store closed")

	// ErrUnknownRoot is returned by triestore.Trie.SetRoot when asked to
	// reset to a root this trie has never committed.
	ErrUnknownRoot = errors.New("unknown trie root")
)

// TransactionExceptionKind mirrors spec §6/§7.1's TransactionExceptionKind:
// a small closed tag set the executive's thrown exceptions are converted
// to, stored verbatim in the executive Result's Excepted field.
type TransactionExceptionKind uint8

const (
	ExceptionNone TransactionExceptionKind = iota
	ExceptionBadNonce
	ExceptionOutOfGas
	ExceptionBadInstruction
	ExceptionRevertInstruction
	ExceptionInvalidSignature
	ExceptionNotEnoughCash
	ExceptionBlockGasLimitReached
	ExceptionUnknown
)

func (k TransactionExceptionKind) String() string {
	switch k {
	case ExceptionNone:
		return "None"
	case ExceptionBadNonce:
		return "BadNonce"
	case ExceptionOutOfGas:
		return "OutOfGas"
	case ExceptionBadInstruction:
		return "BadInstruction"
	case ExceptionRevertInstruction:
		return "RevertInstruction"
	case ExceptionInvalidSignature:
		return "InvalidSignature"
	case ExceptionNotEnoughCash:
		return "NotEnoughCash"
	case ExceptionBlockGasLimitReached:
		return "BlockGasLimitReached"
	default:
		return "Unknown"
	}
}
