// Package chainparams holds the chain-level configuration options spec §6
// enumerates: accountStartNonce and EIP158ForkBlock. The per-call
// permanence tag is not here; it is types.Permanence, passed to each
// Execute call. Both StateExecutor and CommitCoordinator read Params, so
// it lives in its own package rather than nested inside either, which
// would otherwise force one to import the other just for the struct
// definition.
package chainparams

// Params are the chain-level tunables the core reads but never mutates.
// cmd/statebridged binds these to cobra flags through viper
// (SPEC_FULL.md §1).
type Params struct {
	// AccountStartNonce is the nonce newly created accounts begin at.
	AccountStartNonce uint64
	// EIP158ForkBlock is the block number at which empty-account sweeping
	// is enabled during account-trie commits (spec §4.6).
	EIP158ForkBlock uint64
}
