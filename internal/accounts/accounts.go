// Package accounts implements the account trie collaborator spec §6 names
// the core against: account(addr), createAccount, addressInUse,
// subBalance/addBalance, kill, commit, rootHash, addresses. It is grounded
// on internal/triestore for persistence and on go-ethereum's StateDB
// (core/state/statedb.go) for the shape of a dirty-account cache sitting in
// front of a trie, generalized from the EVM's full account record (code,
// storage root, nonce, balance) down to what the bridge actually needs:
// nonce and balance, plus the in-use/killed flags CondensingBuilder and
// StateExecutor read.
package accounts

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/qtumcore/statebridge/internal/logging"
	"github.com/qtumcore/statebridge/internal/triestore"
	"github.com/qtumcore/statebridge/internal/types"
)

// Account is the persisted record for one address: nonce and balance.
// in-use accounts (addressInUse) are those present in the cache or trie at
// all; CondensingBuilder's contract-sink-vs-P2PKH script choice (spec §4.3
// step 5) reads this through AddressInUse.
type Account struct {
	Nonce   uint64
	Balance *types.U256
	killed  bool
}

// Reservation wraps the create-address StateExecutor derives for a CREATE
// transaction (spec §4.4 step 2) and tracks whether it has already been
// consumed. A nil *Reservation, or one wrapping the zero address, behaves
// as "nothing reserved" — the common case for non-creation transactions.
type Reservation struct {
	addr     types.Address
	consumed bool
}

// NewReservation wraps addr for the lifetime of one transaction's
// Execute call. Passing the zero Address yields a Reservation that never
// retargets anything.
func NewReservation(addr types.Address) *Reservation {
	return &Reservation{addr: addr}
}

// Consumed reports whether this reservation has already redirected a
// credit once.
func (r *Reservation) Consumed() bool {
	return r != nil && r.consumed
}

// tryConsume mirrors the original's
// `if (!addressInUse(newAddress) && newAddress != Address()) { ...; newAddress = Address(); }`:
// it only retargets, and only consumes the reservation, if the reserved
// address isn't already in use. If it is, the reservation is left intact
// for a later, different absent-account credit in the same transaction.
func (r *Reservation) tryConsume(addressInUse func(types.Address) (bool, error)) (types.Address, bool, error) {
	if r == nil || r.consumed || r.addr == (types.Address{}) {
		return types.Address{}, false, nil
	}
	inUse, err := addressInUse(r.addr)
	if err != nil {
		return types.Address{}, false, err
	}
	if inUse {
		return types.Address{}, false, nil
	}
	r.consumed = true
	return r.addr, true, nil
}

func newAccount(nonce uint64, balance *types.U256) *Account {
	if balance == nil {
		balance = types.ZeroU256()
	}
	return &Account{Nonce: nonce, Balance: balance}
}

func (a *Account) encode() ([]byte, error) {
	return rlpEncodeAccount(a)
}

// Trie is the account trie: a dirty-account cache over a triestore.Trie,
// matching go-ethereum StateDB's stateObjects-over-trie shape (spec §6's
// `m_cache`).
type Trie struct {
	trie  *triestore.Trie
	cache map[types.Address]*Account
	dirty map[types.Address]bool
	log   *zap.SugaredLogger
}

func New(trie *triestore.Trie) *Trie {
	return &Trie{
		trie:  trie,
		cache: make(map[types.Address]*Account),
		dirty: make(map[types.Address]bool),
		log:   logging.New("accounts"),
	}
}

// Account returns the cached or persisted account for addr, or nil if it
// does not exist. Matches spec §6's `account(addr)`.
func (t *Trie) Account(addr types.Address) (*Account, error) {
	if acc, ok := t.cache[addr]; ok {
		if acc.killed {
			return nil, nil
		}
		return acc, nil
	}
	raw, found, err := t.trie.Get(addr.Bytes())
	if err != nil {
		return nil, fmt.Errorf("accounts: get %s: %w", addr.Hex(), err)
	}
	if !found {
		return nil, nil
	}
	acc, err := rlpDecodeAccount(raw)
	if err != nil {
		return nil, fmt.Errorf("accounts: decode %s: %w", addr.Hex(), err)
	}
	t.cache[addr] = acc
	return acc, nil
}

// CreateAccount materializes addr with the given starting nonce and
// balance, overwriting whatever was cached (spec §6's `createAccount(addr,
// {nonce, balance})`).
func (t *Trie) CreateAccount(addr types.Address, nonce uint64, balance *types.U256) {
	t.cache[addr] = newAccount(nonce, balance)
	t.dirty[addr] = true
}

// AddressInUse reports whether addr currently names a live account (spec
// §6's `addressInUse(addr)`), read by CondensingBuilder's script-choice
// step (spec §4.3 step 5).
func (t *Trie) AddressInUse(addr types.Address) (bool, error) {
	acc, err := t.Account(addr)
	if err != nil {
		return false, err
	}
	return acc != nil, nil
}

// AddBalance credits addr by amount, creating the account with the
// configured starting nonce if it does not already exist. If addr does not
// exist and reservation holds an unconsumed, not-already-in-use
// create-address, the credit is redirected there instead and the
// reservation is consumed (spec §4.4's addBalance override — "this is the
// only path by which newAddress is consumed"). reservation may be nil,
// meaning no redirection is possible; this is the normal case outside of
// crediting a CREATE transaction's freshly-minted contract account. It
// returns the address actually credited.
func (t *Trie) AddBalance(addr types.Address, amount *types.U256, startNonce uint64, reservation *Reservation) (types.Address, error) {
	acc, err := t.Account(addr)
	if err != nil {
		return types.Address{}, err
	}
	target := addr
	if acc == nil {
		if redirect, ok, err := reservation.tryConsume(t.AddressInUse); err != nil {
			return types.Address{}, err
		} else if ok {
			target = redirect
		}
		acc = newAccount(startNonce, types.ZeroU256())
		t.cache[target] = acc
	}
	sum, overflow := types.AddChecked(acc.Balance, amount)
	if overflow {
		return types.Address{}, fmt.Errorf("accounts: add balance overflow for %s", target.Hex())
	}
	acc.Balance = sum
	acc.killed = false
	t.dirty[target] = true
	return target, nil
}

// SubBalance debits addr by amount. Spec's checked-arithmetic invariant
// means an underflow here is a state-integrity bug in the caller (the
// executive is expected to have already checked sufficiency), so it
// returns an error rather than wrapping.
func (t *Trie) SubBalance(addr types.Address, amount *types.U256) error {
	acc, err := t.Account(addr)
	if err != nil {
		return err
	}
	if acc == nil {
		return fmt.Errorf("accounts: sub balance on unknown account %s", addr.Hex())
	}
	diff, ok := types.SubChecked(acc.Balance, amount)
	if !ok {
		return fmt.Errorf("accounts: sub balance underflow for %s", addr.Hex())
	}
	acc.Balance = diff
	t.dirty[addr] = true
	return nil
}

// Kill marks addr deleted, loading it from the trie first if it is not
// cached. An unknown address is a silent no-op, per spec §7's "logic
// precondition violations are silent no-ops by design"; so is an address
// whose persisted record cannot be read.
func (t *Trie) Kill(addr types.Address) {
	acc, err := t.Account(addr)
	if err != nil || acc == nil {
		return
	}
	acc.killed = true
	t.dirty[addr] = true
}

// Discard drops every uncommitted cache/dirty entry, used on the Reverted
// permanence branch (spec §4.4 step 4) to roll the account trie's
// in-memory view back to its last committed state.
func (t *Trie) Discard() {
	t.cache = make(map[types.Address]*Account)
	t.dirty = make(map[types.Address]bool)
}

// Addresses returns every address held in the in-memory cache (loaded or
// written since construction or the last Discard, killed ones included),
// in a stable order (spec §6's `addresses()`). Accounts that are only in
// the trie and were never loaded are not listed.
func (t *Trie) Addresses() []types.Address {
	addrs := make([]types.Address, 0, len(t.cache))
	for addr := range t.cache {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].Hex() < addrs[j].Hex()
	})
	return addrs
}

// Commit flushes dirty accounts to the trie. sweepEmpty implements
// EIP158-style empty-account sweeping (spec §4.6): an account with zero
// nonce, zero balance, and no code (this bridge never stores code, so
// "empty" is nonce == startNonce and balance == 0) is deleted rather than
// written, when sweepEmpty is true. Killed and swept accounts are also
// dropped from the cache, so later reads see them as absent.
func (t *Trie) Commit(sweepEmpty bool, startNonce uint64) (types.Hash256, error) {
	for addr := range t.dirty {
		acc := t.cache[addr]
		empty := acc == nil || acc.killed || (sweepEmpty && acc.Nonce == startNonce && acc.Balance.IsZero())
		if empty {
			if err := t.trie.Delete(addr.Bytes()); err != nil {
				return types.Hash256{}, fmt.Errorf("accounts: commit delete %s: %w", addr.Hex(), err)
			}
			delete(t.cache, addr)
			continue
		}
		encoded, err := acc.encode()
		if err != nil {
			return types.Hash256{}, fmt.Errorf("accounts: commit encode %s: %w", addr.Hex(), err)
		}
		if err := t.trie.Update(addr.Bytes(), encoded); err != nil {
			return types.Hash256{}, fmt.Errorf("accounts: commit update %s: %w", addr.Hex(), err)
		}
	}
	t.dirty = make(map[types.Address]bool)
	root, err := t.trie.Commit()
	if err != nil {
		return types.Hash256{}, fmt.Errorf("accounts: commit trie: %w", err)
	}
	t.log.Debugw("committed account trie", "sweepEmpty", sweepEmpty, "root", root.Hex())
	return root, nil
}

// RootHash returns the current account trie root without committing
// pending changes.
func (t *Trie) RootHash() (types.Hash256, error) {
	return t.trie.Hash()
}
