package condense

import (
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/qtumcore/statebridge/internal/bridgeerrors"
	"github.com/qtumcore/statebridge/internal/logging"
	"github.com/qtumcore/statebridge/internal/types"
)

// VinLookup is the read-only slice of VinStore the builder needs: find a
// participant's current Vin. Spec §9's design note asks that the builder
// consume a read-only capability rather than holding a mutable pointer
// back to the whole state; this interface is that capability.
type VinLookup interface {
	Get(addr types.Address) (types.Vin, bool, error)
}

// AddressInUse is the read-only slice of the account trie the builder
// needs for its script-choice step (spec §4.3 step 5).
type AddressInUse interface {
	AddressInUse(addr types.Address) (bool, error)
}

// Result is CondensingBuilder's output: the condensing transaction and the
// Vin records to apply to VinStore (spec §4.3).
type Result struct {
	Tx       *wire.MsgTx
	NewVins  map[types.Address]types.Vin
	TxID     types.Hash256
}

// Empty reports whether this is the "abort" result spec §4.3 step 3 and
// §7.2 describe: a value-conservation failure, surfaced as an empty
// transaction with no NewVins.
func (r Result) Empty() bool {
	return r.Tx == nil
}

type participant struct {
	addr types.Address
	in   *types.U256
	out  *types.U256
}

// Build runs the six-step algorithm of spec §4.3 over log, producing a
// single condensing transaction plus the derived Vin updates. An empty log
// means the builder is skipped entirely, matching spec §4.3's edge case;
// callers should check len(log) == 0 themselves before calling Build (see
// internal/executor).
func Build(log types.TransferLog, vins VinLookup, accounts AddressInUse, tx *types.Transaction) (Result, error) {
	lg := logging.New("condense")

	// Step 1: collect distinct participants and select each one's current
	// Vin, overriding the sender with the synthetic outer-input Vin where
	// it applies.
	participants := make(map[types.Address]*participant)
	touch := func(addr types.Address) *participant {
		p, ok := participants[addr]
		if !ok {
			p = &participant{addr: addr, in: types.ZeroU256(), out: types.ZeroU256()}
			participants[addr] = p
		}
		return p
	}

	senderIsSource := false
	for _, t := range log {
		touch(t.From)
		touch(t.To)
		if t.From == tx.Sender() {
			senderIsSource = true
		}
	}

	selectedVins := make(map[types.Address]types.Vin)
	for addr := range participants {
		vin, found, err := vins.Get(addr)
		if err != nil {
			return Result{}, fmt.Errorf("condense: vin lookup %s: %w", addr.Hex(), err)
		}
		if found {
			selectedVins[addr] = vin
		}
	}
	if senderIsSource && !tx.Value().IsZero() {
		selectedVins[tx.Sender()] = types.Vin{
			Hash:  tx.GetHashWith(),
			NVout: tx.GetNVout(),
			Value: tx.Value(),
			Alive: 1,
		}
	}

	// Step 2: plus/minus tally.
	for _, t := range log {
		value := t.Value
		if value == nil {
			value = types.ZeroU256()
		}
		touch(t.To).in.Add(touch(t.To).in, value)
		touch(t.From).out.Add(touch(t.From).out, value)
	}

	// Step 3: new balance computation, aborting on conservation failure.
	order := sortedAddresses(participants)
	balances := make(map[types.Address]*types.U256, len(order))
	for _, addr := range order {
		p := participants[addr]
		existing := types.ZeroU256()
		if vin, ok := selectedVins[addr]; ok && vin.Value != nil {
			existing = vin.Value
		}
		available, overflow := types.AddChecked(existing, p.in)
		if overflow {
			return Result{}, fmt.Errorf("condense: credit overflow for %s", addr.Hex())
		}
		balance, ok := types.SubChecked(available, p.out)
		if !ok {
			lg.Warnw("value conservation failure", "address", addr.Hex())
			return Result{}, fmt.Errorf("%w: address %s owes more than it holds", bridgeerrors.ErrValueConservation, addr.Hex())
		}
		balances[addr] = balance
	}

	// Step 4: build inputs, one per address with a selected Vin of
	// nonzero value.
	msgTx := wire.NewMsgTx(wire.TxVersion)
	inputScript, err := txHashInputScript()
	if err != nil {
		return Result{}, fmt.Errorf("condense: build input script: %w", err)
	}
	for _, addr := range order {
		vin, ok := selectedVins[addr]
		if !ok || vin.Value == nil || vin.Value.IsZero() {
			continue
		}
		outPoint := wire.OutPoint{Hash: chainhash.Hash(vin.Hash), Index: vin.NVout}
		msgTx.AddTxIn(wire.NewTxIn(&outPoint, inputScript, nil))
	}

	// Step 5: build outputs, one per address with nonzero post-transfer
	// balance, in the same deterministic order.
	nVouts := make(map[types.Address]uint32, len(order))
	for _, addr := range order {
		balance := balances[addr]
		if balance.IsZero() {
			continue
		}
		inUse, err := accounts.AddressInUse(addr)
		if err != nil {
			return Result{}, fmt.Errorf("condense: address in use %s: %w", addr.Hex(), err)
		}
		var script []byte
		if inUse {
			script, err = contractSinkScript(addr.Bytes())
		} else {
			script, err = p2pkhScript(addr.Bytes())
		}
		if err != nil {
			return Result{}, fmt.Errorf("condense: build output script %s: %w", addr.Hex(), err)
		}
		nVouts[addr] = uint32(len(msgTx.TxOut))
		msgTx.AddTxOut(wire.NewTxOut(int64(balance.Uint64()), script))
	}

	txid := types.Hash256(msgTx.TxHash())

	// Step 6: derive newVins for every participant except the outer
	// transaction's sender.
	newVins := make(map[types.Address]types.Vin, len(order))
	for _, addr := range order {
		if addr == tx.Sender() {
			continue
		}
		balance := balances[addr]
		if balance.IsZero() {
			newVins[addr] = types.Tombstone()
			continue
		}
		newVins[addr] = types.Vin{
			Hash:  txid,
			NVout: nVouts[addr],
			Value: balance,
			Alive: 1,
		}
	}

	lg.Debugw("built condensing transaction", "participants", len(order), "inputs", len(msgTx.TxIn), "outputs", len(msgTx.TxOut))
	return Result{Tx: msgTx, NewVins: newVins, TxID: txid}, nil
}

func sortedAddresses(participants map[types.Address]*participant) []types.Address {
	addrs := make([]types.Address, 0, len(participants))
	for addr := range participants {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Hex() < addrs[j].Hex() })
	return addrs
}
