// Package condense implements CondensingBuilder (spec §4.3): collapsing one
// transaction's TransferLog into a single UTXO transaction. The UTXO tx
// format itself (CTransaction/CTxIn/CTxOut, script opcodes) is an external
// collaborator per spec §6; this module builds it with
// github.com/btcsuite/btcd's wire.MsgTx/TxIn/TxOut and txscript.ScriptBuilder,
// the same Bitcoin-family transaction library the retrieval pack's
// ricky-setyawan-Avalanche-go and ethereum-go-ethereum repos already
// depend on (btcec, chainhash, btcutil) for UTXO-adjacent work.
package condense

import (
	"github.com/btcsuite/btcd/txscript"
)

// qtumOpTxHash and qtumOpCall are opcodes spec §6 names
// (OP_TXHASH, OP_CALL) that authenticate a condensing input against its
// Vin and invoke the contract-sink output, respectively. They are specific
// to the account/UTXO hybrid host chain this core targets and have no
// equivalent in btcsuite/btcd's standard opcode table, so they are defined
// here as opaque single-byte opcodes (one in script's OP_NOP range, one
// among its unassigned opcodes), exactly as spec §6 treats them: opaque
// constants, never evaluated by this core.
const (
	qtumOpTxHash byte = 0xb4 // OP_NOP5, repurposed per the host chain's script rules
	qtumOpCall   byte = 0xc2 // host-chain-specific CALL opcode
)

// contractSinkScript builds `PUSH 0 PUSH 0 PUSH 0 PUSH 0x00 PUSH addr
// OP_CALL` (spec §4.3 step 5): the four zero/gas/gasprice/calldata
// placeholders a condensing output's contract-sink script carries, ending
// in the host chain's CALL opcode and the destination's 20-byte address.
func contractSinkScript(addr []byte) ([]byte, error) {
	b := txscript.NewScriptBuilder()
	b.AddOp(txscript.OP_0)
	b.AddOp(txscript.OP_0)
	b.AddOp(txscript.OP_0)
	b.AddData([]byte{0x00})
	b.AddData(addr)
	b.AddOp(qtumOpCall)
	return b.Script()
}

// p2pkhScript builds the standard `OP_DUP OP_HASH160 <addr> OP_EQUALVERIFY
// OP_CHECKSIG` script (spec §4.3 step 5) for a participant that is not
// currently an in-use contract account.
func p2pkhScript(addr []byte) ([]byte, error) {
	b := txscript.NewScriptBuilder()
	b.AddOp(txscript.OP_DUP)
	b.AddOp(txscript.OP_HASH160)
	b.AddData(addr)
	b.AddOp(txscript.OP_EQUALVERIFY)
	b.AddOp(txscript.OP_CHECKSIG)
	return b.Script()
}

// txHashInputScript builds the OP_TXHASH-tagged input script spec §4.3
// step 4 calls for: a single opaque opcode, since the actual signature
// material for a condensing input is supplied by the host chain's own
// transaction-authentication rules, out of this core's scope.
func txHashInputScript() ([]byte, error) {
	b := txscript.NewScriptBuilder()
	b.AddOp(qtumOpTxHash)
	return b.Script()
}
