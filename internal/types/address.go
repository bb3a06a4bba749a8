// Package types holds the core data model shared by every component of the
// bridge: Address, Hash256, U256, TxId, Vin, and TransferInfo, per spec §3.
package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// Address is a fixed 20-byte account identifier. It is a direct alias of
// go-ethereum's common.Address rather than a hand-rolled [20]byte: the
// surrounding node, the account trie, and the condensing transaction all
// speak this type, and re-deriving it would just be a parallel copy of the
// same fixed-size array with none of common's helpers (Hex, Bytes, Cmp).
type Address = common.Address

// Hash256 is a fixed 32-byte cryptographic digest, used both as a TxId and
// as a Merkle root.
type Hash256 = common.Hash

// TxId names a UTXO transaction by its hash (spec §3).
type TxId = Hash256

// ZeroAddress is the reserved zero value, used as the sentinel "no
// create-address reserved" per spec §4.4.
var ZeroAddress = Address{}

// ZeroHash is the reserved zero value, used in tombstone Vins (spec §4.3
// step 6).
var ZeroHash = Hash256{}
