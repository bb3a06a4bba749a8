package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// Vin is the per-contract-address auxiliary record linking an account's
// accumulated balance to the UTXO output currently funding it (spec §3).
//
// Alive is a small integer rather than a bool so the persistent encoding
// can grow future flags without a migration (spec §3's invariant on Vin).
type Vin struct {
	Hash   Hash256 // the TxId whose output currently funds this account
	NVout  uint32  // the output index within that transaction
	Value  *U256   // the balance reflected by that output
	Alive  uint8   // 0 = tombstoned, nonzero = live
}

// vinRLP is the exact wire shape: a 4-item RLP list (hash, nVout, value,
// alive), per spec §6's persistent state layout. rlp.Encode/Decode operate
// on exported struct fields in declaration order, so this mirrors the
// original's `RLPStream s(4); s << hash << nVout << value << alive`.
type vinRLP struct {
	Hash  Hash256
	NVout uint32
	Value *uint256.Int
	Alive uint8
}

// IsLive reports whether this Vin should be carried forward at commit.
func (v Vin) IsLive() bool {
	return v.Alive != 0
}

// Tombstone returns the canonical "dead" Vin written when a participant's
// post-transfer balance reaches zero (spec §4.3 step 6).
func Tombstone() Vin {
	return Vin{Hash: ZeroHash, NVout: 0, Value: ZeroU256(), Alive: 0}
}

// Encode serializes v as the canonical 4-item RLP list described in spec
// §6. RLP itself is an external collaborator (spec §1); this module
// consumes go-ethereum's rlp package for it rather than hand-rolling a
// length-prefixed codec.
func (v Vin) Encode() ([]byte, error) {
	val := v.Value
	if val == nil {
		val = ZeroU256()
	}
	wire := vinRLP{Hash: v.Hash, NVout: v.NVout, Value: val, Alive: v.Alive}
	buf, err := rlp.EncodeToBytes(&wire)
	if err != nil {
		return nil, fmt.Errorf("encode vin: %w", err)
	}
	return buf, nil
}

// DecodeVin decodes the canonical 4-item RLP list back into a Vin. A
// truncated or malformed buffer is a state-integrity error at the caller
// (spec §7.3), not handled here — this function only reports the RLP
// decode error so the caller can wrap it appropriately.
func DecodeVin(data []byte) (Vin, error) {
	var wire vinRLP
	if err := rlp.DecodeBytes(data, &wire); err != nil {
		return Vin{}, err
	}
	return Vin{Hash: wire.Hash, NVout: wire.NVout, Value: wire.Value, Alive: wire.Alive}, nil
}
