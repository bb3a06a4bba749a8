package accounts

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// accountRLP mirrors Account's persistent wire shape: a 2-item RLP list of
// (nonce, balance). Killed accounts are never encoded; Commit deletes them
// instead (see accounts.go).
type accountRLP struct {
	Nonce   uint64
	Balance *uint256.Int
}

func rlpEncodeAccount(a *Account) ([]byte, error) {
	balance := a.Balance
	if balance == nil {
		balance = uint256.NewInt(0)
	}
	return rlp.EncodeToBytes(&accountRLP{Nonce: a.Nonce, Balance: balance})
}

func rlpDecodeAccount(data []byte) (*Account, error) {
	var wire accountRLP
	if err := rlp.DecodeBytes(data, &wire); err != nil {
		return nil, err
	}
	return &Account{Nonce: wire.Nonce, Balance: wire.Balance}, nil
}
