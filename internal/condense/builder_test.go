package condense

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qtumcore/statebridge/internal/bridgeerrors"
	"github.com/qtumcore/statebridge/internal/types"
)

type fakeVins struct {
	byAddr map[types.Address]types.Vin
}

func (f fakeVins) Get(addr types.Address) (types.Vin, bool, error) {
	v, ok := f.byAddr[addr]
	return v, ok, nil
}

type fakeInUse struct {
	inUse map[types.Address]bool
}

func (f fakeInUse) AddressInUse(addr types.Address) (bool, error) {
	return f.inUse[addr], nil
}

func TestBuildSingleTransfer(t *testing.T) {
	a := types.Address{0x0a}
	b := types.Address{0x0b}

	vins := fakeVins{byAddr: map[types.Address]types.Vin{
		a: {Hash: types.Hash256{0x01}, NVout: 2, Value: types.NewU256(100), Alive: 1},
	}}
	inUse := fakeInUse{inUse: map[types.Address]bool{a: true, b: true}}

	log := types.TransferLog{{From: a, To: b, Value: types.NewU256(100)}}
	tx := &types.Transaction{From: a, To: b, TxValue: types.ZeroU256()}

	result, err := Build(log, vins, inUse, tx)
	require.NoError(t, err)
	require.False(t, result.Empty())
	require.Len(t, result.Tx.TxIn, 1, "one input spending A's vin")
	require.Len(t, result.Tx.TxOut, 1, "one output paying B")
	require.Equal(t, int64(100), result.Tx.TxOut[0].Value)

	bVin, ok := result.NewVins[b]
	require.True(t, ok)
	require.True(t, bVin.IsLive())
	require.Equal(t, uint32(0), bVin.NVout)

	_, aHasNewVin := result.NewVins[a]
	require.False(t, aHasNewVin, "the outer sender is excluded from newVins entirely (spec §4.3 step 6)")
}

func TestBuildInsufficientBalanceAborts(t *testing.T) {
	a := types.Address{0x0a}
	b := types.Address{0x0b}

	vins := fakeVins{byAddr: map[types.Address]types.Vin{
		a: {Value: types.NewU256(7), Alive: 1},
	}}
	inUse := fakeInUse{inUse: map[types.Address]bool{}}

	log := types.TransferLog{{From: a, To: b, Value: types.NewU256(10)}}
	tx := &types.Transaction{From: a, To: b, TxValue: types.ZeroU256()}

	result, err := Build(log, vins, inUse, tx)
	require.Error(t, err)
	require.True(t, errors.Is(err, bridgeerrors.ErrValueConservation))
	require.True(t, result.Empty())
}

func TestBuildCreationUsesSyntheticSenderVin(t *testing.T) {
	sender := types.Address{0x0a}
	contract := types.Address{0x0c}
	txid := types.TxId{0x99}

	vins := fakeVins{byAddr: map[types.Address]types.Vin{}}
	inUse := fakeInUse{inUse: map[types.Address]bool{contract: true}}

	log := types.TransferLog{{From: sender, To: contract, Value: types.NewU256(500)}}
	tx := &types.Transaction{
		From:      sender,
		Creation:  true,
		TxValue:   types.NewU256(500),
		InputTxid: txid,
		InputVout: 3,
	}

	result, err := Build(log, vins, inUse, tx)
	require.NoError(t, err)
	require.Len(t, result.Tx.TxIn, 1, "synthetic vin funds one input")
	require.Equal(t, int64(500), result.Tx.TxOut[0].Value)

	_, senderHasNewVin := result.NewVins[sender]
	require.False(t, senderHasNewVin, "the sender is excluded from newVins (spec §4.3 step 6)")
}

func TestBuildOnEmptyLogHasNothingToCondense(t *testing.T) {
	require.Equal(t, 0, len(types.TransferLog(nil)))

	result, err := Build(nil, fakeVins{}, fakeInUse{}, &types.Transaction{})
	require.NoError(t, err)
	require.False(t, result.Empty())
	require.Empty(t, result.Tx.TxIn)
	require.Empty(t, result.Tx.TxOut)
	require.Empty(t, result.NewVins)
}
