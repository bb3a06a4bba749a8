package executor_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qtumcore/statebridge/internal/accounts"
	"github.com/qtumcore/statebridge/internal/addrderive"
	"github.com/qtumcore/statebridge/internal/chainparams"
	"github.com/qtumcore/statebridge/internal/executive"
	"github.com/qtumcore/statebridge/internal/executivetest"
	"github.com/qtumcore/statebridge/internal/executor"
	"github.com/qtumcore/statebridge/internal/triestore"
	"github.com/qtumcore/statebridge/internal/types"
	"github.com/qtumcore/statebridge/internal/vinstore"
)

type harness struct {
	accounts *accounts.Trie
	vins     *vinstore.Store
	params   chainparams.Params
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	kv := triestore.OpenMemory()
	acctTrie := triestore.Open(kv, "acct/")
	vinTrie := triestore.Open(kv, "vin/")

	vins, err := vinstore.New(vinTrie)
	require.NoError(t, err)

	return &harness{
		accounts: accounts.New(acctTrie),
		vins:     vins,
		params:   chainparams.Params{AccountStartNonce: 0, EIP158ForkBlock: 100},
	}
}

func TestExecuteNoTransfers(t *testing.T) {
	h := newHarness(t)
	factory := executivetest.NewFactory(nil, 21000, nil, h.accounts)
	ex := executor.New(h.accounts, h.vins, factory, h.params)

	sender := types.Address{0x01}
	receiver := types.Address{0x02}
	tx := &types.Transaction{From: sender, To: receiver, TxValue: types.ZeroU256(), GasPriceValue: types.ZeroU256()}

	rootBefore, err := h.vins.Root()
	require.NoError(t, err)

	res, receipt, err := ex.Execute(executor.Env{BlockNumber: 1}, tx, types.Committed, nil)
	require.NoError(t, err)
	require.Equal(t, receiver, res.NewAddress)
	require.NotNil(t, receipt)

	rootAfter, err := h.vins.Root()
	require.NoError(t, err)
	require.Equal(t, rootBefore, rootAfter, "no transfers means the vin trie root is unchanged")
}

func TestExecuteSingleTransferCondensesAndCommits(t *testing.T) {
	h := newHarness(t)
	sender := types.Address{0x01}
	receiver := types.Address{0x02}

	h.vins.Stage(sender, types.Vin{Hash: types.Hash256{0x0f}, NVout: 0, Value: types.NewU256(100), Alive: 1})
	_, err := h.vins.Commit()
	require.NoError(t, err)

	transfers := []executivetest.Transfer{{From: sender, To: receiver, Value: types.NewU256(100)}}
	factory := executivetest.NewFactory(transfers, 21000, nil, h.accounts)
	ex := executor.New(h.accounts, h.vins, factory, h.params)

	tx := &types.Transaction{From: sender, To: receiver, TxValue: types.NewU256(100), GasPriceValue: types.ZeroU256()}
	_, _, err = ex.Execute(executor.Env{BlockNumber: 1}, tx, types.Committed, nil)
	require.NoError(t, err)

	receiverVin, found, err := h.vins.Get(receiver)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, receiverVin.IsLive())
	require.Equal(t, uint64(100), receiverVin.Value.Uint64())
}

func TestExecuteExceptionKillsSenderAndNeverCommitsVinStore(t *testing.T) {
	h := newHarness(t)
	sender := types.Address{0x01}
	receiver := types.Address{0x02}

	h.vins.Stage(sender, types.Vin{Hash: types.Hash256{0x0f}, NVout: 0, Value: types.NewU256(100), Alive: 1})
	_, err := h.vins.Commit()
	require.NoError(t, err)

	vinRootBefore, err := h.vins.Root()
	require.NoError(t, err)

	transfers := []executivetest.Transfer{{From: sender, To: receiver, Value: types.NewU256(100)}}
	exception := &executive.Exception{Kind: 2}
	factory := executivetest.NewFactory(transfers, 5000, exception, h.accounts)
	ex := executor.New(h.accounts, h.vins, factory, h.params)

	tx := &types.Transaction{From: sender, To: receiver, TxValue: types.NewU256(100), GasPriceValue: types.ZeroU256()}
	res, _, err := ex.Execute(executor.Env{BlockNumber: 1}, tx, types.Committed, nil)
	require.NoError(t, err)
	require.Equal(t, exception.Kind, res.Excepted)

	vinRootAfter, err := h.vins.Root()
	require.NoError(t, err)
	require.Equal(t, vinRootBefore, vinRootAfter, "vin store must never be committed on the exception branch")

	inUse, err := h.accounts.AddressInUse(sender)
	require.NoError(t, err)
	require.False(t, inUse, "sender must be killed on the exception branch")
}

func TestExecuteRevertedDiscardsEverything(t *testing.T) {
	h := newHarness(t)
	sender := types.Address{0x01}
	receiver := types.Address{0x02}

	rootBefore, err := h.accounts.RootHash()
	require.NoError(t, err)

	transfers := []executivetest.Transfer{{From: sender, To: receiver, Value: types.NewU256(100)}}
	factory := executivetest.NewFactory(transfers, 5000, nil, h.accounts)
	ex := executor.New(h.accounts, h.vins, factory, h.params)

	tx := &types.Transaction{From: sender, To: receiver, TxValue: types.NewU256(100), GasPriceValue: types.ZeroU256()}
	_, _, err = ex.Execute(executor.Env{BlockNumber: 1}, tx, types.Reverted, nil)
	require.NoError(t, err)

	rootAfter, err := h.accounts.RootHash()
	require.NoError(t, err)
	require.Equal(t, rootBefore, rootAfter, "a reverted execution must leave the account trie root unchanged")
}

func TestExecuteCreationRetargetsCreditToDerivedAddress(t *testing.T) {
	h := newHarness(t)
	sender := types.Address{0x01}
	placeholder := types.Address{} // the VM's internal "not yet assigned" destination for a CREATE

	h.vins.Stage(sender, types.Vin{Hash: types.Hash256{0x0f}, NVout: 0, Value: types.NewU256(100), Alive: 1})
	_, err := h.vins.Commit()
	require.NoError(t, err)

	transfers := []executivetest.Transfer{{From: sender, To: placeholder, Value: types.NewU256(100)}}
	factory := executivetest.NewFactory(transfers, 21000, nil, h.accounts)
	ex := executor.New(h.accounts, h.vins, factory, h.params)

	inputTxid := types.TxId{0x0f}
	tx := &types.Transaction{
		From:          sender,
		Creation:      true,
		TxValue:       types.NewU256(100),
		GasPriceValue: types.ZeroU256(),
		InputTxid:     inputTxid,
		InputVout:     0,
	}

	wantAddr, err := addrderive.CreateAddress(tx.GetHashWith(), tx.GetNVout())
	require.NoError(t, err)

	res, _, err := ex.Execute(executor.Env{BlockNumber: 1}, tx, types.Committed, nil)
	require.NoError(t, err)
	require.Equal(t, types.Address{}, res.NewAddress, "a creation result never names a receive address")

	creditedVin, found, err := h.vins.Get(wantAddr)
	require.NoError(t, err)
	require.True(t, found, "the VM's credit to the placeholder address must be redirected to the derived create address")
	require.True(t, creditedVin.IsLive())
	require.Equal(t, uint64(100), creditedVin.Value.Uint64())

	_, found, err = h.vins.Get(placeholder)
	require.NoError(t, err)
	require.False(t, found, "the placeholder address must never receive a live vin once retargeted")
}
