package vinstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qtumcore/statebridge/internal/triestore"
	"github.com/qtumcore/statebridge/internal/types"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	trie := triestore.Open(triestore.OpenMemory(), "vin/")
	s, err := New(trie)
	require.NoError(t, err)
	return s
}

func TestGetAbsentReturnsNotFound(t *testing.T) {
	s := newStore(t)
	_, found, err := s.Get(types.Address{0x01})
	require.NoError(t, err)
	require.False(t, found)
}

func TestStageThenCommitPersists(t *testing.T) {
	s := newStore(t)
	addr := types.Address{0x01}
	vin := types.Vin{Hash: types.Hash256{0x02}, NVout: 1, Value: types.NewU256(50), Alive: 1}

	s.Stage(addr, vin)
	touched, err := s.Commit()
	require.NoError(t, err)
	require.Equal(t, []types.Address{addr}, touched)

	got, found, err := s.Get(addr)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, vin.Hash, got.Hash)
	require.Equal(t, vin.NVout, got.NVout)
	require.Equal(t, uint8(1), got.Alive)
}

func TestTombstoneIsPrunedOnCommit(t *testing.T) {
	s := newStore(t)
	addr := types.Address{0x01}
	s.Stage(addr, types.Vin{Hash: types.Hash256{0x02}, NVout: 1, Value: types.NewU256(50), Alive: 1})
	_, err := s.Commit()
	require.NoError(t, err)

	s.Stage(addr, types.Tombstone())
	_, err = s.Commit()
	require.NoError(t, err)

	_, found, err := s.Get(addr)
	require.NoError(t, err)
	require.False(t, found, "a tombstoned vin must be removed from the trie at commit")
}

func TestMutateIsNoOpOnAbsentAddress(t *testing.T) {
	s := newStore(t)
	addr := types.Address{0x09}
	called := false
	err := s.Mutate(addr, func(v types.Vin) types.Vin {
		called = true
		return v
	})
	require.NoError(t, err)
	require.False(t, called, "mutate on an absent vin must be a no-op per spec §4.1")

	_, found, err := s.Get(addr)
	require.NoError(t, err)
	require.False(t, found, "mutating an absent vin should not materialize a zero-value live vin")
}

func TestSetRootClearsStagedAndCache(t *testing.T) {
	s := newStore(t)
	addr := types.Address{0x01}

	s.Stage(addr, types.Vin{Hash: types.Hash256{0x02}, NVout: 1, Value: types.NewU256(50), Alive: 1})
	root, err := s.Commit()
	require.NoError(t, err)
	_ = root

	rootHash, err := s.Root()
	require.NoError(t, err)

	got, found, err := s.Get(addr)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint64(50), got.Value.Uint64())

	s.Stage(addr, types.Vin{Hash: types.Hash256{0x03}, NVout: 2, Value: types.NewU256(99), Alive: 1})

	require.NoError(t, s.SetRoot(rootHash))

	got, found, err = s.Get(addr)
	require.NoError(t, err)
	require.True(t, found, "SetRoot must not lose committed data")
	require.Equal(t, uint64(50), got.Value.Uint64(), "the uncommitted stage from before SetRoot must be discarded")
}

func TestSnapshotLiveSkipsTombstones(t *testing.T) {
	s := newStore(t)
	live := types.Address{0x01}
	dead := types.Address{0x02}

	s.Stage(live, types.Vin{Hash: types.Hash256{0x0a}, NVout: 0, Value: types.NewU256(10), Alive: 1})
	s.Stage(dead, types.Tombstone())
	_, err := s.Commit()
	require.NoError(t, err)

	snapshot, err := s.SnapshotLive([]types.Address{live, dead})
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	require.Contains(t, snapshot, live)
}
