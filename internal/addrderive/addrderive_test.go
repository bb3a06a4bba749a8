package addrderive

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qtumcore/statebridge/internal/types"
)

func TestCreateAddressIsDeterministic(t *testing.T) {
	txid := types.TxId{0x01, 0x02, 0x03}

	a, err := CreateAddress(txid, 3)
	require.NoError(t, err)
	b, err := CreateAddress(txid, 3)
	require.NoError(t, err)

	require.Equal(t, a, b, "createAddress must be a pure function of (txid, vout)")
}

func TestCreateAddressVariesWithVout(t *testing.T) {
	txid := types.TxId{0x01, 0x02, 0x03}

	a, err := CreateAddress(txid, 1)
	require.NoError(t, err)
	b, err := CreateAddress(txid, 2)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}
