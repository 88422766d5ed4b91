package util_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eth2near/relayer/util"
)

func TestAcquireAccountLock(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	lock, err := util.AcquireAccountLock(dir, "relayer.testnet")
	require.NoError(t, err)

	_, err = util.AcquireAccountLock(dir, "relayer.testnet")
	require.ErrorContains(t, err, "already in use")

	// a different account is independent
	other, err := util.AcquireAccountLock(dir, "other.testnet")
	require.NoError(t, err)
	require.NoError(t, other.Unlock())

	require.NoError(t, lock.Unlock())
	lock, err = util.AcquireAccountLock(dir, "relayer.testnet")
	require.NoError(t, err)
	require.NoError(t, lock.Unlock())
}
