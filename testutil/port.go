package testutil

import (
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const maxPortAttempts = 10

// ports handed out during this test binary run; the kernel may reuse a
// closed port before the test that got it binds again
var (
	handedOut   = make(map[int]struct{})
	handedOutMu sync.Mutex
)

// AllocateUniquePort returns a localhost TCP port that is free right now
// and was not returned to any other test of this run. Tests use it for
// metrics listeners and for RPC addresses nothing listens on.
func AllocateUniquePort(t *testing.T) int {
	handedOutMu.Lock()
	defer handedOutMu.Unlock()

	for i := 0; i < maxPortAttempts; i++ {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		port := l.Addr().(*net.TCPAddr).Port
		require.NoError(t, l.Close())

		if _, taken := handedOut[port]; taken {
			continue
		}
		handedOut[port] = struct{}{}

		return port
	}

	t.Fatalf("no unused localhost port after %d attempts", maxPortAttempts)

	return 0
}
