package util

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/juju/fslock"
)

const lockFileSuffix = ".lock"

// AcquireAccountLock takes an exclusive, non-blocking lock on a file derived
// from accountID under dir. The ledger only tolerates one writer per access
// key, so a second process signing for the same account must fail fast.
// The caller releases the lock with Unlock.
func AcquireAccountLock(dir string, accountID string) (*fslock.Lock, error) {
	if accountID == "" {
		return nil, fmt.Errorf("empty account id")
	}
	if err := MakeDirectory(dir); err != nil {
		return nil, err
	}

	name := strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(accountID)
	lock := fslock.New(filepath.Join(dir, name+lockFileSuffix))
	if err := lock.TryLock(); err != nil {
		if err == fslock.ErrLocked {
			return nil, fmt.Errorf("account %s is already in use by another relayer process", accountID)
		}

		return nil, fmt.Errorf("failed to lock account %s: %w", accountID, err)
	}

	return lock, nil
}
