package store

import (
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcwallet/walletdb"
	"github.com/lightningnetwork/lnd/kvdb"

	"github.com/eth2near/relayer/types"
)

var (
	// relay lifecycle and sync progress of the signer account
	relayStateBucketName = []byte("relayState")

	statusKey    = []byte("status")
	syncStateKey = []byte("syncState")
)

// RelayState is the stored progress of the relay on the ledger.
type RelayState struct {
	Status    types.RelayStatus
	SyncState types.SyncState
}

// RelayStateStore persists the relay lifecycle status and SyncState so a
// restarted process resumes where the previous one stopped.
type RelayStateStore struct {
	db kvdb.Backend
}

// NewRelayStateStore returns a new store backed by db
func NewRelayStateStore(db kvdb.Backend) (*RelayStateStore, error) {
	s := &RelayStateStore{db: db}
	if err := s.initBuckets(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *RelayStateStore) initBuckets() error {
	if err := kvdb.Batch(s.db, func(tx kvdb.RwTx) error {
		_, err := tx.CreateTopLevelBucket(relayStateBucketName)
		if err != nil {
			return fmt.Errorf("failed to create relay state bucket: %w", err)
		}

		return nil
	}); err != nil {
		return fmt.Errorf("failed to initialize relay state buckets: %w", err)
	}

	return nil
}

// GetRelayState returns the stored state, or an uninitialized zero state
// if nothing was stored yet.
func (s *RelayStateStore) GetRelayState() (*RelayState, error) {
	state := &RelayState{}
	if err := s.db.View(func(tx kvdb.RTx) error {
		bucket := tx.ReadBucket(relayStateBucketName)
		if bucket == nil {
			return ErrCorruptedRelayerDB
		}

		var err error
		state, err = getRelayState(bucket)

		return err
	}, func() {}); err != nil {
		return nil, fmt.Errorf("failed to get relay state: %w", err)
	}

	return state, nil
}

// SetStatus moves the lifecycle forward. A status lower than the stored one
// is ignored, the lifecycle never regresses.
func (s *RelayStateStore) SetStatus(status types.RelayStatus) error {
	return s.setRelayState(func(state *RelayState) error {
		if state.Status < status {
			state.Status = status
		}

		return nil
	})
}

// SeedSyncState overwrites the sync progress and moves the relay to
// syncing. It is only used when the light client is initialized or
// adopted.
func (s *RelayStateStore) SeedSyncState(syncState types.SyncState) error {
	return s.setRelayState(func(state *RelayState) error {
		state.SyncState = syncState
		state.Status = types.StatusSyncing

		return nil
	})
}

// SetLastSlot sets the last slot only if it is larger than the stored one.
// This is to ensure the stored state to increase monotonically
func (s *RelayStateStore) SetLastSlot(slot uint64) error {
	return s.setRelayState(func(state *RelayState) error {
		if state.SyncState.LastSlot < slot {
			state.SyncState.LastSlot = slot
		}

		return nil
	})
}

// SetLastPeriod sets the last period only if it is larger than the stored one.
func (s *RelayStateStore) SetLastPeriod(period uint64) error {
	return s.setRelayState(func(state *RelayState) error {
		if state.SyncState.LastPeriod < period {
			state.SyncState.LastPeriod = period
		}

		return nil
	})
}

func (s *RelayStateStore) setRelayState(stateTransitionFn func(state *RelayState) error) error {
	if err := kvdb.Batch(s.db, func(tx kvdb.RwTx) error {
		bucket := tx.ReadWriteBucket(relayStateBucketName)
		if bucket == nil {
			return ErrCorruptedRelayerDB
		}

		state, err := getRelayState(bucket)
		if err != nil {
			return err
		}

		if err := stateTransitionFn(state); err != nil {
			return err
		}

		return saveRelayState(bucket, state)
	}); err != nil {
		return fmt.Errorf("failed to set relay state: %w", err)
	}

	return nil
}

func getRelayState(bucket walletdb.ReadBucket) (*RelayState, error) {
	state := &RelayState{}

	if v := bucket.Get(statusKey); v != nil {
		if len(v) != 1 {
			return nil, ErrCorruptedRelayerDB
		}
		state.Status = types.RelayStatus(v[0])
	}

	if v := bucket.Get(syncStateKey); v != nil {
		if err := json.Unmarshal(v, &state.SyncState); err != nil {
			return nil, ErrCorruptedRelayerDB
		}
	}

	return state, nil
}

func saveRelayState(bucket walletdb.ReadWriteBucket, state *RelayState) error {
	if err := bucket.Put(statusKey, []byte{byte(state.Status)}); err != nil {
		return fmt.Errorf("failed to store relay status: %w", err)
	}

	bz, err := json.Marshal(&state.SyncState)
	if err != nil {
		return fmt.Errorf("failed to marshal sync state: %w", err)
	}

	if err := bucket.Put(syncStateKey, bz); err != nil {
		return fmt.Errorf("failed to store sync state: %w", err)
	}

	return nil
}
