package service

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/eth2near/relayer/metrics"
	"github.com/eth2near/relayer/relayer/store"
	"github.com/eth2near/relayer/types"
)

// relayState keeps the in-memory copy of the stored relay state in step
// with the database. Memory only moves after the write is stored, so the
// process never runs ahead of what a restart would load.
type relayState struct {
	mu      sync.Mutex
	state   store.RelayState
	s       *store.RelayStateStore
	metrics *metrics.RelayerMetrics
	logger  *zap.Logger
}

func newRelayState(
	s *store.RelayStateStore,
	logger *zap.Logger,
	metrics *metrics.RelayerMetrics,
) (*relayState, error) {
	stored, err := s.GetRelayState()
	if err != nil {
		return nil, err
	}

	rs := &relayState{
		state:   *stored,
		s:       s,
		metrics: metrics,
		logger:  logger.With(zap.String("module", "relay_state")),
	}
	metrics.RecordLastSlot(stored.SyncState.LastSlot)
	metrics.RecordLastPeriod(stored.SyncState.LastPeriod)

	return rs, nil
}

func (rs *relayState) withLock(action func()) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	action()
}

func (rs *relayState) status() types.RelayStatus {
	var status types.RelayStatus
	rs.withLock(func() {
		status = rs.state.Status
	})

	return status
}

func (rs *relayState) syncState() types.SyncState {
	var ss types.SyncState
	rs.withLock(func() {
		ss = rs.state.SyncState
	})

	return ss
}

func (rs *relayState) setStatus(status types.RelayStatus) error {
	var err error
	rs.withLock(func() {
		if err = rs.s.SetStatus(status); err != nil {
			return
		}
		if rs.state.Status < status {
			rs.state.Status = status
		}
	})
	if err != nil {
		return fmt.Errorf("failed to set relay status: %w", err)
	}

	return nil
}

func (rs *relayState) seed(ss types.SyncState) error {
	var err error
	rs.withLock(func() {
		if err = rs.s.SeedSyncState(ss); err != nil {
			return
		}
		rs.state.SyncState = ss
		rs.state.Status = types.StatusSyncing
	})
	if err != nil {
		return fmt.Errorf("failed to seed sync state: %w", err)
	}
	rs.metrics.RecordLastSlot(ss.LastSlot)
	rs.metrics.RecordLastPeriod(ss.LastPeriod)

	return nil
}

func (rs *relayState) setLastSlot(slot uint64) error {
	var err error
	rs.withLock(func() {
		if err = rs.s.SetLastSlot(slot); err != nil {
			return
		}
		if rs.state.SyncState.LastSlot < slot {
			rs.state.SyncState.LastSlot = slot
		}
	})
	if err != nil {
		return fmt.Errorf("failed to set last slot: %w", err)
	}
	rs.metrics.RecordLastSlot(slot)

	return nil
}

func (rs *relayState) setLastPeriod(period uint64) error {
	var err error
	rs.withLock(func() {
		if err = rs.s.SetLastPeriod(period); err != nil {
			return
		}
		if rs.state.SyncState.LastPeriod < period {
			rs.state.SyncState.LastPeriod = period
		}
	})
	if err != nil {
		return fmt.Errorf("failed to set last period: %w", err)
	}
	rs.metrics.RecordLastPeriod(period)

	return nil
}
