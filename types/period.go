package types

const (
	// SlotsPerEpoch is the number of beacon chain slots in one epoch.
	SlotsPerEpoch uint64 = 32
	// EpochsPerSyncCommitteePeriod is the number of epochs a sync committee
	// stays in charge.
	EpochsPerSyncCommitteePeriod uint64 = 256
	// SlotsPerSyncCommitteePeriod is the number of slots in one sync committee period.
	SlotsPerSyncCommitteePeriod = SlotsPerEpoch * EpochsPerSyncCommitteePeriod
)

// DerivePeriod returns the sync committee period the given slot belongs to.
func DerivePeriod(slot uint64) uint64 {
	return slot / SlotsPerSyncCommitteePeriod
}

// InitialPeriod returns the last proven period right after the light client
// is initialized at the given slot. The next update must cover the period
// following it, so it is one below the period of the slot, saturating at 0.
func InitialPeriod(slot uint64) uint64 {
	period := DerivePeriod(slot)
	if period == 0 {
		return 0
	}

	return period - 1
}
