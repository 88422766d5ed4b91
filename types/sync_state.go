package types

// SyncState is the relay's progress on the ledger: the slot of the last
// execution header batch and the last sync committee period proven there.
type SyncState struct {
	LastSlot   uint64 `json:"last_slot"`
	LastPeriod uint64 `json:"last_period"`
}

// RelayStatus is the lifecycle of a relay account on the ledger.
type RelayStatus uint8

const (
	StatusUninitialized RelayStatus = iota
	StatusRegistered
	StatusSyncing
)

func (s RelayStatus) String() string {
	switch s {
	case StatusUninitialized:
		return "UNINITIALIZED"
	case StatusRegistered:
		return "REGISTERED"
	case StatusSyncing:
		return "SYNCING"
	default:
		return "UNKNOWN"
	}
}
