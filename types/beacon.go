package types

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/prysmaticlabs/go-bitfield"
)

// SyncCommitteeSize is the number of validators in a sync committee.
const SyncCommitteeSize = 512

type BeaconBlockHeader struct {
	Slot          uint64 `json:"slot"`
	ProposerIndex uint64 `json:"proposer_index"`
	ParentRoot    H256   `json:"parent_root"`
	StateRoot     H256   `json:"state_root"`
	BodyRoot      H256   `json:"body_root"`
}

// ExtendedBeaconBlockHeader binds a beacon header to its own root and to the
// hash of the execution block it carries.
type ExtendedBeaconBlockHeader struct {
	Header             BeaconBlockHeader `json:"header"`
	BeaconBlockRoot    H256              `json:"beacon_block_root"`
	ExecutionBlockHash H256              `json:"execution_block_hash"`
}

type SyncCommittee struct {
	Pubkeys         []BLSPubKey `json:"pubkeys"`
	AggregatePubkey BLSPubKey   `json:"aggregate_pubkey"`
}

// SyncCommitteeBits is the participation bitvector of a sync aggregate.
type SyncCommitteeBits [SyncCommitteeSize / 8]byte

func (b SyncCommitteeBits) MarshalText() ([]byte, error) {
	return hexutil.Bytes(b[:]).MarshalText()
}

func (b *SyncCommitteeBits) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("SyncCommitteeBits", input, b[:])
}

// Bitvector exposes the bits through the consensus bitfield type.
func (b SyncCommitteeBits) Bitvector() bitfield.Bitvector512 {
	bv := bitfield.NewBitvector512()
	copy(bv, b[:])

	return bv
}

type SyncAggregate struct {
	SyncCommitteeBits      SyncCommitteeBits `json:"sync_committee_bits"`
	SyncCommitteeSignature BLSSignature      `json:"sync_committee_signature"`
}

// Participation returns how many sync committee members signed.
func (a SyncAggregate) Participation() uint64 {
	return a.SyncCommitteeBits.Bitvector().Count()
}

type HeaderUpdate struct {
	BeaconHeader        BeaconBlockHeader `json:"beacon_header"`
	ExecutionBlockHash  H256              `json:"execution_block_hash"`
	ExecutionHashBranch []H256            `json:"execution_hash_branch"`
}

type FinalizedHeaderUpdate struct {
	HeaderUpdate   HeaderUpdate `json:"header_update"`
	FinalityBranch []H256       `json:"finality_branch"`
}

type SyncCommitteeUpdate struct {
	NextSyncCommittee       SyncCommittee `json:"next_sync_committee"`
	NextSyncCommitteeBranch []H256        `json:"next_sync_committee_branch"`
}

// LightClientUpdate is a finality proof, optionally carrying the next sync
// committee, as accepted by submit_update.
type LightClientUpdate struct {
	AttestedBeaconHeader BeaconBlockHeader     `json:"attested_beacon_header"`
	SyncAggregate        SyncAggregate         `json:"sync_aggregate"`
	SignatureSlot        uint64                `json:"signature_slot"`
	FinalityUpdate       FinalizedHeaderUpdate `json:"finality_update"`
	SyncCommitteeUpdate  *SyncCommitteeUpdate  `json:"sync_committee_update,omitempty"`
}

// AttestedSlot returns the slot of the attested beacon header.
func (u *LightClientUpdate) AttestedSlot() uint64 {
	return u.AttestedBeaconHeader.Slot
}

// FinalizedSlot returns the slot of the header proven final by this update.
func (u *LightClientUpdate) FinalizedSlot() uint64 {
	return u.FinalityUpdate.HeaderUpdate.BeaconHeader.Slot
}
