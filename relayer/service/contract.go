package service

import (
	"encoding/json"
	"fmt"

	"github.com/eth2near/relayer/codec"
	"github.com/eth2near/relayer/types"
)

// light client contract methods
const (
	methodInit                      = "init"
	methodRegisterSubmitter         = "register_submitter"
	methodSubmitHeader              = "submit_header"
	methodSubmitUpdate              = "submit_update"
	methodIsKnownExecutionHeader    = "is_known_execution_header"
	methodFinalizedBeaconBlockRoot  = "finalized_beacon_block_root"
	methodFinalizedBeaconHeaderRoot = "finalized_beacon_header_root"
)

// emptyJSONArgs is the argument of the contract views taking no input.
var emptyJSONArgs = []byte("{}")

// InitParams carries the trusted starting point of the light client.
type InitParams struct {
	FinalizedExecutionHeader *types.ExecutionHeader         `json:"finalized_execution_header"`
	FinalizedBeaconHeader    types.ExtendedBeaconBlockHeader `json:"finalized_beacon_header"`
	CurrentSyncCommittee     types.SyncCommittee             `json:"current_sync_committee"`
	NextSyncCommittee        types.SyncCommittee             `json:"next_sync_committee"`
}

func (p *InitParams) Validate() error {
	if p == nil {
		return fmt.Errorf("init params cannot be nil")
	}
	if p.FinalizedExecutionHeader == nil {
		return fmt.Errorf("finalized execution header cannot be empty")
	}
	if len(p.CurrentSyncCommittee.Pubkeys) == 0 || len(p.NextSyncCommittee.Pubkeys) == 0 {
		return fmt.Errorf("sync committees cannot be empty")
	}
	execHash := p.FinalizedExecutionHeader.BlockHash()
	if !execHash.IsZero() && !execHash.Equal(p.FinalizedBeaconHeader.ExecutionBlockHash) {
		return fmt.Errorf("execution header %s is not the one carried by the beacon header (%s)",
			execHash, p.FinalizedBeaconHeader.ExecutionBlockHash)
	}

	return nil
}

// Slot returns the beacon slot the light client starts from.
func (p *InitParams) Slot() uint64 {
	return p.FinalizedBeaconHeader.Header.Slot
}

// initInput is the borsh argument of the init method. Field order is the
// wire layout.
type initInput struct {
	Network                     string
	FinalizedExecutionHeader    types.ExecutionHeader
	FinalizedBeaconHeader       types.ExtendedBeaconBlockHeader
	CurrentSyncCommittee        types.SyncCommittee
	NextSyncCommittee           types.SyncCommittee
	ValidateUpdates             bool
	VerifyBLSSignatures         bool
	HashesGCThreshold           uint64
	MaxSubmittedBlocksByAccount uint32
	TrustedSigner               *string
}

type registerSubmitterArgs struct {
	AccountID string `json:"account_id"`
}

func encodeRegisterSubmitterArgs(accountID string) ([]byte, error) {
	return json.Marshal(&registerSubmitterArgs{AccountID: accountID})
}

func encodeHeader(header *types.ExecutionHeader) ([]byte, error) {
	if header == nil {
		return nil, fmt.Errorf("nil execution header")
	}

	return codec.Marshal(*header)
}

func encodeUpdate(update *types.LightClientUpdate) ([]byte, error) {
	if update == nil {
		return nil, fmt.Errorf("nil light client update")
	}

	return codec.Marshal(*update)
}

func encodeHash(hash types.H256) ([]byte, error) {
	return codec.Marshal(hash)
}

func decodeBool(bz []byte) (bool, error) {
	var v bool
	if err := codec.Unmarshal(bz, &v); err != nil {
		return false, err
	}

	return v, nil
}

func decodeHash(bz []byte) (types.H256, error) {
	var h types.H256
	if len(bz) != len(h) {
		return types.H256{}, fmt.Errorf("expected a %d byte hash, got %d bytes", len(h), len(bz))
	}
	copy(h[:], bz)

	return h, nil
}
