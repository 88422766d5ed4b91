package testutil

import (
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/stretchr/testify/require"

	"github.com/eth2near/relayer/keyring"
	"github.com/eth2near/relayer/types"
)

func GenRandomByteArray(r *rand.Rand, length uint64) []byte {
	newHeaderBytes := make([]byte, length)
	r.Read(newHeaderBytes)

	return newHeaderBytes
}

func AddRandomSeedsToFuzzer(f *testing.F, num uint) {
	// Seed based on the current time
	r := rand.New(rand.NewSource(time.Now().Unix()))
	var idx uint
	for idx = 0; idx < num; idx++ {
		f.Add(r.Int63())
	}
}

func GenRandomH256(r *rand.Rand) types.H256 {
	var h types.H256
	r.Read(h[:])

	return h
}

// GenRandomExecutionHeader returns a post-Cancun header with the given
// number and random content.
func GenRandomExecutionHeader(r *rand.Rand, number uint64) *types.ExecutionHeader {
	h := &types.ExecutionHeader{
		ParentHash:       GenRandomH256(r),
		UnclesHash:       GenRandomH256(r),
		StateRoot:        GenRandomH256(r),
		TransactionsRoot: GenRandomH256(r),
		ReceiptsRoot:     GenRandomH256(r),
		Number:           number,
		GasLimit:         types.U256FromUint64(30_000_000),
		GasUsed:          types.U256FromUint64(r.Uint64() % 30_000_000),
		Timestamp:        r.Uint64(),
		ExtraData:        GenRandomByteArray(r, 1+uint64(r.Intn(32))),
		MixHash:          GenRandomH256(r),
	}
	r.Read(h.Author[:])
	r.Read(h.LogBloom[:])

	baseFee := r.Uint64()
	withdrawals := GenRandomH256(r)
	blobGasUsed := r.Uint64()
	excessBlobGas := r.Uint64()
	beaconRoot := GenRandomH256(r)
	hash := GenRandomH256(r)
	h.BaseFeePerGas = &baseFee
	h.WithdrawalsRoot = &withdrawals
	h.BlobGasUsed = &blobGasUsed
	h.ExcessBlobGas = &excessBlobGas
	h.ParentBeaconBlockRoot = &beaconRoot
	h.Hash = &hash

	return h
}

// GenRandomExecutionHeaders returns n headers with consecutive numbers
// starting at start.
func GenRandomExecutionHeaders(r *rand.Rand, start uint64, n int) []*types.ExecutionHeader {
	headers := make([]*types.ExecutionHeader, 0, n)
	for i := 0; i < n; i++ {
		headers = append(headers, GenRandomExecutionHeader(r, start+uint64(i)))
	}

	return headers
}

func GenRandomBeaconHeader(r *rand.Rand, slot uint64) types.BeaconBlockHeader {
	return types.BeaconBlockHeader{
		Slot:          slot,
		ProposerIndex: r.Uint64() % 1_000_000,
		ParentRoot:    GenRandomH256(r),
		StateRoot:     GenRandomH256(r),
		BodyRoot:      GenRandomH256(r),
	}
}

func GenRandomExtendedBeaconHeader(r *rand.Rand, slot uint64) types.ExtendedBeaconBlockHeader {
	return types.ExtendedBeaconBlockHeader{
		Header:             GenRandomBeaconHeader(r, slot),
		BeaconBlockRoot:    GenRandomH256(r),
		ExecutionBlockHash: GenRandomH256(r),
	}
}

// GenRandomSyncCommittee returns a committee with size random keys, size
// is kept small to keep fixtures cheap.
func GenRandomSyncCommittee(r *rand.Rand, size int) types.SyncCommittee {
	c := types.SyncCommittee{Pubkeys: make([]types.BLSPubKey, size)}
	for i := range c.Pubkeys {
		r.Read(c.Pubkeys[i][:])
	}
	r.Read(c.AggregatePubkey[:])

	return c
}

func genBranch(r *rand.Rand, depth int) []types.H256 {
	branch := make([]types.H256, depth)
	for i := range branch {
		branch[i] = GenRandomH256(r)
	}

	return branch
}

// GenRandomLightClientUpdate returns an update attested at attestedSlot,
// finalizing a header two epochs earlier. withCommittee attaches the next
// sync committee.
func GenRandomLightClientUpdate(r *rand.Rand, attestedSlot uint64, withCommittee bool) *types.LightClientUpdate {
	finalizedSlot := uint64(0)
	if attestedSlot > 2*types.SlotsPerEpoch {
		finalizedSlot = attestedSlot - 2*types.SlotsPerEpoch
	}

	u := &types.LightClientUpdate{
		AttestedBeaconHeader: GenRandomBeaconHeader(r, attestedSlot),
		SignatureSlot:        attestedSlot + 1,
		FinalityUpdate: types.FinalizedHeaderUpdate{
			HeaderUpdate: types.HeaderUpdate{
				BeaconHeader:        GenRandomBeaconHeader(r, finalizedSlot),
				ExecutionBlockHash:  GenRandomH256(r),
				ExecutionHashBranch: genBranch(r, 4),
			},
			FinalityBranch: genBranch(r, 6),
		},
	}
	r.Read(u.SyncAggregate.SyncCommitteeBits[:])
	r.Read(u.SyncAggregate.SyncCommitteeSignature[:])

	if withCommittee {
		u.SyncCommitteeUpdate = &types.SyncCommitteeUpdate{
			NextSyncCommittee:       GenRandomSyncCommittee(r, 4),
			NextSyncCommitteeBranch: genBranch(r, 5),
		}
	}

	return u
}

// GenCredential writes a fresh key file for accountID under a temp dir and
// loads it back.
func GenCredential(t *testing.T, accountID string) *keyring.Credential {
	kf, err := keyring.NewKeyFile(ed25519.GenPrivKey(), accountID)
	require.NoError(t, err)
	cred, err := keyring.NewCredential(kf, accountID)
	require.NoError(t, err)

	return cred
}

// GenKeyFile writes a fresh key file for accountID and returns its path.
func GenKeyFile(t *testing.T, accountID string) string {
	path := filepath.Join(t.TempDir(), accountID+".json")
	_, err := keyring.GenerateKeyFile(path, accountID)
	require.NoError(t, err)

	return path
}
