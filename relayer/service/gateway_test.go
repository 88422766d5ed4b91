package service_test

import (
	"context"
	"math/rand"
	"os"
	"sync"
	"testing"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/stretchr/testify/require"

	"github.com/eth2near/relayer/codec"
	"github.com/eth2near/relayer/relayer/config"
	"github.com/eth2near/relayer/relayer/service"
	"github.com/eth2near/relayer/relayer/store"
	"github.com/eth2near/relayer/testutil"
	"github.com/eth2near/relayer/types"
)

func genInitParams(r *rand.Rand, slot uint64) *service.InitParams {
	header := testutil.GenRandomExecutionHeader(r, 1_000)
	beacon := testutil.GenRandomExtendedBeaconHeader(r, slot)
	beacon.ExecutionBlockHash = header.BlockHash()

	return &service.InitParams{
		FinalizedExecutionHeader: header,
		FinalizedBeaconHeader:    beacon,
		CurrentSyncCommittee:     testutil.GenRandomSyncCommittee(r, 4),
		NextSyncCommittee:        testutil.GenRandomSyncCommittee(r, 4),
	}
}

func TestSubmitHeadersAtomicBatch(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()

	env := newSyncingEnv(t, config.SubmissionModeAtomic, true, 99)
	headers := testutil.GenRandomExecutionHeaders(r, 5_000, 1+r.Intn(10))
	env.ledger.trackHeaders(t, headers)

	err := env.gw.SubmitHeaders(ctx, headers, 100, 150)
	require.NoError(t, err)

	txs := env.ledger.committedTxs()
	require.Len(t, txs, 1)
	require.Equal(t, uint64(42), txs[0].Transaction.Nonce)
	require.Equal(t, contractAccount, txs[0].Transaction.ReceiverID)
	require.Equal(t, signerAccount, txs[0].Transaction.SignerID)

	calls := submitHeaderCalls(t, txs[0])
	require.Len(t, calls, len(headers))
	for i, h := range headers {
		expected, err := codec.Marshal(*h)
		require.NoError(t, err)
		require.Equal(t, expected, calls[i].Args)
		require.Equal(t, env.cfg.NearConfig.GasPerCall, calls[i].Gas)
		require.True(t, calls[i].Deposit.IsZero())
	}

	require.Equal(t, uint64(150), env.gw.SyncState().LastSlot)

	cp, err := env.cps.GetCheckpoint("headers_slots_100_150")
	require.NoError(t, err)
	require.Equal(t, store.StatusCommitted, cp.Status)
	require.FileExists(t, env.cps.Path(cp.Name))

	loaded, err := env.cps.LoadHeaders(cp.Name)
	require.NoError(t, err)
	require.Equal(t, headers, loaded)

	pending, err := env.gw.PendingCheckpoints()
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestSubmitHeadersBroadcastFailure(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()

	env := newSyncingEnv(t, config.SubmissionModeAtomic, true, 99)
	headers := testutil.GenRandomExecutionHeaders(r, 5_000, 4)
	env.ledger.trackHeaders(t, headers)
	env.ledger.failAttempt(1, errorsmod.Wrap(types.ErrRPC, "Timeout"))

	err := env.gw.SubmitHeaders(ctx, headers, 100, 150)
	require.ErrorIs(t, err, types.ErrRPC)
	require.True(t, types.IsRetryable(err))
	require.Equal(t, uint64(99), env.gw.SyncState().LastSlot)

	// the payload was persisted before the broadcast and stays pending
	pending, err := env.gw.PendingCheckpoints()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, store.HeadersCheckpointName(100, 150), pending[0].Name)

	// calling again re-sequences with a fresh nonce and completes the batch
	err = env.gw.SubmitHeaders(ctx, headers, 100, 150)
	require.NoError(t, err)
	require.Equal(t, uint64(150), env.gw.SyncState().LastSlot)

	txs := env.ledger.committedTxs()
	require.Len(t, txs, 1)
	require.Equal(t, uint64(42), txs[0].Transaction.Nonce)

	pending, err = env.gw.PendingCheckpoints()
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestSubmitHeadersAlreadyOnLedger(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()

	env := newSyncingEnv(t, config.SubmissionModeAtomic, true, 99)
	headers := testutil.GenRandomExecutionHeaders(r, 5_000, 3)
	env.ledger.trackHeaders(t, headers)

	// the transaction commits but the reply is lost
	env.ledger.loseReply(1)
	err := env.gw.SubmitHeaders(ctx, headers, 100, 150)
	require.ErrorIs(t, err, types.ErrRPC)
	require.Len(t, env.ledger.committedTxs(), 1)
	require.Equal(t, uint64(99), env.gw.SyncState().LastSlot)

	// the retry finds every header on the ledger and sends nothing
	require.NoError(t, env.gw.SubmitHeaders(ctx, headers, 100, 150))
	require.Len(t, env.ledger.committedTxs(), 1)
	require.Equal(t, uint64(150), env.gw.SyncState().LastSlot)

	pending, err := env.gw.PendingCheckpoints()
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestSubmitHeadersEmptyBatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// any ledger call fails the test through the mock controller
	env := newTestEnv(t, config.SubmissionModeAtomic, false)

	require.NoError(t, env.gw.SubmitHeaders(ctx, nil, 10, 10))
	require.NoError(t, env.gw.SubmitHeaders(ctx, []*types.ExecutionHeader{}, 10, 10))

	pending, err := env.gw.PendingCheckpoints()
	require.NoError(t, err)
	require.Empty(t, pending)

	entries, err := os.ReadDir(env.cfg.CheckpointDir)
	if err == nil {
		require.Empty(t, entries)
	} else {
		require.True(t, os.IsNotExist(err))
	}
}

func TestSubmitHeadersSequential(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()

	env := newSyncingEnv(t, config.SubmissionModeSequential, true, 99)
	n := 2 + r.Intn(5)
	headers := testutil.GenRandomExecutionHeaders(r, 5_000, n)
	env.ledger.trackHeaders(t, headers)

	require.NoError(t, env.gw.SubmitHeaders(ctx, headers, 100, 150))

	txs := env.ledger.committedTxs()
	require.Len(t, txs, n)
	for i, tx := range txs {
		require.Equal(t, uint64(42+i), tx.Transaction.Nonce)
		calls := submitHeaderCalls(t, tx)
		require.Len(t, calls, 1)
		expected, err := codec.Marshal(*headers[i])
		require.NoError(t, err)
		require.Equal(t, expected, calls[0].Args)
	}
	require.Equal(t, uint64(150), env.gw.SyncState().LastSlot)
}

func TestSubmitHeadersSequentialPartialFailure(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()

	env := newSyncingEnv(t, config.SubmissionModeSequential, true, 99)
	headers := testutil.GenRandomExecutionHeaders(r, 5_000, 3)
	env.ledger.trackHeaders(t, headers)
	env.ledger.failAttempt(2, errorsmod.Wrap(types.ErrChainRejection, "out of gas"))

	err := env.gw.SubmitHeaders(ctx, headers, 100, 150)
	require.ErrorIs(t, err, types.ErrChainRejection)
	require.Contains(t, err.Error(), "submitted 1 of 3 headers")
	require.Equal(t, uint64(99), env.gw.SyncState().LastSlot)
	require.Len(t, env.ledger.committedTxs(), 1)

	// the retry skips the header the ledger already stores
	require.NoError(t, env.gw.SubmitHeaders(ctx, headers, 100, 150))
	txs := env.ledger.committedTxs()
	require.Len(t, txs, 3)
	require.Equal(t, uint64(43), txs[1].Transaction.Nonce)
	require.Equal(t, uint64(44), txs[2].Transaction.Nonce)
	require.Equal(t, uint64(150), env.gw.SyncState().LastSlot)
}

func TestSubmitHeadersConsistency(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()

	env := newSyncingEnv(t, config.SubmissionModeAtomic, false, 99)
	headers := testutil.GenRandomExecutionHeaders(r, 5_000, 3)

	testCases := []struct {
		name      string
		headers   []*types.ExecutionHeader
		startSlot uint64
		endSlot   uint64
	}{
		{"start after end", headers, 120, 110},
		{"start at last slot", headers, 99, 150},
		{"start before last slot", headers, 50, 150},
		{"numbers not increasing", []*types.ExecutionHeader{headers[1], headers[0]}, 100, 150},
		{"repeated number", []*types.ExecutionHeader{headers[0], headers[0]}, 100, 150},
	}

	for _, tc := range testCases {
		err := env.gw.SubmitHeaders(ctx, tc.headers, tc.startSlot, tc.endSlot)
		require.ErrorIs(t, err, types.ErrConsistency, tc.name)
	}

	require.Equal(t, uint64(99), env.gw.SyncState().LastSlot)
	pending, err := env.gw.PendingCheckpoints()
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestSubmitHeadersBatchLimit(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	env := newSyncingEnv(t, config.SubmissionModeAtomic, false, 99)
	env.cfg.MaxHeadersPerBatch = 2
	headers := testutil.GenRandomExecutionHeaders(r, 5_000, 3)

	err := env.gw.SubmitHeaders(context.Background(), headers, 100, 150)
	require.Error(t, err)
	require.Contains(t, err.Error(), "exceeds the limit")
}

func TestSubmitRequiresSyncing(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()

	env := newTestEnv(t, config.SubmissionModeAtomic, false)
	require.Equal(t, types.StatusUninitialized, env.gw.Status())

	err := env.gw.SubmitHeaders(ctx, testutil.GenRandomExecutionHeaders(r, 1, 1), 1, 1)
	require.ErrorIs(t, err, types.ErrConsistency)

	err = env.gw.SubmitLightClientUpdate(ctx, testutil.GenRandomLightClientUpdate(r, 100, false), 0)
	require.ErrorIs(t, err, types.ErrConsistency)

	err = env.gw.Init(ctx, genInitParams(r, 0))
	require.ErrorIs(t, err, types.ErrConsistency)

	err = env.gw.Adopt(ctx, 100)
	require.ErrorIs(t, err, types.ErrConsistency)
}

func TestRelayLifecycle(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()

	env := newTestEnv(t, config.SubmissionModeAtomic, true)

	require.NoError(t, env.gw.Register(ctx))
	require.Equal(t, types.StatusRegistered, env.gw.Status())

	txs := env.ledger.committedTxs()
	require.Len(t, txs, 1)
	register := txs[0].Transaction.Actions[0].FunctionCall
	require.Equal(t, "register_submitter", register.MethodName)
	require.Equal(t, "10000000000000000000000000", register.Deposit.String())
	require.JSONEq(t, string(mustJSON(t, map[string]string{"account_id": signerAccount})), string(register.Args))

	require.NoError(t, env.gw.Init(ctx, genInitParams(r, 0)))
	require.Equal(t, types.StatusSyncing, env.gw.Status())
	require.Equal(t, types.SyncState{LastSlot: 0, LastPeriod: 0}, env.gw.SyncState())

	txs = env.ledger.committedTxs()
	require.Len(t, txs, 2)
	require.Equal(t, "init", txs[1].Transaction.Actions[0].FunctionCall.MethodName)

	// registering again is forwarded and never regresses the status
	require.NoError(t, env.gw.Register(ctx))
	require.Equal(t, types.StatusSyncing, env.gw.Status())

	update := testutil.GenRandomLightClientUpdate(r, 8_300, true)
	require.NoError(t, env.gw.SubmitLightClientUpdate(ctx, update, 1))
	require.Equal(t, uint64(1), env.gw.SyncState().LastPeriod)

	cp, err := env.cps.GetCheckpoint(store.UpdateCheckpointName(1, 8_300))
	require.NoError(t, err)
	require.Equal(t, store.StatusCommitted, cp.Status)
	loaded, err := env.cps.LoadUpdate(cp.Name)
	require.NoError(t, err)
	require.Equal(t, update, loaded)

	// the ledger rejects the duplicate and it does not count as progress
	err = env.gw.SubmitLightClientUpdate(ctx, update, 1)
	require.ErrorIs(t, err, types.ErrChainRejection)
	require.Equal(t, uint64(1), env.gw.SyncState().LastPeriod)
	require.Len(t, env.ledger.committedTxs(), 4)
}

func TestSubmitLightClientUpdateConsistency(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()

	// slot 3 * 8192 is in period 3, so the last proven period is 2
	lastSlot := 3 * types.SlotsPerSyncCommitteePeriod
	env := newSyncingEnv(t, config.SubmissionModeAtomic, false, lastSlot)
	require.Equal(t, uint64(2), env.gw.SyncState().LastPeriod)

	update := testutil.GenRandomLightClientUpdate(r, lastSlot, false)

	err := env.gw.SubmitLightClientUpdate(ctx, update, 1)
	require.ErrorIs(t, err, types.ErrConsistency)

	err = env.gw.SubmitLightClientUpdate(ctx, update, 5)
	require.ErrorIs(t, err, types.ErrConsistency)

	err = env.gw.SubmitLightClientUpdate(ctx, nil, 3)
	require.Error(t, err)

	require.Equal(t, uint64(2), env.gw.SyncState().LastPeriod)
}

func TestConcurrentSubmissionRejected(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()

	env := newSyncingEnv(t, config.SubmissionModeAtomic, true, 99)
	headers := testutil.GenRandomExecutionHeaders(r, 5_000, 2)
	env.ledger.trackHeaders(t, headers)

	started := make(chan struct{})
	release := make(chan struct{})
	env.ledger.onAttempt = func(int) {
		close(started)
		<-release
	}

	var wg sync.WaitGroup
	var submitErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		submitErr = env.gw.SubmitHeaders(ctx, headers, 100, 150)
	}()

	<-started
	err := env.gw.SubmitLightClientUpdate(ctx, testutil.GenRandomLightClientUpdate(r, 120, false), 0)
	require.ErrorIs(t, err, types.ErrConcurrentSubmission)
	err = env.gw.SubmitHeaders(ctx, headers, 100, 150)
	require.ErrorIs(t, err, types.ErrConcurrentSubmission)

	close(release)
	wg.Wait()
	require.NoError(t, submitErr)
	require.Equal(t, uint64(150), env.gw.SyncState().LastSlot)
}

func TestRestartResumesSyncState(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()

	env := newSyncingEnv(t, config.SubmissionModeAtomic, true, 99)
	headers := testutil.GenRandomExecutionHeaders(r, 5_000, 2)
	env.ledger.trackHeaders(t, headers)
	require.NoError(t, env.gw.SubmitHeaders(ctx, headers, 100, 150))
	expected := env.gw.SyncState()

	env.reopen(t)
	require.Equal(t, types.StatusSyncing, env.gw.Status())
	require.Equal(t, expected, env.gw.SyncState())

	// the next batch must follow the restored last slot
	err := env.gw.SubmitHeaders(ctx, headers, 150, 200)
	require.ErrorIs(t, err, types.ErrConsistency)
}

func TestReplayPendingCheckpoint(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()

	env := newSyncingEnv(t, config.SubmissionModeAtomic, true, 99)
	headers := testutil.GenRandomExecutionHeaders(r, 5_000, 3)
	env.ledger.trackHeaders(t, headers)
	env.ledger.failAttempt(1, errorsmod.Wrap(types.ErrRPC, "connection refused"))

	require.ErrorIs(t, env.gw.SubmitHeaders(ctx, headers, 100, 150), types.ErrRPC)

	// a restarted process finds the evidence and replays it
	env.reopen(t)
	pending, err := env.gw.PendingCheckpoints()
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, env.gw.Replay(ctx, pending[0].Name))
	require.Equal(t, uint64(150), env.gw.SyncState().LastSlot)
	require.Len(t, env.ledger.committedTxs(), 1)

	// replaying a committed checkpoint does nothing
	require.NoError(t, env.gw.Replay(ctx, pending[0].Name))
	require.Len(t, env.ledger.committedTxs(), 1)

	require.ErrorIs(t, env.gw.Replay(ctx, "headers_slots_1_2"), store.ErrCheckpointNotFound)
}

func TestConvergenceViews(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()

	env := newSyncingEnv(t, config.SubmissionModeAtomic, true, 99)
	env.ledger.finalizedRoot = testutil.GenRandomH256(r)
	env.ledger.headerRoot = testutil.GenRandomH256(r)

	root, err := env.gw.FinalizedBeaconBlockHash(ctx)
	require.NoError(t, err)
	require.Equal(t, env.ledger.finalizedRoot, root)

	ok, err := env.gw.IsLastFinalizedHeaderRoot(ctx, env.ledger.headerRoot)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = env.gw.IsLastFinalizedHeaderRoot(ctx, testutil.GenRandomH256(r))
	require.NoError(t, err)
	require.False(t, ok)

	header := testutil.GenRandomExecutionHeader(r, 7)
	known, err := env.gw.IsKnownBlock(ctx, header.BlockHash())
	require.NoError(t, err)
	require.False(t, known)

	env.ledger.known[header.BlockHash()] = true
	known, err = env.gw.IsKnownBlock(ctx, header.BlockHash())
	require.NoError(t, err)
	require.True(t, known)
}

func TestAdopt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	env := newTestEnv(t, config.SubmissionModeAtomic, true)
	require.NoError(t, env.gw.Register(ctx))

	slot := 2*types.SlotsPerSyncCommitteePeriod + 17
	require.NoError(t, env.gw.Adopt(ctx, slot))
	require.Equal(t, types.StatusSyncing, env.gw.Status())
	require.Equal(t, types.SyncState{LastSlot: slot, LastPeriod: 1}, env.gw.SyncState())

	// only the registration went out
	require.Len(t, env.ledger.committedTxs(), 1)

	require.ErrorIs(t, env.gw.Adopt(ctx, slot), types.ErrConsistency)
}

func TestNewGatewaySignerMismatch(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.SubmissionModeAtomic, false)
	other := testutil.GenCredential(t, "someone.testnet")

	_, err := service.NewGateway(env.cfg, env.lc, other, env.cps, env.rss, testutil.GetTestLogger(t), nil)
	require.ErrorIs(t, err, types.ErrCredential)
}
