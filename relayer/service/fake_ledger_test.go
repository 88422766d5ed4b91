package service_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	errorsmod "cosmossdk.io/errors"
	"github.com/golang/mock/gomock"
	"github.com/lightningnetwork/lnd/kvdb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/eth2near/relayer/codec"
	"github.com/eth2near/relayer/keyring"
	"github.com/eth2near/relayer/metrics"
	"github.com/eth2near/relayer/relayer/config"
	"github.com/eth2near/relayer/relayer/service"
	"github.com/eth2near/relayer/relayer/store"
	"github.com/eth2near/relayer/testutil"
	"github.com/eth2near/relayer/testutil/mocks"
	"github.com/eth2near/relayer/types"
)

const (
	signerAccount   = "relayer.testnet"
	contractAccount = "client.testnet"
)

// fakeLedger backs a MockLedgerClient with just enough contract behavior:
// it tracks the access key nonce, the execution headers it stored and the
// light client updates it accepted, and rejects duplicates of either.
type fakeLedger struct {
	mu sync.Mutex

	nonce         uint64
	blockHash     [32]byte
	finalizedRoot types.H256
	headerRoot    types.H256

	// submit_header args -> block hash
	headerArgs map[string]types.H256
	known      map[types.H256]bool
	updates    map[string]bool

	attempts    int
	failures    map[int]error
	lostReplies map[int]bool
	onAttempt   func(attempt int)
	committed   []*codec.SignedTransaction
	views       int
}

func newFakeLedger(nonce uint64) *fakeLedger {
	return &fakeLedger{
		nonce:       nonce,
		blockHash:   [32]byte{1, 2, 3},
		headerArgs:  make(map[string]types.H256),
		known:       make(map[types.H256]bool),
		updates:     make(map[string]bool),
		failures:    make(map[int]error),
		lostReplies: make(map[int]bool),
	}
}

// trackHeaders lets the ledger recognize submit_header calls for headers.
func (f *fakeLedger) trackHeaders(t *testing.T, headers []*types.ExecutionHeader) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, h := range headers {
		args, err := codec.Marshal(*h)
		require.NoError(t, err)
		f.headerArgs[string(args)] = h.BlockHash()
	}
}

// failAttempt makes the n-th broadcast, counting from 1, fail with err.
func (f *fakeLedger) failAttempt(n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failures[n] = err
}

// loseReply makes the n-th broadcast commit but report a timeout.
func (f *fakeLedger) loseReply(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lostReplies[n] = true
}

func (f *fakeLedger) committedTxs() []*codec.SignedTransaction {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*codec.SignedTransaction{}, f.committed...)
}

func (f *fakeLedger) currentNonce() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.nonce
}

func (f *fakeLedger) bind(lc *mocks.MockLedgerClient, cred *keyring.Credential) {
	lc.EXPECT().QueryLatestBlockHash(gomock.Any()).DoAndReturn(
		func(_ context.Context) ([32]byte, error) {
			f.mu.Lock()
			defer f.mu.Unlock()

			return f.blockHash, nil
		}).AnyTimes()

	lc.EXPECT().QueryAccessKeyNonce(gomock.Any(), cred.AccountID(), cred.PublicKey()).DoAndReturn(
		func(_ context.Context, _ string, _ codec.PublicKey) (uint64, error) {
			return f.currentNonce(), nil
		}).AnyTimes()

	lc.EXPECT().CallView(gomock.Any(), contractAccount, gomock.Any(), gomock.Any()).DoAndReturn(f.callView).AnyTimes()

	lc.EXPECT().BroadcastTxCommit(gomock.Any(), gomock.Any()).DoAndReturn(f.broadcast).AnyTimes()
}

func (f *fakeLedger) callView(_ context.Context, _ string, method string, args []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.views++
	switch method {
	case "is_known_execution_header":
		var hash types.H256
		if len(args) != len(hash) {
			return nil, errorsmod.Wrap(types.ErrChainRejection, "bad hash argument")
		}
		copy(hash[:], args)

		return codec.Marshal(f.known[hash])
	case "finalized_beacon_block_root":
		return f.finalizedRoot[:], nil
	case "finalized_beacon_header_root":
		return f.headerRoot[:], nil
	default:
		return nil, errorsmod.Wrapf(types.ErrChainRejection, "MethodNotFound: %s", method)
	}
}

func (f *fakeLedger) broadcast(_ context.Context, tx *codec.SignedTransaction) (*types.TxResponse, error) {
	f.mu.Lock()
	f.attempts++
	attempt := f.attempts
	hook := f.onAttempt
	f.mu.Unlock()

	if hook != nil {
		hook(attempt)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.failures[attempt]; ok {
		return nil, err
	}
	if tx.Transaction.Nonce != f.nonce+1 {
		return nil, errorsmod.Wrapf(types.ErrNonceConflict, "InvalidNonce: %d", tx.Transaction.Nonce)
	}

	// all calls of a transaction apply or none does
	newHeaders := make(map[types.H256]bool)
	newUpdates := make(map[string]bool)
	for _, action := range tx.Transaction.Actions {
		call := action.FunctionCall
		switch call.MethodName {
		case "submit_header":
			hash := f.headerArgs[string(call.Args)]
			if f.known[hash] || newHeaders[hash] {
				return nil, errorsmod.Wrap(types.ErrChainRejection, "The block is already submitted")
			}
			newHeaders[hash] = true
		case "submit_update":
			if f.updates[string(call.Args)] || newUpdates[string(call.Args)] {
				return nil, errorsmod.Wrap(types.ErrChainRejection, "The acceptable update periods are")
			}
			newUpdates[string(call.Args)] = true
		}
	}

	f.nonce = tx.Transaction.Nonce
	for hash := range newHeaders {
		f.known[hash] = true
	}
	for args := range newUpdates {
		f.updates[args] = true
	}
	f.committed = append(f.committed, tx)

	if f.lostReplies[attempt] {
		return nil, errorsmod.Wrap(types.ErrRPC, "Timeout")
	}

	return &types.TxResponse{}, nil
}

type testEnv struct {
	cfg    *config.Config
	cred   *keyring.Credential
	lc     *mocks.MockLedgerClient
	ledger *fakeLedger
	db     kvdb.Backend
	cps    *store.CheckpointStore
	rss    *store.RelayStateStore
	gw     *service.Gateway
}

func testConfig(t *testing.T, mode string) *config.Config {
	cfg := config.DefaultConfigWithHome(t.TempDir())
	cfg.SubmissionMode = mode
	cfg.NearConfig.SignerAccount = signerAccount
	cfg.NearConfig.ContractAccount = contractAccount
	require.NoError(t, cfg.Validate())

	return &cfg
}

// newTestEnv returns a gateway over a mocked ledger. With bound set the
// mock is backed by a fakeLedger, otherwise any ledger call fails the test.
func newTestEnv(t *testing.T, mode string, bound bool) *testEnv {
	ctl := gomock.NewController(t)
	env := &testEnv{
		cfg:  testConfig(t, mode),
		cred: testutil.GenCredential(t, signerAccount),
		lc:   mocks.NewMockLedgerClient(ctl),
	}
	if bound {
		env.ledger = newFakeLedger(41)
		env.ledger.bind(env.lc, env.cred)
	}

	env.open(t)

	return env
}

// newSyncingEnv returns an env whose relay is already syncing from lastSlot.
func newSyncingEnv(t *testing.T, mode string, bound bool, lastSlot uint64) *testEnv {
	env := newTestEnv(t, mode, bound)
	require.NoError(t, env.rss.SeedSyncState(types.SyncState{
		LastSlot:   lastSlot,
		LastPeriod: types.InitialPeriod(lastSlot),
	}))
	env.reopen(t)

	return env
}

func (e *testEnv) open(t *testing.T) {
	db, err := e.cfg.DatabaseConfig.GetDBBackend()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	e.db = db

	e.cps, err = store.NewCheckpointStore(e.cfg.CheckpointDir, db)
	require.NoError(t, err)
	e.rss, err = store.NewRelayStateStore(db)
	require.NoError(t, err)

	e.gw, err = service.NewGateway(
		e.cfg,
		e.lc,
		e.cred,
		e.cps,
		e.rss,
		testutil.GetTestLogger(t),
		metrics.NewRelayerMetrics(prometheus.NewRegistry()),
	)
	require.NoError(t, err)
}

// reopen simulates a process restart on the same home directory.
func (e *testEnv) reopen(t *testing.T) {
	require.NoError(t, e.db.Close())
	e.open(t)
}

func submitHeaderCalls(t *testing.T, tx *codec.SignedTransaction) []codec.FunctionCall {
	calls := make([]codec.FunctionCall, 0, len(tx.Transaction.Actions))
	for _, action := range tx.Transaction.Actions {
		require.True(t, action.IsFunctionCall())
		require.Equal(t, "submit_header", action.FunctionCall.MethodName)
		calls = append(calls, action.FunctionCall)
	}

	return calls
}

func mustJSON(t *testing.T, v interface{}) []byte {
	bz, err := json.Marshal(v)
	require.NoError(t, err)

	return bz
}
