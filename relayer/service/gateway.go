package service

import (
	"context"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/eth2near/relayer/clientcontroller/api"
	"github.com/eth2near/relayer/codec"
	"github.com/eth2near/relayer/metrics"
	"github.com/eth2near/relayer/relayer/config"
	"github.com/eth2near/relayer/relayer/store"
	"github.com/eth2near/relayer/types"
	"github.com/eth2near/relayer/util"
)

// Gateway is the single entry point of the driving loop into the light
// client contract. Every mutating operation persists its payload before
// anything leaves the process, and SyncState only moves after the ledger
// confirmed the transaction.
//
// A Gateway serves one signer account. Overlapping mutating calls are
// rejected with types.ErrConcurrentSubmission rather than queued.
type Gateway struct {
	cfg      *config.Config
	lc       api.LedgerClient
	signer   codec.Signer
	txs      *TxSequencer
	cps      *store.CheckpointStore
	state    *relayState
	inFlight *atomic.Bool
	metrics  *metrics.RelayerMetrics
	logger   *zap.Logger
}

func NewGateway(
	cfg *config.Config,
	lc api.LedgerClient,
	signer codec.Signer,
	cps *store.CheckpointStore,
	rss *store.RelayStateStore,
	logger *zap.Logger,
	metrics *metrics.RelayerMetrics,
) (*Gateway, error) {
	if signer.AccountID() != cfg.NearConfig.SignerAccount {
		return nil, errorsmod.Wrapf(types.ErrCredential, "credential of %s cannot sign for %s",
			signer.AccountID(), cfg.NearConfig.SignerAccount)
	}

	state, err := newRelayState(rss, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to load the relay state: %w", err)
	}

	g := &Gateway{
		cfg:      cfg,
		lc:       lc,
		signer:   signer,
		txs:      NewTxSequencer(lc, signer, logger),
		cps:      cps,
		state:    state,
		inFlight: atomic.NewBool(false),
		metrics:  metrics,
		logger:   logger.With(zap.String("module", "gateway"), zap.String("signer", signer.AccountID())),
	}
	g.recordPendingCheckpoints()

	return g, nil
}

// Status returns the lifecycle status of the relay account.
func (g *Gateway) Status() types.RelayStatus {
	return g.state.status()
}

// SyncState returns a copy of the current sync progress.
func (g *Gateway) SyncState() types.SyncState {
	return g.state.syncState()
}

// PendingCheckpoints lists the persisted payloads whose submission was
// never confirmed.
func (g *Gateway) PendingCheckpoints() ([]*store.Checkpoint, error) {
	return g.cps.PendingCheckpoints()
}

func (g *Gateway) acquire() error {
	if !g.inFlight.CompareAndSwap(false, true) {
		return types.ErrConcurrentSubmission
	}

	return nil
}

func (g *Gateway) release() {
	g.inFlight.Store(false)
}

// Register bonds the signer account as a submitter. Calling it again is
// forwarded to the ledger, which decides whether that is an error, and
// never moves the status backwards.
func (g *Gateway) Register(ctx context.Context) error {
	if err := g.acquire(); err != nil {
		return err
	}
	defer g.release()

	deposit, err := g.cfg.NearConfig.RegisterDepositAmount()
	if err != nil {
		return errorsmod.Wrap(types.ErrConfig, err.Error())
	}
	args, err := encodeRegisterSubmitterArgs(g.signer.AccountID())
	if err != nil {
		return fmt.Errorf("failed to encode register_submitter args: %w", err)
	}

	if _, err := g.submit(ctx, []MethodCall{g.call(methodRegisterSubmitter, args, deposit)}); err != nil {
		return fmt.Errorf("failed to register %s: %w", g.signer.AccountID(), err)
	}

	if err := g.state.setStatus(types.StatusRegistered); err != nil {
		return errorsmod.Wrap(types.ErrPersistence, err.Error())
	}

	g.logger.Info("registered as submitter", zap.String("deposit", deposit.String()))

	return nil
}

// Init initializes the light client contract at the trusted starting point
// in params. On success the relay starts syncing from the beacon slot of
// params; on failure the caller must not proceed to sync.
func (g *Gateway) Init(ctx context.Context, params *InitParams) error {
	if err := g.acquire(); err != nil {
		return err
	}
	defer g.release()

	if err := params.Validate(); err != nil {
		return fmt.Errorf("invalid init params: %w", err)
	}
	if status := g.state.status(); status != types.StatusRegistered {
		return errorsmod.Wrapf(types.ErrConsistency, "init requires status %s, got %s", types.StatusRegistered, status)
	}

	contractCfg := g.cfg.ContractConfig
	if !contractCfg.VerifyBLSSignatures {
		g.logger.Warn("the light client will not verify sync committee BLS signatures")
	}

	input := initInput{
		Network:                     contractCfg.Network,
		FinalizedExecutionHeader:    *params.FinalizedExecutionHeader,
		FinalizedBeaconHeader:       params.FinalizedBeaconHeader,
		CurrentSyncCommittee:        params.CurrentSyncCommittee,
		NextSyncCommittee:           params.NextSyncCommittee,
		ValidateUpdates:             true,
		VerifyBLSSignatures:         contractCfg.VerifyBLSSignatures,
		HashesGCThreshold:           contractCfg.HashesGCThreshold,
		MaxSubmittedBlocksByAccount: contractCfg.MaxSubmittedBlocksByAccount,
	}
	if contractCfg.TrustedSigner != "" {
		trustedSigner := contractCfg.TrustedSigner
		input.TrustedSigner = &trustedSigner
	}

	args, err := codec.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to encode init args: %w", err)
	}

	if _, err := g.submit(ctx, []MethodCall{g.call(methodInit, args, sdkmath.ZeroUint())}); err != nil {
		return fmt.Errorf("failed to initialize the light client: %w", err)
	}

	slot := params.Slot()
	if err := g.seed(slot); err != nil {
		return err
	}

	g.logger.Info("initialized the light client",
		zap.String("network", contractCfg.Network),
		zap.Uint64("slot", slot),
		zap.Uint64("execution_block", params.FinalizedExecutionHeader.Number),
	)

	return nil
}

// Adopt starts syncing a contract that was initialized by someone else.
// It checks that the contract answers before seeding SyncState from
// lastSlot. No transaction is sent.
func (g *Gateway) Adopt(ctx context.Context, lastSlot uint64) error {
	if err := g.acquire(); err != nil {
		return err
	}
	defer g.release()

	if status := g.state.status(); status != types.StatusRegistered {
		return errorsmod.Wrapf(types.ErrConsistency, "adopt requires status %s, got %s", types.StatusRegistered, status)
	}

	root, err := g.FinalizedBeaconBlockHash(ctx)
	if err != nil {
		return fmt.Errorf("the light client contract is not usable: %w", err)
	}

	if err := g.seed(lastSlot); err != nil {
		return err
	}

	g.logger.Info("adopted the light client",
		zap.Uint64("slot", lastSlot),
		zap.String("finalized_beacon_block_root", root.String()),
	)

	return nil
}

func (g *Gateway) seed(slot uint64) error {
	ss := types.SyncState{
		LastSlot:   slot,
		LastPeriod: types.InitialPeriod(slot),
	}
	if err := g.state.seed(ss); err != nil {
		return errorsmod.Wrap(types.ErrPersistence, err.Error())
	}

	return nil
}

// SubmitHeaders submits execution headers covering the beacon slots
// [startSlot, endSlot]. LastSlot becomes endSlot once every header is on
// the ledger. Headers the ledger already knows at the front of the batch
// are skipped, so calling again after a timeout or a partial sequential
// failure finishes the batch instead of failing on duplicates.
func (g *Gateway) SubmitHeaders(ctx context.Context, headers []*types.ExecutionHeader, startSlot, endSlot uint64) error {
	if len(headers) == 0 {
		return nil
	}

	if err := g.acquire(); err != nil {
		return err
	}
	defer g.release()

	return g.submitHeaders(ctx, headers, startSlot, endSlot)
}

func (g *Gateway) submitHeaders(ctx context.Context, headers []*types.ExecutionHeader, startSlot, endSlot uint64) error {
	if err := g.requireSyncing(); err != nil {
		return err
	}

	if uint32(len(headers)) > g.cfg.MaxHeadersPerBatch {
		return fmt.Errorf("batch of %d headers exceeds the limit of %d", len(headers), g.cfg.MaxHeadersPerBatch)
	}

	lastSlot := g.state.syncState().LastSlot
	if startSlot > endSlot {
		return errorsmod.Wrapf(types.ErrConsistency, "start slot %d is after end slot %d", startSlot, endSlot)
	}
	if startSlot <= lastSlot {
		return errorsmod.Wrapf(types.ErrConsistency, "start slot %d does not follow the last slot %d", startSlot, lastSlot)
	}

	numbers := make([]uint64, len(headers))
	for i, h := range headers {
		if h == nil {
			return fmt.Errorf("header at index %d is nil", i)
		}
		numbers[i] = h.Number
	}
	if err := util.ValidateStrictlyIncreasing(numbers); err != nil {
		return errorsmod.Wrap(types.ErrConsistency, err.Error())
	}

	calls := make([]MethodCall, len(headers))
	for i, h := range headers {
		args, err := encodeHeader(h)
		if err != nil {
			return fmt.Errorf("failed to encode header %d: %w", h.Number, err)
		}
		calls[i] = g.call(methodSubmitHeader, args, sdkmath.ZeroUint())
	}

	cp, err := g.cps.PersistHeaders(startSlot, endSlot, headers)
	if err != nil {
		return err
	}
	g.recordPendingCheckpoints()

	known, err := g.knownPrefix(ctx, headers)
	if err != nil {
		return err
	}
	if known > 0 {
		g.logger.Info("skipping headers already known to the ledger",
			zap.String("checkpoint", cp.Name),
			zap.Int("known", known),
			zap.Int("total", len(headers)),
		)
	}

	remaining := calls[known:]
	if len(remaining) > 0 {
		switch g.cfg.SubmissionMode {
		case config.SubmissionModeSequential:
			for i, call := range remaining {
				if _, err := g.submit(ctx, []MethodCall{call}); err != nil {
					return fmt.Errorf("submitted %d of %d headers of %s: %w", known+i, len(headers), cp.Name, err)
				}
			}
		default:
			res, err := g.submit(ctx, remaining)
			if err != nil {
				return fmt.Errorf("failed to submit %s: %w", cp.Name, err)
			}
			g.logger.Debug("header batch committed", zap.String("tx_hash", res.TxHash))
		}
	}

	if err := g.state.setLastSlot(endSlot); err != nil {
		return errorsmod.Wrap(types.ErrPersistence, err.Error())
	}
	if err := g.commitCheckpoint(cp.Name); err != nil {
		return err
	}

	g.logger.Info("submitted execution headers",
		zap.String("checkpoint", cp.Name),
		zap.Uint64("first_block", headers[0].Number),
		zap.Uint64("last_block", headers[len(headers)-1].Number),
		zap.Uint64("last_slot", endSlot),
	)

	return nil
}

// knownPrefix returns how many headers at the front of the batch the
// ledger already stores. It stops at the first unknown header or one
// without an attached hash.
func (g *Gateway) knownPrefix(ctx context.Context, headers []*types.ExecutionHeader) (int, error) {
	for i, h := range headers {
		hash := h.BlockHash()
		if hash.IsZero() {
			return i, nil
		}
		known, err := g.IsKnownBlock(ctx, hash)
		if err != nil {
			return 0, fmt.Errorf("failed to check whether block %d is known: %w", h.Number, err)
		}
		if !known {
			return i, nil
		}
	}

	return len(headers), nil
}

// SubmitLightClientUpdate submits a finality update proving the given sync
// committee period. The period may repeat the last one, in which case the
// ledger decides whether the update is new, but it may neither go back nor
// run ahead of the committee the submitted headers reached.
func (g *Gateway) SubmitLightClientUpdate(ctx context.Context, update *types.LightClientUpdate, period uint64) error {
	if err := g.acquire(); err != nil {
		return err
	}
	defer g.release()

	return g.submitLightClientUpdate(ctx, update, period)
}

func (g *Gateway) submitLightClientUpdate(ctx context.Context, update *types.LightClientUpdate, period uint64) error {
	if update == nil {
		return fmt.Errorf("light client update cannot be nil")
	}
	if err := g.requireSyncing(); err != nil {
		return err
	}

	ss := g.state.syncState()
	if period < ss.LastPeriod {
		return errorsmod.Wrapf(types.ErrConsistency, "period %d is before the last period %d", period, ss.LastPeriod)
	}
	if maxPeriod := types.DerivePeriod(ss.LastSlot) + 1; period > maxPeriod {
		return errorsmod.Wrapf(types.ErrConsistency, "period %d skips ahead of period %d reachable from slot %d",
			period, maxPeriod, ss.LastSlot)
	}

	args, err := encodeUpdate(update)
	if err != nil {
		return fmt.Errorf("failed to encode light client update: %w", err)
	}

	cp, err := g.cps.PersistUpdate(period, update.AttestedSlot(), update)
	if err != nil {
		return err
	}
	g.recordPendingCheckpoints()

	res, err := g.submit(ctx, []MethodCall{g.call(methodSubmitUpdate, args, sdkmath.ZeroUint())})
	if err != nil {
		return fmt.Errorf("failed to submit %s: %w", cp.Name, err)
	}

	if err := g.state.setLastPeriod(period); err != nil {
		return errorsmod.Wrap(types.ErrPersistence, err.Error())
	}
	if err := g.commitCheckpoint(cp.Name); err != nil {
		return err
	}

	participation := update.SyncAggregate.Participation()
	g.metrics.RecordParticipation(participation)

	g.logger.Info("submitted light client update",
		zap.String("checkpoint", cp.Name),
		zap.String("tx_hash", res.TxHash),
		zap.Uint64("period", period),
		zap.Uint64("finalized_slot", update.FinalizedSlot()),
		zap.Uint64("participation", participation),
	)

	return nil
}

// Replay re-submits a pending checkpoint read back from the store. A
// checkpoint already committed, or one that SyncState has moved past, is
// only marked committed.
func (g *Gateway) Replay(ctx context.Context, name string) error {
	if err := g.acquire(); err != nil {
		return err
	}
	defer g.release()

	cp, err := g.cps.GetCheckpoint(name)
	if err != nil {
		return err
	}
	if cp.Status == store.StatusCommitted {
		g.logger.Info("checkpoint is already committed", zap.String("checkpoint", name))

		return nil
	}

	ss := g.state.syncState()
	switch cp.Kind {
	case store.KindHeaders:
		if cp.EndSlot <= ss.LastSlot {
			return g.commitCheckpoint(name)
		}
		headers, err := g.cps.LoadHeaders(name)
		if err != nil {
			return err
		}
		if len(headers) == 0 {
			return fmt.Errorf("checkpoint %s holds no headers", name)
		}

		return g.submitHeaders(ctx, headers, cp.StartSlot, cp.EndSlot)
	case store.KindUpdate:
		if cp.Period < ss.LastPeriod {
			return g.commitCheckpoint(name)
		}
		update, err := g.cps.LoadUpdate(name)
		if err != nil {
			return err
		}

		return g.submitLightClientUpdate(ctx, update, cp.Period)
	default:
		return fmt.Errorf("%w: %s has unknown kind %d", store.ErrCorruptedRelayerDB, name, cp.Kind)
	}
}

// IsKnownBlock reports whether the ledger stores the execution block.
func (g *Gateway) IsKnownBlock(ctx context.Context, hash types.H256) (bool, error) {
	args, err := encodeHash(hash)
	if err != nil {
		return false, err
	}

	res, err := g.lc.CallView(ctx, g.cfg.NearConfig.ContractAccount, methodIsKnownExecutionHeader, args)
	if err != nil {
		return false, err
	}

	known, err := decodeBool(res)
	if err != nil {
		return false, errorsmod.Wrapf(types.ErrChainRejection, "unexpected %s result: %v", methodIsKnownExecutionHeader, err)
	}

	return known, nil
}

// FinalizedBeaconBlockHash returns the root of the last beacon block the
// light client considers final.
func (g *Gateway) FinalizedBeaconBlockHash(ctx context.Context) (types.H256, error) {
	return g.viewHash(ctx, methodFinalizedBeaconBlockRoot)
}

// IsLastFinalizedHeaderRoot reports whether the ledger's finalized beacon
// header root equals expected. The observed root is only logged.
func (g *Gateway) IsLastFinalizedHeaderRoot(ctx context.Context, expected types.H256) (bool, error) {
	observed, err := g.viewHash(ctx, methodFinalizedBeaconHeaderRoot)
	if err != nil {
		return false, err
	}

	if !observed.Equal(expected) {
		g.logger.Debug("finalized header root mismatch",
			zap.String("expected", expected.String()),
			zap.String("observed", observed.String()),
		)

		return false, nil
	}

	return true, nil
}

func (g *Gateway) viewHash(ctx context.Context, method string) (types.H256, error) {
	res, err := g.lc.CallView(ctx, g.cfg.NearConfig.ContractAccount, method, emptyJSONArgs)
	if err != nil {
		return types.H256{}, err
	}

	hash, err := decodeHash(res)
	if err != nil {
		return types.H256{}, errorsmod.Wrapf(types.ErrChainRejection, "unexpected %s result: %v", method, err)
	}

	return hash, nil
}

func (g *Gateway) requireSyncing() error {
	if status := g.state.status(); status != types.StatusSyncing {
		return errorsmod.Wrapf(types.ErrConsistency, "relay is %s, expected %s", status, types.StatusSyncing)
	}

	return nil
}

func (g *Gateway) call(method string, args []byte, deposit sdkmath.Uint) MethodCall {
	return MethodCall{
		MethodName: method,
		Args:       args,
		Gas:        g.cfg.NearConfig.GasPerCall,
		Deposit:    deposit,
	}
}

// submit sends calls as one transaction to the contract and counts the
// outcome per method of its first call.
func (g *Gateway) submit(ctx context.Context, calls []MethodCall) (*types.TxResponse, error) {
	res, err := g.txs.Submit(ctx, g.cfg.NearConfig.ContractAccount, calls)
	g.metrics.IncrementSubmittedTxs(calls[0].MethodName, err == nil)
	if err != nil {
		return nil, err
	}

	return res, nil
}

func (g *Gateway) commitCheckpoint(name string) error {
	if err := g.cps.MarkCommitted(name); err != nil {
		return errorsmod.Wrap(types.ErrPersistence, err.Error())
	}
	g.recordPendingCheckpoints()

	return nil
}

func (g *Gateway) recordPendingCheckpoints() {
	pending, err := g.cps.PendingCheckpoints()
	if err != nil {
		g.logger.Warn("failed to count pending checkpoints", zap.Error(err))

		return
	}
	g.metrics.RecordPendingCheckpoints(len(pending))
}
