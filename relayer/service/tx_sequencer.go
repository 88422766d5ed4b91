package service

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	errorsmod "cosmossdk.io/errors"
	"go.uber.org/zap"

	"github.com/eth2near/relayer/clientcontroller/api"
	"github.com/eth2near/relayer/codec"
	"github.com/eth2near/relayer/types"
)

// MethodCall is one contract method invocation inside a transaction.
type MethodCall struct {
	MethodName string
	Args       []byte
	Gas        uint64
	Deposit    sdkmath.Uint
}

// TxSequencer builds, signs and broadcasts transactions for the signer and
// waits for the ledger to report their outcome. It never retries: a failed
// transaction is returned to the caller, who re-sequences by calling again.
type TxSequencer struct {
	lc     api.LedgerClient
	signer codec.Signer
	nonces *NonceSequencer
	logger *zap.Logger
}

func NewTxSequencer(lc api.LedgerClient, signer codec.Signer, logger *zap.Logger) *TxSequencer {
	return &TxSequencer{
		lc:     lc,
		signer: signer,
		nonces: NewNonceSequencer(lc, signer),
		logger: logger.With(zap.String("module", "tx_sequencer")),
	}
}

// Submit sends one transaction to receiver carrying calls in the given
// order. The ledger applies all of them or none.
func (ts *TxSequencer) Submit(ctx context.Context, receiver string, calls []MethodCall) (*types.TxResponse, error) {
	if len(calls) == 0 {
		return nil, fmt.Errorf("a transaction needs at least one method call")
	}

	actions := make([]codec.Action, 0, len(calls))
	for _, call := range calls {
		deposit, err := codec.NewUint128(call.Deposit)
		if err != nil {
			return nil, fmt.Errorf("invalid deposit for %s: %w", call.MethodName, err)
		}
		actions = append(actions, codec.NewFunctionCallAction(codec.FunctionCall{
			MethodName: call.MethodName,
			Args:       call.Args,
			Gas:        call.Gas,
			Deposit:    deposit,
		}))
	}

	blockHash, err := ts.lc.QueryLatestBlockHash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get a recent block hash: %w", err)
	}

	nonce, err := ts.nonces.NextNonce(ctx)
	if err != nil {
		return nil, err
	}

	tx := &codec.Transaction{
		SignerID:   ts.signer.AccountID(),
		PublicKey:  ts.signer.PublicKey(),
		Nonce:      nonce,
		ReceiverID: receiver,
		BlockHash:  blockHash,
		Actions:    actions,
	}
	signed, txID, err := codec.SignTransaction(tx, ts.signer)
	if err != nil {
		return nil, errorsmod.Wrap(types.ErrCredential, err.Error())
	}

	ts.logger.Debug("broadcasting transaction",
		zap.String("tx_id", txID),
		zap.Uint64("nonce", nonce),
		zap.String("method", calls[0].MethodName),
		zap.Int("num_calls", len(calls)),
	)

	res, err := ts.lc.BroadcastTxCommit(ctx, signed)
	if err != nil {
		return nil, fmt.Errorf("transaction %s with nonce %d failed: %w", txID, nonce, err)
	}

	if res.TxHash == "" {
		res.TxHash = txID
	}
	res.Nonce = nonce

	ts.logger.Debug("transaction committed",
		zap.String("tx_id", res.TxHash),
		zap.Uint64("nonce", nonce),
	)

	return res, nil
}
