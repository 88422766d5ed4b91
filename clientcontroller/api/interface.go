package api

import (
	"context"

	"github.com/eth2near/relayer/codec"
	"github.com/eth2near/relayer/types"
)

// LedgerClient defines the RPC surface of the receiving ledger the relay
// depends on. Implementations classify failures into the relayer error
// codes: transport problems are types.ErrRPC, stale nonces are
// types.ErrNonceConflict and execution failures are types.ErrChainRejection.
type LedgerClient interface {
	// CallView runs a read-only contract method with the given encoded
	// arguments and returns the raw result bytes
	CallView(ctx context.Context, contractID, method string, args []byte) ([]byte, error)

	// QueryAccessKeyNonce returns the current nonce of the access key
	// (accountID, pk) as observed by the ledger
	QueryAccessKeyNonce(ctx context.Context, accountID string, pk codec.PublicKey) (uint64, error)

	// QueryLatestBlockHash returns the hash of a recent block, used to bind
	// transactions for replay protection
	QueryLatestBlockHash(ctx context.Context) ([32]byte, error)

	// BroadcastTxCommit sends the signed transaction and blocks until the
	// ledger reports its final outcome
	BroadcastTxCommit(ctx context.Context, tx *codec.SignedTransaction) (*types.TxResponse, error)

	// Close cleanly shuts down the client
	Close() error
}
