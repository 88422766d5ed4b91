package near

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	errorsmod "cosmossdk.io/errors"
	ethrpc "github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/eth2near/relayer/clientcontroller/api"
	"github.com/eth2near/relayer/codec"
	"github.com/eth2near/relayer/relayer/config"
	"github.com/eth2near/relayer/types"
)

const (
	methodQuery             = "query"
	methodStatus            = "status"
	methodBroadcastTxCommit = "broadcast_tx_commit"

	requestTypeCallFunction = "call_function"
	// views read the state of the last final block
	finalityFinal = "final"
)

var _ api.LedgerClient = &Client{}

// Client talks to a NEAR node over JSON-RPC. One client is created per
// process and reused for every call.
type Client struct {
	cfg    *config.NearConfig
	rpc    *ethrpc.Client
	logger *zap.Logger
}

func NewClient(ctx context.Context, cfg *config.NearConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config for NEAR client")
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	rpcClient, err := ethrpc.DialOptions(ctx, cfg.RPCAddr, ethrpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrRPC, "failed to dial %s: %v", cfg.RPCAddr, err)
	}

	return &Client{
		cfg:    cfg,
		rpc:    rpcClient,
		logger: logger.With(zap.String("module", "near_client")),
	}, nil
}

// CallView runs a read-only contract method against final state.
func (c *Client) CallView(ctx context.Context, contractID, method string, args []byte) ([]byte, error) {
	req := callFunctionRequest{
		RequestType: requestTypeCallFunction,
		Finality:    finalityFinal,
		AccountID:   contractID,
		MethodName:  method,
		ArgsBase64:  base64.StdEncoding.EncodeToString(args),
	}

	var res callFunctionResult
	if err := c.call(ctx, &res, methodQuery, req); err != nil {
		return nil, err
	}

	if res.Error != "" {
		return nil, errorsmod.Wrapf(types.ErrChainRejection, "view %s on %s failed: %s", method, contractID, res.Error)
	}

	return res.Result, nil
}

func (c *Client) QueryAccessKeyNonce(ctx context.Context, accountID string, pk codec.PublicKey) (uint64, error) {
	var res accessKeyResult
	path := fmt.Sprintf("access_key/%s/%s", accountID, pk.String())
	if err := c.call(ctx, &res, methodQuery, path, ""); err != nil {
		return 0, err
	}

	if res.Error != "" {
		return 0, errorsmod.Wrapf(types.ErrChainRejection, "view access key of %s failed: %s", accountID, res.Error)
	}

	return res.Nonce, nil
}

func (c *Client) QueryLatestBlockHash(ctx context.Context) ([32]byte, error) {
	var res statusResult
	if err := c.call(ctx, &res, methodStatus); err != nil {
		return [32]byte{}, err
	}

	hash, err := codec.DecodeBlockHash(res.SyncInfo.LatestBlockHash)
	if err != nil {
		return [32]byte{}, errorsmod.Wrap(types.ErrRPC, err.Error())
	}

	return hash, nil
}

func (c *Client) BroadcastTxCommit(ctx context.Context, tx *codec.SignedTransaction) (*types.TxResponse, error) {
	bz, err := codec.Marshal(*tx)
	if err != nil {
		return nil, err
	}

	var outcome finalExecutionOutcome
	if err := c.call(ctx, &outcome, methodBroadcastTxCommit, base64.StdEncoding.EncodeToString(bz)); err != nil {
		return nil, err
	}

	return outcome.toTxResponse(tx.Transaction.Nonce)
}

func (c *Client) Close() error {
	c.rpc.Close()

	return nil
}

func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if err := c.rpc.CallContext(ctx, result, method, args...); err != nil {
		c.logger.Debug("rpc call failed", zap.String("method", method), zap.Error(err))

		return classifyError(method, err)
	}

	return nil
}
