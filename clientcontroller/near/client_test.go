package near_test

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/stretchr/testify/require"

	"github.com/eth2near/relayer/clientcontroller/near"
	"github.com/eth2near/relayer/codec"
	"github.com/eth2near/relayer/keyring"
	"github.com/eth2near/relayer/relayer/config"
	"github.com/eth2near/relayer/testutil"
	"github.com/eth2near/relayer/types"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcReply struct {
	Result interface{}
	Error  interface{}
}

// fakeNode answers JSON-RPC requests with the replies registered per method
// and records every request it served.
type fakeNode struct {
	mu       sync.Mutex
	replies  map[string]rpcReply
	requests []rpcRequest
}

func newFakeNode(t *testing.T) (*fakeNode, *near.Client) {
	node := &fakeNode{replies: make(map[string]rpcReply)}
	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)

	cfg := config.DefaultNearConfig()
	cfg.RPCAddr = srv.URL
	cfg.Timeout = 5 * time.Second
	client, err := near.NewClient(context.Background(), &cfg, testutil.GetTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return node, client
}

func (n *fakeNode) reply(method string, r rpcReply) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.replies[method] = r
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	n.mu.Lock()
	n.requests = append(n.requests, req)
	reply := n.replies[req.Method]
	n.mu.Unlock()

	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	if reply.Error != nil {
		resp["error"] = reply.Error
	} else {
		resp["result"] = reply.Result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (n *fakeNode) lastRequest(t *testing.T) rpcRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.requests)

	return n.requests[len(n.requests)-1]
}

func paramString(t *testing.T, raw json.RawMessage) string {
	var s string
	require.NoError(t, json.Unmarshal(raw, &s))

	return s
}

func TestCallView(t *testing.T) {
	t.Parallel()
	node, client := newFakeNode(t)

	node.reply("query", rpcReply{Result: map[string]interface{}{
		"result": []int{1},
		"logs":   []string{},
	}})

	args := []byte{0xde, 0xad, 0xbe, 0xef}
	res, err := client.CallView(context.Background(), "client.testnet", "is_known_execution_header", args)
	require.NoError(t, err)
	require.Equal(t, []byte{1}, res)

	req := node.lastRequest(t)
	require.Len(t, req.Params, 1)
	var query map[string]string
	require.NoError(t, json.Unmarshal(req.Params[0], &query))
	require.Equal(t, "call_function", query["request_type"])
	require.Equal(t, "final", query["finality"])
	require.Equal(t, "client.testnet", query["account_id"])
	require.Equal(t, "is_known_execution_header", query["method_name"])
	sentArgs, err := base64.StdEncoding.DecodeString(query["args_base64"])
	require.NoError(t, err)
	require.Equal(t, args, sentArgs)

	node.reply("query", rpcReply{Result: map[string]interface{}{
		"error": "wasm execution failed with error: MethodNotFound",
		"logs":  []string{},
	}})
	_, err = client.CallView(context.Background(), "client.testnet", "missing", nil)
	require.ErrorIs(t, err, types.ErrChainRejection)
}

func TestQueryAccessKeyNonce(t *testing.T) {
	t.Parallel()
	node, client := newFakeNode(t)

	pk, err := codec.NewED25519PublicKey(ed25519.GenPrivKey().PubKey().Bytes())
	require.NoError(t, err)

	node.reply("query", rpcReply{Result: map[string]interface{}{
		"nonce":        41,
		"permission":   "FullAccess",
		"block_height": 100,
	}})

	nonce, err := client.QueryAccessKeyNonce(context.Background(), "relayer.testnet", pk)
	require.NoError(t, err)
	require.Equal(t, uint64(41), nonce)
	require.Equal(t, "access_key/relayer.testnet/"+pk.String(), paramString(t, node.lastRequest(t).Params[0]))
}

func TestQueryLatestBlockHash(t *testing.T) {
	t.Parallel()
	node, client := newFakeNode(t)

	var want [32]byte
	want[0], want[31] = 7, 9
	node.reply("status", rpcReply{Result: map[string]interface{}{
		"chain_id": "testnet",
		"sync_info": map[string]interface{}{
			"latest_block_hash":   base58.Encode(want[:]),
			"latest_block_height": 1234,
		},
	}})

	hash, err := client.QueryLatestBlockHash(context.Background())
	require.NoError(t, err)
	require.Equal(t, want, hash)
}

func newSignedTx(t *testing.T) (*codec.SignedTransaction, string) {
	kf, err := keyring.NewKeyFile(ed25519.GenPrivKey(), "relayer.testnet")
	require.NoError(t, err)
	signer, err := keyring.NewCredential(kf, "")
	require.NoError(t, err)

	tx := &codec.Transaction{
		SignerID:   signer.AccountID(),
		PublicKey:  signer.PublicKey(),
		Nonce:      42,
		ReceiverID: "client.testnet",
		Actions: []codec.Action{codec.NewFunctionCallAction(codec.FunctionCall{
			MethodName: "submit_header",
			Args:       []byte{1, 2, 3},
			Gas:        75_000_000_000_000,
		})},
	}
	signed, txID, err := codec.SignTransaction(tx, signer)
	require.NoError(t, err)

	return signed, txID
}

func successOutcome(txID string) rpcReply {
	return rpcReply{Result: map[string]interface{}{
		"status":      map[string]interface{}{"SuccessValue": base64.StdEncoding.EncodeToString([]byte("ok"))},
		"transaction": map[string]interface{}{"hash": txID},
		"transaction_outcome": map[string]interface{}{
			"id":      txID,
			"outcome": map[string]interface{}{"logs": []string{}, "status": map[string]interface{}{"SuccessReceiptId": "abc"}},
		},
		"receipts_outcome": []interface{}{
			map[string]interface{}{
				"id":      "abc",
				"outcome": map[string]interface{}{"logs": []string{"header accepted"}, "status": map[string]interface{}{"SuccessValue": ""}},
			},
		},
	}}
}

func TestBroadcastTxCommit(t *testing.T) {
	t.Parallel()
	node, client := newFakeNode(t)

	signed, txID := newSignedTx(t)
	node.reply("broadcast_tx_commit", successOutcome(txID))

	res, err := client.BroadcastTxCommit(context.Background(), signed)
	require.NoError(t, err)
	require.Equal(t, txID, res.TxHash)
	require.Equal(t, uint64(42), res.Nonce)
	require.Equal(t, []byte("ok"), res.SuccessValue)
	require.Equal(t, []string{"header accepted"}, res.Logs)
}

func TestBroadcastTxCommitWireFormat(t *testing.T) {
	t.Parallel()
	node, client := newFakeNode(t)

	signed, txID := newSignedTx(t)
	node.reply("broadcast_tx_commit", successOutcome(txID))

	_, err := client.BroadcastTxCommit(context.Background(), signed)
	require.NoError(t, err)

	req := node.lastRequest(t)
	require.Len(t, req.Params, 1)
	raw, err := base64.StdEncoding.DecodeString(paramString(t, req.Params[0]))
	require.NoError(t, err)

	// a signed transaction starts with the length-prefixed signer id
	require.Equal(t, uint32(len(signed.Transaction.SignerID)), binary.LittleEndian.Uint32(raw[:4]))
	require.Equal(t, signed.Transaction.SignerID, string(raw[4:4+len(signed.Transaction.SignerID)]))

	byValue, err := codec.Marshal(*signed)
	require.NoError(t, err)
	require.Len(t, raw, len(byValue))

	// the node recomputes the id from the transaction it decodes
	var decoded codec.SignedTransaction
	require.NoError(t, codec.Unmarshal(raw, &decoded))
	inner, err := codec.Marshal(decoded.Transaction)
	require.NoError(t, err)
	digest := sha256.Sum256(inner)
	require.Equal(t, txID, base58.Encode(digest[:]))
	require.Equal(t, signed.Signature, decoded.Signature)
}

func TestBroadcastTxCommitErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		reply rpcReply
		want  error
	}{
		{
			name: "execution failure",
			reply: rpcReply{Result: map[string]interface{}{
				"status":      map[string]interface{}{"Failure": map[string]interface{}{"ActionError": map[string]interface{}{"index": 0}}},
				"transaction": map[string]interface{}{"hash": "h"},
			}},
			want: types.ErrChainRejection,
		},
		{
			name: "stale nonce",
			reply: rpcReply{Error: map[string]interface{}{
				"code":    -32000,
				"message": "Server error",
				"data": map[string]interface{}{"TxExecutionError": map[string]interface{}{
					"InvalidTxError": map[string]interface{}{"InvalidNonce": map[string]interface{}{"ak_nonce": 42, "tx_nonce": 42}},
				}},
			}},
			want: types.ErrNonceConflict,
		},
		{
			name: "commit timeout",
			reply: rpcReply{Error: map[string]interface{}{
				"code":    -32000,
				"message": "Server error",
				"data":    "Timeout",
			}},
			want: types.ErrRPC,
		},
		{
			name: "not yet final",
			reply: rpcReply{Result: map[string]interface{}{
				"status":      "Started",
				"transaction": map[string]interface{}{"hash": "h"},
			}},
			want: types.ErrRPC,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			node, client := newFakeNode(t)
			node.reply("broadcast_tx_commit", tc.reply)

			_, err := client.BroadcastTxCommit(context.Background(), &codec.SignedTransaction{})
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestTransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := config.DefaultNearConfig()
	cfg.RPCAddr = srv.URL
	client, err := near.NewClient(context.Background(), &cfg, testutil.GetTestLogger(t))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.QueryLatestBlockHash(context.Background())
	require.ErrorIs(t, err, types.ErrRPC)
	require.True(t, types.IsRetryable(err))
}
