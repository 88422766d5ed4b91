package near

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	errorsmod "cosmossdk.io/errors"

	"github.com/eth2near/relayer/types"
)

type callFunctionRequest struct {
	RequestType string `json:"request_type"`
	Finality    string `json:"finality"`
	AccountID   string `json:"account_id"`
	MethodName  string `json:"method_name"`
	ArgsBase64  string `json:"args_base64"`
}

type callFunctionResult struct {
	Result []byte   `json:"result"`
	Logs   []string `json:"logs"`
	// some nodes report contract errors in the result body
	Error string `json:"error,omitempty"`
}

type accessKeyResult struct {
	Nonce uint64 `json:"nonce"`
	Error string `json:"error,omitempty"`
}

type statusResult struct {
	ChainID  string `json:"chain_id"`
	SyncInfo struct {
		LatestBlockHash   string `json:"latest_block_hash"`
		LatestBlockHeight uint64 `json:"latest_block_height"`
		Syncing           bool   `json:"syncing"`
	} `json:"sync_info"`
}

// executionStatus is either a bare variant name ("NotStarted", "Started")
// or an object holding exactly one of the variants below.
type executionStatus struct {
	Variant      string
	SuccessValue *string
	Failure      json.RawMessage
}

func (s *executionStatus) UnmarshalJSON(input []byte) error {
	if len(input) > 0 && input[0] == '"' {
		return json.Unmarshal(input, &s.Variant)
	}

	var obj struct {
		SuccessValue     *string         `json:"SuccessValue"`
		SuccessReceiptID *string         `json:"SuccessReceiptId"`
		Failure          json.RawMessage `json:"Failure"`
	}
	if err := json.Unmarshal(input, &obj); err != nil {
		return err
	}

	switch {
	case obj.Failure != nil:
		s.Variant = "Failure"
		s.Failure = obj.Failure
	case obj.SuccessValue != nil:
		s.Variant = "SuccessValue"
		s.SuccessValue = obj.SuccessValue
	case obj.SuccessReceiptID != nil:
		s.Variant = "SuccessReceiptId"
	default:
		return fmt.Errorf("unknown execution status %s", string(input))
	}

	return nil
}

type executionOutcome struct {
	Logs   []string        `json:"logs"`
	Status executionStatus `json:"status"`
}

type outcomeWithID struct {
	ID      string           `json:"id"`
	Outcome executionOutcome `json:"outcome"`
}

type finalExecutionOutcome struct {
	Status      executionStatus `json:"status"`
	Transaction struct {
		Hash string `json:"hash"`
	} `json:"transaction"`
	TransactionOutcome outcomeWithID   `json:"transaction_outcome"`
	ReceiptsOutcome    []outcomeWithID `json:"receipts_outcome"`
}

func (o *finalExecutionOutcome) toTxResponse(nonce uint64) (*types.TxResponse, error) {
	switch o.Status.Variant {
	case "SuccessValue":
	case "Failure":
		if bytes.Contains(o.Status.Failure, []byte("InvalidNonce")) {
			return nil, errorsmod.Wrapf(types.ErrNonceConflict, "tx %s: %s", o.Transaction.Hash, string(o.Status.Failure))
		}

		return nil, errorsmod.Wrapf(types.ErrChainRejection, "tx %s failed: %s", o.Transaction.Hash, string(o.Status.Failure))
	default:
		// broadcast_tx_commit only returns once the outcome is final
		return nil, errorsmod.Wrapf(types.ErrRPC, "tx %s has no final outcome, status %s", o.Transaction.Hash, o.Status.Variant)
	}

	value, err := base64.StdEncoding.DecodeString(*o.Status.SuccessValue)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrRPC, "invalid success value of tx %s: %v", o.Transaction.Hash, err)
	}

	logs := append([]string{}, o.TransactionOutcome.Outcome.Logs...)
	for _, r := range o.ReceiptsOutcome {
		logs = append(logs, r.Outcome.Logs...)
	}

	return &types.TxResponse{
		TxHash:       o.Transaction.Hash,
		Nonce:        nonce,
		SuccessValue: value,
		Logs:         logs,
	}, nil
}
