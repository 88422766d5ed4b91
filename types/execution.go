package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// ExecutionHeader is the execution layer block header in the layout the
// light client contract expects for submit_header. Optional fields are the
// ones introduced by later forks.
type ExecutionHeader struct {
	ParentHash            H256          `json:"parent_hash"`
	UnclesHash            H256          `json:"uncles_hash"`
	Author                H160          `json:"author"`
	StateRoot             H256          `json:"state_root"`
	TransactionsRoot      H256          `json:"transactions_root"`
	ReceiptsRoot          H256          `json:"receipts_root"`
	LogBloom              Bloom         `json:"log_bloom"`
	Difficulty            U256          `json:"difficulty"`
	Number                uint64        `json:"number"`
	GasLimit              U256          `json:"gas_limit"`
	GasUsed               U256          `json:"gas_used"`
	Timestamp             uint64        `json:"timestamp"`
	ExtraData             hexutil.Bytes `json:"extra_data"`
	MixHash               H256          `json:"mix_hash"`
	Nonce                 H64           `json:"nonce"`
	BaseFeePerGas         *uint64       `json:"base_fee_per_gas,omitempty"`
	WithdrawalsRoot       *H256         `json:"withdrawals_root,omitempty"`
	BlobGasUsed           *uint64       `json:"blob_gas_used,omitempty"`
	ExcessBlobGas         *uint64       `json:"excess_blob_gas,omitempty"`
	ParentBeaconBlockRoot *H256         `json:"parent_beacon_block_root,omitempty"`
	Hash                  *H256         `json:"hash,omitempty"`
	PartialHash           *H256         `json:"partial_hash,omitempty"`
}

// NewExecutionHeader converts a go-ethereum header into the contract layout.
// The block hash is computed locally and attached.
func NewExecutionHeader(h *ethtypes.Header) (*ExecutionHeader, error) {
	if h == nil {
		return nil, fmt.Errorf("nil execution header")
	}
	if h.Number == nil || !h.Number.IsUint64() {
		return nil, fmt.Errorf("invalid execution header number %v", h.Number)
	}

	difficulty, err := U256FromBig(h.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("invalid difficulty: %w", err)
	}

	hash := h256FromHash(h.Hash())
	header := &ExecutionHeader{
		ParentHash:       h256FromHash(h.ParentHash),
		UnclesHash:       h256FromHash(h.UncleHash),
		Author:           H160(h.Coinbase),
		StateRoot:        h256FromHash(h.Root),
		TransactionsRoot: h256FromHash(h.TxHash),
		ReceiptsRoot:     h256FromHash(h.ReceiptHash),
		LogBloom:         Bloom(h.Bloom),
		Difficulty:       difficulty,
		Number:           h.Number.Uint64(),
		GasLimit:         U256FromUint64(h.GasLimit),
		GasUsed:          U256FromUint64(h.GasUsed),
		Timestamp:        h.Time,
		ExtraData:        append(hexutil.Bytes{}, h.Extra...),
		MixHash:          h256FromHash(h.MixDigest),
		Nonce:            H64(h.Nonce),
		BlobGasUsed:      h.BlobGasUsed,
		ExcessBlobGas:    h.ExcessBlobGas,
		Hash:             &hash,
	}

	if h.BaseFee != nil {
		if !h.BaseFee.IsUint64() {
			return nil, fmt.Errorf("base fee %s overflows uint64", h.BaseFee)
		}
		baseFee := h.BaseFee.Uint64()
		header.BaseFeePerGas = &baseFee
	}
	if h.WithdrawalsHash != nil {
		root := h256FromHash(*h.WithdrawalsHash)
		header.WithdrawalsRoot = &root
	}
	if h.ParentBeaconRoot != nil {
		root := h256FromHash(*h.ParentBeaconRoot)
		header.ParentBeaconBlockRoot = &root
	}

	return header, nil
}

// BlockHash returns the attached block hash, or the zero hash if unset.
func (h *ExecutionHeader) BlockHash() H256 {
	if h.Hash == nil {
		return H256{}
	}

	return *h.Hash
}
