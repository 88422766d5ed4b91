package codec

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/cometbft/cometbft/crypto/tmhash"
	"github.com/near/borsh-go"
)

// Signer signs transactions on behalf of a single account access key.
type Signer interface {
	AccountID() string
	PublicKey() PublicKey
	Sign(msg []byte) ([]byte, error)
}

// FunctionCall invokes a contract method. Args are passed to the contract
// as-is, Gas is the budget for this call alone and Deposit is attached to it.
type FunctionCall struct {
	MethodName string
	Args       []byte
	Gas        uint64
	Deposit    Uint128
}

type CreateAccount struct{}

type DeployContract struct {
	Code []byte
}

// Action is a tagged union; only the variant selected by Enum is encoded.
// The variant order follows the ledger's action discriminants.
type Action struct {
	Enum           borsh.Enum `borsh_enum:"true"`
	CreateAccount  CreateAccount
	DeployContract DeployContract
	FunctionCall   FunctionCall
}

const actionFunctionCall borsh.Enum = 2

func NewFunctionCallAction(call FunctionCall) Action {
	return Action{Enum: actionFunctionCall, FunctionCall: call}
}

// IsFunctionCall reports whether the action is a function call.
func (a Action) IsFunctionCall() bool {
	return a.Enum == actionFunctionCall
}

type Transaction struct {
	SignerID   string
	PublicKey  PublicKey
	Nonce      uint64
	ReceiverID string
	BlockHash  [32]byte
	Actions    []Action
}

type SignedTransaction struct {
	Transaction Transaction
	Signature   Signature
}

// Hash returns the sha256 digest of the encoded transaction, which is both
// the signed message and the transaction id.
func (tx *Transaction) Hash() ([]byte, error) {
	bz, err := Marshal(*tx)
	if err != nil {
		return nil, err
	}

	return tmhash.Sum(bz), nil
}

// SignTransaction signs tx with signer and returns the signed transaction
// together with its base58 id.
func SignTransaction(tx *Transaction, signer Signer) (*SignedTransaction, string, error) {
	if tx.SignerID != signer.AccountID() {
		return nil, "", fmt.Errorf("transaction signer %s does not match key owner %s", tx.SignerID, signer.AccountID())
	}
	if tx.PublicKey != signer.PublicKey() {
		return nil, "", fmt.Errorf("transaction public key %s does not match signer key %s", tx.PublicKey, signer.PublicKey())
	}

	hash, err := tx.Hash()
	if err != nil {
		return nil, "", err
	}

	sigBytes, err := signer.Sign(hash)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := NewED25519Signature(sigBytes)
	if err != nil {
		return nil, "", err
	}

	return &SignedTransaction{Transaction: *tx, Signature: sig}, base58.Encode(hash), nil
}

// DecodeBlockHash parses a base58 block hash as reported by the ledger.
func DecodeBlockHash(s string) ([32]byte, error) {
	var hash [32]byte
	bz := base58.Decode(s)
	if len(bz) != len(hash) {
		return hash, fmt.Errorf("invalid block hash %q", s)
	}
	copy(hash[:], bz)

	return hash, nil
}
