package types

import (
	errorsmod "cosmossdk.io/errors"
)

// RelayerCodespace is the codespace of all relayer errors.
const RelayerCodespace = "relayer"

var (
	// ErrConfig bad or missing configuration, fatal at startup
	ErrConfig = errorsmod.Register(RelayerCodespace, 2, "invalid configuration")
	// ErrCredential the signing key source is unreadable or malformed
	ErrCredential = errorsmod.Register(RelayerCodespace, 3, "invalid credential")
	// ErrRPC transport failure or timeout talking to the ledger node
	ErrRPC = errorsmod.Register(RelayerCodespace, 4, "ledger rpc failure")
	// ErrNonceConflict the transaction was signed with an already used nonce
	ErrNonceConflict = errorsmod.Register(RelayerCodespace, 5, "nonce conflict")
	// ErrChainRejection the ledger executed the transaction and it failed
	ErrChainRejection = errorsmod.Register(RelayerCodespace, 6, "rejected by ledger")
	// ErrPersistence the checkpoint could not be written durably
	ErrPersistence = errorsmod.Register(RelayerCodespace, 7, "checkpoint persistence failure")
	// ErrConsistency a requested transition would skip, repeat or regress sync progress
	ErrConsistency = errorsmod.Register(RelayerCodespace, 8, "sync state consistency violation")
	// ErrConcurrentSubmission a second operation was issued while one is in flight
	ErrConcurrentSubmission = errorsmod.Register(RelayerCodespace, 9, "concurrent submission on the same signer")
)

// IsRetryable reports whether the driving loop may call the operation again.
// Nonce conflicts are retryable because every call re-reads the nonce.
func IsRetryable(err error) bool {
	return errorsmod.IsOf(err, ErrRPC, ErrNonceConflict)
}
