package service

import (
	"context"
	"fmt"
	"math"

	errorsmod "cosmossdk.io/errors"

	"github.com/eth2near/relayer/clientcontroller/api"
	"github.com/eth2near/relayer/codec"
	"github.com/eth2near/relayer/types"
)

// NonceSequencer hands out the nonce for the next transaction of the
// signer's access key. The nonce is read from the ledger on every call and
// nothing is reserved there, so two processes signing with the same access
// key will race and one of them gets types.ErrNonceConflict. Running a
// single relayer per signer account is an operational requirement.
type NonceSequencer struct {
	lc     api.LedgerClient
	signer codec.Signer
}

func NewNonceSequencer(lc api.LedgerClient, signer codec.Signer) *NonceSequencer {
	return &NonceSequencer{
		lc:     lc,
		signer: signer,
	}
}

// NextNonce returns the current access key nonce plus one.
func (ns *NonceSequencer) NextNonce(ctx context.Context) (uint64, error) {
	current, err := ns.lc.QueryAccessKeyNonce(ctx, ns.signer.AccountID(), ns.signer.PublicKey())
	if err != nil {
		return 0, fmt.Errorf("failed to query the nonce of %s: %w", ns.signer.AccountID(), err)
	}

	if current == math.MaxUint64 {
		return 0, errorsmod.Wrapf(types.ErrNonceConflict, "access key nonce of %s is exhausted", ns.signer.AccountID())
	}

	return current + 1, nil
}
