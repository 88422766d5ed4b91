package clientcontroller

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/eth2near/relayer/clientcontroller/api"
	"github.com/eth2near/relayer/clientcontroller/near"
	"github.com/eth2near/relayer/relayer/config"
)

const (
	NearLedgerType = "near"
)

// NewLedgerClient dials the ledger selected by the configuration. The
// returned client is long-lived and meant to be shared by every operation.
func NewLedgerClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (api.LedgerClient, error) {
	switch cfg.LedgerType {
	case NearLedgerType:
		lc, err := near.NewClient(ctx, cfg.NearConfig, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create NEAR rpc client: %w", err)
		}

		return lc, nil
	default:
		return nil, fmt.Errorf("unsupported ledger type %q", cfg.LedgerType)
	}
}
