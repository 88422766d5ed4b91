package service

import (
	"context"
	"fmt"

	"github.com/avast/retry-go/v4"
	"github.com/juju/fslock"
	"github.com/lightningnetwork/lnd/kvdb"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/eth2near/relayer/clientcontroller"
	"github.com/eth2near/relayer/clientcontroller/api"
	"github.com/eth2near/relayer/keyring"
	"github.com/eth2near/relayer/metrics"
	"github.com/eth2near/relayer/relayer/config"
	"github.com/eth2near/relayer/relayer/store"
	"github.com/eth2near/relayer/types"
	"github.com/eth2near/relayer/util"
)

// Relayer owns the resources behind a Gateway: the account lock, the
// database and the ledger client.
type Relayer struct {
	*Gateway

	lock   *fslock.Lock
	db     kvdb.Backend
	lc     api.LedgerClient
	logger *zap.Logger
}

// NewRelayerFromConfig builds a Gateway for the signer account configured
// in cfg. It takes the host-wide lock on that account first so that no
// other relayer process can sign with the same access key.
func NewRelayerFromConfig(
	ctx context.Context,
	homePath string,
	cfg *config.Config,
	logger *zap.Logger,
	reg prometheus.Registerer,
) (_ *Relayer, err error) {
	r := &Relayer{logger: logger}
	defer func() {
		if err != nil {
			_ = r.closeResources()
		}
	}()

	r.lock, err = util.AcquireAccountLock(config.LockDir(homePath), cfg.NearConfig.SignerAccount)
	if err != nil {
		return nil, err
	}

	cred, err := keyring.LoadCredential(cfg.NearConfig.CredentialPath, cfg.NearConfig.SignerAccount)
	if err != nil {
		return nil, err
	}

	if err := util.MakeDirectory(cfg.CheckpointDir); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	r.db, err = cfg.DatabaseConfig.GetDBBackend()
	if err != nil {
		return nil, fmt.Errorf("failed to open the relayer database: %w", err)
	}

	cps, err := store.NewCheckpointStore(cfg.CheckpointDir, r.db)
	if err != nil {
		return nil, err
	}
	rss, err := store.NewRelayStateStore(r.db)
	if err != nil {
		return nil, err
	}

	r.lc, err = clientcontroller.NewLedgerClient(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := waitForLedger(ctx, r.lc, cfg.NearConfig, logger); err != nil {
		return nil, err
	}

	r.Gateway, err = NewGateway(cfg, r.lc, cred, cps, rss, logger, metrics.NewRelayerMetrics(reg))
	if err != nil {
		return nil, err
	}

	return r, nil
}

// Close releases the ledger client, the database and the account lock.
func (r *Relayer) Close() error {
	return r.closeResources()
}

func (r *Relayer) closeResources() error {
	var firstErr error
	if r.lc != nil {
		if err := r.lc.Close(); err != nil {
			firstErr = fmt.Errorf("failed to close the ledger client: %w", err)
		}
	}
	if r.db != nil {
		if err := r.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close the database: %w", err)
		}
	}
	if r.lock != nil {
		if err := r.lock.Unlock(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to release the account lock: %w", err)
		}
	}
	if firstErr != nil {
		r.logger.Error("failed to release relayer resources", zap.Error(firstErr))
	}

	return firstErr
}

// waitForLedger probes the node until it reports a recent block. Only
// transport failures are retried; this is the one place the relayer
// retries by itself.
func waitForLedger(ctx context.Context, lc api.LedgerClient, cfg *config.NearConfig, logger *zap.Logger) error {
	if err := retry.Do(func() error {
		_, err := lc.QueryLatestBlockHash(ctx)

		return err
	},
		retry.Context(ctx),
		retry.Attempts(cfg.ConnectRetries),
		retry.Delay(cfg.ConnectRetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(types.IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug(
				"the ledger node is not reachable yet",
				zap.String("rpc_addr", cfg.RPCAddr),
				zap.Uint("attempt", n+1),
				zap.Uint("max_attempts", cfg.ConnectRetries),
				zap.Error(err),
			)
		})); err != nil {
		return fmt.Errorf("failed to reach the ledger node at %s: %w", cfg.RPCAddr, err)
	}

	return nil
}
