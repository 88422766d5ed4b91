package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eth2near/relayer/log"
	"github.com/eth2near/relayer/metrics"
	"github.com/eth2near/relayer/relayer/config"
	"github.com/eth2near/relayer/relayer/service"
	"github.com/eth2near/relayer/util"
	"github.com/eth2near/relayer/version"
)

// AddHomeFlag registers the home directory flag shared by every command.
func AddHomeFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().String(homeFlag, config.DefaultRelaydDir, "The relayd home directory")
}

// AddDaemonCommands adds the relay commands to cmd.
func AddDaemonCommands(cmd *cobra.Command, binaryName string) {
	cmd.AddCommand(
		CommandInitConfig(binaryName),
		CommandRegister(binaryName),
		CommandInit(binaryName),
		CommandAdopt(binaryName),
		CommandSubmitHeaders(binaryName),
		CommandSubmitUpdate(binaryName),
		CommandStatus(binaryName),
		CommandIsKnown(binaryName),
		CommandPending(binaryName),
		CommandReplay(binaryName),
	)
}

func homePathFromFlags(cmd *cobra.Command) (string, error) {
	home, err := cmd.Flags().GetString(homeFlag)
	if err != nil {
		return "", fmt.Errorf("failed to read flag %s: %w", homeFlag, err)
	}
	homePath, err := filepath.Abs(home)
	if err != nil {
		return "", err
	}

	return util.CleanAndExpandPath(homePath), nil
}

type relayerRunFunc func(ctx context.Context, cmd *cobra.Command, r *service.Relayer, args []string) error

// runEWithRelayer loads the configuration under the home directory, sets up
// logging and metrics and hands a ready relayer to fRun. Everything is torn
// down once fRun returns.
func runEWithRelayer(fRun relayerRunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		homePath, err := homePathFromFlags(cmd)
		if err != nil {
			return err
		}

		cfg, err := config.LoadConfig(homePath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		logger, err := log.NewRootLoggerWithFile(config.LogFile(homePath), cfg.LogFormat, cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize the logger: %w", err)
		}
		defer func() {
			_ = logger.Sync()
		}()
		logger.Debug("starting relayd", zap.String("version", version.String()), zap.String("home", homePath))

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		if cfg.Metrics.Enabled {
			addr, err := cfg.Metrics.Address()
			if err != nil {
				return fmt.Errorf("invalid metrics address: %w", err)
			}
			srv := metrics.Start(addr, reg, logger)
			defer srv.Stop(context.Background())
		}

		ctx := cmd.Context()
		r, err := service.NewRelayerFromConfig(ctx, homePath, cfg, logger, reg)
		if err != nil {
			return fmt.Errorf("failed to start the relayer: %w", err)
		}
		defer func() {
			_ = r.Close()
		}()

		return fRun(ctx, cmd, r, args)
	}
}

func readJSONFile(path string, v interface{}) error {
	bz, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(bz, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return nil
}

func printRespJSON(cmd *cobra.Command, resp interface{}) error {
	bz, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	cmd.Println(string(bz))

	return nil
}
