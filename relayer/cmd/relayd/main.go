package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eth2near/relayer/relayer/cmd/relayd/daemon"
	"github.com/eth2near/relayer/version"
)

const BinaryName = "relayd"

// NewRootCmd creates a new root command for relayd. It is called once in the main function.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           BinaryName,
		Short:         fmt.Sprintf("%s - Ethereum to NEAR light client relay.", BinaryName),
		Long:          fmt.Sprintf(`%s submits Ethereum execution headers and light client updates to the light client contract on NEAR.`, BinaryName),
		SilenceErrors: false,
	}
	daemon.AddHomeFlag(rootCmd)

	return rootCmd
}

func main() {
	cmd := NewRootCmd()

	// add relay commands
	daemon.AddDaemonCommands(cmd, BinaryName)
	// add version command
	version.AddVersionCommand(cmd, BinaryName)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your %s CLI '%s'", BinaryName, err)
		os.Exit(1) //nolint:gocritic
	}
}
