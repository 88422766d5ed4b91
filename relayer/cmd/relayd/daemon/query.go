package daemon

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eth2near/relayer/relayer/service"
	"github.com/eth2near/relayer/relayer/store"
	"github.com/eth2near/relayer/types"
)

type statusResponse struct {
	Status             string `json:"status"`
	LastSlot           uint64 `json:"last_slot"`
	LastPeriod         uint64 `json:"last_period"`
	PendingCheckpoints int    `json:"pending_checkpoints"`
}

type convergenceResponse struct {
	FinalizedBeaconBlockRoot types.H256  `json:"finalized_beacon_block_root"`
	ExpectedHeaderRoot       *types.H256 `json:"expected_header_root,omitempty"`
	HeaderRootMatches        *bool       `json:"header_root_matches,omitempty"`
}

func newStatusResponse(r *service.Relayer) (*statusResponse, error) {
	pending, err := r.PendingCheckpoints()
	if err != nil {
		return nil, err
	}
	ss := r.SyncState()

	return &statusResponse{
		Status:             r.Status().String(),
		LastSlot:           ss.LastSlot,
		LastPeriod:         ss.LastPeriod,
		PendingCheckpoints: len(pending),
	}, nil
}

func printStatus(cmd *cobra.Command, r *service.Relayer) error {
	resp, err := newStatusResponse(r)
	if err != nil {
		return err
	}

	return printRespJSON(cmd, resp)
}

// CommandStatus returns the status command showing the local sync state
// and what the contract reports as final.
func CommandStatus(binaryName string) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "status",
		Short:   "Show the relay status and the finalized state of the light client.",
		Example: fmt.Sprintf(`%s status --expected-header-root 0x...`, binaryName),
		Args:    cobra.NoArgs,
		RunE:    runEWithRelayer(runStatusCmd),
	}
	cmd.Flags().String(expectedRootFlag, "", "A beacon header root to compare with the contract's last finalized one")

	return cmd
}

func runStatusCmd(ctx context.Context, cmd *cobra.Command, r *service.Relayer, _ []string) error {
	expected, err := cmd.Flags().GetString(expectedRootFlag)
	if err != nil {
		return fmt.Errorf("failed to read flag %s: %w", expectedRootFlag, err)
	}

	if err := printStatus(cmd, r); err != nil {
		return err
	}
	if r.Status() != types.StatusSyncing {
		return nil
	}

	root, err := r.FinalizedBeaconBlockHash(ctx)
	if err != nil {
		return err
	}
	resp := &convergenceResponse{FinalizedBeaconBlockRoot: root}

	if expected != "" {
		expectedRoot, err := types.HexToH256(expected)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", expectedRootFlag, err)
		}
		matches, err := r.IsLastFinalizedHeaderRoot(ctx, expectedRoot)
		if err != nil {
			return err
		}
		resp.ExpectedHeaderRoot = &expectedRoot
		resp.HeaderRootMatches = &matches
	}

	return printRespJSON(cmd, resp)
}

// CommandIsKnown returns the is-known command checking an execution block
// hash against the contract.
func CommandIsKnown(binaryName string) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "is-known [block-hash]",
		Short:   "Check whether the light client stores an execution block.",
		Example: fmt.Sprintf(`%s is-known 0x...`, binaryName),
		Args:    cobra.ExactArgs(1),
		RunE:    runEWithRelayer(runIsKnownCmd),
	}

	return cmd
}

func runIsKnownCmd(ctx context.Context, cmd *cobra.Command, r *service.Relayer, args []string) error {
	hash, err := types.HexToH256(args[0])
	if err != nil {
		return fmt.Errorf("invalid block hash: %w", err)
	}

	known, err := r.IsKnownBlock(ctx, hash)
	if err != nil {
		return err
	}

	return printRespJSON(cmd, map[string]interface{}{
		"block_hash": hash,
		"known":      known,
	})
}

// CommandPending returns the pending command listing checkpoints whose
// submission was never confirmed.
func CommandPending(binaryName string) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "pending",
		Short:   "List persisted checkpoints not confirmed by the ledger.",
		Example: fmt.Sprintf(`%s pending`, binaryName),
		Args:    cobra.NoArgs,
		RunE:    runEWithRelayer(runPendingCmd),
	}

	return cmd
}

func runPendingCmd(_ context.Context, cmd *cobra.Command, r *service.Relayer, _ []string) error {
	pending, err := r.PendingCheckpoints()
	if err != nil {
		return err
	}
	if pending == nil {
		pending = []*store.Checkpoint{}
	}

	return printRespJSON(cmd, pending)
}

// CommandReplay returns the replay command re-submitting a pending
// checkpoint after an operator inspected it.
func CommandReplay(binaryName string) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "replay [checkpoint-name]",
		Short:   "Re-submit a pending checkpoint.",
		Long:    "Reads the named checkpoint back and submits it again. Committed checkpoints are left alone.",
		Example: fmt.Sprintf(`%s replay headers_slots_100_150`, binaryName),
		Args:    cobra.ExactArgs(1),
		RunE:    runEWithRelayer(runReplayCmd),
	}

	return cmd
}

func runReplayCmd(ctx context.Context, cmd *cobra.Command, r *service.Relayer, args []string) error {
	if err := r.Replay(ctx, args[0]); err != nil {
		return err
	}

	return printStatus(cmd, r)
}
