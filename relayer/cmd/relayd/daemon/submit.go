package daemon

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eth2near/relayer/relayer/service"
	"github.com/eth2near/relayer/types"
)

// CommandSubmitHeaders returns the submit-headers command, the entry point
// of an external driving loop for one header batch.
func CommandSubmitHeaders(binaryName string) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "submit-headers",
		Short:   "Submit a batch of execution headers.",
		Long:    "Submits the execution headers in a JSON array file covering the beacon slots [start-slot, end-slot].",
		Example: fmt.Sprintf(`%s submit-headers --file headers.json --start-slot 100 --end-slot 150`, binaryName),
		Args:    cobra.NoArgs,
		RunE:    runEWithRelayer(runSubmitHeadersCmd),
	}
	f := cmd.Flags()
	f.String(fileFlag, "", "The JSON file with the execution headers in chain order")
	f.Uint64(startSlotFlag, 0, "The first beacon slot covered by the batch")
	f.Uint64(endSlotFlag, 0, "The last beacon slot covered by the batch")
	_ = cmd.MarkFlagRequired(fileFlag)
	_ = cmd.MarkFlagRequired(startSlotFlag)
	_ = cmd.MarkFlagRequired(endSlotFlag)

	return cmd
}

func runSubmitHeadersCmd(ctx context.Context, cmd *cobra.Command, r *service.Relayer, _ []string) error {
	f := cmd.Flags()
	path, err := f.GetString(fileFlag)
	if err != nil {
		return fmt.Errorf("failed to read flag %s: %w", fileFlag, err)
	}
	startSlot, err := f.GetUint64(startSlotFlag)
	if err != nil {
		return fmt.Errorf("failed to read flag %s: %w", startSlotFlag, err)
	}
	endSlot, err := f.GetUint64(endSlotFlag)
	if err != nil {
		return fmt.Errorf("failed to read flag %s: %w", endSlotFlag, err)
	}

	var headers []*types.ExecutionHeader
	if err := readJSONFile(path, &headers); err != nil {
		return err
	}

	if err := r.SubmitHeaders(ctx, headers, startSlot, endSlot); err != nil {
		return err
	}

	return printStatus(cmd, r)
}

// CommandSubmitUpdate returns the submit-update command for one light
// client update.
func CommandSubmitUpdate(binaryName string) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "submit-update",
		Short:   "Submit a light client update.",
		Example: fmt.Sprintf(`%s submit-update --file update.json --period 1152`, binaryName),
		Args:    cobra.NoArgs,
		RunE:    runEWithRelayer(runSubmitUpdateCmd),
	}
	f := cmd.Flags()
	f.String(fileFlag, "", "The JSON file with the light client update")
	f.Uint64(periodFlag, 0, "The sync committee period the update proves")
	_ = cmd.MarkFlagRequired(fileFlag)
	_ = cmd.MarkFlagRequired(periodFlag)

	return cmd
}

func runSubmitUpdateCmd(ctx context.Context, cmd *cobra.Command, r *service.Relayer, _ []string) error {
	f := cmd.Flags()
	path, err := f.GetString(fileFlag)
	if err != nil {
		return fmt.Errorf("failed to read flag %s: %w", fileFlag, err)
	}
	period, err := f.GetUint64(periodFlag)
	if err != nil {
		return fmt.Errorf("failed to read flag %s: %w", periodFlag, err)
	}

	var update types.LightClientUpdate
	if err := readJSONFile(path, &update); err != nil {
		return err
	}

	if err := r.SubmitLightClientUpdate(ctx, &update, period); err != nil {
		return err
	}

	return printStatus(cmd, r)
}
