package daemon

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eth2near/relayer/relayer/service"
)

// CommandRegister returns the register command that bonds the signer
// account as a submitter of the light client contract.
func CommandRegister(binaryName string) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "register",
		Short:   "Register the signer account as a submitter.",
		Long:    "Sends register_submitter with the configured deposit. Registering again is forwarded to the contract.",
		Example: fmt.Sprintf(`%s register --home /home/user/.relayd`, binaryName),
		Args:    cobra.NoArgs,
		RunE:    runEWithRelayer(runRegisterCmd),
	}

	return cmd
}

func runRegisterCmd(ctx context.Context, cmd *cobra.Command, r *service.Relayer, _ []string) error {
	if err := r.Register(ctx); err != nil {
		return err
	}

	return printStatus(cmd, r)
}

// CommandInit returns the init command that initializes the light client
// contract from a trusted starting point.
func CommandInit(binaryName string) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "init",
		Short: "Initialize the light client contract.",
		Long: "Sends init with the finalized execution header, the extended beacon header and the current " +
			"and next sync committees read from a JSON file. The relay starts syncing from the beacon slot.",
		Example: fmt.Sprintf(`%s init --params init_params.json`, binaryName),
		Args:    cobra.NoArgs,
		RunE:    runEWithRelayer(runInitCmd),
	}
	cmd.Flags().String(paramsFileFlag, "", "The JSON file with the init parameters")
	_ = cmd.MarkFlagRequired(paramsFileFlag)

	return cmd
}

func runInitCmd(ctx context.Context, cmd *cobra.Command, r *service.Relayer, _ []string) error {
	path, err := cmd.Flags().GetString(paramsFileFlag)
	if err != nil {
		return fmt.Errorf("failed to read flag %s: %w", paramsFileFlag, err)
	}

	var params service.InitParams
	if err := readJSONFile(path, &params); err != nil {
		return err
	}

	if err := r.Init(ctx, &params); err != nil {
		return err
	}

	return printStatus(cmd, r)
}

// CommandAdopt returns the adopt command for contracts initialized by
// another party.
func CommandAdopt(binaryName string) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "adopt",
		Short:   "Start syncing a light client contract initialized elsewhere.",
		Long:    "Checks that the contract answers and seeds the local sync state from the given slot. No transaction is sent.",
		Example: fmt.Sprintf(`%s adopt --last-slot 9437184`, binaryName),
		Args:    cobra.NoArgs,
		RunE:    runEWithRelayer(runAdoptCmd),
	}
	cmd.Flags().Uint64(lastSlotFlag, 0, "The beacon slot the contract has already synced to")
	_ = cmd.MarkFlagRequired(lastSlotFlag)

	return cmd
}

func runAdoptCmd(ctx context.Context, cmd *cobra.Command, r *service.Relayer, _ []string) error {
	lastSlot, err := cmd.Flags().GetUint64(lastSlotFlag)
	if err != nil {
		return fmt.Errorf("failed to read flag %s: %w", lastSlotFlag, err)
	}

	if err := r.Adopt(ctx, lastSlot); err != nil {
		return err
	}

	return printStatus(cmd, r)
}
