package daemon

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eth2near/relayer/keyring"
	"github.com/eth2near/relayer/relayer/config"
	"github.com/eth2near/relayer/util"
)

// CommandInitConfig returns the init-config command that creates the relayd
// home directory with a default configuration.
func CommandInitConfig(binaryName string) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "init-config",
		Short: "Initialize a relayd home directory.",
		Long: `Creates a new relayd home directory with default config. With --generate-key a fresh ` +
			`ed25519 key is written to the configured credential path; add its public key to the signer account.`,
		Example: fmt.Sprintf(`%s init-config --home /home/user/.relayd --signer-account relayer.testnet --contract-account client.testnet`, binaryName),
		Args:    cobra.NoArgs,
		RunE:    runInitConfigCmd,
	}
	f := cmd.Flags()
	f.Bool(forceFlag, false, "Override existing configuration")
	f.String(signerAccountFlag, "", "The account that signs relay transactions")
	f.String(contractAccountFlag, "", "The account of the light client contract")
	f.String(rpcAddrFlag, "", "The JSON-RPC endpoint of a NEAR node")
	f.Bool(generateKeyFlag, false, "Generate a new signer key file at the configured credential path")

	return cmd
}

func runInitConfigCmd(cmd *cobra.Command, _ []string) error {
	homePath, err := homePathFromFlags(cmd)
	if err != nil {
		return err
	}

	f := cmd.Flags()
	force, err := f.GetBool(forceFlag)
	if err != nil {
		return fmt.Errorf("failed to read flag %s: %w", forceFlag, err)
	}
	signer, err := f.GetString(signerAccountFlag)
	if err != nil {
		return fmt.Errorf("failed to read flag %s: %w", signerAccountFlag, err)
	}
	contract, err := f.GetString(contractAccountFlag)
	if err != nil {
		return fmt.Errorf("failed to read flag %s: %w", contractAccountFlag, err)
	}
	rpcAddr, err := f.GetString(rpcAddrFlag)
	if err != nil {
		return fmt.Errorf("failed to read flag %s: %w", rpcAddrFlag, err)
	}
	generateKey, err := f.GetBool(generateKeyFlag)
	if err != nil {
		return fmt.Errorf("failed to read flag %s: %w", generateKeyFlag, err)
	}

	if util.FileExists(config.CfgFile(homePath)) && !force {
		return fmt.Errorf("config file %s already exists", config.CfgFile(homePath))
	}

	if err := util.MakeDirectory(homePath); err != nil {
		return err
	}
	if err := util.MakeDirectory(config.LogDir(homePath)); err != nil {
		return err
	}

	cfg := config.DefaultConfigWithHome(homePath)
	cfg.NearConfig.SignerAccount = signer
	cfg.NearConfig.ContractAccount = contract
	if rpcAddr != "" {
		cfg.NearConfig.RPCAddr = rpcAddr
	}

	if generateKey {
		if signer == "" {
			return fmt.Errorf("--%s requires --%s", generateKeyFlag, signerAccountFlag)
		}
		kf, err := keyring.GenerateKeyFile(cfg.NearConfig.CredentialPath, signer)
		if err != nil {
			return err
		}
		cmd.Printf("Generated key %s for %s at %s\n", kf.PublicKey, signer, cfg.NearConfig.CredentialPath)
	}

	if err := config.WriteConfig(&cfg, homePath); err != nil {
		return err
	}
	cmd.Printf("Wrote default configuration to %s\n", config.CfgFile(homePath))

	return nil
}
