package config

import "fmt"

const (
	defaultNetwork                     = "mainnet"
	defaultHashesGCThreshold           = 51000
	defaultMaxSubmittedBlocksByAccount = 8000
)

// ContractConfig holds the protocol parameters passed to the light client
// contract when it is initialized.
type ContractConfig struct {
	Network                     string `long:"network" description:"The Ethereum network the light client follows" choice:"mainnet" choice:"sepolia" choice:"holesky" choice:"goerli"`
	VerifyBLSSignatures         bool   `long:"verify-bls-signatures" description:"Whether the contract verifies sync committee BLS signatures"`
	HashesGCThreshold           uint64 `long:"hashes-gc-threshold" description:"How many of the most recent execution block hashes the contract keeps"`
	MaxSubmittedBlocksByAccount uint32 `long:"max-submitted-blocks-by-account" description:"The cap on unfinalized headers a single submitter may have in flight"`
	TrustedSigner               string `long:"trusted-signer" description:"An optional account allowed to submit updates without full validation"`
}

func DefaultContractConfig() ContractConfig {
	return ContractConfig{
		Network:                     defaultNetwork,
		HashesGCThreshold:           defaultHashesGCThreshold,
		MaxSubmittedBlocksByAccount: defaultMaxSubmittedBlocksByAccount,
	}
}

func (cfg *ContractConfig) Validate() error {
	if cfg.Network == "" {
		return fmt.Errorf("network cannot be empty")
	}
	if cfg.HashesGCThreshold == 0 {
		return fmt.Errorf("hashes-gc-threshold must be positive")
	}
	if cfg.MaxSubmittedBlocksByAccount == 0 {
		return fmt.Errorf("max-submitted-blocks-by-account must be positive")
	}
	if cfg.TrustedSigner != "" {
		if err := ValidateAccountID(cfg.TrustedSigner); err != nil {
			return fmt.Errorf("invalid trusted-signer: %w", err)
		}
	}

	return nil
}
