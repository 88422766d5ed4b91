package config

import (
	"fmt"
	"net/url"
	"regexp"
	"time"

	sdkmath "cosmossdk.io/math"
)

const (
	defaultNearRPCAddr       = "https://rpc.testnet.near.org"
	defaultNearTimeout       = 60 * time.Second
	defaultGasPerCall        = 75_000_000_000_000
	defaultConnectRetries    = 5
	defaultConnectRetryDelay = 2 * time.Second
	// 10 NEAR in yocto
	defaultRegisterDeposit = "10000000000000000000000000"

	// MaxGasPerCall is the prepaid gas limit of a single function call.
	MaxGasPerCall = 300_000_000_000_000
)

var accountIDRegexp = regexp.MustCompile(`^(([a-z\d]+[-_])*[a-z\d]+\.)*([a-z\d]+[-_])*[a-z\d]+$`)

// NearConfig holds the connection and signer settings of the NEAR ledger.
type NearConfig struct {
	RPCAddr           string        `long:"rpc-addr" description:"The JSON-RPC endpoint of a NEAR node"`
	Timeout           time.Duration `long:"timeout" description:"The timeout of a single RPC round trip, including waiting for a commit"`
	SignerAccount     string        `long:"signer-account" description:"The account that signs and pays for relay transactions"`
	CredentialPath    string        `long:"credential-path" description:"The JSON key file of the signer, or env:<VAR> to read it from the environment"`
	ContractAccount   string        `long:"contract-account" description:"The account the light client contract is deployed to"`
	GasPerCall        uint64        `long:"gas-per-call" description:"The prepaid gas attached to every contract call"`
	RegisterDeposit   string        `long:"register-deposit" description:"The bond attached to register_submitter, in yoctoNEAR"`
	ConnectRetries    uint          `long:"connect-retries" description:"How many times to probe the node at startup before giving up"`
	ConnectRetryDelay time.Duration `long:"connect-retry-delay" description:"The delay between startup probes"`
}

func DefaultNearConfig() NearConfig {
	return NearConfig{
		RPCAddr:           defaultNearRPCAddr,
		Timeout:           defaultNearTimeout,
		GasPerCall:        defaultGasPerCall,
		RegisterDeposit:   defaultRegisterDeposit,
		ConnectRetries:    defaultConnectRetries,
		ConnectRetryDelay: defaultConnectRetryDelay,
	}
}

// RegisterDepositAmount parses the registration bond.
func (cfg *NearConfig) RegisterDepositAmount() (sdkmath.Uint, error) {
	amount, err := sdkmath.ParseUint(cfg.RegisterDeposit)
	if err != nil {
		return sdkmath.Uint{}, fmt.Errorf("invalid register deposit %q: %w", cfg.RegisterDeposit, err)
	}

	return amount, nil
}

func (cfg *NearConfig) Validate() error {
	u, err := url.Parse(cfg.RPCAddr)
	if err != nil {
		return fmt.Errorf("invalid rpc-addr: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("rpc-addr must be an http(s) url, got %q", cfg.RPCAddr)
	}

	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", cfg.Timeout)
	}

	if err := ValidateAccountID(cfg.SignerAccount); err != nil {
		return fmt.Errorf("invalid signer-account: %w", err)
	}
	if err := ValidateAccountID(cfg.ContractAccount); err != nil {
		return fmt.Errorf("invalid contract-account: %w", err)
	}

	if cfg.CredentialPath == "" {
		return fmt.Errorf("credential-path cannot be empty")
	}

	if cfg.GasPerCall == 0 || cfg.GasPerCall > MaxGasPerCall {
		return fmt.Errorf("gas-per-call must be in (0, %d], got %d", uint64(MaxGasPerCall), cfg.GasPerCall)
	}

	if _, err := cfg.RegisterDepositAmount(); err != nil {
		return err
	}

	if cfg.ConnectRetries == 0 {
		return fmt.Errorf("connect-retries must be positive")
	}

	return nil
}

// ValidateAccountID checks id against the ledger's account naming rules.
func ValidateAccountID(id string) error {
	if len(id) < 2 || len(id) > 64 {
		return fmt.Errorf("account id %q must be 2 to 64 characters long", id)
	}
	if !accountIDRegexp.MatchString(id) {
		return fmt.Errorf("account id %q contains invalid characters", id)
	}

	return nil
}
