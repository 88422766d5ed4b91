package config

import (
	"fmt"
	"path/filepath"

	errorsmod "cosmossdk.io/errors"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap/zapcore"

	"github.com/eth2near/relayer/metrics"
	"github.com/eth2near/relayer/types"
	"github.com/eth2near/relayer/util"
)

// Constants for config default values
const (
	defaultLedgerType       = "near"
	defaultLogLevel         = zapcore.InfoLevel
	defaultLogFormat        = "console"
	defaultLogDirname       = "logs"
	defaultLogFilename      = "relayd.log"
	defaultConfigFileName   = "relayd.conf"
	defaultDataDirname      = "data"
	defaultCheckpointDir    = "checkpoints"
	defaultLockDirname      = "locks"
	defaultKeyFileName      = "signer_key.json"
	defaultSubmissionMode   = SubmissionModeAtomic
	defaultMaxHeadersPerTx  = 100
)

const (
	// SubmissionModeAtomic sends a header batch as one transaction, so the
	// whole batch takes effect or none of it does.
	SubmissionModeAtomic = "atomic"
	// SubmissionModeSequential sends one transaction per header. A batch
	// may then be applied partially.
	SubmissionModeSequential = "sequential"
)

var (
	//   C:\Users\<username>\AppData\Local\ on Windows
	//   ~/.relayd on Linux
	//   ~/Users/<username>/Library/Application Support/Relayd on MacOS
	DefaultRelaydDir = btcutil.AppDataDir("relayd", false)
)

// Config is the main config for the relayd cli command
type Config struct {
	LogLevel       string `long:"loglevel" description:"Logging level for all subsystems" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" choice:"fatal"`
	LogFormat      string `long:"logformat" description:"Format of the log output" choice:"console" choice:"json" choice:"logfmt"`
	LedgerType     string `long:"ledgertype" description:"The type of the ledger the light client lives on" choice:"near"`
	SubmissionMode string `long:"submissionmode" description:"How a header batch is turned into transactions" choice:"atomic" choice:"sequential"`
	// MaxHeadersPerBatch bounds a single SubmitHeaders call
	MaxHeadersPerBatch uint32 `long:"maxheadersperbatch" description:"The maximum number of execution headers accepted in one batch"`
	CheckpointDir      string `long:"checkpointdir" description:"The directory checkpoint files are written to before submission"`

	NearConfig *NearConfig `group:"near" namespace:"near"`

	ContractConfig *ContractConfig `group:"contract" namespace:"contract"`

	DatabaseConfig *DBConfig `group:"dbconfig" namespace:"dbconfig"`

	Metrics *metrics.Config `group:"metrics" namespace:"metrics"`
}

func DefaultConfigWithHome(homePath string) Config {
	nearCfg := DefaultNearConfig()
	nearCfg.CredentialPath = filepath.Join(homePath, defaultKeyFileName)
	contractCfg := DefaultContractConfig()
	cfg := Config{
		LogLevel:           defaultLogLevel.String(),
		LogFormat:          defaultLogFormat,
		LedgerType:         defaultLedgerType,
		SubmissionMode:     defaultSubmissionMode,
		MaxHeadersPerBatch: defaultMaxHeadersPerTx,
		CheckpointDir:      CheckpointDir(homePath),
		NearConfig:         &nearCfg,
		ContractConfig:     &contractCfg,
		DatabaseConfig:     DefaultDBConfigWithHomePath(homePath),
		Metrics:            metrics.DefaultRelayerConfig(),
	}

	return cfg
}

func CfgFile(homePath string) string {
	return filepath.Join(homePath, defaultConfigFileName)
}

func LogDir(homePath string) string {
	return filepath.Join(homePath, defaultLogDirname)
}

func LogFile(homePath string) string {
	return filepath.Join(LogDir(homePath), defaultLogFilename)
}

func DataDir(homePath string) string {
	return filepath.Join(homePath, defaultDataDirname)
}

func CheckpointDir(homePath string) string {
	return filepath.Join(homePath, defaultCheckpointDir)
}

func LockDir(homePath string) string {
	return filepath.Join(homePath, defaultLockDirname)
}

// LoadConfig initializes and parses the config using a config file.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Load configuration file overwriting defaults with any specified options
//  3. Validate the result
func LoadConfig(homePath string) (*Config, error) {
	// The home directory is required to have a configuration file with a specific name
	// under it.
	cfgFile := CfgFile(homePath)
	if !util.FileExists(cfgFile) {
		return nil, errorsmod.Wrapf(types.ErrConfig, "specified config file does "+
			"not exist in %s", cfgFile)
	}

	cfg := DefaultConfigWithHome(homePath)
	fileParser := flags.NewParser(&cfg, flags.Default)
	if err := flags.NewIniParser(fileParser).ParseFile(cfgFile); err != nil {
		return nil, errorsmod.Wrap(types.ErrConfig, err.Error())
	}

	cfg.CheckpointDir = util.CleanAndExpandPath(cfg.CheckpointDir)
	cfg.NearConfig.CredentialPath = util.CleanAndExpandPath(cfg.NearConfig.CredentialPath)
	cfg.DatabaseConfig.DBPath = util.CleanAndExpandPath(cfg.DatabaseConfig.DBPath)

	// Make sure everything we just loaded makes sense.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// WriteConfig writes cfg as an ini file to the config file under homePath.
func WriteConfig(cfg *Config, homePath string) error {
	fileParser := flags.NewParser(cfg, flags.Default)

	if err := flags.NewIniParser(fileParser).WriteFile(CfgFile(homePath), flags.IniIncludeComments|flags.IniIncludeDefaults); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the given configuration to be sane. Every failure is
// reported as types.ErrConfig.
func (cfg *Config) Validate() error {
	if err := cfg.validate(); err != nil {
		return errorsmod.Wrap(types.ErrConfig, err.Error())
	}

	return nil
}

func (cfg *Config) validate() error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	switch cfg.SubmissionMode {
	case SubmissionModeAtomic, SubmissionModeSequential:
	default:
		return fmt.Errorf("unsupported submission mode %q", cfg.SubmissionMode)
	}

	if cfg.MaxHeadersPerBatch == 0 {
		return fmt.Errorf("max headers per batch must be positive")
	}

	if cfg.CheckpointDir == "" {
		return fmt.Errorf("checkpoint directory cannot be empty")
	}

	if cfg.NearConfig == nil {
		return fmt.Errorf("near config cannot be empty")
	}
	if err := cfg.NearConfig.Validate(); err != nil {
		return fmt.Errorf("near configuration validation failed: %w", err)
	}

	if cfg.ContractConfig == nil {
		return fmt.Errorf("contract config cannot be empty")
	}
	if err := cfg.ContractConfig.Validate(); err != nil {
		return fmt.Errorf("contract configuration validation failed: %w", err)
	}

	if cfg.DatabaseConfig == nil {
		return fmt.Errorf("database config cannot be empty")
	}
	if err := cfg.DatabaseConfig.Validate(); err != nil {
		return fmt.Errorf("database configuration validation failed: %w", err)
	}

	if cfg.Metrics == nil {
		return fmt.Errorf("metrics configuration cannot be empty")
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics configuration validation failed: %w", err)
	}

	return nil
}
