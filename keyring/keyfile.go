package keyring

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/cometbft/cometbft/crypto/ed25519"

	"github.com/eth2near/relayer/codec"
)

// GenerateKeyFile creates a fresh ed25519 access key for accountID and writes
// it to path. It refuses to overwrite an existing file.
func GenerateKeyFile(path string, accountID string) (*KeyFile, error) {
	if accountID == "" {
		return nil, fmt.Errorf("the account id should not be empty")
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("key file %s already exists", path)
	}

	kf, err := NewKeyFile(ed25519.GenPrivKey(), accountID)
	if err != nil {
		return nil, err
	}

	bz, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode key file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(path, bz, 0600); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}

	return kf, nil
}

// NewKeyFile renders priv in the credentials file layout.
func NewKeyFile(priv ed25519.PrivKey, accountID string) (*KeyFile, error) {
	pk, err := codec.NewED25519PublicKey(priv.PubKey().Bytes())
	if err != nil {
		return nil, err
	}

	return &KeyFile{
		AccountID:  accountID,
		PublicKey:  pk.String(),
		PrivateKey: "ed25519:" + base58.Encode(priv.Bytes()),
	}, nil
}
