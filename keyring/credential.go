package keyring

import (
	stded25519 "crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	errorsmod "cosmossdk.io/errors"
	"github.com/cometbft/cometbft/crypto/ed25519"

	"github.com/eth2near/relayer/codec"
	"github.com/eth2near/relayer/types"
)

// EnvPrefix marks a credential source read from an environment variable
// instead of a file, e.g. "env:RELAYER_SIGNER_KEY".
const EnvPrefix = "env:"

var _ codec.Signer = (*Credential)(nil)

// KeyFile is the JSON credentials file layout written by the ledger tooling.
type KeyFile struct {
	AccountID  string `json:"account_id"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

// Credential is the relay account together with the access key it signs with.
// It is immutable once loaded and safe for concurrent use.
type Credential struct {
	accountID string
	privKey   ed25519.PrivKey
	pubKey    codec.PublicKey
}

// LoadCredential reads the credential source and binds it to accountID. An
// empty accountID accepts whatever account the source names.
func LoadCredential(source string, accountID string) (*Credential, error) {
	raw, err := readSource(source)
	if err != nil {
		return nil, errorsmod.Wrap(types.ErrCredential, err.Error())
	}

	var kf KeyFile
	if err := json.Unmarshal(raw, &kf); err != nil {
		return nil, errorsmod.Wrapf(types.ErrCredential, "malformed key file: %v", err)
	}

	return NewCredential(&kf, accountID)
}

// NewCredential validates kf and builds the credential from it.
func NewCredential(kf *KeyFile, accountID string) (*Credential, error) {
	if kf.PrivateKey == "" {
		return nil, errorsmod.Wrap(types.ErrCredential, "key file has no private_key field")
	}

	if accountID == "" {
		accountID = kf.AccountID
	}
	if accountID == "" {
		return nil, errorsmod.Wrap(types.ErrCredential, "no account id configured or present in key file")
	}
	if kf.AccountID != "" && kf.AccountID != accountID {
		return nil, errorsmod.Wrapf(types.ErrCredential,
			"key file belongs to %s, configured signer is %s", kf.AccountID, accountID)
	}

	privKey, err := parsePrivateKey(kf.PrivateKey)
	if err != nil {
		return nil, errorsmod.Wrap(types.ErrCredential, err.Error())
	}

	pubKey, err := codec.NewED25519PublicKey(privKey.PubKey().Bytes())
	if err != nil {
		return nil, errorsmod.Wrap(types.ErrCredential, err.Error())
	}

	if kf.PublicKey != "" && kf.PublicKey != pubKey.String() {
		return nil, errorsmod.Wrap(types.ErrCredential, "public_key does not match private_key")
	}

	return &Credential{
		accountID: accountID,
		privKey:   privKey,
		pubKey:    pubKey,
	}, nil
}

func (c *Credential) AccountID() string {
	return c.accountID
}

func (c *Credential) PublicKey() codec.PublicKey {
	return c.pubKey
}

func (c *Credential) Sign(msg []byte) ([]byte, error) {
	return c.privKey.Sign(msg)
}

func readSource(source string) ([]byte, error) {
	if source == "" {
		return nil, fmt.Errorf("empty credential source")
	}

	if strings.HasPrefix(source, EnvPrefix) {
		name := strings.TrimPrefix(source, EnvPrefix)
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			return nil, fmt.Errorf("environment variable %s is not set", name)
		}

		return []byte(v), nil
	}

	raw, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	return raw, nil
}

// parsePrivateKey accepts either the 64 byte expanded key or the 32 byte seed.
func parsePrivateKey(s string) (ed25519.PrivKey, error) {
	bz, err := codec.DecodeED25519Key(s)
	if err != nil {
		return nil, fmt.Errorf("invalid private_key: %w", err)
	}

	switch len(bz) {
	case ed25519.PrivateKeySize:
		return ed25519.PrivKey(bz), nil
	case stded25519.SeedSize:
		return ed25519.PrivKey(stded25519.NewKeyFromSeed(bz)), nil
	default:
		return nil, fmt.Errorf("invalid private_key length %d", len(bz))
	}
}
