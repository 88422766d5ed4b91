package codec

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
)

const (
	KeyTypeED25519 uint8 = 0

	ed25519Prefix       = "ed25519:"
	ed25519PubKeySize   = 32
	ed25519SignatureLen = 64
)

// PublicKey is the ledger's typed public key. Only ed25519 is supported.
type PublicKey struct {
	KeyType uint8
	Data    [ed25519PubKeySize]byte
}

func NewED25519PublicKey(bz []byte) (PublicKey, error) {
	if len(bz) != ed25519PubKeySize {
		return PublicKey{}, fmt.Errorf("invalid ed25519 public key length %d", len(bz))
	}
	pk := PublicKey{KeyType: KeyTypeED25519}
	copy(pk.Data[:], bz)

	return pk, nil
}

// ParsePublicKey parses the "ed25519:<base58>" text form.
func ParsePublicKey(s string) (PublicKey, error) {
	bz, err := DecodeED25519Key(s)
	if err != nil {
		return PublicKey{}, err
	}

	return NewED25519PublicKey(bz)
}

func (pk PublicKey) String() string {
	return ed25519Prefix + base58.Encode(pk.Data[:])
}

// DecodeED25519Key strips the key type prefix and base58-decodes the rest.
func DecodeED25519Key(s string) ([]byte, error) {
	if !strings.HasPrefix(s, ed25519Prefix) {
		return nil, fmt.Errorf("unsupported key type in %q, only ed25519 is supported", truncate(s))
	}
	bz := base58.Decode(strings.TrimPrefix(s, ed25519Prefix))
	if len(bz) == 0 {
		return nil, fmt.Errorf("invalid base58 key data")
	}

	return bz, nil
}

type Signature struct {
	KeyType uint8
	Data    [ed25519SignatureLen]byte
}

func NewED25519Signature(bz []byte) (Signature, error) {
	if len(bz) != ed25519SignatureLen {
		return Signature{}, fmt.Errorf("invalid ed25519 signature length %d", len(bz))
	}
	sig := Signature{KeyType: KeyTypeED25519}
	copy(sig.Data[:], bz)

	return sig, nil
}

// never echo key material into errors
func truncate(s string) string {
	if i := strings.Index(s, ":"); i >= 0 {
		return s[:i+1] + "..."
	}

	return "..."
}
