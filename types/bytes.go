package types

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// H256 is a 32 byte hash. It is encoded as raw bytes on the wire and as a
// 0x-prefixed hex string in JSON.
type H256 [32]byte

// H160 is a 20 byte execution layer address.
type H160 [20]byte

// H64 is the 8 byte proof-of-work nonce of an execution header.
type H64 [8]byte

// Bloom is the 256 byte logs bloom of an execution header.
type Bloom [256]byte

// BLSPubKey is a compressed BLS12-381 public key.
type BLSPubKey [48]byte

// BLSSignature is a compressed BLS12-381 signature.
type BLSSignature [96]byte

func HexToH256(s string) (H256, error) {
	var h H256
	if err := h.UnmarshalText([]byte(s)); err != nil {
		return H256{}, err
	}

	return h, nil
}

func (h H256) String() string { return hexutil.Encode(h[:]) }

func (h H256) Equal(other H256) bool { return bytes.Equal(h[:], other[:]) }

func (h H256) IsZero() bool { return h == H256{} }

func (h H256) MarshalText() ([]byte, error) { return hexutil.Bytes(h[:]).MarshalText() }

func (h *H256) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("H256", input, h[:])
}

func (a H160) MarshalText() ([]byte, error) { return hexutil.Bytes(a[:]).MarshalText() }

func (a *H160) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("H160", input, a[:])
}

func (n H64) MarshalText() ([]byte, error) { return hexutil.Bytes(n[:]).MarshalText() }

func (n *H64) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("H64", input, n[:])
}

func (b Bloom) MarshalText() ([]byte, error) { return hexutil.Bytes(b[:]).MarshalText() }

func (b *Bloom) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("Bloom", input, b[:])
}

func (k BLSPubKey) MarshalText() ([]byte, error) { return hexutil.Bytes(k[:]).MarshalText() }

func (k *BLSPubKey) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("BLSPubKey", input, k[:])
}

func (s BLSSignature) MarshalText() ([]byte, error) { return hexutil.Bytes(s[:]).MarshalText() }

func (s *BLSSignature) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("BLSSignature", input, s[:])
}

func h256FromHash(h common.Hash) H256 { return H256(h) }

// U256 is a 256 bit unsigned integer stored as four little-endian 64 bit
// words, which is also its wire layout. JSON uses the decimal form.
type U256 [4]uint64

func U256FromBig(b *big.Int) (U256, error) {
	if b == nil {
		return U256{}, nil
	}
	if b.Sign() < 0 {
		return U256{}, fmt.Errorf("negative value %s does not fit into U256", b)
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return U256{}, fmt.Errorf("value %s overflows U256", b)
	}

	return U256(*v), nil
}

func U256FromUint64(v uint64) U256 {
	return U256(*uint256.NewInt(v))
}

func (u U256) Big() *big.Int {
	v := uint256.Int(u)

	return v.ToBig()
}

func (u U256) MarshalText() ([]byte, error) {
	return []byte(u.Big().String()), nil
}

func (u *U256) UnmarshalText(input []byte) error {
	b, ok := new(big.Int).SetString(string(input), 0)
	if !ok {
		return fmt.Errorf("invalid U256 %q", string(input))
	}
	v, err := U256FromBig(b)
	if err != nil {
		return err
	}
	*u = v

	return nil
}
