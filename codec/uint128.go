package codec

import (
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// Uint128 is an unsigned 128 bit amount laid out as two little-endian words,
// matching the wire layout of u128.
type Uint128 struct {
	Lo uint64
	Hi uint64
}

var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// NewUint128 converts an amount to its 128 bit form, failing on overflow.
// A nil amount is zero.
func NewUint128(amount sdkmath.Uint) (Uint128, error) {
	if amount.IsNil() {
		return Uint128{}, nil
	}
	b := amount.BigInt()
	if b.Cmp(maxUint128) > 0 {
		return Uint128{}, fmt.Errorf("amount %s overflows u128", amount)
	}
	lo := new(big.Int).And(b, new(big.Int).SetUint64(^uint64(0)))

	return Uint128{
		Lo: lo.Uint64(),
		Hi: new(big.Int).Rsh(b, 64).Uint64(),
	}, nil
}

func (u Uint128) Big() *big.Int {
	v := new(big.Int).SetUint64(u.Hi)
	v.Lsh(v, 64)

	return v.Or(v, new(big.Int).SetUint64(u.Lo))
}

func (u Uint128) IsZero() bool {
	return u.Lo == 0 && u.Hi == 0
}

func (u Uint128) String() string {
	return u.Big().String()
}
