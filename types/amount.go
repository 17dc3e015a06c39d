package types

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

var ErrAmountOverflow = errors.New("amount overflows 256 bits")

func AmountToBig(a uint256.Int) *big.Int {
	return a.ToBig()
}

func AmountFromBig(b *big.Int) (uint256.Int, error) {
	if b == nil {
		return uint256.Int{}, nil
	}
	v, overflow := uint256.FromBig(b)
	if overflow || b.Sign() < 0 {
		return uint256.Int{}, ErrAmountOverflow
	}
	return *v, nil
}

func NewAmount(v uint64) uint256.Int {
	return *uint256.NewInt(v)
}
