package tensor

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/zkmlio/zkml/fieldutils"
)

var ErrPackBase = errors.New("packing base must be greater than 1")

// Pack folds a tensor into a single integer by positional composition:
// the sum over i of values[i] * base^(i*(scale+1)). The stride of scale+1
// base digits leaves one carry digit per element between fixed-point values.
//
// Callers bound the largest exponent with MaxExponent before packing; Pack
// does not re-check.
func Pack(t *Tensor, base uint32, scale uint) (*Tensor, error) {
	if base <= 1 {
		return nil, fmt.Errorf("%w: %d", ErrPackBase, base)
	}
	step := new(big.Int).Exp(big.NewInt(int64(base)), big.NewInt(int64(scale)+1), nil)
	pow := big.NewInt(1)
	acc := new(big.Int)
	for _, v := range t.Values() {
		acc.Add(acc, new(big.Int).Mul(v, pow))
		pow = new(big.Int).Mul(pow, step)
	}
	return New([]*big.Int{acc}, 1)
}

// MaxExponent returns the largest exponent e such that base^e stays within
// the signed 128-bit range the packing arithmetic is bounded to. Bases below
// 2 have no usable exponent and yield 0.
func MaxExponent(base uint32) int {
	if base <= 1 {
		return 0
	}
	b := big.NewInt(int64(base))
	pow := new(big.Int).Set(b)
	e := 0
	for pow.Cmp(fieldutils.MaxInt128) <= 0 {
		pow.Mul(pow, b)
		e++
	}
	return e
}
