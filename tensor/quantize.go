package tensor

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/zkmlio/zkml/fieldutils"
)

var (
	ErrNonFinite = errors.New("cannot quantize a non-finite value")
	ErrRange     = errors.New("quantized value exceeds the 128-bit range")
)

// Quantize maps a float vector to fixed point at a power-of-two scale: each
// value v becomes round(v*2^scale + zeroPoint), rounding half away from zero.
// It fails on NaN or infinite inputs and on results outside the signed
// 128-bit range.
func Quantize(values []float64, shape []int, zeroPoint float64, scale uint) (*Tensor, error) {
	mult := math.Ldexp(1, int(scale))
	out := make([]*big.Int, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: index %d", ErrNonFinite, i)
		}
		q := math.Round(v*mult + zeroPoint)
		r, _ := big.NewFloat(q).Int(nil)
		if !fieldutils.FitsInt128(r) {
			return nil, fmt.Errorf("%w: index %d, value %v at scale %d", ErrRange, i, v, scale)
		}
		out[i] = r
	}
	return New(out, shape...)
}

// Dequantize is the float image of a quantized value at the given scale. The
// round trip loses the sub-scale fraction only.
func Dequantize(v *big.Int, scale uint) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return math.Ldexp(f, -int(scale))
}
