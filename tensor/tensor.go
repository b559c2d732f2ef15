// Package tensor holds the fixed-point primitives bridging floating-point
// model tensors to the integer domain a circuit operates in: quantization at
// a power-of-two scale and positional packing of quantized vectors.
//
// Values are kept as big integers; the quantization and packing entry points
// bound them to the signed 128-bit range so that downstream consumers can
// rely on a fixed intermediate width.
package tensor

import (
	"errors"
	"fmt"
	"math/big"
)

var ErrShape = errors.New("shape does not match value count")

// Tensor is a flat, shaped vector of signed integers.
type Tensor struct {
	values []*big.Int
	shape  []int
}

// New builds a tensor over values with the given row-major shape.
func New(values []*big.Int, shape ...int) (*Tensor, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("%w: negative dimension %d", ErrShape, d)
		}
		n *= d
	}
	if n != len(values) {
		return nil, fmt.Errorf("%w: %d values, shape %v", ErrShape, len(values), shape)
	}
	return &Tensor{values: values, shape: shape}, nil
}

// Len returns the number of elements.
func (t *Tensor) Len() int { return len(t.values) }

// Shape returns the dimensions of the tensor.
func (t *Tensor) Shape() []int { return t.shape }

// At returns the i-th element in row-major order.
func (t *Tensor) At(i int) *big.Int { return t.values[i] }

// Values returns the flattened elements in row-major order.
func (t *Tensor) Values() []*big.Int { return t.values }
