// Package fieldutils maps signed integers to and from scalar-field elements.
//
// A non-negative integer maps to itself, a negative integer v maps to q-abs(v).
// Canonical bytes are the field's fixed-width big-endian encoding, identical to
// the bytes a commitment transcript consumes.
package fieldutils

import (
	"math/big"
	"math/bits"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/zkmlio/zkml"
)

// MaxInt128 bounds the intermediate integer arithmetic of quantization and
// packing: quantized values and packed accumulators must stay within the
// signed 128-bit range.
var MaxInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))

// MinInt128 is the lower bound of the signed 128-bit range.
var MinInt128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))

var curves map[string]ecc.ID

func init() {
	curves = make(map[string]ecc.ID)
	for _, c := range zkml.Curves() {
		fHex := c.ScalarField().Text(16)
		curves[fHex] = c
	}
}

// ByteLen returns the number of bytes needed to encode 0 <= n < q
func ByteLen(q *big.Int) int {
	return len(q.Bits()) * (bits.UintSize / 8)
}

// FieldToCurve returns the curve whose scalar field has modulus q, or
// ecc.UNKNOWN.
func FieldToCurve(q *big.Int) ecc.ID {
	fHex := q.Text(16)
	curve, ok := curves[fHex]
	if !ok {
		return ecc.UNKNOWN
	}
	return curve
}

// IntToFelt lifts a signed integer into the field of modulus q.
func IntToFelt(v, q *big.Int) *big.Int {
	return new(big.Int).Mod(v, q)
}

// FeltToInt is the centered inverse of IntToFelt: elements above (q-1)/2 are
// read as negative.
func FeltToInt(f, q *big.Int) *big.Int {
	half := new(big.Int).Rsh(q, 1)
	r := new(big.Int).Set(f)
	if r.Cmp(half) > 0 {
		r.Sub(r, q)
	}
	return r
}

// FeltBytes encodes a reduced field element in the fixed-width big-endian
// form of modulus q.
func FeltBytes(f, q *big.Int) []byte {
	b := make([]byte, ByteLen(q))
	f.FillBytes(b)
	return b
}

// FeltFromBytes decodes a canonical encoding. No reduction or range check is
// performed; callers own the provenance of the bytes.
func FeltFromBytes(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

// FitsInt128 reports whether v lies in the signed 128-bit range.
func FitsInt128(v *big.Int) bool {
	return v.Cmp(MinInt128) >= 0 && v.Cmp(MaxInt128) <= 0
}
