// Package zkml bridges quantized machine-learning computation graphs to a
// PLONK proof system: it builds field-element public instances from model
// inputs/outputs, drives proof generation with an optional built-in sanity
// check, and owns the on-disk formats for proofs, keys and parameters.
//
// The proving backend is github.com/consensys/gnark over the curves listed
// by Curves.
package zkml

import (
	"github.com/blang/semver/v4"
	"github.com/consensys/gnark-crypto/ecc"
)

var Version = semver.MustParse("0.1.0")

// Curves return the curves supported by zkml
func Curves() []ecc.ID {
	return []ecc.ID{
		ecc.BN254,
		ecc.BLS12_377,
		ecc.BLS12_381,
		ecc.BLS24_315,
		ecc.BLS24_317,
		ecc.BW6_761,
		ecc.BW6_633,
	}
}
