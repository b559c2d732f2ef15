package pfsys

import (
	"bytes"
	"fmt"

	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/std/algebra"
	"github.com/consensys/gnark/std/commitments/kzg"
	"github.com/consensys/gnark/std/math/emulated"
	stdplonk "github.com/consensys/gnark/std/recursion/plonk"
)

// SnarkWitness is the in-circuit form of a Snark, for aggregation circuits
// that verify inner proofs recursively. The transform from Snark is one
// way; a witness holds circuit variables only and cannot be turned back
// into an artifact.
type SnarkWitness[FR emulated.FieldParams, G1El algebra.G1ElementT, G2El algebra.G2ElementT] struct {
	Instances [][]emulated.Element[FR]
	Proof     stdplonk.Proof[FR, G1El, G2El]
}

// ValueOfSnark assigns an artifact to an in-circuit witness.
func ValueOfSnark[FR emulated.FieldParams, G1El algebra.G1ElementT, G2El algebra.G2ElementT](s *Snark) (SnarkWitness[FR, G1El, G2El], error) {
	var ret SnarkWitness[FR, G1El, G2El]

	proof, err := decodeProof(s)
	if err != nil {
		return ret, err
	}
	ret.Proof, err = stdplonk.ValueOfProof[FR, G1El, G2El](proof)
	if err != nil {
		return ret, fmt.Errorf("assign proof: %w", err)
	}
	ret.Instances = make([][]emulated.Element[FR], len(s.Instances))
	for i, group := range s.Instances {
		ret.Instances[i] = make([]emulated.Element[FR], len(group))
		for j, felt := range group {
			ret.Instances[i][j] = emulated.ValueOf[FR](felt)
		}
	}
	return ret, nil
}

// PlaceholderSnark returns a witness shaped like s with every assignment
// zeroed, for compiling the aggregation circuit.
func PlaceholderSnark[FR emulated.FieldParams, G1El algebra.G1ElementT, G2El algebra.G2ElementT](s *Snark) (SnarkWitness[FR, G1El, G2El], error) {
	var ret SnarkWitness[FR, G1El, G2El]

	proof, err := decodeProof(s)
	if err != nil {
		return ret, err
	}
	ret.Proof = stdplonk.PlaceholderProof[FR, G1El, G2El](proof)
	ret.Instances = make([][]emulated.Element[FR], len(s.Instances))
	for i, group := range s.Instances {
		ret.Instances[i] = make([]emulated.Element[FR], len(group))
	}
	return ret, nil
}

// WithoutWitnesses returns a copy of w with every assignment cleared.
// Slice shapes survive, so the result compiles the same circuit the
// assigned witness solves.
func (w SnarkWitness[FR, G1El, G2El]) WithoutWitnesses() SnarkWitness[FR, G1El, G2El] {
	ret := SnarkWitness[FR, G1El, G2El]{
		Instances: make([][]emulated.Element[FR], len(w.Instances)),
		Proof: stdplonk.Proof[FR, G1El, G2El]{
			Bsb22Commitments: make([]kzg.Commitment[G1El], len(w.Proof.Bsb22Commitments)),
			BatchedProof: kzg.BatchOpeningProof[FR, G1El]{
				ClaimedValues: make([]emulated.Element[FR], len(w.Proof.BatchedProof.ClaimedValues)),
			},
		},
	}
	for i, group := range w.Instances {
		ret.Instances[i] = make([]emulated.Element[FR], len(group))
	}
	return ret
}

// FlatWitness flattens the instance groups into the single public witness
// the recursion verifier consumes, preserving group order.
func (w SnarkWitness[FR, G1El, G2El]) FlatWitness() stdplonk.Witness[FR] {
	var flat stdplonk.Witness[FR]
	for _, group := range w.Instances {
		flat.Public = append(flat.Public, group...)
	}
	return flat
}

func decodeProof(s *Snark) (plonk.Proof, error) {
	proof := plonk.NewProof(s.CurveID)
	if _, err := proof.ReadFrom(bytes.NewReader(s.Proof)); err != nil {
		return nil, fmt.Errorf("decode proof: %w", err)
	}
	return proof, nil
}
