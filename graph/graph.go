// Package graph carries the contract handed over by the model compiler: the
// run arguments a circuit was compiled under and the visibility policy of
// its variables.
package graph

import (
	"encoding/json"
	"fmt"
)

// Visibility states whether a class of circuit variables is exposed through
// public instances.
type Visibility uint8

const (
	Private Visibility = iota
	Public
)

// IsPublic reports whether the class contributes public instances.
func (v Visibility) IsPublic() bool { return v == Public }

func (v Visibility) String() string {
	switch v {
	case Public:
		return "public"
	case Private:
		return "private"
	}
	return "unknown"
}

// MarshalJSON encodes the visibility by name.
func (v Visibility) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Visibility) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "public":
		*v = Public
	case "private":
		*v = Private
	default:
		return fmt.Errorf("unknown visibility %q", s)
	}
	return nil
}

// VarVisibility declares which variable classes of a compiled circuit are
// public.
type VarVisibility struct {
	Input  Visibility `json:"input"`
	Output Visibility `json:"output"`
}

// RunArgs mirrors the run-argument record produced when a model is compiled.
// Proving and verifying must reuse the record the circuit was compiled with
// so that instance layouts line up.
type RunArgs struct {
	Tolerance     int    `json:"tolerance"`
	Scale         uint   `json:"scale"`
	Bits          uint   `json:"bits"`
	LogRows       uint   `json:"logrows"`
	PackBase      uint32 `json:"pack_base"`
	PublicInputs  bool   `json:"public_inputs"`
	PublicOutputs bool   `json:"public_outputs"`
}

// DefaultRunArgs returns the run arguments a model is compiled with when the
// caller does not override them.
func DefaultRunArgs() RunArgs {
	return RunArgs{
		Scale:         7,
		Bits:          16,
		LogRows:       17,
		PackBase:      1,
		PublicInputs:  true,
		PublicOutputs: true,
	}
}

// Visibility derives the visibility policy the run arguments declare.
func (a RunArgs) Visibility() VarVisibility {
	vis := VarVisibility{Input: Private, Output: Private}
	if a.PublicInputs {
		vis.Input = Public
	}
	if a.PublicOutputs {
		vis.Output = Public
	}
	return vis
}
