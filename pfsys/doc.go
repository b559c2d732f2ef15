// Package pfsys drives the proof lifecycle of a quantized model circuit:
// it prepares field element instances from model run data, generates PLONK
// proofs with an optional pre and post flight check, verifies proofs under a
// pluggable strategy and persists proofs, protocols, keys and parameters.
package pfsys
